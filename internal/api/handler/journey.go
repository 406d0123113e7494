package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/journey"
)

const dateLayout = "2006-01-02"

type JourneyHandler struct {
	service JourneyServiceInterface
}

func NewJourneyHandler(s JourneyServiceInterface) *JourneyHandler {
	return &JourneyHandler{service: s}
}

type SearchJourneysRequest struct {
	FromID int64  `query:"from_id" validate:"required,gt=0" example:"1"`
	ToID   int64  `query:"to_id" validate:"required,gt=0" example:"2"`
	Date   string `query:"date" validate:"required,datetime=2006-01-02" example:"2026-10-20"`
}

type JourneyResponse struct {
	ID                int64     `json:"id" example:"42"`
	OriginCity        string    `json:"origin_city" example:"Istanbul"`
	DestinationCity   string    `json:"destination_city" example:"Ankara"`
	DepartureAt       time.Time `json:"departure_at"`
	ArrivalEstimateAt time.Time `json:"arrival_estimate_at"`
	Provider          string    `json:"provider" example:"ProviderA"`
	Price             string    `json:"price" example:"825.00"`
}

type SeatResponse struct {
	ID         int64  `json:"id"`
	SeatNumber int    `json:"seat_number" example:"1"`
	Row        int    `json:"row" example:"1"`
	Column     int    `json:"column" example:"1"`
	Type       int    `json:"type" example:"1"`
	Sold       bool   `json:"is_sold"`
	GenderLock *int   `json:"gender_lock,omitempty"`
	Price      string `json:"price" example:"825.00"`
}

func toJourneyResponse(j application.JourneySummary) JourneyResponse {
	return JourneyResponse{
		ID: j.ID, OriginCity: j.OriginCity, DestinationCity: j.DestinationCity,
		DepartureAt: j.DepartureAt, ArrivalEstimateAt: j.ArrivalEstimateAt,
		Provider: j.Provider, Price: j.Price.StringFixed(2),
	}
}

func toSeatResponse(s application.SeatView) SeatResponse {
	resp := SeatResponse{
		ID: s.ID, SeatNumber: s.SeatNumber, Row: s.Row, Column: s.Column,
		Type: int(s.Type), Sold: s.Sold, Price: s.Price.StringFixed(2),
	}
	if s.GenderLock != nil {
		g := int(*s.GenderLock)
		resp.GenderLock = &g
	}
	return resp
}

// Search godoc
// @Summary 便を検索
// @Description 出発地・到着地・日付で便を検索します（当日の場合は出発済みの便を除外）
// @Tags journeys
// @Produce json
// @Param from_id query int true "出発ターミナルID"
// @Param to_id query int true "到着ターミナルID"
// @Param date query string true "出発日 (YYYY-MM-DD)"
// @Success 200 {array} JourneyResponse
// @Failure 400 {object} map[string]string
// @Router /journeys [get]
func (h *JourneyHandler) Search(c echo.Context) error {
	var req SearchJourneysRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日付の形式が不正です")
	}
	journeys, err := h.service.Search(c.Request().Context(), application.SearchInput{
		OriginID: req.FromID, DestinationID: req.ToID, Date: date,
	})
	if err != nil {
		if errors.Is(err, journey.ErrStationRequired) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]JourneyResponse, len(journeys))
	for i, j := range journeys {
		resp[i] = toJourneyResponse(j)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 便の詳細を取得
// @Tags journeys
// @Produce json
// @Param id path int true "便ID"
// @Success 200 {object} JourneyResponse
// @Failure 404 {object} map[string]string
// @Router /journeys/{id} [get]
func (h *JourneyHandler) GetByID(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	j, err := h.service.GetJourney(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, journey.ErrJourneyNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toJourneyResponse(*j))
}

// GetSeats godoc
// @Summary 座席表を取得
// @Description 便の座席表を取得します（未生成の場合はレイアウトから生成）
// @Tags journeys
// @Produce json
// @Param id path int true "便ID"
// @Success 200 {array} SeatResponse
// @Failure 404 {object} map[string]string
// @Router /journeys/{id}/seats [get]
func (h *JourneyHandler) GetSeats(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	seats, err := h.service.GetSeatPlan(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(seats) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, journey.ErrJourneyNotFound.Error())
	}
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = toSeatResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "IDの形式が不正です")
	}
	return id, nil
}
