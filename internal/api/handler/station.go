package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/station"
)

type StationHandler struct {
	service JourneyServiceInterface
}

func NewStationHandler(s JourneyServiceInterface) *StationHandler {
	return &StationHandler{service: s}
}

type StationResponse struct {
	ID   int64  `json:"id" example:"1"`
	City string `json:"city" example:"Istanbul"`
	Name string `json:"name" example:"Esenler Otogarı"`
}

func toStationResponse(s *station.Station) StationResponse {
	return StationResponse{ID: s.ID, City: s.City, Name: s.Name}
}

// List godoc
// @Summary ターミナル一覧を取得
// @Tags stations
// @Produce json
// @Success 200 {array} StationResponse
// @Router /stations [get]
func (h *StationHandler) List(c echo.Context) error {
	stations, err := h.service.ListStations(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]StationResponse, len(stations))
	for i, s := range stations {
		resp[i] = toStationResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}
