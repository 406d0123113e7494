package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/ticket"
)

type TicketHandler struct {
	service BookingServiceInterface
}

func NewTicketHandler(s BookingServiceInterface) *TicketHandler {
	return &TicketHandler{service: s}
}

type SeatSelectionRequest struct {
	SeatID              int64  `json:"seat_id" validate:"required,gt=0" example:"1201"`
	PassengerName       string `json:"passenger_name" example:"Ayşe Yılmaz"`
	PassengerNationalID string `json:"passenger_national_id" example:"12345678901"`
	Gender              int    `json:"gender" example:"2"`
}

// CheckoutRequest の座席数・乗客情報のルールはサービス側で検証する
type CheckoutRequest struct {
	JourneyID int64                  `json:"journey_id" validate:"required,gt=0" example:"42"`
	Seats     []SeatSelectionRequest `json:"seats" validate:"dive"`
}

type TicketResponse struct {
	ConfirmationCode    string    `json:"confirmation_code" example:"A1B2C3"`
	JourneyID           int64     `json:"journey_id" example:"42"`
	SeatID              int64     `json:"seat_id" example:"1201"`
	SeatNumber          int       `json:"seat_number" example:"5"`
	PassengerName       string    `json:"passenger_name" example:"Ayşe Yılmaz"`
	PassengerNationalID string    `json:"passenger_national_id" example:"12345678901"`
	Gender              int       `json:"gender" example:"2"`
	PaidAmount          string    `json:"paid_amount" example:"825.00"`
	CreatedAt           time.Time `json:"created_at"`
}

type SaleResponse struct {
	Success          bool             `json:"success"`
	Status           string           `json:"status" example:"success"`
	Message          string           `json:"message"`
	ConfirmationCode string           `json:"confirmation_code,omitempty" example:"A1B2C3"`
	Tickets          []TicketResponse `json:"tickets,omitempty"`
}

func toTicketResponse(t *ticket.Ticket) TicketResponse {
	return TicketResponse{
		ConfirmationCode: t.ConfirmationCode, JourneyID: t.JourneyID,
		SeatID: t.SeatID, SeatNumber: t.SeatNumber,
		PassengerName: t.PassengerName, PassengerNationalID: t.PassengerNationalID,
		Gender: int(t.PassengerGender), PaidAmount: t.PaidAmount.StringFixed(2),
		CreatedAt: t.CreatedAt,
	}
}

// saleHTTPStatus は販売結果の区分をHTTPステータスに変換する
func saleHTTPStatus(status application.SaleStatus) int {
	switch status {
	case application.SaleStatusSuccess:
		return http.StatusCreated
	case application.SaleStatusNotFound:
		return http.StatusNotFound
	case application.SaleStatusPolicyRejected:
		return http.StatusBadRequest
	case application.SaleStatusSeatUnavailable, application.SaleStatusConflict:
		return http.StatusConflict
	case application.SaleStatusPaymentDeclined:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Checkout godoc
// @Summary 乗車券を購入
// @Description 選択した座席（最大4席）の乗車券をまとめて購入します
// @Tags tickets
// @Accept json
// @Produce json
// @Param request body CheckoutRequest true "購入情報"
// @Success 201 {object} SaleResponse
// @Failure 400 {object} SaleResponse "購入ルール違反"
// @Failure 402 {object} SaleResponse "決済拒否"
// @Failure 404 {object} SaleResponse "便または座席が存在しない"
// @Failure 409 {object} SaleResponse "座席が販売済み、または同時購入で競合"
// @Router /tickets/checkout [post]
func (h *TicketHandler) Checkout(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := application.SellInput{JourneyID: req.JourneyID, Seats: make([]application.SeatSelection, len(req.Seats))}
	for i, s := range req.Seats {
		input.Seats[i] = application.SeatSelection{
			SeatID:              s.SeatID,
			PassengerName:       s.PassengerName,
			PassengerNationalID: s.PassengerNationalID,
			Gender:              seat.Gender(s.Gender),
		}
	}

	result, err := h.service.Sell(c.Request().Context(), input)
	status := application.ClassifySaleError(err)
	if status == application.SaleStatusError {
		return echo.NewHTTPError(http.StatusInternalServerError, "購入処理に失敗しました").SetInternal(err)
	}
	if err != nil {
		return c.JSON(saleHTTPStatus(status), SaleResponse{
			Success: false, Status: string(status), Message: err.Error(),
		})
	}

	resp := SaleResponse{
		Success:          result.Success,
		Status:           string(status),
		Message:          result.Message,
		ConfirmationCode: result.ConfirmationCode,
		Tickets:          make([]TicketResponse, len(result.Tickets)),
	}
	for i, t := range result.Tickets {
		resp.Tickets[i] = toTicketResponse(t)
	}
	return c.JSON(saleHTTPStatus(status), resp)
}

// GetByCode godoc
// @Summary 乗車券を取得
// @Description 予約確認コードで乗車券を取得します
// @Tags tickets
// @Produce json
// @Param code path string true "予約確認コード"
// @Success 200 {object} TicketResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tickets/{code} [get]
func (h *TicketHandler) GetByCode(c echo.Context) error {
	t, err := h.service.GetTicket(c.Request().Context(), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, ticket.ErrInvalidConfirmationCode):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ticket.ErrTicketNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toTicketResponse(t))
}
