package application

import (
	"errors"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/journey"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/ticket"
)

// SaleStatus は購入処理の結果区分
type SaleStatus string

const (
	SaleStatusSuccess         SaleStatus = "success"
	SaleStatusNotFound        SaleStatus = "not_found"
	SaleStatusPolicyRejected  SaleStatus = "policy_rejected"
	SaleStatusSeatUnavailable SaleStatus = "seat_unavailable"
	SaleStatusPaymentDeclined SaleStatus = "payment_declined"
	SaleStatusConflict        SaleStatus = "conflict"
	SaleStatusError           SaleStatus = "error"
)

// ClassifySaleError は Sell が返したエラーを結果区分に変換する
func ClassifySaleError(err error) SaleStatus {
	switch {
	case err == nil:
		return SaleStatusSuccess
	case errors.Is(err, journey.ErrJourneyNotFound),
		errors.Is(err, seat.ErrSeatNotFound):
		return SaleStatusNotFound
	case errors.Is(err, ticket.ErrTooManySeats),
		errors.Is(err, ticket.ErrNoSeatsSelected),
		errors.Is(err, ticket.ErrDuplicateSeat),
		errors.Is(err, ticket.ErrPassengerNameRequired),
		errors.Is(err, ticket.ErrNationalIDRequired),
		errors.Is(err, ticket.ErrPassengerNameTooLong),
		errors.Is(err, ticket.ErrNationalIDTooLong),
		errors.Is(err, seat.ErrInvalidGender):
		return SaleStatusPolicyRejected
	case errors.Is(err, seat.ErrSeatAlreadySold),
		errors.Is(err, seat.ErrGenderMismatch):
		return SaleStatusSeatUnavailable
	case errors.Is(err, payment.ErrPaymentDeclined):
		return SaleStatusPaymentDeclined
	case errors.Is(err, seat.ErrOptimisticLockConflict),
		errors.Is(err, ticket.ErrSeatAlreadyTicketed):
		return SaleStatusConflict
	default:
		return SaleStatusError
	}
}
