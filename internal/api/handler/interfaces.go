package handler

import (
	"context"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/station"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/ticket"
)

// JourneyServiceInterface は便検索・座席表サービスのインターフェース
type JourneyServiceInterface interface {
	Search(ctx context.Context, input application.SearchInput) ([]application.JourneySummary, error)
	GetJourney(ctx context.Context, id int64) (*application.JourneySummary, error)
	GetSeatPlan(ctx context.Context, journeyID int64) ([]application.SeatView, error)
	ListStations(ctx context.Context) ([]*station.Station, error)
}

// BookingServiceInterface は乗車券販売サービスのインターフェース
type BookingServiceInterface interface {
	Sell(ctx context.Context, input application.SellInput) (*application.SaleResult, error)
	GetTicket(ctx context.Context, code string) (*ticket.Ticket, error)
}

// Pinger は依存先の疎通確認
type Pinger func(ctx context.Context) error
