package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/station"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/ticket"
)

// MockJourneyService はJourneyServiceInterfaceのモック
type MockJourneyService struct {
	mock.Mock
}

func (m *MockJourneyService) Search(ctx context.Context, input application.SearchInput) ([]application.JourneySummary, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]application.JourneySummary), args.Error(1)
}

func (m *MockJourneyService) GetJourney(ctx context.Context, id int64) (*application.JourneySummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.JourneySummary), args.Error(1)
}

func (m *MockJourneyService) GetSeatPlan(ctx context.Context, journeyID int64) ([]application.SeatView, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]application.SeatView), args.Error(1)
}

func (m *MockJourneyService) ListStations(ctx context.Context) ([]*station.Station, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*station.Station), args.Error(1)
}

// MockBookingService はBookingServiceInterfaceのモック
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Sell(ctx context.Context, input application.SellInput) (*application.SaleResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.SaleResult), args.Error(1)
}

func (m *MockBookingService) GetTicket(ctx context.Context, code string) (*ticket.Ticket, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}
