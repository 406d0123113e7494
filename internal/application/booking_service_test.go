package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/journey"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/ticket"
)

// === Test helper ===
type bookingDeps struct {
	txManager   *MockTxManager
	tx          *MockTx
	journeyRepo *MockJourneyRepository
	seatRepo    *MockSeatRepository
	ticketRepo  *MockTicketRepository
	gateway     *MockGateway
	service     *BookingService
}

func newBookingDeps() *bookingDeps {
	d := &bookingDeps{
		txManager:   new(MockTxManager),
		tx:          new(MockTx),
		journeyRepo: new(MockJourneyRepository),
		seatRepo:    new(MockSeatRepository),
		ticketRepo:  new(MockTicketRepository),
		gateway:     new(MockGateway),
	}

	n := 0
	codes := func() string {
		n++
		return fmt.Sprintf("CODE%02d", n)
	}

	d.service = NewBookingService(
		d.txManager, d.journeyRepo, d.seatRepo, d.ticketRepo,
		pricing.NewRegistry(pricing.DefaultStrategies()...),
		d.gateway,
		WithCodeGenerator(codes),
	)
	return d
}

func testJourney(provider string) *journey.Journey {
	dep := time.Now().Add(24 * time.Hour)
	return &journey.Journey{
		ID:                   1,
		OriginStationID:      1,
		DestinationStationID: 2,
		OriginCity:           "Istanbul",
		DestinationCity:      "Ankara",
		DepartureAt:          dep,
		ArrivalEstimateAt:    dep.Add(6 * time.Hour),
		Provider:             provider,
		BasePrice:            decimal.NewFromInt(1000),
	}
}

func testSeat(id int64, number int) *seat.Seat {
	return &seat.Seat{ID: id, JourneyID: 1, SeatNumber: number, Version: 0}
}

func selection(seatID int64, g seat.Gender) SeatSelection {
	return SeatSelection{SeatID: seatID, PassengerName: "Ayşe Yılmaz", PassengerNationalID: "12345678901", Gender: g}
}

// === Tests ===

func TestBookingService_Sell_Success(t *testing.T) {
	d := newBookingDeps()
	ctx := context.Background()

	d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderA"), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(testSeat(10, 3), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(11)).Return(testSeat(11, 4), nil)

	d.txManager.On("Begin", mock.Anything).Return(d.tx, nil)
	d.tx.On("Rollback").Return(nil)
	d.tx.On("Commit").Return(nil)

	d.seatRepo.On("MarkSold", mock.Anything, d.tx, int64(10), 0, seat.GenderFemale).Return(nil)
	d.seatRepo.On("MarkSold", mock.Anything, d.tx, int64(11), 0, seat.GenderMale).Return(nil)
	d.ticketRepo.On("Create", mock.Anything, d.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil)

	// ProviderA: 1000 * 1.10 = 1100 / 2席で2200
	d.gateway.On("Charge", mock.Anything, mock.MatchedBy(func(c payment.Charge) bool {
		return c.JourneyID == 1 && c.SeatCount == 2 && c.Amount.Equal(decimal.NewFromInt(2200))
	})).Return(nil)

	result, err := d.service.Sell(ctx, SellInput{
		JourneyID: 1,
		Seats:     []SeatSelection{selection(10, seat.GenderFemale), selection(11, seat.GenderMale)},
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Equal(t, "CODE01", result.ConfirmationCode)
	require.Len(t, result.Tickets, 2)
	assert.Equal(t, 3, result.Tickets[0].SeatNumber)
	assert.Equal(t, "CODE02", result.Tickets[1].ConfirmationCode)
	assert.True(t, decimal.NewFromInt(1100).Equal(result.Tickets[0].PaidAmount), "支払額は運行会社の最終価格")

	d.txManager.AssertExpectations(t)
	d.seatRepo.AssertExpectations(t)
	d.ticketRepo.AssertNumberOfCalls(t, "Create", 2)
	d.gateway.AssertExpectations(t)
	d.tx.AssertCalled(t, "Commit")
}

func TestBookingService_Sell_PolicyViolations(t *testing.T) {
	tooMany := make([]SeatSelection, 5)
	for i := range tooMany {
		tooMany[i] = selection(int64(i+1), seat.GenderMale)
	}
	longName := selection(1, seat.GenderMale)
	longName.PassengerName = strings.Repeat("ş", ticket.MaxPassengerNameLength+1)
	longID := selection(1, seat.GenderMale)
	longID.PassengerNationalID = strings.Repeat("1", ticket.MaxNationalIDLength+1)

	tests := []struct {
		name    string
		seats   []SeatSelection
		wantErr error
	}{
		{"座席未選択は拒否", nil, ticket.ErrNoSeatsSelected},
		{"同じ座席の重複は拒否", []SeatSelection{selection(1, seat.GenderMale), selection(1, seat.GenderMale)}, ticket.ErrDuplicateSeat},
		{"不正な性別は拒否", []SeatSelection{selection(1, seat.Gender(3))}, seat.ErrInvalidGender},
		{"乗客名なしは拒否", []SeatSelection{{SeatID: 1, PassengerNationalID: "1", Gender: seat.GenderMale}}, ticket.ErrPassengerNameRequired},
		{"身分証番号なしは拒否", []SeatSelection{{SeatID: 1, PassengerName: "A", Gender: seat.GenderMale}}, ticket.ErrNationalIDRequired},
		{"乗客名が長すぎる", []SeatSelection{longName}, ticket.ErrPassengerNameTooLong},
		{"身分証番号が長すぎる", []SeatSelection{longID}, ticket.ErrNationalIDTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newBookingDeps()
			d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)

			_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: tt.seats})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, SaleStatusPolicyRejected, ClassifySaleError(err))
			// 座席の読み込みやトランザクションには進まない
			d.seatRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			d.txManager.AssertNotCalled(t, "Begin", mock.Anything)
		})
	}
}

func TestBookingService_Sell_CapCheckedBeforeJourney(t *testing.T) {
	d := newBookingDeps()
	seats := make([]SeatSelection, 5)
	for i := range seats {
		seats[i] = selection(int64(i+1), seat.GenderMale)
	}

	// 存在しない便でも座席数の上限が先に判定される
	_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 999, Seats: seats})

	assert.ErrorIs(t, err, ticket.ErrTooManySeats)
	assert.Equal(t, SaleStatusPolicyRejected, ClassifySaleError(err))
	d.journeyRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestBookingService_Sell_JourneyCheckedBeforePassengers(t *testing.T) {
	d := newBookingDeps()
	d.journeyRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, journey.ErrJourneyNotFound)

	// 乗客名が空でも便の存在確認が先
	_, err := d.service.Sell(context.Background(), SellInput{
		JourneyID: 404,
		Seats:     []SeatSelection{{SeatID: 1, PassengerNationalID: "1", Gender: seat.GenderMale}},
	})

	assert.ErrorIs(t, err, journey.ErrJourneyNotFound)
	assert.Equal(t, SaleStatusNotFound, ClassifySaleError(err))
}

func TestBookingService_Sell_JourneyNotFound(t *testing.T) {
	d := newBookingDeps()
	d.journeyRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, journey.ErrJourneyNotFound)

	_, err := d.service.Sell(context.Background(), SellInput{
		JourneyID: 404,
		Seats:     []SeatSelection{selection(1, seat.GenderMale)},
	})

	assert.ErrorIs(t, err, journey.ErrJourneyNotFound)
	assert.Equal(t, SaleStatusNotFound, ClassifySaleError(err))
	d.seatRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestBookingService_Sell_SeatChecks(t *testing.T) {
	female := seat.GenderFemale

	t.Run("存在しない座席はNotFound", func(t *testing.T) {
		d := newBookingDeps()
		d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
		d.seatRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, seat.ErrSeatNotFound)

		_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{selection(99, seat.GenderMale)}})

		assert.ErrorIs(t, err, seat.ErrSeatNotFound)
		assert.Equal(t, SaleStatusNotFound, ClassifySaleError(err))
	})

	t.Run("他の便の座席はNotFound", func(t *testing.T) {
		d := newBookingDeps()
		other := testSeat(20, 1)
		other.JourneyID = 2
		d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
		d.seatRepo.On("GetByID", mock.Anything, int64(20)).Return(other, nil)

		_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{selection(20, seat.GenderMale)}})

		assert.ErrorIs(t, err, seat.ErrSeatNotFound)
	})

	t.Run("販売済み座席はSeatUnavailable", func(t *testing.T) {
		d := newBookingDeps()
		sold := testSeat(10, 7)
		sold.Sold = true
		sold.GenderLock = &female
		d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
		d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(sold, nil)

		_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{selection(10, seat.GenderFemale)}})

		assert.ErrorIs(t, err, seat.ErrSeatAlreadySold)
		assert.Contains(t, err.Error(), "座席番号 7")
		assert.Equal(t, SaleStatusSeatUnavailable, ClassifySaleError(err))
		d.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("性別ロック不一致はSeatUnavailable", func(t *testing.T) {
		d := newBookingDeps()
		locked := testSeat(10, 5)
		locked.GenderLock = &female
		d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
		d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(locked, nil)

		_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{selection(10, seat.GenderMale)}})

		assert.ErrorIs(t, err, seat.ErrGenderMismatch)
		assert.Equal(t, SaleStatusSeatUnavailable, ClassifySaleError(err))
	})

	t.Run("選択順に検証し最初の失敗で止まる", func(t *testing.T) {
		d := newBookingDeps()
		sold := testSeat(11, 4)
		sold.Sold = true
		d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
		d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(testSeat(10, 3), nil)
		d.seatRepo.On("GetByID", mock.Anything, int64(11)).Return(sold, nil)

		_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{
			selection(10, seat.GenderMale), selection(11, seat.GenderMale), selection(12, seat.GenderMale),
		}})

		assert.ErrorIs(t, err, seat.ErrSeatAlreadySold)
		d.seatRepo.AssertNotCalled(t, "GetByID", mock.Anything, int64(12))
	})
}

func TestBookingService_Sell_PaymentDeclined(t *testing.T) {
	d := newBookingDeps()

	d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(testSeat(10, 3), nil)
	d.txManager.On("Begin", mock.Anything).Return(d.tx, nil)
	d.tx.On("Rollback").Return(nil)
	d.seatRepo.On("MarkSold", mock.Anything, d.tx, int64(10), 0, seat.GenderMale).Return(nil)
	d.ticketRepo.On("Create", mock.Anything, d.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil)
	d.gateway.On("Charge", mock.Anything, mock.Anything).Return(payment.ErrPaymentDeclined)

	result, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{selection(10, seat.GenderMale)}})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, payment.ErrPaymentDeclined)
	assert.Equal(t, SaleStatusPaymentDeclined, ClassifySaleError(err))
	d.tx.AssertNotCalled(t, "Commit")
	d.tx.AssertCalled(t, "Rollback")
}

func TestBookingService_Sell_ConcurrencyConflict(t *testing.T) {
	d := newBookingDeps()

	d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(testSeat(10, 3), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(11)).Return(testSeat(11, 4), nil)
	d.txManager.On("Begin", mock.Anything).Return(d.tx, nil)
	d.tx.On("Rollback").Return(nil)
	d.seatRepo.On("MarkSold", mock.Anything, d.tx, int64(10), 0, seat.GenderMale).Return(nil)
	d.ticketRepo.On("Create", mock.Anything, d.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil)
	// 2席目は読み込み後に他の購入で更新された
	d.seatRepo.On("MarkSold", mock.Anything, d.tx, int64(11), 0, seat.GenderMale).Return(seat.ErrOptimisticLockConflict)

	_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{
		selection(10, seat.GenderMale), selection(11, seat.GenderMale),
	}})

	assert.ErrorIs(t, err, seat.ErrOptimisticLockConflict)
	assert.Equal(t, SaleStatusConflict, ClassifySaleError(err))
	d.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
	d.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_Sell_LocksSeatsInIDOrder(t *testing.T) {
	d := newBookingDeps()

	d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(11)).Return(testSeat(11, 4), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(testSeat(10, 3), nil)
	d.txManager.On("Begin", mock.Anything).Return(d.tx, nil)
	d.tx.On("Rollback").Return(nil)
	d.tx.On("Commit").Return(nil)

	var locked []int64
	d.seatRepo.On("MarkSold", mock.Anything, d.tx, mock.AnythingOfType("int64"), 0, seat.GenderMale).
		Run(func(args mock.Arguments) { locked = append(locked, args.Get(2).(int64)) }).
		Return(nil)
	d.ticketRepo.On("Create", mock.Anything, d.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil)
	d.gateway.On("Charge", mock.Anything, mock.Anything).Return(nil)

	result, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{
		selection(11, seat.GenderMale), selection(10, seat.GenderMale),
	}})

	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, locked, "行ロックは座席IDの昇順")
	// 乗車券は選択順のまま返す
	require.Len(t, result.Tickets, 2)
	assert.Equal(t, int64(11), result.Tickets[0].SeatID)
	assert.Equal(t, int64(10), result.Tickets[1].SeatID)
	assert.Equal(t, result.Tickets[0].ConfirmationCode, result.ConfirmationCode)
}

func TestBookingService_Sell_DeadlockedSeatIsConflict(t *testing.T) {
	d := newBookingDeps()

	d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(11)).Return(testSeat(11, 4), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(testSeat(10, 3), nil)
	d.txManager.On("Begin", mock.Anything).Return(d.tx, nil)
	d.tx.On("Rollback").Return(nil)
	d.seatRepo.On("MarkSold", mock.Anything, d.tx, int64(10), 0, seat.GenderMale).Return(nil)
	d.ticketRepo.On("Create", mock.Anything, d.tx, mock.AnythingOfType("*ticket.Ticket")).Return(nil)
	// リポジトリはデッドロックによる中断を競合として返す
	d.seatRepo.On("MarkSold", mock.Anything, d.tx, int64(11), 0, seat.GenderMale).Return(seat.ErrOptimisticLockConflict)

	_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{
		selection(11, seat.GenderMale), selection(10, seat.GenderMale),
	}})

	assert.Equal(t, SaleStatusConflict, ClassifySaleError(err))
	assert.Contains(t, err.Error(), "座席番号 4")
	d.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_Sell_TicketUniqueViolationIsConflict(t *testing.T) {
	d := newBookingDeps()

	d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(testSeat(10, 3), nil)
	d.txManager.On("Begin", mock.Anything).Return(d.tx, nil)
	d.tx.On("Rollback").Return(nil)
	d.seatRepo.On("MarkSold", mock.Anything, d.tx, int64(10), 0, seat.GenderMale).Return(nil)
	d.ticketRepo.On("Create", mock.Anything, d.tx, mock.Anything).Return(ticket.ErrSeatAlreadyTicketed)

	_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{selection(10, seat.GenderMale)}})

	assert.Equal(t, SaleStatusConflict, ClassifySaleError(err))
}

func TestBookingService_Sell_CommitFailure(t *testing.T) {
	d := newBookingDeps()
	commitErr := errors.New("connection lost")

	d.journeyRepo.On("GetByID", mock.Anything, int64(1)).Return(testJourney("ProviderB"), nil)
	d.seatRepo.On("GetByID", mock.Anything, int64(10)).Return(testSeat(10, 3), nil)
	d.txManager.On("Begin", mock.Anything).Return(d.tx, nil)
	d.tx.On("Rollback").Return(nil)
	d.tx.On("Commit").Return(commitErr)
	d.seatRepo.On("MarkSold", mock.Anything, d.tx, int64(10), 0, seat.GenderMale).Return(nil)
	d.ticketRepo.On("Create", mock.Anything, d.tx, mock.Anything).Return(nil)
	d.gateway.On("Charge", mock.Anything, mock.Anything).Return(nil)

	_, err := d.service.Sell(context.Background(), SellInput{JourneyID: 1, Seats: []SeatSelection{selection(10, seat.GenderMale)}})

	assert.ErrorIs(t, err, commitErr)
	assert.Equal(t, SaleStatusError, ClassifySaleError(err))
}

func TestBookingService_GetTicket(t *testing.T) {
	d := newBookingDeps()
	want := &ticket.Ticket{ID: 1, ConfirmationCode: "ABC123"}
	d.ticketRepo.On("GetByConfirmationCode", mock.Anything, "ABC123").Return(want, nil)

	got, err := d.service.GetTicket(context.Background(), " abc123 ")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = d.service.GetTicket(context.Background(), "TOO-LONG-CODE")
	assert.ErrorIs(t, err, ticket.ErrInvalidConfirmationCode)
}

func TestClassifySaleError(t *testing.T) {
	tests := []struct {
		err  error
		want SaleStatus
	}{
		{nil, SaleStatusSuccess},
		{fmt.Errorf("便取得に失敗: %w", journey.ErrJourneyNotFound), SaleStatusNotFound},
		{ticket.ErrTooManySeats, SaleStatusPolicyRejected},
		{fmt.Errorf("座席番号 3: %w", seat.ErrGenderMismatch), SaleStatusSeatUnavailable},
		{fmt.Errorf("決済処理: %w", payment.ErrPaymentDeclined), SaleStatusPaymentDeclined},
		{seat.ErrOptimisticLockConflict, SaleStatusConflict},
		{errors.New("unexpected"), SaleStatusError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySaleError(tt.err))
	}
}
