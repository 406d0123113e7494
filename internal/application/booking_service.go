package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/journey"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/metrics"
)

const saleSucceededMessage = "購入が完了しました"

// SeatSelection は購入する座席と乗客
type SeatSelection struct {
	SeatID              int64
	PassengerName       string
	PassengerNationalID string
	Gender              seat.Gender
}

type SellInput struct {
	JourneyID int64
	Seats     []SeatSelection
}

// SaleResult は購入結果。ConfirmationCode は最初の乗車券の予約確認コード
type SaleResult struct {
	Success          bool
	Message          string
	ConfirmationCode string
	Tickets          []*ticket.Ticket
}

type BookingService struct {
	txManager   transaction.Manager
	journeyRepo journey.Repository
	seatRepo    seat.Repository
	ticketRepo  ticket.Repository
	pricing     *pricing.Registry
	gateway     payment.Gateway
	newCode     ticket.CodeGenerator
	metrics     *metrics.Metrics
}

// BookingServiceOption は BookingService の任意設定
type BookingServiceOption func(*BookingService)

// WithCodeGenerator は予約確認コードの生成方法を差し替える
func WithCodeGenerator(gen ticket.CodeGenerator) BookingServiceOption {
	return func(s *BookingService) { s.newCode = gen }
}

func WithBookingMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) { s.metrics = m }
}

func NewBookingService(
	txm transaction.Manager,
	jr journey.Repository,
	sr seat.Repository,
	tr ticket.Repository,
	registry *pricing.Registry,
	gateway payment.Gateway,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		txManager:   txm,
		journeyRepo: jr,
		seatRepo:    sr,
		ticketRepo:  tr,
		pricing:     registry,
		gateway:     gateway,
		newCode:     ticket.NewConfirmationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sell は選択された座席をまとめて販売する。
// 座席の更新と乗車券の作成は1トランザクションで行い、決済が承認された場合のみコミットする。
// いずれかの座席でバージョンが一致しない場合は seat.ErrOptimisticLockConflict を返し、何も販売しない
func (s *BookingService) Sell(ctx context.Context, input SellInput) (result *SaleResult, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSale(string(ClassifySaleError(err)), time.Since(start).Seconds())
	}()

	log := logger.FromContext(ctx).With(zap.Int64("journey_id", input.JourneyID), zap.Int("seat_count", len(input.Seats)))

	if len(input.Seats) > ticket.MaxSeatsPerSale {
		log.Info("購入リクエストを拒否しました", zap.Error(ticket.ErrTooManySeats))
		return nil, ticket.ErrTooManySeats
	}

	j, err := s.journeyRepo.GetByID(ctx, input.JourneyID)
	if err != nil {
		return nil, fmt.Errorf("便取得に失敗: %w", err)
	}

	if err := validateSelections(input.Seats); err != nil {
		log.Info("購入リクエストを拒否しました", zap.Error(err))
		return nil, err
	}

	seats, err := s.loadSelectedSeats(ctx, j.ID, input.Seats)
	if err != nil {
		log.Info("座席を販売できません", zap.Error(err))
		return nil, err
	}

	price := s.pricing.PriceFor(j.Provider, j.BasePrice)

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// 乗車券は選択順に並べ、行ロックは座席IDの昇順で取得する
	tickets := make([]*ticket.Ticket, len(seats))
	for _, i := range lockOrder(seats) {
		se, sel := seats[i], input.Seats[i]
		if err := s.seatRepo.MarkSold(ctx, tx, se.ID, se.Version, sel.Gender); err != nil {
			return nil, fmt.Errorf("座席番号 %d: %w", se.SeatNumber, err)
		}

		t := ticket.NewTicket(s.newCode(), j.ID, se, sel.PassengerName, sel.PassengerNationalID, sel.Gender, price)
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if err := s.ticketRepo.Create(ctx, tx, t); err != nil {
			return nil, fmt.Errorf("座席番号 %d: %w", se.SeatNumber, err)
		}
		tickets[i] = t
	}

	charge := payment.Charge{
		JourneyID: j.ID,
		Amount:    price.Mul(decimal.NewFromInt(int64(len(tickets)))),
		SeatCount: len(tickets),
	}
	if err := s.gateway.Charge(ctx, charge); err != nil {
		log.Warn("決済に失敗したため購入を取り消しました", zap.Error(err))
		return nil, fmt.Errorf("決済処理: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	log.Info("乗車券を販売しました",
		zap.String("confirmation_code", tickets[0].ConfirmationCode),
		zap.String("amount", charge.Amount.StringFixed(2)),
	)

	return &SaleResult{
		Success:          true,
		Message:          saleSucceededMessage,
		ConfirmationCode: tickets[0].ConfirmationCode,
		Tickets:          tickets,
	}, nil
}

// lockOrder は座席IDの昇順に並べたインデックスを返す。
// 座席が重なる同時購入は同じ順序で行ロックを取得する
func lockOrder(seats []*seat.Seat) []int {
	order := make([]int, len(seats))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return seats[order[a]].ID < seats[order[b]].ID })
	return order
}

// validateSelections は座席を読み込む前に検証できる購入ルールを確認する
func validateSelections(selections []SeatSelection) error {
	if len(selections) == 0 {
		return ticket.ErrNoSeatsSelected
	}

	seen := make(map[int64]struct{}, len(selections))
	for _, sel := range selections {
		if _, dup := seen[sel.SeatID]; dup {
			return fmt.Errorf("座席 %d: %w", sel.SeatID, ticket.ErrDuplicateSeat)
		}
		seen[sel.SeatID] = struct{}{}

		if !sel.Gender.IsValid() {
			return seat.ErrInvalidGender
		}
		if strings.TrimSpace(sel.PassengerName) == "" {
			return ticket.ErrPassengerNameRequired
		}
		if strings.TrimSpace(sel.PassengerNationalID) == "" {
			return ticket.ErrNationalIDRequired
		}
		if utf8.RuneCountInString(sel.PassengerName) > ticket.MaxPassengerNameLength {
			return ticket.ErrPassengerNameTooLong
		}
		if utf8.RuneCountInString(sel.PassengerNationalID) > ticket.MaxNationalIDLength {
			return ticket.ErrNationalIDTooLong
		}
	}
	return nil
}

// loadSelectedSeats は選択順に座席を読み込み、販売可能かを確認する
func (s *BookingService) loadSelectedSeats(ctx context.Context, journeyID int64, selections []SeatSelection) ([]*seat.Seat, error) {
	seats := make([]*seat.Seat, 0, len(selections))
	for _, sel := range selections {
		se, err := s.seatRepo.GetByID(ctx, sel.SeatID)
		if err != nil {
			if errors.Is(err, seat.ErrSeatNotFound) {
				return nil, fmt.Errorf("座席 %d: %w", sel.SeatID, seat.ErrSeatNotFound)
			}
			return nil, fmt.Errorf("座席取得に失敗: %w", err)
		}
		if se.JourneyID != journeyID {
			return nil, fmt.Errorf("座席 %d: %w", sel.SeatID, seat.ErrSeatNotFound)
		}
		if err := se.CanBeSoldTo(sel.Gender); err != nil {
			return nil, fmt.Errorf("座席番号 %d: %w", se.SeatNumber, err)
		}
		seats = append(seats, se)
	}
	return seats, nil
}

// GetTicket は予約確認コードから乗車券を取得する
func (s *BookingService) GetTicket(ctx context.Context, code string) (*ticket.Ticket, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != ticket.ConfirmationCodeLength {
		return nil, ticket.ErrInvalidConfirmationCode
	}
	return s.ticketRepo.GetByConfirmationCode(ctx, code)
}
