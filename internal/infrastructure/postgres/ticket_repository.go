package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/ticket"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

// 1座席1乗車券の一意制約
const ticketSeatUniqueConstraint = "tickets_seat_id_key"

type ticketRow struct {
	ID                  int64           `db:"id"`
	ConfirmationCode    string          `db:"confirmation_code"`
	JourneyID           int64           `db:"journey_id"`
	SeatID              int64           `db:"seat_id"`
	SeatNumber          int             `db:"seat_number"`
	PassengerName       string          `db:"passenger_name"`
	PassengerNationalID string          `db:"passenger_national_id"`
	PassengerGender     int             `db:"passenger_gender"`
	PaidAmount          decimal.Decimal `db:"paid_amount"`
	CreatedAt           time.Time       `db:"created_at"`
}

func (r *ticketRow) toEntity() *ticket.Ticket {
	return &ticket.Ticket{
		ID: r.ID, ConfirmationCode: r.ConfirmationCode,
		JourneyID: r.JourneyID, SeatID: r.SeatID, SeatNumber: r.SeatNumber,
		PassengerName: r.PassengerName, PassengerNationalID: r.PassengerNationalID,
		PassengerGender: seat.Gender(r.PassengerGender), PaidAmount: r.PaidAmount,
		CreatedAt: r.CreatedAt,
	}
}

const ticketSelect = `
		SELECT t.id, t.confirmation_code, t.journey_id, t.seat_id, s.seat_number,
		       t.passenger_name, t.passenger_national_id, t.passenger_gender, t.paid_amount, t.created_at
		FROM tickets t
		JOIN seats s ON s.id = t.seat_id`

type TicketRepository struct{ db *sqlx.DB }

func NewTicketRepository(db *sqlx.DB) *TicketRepository { return &TicketRepository{db: db} }

func (r *TicketRepository) Create(ctx context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `INSERT INTO tickets (confirmation_code, journey_id, seat_id, passenger_name, passenger_national_id, passenger_gender, paid_amount, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err = sqlTx.QueryRowContext(ctx, query,
		t.ConfirmationCode, t.JourneyID, t.SeatID, t.PassengerName, t.PassengerNationalID, int(t.PassengerGender), t.PaidAmount, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		if constraint, ok := uniqueViolationConstraint(err); ok && constraint == ticketSeatUniqueConstraint {
			return ticket.ErrSeatAlreadyTicketed
		}
		if isLockContention(err) {
			return seat.ErrOptimisticLockConflict
		}
		return fmt.Errorf("乗車券作成に失敗: %w", err)
	}
	return nil
}

func (r *TicketRepository) GetByConfirmationCode(ctx context.Context, code string) (*ticket.Ticket, error) {
	var row ticketRow
	if err := r.db.GetContext(ctx, &row, ticketSelect+` WHERE t.confirmation_code = $1`, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("乗車券取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *TicketRepository) ListBySeatID(ctx context.Context, seatID int64) ([]*ticket.Ticket, error) {
	var rows []ticketRow
	if err := r.db.SelectContext(ctx, &rows, ticketSelect+` WHERE t.seat_id = $1 ORDER BY t.id`, seatID); err != nil {
		return nil, fmt.Errorf("乗車券一覧取得に失敗: %w", err)
	}
	result := make([]*ticket.Ticket, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

var _ ticket.Repository = (*TicketRepository)(nil)
