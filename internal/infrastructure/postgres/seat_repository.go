package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

// 座席番号の一意制約（journey_id, seat_number）
const seatNumberUniqueConstraint = "seats_journey_id_seat_number_key"

type seatRow struct {
	ID         int64     `db:"id"`
	JourneyID  int64     `db:"journey_id"`
	SeatNumber int       `db:"seat_number"`
	Row        int       `db:"seat_row"`
	Column     int       `db:"seat_column"`
	Type       int       `db:"seat_type"`
	Sold       bool      `db:"is_sold"`
	GenderLock *int      `db:"gender_lock"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Version    int       `db:"version"`
}

func (r *seatRow) toEntity() *seat.Seat {
	s := &seat.Seat{
		ID: r.ID, JourneyID: r.JourneyID, SeatNumber: r.SeatNumber,
		Row: r.Row, Column: r.Column, Type: seat.Type(r.Type), Sold: r.Sold,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version,
	}
	if r.GenderLock != nil {
		g := seat.Gender(*r.GenderLock)
		s.GenderLock = &g
	}
	return s
}

const seatColumns = `id, journey_id, seat_number, seat_row, seat_column, seat_type, is_sold, gender_lock, created_at, updated_at, version`

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

// CreateBulk は座席表を1つのマルチバリューINSERTで作成する。
// 1文で実行するため、一意制約違反の場合は1席も作成されない
func (r *SeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	const cols = 9
	query := `INSERT INTO seats (journey_id, seat_number, seat_row, seat_column, seat_type, is_sold, version, created_at, updated_at) VALUES `
	args := make([]interface{}, 0, len(seats)*cols)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
		args = append(args, s.JourneyID, s.SeatNumber, s.Row, s.Column, int(s.Type), s.Sold, s.Version, s.CreatedAt, s.UpdatedAt)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if constraint, ok := uniqueViolationConstraint(err); ok && constraint == seatNumberUniqueConstraint {
			return seat.ErrSeatMapAlreadyExists
		}
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

func (r *SeatRepository) GetByID(ctx context.Context, id int64) (*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`
	var row seatRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seat.ErrSeatNotFound
		}
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *SeatRepository) GetByJourneyID(ctx context.Context, journeyID int64) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE journey_id = $1 ORDER BY seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, journeyID); err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i := range rows {
		seats[i] = rows[i].toEntity()
	}
	return seats, nil
}

// MarkSold はバージョンが一致し未販売の場合のみ座席を販売済みに更新する。
// 更新0件とデッドロック・直列化失敗は seat.ErrOptimisticLockConflict になる
func (r *SeatRepository) MarkSold(ctx context.Context, tx transaction.Tx, seatID int64, expectedVersion int, gender seat.Gender) error {
	sqlTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE seats SET is_sold = TRUE, gender_lock = $1, updated_at = NOW(), version = version + 1 WHERE id = $2 AND version = $3 AND is_sold = FALSE`
	result, err := sqlTx.ExecContext(ctx, query, int(gender), seatID, expectedVersion)
	if err != nil {
		if isLockContention(err) {
			return seat.ErrOptimisticLockConflict
		}
		return fmt.Errorf("座席販売に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗: %w", err)
	}
	if rows != 1 {
		return seat.ErrOptimisticLockConflict
	}
	return nil
}

var _ seat.Repository = (*SeatRepository)(nil)
