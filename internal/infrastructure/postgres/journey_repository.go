package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/journey"
)

// journeyRow はDBの行を表す構造体
type journeyRow struct {
	ID                   int64           `db:"id"`
	OriginStationID      int64           `db:"origin_station_id"`
	DestinationStationID int64           `db:"destination_station_id"`
	OriginCity           string          `db:"origin_city"`
	DestinationCity      string          `db:"destination_city"`
	DepartureAt          time.Time       `db:"departure_at"`
	ArrivalEstimateAt    time.Time       `db:"arrival_estimate_at"`
	Provider             string          `db:"provider"`
	BasePrice            decimal.Decimal `db:"base_price"`
	CreatedAt            time.Time       `db:"created_at"`
}

// toEntity はjourneyRowをJourneyエンティティに変換する
func (r *journeyRow) toEntity() *journey.Journey {
	return &journey.Journey{
		ID:                   r.ID,
		OriginStationID:      r.OriginStationID,
		DestinationStationID: r.DestinationStationID,
		OriginCity:           r.OriginCity,
		DestinationCity:      r.DestinationCity,
		DepartureAt:          r.DepartureAt.UTC(),
		ArrivalEstimateAt:    r.ArrivalEstimateAt.UTC(),
		Provider:             r.Provider,
		BasePrice:            r.BasePrice,
		CreatedAt:            r.CreatedAt,
	}
}

const journeySelect = `
		SELECT j.id, j.origin_station_id, j.destination_station_id,
		       o.city AS origin_city, d.city AS destination_city,
		       j.departure_at, j.arrival_estimate_at, j.provider, j.base_price, j.created_at
		FROM journeys j
		JOIN stations o ON o.id = j.origin_station_id
		JOIN stations d ON d.id = j.destination_station_id`

// JourneyRepository は便リポジトリのPostgreSQL実装
type JourneyRepository struct {
	db *sqlx.DB
}

// NewJourneyRepository はJourneyRepositoryを作成する
func NewJourneyRepository(db *sqlx.DB) *JourneyRepository {
	return &JourneyRepository{db: db}
}

// Create は新しい便を作成する
func (r *JourneyRepository) Create(ctx context.Context, j *journey.Journey) error {
	query := `
		INSERT INTO journeys (origin_station_id, destination_station_id, departure_at, arrival_estimate_at, provider, base_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		j.OriginStationID, j.DestinationStationID, j.DepartureAt.UTC(), j.ArrivalEstimateAt.UTC(), j.Provider, j.BasePrice,
	).Scan(&j.ID, &j.CreatedAt)
	if err != nil {
		return fmt.Errorf("便作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから便を取得する
func (r *JourneyRepository) GetByID(ctx context.Context, id int64) (*journey.Journey, error) {
	var row journeyRow
	err := r.db.GetContext(ctx, &row, journeySelect+` WHERE j.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, journey.ErrJourneyNotFound
		}
		return nil, fmt.Errorf("便取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// Search は条件に一致する便を出発時刻の昇順で取得する
func (r *JourneyRepository) Search(ctx context.Context, c journey.SearchCriteria) ([]*journey.Journey, error) {
	query := journeySelect + `
		WHERE j.origin_station_id = $1
		  AND j.destination_station_id = $2
		  AND j.departure_at >= $3
		  AND j.departure_at < $4
		  AND ($5::timestamptz IS NULL OR j.departure_at > $5)
		ORDER BY j.departure_at ASC, j.id ASC
	`
	var after *time.Time
	if c.DepartsAfter != nil {
		t := c.DepartsAfter.UTC()
		after = &t
	}

	var rows []journeyRow
	err := r.db.SelectContext(ctx, &rows, query,
		c.OriginStationID, c.DestinationStationID, c.DepartureFrom.UTC(), c.DepartureTo.UTC(), after,
	)
	if err != nil {
		return nil, fmt.Errorf("便検索に失敗しました: %w", err)
	}
	return toJourneys(rows), nil
}

// ListDepartingBetween は期間内に出発する便を出発時刻の昇順で取得する
func (r *JourneyRepository) ListDepartingBetween(ctx context.Context, from, to time.Time) ([]*journey.Journey, error) {
	query := journeySelect + `
		WHERE j.departure_at >= $1 AND j.departure_at < $2
		ORDER BY j.departure_at ASC, j.id ASC
	`
	var rows []journeyRow
	if err := r.db.SelectContext(ctx, &rows, query, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("便一覧取得に失敗しました: %w", err)
	}
	return toJourneys(rows), nil
}

// Delete は便を削除する。座席は外部キーにより連鎖削除される
func (r *JourneyRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM journeys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("便削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return journey.ErrJourneyNotFound
	}
	return nil
}

func toJourneys(rows []journeyRow) []*journey.Journey {
	journeys := make([]*journey.Journey, len(rows))
	for i := range rows {
		journeys[i] = rows[i].toEntity()
	}
	return journeys
}

// インターフェースを満たしているか確認
var _ journey.Repository = (*JourneyRepository)(nil)
