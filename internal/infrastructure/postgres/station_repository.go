package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/station"
)

type stationRow struct {
	ID        int64     `db:"id"`
	City      string    `db:"city"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// StationRepository は停留所リポジトリのPostgreSQL実装
type StationRepository struct{ db *sqlx.DB }

func NewStationRepository(db *sqlx.DB) *StationRepository { return &StationRepository{db: db} }

// List は停留所一覧を都市名順に取得する
func (r *StationRepository) List(ctx context.Context) ([]*station.Station, error) {
	var rows []stationRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, city, name, created_at FROM stations ORDER BY city, id`); err != nil {
		return nil, fmt.Errorf("停留所一覧取得に失敗: %w", err)
	}
	result := make([]*station.Station, len(rows))
	for i, row := range rows {
		result[i] = &station.Station{ID: row.ID, City: row.City, Name: row.Name, CreatedAt: row.CreatedAt}
	}
	return result, nil
}

var _ station.Repository = (*StationRepository)(nil)
