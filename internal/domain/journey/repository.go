package journey

import (
	"context"
	"time"
)

// SearchCriteria は便検索の条件
type SearchCriteria struct {
	OriginStationID      int64
	DestinationStationID int64
	// DepartureFrom 以上 DepartureTo 未満の出発時刻を対象とする
	DepartureFrom time.Time
	DepartureTo   time.Time
	// DepartsAfter が指定された場合、それより後に出発する便のみを対象とする
	DepartsAfter *time.Time
}

// Repository は便リポジトリのインターフェース
type Repository interface {
	// Create は新しい便を作成する
	Create(ctx context.Context, j *Journey) error

	// GetByID はIDから便を取得する
	GetByID(ctx context.Context, id int64) (*Journey, error)

	// Search は条件に一致する便を出発時刻の昇順で取得する
	Search(ctx context.Context, c SearchCriteria) ([]*Journey, error)

	// ListDepartingBetween は期間内に出発する便を出発時刻の昇順で取得する
	ListDepartingBetween(ctx context.Context, from, to time.Time) ([]*Journey, error)

	// Delete は便を削除する（座席も連鎖削除される）
	Delete(ctx context.Context, id int64) error
}
