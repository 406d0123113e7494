package seat

import (
	"context"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は座席表を一括作成する。
	// 同じ便の座席が既に存在する場合は ErrSeatMapAlreadyExists を返し、何も作成しない
	CreateBulk(ctx context.Context, seats []*Seat) error

	// GetByID はIDから座席を取得する
	GetByID(ctx context.Context, id int64) (*Seat, error)

	// GetByJourneyID は便IDから座席番号順に座席一覧を取得する
	GetByJourneyID(ctx context.Context, journeyID int64) ([]*Seat, error)

	// MarkSold は座席を販売済みに更新する（楽観的ロック、トランザクション必須）。
	// expectedVersion が一致しない場合は ErrOptimisticLockConflict を返す
	MarkSold(ctx context.Context, tx transaction.Tx, seatID int64, expectedVersion int, gender Gender) error
}
