package ticket

import (
	"context"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

// Repository は乗車券リポジトリのインターフェース
type Repository interface {
	// Create は新しい乗車券を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, t *Ticket) error

	// GetByConfirmationCode は予約確認コードから乗車券を取得する
	GetByConfirmationCode(ctx context.Context, code string) (*Ticket, error)

	// ListBySeatID は座席に発行された乗車券を取得する
	ListBySeatID(ctx context.Context, seatID int64) ([]*Ticket, error)
}
