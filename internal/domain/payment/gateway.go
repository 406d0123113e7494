package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrPaymentDeclined = errors.New("決済が承認されませんでした")

// Charge は1回の購入に対する請求内容
type Charge struct {
	JourneyID int64
	Amount    decimal.Decimal
	SeatCount int
}

// Gateway は決済処理のインターフェース。
// 承認されなかった場合は ErrPaymentDeclined を返す
type Gateway interface {
	Charge(ctx context.Context, c Charge) error
}
