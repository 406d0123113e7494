package payment

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
)

// DefaultFailureRate は模擬決済が失敗する確率
const DefaultFailureRate = 0.10

// SimulatedGateway は一定確率で失敗する模擬決済
type SimulatedGateway struct {
	failureRate float64
	mu          sync.Mutex
	rnd         *rand.Rand
}

// NewSimulatedGateway は新しい模擬決済を作成する
func NewSimulatedGateway(failureRate float64) *SimulatedGateway {
	return NewSimulatedGatewayWithSource(failureRate, rand.NewSource(time.Now().UnixNano()))
}

// NewSimulatedGatewayWithSource は乱数源を指定して模擬決済を作成する
func NewSimulatedGatewayWithSource(failureRate float64, src rand.Source) *SimulatedGateway {
	if failureRate < 0 {
		failureRate = 0
	}
	if failureRate > 1 {
		failureRate = 1
	}
	return &SimulatedGateway{failureRate: failureRate, rnd: rand.New(src)}
}

// Charge は請求を処理する
func (g *SimulatedGateway) Charge(ctx context.Context, c payment.Charge) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// rand.Rand はゴルーチンセーフではない
	g.mu.Lock()
	roll := g.rnd.Float64()
	g.mu.Unlock()

	if roll < g.failureRate {
		logger.Info("模擬決済を拒否",
			zap.Int64("journey_id", c.JourneyID),
			zap.String("amount", c.Amount.StringFixed(2)),
		)
		return payment.ErrPaymentDeclined
	}
	return nil
}

var _ payment.Gateway = (*SimulatedGateway)(nil)
