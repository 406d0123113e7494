package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/journey"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
)

// JourneyLister は出発時刻の範囲で便を列挙する
type JourneyLister interface {
	ListDepartingBetween(ctx context.Context, from, to time.Time) ([]*journey.Journey, error)
}

// SeatMapEnsurer は便の座席表が未生成なら生成する
type SeatMapEnsurer interface {
	EnsureSeatMap(ctx context.Context, journeyID int64) (bool, error)
}

// SeatMapWarmer は近く出発する便の座席表を事前に生成するワーカー
type SeatMapWarmer struct {
	journeys JourneyLister
	seatMaps SeatMapEnsurer
	interval time.Duration
	horizon  time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// 0以下の設定値を受け取った場合に使う既定値
const (
	DefaultWarmInterval = time.Minute
	DefaultWarmHorizon  = 24 * time.Hour
)

// NewSeatMapWarmer は新しいウォーマーを作成。interval と horizon が0以下なら既定値を使う
func NewSeatMapWarmer(jl JourneyLister, se SeatMapEnsurer, interval, horizon time.Duration) *SeatMapWarmer {
	if interval <= 0 {
		logger.Warn("座席表ウォーマーの実行間隔が不正なため既定値を使用します",
			zap.Duration("interval", interval), zap.Duration("default", DefaultWarmInterval))
		interval = DefaultWarmInterval
	}
	if horizon <= 0 {
		logger.Warn("座席表ウォーマーの対象期間が不正なため既定値を使用します",
			zap.Duration("horizon", horizon), zap.Duration("default", DefaultWarmHorizon))
		horizon = DefaultWarmHorizon
	}
	return &SeatMapWarmer{
		journeys: jl,
		seatMaps: se,
		interval: interval,
		horizon:  horizon,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はウォーマーを開始。起動直後に1回実行し、以降は interval ごとに実行する
func (w *SeatMapWarmer) Start(ctx context.Context) {
	logger.Info("座席表ウォーマー開始",
		zap.Duration("interval", w.interval),
		zap.Duration("horizon", w.horizon),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	w.warm(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("座席表ウォーマー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("座席表ウォーマー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

// Stop はウォーマーを停止し、実行中の処理が終わるまで待つ
func (w *SeatMapWarmer) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

// warm は horizon 内に出発する便の座席表を生成する。1便の失敗で残りを止めない
func (w *SeatMapWarmer) warm(ctx context.Context) (created int) {
	log := logger.Get()
	from := w.now()

	journeys, err := w.journeys.ListDepartingBetween(ctx, from, from.Add(w.horizon))
	if err != nil {
		log.Error("座席表ウォーマー: 便一覧の取得に失敗", zap.Error(err))
		return 0
	}

	for _, j := range journeys {
		if ctx.Err() != nil {
			return created
		}
		ok, err := w.seatMaps.EnsureSeatMap(ctx, j.ID)
		if err != nil {
			log.Warn("座席表ウォーマー: 座席表の生成に失敗", zap.Int64("journey_id", j.ID), zap.Error(err))
			continue
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		log.Info("座席表を事前生成", zap.Int("count", created), zap.Int("journeys", len(journeys)))
	} else {
		log.Debug("事前生成対象の座席表なし", zap.Int("journeys", len(journeys)))
	}
	return created
}
