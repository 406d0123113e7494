package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/cache"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/journey"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/pricing"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/station"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/metrics"
)

// DefaultSearchCacheTTL は検索結果キャッシュの既定の有効期間
const DefaultSearchCacheTTL = 60 * time.Second

// Clock は現在時刻を返す
type Clock func() time.Time

// JourneySummary は検索結果・便詳細として返す便の情報
type JourneySummary struct {
	ID                int64           `json:"id"`
	OriginCity        string          `json:"origin_city"`
	DestinationCity   string          `json:"destination_city"`
	DepartureAt       time.Time       `json:"departure_at"`
	ArrivalEstimateAt time.Time       `json:"arrival_estimate_at"`
	Provider          string          `json:"provider"`
	Price             decimal.Decimal `json:"price"`
}

// SeatView は座席表の1席分の情報
type SeatView struct {
	ID         int64
	SeatNumber int
	Row        int
	Column     int
	Type       seat.Type
	Sold       bool
	GenderLock *seat.Gender
	Price      decimal.Decimal
}

// SearchInput は便検索の入力
type SearchInput struct {
	OriginID      int64
	DestinationID int64
	Date          time.Time
}

type JourneyService struct {
	journeyRepo journey.Repository
	seatRepo    seat.Repository
	stationRepo station.Repository
	pricing     *pricing.Registry
	cache       cache.Store
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
	now         Clock
	sfg         singleflight.Group
}

// JourneyServiceOption は JourneyService の任意設定
type JourneyServiceOption func(*JourneyService)

// WithSearchCache は検索結果キャッシュを設定する
func WithSearchCache(store cache.Store, ttl time.Duration) JourneyServiceOption {
	return func(s *JourneyService) {
		s.cache = store
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithClock は時刻取得関数を差し替える
func WithClock(now Clock) JourneyServiceOption {
	return func(s *JourneyService) { s.now = now }
}

func WithJourneyMetrics(m *metrics.Metrics) JourneyServiceOption {
	return func(s *JourneyService) { s.metrics = m }
}

func NewJourneyService(jr journey.Repository, sr seat.Repository, str station.Repository, registry *pricing.Registry, opts ...JourneyServiceOption) *JourneyService {
	s := &JourneyService{
		journeyRepo: jr,
		seatRepo:    sr,
		stationRepo: str,
		pricing:     registry,
		cacheTTL:    DefaultSearchCacheTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchCacheKey は検索結果のキャッシュキーを返す
func SearchCacheKey(originID, destinationID int64, date time.Time) string {
	return fmt.Sprintf("journeys:search:%d:%d:%s", originID, destinationID, calendarDay(date).Format("2006-01-02"))
}

// Search は指定日の便を出発時刻の昇順で返す。
// 当日の検索では現在時刻より後に出発する便のみを返す
func (s *JourneyService) Search(ctx context.Context, input SearchInput) ([]JourneySummary, error) {
	if input.OriginID <= 0 || input.DestinationID <= 0 {
		return nil, journey.ErrStationRequired
	}

	key := SearchCacheKey(input.OriginID, input.DestinationID, input.Date)

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		// 同じキーを待つ他のリクエストと共有するため、最初の呼び出し元の取り消しを引き継がない
		sharedCtx := context.WithoutCancel(ctx)
		if cached, ok := s.getCached(sharedCtx, key); ok {
			return cached, nil
		}

		result, err := s.searchFromStore(sharedCtx, input)
		if err != nil {
			return nil, err
		}
		s.setCached(sharedCtx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	// キャッシュ由来の結果にも当日フィルターを再適用する
	return s.dropDeparted(v.([]JourneySummary), input.Date), nil
}

func (s *JourneyService) searchFromStore(ctx context.Context, input SearchInput) ([]JourneySummary, error) {
	day := calendarDay(input.Date)
	criteria := journey.SearchCriteria{
		OriginStationID:      input.OriginID,
		DestinationStationID: input.DestinationID,
		DepartureFrom:        day,
		DepartureTo:          day.AddDate(0, 0, 1),
	}
	if now := s.now().UTC(); calendarDay(now).Equal(day) {
		criteria.DepartsAfter = &now
	}

	journeys, err := s.journeyRepo.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("便検索に失敗: %w", err)
	}

	result := make([]JourneySummary, 0, len(journeys))
	for _, j := range journeys {
		result = append(result, s.summarize(j))
	}
	return result, nil
}

func (s *JourneyService) getCached(ctx context.Context, key string) ([]JourneySummary, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.ObserveSearchCache("miss")
		} else {
			s.metrics.ObserveSearchCache("error")
			logger.FromContext(ctx).Warn("検索キャッシュ取得エラー", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var result []JourneySummary
	if err := json.Unmarshal(raw, &result); err != nil {
		s.metrics.ObserveSearchCache("error")
		logger.FromContext(ctx).Warn("検索キャッシュの復元に失敗", zap.String("key", key), zap.Error(err))
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.FromContext(ctx).Warn("検索キャッシュ削除エラー", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	s.metrics.ObserveSearchCache("hit")
	logger.FromContext(ctx).Debug("キャッシュヒット", zap.String("key", key), zap.Int("count", len(result)))
	return result, true
}

func (s *JourneyService) setCached(ctx context.Context, key string, result []JourneySummary) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		logger.FromContext(ctx).Warn("検索結果のシリアライズに失敗", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		logger.FromContext(ctx).Warn("検索キャッシュ保存エラー", zap.String("key", key), zap.Error(err))
	}
}

func (s *JourneyService) dropDeparted(journeys []JourneySummary, date time.Time) []JourneySummary {
	now := s.now().UTC()
	if !calendarDay(now).Equal(calendarDay(date)) {
		return journeys
	}

	filtered := make([]JourneySummary, 0, len(journeys))
	for _, j := range journeys {
		if j.DepartureAt.After(now) {
			filtered = append(filtered, j)
		}
	}
	return filtered
}

// GetJourney は便の詳細を返す。キャッシュは使用しない
func (s *JourneyService) GetJourney(ctx context.Context, id int64) (*JourneySummary, error) {
	j, err := s.journeyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := s.summarize(j)
	return &summary, nil
}

// GetSeatPlan は座席番号順の座席表を返す。便が存在しない場合は空を返す。
// 座席表が未作成の場合はこの呼び出しで作成する
func (s *JourneyService) GetSeatPlan(ctx context.Context, journeyID int64) ([]SeatView, error) {
	j, err := s.journeyRepo.GetByID(ctx, journeyID)
	if err != nil {
		if errors.Is(err, journey.ErrJourneyNotFound) {
			return []SeatView{}, nil
		}
		return nil, err
	}

	seats, err := s.loadOrCreateSeats(ctx, j.ID)
	if err != nil {
		return nil, err
	}

	price := s.pricing.PriceFor(j.Provider, j.BasePrice)
	views := make([]SeatView, len(seats))
	for i, se := range seats {
		views[i] = SeatView{
			ID:         se.ID,
			SeatNumber: se.SeatNumber,
			Row:        se.Row,
			Column:     se.Column,
			Type:       se.Type,
			Sold:       se.Sold,
			GenderLock: se.GenderLock,
			Price:      price,
		}
	}
	return views, nil
}

// EnsureSeatMap は座席表が未作成の場合に作成する。作成した場合は true を返す
func (s *JourneyService) EnsureSeatMap(ctx context.Context, journeyID int64) (bool, error) {
	seats, err := s.seatRepo.GetByJourneyID(ctx, journeyID)
	if err != nil {
		return false, err
	}
	if len(seats) > 0 {
		return false, nil
	}
	return s.createSeatMap(ctx, journeyID)
}

func (s *JourneyService) loadOrCreateSeats(ctx context.Context, journeyID int64) ([]*seat.Seat, error) {
	seats, err := s.seatRepo.GetByJourneyID(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if len(seats) > 0 {
		return seats, nil
	}

	if _, err := s.createSeatMap(ctx, journeyID); err != nil {
		return nil, err
	}
	// 作成した座席、または先に作成した側の座席を読み直す
	return s.seatRepo.GetByJourneyID(ctx, journeyID)
}

func (s *JourneyService) createSeatMap(ctx context.Context, journeyID int64) (bool, error) {
	err := s.seatRepo.CreateBulk(ctx, seat.GenerateLayout(journeyID))
	switch {
	case err == nil:
		s.metrics.ObserveSeatMapGeneration("created")
		logger.FromContext(ctx).Info("座席表を作成しました", zap.Int64("journey_id", journeyID))
		return true, nil
	case errors.Is(err, seat.ErrSeatMapAlreadyExists):
		s.metrics.ObserveSeatMapGeneration("already_exists")
		logger.FromContext(ctx).Debug("座席表は他のリクエストで作成済み", zap.Int64("journey_id", journeyID))
		return false, nil
	default:
		s.metrics.ObserveSeatMapGeneration("error")
		return false, fmt.Errorf("座席表の作成に失敗: %w", err)
	}
}

// ListStations は停留所一覧を返す
func (s *JourneyService) ListStations(ctx context.Context) ([]*station.Station, error) {
	return s.stationRepo.List(ctx)
}

func (s *JourneyService) summarize(j *journey.Journey) JourneySummary {
	return JourneySummary{
		ID:                j.ID,
		OriginCity:        j.OriginCity,
		DestinationCity:   j.DestinationCity,
		DepartureAt:       j.DepartureAt,
		ArrivalEstimateAt: j.ArrivalEstimateAt,
		Provider:          j.Provider,
		Price:             s.pricing.PriceFor(j.Provider, j.BasePrice),
	}
}

// calendarDay はUTCでの日付の0時を返す
func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
