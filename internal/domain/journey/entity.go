package journey

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journey は運行便エンティティを表す
type Journey struct {
	ID                   int64
	OriginStationID      int64
	DestinationStationID int64
	OriginCity           string
	DestinationCity      string
	DepartureAt          time.Time
	ArrivalEstimateAt    time.Time
	Provider             string
	BasePrice            decimal.Decimal
	CreatedAt            time.Time
}

// DepartsAfter は便が指定時刻より後に出発するかを返す
func (j *Journey) DepartsAfter(t time.Time) bool {
	return j.DepartureAt.After(t)
}

// Validate は便の検証を行う
func (j *Journey) Validate() error {
	if j.OriginStationID <= 0 || j.DestinationStationID <= 0 {
		return ErrStationRequired
	}
	if j.OriginStationID == j.DestinationStationID {
		return ErrSameStation
	}
	if j.ArrivalEstimateAt.Before(j.DepartureAt) {
		return ErrInvalidJourneyTime
	}
	if j.BasePrice.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}
