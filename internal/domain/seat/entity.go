package seat

import "time"

// Type は座席の種別を表す
type Type int

const (
	TypeAisle  Type = 0 // 通路側
	TypeWindow Type = 1 // 窓側
	TypeSingle Type = 2 // 1列席
)

// Gender は乗客の性別を表す
type Gender int

const (
	GenderMale   Gender = 1
	GenderFemale Gender = 2
)

// IsValid は定義済みの性別かを返す
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Seat は便ごとの座席エンティティを表す
type Seat struct {
	ID         int64
	JourneyID  int64
	SeatNumber int
	Row        int
	Column     int
	Type       Type
	Sold       bool
	GenderLock *Gender
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int // 楽観的ロック用
}

// NewSeat は未販売の新しい座席を作成する
func NewSeat(journeyID int64, seatNumber, row, column int, seatType Type) *Seat {
	now := time.Now()
	return &Seat{
		JourneyID:  journeyID,
		SeatNumber: seatNumber,
		Row:        row,
		Column:     column,
		Type:       seatType,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    0,
	}
}

// CanBeSoldTo は指定した性別の乗客にこの座席を販売できるかを検証する
func (s *Seat) CanBeSoldTo(g Gender) error {
	if s.Sold {
		return ErrSeatAlreadySold
	}
	if s.GenderLock != nil && *s.GenderLock != g {
		return ErrGenderMismatch
	}
	return nil
}

// Sell は座席を販売済みにし、性別ロックを設定する
func (s *Seat) Sell(g Gender) error {
	if err := s.CanBeSoldTo(g); err != nil {
		return err
	}
	s.Sold = true
	s.GenderLock = &g
	s.UpdatedAt = time.Now()
	s.Version++
	return nil
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.JourneyID <= 0 {
		return ErrJourneyIDRequired
	}
	if s.SeatNumber <= 0 {
		return ErrInvalidSeatNumber
	}
	return nil
}
