package ticket

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
)

// MaxSeatsPerSale は1回の購入で選択できる座席数の上限
const MaxSeatsPerSale = 4

// ConfirmationCodeLength は予約確認コードの桁数
const ConfirmationCodeLength = 6

// 乗客情報の最大文字数（tickets テーブルの列定義と一致）
const (
	MaxPassengerNameLength = 200
	MaxNationalIDLength    = 20
)

// Ticket は販売済み乗車券エンティティを表す
type Ticket struct {
	ID                  int64
	ConfirmationCode    string
	JourneyID           int64
	SeatID              int64
	SeatNumber          int
	PassengerName       string
	PassengerNationalID string
	PassengerGender     seat.Gender
	PaidAmount          decimal.Decimal
	CreatedAt           time.Time
}

// CodeGenerator は予約確認コードを生成する
type CodeGenerator func() string

// NewConfirmationCode はUUIDの先頭6文字を大文字にした予約確認コードを生成する
func NewConfirmationCode() string {
	return strings.ToUpper(uuid.New().String()[:ConfirmationCodeLength])
}

// NewTicket は新しい乗車券を作成する
func NewTicket(code string, journeyID int64, s *seat.Seat, name, nationalID string, gender seat.Gender, amount decimal.Decimal) *Ticket {
	return &Ticket{
		ConfirmationCode:    code,
		JourneyID:           journeyID,
		SeatID:              s.ID,
		SeatNumber:          s.SeatNumber,
		PassengerName:       name,
		PassengerNationalID: nationalID,
		PassengerGender:     gender,
		PaidAmount:          amount,
		CreatedAt:           time.Now(),
	}
}

// Validate は乗車券の検証を行う
func (t *Ticket) Validate() error {
	if len(t.ConfirmationCode) != ConfirmationCodeLength {
		return ErrInvalidConfirmationCode
	}
	if strings.TrimSpace(t.PassengerName) == "" {
		return ErrPassengerNameRequired
	}
	if strings.TrimSpace(t.PassengerNationalID) == "" {
		return ErrNationalIDRequired
	}
	if !t.PassengerGender.IsValid() {
		return seat.ErrInvalidGender
	}
	return nil
}
