package ticket

import "errors"

// Ticket ドメインのエラー定義
var (
	ErrTicketNotFound          = errors.New("乗車券が見つかりません")
	ErrTooManySeats            = errors.New("1回の購入で選択できる座席は最大4席です")
	ErrNoSeatsSelected         = errors.New("座席が選択されていません")
	ErrDuplicateSeat           = errors.New("同じ座席が複数回選択されています")
	ErrPassengerNameRequired   = errors.New("乗客名は必須です")
	ErrNationalIDRequired      = errors.New("乗客の身分証番号は必須です")
	ErrPassengerNameTooLong    = errors.New("乗客名は200文字以内で入力してください")
	ErrNationalIDTooLong       = errors.New("乗客の身分証番号は20文字以内で入力してください")
	ErrInvalidConfirmationCode = errors.New("予約確認コードの形式が不正です")
	ErrSeatAlreadyTicketed     = errors.New("座席には既に乗車券が発行されています")
)
