package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound           = errors.New("座席が見つかりません")
	ErrSeatAlreadySold        = errors.New("座席は既に販売済みです")
	ErrGenderMismatch         = errors.New("座席の性別制限と乗客の性別が一致しません")
	ErrInvalidGender          = errors.New("性別は1(男性)または2(女性)である必要があります")
	ErrJourneyIDRequired      = errors.New("便IDは必須です")
	ErrInvalidSeatNumber      = errors.New("座席番号は1以上である必要があります")
	ErrSeatMapAlreadyExists   = errors.New("座席表は既に作成されています")
	ErrOptimisticLockConflict = errors.New("楽観的ロックの競合が発生しました")
)
