package journey

import "errors"

// Journey ドメインのエラー定義
var (
	ErrJourneyNotFound    = errors.New("便が見つかりません")
	ErrStationRequired    = errors.New("出発地と到着地は必須です")
	ErrSameStation        = errors.New("出発地と到着地は異なる必要があります")
	ErrInvalidJourneyTime = errors.New("到着予定時刻は出発時刻より後である必要があります")
	ErrInvalidPrice       = errors.New("価格は0以上である必要があります")
)
