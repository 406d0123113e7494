package station

import "time"

// Station はバスターミナルを表す参照データ
type Station struct {
	ID        int64
	City      string
	Name      string
	CreatedAt time.Time
}
