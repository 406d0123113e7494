package station

import "context"

// Repository は停留所リポジトリのインターフェース
type Repository interface {
	// List は停留所一覧を取得する
	List(ctx context.Context) ([]*Station, error)
}
