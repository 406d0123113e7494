package transaction

import "context"

// Tx は1回の販売で行う座席更新と乗車券作成をまとめる単位。
// Commit されなかった変更は Rollback で全て取り消される
type Tx interface {
	Commit() error
	// Rollback はコミット後に呼ばれても何もしない
	Rollback() error
}

// Manager は販売トランザクションを開始する。
// 実装は READ COMMITTED 以上の分離レベルで、競合した更新が待機後に再評価されることを保証する
type Manager interface {
	Begin(ctx context.Context) (Tx, error)
}
