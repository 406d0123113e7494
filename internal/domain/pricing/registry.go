package pricing

import "github.com/shopspring/decimal"

// Registry は運行会社IDから価格計算ルールを引く。
// 生成後は変更されないため、ロックなしで並行に利用できる
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry は価格計算ルールを登録したRegistryを作成する。
// 同じ運行会社が複数ある場合は後のものが優先される
func NewRegistry(strategies ...Strategy) *Registry {
	m := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Provider()] = s
	}
	return &Registry{strategies: m}
}

// PriceFor は運行会社の最終価格を返す。未登録の運行会社は基本運賃のまま
func (r *Registry) PriceFor(provider string, base decimal.Decimal) decimal.Decimal {
	if r == nil {
		return base
	}
	s, ok := r.strategies[provider]
	if !ok {
		return base
	}
	return s.Price(base)
}
