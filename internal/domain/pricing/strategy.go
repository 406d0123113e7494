package pricing

import "github.com/shopspring/decimal"

// Strategy は運行会社ごとの価格計算ルール
type Strategy interface {
	Provider() string
	Price(base decimal.Decimal) decimal.Decimal
}

// ProviderAStrategy は基本運賃に10%のサービス料を加算する
type ProviderAStrategy struct{}

func (ProviderAStrategy) Provider() string { return "ProviderA" }

func (ProviderAStrategy) Price(base decimal.Decimal) decimal.Decimal {
	return base.Mul(decimal.RequireFromString("1.10"))
}

// ProviderBStrategy は基本運賃をそのまま適用する
type ProviderBStrategy struct{}

func (ProviderBStrategy) Provider() string { return "ProviderB" }

func (ProviderBStrategy) Price(base decimal.Decimal) decimal.Decimal {
	return base
}

// DefaultStrategies は標準で登録する価格計算ルール
func DefaultStrategies() []Strategy {
	return []Strategy{ProviderAStrategy{}, ProviderBStrategy{}}
}
