package pricing

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fixedStrategy struct {
	provider string
	price    decimal.Decimal
}

func (s fixedStrategy) Provider() string                       { return s.provider }
func (s fixedStrategy) Price(decimal.Decimal) decimal.Decimal { return s.price }

func TestRegistry_PriceFor(t *testing.T) {
	r := NewRegistry(DefaultStrategies()...)
	base := decimal.NewFromInt(500)

	tests := []struct {
		name     string
		provider string
		expected string
	}{
		{"ProviderAは10%加算", "ProviderA", "550"},
		{"ProviderBは基本運賃", "ProviderB", "500"},
		{"未登録の運行会社は基本運賃", "ProviderZ", "500"},
		{"空の運行会社は基本運賃", "", "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.PriceFor(tt.provider, base)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestRegistry_LaterStrategyWins(t *testing.T) {
	r := NewRegistry(
		fixedStrategy{provider: "X", price: decimal.NewFromInt(1)},
		fixedStrategy{provider: "X", price: decimal.NewFromInt(2)},
	)

	assert.True(t, decimal.NewFromInt(2).Equal(r.PriceFor("X", decimal.NewFromInt(100))))
}

func TestRegistry_Nil(t *testing.T) {
	var r *Registry
	assert.True(t, decimal.NewFromInt(100).Equal(r.PriceFor("ProviderA", decimal.NewFromInt(100))))
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(DefaultStrategies()...)
	base := decimal.RequireFromString("450.50")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := r.PriceFor("ProviderA", base)
			assert.True(t, decimal.RequireFromString("495.55").Equal(got))
		}()
	}
	wg.Wait()
}
