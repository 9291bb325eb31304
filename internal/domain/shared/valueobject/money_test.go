package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("100.50"), JPY)
		require.NoError(t, err)
		assert.Equal(t, JPY, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("100.5")))
		assert.True(t, m.IsPositive())
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})

	t.Run("from string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)

		m, err := NewMoneyFromString("0.01", USD)
		require.NoError(t, err)
		assert.Equal(t, "0.01 USD", m.String())
	})
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int64
	}{
		{"whole number", "120000", 12000000},
		{"two decimals", "12.34", 1234},
		{"half rounds away from zero", "0.005", 1},
		{"below half rounds down", "0.0049", 0},
		{"four decimal places", "10.1250", 1013},
		{"negative", "-1.005", -101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.amount))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("overflow", func(t *testing.T) {
		_, err := ToMinorUnits(decimal.RequireFromString("1e30"))
		assert.Error(t, err)
	})
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	m, err := NewMoneyFromString("88000", JPY)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(88000)))

	units, err := m.MinorUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(8800000), units)
	assert.True(t, FromMinorUnits(1).Equal(decimal.RequireFromString("0.01")))
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" jpy ")
	require.NoError(t, err)
	assert.Equal(t, JPY, c)

	_, err = ParseCurrency("")
	assert.Error(t, err)

	_, err = ParseCurrency("XYZQ")
	assert.Error(t, err)

	assert.True(t, USD.IsValid())
	assert.False(t, Currency("ZZZ").IsValid())
}
