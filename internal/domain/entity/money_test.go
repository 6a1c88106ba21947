package entity

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"1000", 100000, false},
		{"1000.5", 100050, false},
		{"0.01", 1, false},
		{"12.345", 1235, false},
		{"-20.10", -2010, false},
		{"abc", 0, true},
		{"92233720368547758.07", math.MaxInt64, false},
		{"184467440737095516.17", 0, true},
		{"-92233720368547758.09", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoney_JSON(t *testing.T) {
	var payload struct {
		Amount Money  `json:"amount"`
		Return *Money `json:"return"`
		Quoted Money  `json:"quoted"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 800.25, "return": null, "quoted": "199.99"}`), &payload))

	assert.Equal(t, Money(80025), payload.Amount)
	assert.Nil(t, payload.Return)
	assert.Equal(t, Money(19999), payload.Quoted)

	out, err := json.Marshal(Money(100050))
	require.NoError(t, err)
	assert.Equal(t, "1000.5", string(out))
}

func TestMoney_MulQuantity(t *testing.T) {
	tests := []struct {
		price    Money
		quantity float64
		want     Money
	}{
		{10000, 3, 30000},
		{10000, 0.5, 5000},
		{1000, 0.333, 333},
	}
	for _, tt := range tests {
		got, err := tt.price.MulQuantity(tt.quantity)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := Money(1).MulQuantity(9.3e18)
	assert.ErrorIs(t, err, ErrMoneyOutOfRange)

	_, err = Money(1).MulQuantity(math.Inf(1))
	assert.ErrorIs(t, err, ErrMoneyOutOfRange)
}

func TestMoney_UnmarshalRejectsOverflow(t *testing.T) {
	var m Money
	err := json.Unmarshal([]byte(`"184467440737095516.17"`), &m)
	require.ErrorIs(t, err, ErrMoneyOutOfRange)
	assert.Equal(t, Money(0), m)

	assert.Error(t, json.Unmarshal([]byte(`1e30`), &m))
}

func TestMoney_StringAndAbs(t *testing.T) {
	assert.Equal(t, "300.00", Money(30000).String())
	assert.Equal(t, Money(200), Money(-200).Abs())
	assert.Equal(t, Money(0), ValueOrZero(nil))
	assert.Equal(t, Money(5), ValueOrZero(MoneyPtr(5)))
}
