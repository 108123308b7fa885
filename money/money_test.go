package money

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestRounding(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		round func(decimal.Decimal) decimal.Decimal
		want  string
	}{
		{"cent half up", "1.005", RoundCent, "1.01"},
		{"cent down", "1.004", RoundCent, "1"},
		{"cent negative half away", "-1.005", RoundCent, "-1.01"},
		{"milli half up", "0.1235", RoundMilli, "0.124"},
		{"micro", "0.12345649", RoundMicro, "0.123456"},
		{"micro half up", "0.1234565", RoundMicro, "0.123457"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.round(MustParse(tt.in))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.Equal(t, "123.45", FromMinorUnits(12345, 2).StringFixed(2))
	assert.Equal(t, "-41.99", FromMinorUnits(-4199, 2).StringFixed(2))
	assert.Equal(t, "7", FromMinorUnits(7, 0).String())
}

func TestGrossNet(t *testing.T) {
	ten := MustParse("0.10")
	twenty := MustParse("0.20")

	assert.Equal(t, "550.00", Cents(Gross(MustParse("500.00"), ten)))
	assert.Equal(t, "60.00", Cents(Gross(MustParse("50.00"), twenty)))
	assert.Equal(t, "500.00", Cents(Net(MustParse("550.00"), ten)))
	assert.Equal(t, "50.00", Cents(Net(MustParse("60.00"), twenty)))
}

func TestValidateGross(t *testing.T) {
	ten := MustParse("0.10")

	assert.NoError(t, ValidateGross(MustParse("500.00"), ten, MustParse("550.00")))

	err := ValidateGross(MustParse("500.00"), ten, MustParse("550.01"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "550.01")
}

func TestValidateGrossRejectsSubCentAmounts(t *testing.T) {
	ten := MustParse("0.10")

	// 10.005 × 1.10 rounds to 11.01, but the net itself is not a currency
	// amount and must not pass into the pools.
	err := ValidateGross(MustParse("10.005"), ten, MustParse("11.01"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sub-cent")

	err = ValidateGross(MustParse("10.00"), ten, MustParse("11.005"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sub-cent")
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("12,50")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}
