package numfmt

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	cases := map[string]string{
		"0":         "0",
		"12.345":    "12.34",
		"999999":    "999,999",
		"1500000":   "1.5 M",
		"2.5e12":    "2.5 T",
		"1e30":      "1.00e30",
		"1.234e150": "1.23e150",
	}
	for in, want := range cases {
		assert.Equal(t, want, Short(decimal.RequireFromString(in)), in)
	}
}

func TestScientific(t *testing.T) {
	assert.Equal(t, "1.00e100", Scientific(decimal.RequireFromString("9.999e99"), 2))
	assert.Equal(t, "-4.2e7", Scientific(decimal.NewFromInt(-42_000_000), 1))
	assert.Equal(t, "1.23e-3", Scientific(decimal.RequireFromString("0.00123"), 2))
	assert.Equal(t, "0", Scientific(decimal.Zero, 2))
}

func TestWait(t *testing.T) {
	assert.Equal(t, "never at this rate", Wait(0, false))
	assert.Equal(t, "now", Wait(0, true))
	assert.Equal(t, "3 minutes", Wait(3*time.Minute, true))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "150%", Percent(1.5))
	assert.Equal(t, "1%", Percent(0.01))
}
