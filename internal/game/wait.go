package game

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var maxWaitSeconds = decimal.NewFromInt(int64(math.MaxInt64 / int64(time.Second)))

// WaitTime estimates how long production takes to cover price. ok is false
// when the wait is unknown: nothing is produced, or it does not fit a
// time.Duration.
func (s *State) WaitTime(price decimal.Decimal) (d time.Duration, ok bool) {
	remaining := price.Sub(s.Atoms)
	if remaining.Sign() <= 0 {
		return 0, true
	}
	if s.APS.Sign() <= 0 {
		return 0, false
	}
	secs := remaining.Div(s.APS).Ceil()
	if secs.GreaterThan(maxWaitSeconds) {
		return 0, false
	}
	return time.Duration(secs.IntPart()) * time.Second, true
}
