package model

import "github.com/pkg/errors"

// CounterUnit selects how reported byte counters are stored.
type CounterUnit string

const (
	UnitBytes CounterUnit = "bytes"
	UnitBits  CounterUnit = "bits"
)

func ParseCounterUnit(s string) (CounterUnit, error) {
	switch CounterUnit(s) {
	case "", UnitBytes:
		return UnitBytes, nil
	case UnitBits:
		return UnitBits, nil
	}
	return "", errors.Errorf("unknown counter unit %q", s)
}

// Scale is the multiplier applied to a reported byte counter.
func (u CounterUnit) Scale() uint64 {
	if u == UnitBits {
		return 8
	}
	return 1
}
