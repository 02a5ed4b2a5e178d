// Package engine implements the authoritative game-state mutation pipeline:
// bar arithmetic, the validated roster operations, and the bounded undo/redo
// history wrapping them.
package engine

import (
	"fmt"
	"strconv"

	"github.com/nimred/encounter/internal/domain"
)

// ValueType selects which side of a bar an edit targets.
type ValueType string

const (
	ValueCurrent ValueType = "current"
	ValueMax     ValueType = "max"
)

// ComputeBar applies a raw bar edit and returns the resulting bar.
//
// A leading '+' or '-' makes the remainder a relative adjustment of the
// targeted value; otherwise the whole string is an absolute replacement. The
// remainder must parse as a non-negative integer or the edit is rejected with
// domain.ErrInvalidInput. The result always satisfies
// 0 <= CurrentValue <= MaxValue: computed values floor at zero, shrinking the
// max drags current down with it, and raising current clamps at max.
func ComputeBar(bar domain.Bar, vt ValueType, raw string) (domain.Bar, error) {
	computed, err := computeRawValue(bar, vt, raw)
	if err != nil {
		return domain.Bar{}, err
	}
	if computed < 0 {
		computed = 0
	}

	switch vt {
	case ValueMax:
		if computed < bar.CurrentValue {
			return domain.Bar{CurrentValue: computed, MaxValue: computed}, nil
		}
		return domain.Bar{CurrentValue: bar.CurrentValue, MaxValue: computed}, nil
	case ValueCurrent:
		if computed > bar.MaxValue {
			return domain.Bar{CurrentValue: bar.MaxValue, MaxValue: bar.MaxValue}, nil
		}
		return domain.Bar{CurrentValue: computed, MaxValue: bar.MaxValue}, nil
	default:
		return domain.Bar{}, fmt.Errorf("%w: unknown value type %q", domain.ErrInvalidInput, vt)
	}
}

func computeRawValue(bar domain.Bar, vt ValueType, raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: empty bar value", domain.ErrInvalidInput)
	}

	target := bar.CurrentValue
	if vt == ValueMax {
		target = bar.MaxValue
	}

	switch raw[0] {
	case '+', '-':
		delta, err := parseAmount(raw[1:])
		if err != nil {
			return 0, err
		}
		if raw[0] == '-' {
			return target - delta, nil
		}
		return target + delta, nil
	default:
		return parseAmount(raw)
	}
}

// parseAmount parses a sign-less non-negative integer literal.
func parseAmount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || (len(s) > 0 && (s[0] == '+' || s[0] == '-')) {
		return 0, fmt.Errorf("%w: %q is not a non-negative number", domain.ErrInvalidInput, s)
	}
	return n, nil
}
