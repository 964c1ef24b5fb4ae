package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/topchat/topchat/pkg/types"
)

// condition is a parsed "field operator threshold" rule expression.
type condition struct {
	field     string
	op        string
	threshold float64
}

// parseCondition parses a rule condition string.
//
// Supported expressions (field operator value):
//
//	cpu_max > 90
//	cpu_avg >= 75
//	mem_used_pct > 95
//	sessions == 0
//
// Operators: > >= < <= ==
func parseCondition(cond string) (condition, error) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return condition{}, fmt.Errorf("condition %q: want \"field op value\"", cond)
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	switch field {
	case "cpu_max", "cpu_avg", "mem_used_pct", "sessions":
	default:
		return condition{}, fmt.Errorf("condition %q: unknown field %q", cond, field)
	}
	switch op {
	case ">", ">=", "<", "<=", "==":
	default:
		return condition{}, fmt.Errorf("condition %q: unknown operator %q", cond, op)
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return condition{}, fmt.Errorf("condition %q: threshold: %w", cond, err)
	}
	return condition{field: field, op: op, threshold: threshold}, nil
}

// eval reports whether the condition holds for snap, and the value tested.
func (c condition) eval(snap *types.Snapshot) (bool, float64) {
	v := numericField(c.field, snap)
	return compareFloat(v, c.op, c.threshold), v
}

// numericField maps a field name to its value in the snapshot.
func numericField(field string, snap *types.Snapshot) float64 {
	switch field {
	case "cpu_max":
		return snap.CPUMax()
	case "cpu_avg":
		return snap.CPUAvg()
	case "mem_used_pct":
		return snap.Memory.UsedPct()
	case "sessions":
		return float64(snap.SessionCount)
	default:
		return 0
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
