package model

import (
	"fmt"
)

// Plan is the billing plan of a User; the plan decides whether the user may
// access the authenticated API
type Plan int

// Constants for Plan
const (
	PlanFree Plan = iota
	PlanPro
	PlanUnpaid
)

// String returns the canonical string representation for the plan.
func (p Plan) String() string {
	switch p {
	case PlanFree:
		return "free"
	case PlanPro:
		return "pro"
	case PlanUnpaid:
		return "unpaid"
	default:
		return "unknown"
	}
}

// Valid reports whether the plan is one of the defined constants.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanUnpaid:
		return true
	default:
		return false
	}
}

// Blocked reports whether users on this plan are denied API access
func (p Plan) Blocked() bool {
	return p == PlanUnpaid
}

// MarshalJSON encodes the plan as a JSON string.
func (p Plan) MarshalJSON() ([]byte, error) {
	return []byte("\"" + p.String() + "\""), nil
}

// UnmarshalJSON decodes the plan from a JSON string.
func (p *Plan) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("plan must be a JSON string")
	}
	pp, err := ParsePlan(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*p = pp
	return nil
}

// ParsePlan converts a string to a Plan, returning an error for invalid values.
func ParsePlan(v string) (Plan, error) {
	switch v {
	case "free":
		return PlanFree, nil
	case "pro":
		return PlanPro, nil
	case "unpaid":
		return PlanUnpaid, nil
	}
	return 0, fmt.Errorf("invalid plan: %s", v)
}
