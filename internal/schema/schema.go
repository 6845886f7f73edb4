// Package schema implements the owner-defined, per-form rule sets that are
// applied to structurally valid submissions.
package schema

import (
	"fmt"
	"strconv"

	"github.com/formgate/formgate/internal/apperr"
	"github.com/formgate/formgate/internal/payload"
)

// Violation messages
const (
	MsgRequired    = "Required field is missing."
	MsgNotInEnum   = "Value is not in allowed set."
	MsgLengthOrder = "minLength cannot be greater than maxLength."
	MsgRangeOrder  = "minimum cannot be greater than maximum."
	MsgMinLength   = "minLength must be a non-negative integer."
	MsgMaxLength   = "maxLength must be a positive integer."
	MsgEmptyEnum   = "enum must contain at least one value."
	MsgEmptyField  = "Field names must not be empty."
)

// FieldRule is the set of constraints for a single field. All members are
// optional.
type FieldRule struct {
	Type      *payload.Kind   `json:"type,omitempty"`
	Required  bool            `json:"required,omitempty"`
	MinLength *int            `json:"minLength,omitempty"`
	MaxLength *int            `json:"maxLength,omitempty"`
	Minimum   *float64        `json:"minimum,omitempty"`
	Maximum   *float64        `json:"maximum,omitempty"`
	Enum      []payload.Value `json:"enum,omitempty"`
}

// RuleSet maps a field name to its rule
type RuleSet map[string]FieldRule

// Check validates the rule set itself. It is called when a form is created
// or its schema is replaced; a rule set that fails Check is never stored.
func (rs RuleSet) Check() error {
	fe := apperr.FieldErrors{}
	for field, rule := range rs {
		key := "schema." + field
		if field == "" {
			fe.Add("schema", MsgEmptyField)
			continue
		}
		if rule.MinLength != nil && *rule.MinLength < 0 {
			fe.Add(key, MsgMinLength)
		}
		if rule.MaxLength != nil && *rule.MaxLength <= 0 {
			fe.Add(key, MsgMaxLength)
		}
		if rule.MinLength != nil && rule.MaxLength != nil && *rule.MinLength > *rule.MaxLength {
			fe.Add(key, MsgLengthOrder)
		}
		if rule.Minimum != nil && rule.Maximum != nil && *rule.Minimum > *rule.Maximum {
			fe.Add(key, MsgRangeOrder)
		}
		if rule.Enum != nil && len(rule.Enum) == 0 {
			fe.Add(key, MsgEmptyEnum)
		}
	}
	if !fe.Empty() {
		return apperr.Validation(nil, fe)
	}
	return nil
}

// Validate applies the rule set to p and returns the violations per field.
// An empty rule set accepts everything; fields without a rule pass through
// unchecked. The returned FieldErrors is empty when p is valid.
func Validate(p payload.Payload, rs RuleSet) apperr.FieldErrors {
	fe := apperr.FieldErrors{}
	for field, rule := range rs {
		value, present := p[field]
		if !present {
			if rule.Required {
				fe.Add(field, MsgRequired)
			}
			continue
		}
		if rule.Type != nil && value.Kind() != *rule.Type {
			fe.Add(field, fmt.Sprintf("Expected %s.", *rule.Type))
			continue
		}
		if value.Kind() == payload.KindString {
			l := value.Len()
			if rule.MinLength != nil && l < *rule.MinLength {
				fe.Add(field, fmt.Sprintf("Must be at least %d characters.", *rule.MinLength))
			}
			if rule.MaxLength != nil && l > *rule.MaxLength {
				fe.Add(field, fmt.Sprintf("Must be at most %d characters.", *rule.MaxLength))
			}
		}
		if n, ok := value.AsNumber(); ok {
			if rule.Minimum != nil && n < *rule.Minimum {
				fe.Add(field, fmt.Sprintf("Must be >= %s.", formatNumber(*rule.Minimum)))
			}
			if rule.Maximum != nil && n > *rule.Maximum {
				fe.Add(field, fmt.Sprintf("Must be <= %s.", formatNumber(*rule.Maximum)))
			}
		}
		if len(rule.Enum) > 0 && !contains(rule.Enum, value) {
			fe.Add(field, MsgNotInEnum)
		}
	}
	return fe
}

// ValidateError is like Validate but returns a validation error, or nil
func ValidateError(p payload.Payload, rs RuleSet) error {
	fe := Validate(p, rs)
	if fe.Empty() {
		return nil
	}
	return apperr.Validation(nil, fe)
}

func contains(values []payload.Value, v payload.Value) bool {
	for _, e := range values {
		if e.Equal(v) {
			return true
		}
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
