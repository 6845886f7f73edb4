package ownerapi

import (
	"fmt"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/formgate/formgate/internal/apperr"
	"github.com/formgate/formgate/internal/credential"
	"github.com/formgate/formgate/internal/schema"
)

// Validation messages
const (
	MsgInvalidBody     = "Request body must be a JSON object."
	MsgRequired        = "Required."
	MsgExpectedString  = "Expected string."
	MsgExpectedBoolean = "Expected boolean."
	MsgInvalidEmail    = credential.MsgInvalidEmail
	MsgInvalidRuleSet  = "Invalid rule set."
	MsgInvalidID       = "Invalid uuid."
)

// object is a decoded json request body whose members are decoded on demand
type object map[string]json.RawMessage

func decodeObject(body []byte) (object, error) {
	var o object
	if err := json.Unmarshal(body, &o); err != nil || o == nil {
		return nil, apperr.Validation([]string{MsgInvalidBody}, nil)
	}
	return o, nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// string returns the named string member; absent and null members yield nil
func (o object) string(name string, fe apperr.FieldErrors) *string {
	raw, ok := o[name]
	if !ok || isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		fe.Add(name, MsgExpectedString)
		return nil
	}
	return &s
}

// requiredString is like string but reports a missing member
func (o object) requiredString(name string, fe apperr.FieldErrors) *string {
	raw, ok := o[name]
	if !ok || isNull(raw) {
		fe.Add(name, MsgRequired)
		return nil
	}
	return o.string(name, fe)
}

func (o object) bool(name string, fe apperr.FieldErrors) *bool {
	raw, ok := o[name]
	if !ok || isNull(raw) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		fe.Add(name, MsgExpectedBoolean)
		return nil
	}
	return &b
}

// ruleSet decodes and checks the named rule set member
func (o object) ruleSet(name string, fe apperr.FieldErrors) *schema.RuleSet {
	raw, ok := o[name]
	if !ok || isNull(raw) {
		return nil
	}
	var rs schema.RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil || rs == nil {
		fe.Add(name, MsgInvalidRuleSet)
		return nil
	}
	if err := rs.Check(); err != nil {
		if e, ok := apperr.As(err); ok {
			for _, field := range e.FieldErrors.Fields() {
				for _, msg := range e.FieldErrors[field] {
					fe.Add(field, msg)
				}
			}
			return nil
		}
		fe.Add(name, MsgInvalidRuleSet)
		return nil
	}
	return &rs
}

func checkLength(name, s string, minLen, maxLen int, fe apperr.FieldErrors) {
	if n := utf8.RuneCountInString(s); n < minLen || n > maxLen {
		fe.Add(name, fmt.Sprintf("Must be between %d and %d characters.", minLen, maxLen))
	}
}

// normalizeEmail checks that s is a bare email address and returns it
// lower-cased
func normalizeEmail(name, s string, fe apperr.FieldErrors) string {
	email, ok := credential.NormalizeEmail(s)
	if !ok {
		fe.Add(name, MsgInvalidEmail)
	}
	return email
}

func checkID(name, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.InvalidField(name, MsgInvalidID)
	}
	return nil
}
