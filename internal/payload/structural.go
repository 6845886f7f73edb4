// Package payload defines the scalar value model for public submissions and
// the structural validation that bounds every submission regardless of the
// rules its form owner configured.
package payload

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/formgate/formgate/internal/apperr"
)

// Field names of the submission envelope
const (
	FieldData           = "data"
	FieldRecaptchaToken = "recaptchaToken"
	FieldHoneypot       = "website"
)

// Structural violation messages
const (
	MsgTooManyFields    = "Too many fields in submission payload."
	MsgValueTooLong     = "Field value exceeds max length."
	MsgPayloadTooLarge  = "Payload too large."
	MsgExpectedObject   = "Expected an object."
	MsgExpectedScalar   = "Expected a string, number, boolean or null."
	MsgExpectedString   = "Expected string."
	MsgEmptyFieldName   = "Field names must not be empty."
	MsgInvalidBody      = "Request body must be a JSON object."
	MsgRequiredEnvelope = "Required."
)

// Limits bounds the shape of a submission payload
type Limits struct {
	MaxFields          int `yaml:"max_fields"`
	MaxStringLength    int `yaml:"max_string_length"`
	MaxSerializedBytes int `yaml:"max_serialized_bytes"`
}

// DefaultLimits are the limits applied when nothing else is configured
var DefaultLimits = Limits{
	MaxFields:          100,
	MaxStringLength:    5000,
	MaxSerializedBytes: 50_000,
}

func (l Limits) withDefaults() Limits {
	if l.MaxFields <= 0 {
		l.MaxFields = DefaultLimits.MaxFields
	}
	if l.MaxStringLength <= 0 {
		l.MaxStringLength = DefaultLimits.MaxStringLength
	}
	if l.MaxSerializedBytes <= 0 {
		l.MaxSerializedBytes = DefaultLimits.MaxSerializedBytes
	}
	return l
}

// Envelope is a structurally valid submission together with its side
// channels
type Envelope struct {
	Data           Payload
	RecaptchaToken string
	Honeypot       string
}

// Parse decodes a raw submission body and checks it against the limits. All
// violations are collected and returned as one validation error.
func (l Limits) Parse(body []byte) (*Envelope, error) {
	l = l.withDefaults()
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, apperr.Validation([]string{MsgInvalidBody}, nil)
	}

	fe := apperr.FieldErrors{}
	env := &Envelope{}
	env.RecaptchaToken = optionalString(raw, FieldRecaptchaToken, fe)
	env.Honeypot = optionalString(raw, FieldHoneypot, fe)

	data, ok := raw[FieldData]
	if !ok {
		fe.Add(FieldData, MsgRequiredEnvelope)
		return nil, apperr.Validation(nil, fe)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		fe.Add(FieldData, MsgExpectedObject)
		return nil, apperr.Validation(nil, fe)
	}

	var formErrors []string
	if len(fields) > l.MaxFields {
		fe.Add(FieldData, MsgTooManyFields)
	}
	p := make(Payload, len(fields))
	for name, r := range fields {
		key := fmt.Sprintf("%s.%s", FieldData, name)
		if name == "" {
			fe.Add(FieldData, MsgEmptyFieldName)
			continue
		}
		v, err := ParseValue(r)
		if err != nil {
			fe.Add(key, MsgExpectedScalar)
			continue
		}
		if v.Kind() == KindString && v.Len() > l.MaxStringLength {
			fe.Add(key, MsgValueTooLong)
		}
		p[name] = v
	}
	if fe.Empty() {
		encoded, err := p.Encode()
		if err != nil {
			return nil, err
		}
		if len(encoded) > l.MaxSerializedBytes {
			formErrors = append(formErrors, MsgPayloadTooLarge)
		}
	}
	if !fe.Empty() || len(formErrors) > 0 {
		return nil, apperr.Validation(formErrors, fe)
	}
	env.Data = p
	return env, nil
}

// Parse checks a raw submission body against DefaultLimits
func Parse(body []byte) (*Envelope, error) {
	return DefaultLimits.Parse(body)
}

func optionalString(raw map[string]json.RawMessage, field string, fe apperr.FieldErrors) string {
	r, ok := raw[field]
	if !ok {
		return ""
	}
	v, err := ParseValue(r)
	if err != nil {
		fe.Add(field, MsgExpectedString)
		return ""
	}
	switch v.Kind() {
	case KindNull:
		return ""
	case KindString:
		s, _ := v.AsString()
		return s
	default:
		fe.Add(field, MsgExpectedString)
		return ""
	}
}
