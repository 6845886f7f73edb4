package payload

import (
	"bytes"
	"strconv"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Kind is the type tag of a Value
type Kind int

// Constants for Kind; the zero Kind is KindNull so that the zero Value is a
// JSON null.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBoolean
)

// String returns the canonical string representation for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as a JSON string.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte("\"" + k.String() + "\""), nil
}

// UnmarshalJSON decodes the kind from a JSON string.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("type must be a JSON string")
	}
	pk, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = pk
	return nil
}

// ParseKind converts a string to a Kind, returning an error for invalid values.
func ParseKind(v string) (Kind, error) {
	switch v {
	case "null":
		return KindNull, nil
	case "string":
		return KindString, nil
	case "number":
		return KindNumber, nil
	case "boolean":
		return KindBoolean, nil
	}
	return 0, errors.Errorf("invalid type: %s", v)
}

// ErrNotScalar is returned when a JSON value is an object or an array
var ErrNotScalar = errors.New("value must be a string, number, boolean or null")

// Value is a scalar submission value: a string, a number, a boolean or null.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// StringValue returns a string Value
func StringValue(s string) Value {
	return Value{
		kind: KindString,
		str:  s,
	}
}

// NumberValue returns a number Value
func NumberValue(f float64) Value {
	return Value{
		kind: KindNumber,
		num:  f,
	}
}

// BoolValue returns a boolean Value
func BoolValue(b bool) Value {
	return Value{
		kind: KindBoolean,
		b:    b,
	}
}

// NullValue returns the null Value
func NullValue() Value {
	return Value{}
}

// Kind returns the type tag of the value
func (v Value) Kind() Kind {
	return v.kind
}

// AsString returns the string and true if v is a string
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the number and true if v is a number
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the boolean and true if v is a boolean
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

// Len returns the length in characters of a string value and 0 otherwise
func (v Value) Len() int {
	if v.kind != KindString {
		return 0
	}
	return utf8.RuneCountInString(v.str)
}

// Equal reports whether both values have the same kind and the same content.
// Numbers compare by numeric value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBoolean:
		return v.b == o.b
	default:
		return true
	}
}

// String implements fmt.Stringer
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return "null"
	}
}

// MarshalJSON implements the json.Marshaler interface
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return marshalNoEscape(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBoolean:
		return []byte(strconv.FormatBool(v.b)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseValue parses a single JSON scalar
func ParseValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Value{}, errors.New("empty value")
	}
	switch data[0] {
	case '{', '[':
		return Value{}, ErrNotScalar
	case 'n':
		if string(data) == "null" {
			return NullValue(), nil
		}
	case 't', 'f':
		b, err := strconv.ParseBool(string(data))
		if err == nil {
			return BoolValue(b), nil
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Value{}, errors.WithStack(err)
		}
		return StringValue(s), nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return Value{}, errors.WithStack(err)
		}
		return NumberValue(f), nil
	}
	return Value{}, errors.Errorf("invalid JSON value: %s", data)
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Payload is a submission payload, a flat mapping from field name to scalar
type Payload map[string]Value

// Has reports whether the field is present in the payload
func (p Payload) Has(field string) bool {
	_, ok := p[field]
	return ok
}

// Encode returns the compact JSON encoding of the payload without HTML
// escaping; its length is the serialized size of the payload.
func (p Payload) Encode() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return marshalNoEscape(map[string]Value(p))
}

// EncodeIndent returns the indented JSON encoding of the payload without HTML
// escaping, for display
func (p Payload) EncodeIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]Value(p)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
