package payload

import (
	"fmt"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formgate/formgate/internal/apperr"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{`"hello"`, KindString},
		{`12.5`, KindNumber},
		{`-3`, KindNumber},
		{`true`, KindBoolean},
		{`false`, KindBoolean},
		{`null`, KindNull},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseValue([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}

	for _, in := range []string{`{"a":1}`, `[1,2]`} {
		_, err := ParseValue([]byte(in))
		assert.ErrorIs(t, err, ErrNotScalar, in)
	}
	_, err := ParseValue([]byte(`nope`))
	assert.Error(t, err)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, StringValue("a").Equal(StringValue("a")))
	assert.False(t, StringValue("1").Equal(NumberValue(1)))
	assert.True(t, NumberValue(1).Equal(NumberValue(1.0)))
	assert.True(t, NullValue().Equal(Value{}))
	assert.False(t, BoolValue(true).Equal(BoolValue(false)))
}

func TestValueLenCountsCharacters(t *testing.T) {
	assert.Equal(t, 3, StringValue("äöü").Len())
	assert.Equal(t, 0, NumberValue(12345).Len())
}

func TestPayloadEncodeDoesNotEscapeHTML(t *testing.T) {
	p := Payload{"msg": StringValue("<b>&</b>")}
	b, err := p.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"msg":"<b>&</b>"}`, string(b))
}

func TestPayloadEncodeIndent(t *testing.T) {
	p := Payload{"b": BoolValue(false), "a": StringValue("<x>")}
	b, err := p.EncodeIndent()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"<x>\",\n  \"b\": false\n}", string(b))
}

func TestPayloadUnmarshal(t *testing.T) {
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x","b":2,"c":null,"d":true}`), &p))
	assert.Len(t, p, 4)
	assert.True(t, p.Has("c"))
	assert.Equal(t, KindNull, p["c"].Kind())
}

func validationError(t *testing.T, err error) *apperr.Error {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	require.Equal(t, apperr.KindValidation, e.Kind)
	return e
}

func TestParseAcceptsValidSubmission(t *testing.T) {
	env, err := Parse([]byte(`{"data":{"name":"Jane","age":31,"ok":true,"x":null},"recaptchaToken":"tok","website":""}`))
	require.NoError(t, err)
	assert.Len(t, env.Data, 4)
	assert.Equal(t, "tok", env.RecaptchaToken)
	assert.Equal(t, "", env.Honeypot)
}

func TestParseRejectsTooManyFields(t *testing.T) {
	fields := make([]string, 101)
	for i := range fields {
		fields[i] = fmt.Sprintf(`"f%d":%d`, i, i)
	}
	body := `{"data":{` + strings.Join(fields, ",") + `}}`
	e := validationError(t, func() error { _, err := Parse([]byte(body)); return err }())
	assert.Equal(t, []string{MsgTooManyFields}, e.FieldErrors[FieldData])

	fields = fields[:100]
	_, err := Parse([]byte(`{"data":{` + strings.Join(fields, ",") + `}}`))
	assert.NoError(t, err)
}

func TestParseRejectsLongString(t *testing.T) {
	long := strings.Repeat("a", 5001)
	_, err := Parse([]byte(`{"data":{"msg":"` + long + `"}}`))
	e := validationError(t, err)
	assert.Equal(t, []string{MsgValueTooLong}, e.FieldErrors["data.msg"])

	_, err = Parse([]byte(`{"data":{"msg":"` + long[:5000] + `"}}`))
	assert.NoError(t, err)
}

func TestParseRejectsLargePayload(t *testing.T) {
	fields := make([]string, 11)
	for i := range fields {
		fields[i] = fmt.Sprintf(`"f%d":"%s"`, i, strings.Repeat("x", 4900))
	}
	_, err := Parse([]byte(`{"data":{` + strings.Join(fields, ",") + `}}`))
	e := validationError(t, err)
	assert.Equal(t, []string{MsgPayloadTooLarge}, e.FormErrors)
	assert.True(t, e.FieldErrors.Empty())
}

func TestParseRejectsMalformedEnvelopes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"missing data", `{}`, FieldData, MsgRequiredEnvelope},
		{"data array", `{"data":[1]}`, FieldData, MsgExpectedObject},
		{"nested value", `{"data":{"a":{"b":1}}}`, "data.a", MsgExpectedScalar},
		{"empty key", `{"data":{"":1}}`, FieldData, MsgEmptyFieldName},
		{"token not string", `{"data":{},"recaptchaToken":5}`, FieldRecaptchaToken, MsgExpectedString},
		{"honeypot not string", `{"data":{},"website":true}`, FieldHoneypot, MsgExpectedString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			e := validationError(t, err)
			assert.Contains(t, e.FieldErrors[tt.field], tt.msg)
		})
	}

	_, err := Parse([]byte(`not json`))
	e := validationError(t, err)
	assert.Equal(t, []string{MsgInvalidBody}, e.FormErrors)
}

func TestParseCustomLimits(t *testing.T) {
	l := Limits{MaxFields: 1}
	_, err := l.Parse([]byte(`{"data":{"a":1,"b":2}}`))
	validationError(t, err)

	_, err = l.Parse([]byte(`{"data":{"a":"` + strings.Repeat("y", 4000) + `"}}`))
	assert.NoError(t, err)
}
