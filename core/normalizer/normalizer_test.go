package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"zaphook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"request_id wins", `{"request_id":"r1","attempt":"a1","id":"i1"}`, "r1"},
		{"attempt before id", `{"attempt":"a1","id":"i1"}`, "a1"},
		{"id last", `{"id":"i1"}`, "i1"},
		{"empty alias skipped", `{"request_id":"","attempt":"a1"}`, "a1"},
		{"whitespace id kept", `{"request_id":" ","attempt":"a1"}`, " "},
		{"padded id verbatim", `{"request_id":" abc "}`, " abc "},
		{"number coerced", `{"attempt":42}`, "42"},
		{"fraction", `{"attempt":1.5}`, "1.5"},
		{"large number exponent", `{"attempt":1e21}`, "1e+21"},
		{"below exponent threshold", `{"attempt":123456789012345680000}`, "123456789012345680000"},
		{"small number exponent", `{"attempt":1e-7}`, "1e-7"},
		{"small decimal", `{"attempt":0.000001}`, "0.000001"},
		{"negative exponent mantissa", `{"attempt":-1.5e-9}`, "-1.5e-9"},
		{"zero is empty", `{"request_id":0,"id":"i1"}`, "i1"},
		{"object ignored", `{"request_id":{"x":1}}`, ""},
		{"missing", `{"result":"x"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(decode(t, tt.body)))
		})
	}
}

func TestNormalizeResult(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind models.ResultKind
	}{
		{"absent", `{}`, models.ResultAbsent},
		{"object passthrough", `{"result":{"a":1}}`, models.ResultStructured},
		{"array passthrough", `{"result":[1,2]}`, models.ResultStructured},
		{"json object string", `{"result":"{\"a\":1}"}`, models.ResultStructured},
		{"json array string", `{"result":" [1,2] "}`, models.ResultStructured},
		{"plain string", `{"result":"done"}`, models.ResultString},
		{"quoted json string stays string", `{"result":"\"done\""}`, models.ResultString},
		{"malformed object string", `{"result":"{\"a\":"}`, models.ResultString},
		{"number", `{"result":3}`, models.ResultScalar},
		{"null", `{"result":null}`, models.ResultScalar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := decode(t, tt.body)
			raw, present := payload["result"]
			assert.Equal(t, tt.kind, NormalizeResult(raw, present).Kind)
		})
	}
}

func TestNormalizeJSONStringResult(t *testing.T) {
	payload := decode(t, `{"request_id":"x1","result":"{\"fixed_curl\":\"curl -X GET http://x\"}"}`)

	rec, ok := New().Normalize(payload)

	require.True(t, ok)
	assert.Equal(t, "x1", rec.RequestID)
	assert.Equal(t, models.StructuredResult(map[string]any{"fixed_curl": "curl -X GET http://x"}), rec.Result)
	assert.Equal(t, "curl -X GET http://x", rec.FixedCurl)
	assert.Equal(t, SourceResultField, rec.CommandSource)
	require.NotNil(t, rec.Request)
	assert.Equal(t, "GET", rec.Request.Method)
	assert.Equal(t, "http://x", rec.Request.URL)
}

func TestNormalizePlainCurlString(t *testing.T) {
	payload := decode(t, `{"request_id":"x2","result":"curl https://api.example.com -H \"Auth: t\""}`)

	rec, ok := New().Normalize(payload)

	require.True(t, ok)
	assert.Equal(t, `curl https://api.example.com -H "Auth: t"`, rec.FixedCurl)
	assert.Equal(t, SourceWholeString, rec.CommandSource)
	assert.Equal(t, models.StringResult(`curl https://api.example.com -H "Auth: t"`), rec.Result)
}

func TestNormalizeMalformedKeepsRaw(t *testing.T) {
	raw := `{"status": "ok", "note": broken`
	rec, ok := New().Normalize(map[string]any{"id": "x3", "result": raw})

	require.True(t, ok)
	assert.Equal(t, models.StringResult(raw), rec.Result)
	assert.Empty(t, rec.FixedCurl)
	assert.Empty(t, rec.CommandSource)
}

func TestNormalizePatternFallback(t *testing.T) {
	raw := `{"fixed_curl": "curl -X POST http://x/\"q\"", "extra": oops}`
	rec, _ := New().Normalize(map[string]any{"id": "x4", "result": raw})

	assert.Equal(t, models.StringResult(raw), rec.Result)
	assert.Equal(t, `curl -X POST http://x/"q"`, rec.FixedCurl)
	assert.Equal(t, SourcePattern, rec.CommandSource)

	truncated := `{"curl": "curl http://trunc`
	rec, _ = New().Normalize(map[string]any{"id": "x5", "result": truncated})
	assert.Equal(t, "curl http://trunc", rec.FixedCurl)
}

func TestPatternKeyOrder(t *testing.T) {
	raw := `{"curl": "curl http://alias", "fixed_curl": "curl http://main", oops`
	rec, _ := New().Normalize(map[string]any{"id": "p1", "result": raw})

	assert.Equal(t, "curl http://main", rec.FixedCurl)
	assert.Equal(t, SourcePattern, rec.CommandSource)
}

func TestCommandPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		source string
	}{
		{
			name:   "top-level beats result field",
			body:   `{"fixed_curl":"curl http://top","result":{"fixed_curl":"curl http://inner"}}`,
			want:   "curl http://top",
			source: SourceTopLevel,
		},
		{
			name:   "fixed_curl beats curl alias",
			body:   `{"result":{"curl":"curl http://alias","fixed_curl":"curl http://main"}}`,
			want:   "curl http://main",
			source: SourceResultField,
		},
		{
			name:   "curl alias",
			body:   `{"result":"{\"curl\":\"curl http://alias\"}"}`,
			want:   "curl http://alias",
			source: SourceResultField,
		},
		{
			name:   "empty top-level ignored",
			body:   `{"fixed_curl":"","result":"curl http://whole"}`,
			want:   "curl http://whole",
			source: SourceWholeString,
		},
		{
			name: "nothing",
			body: `{"result":{"other":"x"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := New().Normalize(decode(t, tt.body))
			assert.Equal(t, tt.want, rec.FixedCurl)
			assert.Equal(t, tt.source, rec.CommandSource)
		})
	}
}

func TestStatus(t *testing.T) {
	n := New()

	rec, _ := n.Normalize(map[string]any{"status": "failed"})
	assert.Equal(t, "failed", rec.Status)

	rec, _ = n.Normalize(map[string]any{"status": ""})
	assert.Equal(t, DefaultStatus, rec.Status)

	rec, _ = n.Normalize(map[string]any{"status": 7})
	assert.Equal(t, DefaultStatus, rec.Status)

	rec, _ = New(WithDefaultStatus("completed")).Normalize(nil)
	assert.Equal(t, "completed", rec.Status)
}

func TestNormalizeWithoutIdentifier(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rec, ok := New(WithClock(func() time.Time { return fixed })).Normalize(map[string]any{"result": "curl http://x"})

	assert.False(t, ok)
	assert.Empty(t, rec.RequestID)
	assert.Equal(t, "curl http://x", rec.FixedCurl)
	assert.Equal(t, fixed, rec.ReceivedAt)
}

func TestRecordJSONShape(t *testing.T) {
	rec, _ := New().Normalize(map[string]any{"request_id": "j1"})

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.NotContains(t, out, "result")
	assert.NotContains(t, out, "fixed_curl")
	assert.Equal(t, "j1", out["request_id"])
	assert.Equal(t, DefaultStatus, out["status"])
}
