package models

import (
	"encoding/json"
	"time"
)

// ResultKind - тег варианта поля result
type ResultKind int

const (
	ResultAbsent     ResultKind = iota // поля нет в payload
	ResultString                       // строка, не распознанная как JSON
	ResultStructured                   // объект или массив
	ResultScalar                       // число, bool или null
)

func (k ResultKind) String() string {
	switch k {
	case ResultString:
		return "string"
	case ResultStructured:
		return "structured"
	case ResultScalar:
		return "scalar"
	default:
		return "absent"
	}
}

// Result - нормализованное значение поля result.
// Text заполнен только для ResultString, Value - для ResultStructured и ResultScalar.
type Result struct {
	Kind  ResultKind
	Text  string
	Value any
}

func AbsentResult() Result {
	return Result{Kind: ResultAbsent}
}

func StringResult(s string) Result {
	return Result{Kind: ResultString, Text: s}
}

func StructuredResult(v any) Result {
	return Result{Kind: ResultStructured, Value: v}
}

func ScalarResult(v any) Result {
	return Result{Kind: ResultScalar, Value: v}
}

// Object - результат как JSON объект, если это объект
func (r Result) Object() (map[string]any, bool) {
	if r.Kind != ResultStructured {
		return nil, false
	}
	obj, ok := r.Value.(map[string]any)
	return obj, ok
}

// IsZero нужен для тега omitzero: отсутствующий result не сериализуется
func (r Result) IsZero() bool {
	return r.Kind == ResultAbsent
}

func (r Result) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResultString:
		return json.Marshal(r.Text)
	case ResultStructured, ResultScalar:
		return json.Marshal(r.Value)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON восстанавливает тег по форме значения
func (r *Result) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		*r = StringResult(val)
	case map[string]any, []any:
		*r = StructuredResult(val)
	default:
		*r = ScalarResult(val)
	}
	return nil
}

// Record - последний результат callback'а для идентификатора
type Record struct {
	RequestID     string         `json:"request_id"`
	Status        string         `json:"status"`
	Result        Result         `json:"result,omitzero"`
	FixedCurl     string         `json:"fixed_curl,omitempty"`
	CommandSource string         `json:"command_source,omitempty"`
	Request       *HTTPRequest   `json:"request,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	ReceivedAt    time.Time      `json:"received_at"`
}

// HTTPRequest представляет HTTP запрос, разобранный из команды curl
type HTTPRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}
