package normalizer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"zaphook/core/command"
	"zaphook/models"

	"github.com/tidwall/gjson"
)

const DefaultStatus = "received"

// IdentifierKeys - алиасы идентификатора, первый непустой побеждает
var IdentifierKeys = []string{"request_id", "attempt", "id"}

// Normalizer превращает произвольный payload callback'а в Record.
// Никогда не возвращает ошибку: всё, что не разобралось, сохраняется как есть.
type Normalizer struct {
	defaultStatus string
	extractors    []Extractor
	now           func() time.Time
}

type Option func(*Normalizer)

func WithDefaultStatus(status string) Option {
	return func(n *Normalizer) {
		if status != "" {
			n.defaultStatus = status
		}
	}
}

func WithExtractors(extractors ...Extractor) Option {
	return func(n *Normalizer) {
		n.extractors = extractors
	}
}

func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		defaultStatus: DefaultStatus,
		extractors:    DefaultExtractors(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize строит Record из payload. Второе значение false, если
// идентификатор не найден: такую запись сохранять нельзя.
func (n *Normalizer) Normalize(payload map[string]any) (models.Record, bool) {
	if payload == nil {
		payload = map[string]any{}
	}

	raw, present := payload["result"]
	rec := models.Record{
		RequestID:  Identifier(payload),
		Status:     n.status(payload),
		Result:     NormalizeResult(raw, present),
		Payload:    payload,
		ReceivedAt: n.now().UTC(),
	}

	in := Input{Payload: payload, Result: rec.Result}
	for _, e := range n.extractors {
		if cmd, ok := e.Extract(in); ok {
			rec.FixedCurl = cmd
			rec.CommandSource = e.Name()
			break
		}
	}

	if rec.FixedCurl != "" {
		if req, err := command.ParseCurl(rec.FixedCurl); err == nil {
			rec.Request = req
		}
	}

	return rec, rec.RequestID != ""
}

func (n *Normalizer) status(payload map[string]any) string {
	if s, ok := nonEmptyString(payload["status"]); ok {
		return s
	}
	return n.defaultStatus
}

// Identifier - первый непустой алиас, приведённый к строке
func Identifier(payload map[string]any) string {
	for _, key := range IdentifierKeys {
		if id := scalarString(payload[key]); id != "" {
			return id
		}
	}
	return ""
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		// строка хранится как есть: GET ищет по тому же значению
		return val
	case float64:
		if val == 0 {
			return ""
		}
		return formatNumber(val)
	case bool:
		if val {
			return "true"
		}
	}
	return ""
}

// formatNumber печатает число так же, как String() в JavaScript:
// десятичная запись в диапазоне [1e-6, 1e21), иначе экспонента вида 1e+21, 1.5e-7
func formatNumber(v float64) string {
	if abs := math.Abs(v); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	n, err := strconv.Atoi(exp)
	if err != nil {
		return mantissa + "e" + exp
	}
	if n >= 0 {
		return mantissa + "e+" + strconv.Itoa(n)
	}
	return mantissa + "e" + strconv.Itoa(n)
}

// NormalizeResult приводит поле result к тегированному значению.
// Строка, похожая на JSON объект или массив, разбирается; при ошибке
// разбора строка остаётся нетронутой.
func NormalizeResult(v any, present bool) models.Result {
	if !present {
		return models.AbsentResult()
	}

	switch val := v.(type) {
	case map[string]any, []any:
		return models.StructuredResult(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if looksLikeJSON(trimmed) && gjson.Valid(trimmed) {
			return models.StructuredResult(gjson.Parse(trimmed).Value())
		}
		return models.StringResult(val)
	default:
		return models.ScalarResult(val)
	}
}

func looksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}
