package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"zaphook/core/command"
	"zaphook/models"
)

// Источники команды, они же значения Record.CommandSource
const (
	SourceTopLevel    = "top_level"
	SourceResultField = "result_field"
	SourceWholeString = "whole_string"
	SourcePattern     = "pattern"
)

// CommandKeys - имя поля с командой и его алиасы, в порядке приоритета
var CommandKeys = []string{"fixed_curl", "curl"}

// Input - то, что видит каждая стратегия извлечения команды
type Input struct {
	Payload map[string]any
	Result  models.Result
}

// Extractor - одна стратегия извлечения команды
type Extractor interface {
	Name() string
	Extract(in Input) (string, bool)
}

// DefaultExtractors - стратегии в порядке приоритета
func DefaultExtractors() []Extractor {
	return []Extractor{
		TopLevelExtractor{Key: CommandKeys[0]},
		ResultFieldExtractor{Keys: CommandKeys},
		WholeStringExtractor{},
		NewPatternExtractor(CommandKeys...),
	}
}

// TopLevelExtractor - поле прямо в payload
type TopLevelExtractor struct {
	Key string
}

func (e TopLevelExtractor) Name() string { return SourceTopLevel }

func (e TopLevelExtractor) Extract(in Input) (string, bool) {
	return nonEmptyString(in.Payload[e.Key])
}

// ResultFieldExtractor - поле внутри разобранного объекта result
type ResultFieldExtractor struct {
	Keys []string
}

func (e ResultFieldExtractor) Name() string { return SourceResultField }

func (e ResultFieldExtractor) Extract(in Input) (string, bool) {
	obj, ok := in.Result.Object()
	if !ok {
		return "", false
	}
	for _, key := range e.Keys {
		if s, ok := nonEmptyString(obj[key]); ok {
			return s, true
		}
	}
	return "", false
}

// WholeStringExtractor - строковый result, который сам является командой
type WholeStringExtractor struct{}

func (WholeStringExtractor) Name() string { return SourceWholeString }

func (WholeStringExtractor) Extract(in Input) (string, bool) {
	if in.Result.Kind != models.ResultString || !command.LooksLikeCommand(in.Result.Text) {
		return "", false
	}
	return strings.TrimSpace(in.Result.Text), true
}

// PatternExtractor ищет фрагмент "key": "value" в строке, которая не разобралась как JSON.
// Закрывающая кавычка не обязательна: фрагмент может быть обрезан.
// Ключи проверяются по порядку, а не по позиции в строке.
type PatternExtractor struct {
	res []*regexp.Regexp
}

func NewPatternExtractor(keys ...string) PatternExtractor {
	res := make([]*regexp.Regexp, 0, len(keys))
	for _, k := range keys {
		res = append(res, regexp.MustCompile(`"`+regexp.QuoteMeta(k)+`"\s*:\s*"((?:[^"\\]|\\.)+)`))
	}
	return PatternExtractor{res: res}
}

func (PatternExtractor) Name() string { return SourcePattern }

func (e PatternExtractor) Extract(in Input) (string, bool) {
	if in.Result.Kind != models.ResultString {
		return "", false
	}
	var m []string
	for _, re := range e.res {
		if m = re.FindStringSubmatch(in.Result.Text); m != nil {
			break
		}
	}
	if m == nil {
		return "", false
	}
	// Экранирование JSON снимаем, если фрагмент корректен
	if s, err := strconv.Unquote(`"` + m[1] + `"`); err == nil {
		return s, true
	}
	return m[1], true
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
