// Package result validates the payload the mini-app sends back through
// web_app_data.
package result

import (
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/vanohrulidze-ui/anton-runner-bot/internal/domain"
)

// Payload field names.
const (
	FieldType            = "type"
	FieldScore           = "score"
	FieldWon             = "won"
	FieldFinished        = "finished"
	FieldObstaclesPassed = "obstacles_passed"
)

// int64 bounds as float64. The lower bound is exact, the upper one is 2^63
// and therefore excluded.
const (
	minIntFloat = float64(math.MinInt64)
	maxIntFloat = float64(math.MaxInt64)
)

// Validate classifies raw as a game result, a malformed payload or a payload
// with an unknown type tag. Missing or mistyped optional fields fall back to
// their defaults.
func Validate(raw string) domain.Outcome {
	if !gjson.Valid(raw) {
		return domain.Malformed(raw)
	}

	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return domain.Malformed(raw)
	}

	fields := lastFields(doc)

	tag := fields[FieldType]
	if tag.Type != gjson.String || tag.Str != domain.GameResultType {
		return domain.Unrecognized(raw, typeTag(tag))
	}

	result := domain.GameResult{
		Score: intOr(fields[FieldScore], 0),
		Won:   firstBool(fields[FieldWon], fields[FieldFinished]),
	}

	if passed, ok := toInt(fields[FieldObstaclesPassed]); ok {
		result.ObstaclesPassed = &passed
	}

	return domain.Valid(raw, result)
}

// lastFields indexes the top-level members of doc. A duplicated key keeps its
// last value, unlike gjson's Get which returns the first.
func lastFields(doc gjson.Result) map[string]gjson.Result {
	fields := make(map[string]gjson.Result)
	doc.ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value
		return true
	})
	return fields
}

func typeTag(tag gjson.Result) string {
	switch {
	case !tag.Exists():
		return ""
	case tag.Type == gjson.String:
		return tag.Str
	default:
		return tag.Raw
	}
}

// toInt accepts any finite JSON number in int64 range. Integer literals are
// parsed exactly; other numbers are truncated toward zero.
func toInt(value gjson.Result) (int64, bool) {
	if value.Type != gjson.Number {
		return 0, false
	}
	if n, err := strconv.ParseInt(value.Raw, 10, 64); err == nil {
		return n, true
	}
	if math.IsNaN(value.Num) || value.Num < minIntFloat || value.Num >= maxIntFloat {
		return 0, false
	}
	return int64(value.Num), true
}

func intOr(value gjson.Result, fallback int64) int64 {
	if n, ok := toInt(value); ok {
		return n
	}
	return fallback
}

func firstBool(values ...gjson.Result) bool {
	for _, value := range values {
		if value.IsBool() {
			return value.Bool()
		}
	}
	return false
}
