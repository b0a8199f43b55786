package adapters

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"propscan/models"
)

var (
	// moneyRegexp captures a numeric amount with an optional K/M suffix
	moneyRegexp = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([kKmM])?\b`)
	// numberRegexp captures the first plain number in a string
	numberRegexp = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// parseMoney reads a price-like value. Numbers pass through; strings such as
// "$1,250,000", "1.2M" or "450k" are parsed. ok is false when nothing usable
// was found or the amount is negative.
func parseMoney(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		return parseMoneyString(t)
	default:
		f, ok := parseNumber(v)
		if !ok || f < 0 {
			return 0, false
		}
		return f, true
	}
}

// parseMoneyString parses an unsigned amount; a leading minus is not a price.
func parseMoneyString(raw string) (float64, bool) {
	if strings.HasPrefix(strings.TrimSpace(raw), "-") {
		return 0, false
	}
	return parseAmount(raw)
}

// parseAmount reads the magnitude of a money string, ignoring any sign.
func parseAmount(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := moneyRegexp.FindStringSubmatch(cleaned)
	if len(match) < 2 {
		return 0, false
	}
	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(match[2]) {
	case "k":
		amount *= 1_000
	case "m":
		amount *= 1_000_000
	}
	return amount, true
}

// parseNumber coerces JSON numbers, numeric strings and Go numeric types.
func parseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		match := numberRegexp.FindString(strings.ReplaceAll(t, ",", ""))
		if match == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(match, 64)
		return f, err == nil
	}
	return 0, false
}

func parseInt(v any) int {
	f, ok := parseNumber(v)
	if !ok || f < 0 {
		return 0
	}
	return int(math.Round(f))
}

func parseFloat(v any) float64 {
	f, ok := parseNumber(v)
	if !ok || f < 0 {
		return 0
	}
	return f
}

// str returns a trimmed, whitespace-collapsed string form of v.
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return normaliseText(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	}
	return ""
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func normaliseState(s string) string {
	return strings.ToUpper(normaliseText(s))
}

// first returns the value of the first key present and non-empty in rec.
func first(rec map[string]any, keys ...string) any {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// firstMoney returns the first parseable price among keys.
func firstMoney(rec map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := parseMoney(rec[k]); ok {
			return v, true
		}
	}
	return 0, false
}

// object returns rec[key] as a nested record, or nil.
func object(rec map[string]any, key string) map[string]any {
	switch t := rec[key].(type) {
	case map[string]any:
		return t
	case models.RawRecord:
		return t
	}
	return nil
}

func addCandidate(p *models.CanonicalProperty, t models.IDType, v any) {
	if s := str(v); s != "" {
		p.CandidateIDs = append(p.CandidateIDs, models.CandidateID{Type: t, Value: s})
	}
}

// optionalMoney returns a financial field pointer only when the provider set it.
func optionalMoney(v any) *float64 {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		f, ok := parseAmount(s)
		if !ok {
			return nil
		}
		if strings.HasPrefix(strings.TrimSpace(s), "-") {
			f = -f
		}
		return models.Float(f)
	}
	f, ok := parseNumber(v)
	if !ok {
		return nil
	}
	return models.Float(f)
}

// optionalRent is optionalMoney for rent fields: a rent of zero or less is
// treated as not supplied.
func optionalRent(v any) *float64 {
	f := optionalMoney(v)
	if f == nil || *f <= 0 {
		return nil
	}
	return f
}
