package domain

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// CashKey is the allocation key for the stable/cash leg of the portfolio.
const CashKey = "cash"

// Allocation maps asset symbols (plus CashKey) to target USD values.
// A raw allocation extracted from oracle output is untrusted: values may be
// missing, negative, or sum to anything. The rebalance package normalizes it
// before any conversion to quantities.
type Allocation map[string]decimal.Decimal

// Total returns the sum of all allocation values.
func (a Allocation) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range a {
		total = total.Add(v)
	}
	return total
}

// ParseAllocation extracts the target allocation from free-form oracle text.
// The model is told to answer with a bare JSON object, but responses routinely
// arrive wrapped in markdown fences or surrounded by prose, so the first
// balanced JSON object is located and parsed tolerantly: each tracked asset
// key and the cash key are read independently, and a field that is not a
// usable number is treated as zero rather than failing the whole response.
// A response with no parseable JSON object is an oracle failure.
func ParseAllocation(raw string, assets []string) (Allocation, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return nil, errors.New("no JSON object found in oracle response")
	}
	if !gjson.Valid(payload) {
		return nil, errors.New("oracle response contains malformed JSON")
	}

	parsed := gjson.Parse(payload)
	if !parsed.IsObject() {
		return nil, errors.New("oracle response root is not a JSON object")
	}

	alloc := make(Allocation, len(assets)+1)
	for _, sym := range assets {
		alloc[sym] = coerceValue(parsed, sym)
	}
	alloc[CashKey] = coerceValue(parsed, CashKey)

	return alloc, nil
}

// coerceValue reads a field case-insensitively and coerces it to a decimal.
// Formatting noise (currency signs, thousands separators, quoted numbers) is
// tolerated; anything else collapses to zero.
func coerceValue(parsed gjson.Result, key string) decimal.Decimal {
	field := parsed.Get(key)
	if !field.Exists() {
		parsed.ForEach(func(k, v gjson.Result) bool {
			if strings.EqualFold(k.String(), key) {
				field = v
				return false
			}
			return true
		})
	}

	switch field.Type {
	case gjson.Number:
		if v, err := decimal.NewFromString(field.Raw); err == nil {
			return v
		}
	case gjson.String:
		cleaned := strings.TrimSpace(field.Str)
		cleaned = strings.TrimPrefix(cleaned, "$")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		if v, err := decimal.NewFromString(cleaned); err == nil {
			return v
		}
	}

	return decimal.Zero
}

// extractJSONObject strips markdown fences and returns the first balanced
// top-level JSON object in the text, or empty string if none exists.
func extractJSONObject(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}
