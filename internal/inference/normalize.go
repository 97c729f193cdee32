package inference

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Estimate is the nutrition estimate parsed from a model answer.
type Estimate struct {
	FoodName     string  `json:"foodName"`
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Fat          float64 `json:"fat"`
	Carbohydrate float64 `json:"carbohydrate"`
	Suggestion   string  `json:"suggestion"`
}

const fence = "```"

// Normalize parses a free-form model answer into an Estimate. Markdown code
// fences are stripped and field names match case-insensitively. Missing or
// malformed numbers become zero and missing text becomes "". The second
// result is false only when the answer is not a JSON object at all.
func Normalize(raw string) (Estimate, bool) {
	fields, ok := decodeObject(stripFences(raw))
	if !ok {
		return Estimate{}, false
	}

	return Estimate{
		FoodName:     textField(fields, "foodName"),
		Calories:     numberField(fields, "calories"),
		Protein:      numberField(fields, "protein"),
		Fat:          numberField(fields, "fat"),
		Carbohydrate: numberField(fields, "carbohydrate"),
		Suggestion:   textField(fields, "suggestion"),
	}, true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len(fence)+4 && strings.EqualFold(s[:len(fence)+4], fence+"json") {
		s = s[len(fence)+4:]
	}
	s = strings.TrimPrefix(s, fence)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// decodeObject returns the object's members keyed by lower-cased name. When
// two members differ only by case, the lexically smallest original key wins.
func decodeObject(s string) (map[string]json.RawMessage, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil || raw == nil {
		return nil, false
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]json.RawMessage, len(raw))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if _, seen := fields[lk]; !seen {
			fields[lk] = raw[k]
		}
	}
	return fields, true
}

func textField(fields map[string]json.RawMessage, name string) string {
	v, ok := fields[strings.ToLower(name)]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

// numberField accepts JSON numbers and strings holding a number.
// Negative and non-finite values become zero.
func numberField(fields map[string]json.RawMessage, name string) float64 {
	v, ok := fields[strings.ToLower(name)]
	if !ok {
		return 0
	}

	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
