package doctor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Raw field names in the remote payload.
const (
	rawID           = "id"
	rawName         = "name"
	rawExperience   = "experience"
	rawFees         = "fees"
	rawSpecialities = "specialities"
	rawVideoConsult = "video_consult"
)

var firstInt = regexp.MustCompile(`\d+`)

// DecodeRaw parses a remote response body into raw records. The body must be
// a JSON array; individual elements that are not objects become empty records
// so that positional ids stay aligned with arrival order.
func DecodeRaw(body []byte) ([]RawDoctor, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode doctor list: %w", err)
	}

	out := make([]RawDoctor, len(items))
	for i, item := range items {
		var rec map[string]any
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		if err := dec.Decode(&rec); err != nil || rec == nil {
			rec = map[string]any{}
		}
		out[i] = rec
	}
	return out, nil
}

// Normalize converts a batch of raw records. It never fails and never drops
// a record: malformed fields fall back to their defaults one by one.
func Normalize(raw []RawDoctor) []Doctor {
	out := make([]Doctor, len(raw))
	for i, r := range raw {
		out[i] = NormalizeOne(r, i)
	}
	return out
}

// NormalizeOne converts the record at position index of its batch.
func NormalizeOne(r RawDoctor, index int) Doctor {
	d := Doctor{
		ID:               coerceID(r[rawID], index),
		Name:             stringField(r[rawName]),
		Specialties:      specialtyNames(r[rawSpecialities]),
		ConsultationType: ConsultationClinic,
	}

	if n, ok := leadingInt(r[rawExperience]); ok {
		d.Experience = n
	} else {
		d.ExperienceUnknown = true
	}
	if n, ok := leadingInt(r[rawFees]); ok {
		d.Fee = n
	} else {
		d.FeeUnknown = true
	}
	if truthy(r[rawVideoConsult]) {
		d.ConsultationType = ConsultationVideo
	}
	return d
}

// coerceID returns v as a positive integer, or index+1 when v is missing,
// zero, negative, fractional or not numeric.
func coerceID(v any, index int) int {
	fallback := index + 1

	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return fallback
		}
		f = parsed
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}

	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return fallback
	}
	return int(f)
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// leadingInt extracts the first run of digits from a free-text value such as
// "13 Years of experience" or "₹ 500".
func leadingInt(v any) (int, bool) {
	var text string
	switch x := v.(type) {
	case string:
		text = x
	case json.Number:
		text = x.String()
	case float64:
		text = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		text = strconv.Itoa(x)
	default:
		return 0, false
	}

	m := firstInt.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func specialtyNames(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case map[string]any:
			if name, ok := x["name"].(string); ok {
				names = append(names, name)
			}
		case string:
			names = append(names, x)
		}
	}
	return names
}

// truthy follows JavaScript truthiness for the JSON value kinds, except that
// the string "false" is treated as false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && !strings.EqualFold(x, "false")
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	default:
		return true
	}
}
