package service

import (
	"encoding/json"
	"math"
	"time"
)

// Clients have written the report datetime in several shapes over time.
// String values get matched against these layouts in order.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// ToEpochMillis normalizes a JSON-decoded datetime value to epoch
// milliseconds. Numbers below 1e12 are treated as epoch seconds, larger ones
// as millis already. An object with integer seconds and optional nanoseconds
// converts as seconds*1000 + nanoseconds/1e6. Strings go through layout
// parsing. Anything unparseable, including nil, yields the 0 sentinel so
// unknown timestamps sort as oldest. Never fails.
func ToEpochMillis(v interface{}) int64 {
	switch dt := v.(type) {
	case nil:
		return 0
	case float64:
		return numberToMillis(dt)
	case int64:
		return numberToMillis(float64(dt))
	case int:
		return numberToMillis(float64(dt))
	case json.Number:
		f, err := dt.Float64()
		if err != nil {
			return 0
		}
		return numberToMillis(f)
	case map[string]interface{}:
		seconds, ok := numberField(dt, "seconds")
		if !ok {
			return 0
		}
		nanos, _ := numberField(dt, "nanoseconds")
		return int64(seconds)*1000 + int64(math.Floor(nanos/1e6))
	case string:
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, dt); err == nil {
				return t.UnixMilli()
			}
		}
		return 0
	case time.Time:
		return dt.UnixMilli()
	default:
		return 0
	}
}

// EpochMillisFromRaw normalizes the raw JSONB datetime column value.
func EpochMillisFromRaw(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return ToEpochMillis(v)
}

func numberToMillis(n float64) int64 {
	if n < 1e12 {
		return int64(n * 1000)
	}
	return int64(n)
}

func numberField(m map[string]interface{}, key string) (float64, bool) {
	raw, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := raw.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
