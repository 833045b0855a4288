package orders

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/angelmondragon/samcart-relay/internal/samcart"
)

func lookup(event samcart.Event, path samcart.Path) any {
	value, _ := event.Lookup(path)
	return value
}

func first(event samcart.Event, candidates ...samcart.Path) any {
	value, _ := event.First(candidates...)
	return value
}

func optional(event samcart.Event, candidates []samcart.Path) *string {
	value, ok := event.String(candidates...)
	if !ok {
		return nil
	}
	return &value
}

func isTrue(event samcart.Event, path samcart.Path) bool {
	flag, ok := lookup(event, path).(bool)
	return ok && flag
}

// quantity truncates numeric input to an integer; anything below 1 is 1.
func quantity(raw any) int {
	var n float64
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			n = float64(i)
		} else if f, err := v.Float64(); err == nil {
			n = f
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if i, err := strconv.Atoi(trimmed); err == nil {
			n = float64(i)
		} else if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			n = f
		}
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	}
	if math.IsNaN(n) || n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func valueOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
