package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the UTC wall-clock format UTMify expects.
const TimestampLayout = "2006-01-02 15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	TimestampLayout,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// UTCTimestamp renders an instant as TimestampLayout in UTC. Absent values
// return nil; unparsable values return nil and are logged.
func (n *Normalizer) UTCTimestamp(ctx context.Context, value any) *string {
	t, ok, err := toTime(value)
	if err != nil {
		if n != nil {
			n.logger.Warn(n.logger.WithField(ctx, "timestamp", fmt.Sprint(value)), fmt.Sprintf("timestamp dropped: %v", err))
		}
		return nil
	}
	if !ok {
		return nil
	}
	formatted := t.UTC().Format(TimestampLayout)
	return &formatted
}

// FormatTime renders t as TimestampLayout in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// toTime reports ok=false without error for absent values.
func toTime(value any) (time.Time, bool, error) {
	switch val := value.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false, nil
		}
		return val, true, nil
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false, nil
		}
		return *val, true, nil
	case string:
		return parseTimestamp(val)
	case json.Number:
		if secs, err := val.Int64(); err == nil {
			return time.Unix(secs, 0), true, nil
		}
		if secs, err := val.Float64(); err == nil {
			return fromUnixFloat(secs), true, nil
		}
		return time.Time{}, false, fmt.Errorf("invalid unix timestamp %q", val.String())
	case int:
		return time.Unix(int64(val), 0), true, nil
	case int32:
		return time.Unix(int64(val), 0), true, nil
	case int64:
		return time.Unix(val, 0), true, nil
	case float64:
		return fromUnixFloat(val), true, nil
	default:
		return time.Time{}, false, fmt.Errorf("unsupported timestamp type %T", value)
	}
}

func parseTimestamp(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized timestamp %q", raw)
}

func fromUnixFloat(secs float64) time.Time {
	whole := int64(secs)
	frac := secs - float64(whole)
	return time.Unix(whole, int64(frac*float64(time.Second)))
}
