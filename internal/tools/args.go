package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

// Call is one tool invocation after the dispatcher has split out the file id.
type Call struct {
	SessionID string
	FileID    string
	Args      map[string]any
}

// Number reads a numeric argument, returning def when it is absent or null.
func (c Call) Number(key string, def float64) (float64, error) {
	v, ok := c.Args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", key)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

// Int reads a whole-number argument.
func (c Call) Int(key string, def int) (int, error) {
	f, err := c.Number(key, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(f), nil
}

// Bool reads a boolean argument.
func (c Call) Bool(key string, def bool) (bool, error) {
	v, ok := c.Args[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return b, nil
}

// Strings reads an array-of-strings argument.
func (c Call) Strings(key string) ([]string, error) {
	v, ok := c.Args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch s := v.(type) {
	case []string:
		return s, nil
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be an array of strings", key)
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
}

// TimeRange reads the optional time_range object.
func (c Call) TimeRange() (domain.TimeWindow, error) {
	v, ok := c.Args["time_range"]
	if !ok || v == nil {
		return domain.TimeWindow{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return domain.TimeWindow{}, fmt.Errorf("time_range must be an object")
	}
	inner := Call{Args: m}
	var w domain.TimeWindow
	for key, dst := range map[string]**float64{"start_sec": &w.Start, "end_sec": &w.End} {
		if _, ok := m[key]; !ok || m[key] == nil {
			continue
		}
		f, err := inner.Number(key, 0)
		if err != nil {
			return domain.TimeWindow{}, fmt.Errorf("time_range.%w", err)
		}
		*dst = &f
	}
	return w, nil
}

// ParseArgs converts string key/value pairs, such as query parameters or CLI
// flags, into tool arguments. Numbers and booleans are typed; start_sec and
// end_sec are folded into time_range.
func ParseArgs(kv map[string]string) map[string]any {
	args := make(map[string]any, len(kv))
	window := map[string]any{}
	for k, v := range kv {
		var val any = v
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			val = f
		} else if b, err := strconv.ParseBool(v); err == nil {
			val = b
		}
		switch k {
		case "start_sec", "end_sec":
			window[k] = val
		default:
			args[k] = val
		}
	}
	if len(window) > 0 {
		args["time_range"] = window
	}
	return args
}
