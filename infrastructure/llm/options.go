package llm

import "time"

// Valid ranges for common request parameters, shared across providers.
const (
	// DefaultMaxTokens bounds responses when the caller sets no limit.
	DefaultMaxTokens = 1000

	// MinTemperature and MaxTemperature bound the sampling temperature.
	// The upper bound is 2.0 to accommodate Gemini.
	MinTemperature = 0.0
	MaxTemperature = 2.0

	// MinTimeout and MaxTimeout bound per-request deadlines.
	MinTimeout = 1 * time.Second
	MaxTimeout = 10 * time.Minute
)

// RequestOptions is the standardized set of request parameters parsed
// from the options map a caller passes to Complete.
type RequestOptions struct {
	// Model overrides the provider's configured model for one request.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls sampling randomness. Nil uses the provider
	// default.
	Temperature *float64

	// System carries the system instruction (judge persona + rubric).
	System string

	// JSONResponse asks the provider for a JSON-object response format
	// where supported. Providers without native support ignore it.
	JSONResponse bool

	// Extra holds provider-specific options not in the standard set.
	Extra map[string]any
}

// ParseRequestOptions extracts standardized parameters from an options
// map, falling back to defaults for missing or invalid entries.
// Unrecognized keys are collected into Extra.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		Model:     defaultModel,
		MaxTokens: DefaultMaxTokens,
		Extra:     make(map[string]any),
	}

	for k, v := range opts {
		switch k {
		case "model":
			if s, ok := v.(string); ok && s != "" {
				options.Model = s
			}
		case "max_tokens":
			if n, ok := asInt(v); ok && n > 0 {
				options.MaxTokens = n
			}
		case "temperature":
			if f, ok := asFloat64(v); ok && f >= MinTemperature && f <= MaxTemperature {
				options.Temperature = &f
			}
		case "system":
			if s, ok := v.(string); ok {
				options.System = s
			}
		case "json_response":
			if b, ok := v.(bool); ok {
				options.JSONResponse = b
			}
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// asFloat64 converts a numeric option value to float64.
func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// asInt converts a numeric option value to int. YAML and JSON decoding
// often surface integers as float64.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != n { // NaN
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// ClampFloat64 bounds val to [min, max].
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampTimeout bounds a per-request deadline to a sane range. Zero or
// negative means "use the default" and is returned unchanged.
func ClampTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}
