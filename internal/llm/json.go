package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUnparsed indicates model output contained no decodable JSON object.
// Callers construct their documented fallback value instead of failing.
var ErrUnparsed = errors.New("llm: no parseable JSON object in model output")

// DecodeJSONWindow locates the outermost {...} span in model output (which
// may be wrapped in prose or markdown fences) and unmarshals it into v.
// Returns ErrUnparsed when no such span exists or it does not decode.
func DecodeJSONWindow(text string, v any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ErrUnparsed
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return ErrUnparsed
	}
	return nil
}
