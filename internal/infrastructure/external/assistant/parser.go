package assistant

import (
	"encoding/json"
	"strings"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE PARSING
// ══════════════════════════════════════════════════════════════════════════════

// The model is instructed to return a bare JSON array but routinely wraps
// it in markdown fences or surrounds it with prose. Parsing is therefore
// tolerant: strip fences, then take the first well-formed array literal.

// stripFences removes markdown code fences from the response.
func stripFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// decodeArray unmarshals the first JSON array in raw whose elements
// match T. Citation-style brackets in surrounding prose ("see [1]")
// also parse as arrays, so every candidate is tried in order until one
// decodes with the expected shape.
func decodeArray[T any](raw string) ([]T, error) {
	cleaned := stripFences(raw)
	sawArray := false

	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] != '[' {
			continue
		}

		dec := json.NewDecoder(strings.NewReader(cleaned[i:]))
		var candidate json.RawMessage
		if err := dec.Decode(&candidate); err != nil {
			continue
		}
		sawArray = true

		var items []T
		if err := json.Unmarshal(candidate, &items); err == nil && len(items) > 0 {
			return items, nil
		}
	}

	if sawArray {
		return nil, shared.NewDomainError("assistant", "Parse", shared.ErrContentGeneration, "array elements have unexpected shape")
	}
	return nil, shared.ErrAssistantBadPayload
}
