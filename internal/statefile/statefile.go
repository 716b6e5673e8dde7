// Package statefile reads the JSON state snapshot handed over by the
// surrounding application. This is runner glue, not persistence: the engine
// itself only ever sees the in-memory structures.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sellerkit/replan/internal/domain"
)

// Load reads and decodes a plan state snapshot from disk.
func Load(path string) (*domain.PlanState, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return Decode(payload)
}

// Decode parses a plan state snapshot from raw JSON.
func Decode(payload []byte) (*domain.PlanState, error) {
	var state domain.PlanState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decode state snapshot: %w", err)
	}
	return &state, nil
}
