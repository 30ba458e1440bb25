// Persona roster loading.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/talgya/serenissima/internal/agents"
)

// LoadPersonas reads the generated persona roster (personas.json). Personas
// that fail validation are skipped with a warning rather than aborting the
// whole simulation; the generator occasionally produces a malformed routine.
func LoadPersonas(path string) ([]*agents.Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona roster: %w", err)
	}
	var all []*agents.Persona
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("parse persona roster %s: %w", path, err)
	}

	valid := all[:0]
	for _, p := range all {
		if err := p.Validate(); err != nil {
			slog.Warn("skipping persona", "error", err)
			continue
		}
		valid = append(valid, p)
	}
	slog.Info("loaded persona roster", "path", path, "personas", len(valid), "skipped", len(all)-len(valid))
	return valid, nil
}
