package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RosterEntry maps an operator's display name to their email
type RosterEntry struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Roster looks operators up by the display name used in metrics sheets
type Roster struct {
	byName map[string]RosterEntry
}

// NewRoster indexes entries by folded name. Two entries whose names fold to
// the same key with different emails are rejected.
func NewRoster(entries []RosterEntry) (*Roster, error) {
	r := &Roster{byName: make(map[string]RosterEntry, len(entries))}
	for _, e := range entries {
		e.Email = types.NormalizeEmail(e.Email)
		e.Name = strings.TrimSpace(e.Name)
		key := FoldName(e.Name)
		if key == "" || e.Email == "" {
			return nil, fmt.Errorf("roster entry %q needs a name and an email", e.Name)
		}
		if prev, ok := r.byName[key]; ok && prev.Email != e.Email {
			return nil, fmt.Errorf("roster names %q and %q are ambiguous", prev.Name, e.Name)
		}
		r.byName[key] = e
	}
	return r, nil
}

// LoadRoster reads a JSON array of roster entries from path
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	var entries []RosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode roster %s: %w", path, err)
	}
	return NewRoster(entries)
}

// Lookup finds the entry for a display name as written in a sheet
func (r *Roster) Lookup(name string) (RosterEntry, bool) {
	e, ok := r.byName[FoldName(name)]
	return e, ok
}

// Len returns the number of distinct names
func (r *Roster) Len() int { return len(r.byName) }

// FoldName reduces a display name to its lookup key: accents removed, case
// folded and whitespace collapsed, so "JOÃO  da Silva" matches "Joao da Silva".
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}
