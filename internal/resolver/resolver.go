// Package resolver decodes the persisted operator document into canonical
// records. The document has been written in three layouts over time; each
// entry is tagged with its layout once, at decode time, and lookups then run
// against canonical records only.
package resolver

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

// Document is the raw persisted store: top-level key to entry
type Document map[string]json.RawMessage

// Shape tags the historical layout an entry was persisted in
type Shape int

const (
	// ShapeDirect holds identity and months at the top level of the entry
	ShapeDirect Shape = iota
	// ShapeEmbeddedLogin nests the identity inside a "login" object
	ShapeEmbeddedLogin
	// ShapeLegacyFlat has the metric groups at the top level and no months
	ShapeLegacyFlat
)

func (s Shape) String() string {
	switch s {
	case ShapeDirect:
		return "direct"
	case ShapeEmbeddedLogin:
		return "embedded_login"
	case ShapeLegacyFlat:
		return "legacy_flat"
	default:
		return "unknown"
	}
}

// Strategy names the lookup tier that located a record
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyDirect
	StrategySingleton
	StrategyScan
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategySingleton:
		return "singleton"
	case StrategyScan:
		return "scan"
	default:
		return "none"
	}
}

// Entry is one decoded store entry
type Entry struct {
	Key    string
	Shape  Shape
	Record *types.OperatorRecord
}

// Index holds every recognizable entry of a document in canonical form
type Index struct {
	entries   map[string]*Entry
	keys      []string // sorted, scan order
	singleton *Entry
}

// singletonKey is the identity object of a document holding a single operator
const singletonKey = "login"

// Decode converts every entry of doc once. Entries without a recognizable
// identity or month structure are left out and behave as not found.
func Decode(doc Document) *Index {
	ix := &Index{entries: make(map[string]*Entry, len(doc))}

	for key, raw := range doc {
		if entry, ok := decodeEntry(key, raw); ok {
			ix.entries[key] = entry
			ix.keys = append(ix.keys, key)
		}
	}
	sort.Strings(ix.keys)

	if _, ok := doc[singletonKey]; ok {
		if whole, err := json.Marshal(doc); err == nil {
			if entry, ok := decodeEntry("", whole); ok && entry.Shape == ShapeEmbeddedLogin {
				ix.singleton = entry
			}
		}
	}

	return ix
}

// Resolve locates the record for email. Tiers are tried in order: an entry
// keyed by the normalized email, a document that is itself a single
// operator's record, then every entry in key order.
func (ix *Index) Resolve(email string) (*types.OperatorRecord, Strategy) {
	entry, strategy := ix.Lookup(email)
	if entry == nil {
		return nil, strategy
	}
	return entry.Record, strategy
}

// Lookup is Resolve returning the matched entry. The singleton entry has an
// empty key.
func (ix *Index) Lookup(email string) (*Entry, Strategy) {
	key := types.NormalizeEmail(email)
	if key == "" || ix == nil {
		return nil, StrategyNone
	}

	if entry, ok := ix.entries[key]; ok {
		return entry, StrategyDirect
	}

	if ix.singleton != nil && ix.singleton.Record.Email == key {
		return ix.singleton, StrategySingleton
	}

	for _, k := range ix.keys {
		if entry := ix.entries[k]; entry.Record.Email == key {
			return entry, StrategyScan
		}
	}

	return nil, StrategyNone
}

// Records returns one record per distinct operator, resolved with the same
// precedence as Resolve, ordered by email
func (ix *Index) Records() []*types.OperatorRecord {
	seen := make(map[string]bool)
	var out []*types.OperatorRecord

	add := func(email string) {
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		if rec, _ := ix.Resolve(email); rec != nil {
			out = append(out, rec)
		}
	}
	for _, k := range ix.keys {
		add(ix.entries[k].Record.Email)
	}
	if ix.singleton != nil {
		add(ix.singleton.Record.Email)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// Resolve decodes doc and looks up email in one step
func Resolve(doc Document, email string) *types.OperatorRecord {
	rec, _ := Decode(doc).Resolve(email)
	return rec
}

type identity struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
}

// storedEntry is the union of every field the three layouts use
type storedEntry struct {
	identity
	Login           json.RawMessage                  `json:"login"`
	LastUpdatedAt   *time.Time                       `json:"lastUpdatedAt"`
	Months          map[string]*types.MonthlyMetrics `json:"months"`
	CurrentSnapshot *types.MonthlyMetrics            `json:"currentSnapshot"`

	Calls      *types.CallMetrics       `json:"calls"`
	Tickets    *types.TicketMetrics     `json:"tickets"`
	Quality    *types.QualityMetrics    `json:"quality"`
	Attendance *types.AttendanceMetrics `json:"attendance"`
}

func decodeEntry(key string, raw json.RawMessage) (*Entry, bool) {
	var stored storedEntry
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, false
	}

	shape := ShapeDirect
	id := stored.identity
	if len(stored.Login) > 0 && string(stored.Login) != "null" {
		var inner storedEntry
		if err := json.Unmarshal(stored.Login, &inner); err != nil {
			return nil, false
		}
		shape = ShapeEmbeddedLogin
		id = inner.identity
		// older writers nested the whole record inside the login object
		if !stored.carriesData() && inner.carriesData() {
			stored.adoptData(&inner)
		}
	}

	rec := &types.OperatorRecord{
		Email:           types.NormalizeEmail(id.Email),
		DisplayName:     id.DisplayName,
		Months:          make(map[types.Month]*types.MonthlyMetrics, len(stored.Months)),
		CurrentSnapshot: stored.CurrentSnapshot,
	}
	if rec.DisplayName == "" {
		rec.DisplayName = id.Name
	}
	if stored.LastUpdatedAt != nil {
		rec.LastUpdatedAt = *stored.LastUpdatedAt
	}

	// an exactly spelled month wins over case variants of it; among variants
	// the first in key order wins
	names := make([]string, 0, len(stored.Months))
	for name := range stored.Months {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		metrics := stored.Months[name]
		month, err := types.ParseMonth(name)
		if err != nil || metrics == nil {
			continue
		}
		if _, taken := rec.Months[month]; taken && name != string(month) {
			continue
		}
		rec.Months[month] = metrics
	}

	if stored.Months == nil && rec.CurrentSnapshot == nil {
		if flat, ok := stored.flatSnapshot(); ok {
			rec.CurrentSnapshot = flat
			if shape == ShapeDirect {
				shape = ShapeLegacyFlat
			}
		}
	}

	if !stored.carriesData() {
		return nil, false
	}
	if rec.Email == "" {
		// an entry keyed by its email may omit the field
		if !strings.Contains(key, "@") || key != types.NormalizeEmail(key) {
			return nil, false
		}
		rec.Email = key
	}

	return &Entry{Key: key, Shape: shape, Record: rec}, true
}

// carriesData reports whether the entry has any month structure at all
func (s *storedEntry) carriesData() bool {
	return s.Months != nil || s.CurrentSnapshot != nil ||
		s.Calls != nil || s.Tickets != nil || s.Quality != nil || s.Attendance != nil
}

func (s *storedEntry) adoptData(from *storedEntry) {
	s.Months = from.Months
	s.CurrentSnapshot = from.CurrentSnapshot
	s.Calls, s.Tickets, s.Quality, s.Attendance = from.Calls, from.Tickets, from.Quality, from.Attendance
	if s.LastUpdatedAt == nil {
		s.LastUpdatedAt = from.LastUpdatedAt
	}
}

func (s *storedEntry) flatSnapshot() (*types.MonthlyMetrics, bool) {
	if s.Calls == nil && s.Tickets == nil && s.Quality == nil && s.Attendance == nil {
		return nil, false
	}
	m := &types.MonthlyMetrics{}
	if s.Calls != nil {
		m.Calls = *s.Calls
	}
	if s.Tickets != nil {
		m.Tickets = *s.Tickets
	}
	if s.Quality != nil {
		m.Quality = *s.Quality
	}
	if s.Attendance != nil {
		m.Attendance = *s.Attendance
	}
	return m, true
}
