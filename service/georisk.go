package service

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// GeoRiskEntry describes the risk profile of one jurisdiction.
type GeoRiskEntry struct {
	Risk    string `json:"risk"`
	Comment string `json:"comment"`
}

// GeoRiskTable maps jurisdiction names (countries and states) to risk
// profiles. It is built once at startup and read-only afterwards; the rule
// engine takes it by reference so tests can inject fixtures.
type GeoRiskTable struct {
	locations map[string]GeoRiskEntry
	canonical map[string]string
	pattern   *regexp.Regexp
}

type geoRiskFile struct {
	Countries map[string]GeoRiskEntry `json:"countries"`
	States    map[string]GeoRiskEntry `json:"states"`
}

// NewGeoRiskTable builds a lookup table from jurisdiction name to risk entry.
// Lookups are case-insensitive and word-bounded.
func NewGeoRiskTable(locations map[string]GeoRiskEntry) *GeoRiskTable {
	t := &GeoRiskTable{
		locations: make(map[string]GeoRiskEntry, len(locations)),
		canonical: make(map[string]string, len(locations)),
	}
	if len(locations) == 0 {
		return t
	}

	names := make([]string, 0, len(locations))
	for name, entry := range locations {
		t.locations[strings.ToLower(name)] = entry
		t.canonical[strings.ToLower(name)] = name
		names = append(names, name)
	}
	// Longer names first so "North Korea" wins over a hypothetical "Korea".
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	t.pattern = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	return t
}

// LoadGeoRiskTable reads a jurisdiction risk table from a JSON file with
// "countries" and "states" sections. An empty path returns the built-in
// default table.
func LoadGeoRiskTable(path string) (*GeoRiskTable, error) {
	if path == "" {
		return NewGeoRiskTable(defaultGeoRisk), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geo risk table: %w", err)
	}
	var file geoRiskFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse geo risk table: %w", err)
	}

	merged := make(map[string]GeoRiskEntry, len(file.Countries)+len(file.States))
	for name, entry := range file.Countries {
		merged[name] = entry
	}
	for name, entry := range file.States {
		merged[name] = entry
	}
	return NewGeoRiskTable(merged), nil
}

// Lookup finds the first known jurisdiction mentioned in text. The returned
// name is the table's canonical spelling regardless of how the text cased it.
func (t *GeoRiskTable) Lookup(text string) (name string, entry GeoRiskEntry, ok bool) {
	if t.pattern == nil {
		return "", GeoRiskEntry{}, false
	}
	match := t.pattern.FindString(text)
	if match == "" {
		return "", GeoRiskEntry{}, false
	}
	key := strings.ToLower(match)
	entry, ok = t.locations[key]
	return t.canonical[key], entry, ok
}

// Len returns the number of known jurisdictions.
func (t *GeoRiskTable) Len() int {
	return len(t.locations)
}

var defaultGeoRisk = map[string]GeoRiskEntry{
	"Russia":      {Risk: "High", Comment: "Subject to broad sanctions regimes; enforcement of judgments is unreliable."},
	"Belarus":     {Risk: "High", Comment: "Sanctioned jurisdiction with restricted financial channels."},
	"Iran":        {Risk: "High", Comment: "Comprehensive sanctions apply to most commercial activity."},
	"North Korea": {Risk: "High", Comment: "Comprehensive embargo; contracting is effectively prohibited."},
	"Syria":       {Risk: "High", Comment: "Comprehensive sanctions apply to most commercial activity."},
	"Cuba":        {Risk: "High", Comment: "Embargoed jurisdiction for most counterparties."},
	"Venezuela":   {Risk: "Medium", Comment: "Sectoral sanctions and currency controls complicate payment terms."},
	"China":       {Risk: "Medium", Comment: "Export-control and data-transfer rules may apply; review IP clauses."},
	"California":  {Risk: "Medium", Comment: "Litigious jurisdiction with strong consumer and privacy statutes."},
	"New York":    {Risk: "Low", Comment: "Well-developed commercial law; common neutral choice."},
	"Delaware":    {Risk: "Low", Comment: "Predictable corporate law and specialized courts."},
	"Texas":       {Risk: "Low", Comment: "Generally enforceable commercial terms."},
	"England":     {Risk: "Low", Comment: "Common neutral choice for cross-border agreements."},
	"Singapore":   {Risk: "Low", Comment: "Strong arbitration framework and neutral courts."},
}
