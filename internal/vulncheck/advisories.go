package vulncheck

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed advisories.yaml
var embeddedAdvisories []byte

// Ecosystem identifies a package registry and its manifest format.
type Ecosystem string

const (
	// EcosystemNPM covers package.json dependency maps.
	EcosystemNPM Ecosystem = "npm"
	// EcosystemPyPI covers requirements.txt lists.
	EcosystemPyPI Ecosystem = "pypi"
)

// ecosystemOrder fixes the rendering order of ecosystem blocks.
var ecosystemOrder = []Ecosystem{EcosystemNPM, EcosystemPyPI}

// Severity ranks an advisory. Only critical and high are tracked.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
)

// severityOrder fixes the rendering order of severity groups.
var severityOrder = []Severity{SeverityCritical, SeverityHigh}

// Advisory is one known-vulnerable version range of a package.
type Advisory struct {
	Package    string   `yaml:"package"`
	Vulnerable string   `yaml:"vulnerable"`
	ID         string   `yaml:"id"`
	Severity   Severity `yaml:"severity"`
	Fixed      string   `yaml:"fixed"`

	predicate Constraint
}

// Affects reports whether a declared version spec falls in the advisory's
// vulnerable range. Unparsable specs are never affected.
func (a Advisory) Affects(declared string) bool {
	v, ok := LowestVersion(declared)
	if !ok {
		return false
	}
	return a.predicate.Check(v)
}

// Table is the advisory set, keyed by ecosystem.
type Table map[Ecosystem][]Advisory

// Lookup returns the advisories for a package, matching names the way the
// ecosystem does.
func (t Table) Lookup(eco Ecosystem, name string) []Advisory {
	var out []Advisory
	key := normalizeName(eco, name)
	for _, a := range t[eco] {
		if normalizeName(eco, a.Package) == key {
			out = append(out, a)
		}
	}
	return out
}

// ParseTable decodes and validates an advisory table.
func ParseTable(data []byte) (Table, error) {
	var raw map[Ecosystem][]Advisory
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("vulncheck: decoding advisories: %w", err)
	}

	table := make(Table, len(raw))
	for eco, advisories := range raw {
		if eco != EcosystemNPM && eco != EcosystemPyPI {
			return nil, fmt.Errorf("vulncheck: unknown ecosystem %q", eco)
		}
		for i := range advisories {
			a := &advisories[i]
			if a.Package == "" || a.ID == "" {
				return nil, fmt.Errorf("vulncheck: %s advisory %d: package and id are required", eco, i)
			}
			if a.Severity != SeverityCritical && a.Severity != SeverityHigh {
				return nil, fmt.Errorf("vulncheck: %s: severity %q must be critical or high", a.ID, a.Severity)
			}
			c, err := ParseConstraint(a.Vulnerable)
			if err != nil {
				return nil, fmt.Errorf("vulncheck: %s: %w", a.ID, err)
			}
			a.predicate = c
		}
		table[eco] = advisories
	}
	return table, nil
}

var defaultTable = sync.OnceValues(func() (Table, error) {
	return ParseTable(embeddedAdvisories)
})

// DefaultTable returns the embedded advisory table.
func DefaultTable() (Table, error) {
	return defaultTable()
}

// normalizeName applies PEP 503 normalization for PyPI; npm names are
// compared as written.
func normalizeName(eco Ecosystem, name string) string {
	if eco != EcosystemPyPI {
		return name
	}
	var b strings.Builder
	lastSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r == '-' || r == '_' || r == '.' {
			if !lastSep {
				b.WriteByte('-')
			}
			lastSep = true
			continue
		}
		lastSep = false
		b.WriteRune(r)
	}
	return b.String()
}
