package vulncheck

import (
	"fmt"
	"sort"
	"strings"
)

// Finding is one declared dependency matched by one advisory.
type Finding struct {
	Ecosystem Ecosystem `json:"ecosystem"`
	Manifest  string    `json:"manifest"`
	Package   string    `json:"package"`
	Declared  string    `json:"declared"`
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Fixed     string    `json:"fixed"`
}

// Scan matches every dependency of every manifest against table.
func Scan(table Table, manifests []Manifest) []Finding {
	var findings []Finding
	for _, m := range manifests {
		for _, dep := range m.Dependencies {
			for _, a := range table.Lookup(m.Ecosystem, dep.Name) {
				if !a.Affects(dep.Spec) {
					continue
				}
				findings = append(findings, Finding{
					Ecosystem: m.Ecosystem,
					Manifest:  m.File,
					Package:   dep.Name,
					Declared:  dep.Spec,
					ID:        a.ID,
					Severity:  a.Severity,
					Fixed:     a.Fixed,
				})
			}
		}
	}
	return findings
}

// auditHint is the remediation command suggested per ecosystem.
var auditHint = map[Ecosystem]string{
	EcosystemNPM:  "npm audit fix",
	EcosystemPyPI: "pip-audit -r requirements.txt",
}

// Render formats findings as the warning text shown to the user. The
// output is deterministic: ecosystems in a fixed order, severities
// critical before high, entries sorted by package then advisory id.
// No findings renders as "".
func Render(findings []Finding) string {
	if len(findings) == 0 {
		return ""
	}

	byEco := make(map[Ecosystem][]Finding)
	for _, f := range findings {
		byEco[f.Ecosystem] = append(byEco[f.Ecosystem], f)
	}

	blocks := []string{"Known vulnerable dependencies:"}
	for _, eco := range ecosystemOrder {
		group := byEco[eco]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Package != group[j].Package {
				return group[i].Package < group[j].Package
			}
			return group[i].ID < group[j].ID
		})

		var b strings.Builder
		fmt.Fprintf(&b, "%s (%s):", eco, group[0].Manifest)
		for _, sev := range severityOrder {
			header := false
			for _, f := range group {
				if f.Severity != sev {
					continue
				}
				if !header {
					fmt.Fprintf(&b, "\n  %s:", strings.ToUpper(string(sev)))
					header = true
				}
				fmt.Fprintf(&b, "\n  - %s (%s): %s, fixed in %s", f.Package, f.Declared, f.ID, f.Fixed)
			}
		}
		fmt.Fprintf(&b, "\n  Run: %s", auditHint[eco])
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
