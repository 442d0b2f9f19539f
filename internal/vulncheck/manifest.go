package vulncheck

import (
	"bufio"
	"bytes"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HendryAvila/hoofy-hooks/internal/jsonstore"
)

const (
	// PackageJSON is the Node-style manifest.
	PackageJSON = "package.json"
	// RequirementsTxt is the Python-style manifest.
	RequirementsTxt = "requirements.txt"

	// maxManifestBytes bounds how much of a manifest is read.
	maxManifestBytes int64 = 1 << 20
)

// Dependency is one declared dependency and its version spec as written.
type Dependency struct {
	Name string
	Spec string
}

// Manifest is a detected, parsed manifest file.
type Manifest struct {
	Ecosystem    Ecosystem
	File         string
	Dependencies []Dependency
}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// DetectManifests returns every supported manifest in projectDir that
// parses. Malformed or unreadable manifests are treated as absent.
func DetectManifests(store *jsonstore.Store, projectDir string) []Manifest {
	var out []Manifest
	if m, ok := readPackageJSON(store, filepath.Join(projectDir, PackageJSON)); ok {
		out = append(out, m)
	}
	if m, ok := readRequirements(store, filepath.Join(projectDir, RequirementsTxt)); ok {
		out = append(out, m)
	}
	return out
}

func readPackageJSON(store *jsonstore.Store, path string) (Manifest, bool) {
	var pkg packageJSON
	if !store.Read(path, &pkg) {
		return Manifest{}, false
	}

	seen := make(map[string]bool, len(pkg.Dependencies)+len(pkg.DevDependencies))
	var deps []Dependency
	// Runtime entries win over dev entries of the same name.
	for _, section := range []map[string]string{pkg.Dependencies, pkg.DevDependencies} {
		names := make([]string, 0, len(section))
		for name := range section {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if seen[name] {
				continue
			}
			seen[name] = true
			deps = append(deps, Dependency{Name: name, Spec: section[name]})
		}
	}
	return Manifest{Ecosystem: EcosystemNPM, File: PackageJSON, Dependencies: deps}, true
}

func readRequirements(store *jsonstore.Store, path string) (Manifest, bool) {
	if !store.SizeGuard(path, maxManifestBytes) {
		return Manifest{}, false
	}
	data, err := store.Backend().Get(path)
	if err != nil {
		return Manifest{}, false
	}
	return Manifest{
		Ecosystem:    EcosystemPyPI,
		File:         RequirementsTxt,
		Dependencies: ParseRequirements(data),
	}, true
}

// ParseRequirements reads a pip requirements list. Comments, blank lines,
// pip options (-r, -e, --index-url) and environment markers are dropped;
// a requirement without a version pin has an empty Spec.
func ParseRequirements(data []byte) []Dependency {
	var deps []Dependency
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), int(maxManifestBytes))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		if i := strings.Index(line, ";"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}

		end := 0
		for end < len(line) && isNameByte(line[end]) {
			end++
		}
		if end == 0 {
			continue
		}
		name := line[:end]
		rest := strings.TrimSpace(line[end:])
		if strings.HasPrefix(rest, "[") {
			if j := strings.Index(rest, "]"); j >= 0 {
				rest = strings.TrimSpace(rest[j+1:])
			}
		}
		if strings.HasPrefix(rest, "@") {
			// Direct URL reference: no comparable version.
			rest = ""
		}
		deps = append(deps, Dependency{Name: name, Spec: rest})
	}
	return deps
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == '.'
}
