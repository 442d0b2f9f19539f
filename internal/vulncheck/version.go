package vulncheck

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is a parsed release version. Missing minor/patch components
// compare as zero.
type Version struct {
	canon string // "v"-prefixed, as accepted by x/mod/semver
	parts []int  // numeric components as written, 1 to 3 of them
}

// ParseVersion accepts "1", "1.2", "1.2.3", an optional leading "v" or "=",
// and semver pre-release/build suffixes.
func ParseVersion(s string) (Version, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "=")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	if s == "" {
		return Version{}, false
	}
	canon := "v" + s
	if !semver.IsValid(canon) {
		return Version{}, false
	}

	core := s
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	fields := strings.Split(core, ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Version{}, false
		}
		parts[i] = n
	}
	return Version{canon: canon, parts: parts}, true
}

// Compare returns -1, 0 or +1.
func (v Version) Compare(o Version) int {
	return semver.Compare(v.canon, o.canon)
}

func (v Version) String() string {
	return strings.TrimPrefix(v.canon, "v")
}

func (v Version) part(i int) int {
	if i < len(v.parts) {
		return v.parts[i]
	}
	return 0
}

func versionOf(parts ...int) Version {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = strconv.Itoa(p)
	}
	s := strings.Join(strs, ".")
	return Version{canon: "v" + s, parts: parts}
}

// comparator is one "op version" term of a range.
type comparator struct {
	op string
	v  Version
}

func (c comparator) check(v Version) bool {
	cmp := v.Compare(c.v)
	switch c.op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "!=":
		return cmp != 0
	default:
		return cmp == 0
	}
}

// Constraint is a disjunction of conjunctions of comparators.
type Constraint struct {
	sets [][]comparator
	raw  string
}

// Check reports whether v satisfies the constraint.
func (c Constraint) Check(v Version) bool {
	for _, set := range c.sets {
		ok := true
		for _, cmp := range set {
			if !cmp.check(v) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (c Constraint) String() string { return c.raw }

// operators is ordered so two-character operators match first.
var operators = []string{">=", "<=", "==", "~=", "!=", ">", "<", "=", "^", "~"}

// ParseConstraint parses ranges such as "1.2.3", "^1.2.0", "~1.4",
// ">=2.0.0 <2.3.1", ">=1.0,<2" and "<1.0.2 || >=2.0.0 <2.2.2".
func ParseConstraint(s string) (Constraint, error) {
	c := Constraint{raw: strings.TrimSpace(s)}
	if c.raw == "" {
		return c, fmt.Errorf("empty constraint")
	}
	for _, alt := range strings.Split(c.raw, "||") {
		terms, err := splitTerms(alt)
		if err != nil {
			return Constraint{}, err
		}
		if len(terms) == 0 {
			return Constraint{}, fmt.Errorf("empty alternative in %q", s)
		}
		var set []comparator
		for _, term := range terms {
			cmps, err := expandTerm(term)
			if err != nil {
				return Constraint{}, err
			}
			set = append(set, cmps...)
		}
		c.sets = append(c.sets, set)
	}
	return c, nil
}

// splitTerms splits one alternative into "op version" terms, joining an
// operator written apart from its version (">= 1.2").
func splitTerms(alt string) ([]string, error) {
	fields := strings.Fields(strings.ReplaceAll(alt, ",", " "))
	var terms []string
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if isOperator(f) {
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("operator %q without version", f)
			}
			f += fields[i+1]
			i++
		}
		terms = append(terms, f)
	}
	return terms, nil
}

func isOperator(s string) bool {
	for _, op := range operators {
		if s == op {
			return true
		}
	}
	return false
}

func splitOp(term string) (string, string) {
	for _, op := range operators {
		if strings.HasPrefix(term, op) {
			return op, strings.TrimSpace(term[len(op):])
		}
	}
	return "", term
}

// expandTerm turns one term into plain comparators, rewriting caret,
// tilde and compatible-release forms into bounded ranges.
func expandTerm(term string) ([]comparator, error) {
	op, rest := splitOp(term)
	v, ok := ParseVersion(rest)
	if !ok {
		return nil, fmt.Errorf("invalid version %q", rest)
	}

	switch op {
	case "", "=", "==":
		return []comparator{{op: "==", v: v}}, nil
	case "^":
		return []comparator{{op: ">=", v: v}, {op: "<", v: caretUpper(v)}}, nil
	case "~":
		return []comparator{{op: ">=", v: v}, {op: "<", v: tildeUpper(v)}}, nil
	case "~=":
		if len(v.parts) < 2 {
			return nil, fmt.Errorf("compatible release %q needs at least two components", term)
		}
		return []comparator{{op: ">=", v: v}, {op: "<", v: compatibleUpper(v)}}, nil
	default:
		return []comparator{{op: op, v: v}}, nil
	}
}

// caretUpper: ^1.2.3 → 2.0.0, ^0.2.3 → 0.3.0, ^0.0.3 → 0.0.4.
func caretUpper(v Version) Version {
	switch {
	case v.part(0) > 0 || len(v.parts) == 1:
		return versionOf(v.part(0)+1, 0, 0)
	case v.part(1) > 0 || len(v.parts) == 2:
		return versionOf(0, v.part(1)+1, 0)
	default:
		return versionOf(0, 0, v.part(2)+1)
	}
}

// tildeUpper: ~1.2.3 → 1.3.0, ~1.2 → 1.3.0, ~1 → 2.0.0.
func tildeUpper(v Version) Version {
	if len(v.parts) == 1 {
		return versionOf(v.part(0)+1, 0, 0)
	}
	return versionOf(v.part(0), v.part(1)+1, 0)
}

// compatibleUpper: ~=1.4.5 → 1.5, ~=2.2 → 3.
func compatibleUpper(v Version) Version {
	head := append([]int(nil), v.parts[:len(v.parts)-1]...)
	head[len(head)-1]++
	return versionOf(head...)
}

// LowestVersion reduces a declared dependency spec to the lowest version it
// admits: "^4.17.20", "~1.2", "==2.25.0", ">=1.0,<2" and "4.17.20" all name
// their lower bound. Specs without a usable lower bound ("*", "latest",
// "<2.0", URLs, tags) report false.
func LowestVersion(spec string) (Version, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Version{}, false
	}
	alt := strings.TrimSpace(strings.Split(spec, "||")[0])
	terms, err := splitTerms(alt)
	if err != nil || len(terms) == 0 {
		return Version{}, false
	}

	op, rest := splitOp(terms[0])
	switch op {
	case "", "=", "==", "^", "~", "~=", ">=":
	default:
		return Version{}, false
	}
	return ParseVersion(rest)
}
