// Package patterns keeps learned patterns in sync between a project and
// the user's global store.
//
// A pattern is a JSON object keyed by its literal "text" field. Every other
// field belongs to whoever wrote the record and is carried through merges
// byte for byte. Stores only ever grow by appending records whose text is
// not yet present; nothing is edited in place, deleted or pruned.
package patterns

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

const (
	// ClaudeDir is the per-project and per-user configuration directory.
	ClaudeDir = ".claude"
	// FeedbackDir holds per-project learning state under ClaudeDir.
	FeedbackDir = "feedback"
	// ProjectFile is the project-scoped pattern store.
	ProjectFile = "learned-patterns.json"
	// GlobalFile is the user-scoped pattern store, directly under ~/.claude.
	GlobalFile = "global-patterns.json"
	// SyncConfigFile holds the sync gate.
	SyncConfigFile = "sync-config.json"
)

// defaultVersion is written into stores created by a merge.
var defaultVersion = json.RawMessage(`"1.0"`)

// FeedbackPath returns <project>/.claude/feedback.
func FeedbackPath(projectDir string) string {
	return filepath.Join(projectDir, ClaudeDir, FeedbackDir)
}

// ProjectPath returns the absolute path of the project pattern store.
func ProjectPath(projectDir string) string {
	return filepath.Join(FeedbackPath(projectDir), ProjectFile)
}

// GlobalPath returns the absolute path of the global pattern store.
func GlobalPath(homeDir string) string {
	return filepath.Join(homeDir, ClaudeDir, GlobalFile)
}

// SyncConfigPath returns the absolute path of the sync gate file.
func SyncConfigPath(projectDir string) string {
	return filepath.Join(FeedbackPath(projectDir), SyncConfigFile)
}

// Record is one learned pattern. Text is its natural key; the raw JSON
// object it was decoded from is kept so extra fields survive unchanged.
type Record struct {
	Text string
	raw  json.RawMessage
	kind keyKind
}

// keyKind separates keys taken from different kinds of JSON value, so a
// string text never collides with a numeric text or a bare entry.
type keyKind uint8

const (
	keyText keyKind = iota
	// keyLiteral is a non-string "text" token, e.g. {"text": 42}.
	keyLiteral
	// keyOpaque is a patterns entry that is not an object at all.
	keyOpaque
)

// recordKey is the merge identity of a Record.
type recordKey struct {
	text string
	kind keyKind
}

func (r Record) key() recordKey {
	return recordKey{text: r.Text, kind: r.kind}
}

// opaqueRecord wraps a patterns entry that is not a JSON object. It is
// keyed by its compacted token and written back as it was read.
func opaqueRecord(raw json.RawMessage) Record {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		compact.Reset()
		compact.Write(bytes.TrimSpace(raw))
	}
	return Record{Text: compact.String(), raw: compact.Bytes(), kind: keyOpaque}
}

// Opaque reports whether the entry was not a JSON object.
func (r Record) Opaque() bool { return r.kind == keyOpaque }

// NewRecord builds a record with the given text and extra fields.
// An extra "text" entry is ignored.
func NewRecord(text string, extra map[string]any) (Record, error) {
	obj := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		obj[k] = v
	}
	obj["text"] = text
	raw, err := json.Marshal(obj)
	if err != nil {
		return Record{}, fmt.Errorf("patterns: encoding record: %w", err)
	}
	return Record{Text: text, raw: raw}, nil
}

// UnmarshalJSON accepts any JSON object. A string "text" field becomes the
// key; a missing or null one is the empty key. A non-string text keys the
// record by its raw JSON token so it can never collide with a real string.
func (r *Record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("patterns: record is not an object: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("patterns: record is null")
	}

	r.Text = ""
	r.kind = keyText
	if rawText, ok := fields["text"]; ok {
		var s *string
		if err := json.Unmarshal(rawText, &s); err == nil {
			if s != nil {
				r.Text = *s
			}
		} else {
			r.Text = string(bytes.TrimSpace(rawText))
			r.kind = keyLiteral
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return fmt.Errorf("patterns: compacting record: %w", err)
	}
	r.raw = compact.Bytes()
	return nil
}

// MarshalJSON returns the original object, or {"text": ...} for records
// built in code without extra fields.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(map[string]string{"text": r.Text})
}

// Field decodes one extra field into v. It reports false when the field is
// absent or does not decode.
func (r Record) Field(name string, v any) bool {
	if len(r.raw) == 0 {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.raw, &fields); err != nil {
		return false
	}
	raw, ok := fields[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// File is the on-disk shape of both pattern stores. Updated is only
// stamped on the global store. Members other than version, patterns and
// updated are kept in Extra and written back unchanged.
type File struct {
	Version  json.RawMessage
	Patterns []Record
	Updated  json.RawMessage
	Extra    map[string]json.RawMessage
}

const (
	memberVersion  = "version"
	memberPatterns = "patterns"
	memberUpdated  = "updated"
)

// UnmarshalJSON accepts any JSON object. Members of an unexpected type are
// kept as raw values rather than failing the document, so a rewrite never
// drops records it could not interpret.
func (f *File) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return fmt.Errorf("patterns: store is not an object: %w", err)
	}

	*f = File{}
	for name, raw := range members {
		switch name {
		case memberVersion:
			f.Version = raw
		case memberUpdated:
			f.Updated = raw
		case memberPatterns:
			f.Patterns = decodePatterns(raw)
		default:
			if f.Extra == nil {
				f.Extra = make(map[string]json.RawMessage)
			}
			f.Extra[name] = raw
		}
	}
	return nil
}

// decodePatterns reads the patterns member. Object entries become Records;
// anything else becomes an opaque entry. A patterns value that is not an
// array is kept as a single opaque entry.
func decodePatterns(raw json.RawMessage) []Record {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return []Record{opaqueRecord(trimmed)}
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		var r Record
		if len(item) == 0 || item[0] != '{' || json.Unmarshal(item, &r) != nil {
			r = opaqueRecord(item)
		}
		out = append(out, r)
	}
	return out
}

// MarshalJSON writes version, patterns and updated first, then the extra
// members in name order.
func (f File) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	first := true
	member := func(name string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("patterns: encoding %s: %w", name, err)
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(name)
		b.Write(key)
		b.WriteByte(':')
		b.Write(data)
		return nil
	}

	if len(f.Version) > 0 {
		if err := member(memberVersion, f.Version); err != nil {
			return nil, err
		}
	}
	patterns := f.Patterns
	if patterns == nil {
		patterns = []Record{}
	}
	if err := member(memberPatterns, patterns); err != nil {
		return nil, err
	}
	if len(f.Updated) > 0 {
		if err := member(memberUpdated, f.Updated); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(f.Extra))
	for name := range f.Extra {
		switch name {
		case memberVersion, memberPatterns, memberUpdated:
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := member(name, f.Extra[name]); err != nil {
			return nil, err
		}
	}

	b.WriteByte('}')
	return b.Bytes(), nil
}

// UpdatedAt returns the updated stamp: the string value when it is a JSON
// string, otherwise the raw token. Empty when absent.
func (f File) UpdatedAt() string {
	var s string
	if err := json.Unmarshal(f.Updated, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(f.Updated))
}

// stampUpdated sets the updated member to t in RFC 3339 UTC.
func (f *File) stampUpdated(t time.Time) {
	f.Updated, _ = json.Marshal(t.UTC().Format(time.RFC3339))
}

// Texts returns the keys of the file's records in order.
func (f File) Texts() []string {
	out := make([]string, len(f.Patterns))
	for i, p := range f.Patterns {
		out[i] = p.Text
	}
	return out
}

// SyncConfig is the per-project sync gate.
type SyncConfig struct {
	SyncEnabled *bool `json:"sync_enabled,omitempty"`
}

// Enabled treats an absent flag as enabled.
func (c SyncConfig) Enabled() bool {
	return c.SyncEnabled == nil || *c.SyncEnabled
}
