package vulncheck

import (
	"path/filepath"
	"testing"

	"github.com/HendryAvila/hoofy-hooks/internal/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = "/work/app"

func newMemStore(t *testing.T, files map[string]string) *jsonstore.Store {
	t.Helper()
	backend := jsonstore.NewMemBackend()
	for path, content := range files {
		require.NoError(t, backend.Set(path, []byte(content)))
	}
	return jsonstore.New(backend, nil)
}

func TestParseRequirements(t *testing.T) {
	input := `# core deps
requests==2.25.0
PyYAML >= 5.1, <6  # pinned low
uvicorn[standard]~=0.20.0
flask
-r dev-requirements.txt
--index-url https://example.com/simple
-e git+https://example.com/pkg.git#egg=pkg
pywin32==306 ; sys_platform == "win32"
mypkg @ https://example.com/mypkg-1.0.tar.gz

   numpy>=1.24
`
	got := ParseRequirements([]byte(input))
	want := []Dependency{
		{Name: "requests", Spec: "==2.25.0"},
		{Name: "PyYAML", Spec: ">= 5.1, <6"},
		{Name: "uvicorn", Spec: "~=0.20.0"},
		{Name: "flask", Spec: ""},
		{Name: "pywin32", Spec: "==306"},
		{Name: "mypkg", Spec: ""},
		{Name: "numpy", Spec: ">=1.24"},
	}
	assert.Equal(t, want, got)
}

func TestDetectManifests_Both(t *testing.T) {
	store := newMemStore(t, map[string]string{
		filepath.Join(testProject, PackageJSON): `{
  "name": "app",
  "dependencies": {"lodash": "^4.17.20", "express": "^4.18.2"},
  "devDependencies": {"jest": "^29.0.0", "lodash": "4.0.0"}
}`,
		filepath.Join(testProject, RequirementsTxt): "requests==2.25.0\n",
	})

	got := DetectManifests(store, testProject)
	require.Len(t, got, 2)

	assert.Equal(t, EcosystemNPM, got[0].Ecosystem)
	assert.Equal(t, PackageJSON, got[0].File)
	assert.Equal(t, []Dependency{
		{Name: "express", Spec: "^4.18.2"},
		{Name: "lodash", Spec: "^4.17.20"},
		{Name: "jest", Spec: "^29.0.0"},
	}, got[0].Dependencies)

	assert.Equal(t, EcosystemPyPI, got[1].Ecosystem)
	assert.Equal(t, []Dependency{{Name: "requests", Spec: "==2.25.0"}}, got[1].Dependencies)
}

func TestDetectManifests_MalformedIsAbsent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{"dependencies": `},
		{"dependencies not a map", `{"dependencies": ["lodash"]}`},
		{"version not a string", `{"dependencies": {"lodash": 4}}`},
		{"top level array", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(t, map[string]string{
				filepath.Join(testProject, PackageJSON): tt.content,
			})
			assert.Empty(t, DetectManifests(store, testProject))
		})
	}
}

func TestDetectManifests_None(t *testing.T) {
	assert.Empty(t, DetectManifests(newMemStore(t, nil), testProject))
}

func TestDetectManifests_OversizedRequirementsIsAbsent(t *testing.T) {
	big := make([]byte, maxManifestBytes+1)
	for i := range big {
		big[i] = '#'
	}
	store := newMemStore(t, map[string]string{
		filepath.Join(testProject, RequirementsTxt): string(big),
	})
	assert.Empty(t, DetectManifests(store, testProject))
}
