package vulncheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustVersion(t *testing.T, s string) Version {
	t.Helper()
	v, ok := ParseVersion(s)
	require.True(t, ok, "ParseVersion(%q) failed", s)
	return v
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.2.3", "1.2.3", true},
		{"v1.2.3", "1.2.3", true},
		{"=1.2.3", "1.2.3", true},
		{"1.2", "1.2", true},
		{"7", "7", true},
		{"1.2.3-beta.1", "1.2.3-beta.1", true},
		{"", "", false},
		{"latest", "", false},
		{"*", "", false},
		{"1.x", "", false},
		{"git+https://example.com/x.git", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, ok := ParseVersion(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, v.String())
			}
		})
	}
}

func TestVersion_CompareShortForms(t *testing.T) {
	assert.Equal(t, 0, mustVersion(t, "5.4").Compare(mustVersion(t, "5.4.0")))
	assert.Equal(t, -1, mustVersion(t, "5.3.1").Compare(mustVersion(t, "5.4")))
	assert.Equal(t, 1, mustVersion(t, "10.0.1").Compare(mustVersion(t, "9.9.9")))
}

func TestConstraint_Check(t *testing.T) {
	tests := []struct {
		constraint string
		version    string
		want       bool
	}{
		{"1.2.3", "1.2.3", true},
		{"=1.2.3", "1.2.4", false},
		{"<4.17.21", "4.17.20", true},
		{"<4.17.21", "4.17.21", false},
		{"<=1.0.0", "1.0.0", true},
		{">2.0.0", "2.0.0", false},
		{">=2.0.0 <2.3.1", "2.3.0", true},
		{">=2.0.0 <2.3.1", "2.3.1", false},
		{">= 2.0.0, < 3", "2.9.9", true},
		{"^1.2.3", "1.9.0", true},
		{"^1.2.3", "2.0.0", false},
		{"^0.2.3", "0.2.9", true},
		{"^0.2.3", "0.3.0", false},
		{"^0.0.3", "0.0.4", false},
		{"~1.2.3", "1.2.9", true},
		{"~1.2.3", "1.3.0", false},
		{"~1", "1.9.9", true},
		{"~=1.4.5", "1.4.9", true},
		{"~=1.4.5", "1.5.0", false},
		{"~=2.2", "2.9", true},
		{"~=2.2", "3.0", false},
		{"!=1.0.0", "1.0.1", true},
		{"<5.7.2 || >=6.0.0 <6.3.1 || >=7.0.0 <7.5.2", "6.3.0", true},
		{"<5.7.2 || >=6.0.0 <6.3.1 || >=7.0.0 <7.5.2", "6.3.1", false},
		{"<5.7.2 || >=6.0.0 <6.3.1 || >=7.0.0 <7.5.2", "7.5.1", true},
	}
	for _, tt := range tests {
		t.Run(tt.constraint+"@"+tt.version, func(t *testing.T) {
			c, err := ParseConstraint(tt.constraint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Check(mustVersion(t, tt.version)))
		})
	}
}

func TestParseConstraint_Errors(t *testing.T) {
	for _, s := range []string{"", "   ", ">=", "1.0 ||", "~=3", "latest", ">=abc"} {
		_, err := ParseConstraint(s)
		assert.Error(t, err, "ParseConstraint(%q) should fail", s)
	}
}

func TestLowestVersion(t *testing.T) {
	tests := []struct {
		spec string
		want string
		ok   bool
	}{
		{"^4.17.20", "4.17.20", true},
		{"~1.2.3", "1.2.3", true},
		{"~=1.2", "1.2", true},
		{">=1.0 <2", "1.0", true},
		{">=1.0,<2", "1.0", true},
		{"==2.25.0", "2.25.0", true},
		{"4.17.20", "4.17.20", true},
		{"v1.2.3", "1.2.3", true},
		{"^1.0.0 || ^2.0.0", "1.0.0", true},
		{"", "", false},
		{"*", "", false},
		{"latest", "", false},
		{"<2.0", "", false},
		{"!=1.0", "", false},
		{"file:../local", "", false},
		{"github:user/repo#v1.0.0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			v, ok := LowestVersion(tt.spec)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, v.String())
			}
		})
	}
}
