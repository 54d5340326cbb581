package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{" @bob ", "bob"},
		{"@@carol", "carol"},
		{"  ", ""},
		{"@", ""},
		{"", ""},
		{"\tdave\n", "dave"},
		{"＠fullwidth", "fullwidth"}, // NFKC folds the full-width at sign
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestAdmit_DropsEmptyAndDuplicates(t *testing.T) {
	t.Parallel()

	got := Admit([]string{"alice", " @bob ", "", "  ", "@", "alice", "@alice"})
	assert.Equal(t, []string{"alice", "bob"}, got)
}

func TestAdmit_PreservesOrder(t *testing.T) {
	t.Parallel()

	got := Admit([]string{"zoe", "adam", "mia"})
	assert.Equal(t, []string{"zoe", "adam", "mia"}, got)
}

func TestLoadIdentifiers_Text(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "handles.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice\n# a comment\n\n@bob\n"), 0o644))

	ids, err := LoadIdentifiers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "@bob"}, ids)
}

func TestLoadIdentifiers_YAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "handles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- alice\n- \" @bob \"\n"), 0o644))

	ids, err := LoadIdentifiers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", " @bob "}, ids)
}

func TestLoadIdentifiers_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadIdentifiers(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
