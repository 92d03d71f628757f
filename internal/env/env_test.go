package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet_Builtins(t *testing.T) {
	s := NewSet()
	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "APP_URL", all[0].Key)
	assert.True(t, all[0].Platform)
	assert.Equal(t, "ScriptApp.getService().getUrl()", all[0].Expression())
	assert.Equal(t, "USER_EMAIL", all[1].Key)
	assert.Equal(t, "Session.getEffectiveUser().getEmail()", all[1].Expression())
}

func TestLoad(t *testing.T) {
	src := strings.Join([]string{
		"# leading comment",
		"",
		"API_BASE=https://example.com/api",
		`GREETING="hello \"world\""`,
		"API_BASE=https://shadowed.example.com",
		"export FEATURE_FLAG=on",
		"CURRENT_USER=<?= Session.getActiveUser().getEmail() ?>",
		"APP_URL=https://override.example.com",
	}, "\n")

	s := NewSet()
	n, err := s.Load(strings.NewReader(src), ".env")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	keys := make([]string, 0)
	for _, v := range s.All() {
		keys = append(keys, v.Key)
	}
	assert.Equal(t, []string{"APP_URL", "USER_EMAIL", "API_BASE", "GREETING", "FEATURE_FLAG", "CURRENT_USER"}, keys)

	v, _ := s.Get("API_BASE")
	assert.Equal(t, "https://example.com/api", v.Value, "first definition wins")
	v, _ = s.Get("GREETING")
	assert.Equal(t, `hello "world"`, v.Value)
	assert.False(t, v.Platform)
	v, _ = s.Get("CURRENT_USER")
	assert.True(t, v.Platform)
	v, _ = s.Get("APP_URL")
	assert.False(t, v.Platform, "file entry replaces the builtin")
}

func TestLoadFile_Missing(t *testing.T) {
	s := NewSet()
	n, err := s.LoadFile(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, s.All(), 2)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("A=1\nB=2\n"), 0o600))
	s := NewSet()
	n, err := s.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSplit(t *testing.T) {
	s := NewSet()
	s.Put("API_SECRET", "s3cr3t")
	s.Put("PUBLIC_KEY", "pk")

	public, private := s.Split([]string{"API_SECRET"})
	require.Len(t, private, 1)
	assert.Equal(t, "API_SECRET", private[0].Key)
	for _, v := range public {
		assert.NotEqual(t, "API_SECRET", v.Key)
	}
	assert.Len(t, public, 3)
}

func TestDoubleQuoted(t *testing.T) {
	tests := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{`GREETING="hello \"world\""`, "GREETING", `hello "world"`, true},
		{`export MOTD = "line\nbreak"`, "MOTD", "line\nbreak", true},
		{`PLAIN=value`, "", "", false},
		{`TRAILING="a" # comment`, "", "", false},
		{`SINGLE='x'`, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			key, value, ok := doubleQuoted(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}
