package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(r), 0o600))
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "about.tsx", "blog/[slug].tsx", "index.tsx", "404.tsx", "b.tsx", "a.tsx")

	files, err := List(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tsx", "b.tsx", "404.tsx", "about.tsx", "index.tsx", "blog/[slug].tsx"}, files)
}

func TestList_DirectoriesExcluded(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "nested"), 0o750))
	touch(t, root, "x/y.txt")

	files, err := List(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"x/y.txt"}, files)
}

func TestList_MissingRoot(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInput))
}

func TestList_RootIsFile(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "file.txt")
	_, err := List(filepath.Join(root, "file.txt"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInput))
}

func TestFilter(t *testing.T) {
	files := []string{"_app.tsx", "about.tsx", "api/hello.ts", "api/v1/users.tsx", "blog/[slug].tsx", "styles.css", "routes.tsx"}

	got := Filter(files, []string{"**/*.tsx"}, []string{"_*", "api/**", "routes.*"})
	assert.Equal(t, []string{"about.tsx", "blog/[slug].tsx"}, got)

	assert.Equal(t, files, Filter(files, nil, nil))
	assert.True(t, Match([]string{"api/**"}, "api/v1/users.tsx"))
	assert.False(t, Match([]string{"["}, "anything"))
}
