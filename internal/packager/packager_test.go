package packager

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/next2gas/internal/config"
	"git.home.luguber.info/inful/next2gas/internal/entrydoc"
	"git.home.luguber.info/inful/next2gas/internal/env"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/platform"
)

func testBundle() Bundle {
	return Bundle{
		AppName:   "shop",
		Document:  "<html><head></head><body></body></html>",
		Fragments: []entrydoc.Fragment{{Name: "style-app", Content: "<style>\n\n</style>\n"}},
		Public: []env.Variable{
			{Key: "APP_URL", Value: "<?= ScriptApp.getService().getUrl() ?>", Platform: true},
			{Key: "THEME", Value: `dark "blue"`},
		},
		Private:  []env.Variable{{Key: "API_SECRET", Value: "s3cret"}},
		Platform: config.Default().Platform,
	}
}

func TestServerScripts(t *testing.T) {
	scripts, err := ServerScripts()
	require.NoError(t, err)

	var names []string
	for _, s := range scripts {
		names = append(names, s.Name)
		assert.NotContains(t, s.Source, ": GoogleAppsScript", s.Name)
		assert.NotContains(t, s.Source, "export", s.Name)
	}
	assert.Equal(t, []string{"doGet.js", "handleApiRequest.js", "handleStaticRequest.js", "include.js"}, names)
	assert.Contains(t, scripts[0].Source, "function doGet(")
	assert.Contains(t, scripts[0].Source, `createTemplateFromFile("index")`)
}

func TestDataModule(t *testing.T) {
	b := testBundle()
	src, err := DataModule(b.AppName, b.Public, b.Private)
	require.NoError(t, err)
	assert.Equal(t, "const PUBLIC_DATA = {\n"+
		"  \"APPLICATION_NAME\": \"shop\",\n"+
		"  \"APP_URL\": ScriptApp.getService().getUrl(),\n"+
		"  \"THEME\": \"dark \\\"blue\\\"\",\n"+
		"};\n\n"+
		"const PRIVATE_DATA = {\n"+
		"  \"API_SECRET\": \"s3cret\",\n"+
		"};\n", src)
}

func TestDataModule_RejectsBrokenExpression(t *testing.T) {
	_, err := DataModule("shop", []env.Variable{{Key: "X", Value: "<?= foo( ?>", Platform: true}}, nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInput))
}

func TestStage(t *testing.T) {
	dir := t.TempDir()
	names, err := Stage(dir, testBundle())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"appsscript.json", ".clasp.json", "variables.js", "index.html",
		"doGet.js", "handleApiRequest.js", "handleStaticRequest.js", "include.js",
		"style-app.html",
	}, names)

	raw, err := os.ReadFile(filepath.Join(dir, platform.ManifestFile))
	require.NoError(t, err)
	var m platform.Manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "USER_ACCESSING", m.Webapp.ExecuteAs)
	assert.Equal(t, "DOMAIN", m.Webapp.Access)
	assert.Equal(t, "V8", m.RuntimeVersion)
	assert.Empty(t, m.Dependencies)
	assert.Contains(t, string(raw), `"dependencies": {}`)

	raw, err = os.ReadFile(filepath.Join(dir, platform.ProjectFile))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"scriptId\": \"<YOUR_ID_HERE>\",\n  \"rootDir\": \"./\"\n}\n", string(raw))

	doc, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "s3cret")
}

func TestPublish(t *testing.T) {
	staging := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staging, "index.html"), []byte("new"), 0o644))
	dest := filepath.Join(t.TempDir(), "out")

	require.NoError(t, Publish(context.Background(), staging, dest, false, 2))
	got, err := os.ReadFile(filepath.Join(dest, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	err = Publish(context.Background(), staging, dest, false, 2)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInput))

	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.txt"), []byte("old"), 0o644))
	require.NoError(t, Publish(context.Background(), staging, dest, true, 2))
	_, err = os.Stat(filepath.Join(dest, "stale.txt"))
	assert.True(t, os.IsNotExist(err))
}
