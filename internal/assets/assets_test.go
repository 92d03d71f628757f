package assets

import (
	"bytes"
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
)

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestMediaType(t *testing.T) {
	tests := map[string]string{
		"logo.png":      "image/png",
		"photo.JPG":     "image/jpeg",
		"icon.svg":      "image/svg+xml",
		"app.js":        "text/javascript",
		"main.css":      "text/css",
		"font.woff2":    "font/woff2",
		"pic.webp":      "image/webp",
		"blob.unknownx": "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, MediaType(name), name)
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	payloads := [][]byte{{}, {0}, []byte("plain text"), make([]byte, 4096)}
	_, err := rand.Read(payloads[3])
	require.NoError(t, err)

	for _, p := range payloads {
		uri := DataURI("image/png", p)
		assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
		mt, data, ok := DecodeDataURI(uri)
		require.True(t, ok)
		assert.Equal(t, "image/png", mt)
		assert.True(t, bytes.Equal(p, data))
	}

	_, _, ok := DecodeDataURI("data:image/png,notbase64")
	assert.False(t, ok)
	_, _, ok = DecodeDataURI("/assets/logo.png")
	assert.False(t, ok)
}

func TestEncode(t *testing.T) {
	dir := t.TempDir()
	logo := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	write(t, filepath.Join(dir, "logo.png"), logo)
	write(t, filepath.Join(dir, "logo.svg"), []byte("<svg/>"))
	write(t, filepath.Join(dir, "fonts", "a.woff2"), []byte("font"))

	refs, err := Encode(context.Background(), dir, 2)
	require.NoError(t, err)
	require.Len(t, refs, 3)

	for _, ref := range refs {
		assert.Equal(t, SidecarPath(filepath.Join(dir, filepath.FromSlash(ref.OriginalPath))), ref.SidecarPath)
		content, err := os.ReadFile(ref.SidecarPath)
		require.NoError(t, err)
		original, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ref.OriginalPath)))
		require.NoError(t, err)

		mt, decoded, ok := DecodeDataURI(string(content))
		require.True(t, ok)
		assert.Equal(t, ref.MediaType, mt)
		assert.Equal(t, original, decoded, "sidecar must reproduce %s exactly", ref.OriginalPath)
	}
	// Same stem, different extension: distinct sidecars.
	assert.FileExists(t, filepath.Join(dir, "logo.png.txt"))
	assert.FileExists(t, filepath.Join(dir, "logo.svg.txt"))
}

func TestEncode_MissingDir(t *testing.T) {
	_, err := Encode(context.Background(), filepath.Join(t.TempDir(), "assets"), 1)
	require.Error(t, err)
}

func newRewriter(t *testing.T) (*Rewriter, string) {
	t.Helper()
	out := t.TempDir()
	assetsDir := filepath.Join(out, "assets")
	write(t, filepath.Join(assetsDir, "logo.png"), []byte("PNGDATA"))
	write(t, filepath.Join(assetsDir, "logo.png2"), []byte("OTHER"))
	write(t, filepath.Join(assetsDir, "my logo.png"), []byte("SPACED"))
	_, err := Encode(context.Background(), assetsDir, 1)
	require.NoError(t, err)
	return &Rewriter{ExportDir: out, AssetsDir: assetsDir, Marker: "/assets/", Limit: 2}, out
}

func TestRewriteText_ExactQuotedReference(t *testing.T) {
	r, _ := newRewriter(t)
	text := `<img src="/assets/logo.png"><img src="/assets/logo.png2"><a href="/assets/my%20logo.png?v=1">x</a>`

	out, n, err := r.RewriteText("index.html", text)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	png := DataURI("image/png", []byte("PNGDATA"))
	other := DataURI("application/octet-stream", []byte("OTHER"))
	spaced := DataURI("image/png", []byte("SPACED"))
	assert.Equal(t, `<img src="`+png+`"><img src="`+other+`"><a href="`+spaced+`">x</a>`, out)
}

func TestRewriteText_LeavesUnquotedAndPrefixes(t *testing.T) {
	r, _ := newRewriter(t)
	text := `<p>/assets/logo.png</p><script>const base = "/assets/"; load(base + "x")</script>`

	out, n, err := r.RewriteText("index.html", text)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, text, out)
}

func TestRewriteText_MissingSidecar(t *testing.T) {
	r, _ := newRewriter(t)
	_, _, err := r.RewriteText("about.html", `<img src="/assets/missing.png">`)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAssetIntegrity))

	_, _, err = r.RewriteText("about.html", `<img src="/assets/../secret.png">`)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryAssetIntegrity))
}

func TestRewrite_OnlyHTMLFiles(t *testing.T) {
	r, out := newRewriter(t)
	write(t, filepath.Join(out, "index.html"), []byte(`<img src="/assets/logo.png">`))
	write(t, filepath.Join(out, "blog", "post.html"), []byte(`<p>no refs</p>`))
	binary := []byte("\x00\"/assets/logo.png\"\x01")
	write(t, filepath.Join(out, "_next", "chunk.bin"), binary)

	stats, err := r.Rewrite(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesScanned)
	assert.Equal(t, 1, stats.FilesRewritten)
	assert.Equal(t, 1, stats.References)

	got, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, `<img src="`+DataURI("image/png", []byte("PNGDATA"))+`">`, string(got))

	untouched, err := os.ReadFile(filepath.Join(out, "_next", "chunk.bin"))
	require.NoError(t, err)
	assert.Equal(t, binary, untouched)
}
