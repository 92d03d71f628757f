package packager

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/jsverify"
)

//go:embed scripts/*.ts
var scriptFS embed.FS

// Script is one server-side file of the deployed project.
type Script struct {
	Name   string
	Source string
}

// ServerScripts transpiles the embedded request handlers to plain JavaScript,
// sorted by file name.
func ServerScripts() ([]Script, error) {
	entries, err := fs.ReadDir(scriptFS, "scripts")
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to list server scripts").Build()
	}
	out := make([]Script, 0, len(entries))
	for _, e := range entries {
		data, err := scriptFS.ReadFile(path.Join("scripts", e.Name()))
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to read server script").
				WithContext("file", e.Name()).Build()
		}
		js, err := jsverify.Transpile(e.Name(), string(data))
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to transpile server script").
				WithContext("file", e.Name()).Build()
		}
		out = append(out, Script{Name: strings.TrimSuffix(e.Name(), path.Ext(e.Name())) + ".js", Source: js})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
