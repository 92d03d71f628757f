// Package packager lays out the deployable project: platform descriptors,
// server scripts, the runtime data module, the entry document and its
// fragments. The layout is built in a staging directory and then copied to
// the destination.
package packager

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/next2gas/internal/config"
	"git.home.luguber.info/inful/next2gas/internal/entrydoc"
	"git.home.luguber.info/inful/next2gas/internal/env"
	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/fsutil"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/platform"
)

// Bundle is everything that goes into the deployable project.
type Bundle struct {
	AppName   string
	Document  string
	Fragments []entrydoc.Fragment
	Public    []env.Variable
	Private   []env.Variable
	Platform  config.PlatformConfig
}

// ManifestFor builds the deployment manifest from the platform settings.
func ManifestFor(cfg config.PlatformConfig) platform.Manifest {
	return platform.Manifest{
		TimeZone:         cfg.TimeZone,
		Dependencies:     map[string]any{},
		ExceptionLogging: cfg.ExceptionLogging,
		RuntimeVersion:   cfg.RuntimeVersion,
		Webapp: platform.Webapp{
			ExecuteAs: cfg.ExecuteAs,
			Access:    cfg.Access,
		},
	}
}

// Stage writes b into dir and returns the written file names in write order.
func Stage(dir string, b Bundle) ([]string, error) {
	files, err := render(b)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if err := fsutil.WriteFile(filepath.Join(dir, f.name), f.data); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write staged file").
				WithContext("file", f.name).Build()
		}
		slog.Debug("Staged bundle file", logfields.File(f.name), logfields.Bytes(int64(len(f.data))))
		names = append(names, f.name)
	}
	return names, nil
}

type file struct {
	name string
	data []byte
}

func render(b Bundle) ([]file, error) {
	manifest, err := platform.Encode(ManifestFor(b.Platform))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode manifest").Build()
	}
	project, err := platform.Encode(platform.Project{ScriptID: b.Platform.ScriptID, RootDir: "./"})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode project descriptor").Build()
	}
	data, err := DataModule(b.AppName, b.Public, b.Private)
	if err != nil {
		return nil, err
	}
	scripts, err := ServerScripts()
	if err != nil {
		return nil, err
	}

	files := []file{
		{platform.ManifestFile, manifest},
		{platform.ProjectFile, project},
		{platform.DataModuleFile, []byte(data)},
		{platform.EntryFragment + platform.FragmentExt, []byte(b.Document)},
	}
	for _, s := range scripts {
		files = append(files, file{s.Name, []byte(s.Source)})
	}
	for _, f := range b.Fragments {
		files = append(files, file{f.FileName(), []byte(f.Content)})
	}
	seen := map[string]bool{}
	for _, f := range files {
		if seen[f.name] {
			return nil, ferrors.ValidationError("bundle file name used twice").WithContext("file", f.name).Build()
		}
		seen[f.name] = true
	}
	return files, nil
}

// Publish copies the staging directory to dest. An existing dest is replaced
// when force is set and is an input error otherwise.
func Publish(ctx context.Context, staging, dest string, force bool, limit int) error {
	if _, err := os.Stat(dest); err == nil {
		if !force {
			return ferrors.InputError("output directory already exists").
				WithContext("path", dest).Build()
		}
		if err := os.RemoveAll(dest); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to remove existing output").
				WithContext("path", dest).Build()
		}
	}
	if err := fsutil.CopyTree(ctx, staging, dest, nil, limit); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to copy bundle to output").
			WithContext("path", dest).Build()
	}
	return nil
}
