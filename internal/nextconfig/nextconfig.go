// Package nextconfig loads the framework build configuration by evaluating it
// with node, applies the static-export defaults and writes it back as a
// loadable module.
package nextconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/jsverify"
	"git.home.luguber.info/inful/next2gas/internal/runner"
)

// FileName is the configuration module in the project root.
const FileName = "next.config.js"

// dumpInstruction prints the evaluated configuration as one JSON line.
const dumpInstruction = "console.log(JSON.stringify(module.exports));"

// Change names one default applied by Patch.
type Change struct {
	Path  string
	Value any
}

// Patcher evaluates and rewrites the configuration module of a project.
type Patcher struct {
	Runner runner.Runner
	// Node is the interpreter used to evaluate the module.
	Node string
}

// Load evaluates the configuration in dir. A project without a configuration
// module yields an empty object.
func (p *Patcher) Load(ctx context.Context, dir string) (*Object, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewObject(), nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read build configuration").
			WithContext("file", FileName).Build()
	}

	src := string(data)
	if !strings.Contains(src, dumpInstruction) {
		src = strings.TrimRight(src, "\n") + "\n" + dumpInstruction + "\n"
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write build configuration").
				WithContext("file", FileName).Build()
		}
	}

	node := p.Node
	if node == "" {
		node = "node"
	}
	res, err := p.Runner.Run(ctx, dir, node, FileName)
	if err != nil {
		return nil, err
	}
	return Parse(lastLine(res.Stdout))
}

// Parse decodes the serialized configuration value.
func Parse(value string) (*Object, error) {
	if strings.TrimSpace(value) == "" {
		return nil, ferrors.InputError("build configuration printed no value").
			WithContext("file", FileName).Build()
	}
	obj := NewObject()
	if err := obj.UnmarshalJSON([]byte(value)); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInput, "build configuration is not a JSON object").
			WithContext("file", FileName).Build()
	}
	return obj, nil
}

// Patch applies the export defaults to obj. A key the user already set is never
// overwritten.
func Patch(obj *Object) ([]Change, error) {
	var changes []Change
	for _, d := range []struct{ parent, key string }{
		{"images", "unoptimized"},
		{"eslint", "ignoreDuringBuilds"},
	} {
		child, present, err := obj.Child(d.parent)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryInput, "unexpected build configuration shape").
				WithContext("key", d.parent).Build()
		}
		if !present {
			child = NewObject()
		}
		if child.Has(d.key) {
			continue
		}
		if err := child.Set(d.key, true); err != nil {
			return nil, err
		}
		if err := obj.Set(d.parent, child); err != nil {
			return nil, err
		}
		changes = append(changes, Change{Path: d.parent + "." + d.key, Value: true})
	}
	return changes, nil
}

// Render writes obj as a CommonJS configuration module. Members are written
// one per line with their original value bytes.
func Render(obj *Object) (string, error) {
	var b strings.Builder
	b.WriteString("/** @type {import('next').NextConfig} */\n")
	b.WriteString("const nextConfig = {")
	for i, k := range obj.Keys() {
		if i > 0 {
			b.WriteString(",")
		}
		raw, _ := obj.Raw(k)
		key, err := json.Marshal(k)
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryInternal, "failed to quote configuration key").Build()
		}
		fmt.Fprintf(&b, "\n  %s: %s", key, raw)
	}
	if len(obj.Keys()) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
	b.WriteString("module.exports = nextConfig\n")

	src := b.String()
	if err := jsverify.CheckScript(FileName, src); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryInternal, "rendered build configuration does not parse").Build()
	}
	return src, nil
}

// Apply loads, patches and rewrites the configuration module in dir.
func (p *Patcher) Apply(ctx context.Context, dir string) ([]Change, error) {
	obj, err := p.Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	changes, err := Patch(obj)
	if err != nil {
		return nil, err
	}
	src, err := Render(obj)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(src), 0o644); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write build configuration").
			WithContext("file", FileName).Build()
	}
	return changes, nil
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
