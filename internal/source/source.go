// Package source produces the working copy of the project to bundle, either by
// copying a local directory or by cloning a git repository.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/fsutil"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
	"git.home.luguber.info/inful/next2gas/internal/retry"
)

// TokenEnv names the environment variable holding an HTTP token for private
// repositories.
const TokenEnv = "NEXT2GAS_GIT_TOKEN"

// skipped are top-level entries never copied into the working copy: build
// output and dependencies are recreated there.
var skipped = map[string]bool{
	"out":          true,
	".next":        true,
	"node_modules": true,
	".git":         true,
}

// Options controls acquisition.
type Options struct {
	// Ref is a branch or tag to clone. Empty means the remote default branch.
	Ref string
	// Depth limits the clone history; zero fetches everything.
	Depth int
	Token string
	Limit int
	// Retry governs repeated clone attempts; the zero value tries once.
	Retry retry.Policy
}

// IsRemote reports whether location names a git repository rather than a
// local directory.
func IsRemote(location string) bool {
	for _, p := range []string{"https://", "http://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(location, p) {
			return true
		}
	}
	return false
}

// Check verifies that a local project path exists and is a directory. Remote
// locations are not checked.
func Check(location string) error {
	if IsRemote(location) {
		return nil
	}
	info, err := os.Stat(location)
	if err != nil || !info.IsDir() {
		return ferrors.InputError("project path does not exist or is not a directory").
			WithContext("path", location).Build()
	}
	return nil
}

// Acquire places the project at location into dest.
func Acquire(ctx context.Context, location, dest string, opts Options) error {
	if IsRemote(location) {
		return Clone(ctx, location, dest, opts)
	}
	return CopyLocal(ctx, location, dest, opts.Limit)
}

// CopyLocal copies the project directory src to dest, dereferencing symlinks
// and leaving out build output, dependencies and VCS metadata.
func CopyLocal(ctx context.Context, src, dest string, limit int) error {
	if err := Check(src); err != nil {
		return err
	}
	skip := func(rel string, isDir bool) bool {
		return isDir && !strings.Contains(rel, "/") && skipped[rel]
	}
	if err := fsutil.CopyTree(ctx, src, dest, skip, limit); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to copy project").
			WithContext("path", src).Build()
	}
	slog.Info("Copied project to working copy", logfields.Path(src))
	return nil
}

// Clone clones url into dest and drops the repository metadata. A ref
// is tried as a branch first and as a tag second.
func Clone(ctx context.Context, url, dest string, opts Options) error {
	slog.Debug("Cloning project", logfields.URL(url), slog.String("ref", opts.Ref), logfields.Path(dest))

	cloneOptions := &git.CloneOptions{
		URL:   url,
		Depth: opts.Depth,
		Auth:  authFor(url, opts.Token),
	}
	var refs []plumbing.ReferenceName
	if opts.Ref != "" {
		refs = []plumbing.ReferenceName{plumbing.NewBranchReferenceName(opts.Ref), plumbing.NewTagReferenceName(opts.Ref)}
	}

	var repository *git.Repository
	err := opts.Retry.Do(ctx, "clone", retryable, func(attempt int) error {
		if attempt > 0 {
			_ = os.RemoveAll(dest)
		}
		var cerr error
		repository, cerr = cloneRefs(ctx, dest, cloneOptions, refs)
		return cerr
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryGit, "failed to clone project").
			WithContext("url", url).WithContext("ref", opts.Ref).Build()
	}

	if head, herr := repository.Head(); herr == nil {
		slog.Info("Cloned project", logfields.URL(url), slog.String("commit", head.Hash().String()[:8]))
	}
	if err := os.RemoveAll(filepath.Join(dest, git.GitDirName)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to remove repository metadata").
			WithContext("path", dest).Build()
	}
	return nil
}

// cloneRefs tries each ref in turn, moving on only when the ref does not
// exist on the remote.
func cloneRefs(ctx context.Context, dest string, o *git.CloneOptions, refs []plumbing.ReferenceName) (*git.Repository, error) {
	if len(refs) == 0 {
		return git.PlainCloneContext(ctx, dest, false, o)
	}
	var (
		repository *git.Repository
		err        error
	)
	for _, ref := range refs {
		o.ReferenceName = ref
		o.SingleBranch = true
		repository, err = git.PlainCloneContext(ctx, dest, false, o)
		if err == nil || !isMissingRef(err) {
			break
		}
		_ = os.RemoveAll(dest)
	}
	return repository, err
}

// retryable rejects failures another attempt cannot fix.
func retryable(err error) bool {
	switch {
	case isMissingRef(err),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository),
		errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return false
	}
	return true
}

func isMissingRef(err error) bool {
	return errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, git.NoMatchingRefSpecError{})
}

func authFor(url, token string) transport.AuthMethod {
	if token == "" || !strings.HasPrefix(url, "http") {
		return nil
	}
	return &http.BasicAuth{Username: "token", Password: token}
}

// ResolveName picks the application name: an explicit flag, then the
// configured name, then the "name" field of the project's package.json.
func ResolveName(flag, configured, projectDir string) (string, error) {
	for _, n := range []string{flag, configured} {
		if n = strings.TrimSpace(n); n != "" {
			return n, nil
		}
	}
	data, err := os.ReadFile(filepath.Join(projectDir, "package.json"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read package.json").Build()
	}
	if err == nil {
		var pkg struct {
			Name string `json:"name"`
		}
		if jerr := json.Unmarshal(data, &pkg); jerr != nil {
			return "", ferrors.WrapError(jerr, ferrors.CategoryInput, "package.json is not valid JSON").Build()
		}
		if n := strings.TrimSpace(pkg.Name); n != "" {
			return n, nil
		}
	}
	return "", ferrors.InputError("application name is empty; pass --name or set project.name").Build()
}
