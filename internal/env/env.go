// Package env models the runtime variables exposed to the bundled client and
// loads them from the project's dotenv file.
package env

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/platform"
)

// Variable is one runtime value. Platform values are expressions evaluated by
// the hosting platform and are emitted unquoted; everything else is a literal.
type Variable struct {
	Key      string
	Value    string
	Platform bool
}

// Expression returns the server-side expression of a platform value.
func (v Variable) Expression() string {
	return platform.ExpressionBody(v.Value)
}

// Set is an ordered collection of variables keyed by name.
type Set struct {
	vars  []Variable
	index map[string]int
}

// NewSet returns a set seeded with the platform builtins (application URL and
// accessing-user identity).
func NewSet() *Set {
	s := &Set{index: map[string]int{}}
	for _, b := range platform.Builtins {
		s.Put(b.Key, platform.InlineExpression(b.Expression))
	}
	return s
}

// Put adds or replaces key, keeping its original position.
func (s *Set) Put(key, value string) {
	v := Variable{Key: key, Value: value, Platform: platform.IsExpression(value)}
	if i, ok := s.index[key]; ok {
		s.vars[i] = v
		return
	}
	s.index[key] = len(s.vars)
	s.vars = append(s.vars, v)
}

// Get returns the variable for key.
func (s *Set) Get(key string) (Variable, bool) {
	i, ok := s.index[key]
	if !ok {
		return Variable{}, false
	}
	return s.vars[i], true
}

// All returns the variables in insertion order.
func (s *Set) All() []Variable {
	return slices.Clone(s.vars)
}

// Split partitions the set into client-safe and server-only variables.
func (s *Set) Split(privateKeys []string) (public, private []Variable) {
	for _, v := range s.vars {
		if slices.Contains(privateKeys, v.Key) {
			private = append(private, v)
			continue
		}
		public = append(public, v)
	}
	return public, private
}

// LoadFile merges the dotenv file at path into s. A missing file is not an
// error. Within the file the first definition of a key wins; a file entry
// replaces a builtin of the same name.
func (s *Set) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, ferrors.WrapError(err, ferrors.CategoryFileSystem, "open environment file").
			WithContext("file", path).Build()
	}
	defer func() {
		_ = f.Close()
	}()
	return s.Load(f, path)
}

// doubleQuoted decodes KEY="..." lines whose value is a complete double-quoted
// string. godotenv stops such a value at an escaped closing quote.
func doubleQuoted(line string) (key, value string, ok bool) {
	k, v, found := strings.Cut(strings.TrimPrefix(line, "export "), "=")
	if !found {
		return "", "", false
	}
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)
	if k == "" || len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return "", "", false
	}
	unquoted, err := strconv.Unquote(v)
	if err != nil {
		return "", "", false
	}
	return k, unquoted, true
}

// Load merges dotenv lines from r. Values are parsed one line at a time, so
// multi-line quoted values are not supported.
func (s *Set) Load(r io.Reader, name string) (int, error) {
	seen := map[string]bool{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, ok := doubleQuoted(line); ok {
			if !seen[key] {
				seen[key] = true
				s.Put(key, value)
			}
			continue
		}
		parsed, err := godotenv.Unmarshal(line)
		if err != nil {
			return 0, ferrors.WrapError(err, ferrors.CategoryInput, fmt.Sprintf("invalid environment line %d", lineNo)).
				WithContext("file", name).Build()
		}
		for key, value := range parsed {
			if seen[key] {
				continue
			}
			seen[key] = true
			s.Put(key, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read environment file").
			WithContext("file", name).Build()
	}
	return len(seen), nil
}
