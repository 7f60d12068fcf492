package typing

import (
	"fmt"
	"path"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// globMatcher matches vault paths with gitignore pattern semantics: a
// pattern containing a slash is anchored at the vault root, one without
// matches at any depth, and "**" spans folders.
type globMatcher struct {
	pattern string
	gi      *ignore.GitIgnore
	// literal is the length of the pattern before its first wildcard, used
	// to rank overlapping matches.
	literal int
}

func compileGlob(pattern string) (*globMatcher, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}

	if strings.HasPrefix(pattern, "!") {
		return nil, fmt.Errorf("%w: negation not supported: %q", ErrInvalidGlob, pattern)
	}

	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidGlob, pattern, err)
	}

	literal := strings.IndexAny(pattern, "*?[")
	if literal < 0 {
		literal = len(pattern)
	}

	return &globMatcher{
		pattern: pattern,
		gi:      ignore.CompileIgnoreLines(pattern),
		literal: literal,
	}, nil
}

func (g *globMatcher) matches(p string) bool {
	return g != nil && g.gi.MatchesPath(p)
}

// inFolder reports whether p lies in folder or any of its subfolders.
func inFolder(folder, p string) bool {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return true
	}

	return strings.HasPrefix(p, folder+"/")
}
