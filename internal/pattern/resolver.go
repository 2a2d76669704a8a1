// Package pattern expands jasmine.yml file patterns into ordered file lists.
package pattern

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/jasmine-go/jasmine/internal/logging"
)

// NegationPrefix marks a pattern whose matches are removed from the result.
const NegationPrefix = "!"

// Resolver matches patterns against directories of a filesystem.
type Resolver struct {
	fs afero.Fs
}

// NewResolver creates a resolver over fsys. A nil fsys means the host filesystem.
func NewResolver(fsys afero.Fs) *Resolver {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Resolver{fs: fsys}
}

// MatchFiles expands patterns against dir and returns paths relative to dir.
//
// Positive and negative patterns are expanded as two independent groups.
// Within a group every pattern's matches are sorted, the groups are
// flattened in pattern order and deduplicated keeping the first occurrence.
// The result is the positive group minus every negated entry.
//
// A positive pattern with no '*' that matches nothing is returned verbatim,
// so files that do not exist yet can still be listed.
func (r *Resolver) MatchFiles(dir string, patterns []string) []string {
	var positive, negative []string
	for _, p := range patterns {
		if strings.HasPrefix(p, NegationPrefix) {
			negative = append(negative, p)
		} else {
			positive = append(positive, p)
		}
	}

	dir = absDir(dir)
	chosen := r.expandGroup(dir, positive)
	negated := r.expandGroup(dir, negative)
	return subtract(chosen, negated)
}

func absDir(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func (r *Resolver) dirFS(dir string) fs.FS {
	return afero.NewIOFS(afero.NewBasePathFs(r.fs, dir))
}

func (r *Resolver) expandGroup(dir string, patterns []string) []string {
	fsys := r.dirFS(dir)
	var all []string
	for _, p := range patterns {
		all = append(all, r.expand(fsys, dir, p)...)
	}
	return unique(all)
}

func (r *Resolver) expand(fsys fs.FS, dir, pattern string) []string {
	glob := normalize(strings.TrimPrefix(pattern, NegationPrefix))

	var matches []string
	if glob != "" {
		var err error
		if hasParentSegment(glob) {
			matches, err = r.globOutside(dir, glob)
		} else {
			matches, err = doublestar.Glob(fsys, glob)
		}
		if err != nil {
			logging.Warn().Err(err).Str("pattern", pattern).Msg("invalid file pattern")
			matches = nil
		}
	}

	if len(matches) == 0 && !strings.Contains(pattern, "*") && !strings.HasPrefix(pattern, NegationPrefix) {
		return []string{pattern}
	}

	sort.Strings(matches)
	return matches
}

// globOutside expands a pattern containing ".." segments. io/fs paths cannot
// climb above their root, so the glob is re-rooted at the pattern's literal
// base and matches are made relative to dir again.
func (r *Resolver) globOutside(dir, glob string) ([]string, error) {
	joined := filepath.ToSlash(filepath.Join(dir, filepath.FromSlash(glob)))
	base, rest := doublestar.SplitPattern(joined)
	if rest == "" {
		return nil, nil
	}

	found, err := doublestar.Glob(r.dirFS(filepath.FromSlash(base)), rest)
	if err != nil {
		return nil, err
	}

	matches := make([]string, 0, len(found))
	for _, m := range found {
		rel, err := filepath.Rel(dir, filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
		if err != nil {
			continue
		}
		matches = append(matches, filepath.ToSlash(rel))
	}
	return matches, nil
}

func hasParentSegment(glob string) bool {
	for _, seg := range strings.Split(glob, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// normalize turns a pattern into a glob rooted at the searched directory.
func normalize(p string) string {
	p = filepath.ToSlash(p)
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		default:
			return p
		}
	}
}

func unique(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func subtract(items, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, item := range remove {
		drop[item] = true
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !drop[item] {
			out = append(out, item)
		}
	}
	return out
}
