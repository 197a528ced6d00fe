package plugin

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unbound-force/nilguard/internal/config"
)

// Scan walks dir and returns the Go source files to load, relative to
// dir and sorted by path. Hidden directories and test files are
// skipped, then the include and exclude globs from cfg apply.
//
// If cfg.Timeout is non-zero the walk is bounded by that deadline and a
// context.DeadlineExceeded error is returned when it is hit.
func Scan(dir string, cfg config.Plugins) ([]string, error) {
	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("plugin scan timed out after %s: %w", cfg.Timeout, ctxErr)
		}
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			base := d.Name()
			if strings.HasPrefix(base, ".") && base != "." {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}
		if !Match(rel, cfg) {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Match reports whether rel passes the include and exclude globs:
//  1. with include patterns set, rel must match at least one;
//  2. rel must match no exclude pattern.
func Match(rel string, cfg config.Plugins) bool {
	rel = filepath.ToSlash(rel)

	if len(cfg.Include) > 0 {
		matched := false
		for _, pattern := range cfg.Include {
			if matchGlob(pattern, rel) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, pattern := range cfg.Exclude {
		if matchGlob(pattern, rel) {
			return false
		}
	}
	return true
}

// matchGlob matches rel against pattern. "dir/**" matches everything
// under dir, and patterns without a separator also match the base name.
func matchGlob(pattern, rel string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}

	if matched, err := filepath.Match(pattern, rel); err == nil && matched {
		return true
	}

	if !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(rel))
		return err == nil && matched
	}
	return false
}
