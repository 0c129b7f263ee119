// internal/discovery/discovery.go
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	sourceExt  = ".lama"
	inputExt   = ".input"
	answersExt = ".t"
)

// TestCase is one discovered source file plus its sibling fixtures. Input
// is empty when no .input file exists; Answers always carries the expected
// .t path, whose absence is detected later, once the case actually runs.
type TestCase struct {
	Source  string
	Input   string
	Answers string
}

// Name returns the short name used in per-case output lines.
func (tc TestCase) Name() string {
	return filepath.Base(tc.Source)
}

// Discover resolves the CLI path arguments into test cases. With no
// arguments the current directory is walked recursively; a directory
// argument is walked recursively; a file argument must be a .lama source.
// Finding nothing at all is an error, as is an argument of any other shape.
func Discover(paths []string) ([]TestCase, error) {
	var sources []string
	if len(paths) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		found, err := walkSources(cwd)
		if err != nil {
			return nil, err
		}
		sources = found
	} else {
		for _, p := range paths {
			info, err := os.Stat(p)
			switch {
			case err == nil && info.IsDir():
				found, err := walkSources(p)
				if err != nil {
					return nil, err
				}
				sources = append(sources, found...)
			case strings.HasSuffix(p, sourceExt):
				sources = append(sources, p)
			default:
				return nil, fmt.Errorf("unsupported argument: %s (must be %s or a directory)", p, sourceExt)
			}
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no %s files found to test", sourceExt)
	}

	cases := make([]TestCase, 0, len(sources))
	for _, src := range sources {
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, err
		}
		cases = append(cases, TestCase{
			Source:  abs,
			Input:   inputFileFor(abs),
			Answers: withExt(abs, answersExt),
		})
	}
	return cases, nil
}

func walkSources(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), sourceExt) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return found, nil
}

// inputFileFor returns the matching .input file, or "" when there is none.
func inputFileFor(src string) string {
	cand := withExt(src, inputExt)
	if info, err := os.Stat(cand); err == nil && !info.IsDir() {
		return cand
	}
	return ""
}

func withExt(src, ext string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ext
}
