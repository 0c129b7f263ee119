// internal/extract/extract.go
package extract

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Answer extraction turns a loosely structured transcript into the ordered
// integer sequence it encodes. Golden .t files are parsed with FromFile,
// live interpreter output with FromText. The two are intentionally NOT the
// same procedure: FromFile takes at most one anchored number per line while
// FromText takes every number on the line. Existing fixtures depend on this
// difference, so unifying them would change which tests pass.

var (
	// [\s\v]: regexp's \s class lacks the vertical tab, which counts as
	// whitespace everywhere else in this file.
	afterArrow = regexp.MustCompile(`>[\s\v]*(-?\d+)`)
	leadingNum = regexp.MustCompile(`^(-?\d+)`)
	anyNum     = regexp.MustCompile(`-?\d+`)
)

// FromFile extracts golden answers from a transcript file such as:
//
//	$ ../src/Driver.exe ... < test084.input
//	 > 55
//	310
//	310
//
// yielding [55, 310, 310]. Per line, only one number is taken: the first
// one after a '>' if the line contains one, otherwise a number anchored at
// the first non-whitespace position. Lines matching neither rule contribute
// nothing. A missing file is the caller's misconfiguration and is returned
// as an error rather than an empty sequence.
func FromFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers file: %w", err)
	}
	defer f.Close()

	var numbers []int
	scanner := bufio.NewScanner(f)
	// Transcript lines can be arbitrarily long; the default token limit
	// would make a long line a fatal read error.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		// All trailing whitespace goes, including \v and \f, which are not
		// in regexp's \s class. Leading whitespace is kept for the arrow
		// scan and stripped for the anchored one.
		line := strings.TrimRightFunc(scanner.Text(), unicode.IsSpace)
		if line == "" {
			continue
		}

		if strings.Contains(line, ">") {
			if m := afterArrow.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					numbers = append(numbers, n)
				}
			}
			continue
		}

		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}
		if trimmed[0] >= '0' && trimmed[0] <= '9' || trimmed[0] == '-' {
			if m := leadingNum.FindStringSubmatch(trimmed); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					numbers = append(numbers, n)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read answers file: %w", err)
	}
	return numbers, nil
}

// FromText extracts answers from captured interpreter output. Unlike
// FromFile it is greedy: every integer substring on every non-blank line is
// taken, left to right. Numbers that do not fit in an int are skipped.
func FromText(text string) []int {
	var numbers []int
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, s := range anyNum.FindAllString(line, -1) {
			if n, err := strconv.Atoi(s); err == nil {
				numbers = append(numbers, n)
			}
		}
	}
	return numbers
}

// Equal reports element-wise equality of two answer sequences. Order and
// length both matter; duplicates are significant.
func Equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
