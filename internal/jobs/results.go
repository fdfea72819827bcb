package jobs

import (
	"iter"
	"math"
	"os"
	"strconv"
	"strings"
)

// Row is one line of the result artifact split into fields. The last field
// is the measured latency.
type Row []string

// Latency parses the last field as a plain decimal number. ok is false when
// the row is empty, the field carries surrounding whitespace or hex-float
// syntax, or it is not a finite number.
func (r Row) Latency() (float64, bool) {
	if len(r) == 0 {
		return 0, false
	}
	field := r[len(r)-1]
	if strings.ContainsAny(field, "xXpP \t") {
		return 0, false
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Valid reports whether the row has a latency strictly greater than zero.
func (r Row) Valid() bool {
	v, ok := r.Latency()
	return ok && v > 0
}

// ParseResults yields the valid rows of a comma-separated result artifact.
// The first line is a header and is always skipped. Rows with a missing,
// non-numeric, zero or negative latency are dropped. Each iteration scans
// text again; nothing is cached.
func ParseResults(text string) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		rest := text
		header := true
		for len(rest) > 0 {
			var line string
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				line, rest = rest[:i], rest[i+1:]
			} else {
				line, rest = rest, ""
			}
			if header {
				header = false
				continue
			}
			row := Row(strings.Split(strings.TrimSuffix(line, "\r"), ","))
			if !row.Valid() {
				continue
			}
			if !yield(row) {
				return
			}
		}
	}
}

// CollectRows drains seq into a non-nil slice.
func CollectRows(seq iter.Seq[Row]) []Row {
	rows := []Row{}
	for row := range seq {
		rows = append(rows, row)
	}
	return rows
}

// ReadResults reads and parses the result artifact at path.
func ReadResults(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactError{Op: "read", Path: path, Err: err}
	}
	return CollectRows(ParseResults(string(data))), nil
}
