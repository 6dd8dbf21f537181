// Package resume persists the run position between invocations. The state
// file is a small hand-editable text file; losing or corrupting it only
// means the run starts over from the defaults, never that a row is skipped.
package resume

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultStartRow is the first data row; row 1 is the header.
	DefaultStartRow = 2
	// DefaultBatchSize caps how many rows a single run processes.
	DefaultBatchSize = 50
)

// State is the persisted run position. StartRow is the next row to process,
// in spreadsheet row numbers (1-based, header at row 1).
type State struct {
	Spreadsheet string
	StartRow    int
	BatchSize   int
}

// Tracker reads and rewrites the state file. It is rewritten after every
// row; a crash between writes can at worst replay one row, never skip one.
type Tracker struct {
	path string
}

func NewTracker(path string) *Tracker {
	return &Tracker{path: path}
}

// Load returns the persisted state. A missing file, or any line that does
// not parse, falls back to the defaults — a malformed state file is treated
// as "start from the beginning", not as an error.
func (t *Tracker) Load(defaultSpreadsheet string) State {
	st := State{
		Spreadsheet: defaultSpreadsheet,
		StartRow:    DefaultStartRow,
		BatchSize:   DefaultBatchSize,
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		return st
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "excel_file":
			if value != "" {
				st.Spreadsheet = value
			}
		case "start_row":
			if n, err := strconv.Atoi(value); err == nil && n >= DefaultStartRow {
				st.StartRow = n
			}
		case "rows_to_process":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				st.BatchSize = n
			}
		}
	}

	return st
}

// Save overwrites the state file. No atomic rename; the accepted failure
// mode is one replayed row.
func (t *Tracker) Save(st State) error {
	var b strings.Builder
	b.WriteString("# WhatsApp Automation Run State\n")
	fmt.Fprintf(&b, "excel_file: %s\n", st.Spreadsheet)
	fmt.Fprintf(&b, "start_row: %d\n", st.StartRow)
	fmt.Fprintf(&b, "rows_to_process: %d\n", st.BatchSize)
	b.WriteString("# Edit these values to control which file, row, and how many rows to process.\n")
	b.WriteString("# The tool updates start_row as it progresses.\n")

	if err := os.WriteFile(t.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("save run state %s: %w", t.path, err)
	}
	return nil
}
