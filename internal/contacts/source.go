// Package contacts reads and annotates the campaign spreadsheet. Columns
// are located by header name so the operator can reorder them freely.
package contacts

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Header names the source spreadsheet must carry in row 1.
const (
	ColFirstName = "First Name"
	ColLastName  = "Last Name"
	ColURL       = "URLs"
	ColSent      = "Message Sent?"
	ColComments  = "Comments"
)

// Row is one contact entry.
type Row struct {
	// Number is the spreadsheet row number (1-based, header at row 1).
	Number    int
	FirstName string
	LastName  string
	ChatURL   string
	Sent      string
	Comment   string
}

// PersonID is the ledger identity for the contact: the full name with
// surrounding whitespace trimmed. Empty when the row carries no name.
func (r Row) PersonID() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Source wraps the campaign spreadsheet. Every Mark call persists the whole
// workbook, so a crash mid-run loses at most the current row's annotation.
type Source struct {
	path    string
	file    *excelize.File
	sheet   string
	cols    map[string]string // header name -> column letter
	lastRow int
}

// Open loads the spreadsheet and resolves the header columns.
func Open(path string) (*Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", path, err)
	}

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		f.Close()
		return nil, fmt.Errorf("spreadsheet %s: missing header row", path)
	}

	cols := make(map[string]string)
	for i, header := range rows[0] {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cols[strings.TrimSpace(header)] = name
	}
	for _, required := range []string{ColFirstName, ColLastName, ColURL, ColSent, ColComments} {
		if _, ok := cols[required]; !ok {
			f.Close()
			return nil, fmt.Errorf("spreadsheet %s: missing column %q", path, required)
		}
	}

	return &Source{
		path:    path,
		file:    f,
		sheet:   sheet,
		cols:    cols,
		lastRow: len(rows),
	}, nil
}

// LastRow returns the number of the final populated row.
func (s *Source) LastRow() int {
	return s.lastRow
}

// Read returns the contact at the given spreadsheet row number.
func (s *Source) Read(rowNum int) (Row, error) {
	get := func(header string) (string, error) {
		cell := fmt.Sprintf("%s%d", s.cols[header], rowNum)
		v, err := s.file.GetCellValue(s.sheet, cell)
		if err != nil {
			return "", fmt.Errorf("read cell %s: %w", cell, err)
		}
		return strings.TrimSpace(v), nil
	}

	var row Row
	var err error
	row.Number = rowNum
	if row.FirstName, err = get(ColFirstName); err != nil {
		return Row{}, err
	}
	if row.LastName, err = get(ColLastName); err != nil {
		return Row{}, err
	}
	if row.ChatURL, err = get(ColURL); err != nil {
		return Row{}, err
	}
	if row.Sent, err = get(ColSent); err != nil {
		return Row{}, err
	}
	if row.Comment, err = get(ColComments); err != nil {
		return Row{}, err
	}
	return row, nil
}

// Mark writes the status and comment cells for a row, applies a green fill
// when highlight is set, and saves the workbook immediately.
func (s *Source) Mark(rowNum int, status, comment string, highlight bool) error {
	sentCell := fmt.Sprintf("%s%d", s.cols[ColSent], rowNum)
	if err := s.file.SetCellValue(s.sheet, sentCell, status); err != nil {
		return fmt.Errorf("write status cell %s: %w", sentCell, err)
	}

	if comment != "" {
		commentCell := fmt.Sprintf("%s%d", s.cols[ColComments], rowNum)
		if err := s.file.SetCellValue(s.sheet, commentCell, comment); err != nil {
			return fmt.Errorf("write comment cell %s: %w", commentCell, err)
		}
	}

	if highlight {
		styleID, err := s.file.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C6EFCE"}},
		})
		if err != nil {
			return fmt.Errorf("create highlight style: %w", err)
		}
		start := fmt.Sprintf("%s%d", s.cols[ColFirstName], rowNum)
		end := fmt.Sprintf("%s%d", s.cols[ColComments], rowNum)
		if err := s.file.SetCellStyle(s.sheet, start, end, styleID); err != nil {
			return fmt.Errorf("highlight row %d: %w", rowNum, err)
		}
	}

	return s.Save()
}

// Save persists the workbook to its original path.
func (s *Source) Save() error {
	if err := s.file.Save(); err != nil {
		return fmt.Errorf("save spreadsheet %s: %w", s.path, err)
	}
	return nil
}

// Close releases the underlying file handle.
func (s *Source) Close() error {
	return s.file.Close()
}
