package contacts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeSheet builds a spreadsheet with the campaign header row plus the
// given contact rows.
func writeSheet(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []interface{}{ColFirstName, ColLastName, ColURL, ColSent, ColComments}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestOpenValidation(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
		assert.Error(t, err)
	})

	t.Run("missing required column", func(t *testing.T) {
		f := excelize.NewFile()
		sheet := f.GetSheetName(0)
		header := []interface{}{ColFirstName, ColLastName, ColURL}
		require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
		path := filepath.Join(t.TempDir(), "bad.xlsx")
		require.NoError(t, f.SaveAs(path))
		require.NoError(t, f.Close())

		_, err := Open(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ColSent)
	})
}

func TestReadRow(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		{"דנה", "לוי", "https://wa.me/972501234567", "", ""},
		{"", "", "https://wa.me/972", "", ""},
	})

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 3, src.LastRow())

	row, err := src.Read(2)
	require.NoError(t, err)
	assert.Equal(t, 2, row.Number)
	assert.Equal(t, "דנה", row.FirstName)
	assert.Equal(t, "לוי", row.LastName)
	assert.Equal(t, "https://wa.me/972501234567", row.ChatURL)
	assert.Equal(t, "דנה לוי", row.PersonID())

	unnamed, err := src.Read(3)
	require.NoError(t, err)
	assert.Equal(t, "", unnamed.PersonID())
}

func TestMarkPersists(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		{"דנה", "לוי", "https://wa.me/972501234567", "", ""},
	})

	src, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, src.Mark(2, "כן", "", true))
	require.NoError(t, src.Close())

	// Every Mark saves the workbook, so a fresh open must see the change.
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	row, err := reopened.Read(2)
	require.NoError(t, err)
	assert.Equal(t, "כן", row.Sent)
}

func TestMarkWritesComment(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		{"דנה", "לוי", "https://wa.me/972", "", ""},
	})

	src, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, src.Mark(2, "לא", "Duplicate contact", false))
	require.NoError(t, src.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	row, err := reopened.Read(2)
	require.NoError(t, err)
	assert.Equal(t, "לא", row.Sent)
	assert.Equal(t, "Duplicate contact", row.Comment)
}
