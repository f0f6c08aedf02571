package table

import (
	"bytes"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/rentlens-cli/internal/utils"
)

const maxSheetName = 31

// WriteXLSX writes the table to a single-sheet workbook at path. The title and
// subtitle occupy the first rows, followed by bold headers and the data.
func (t *Table) WriteXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	if utf8.RuneCountInString(sheet) > maxSheetName {
		sheet = string([]rune(sheet)[:maxSheetName])
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return eris.Wrap(err, "table: name sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return eris.Wrap(err, "table: header style")
	}
	italic, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true}})
	if err != nil {
		return eris.Wrap(err, "table: body style")
	}

	row := 1
	setRow := func(cells []string) error {
		vals := make([]interface{}, len(cells))
		for i, c := range cells {
			vals[i] = c
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return eris.Wrapf(err, "table: write row %d", row)
		}
		row++
		return nil
	}

	if err := setRow([]string{t.Title}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", bold); err != nil {
		return eris.Wrap(err, "table: title style")
	}
	if t.Subtitle != "" {
		if err := setRow([]string{t.Subtitle}); err != nil {
			return err
		}
	}
	row++ // blank spacer

	headerRow := row
	if err := setRow(t.Headers); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(t.Headers), headerRow)
	if err := f.SetCellStyle(sheet, first, last, bold); err != nil {
		return eris.Wrap(err, "table: header style")
	}

	for _, r := range t.Rows {
		if err := setRow(r); err != nil {
			return err
		}
	}
	if t.ItalicFirstColumn && len(t.Rows) > 0 {
		top, _ := excelize.CoordinatesToCellName(1, headerRow+1)
		bottom, _ := excelize.CoordinatesToCellName(1, row-1)
		if err := f.SetCellStyle(sheet, top, bottom, italic); err != nil {
			return eris.Wrap(err, "table: body style")
		}
	}

	for i := range t.Headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, float64(columnWidth(t, i)+2)); err != nil {
			return eris.Wrap(err, "table: column width")
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return eris.Wrap(err, "table: encode xlsx")
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return eris.Wrapf(err, "table: write %s", path)
	}
	return nil
}

// columnWidth is the widest cell of column i in characters.
func columnWidth(t *Table, i int) int {
	w := 0
	if i < len(t.Headers) {
		w = utf8.RuneCountInString(t.Headers[i])
	}
	for _, r := range t.Rows {
		if i < len(r) {
			if n := utf8.RuneCountInString(r[i]); n > w {
				w = n
			}
		}
	}
	return w
}
