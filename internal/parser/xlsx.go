package parser

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// ParseFile reads the configured sheet (or the first one) using the cells'
// displayed values, so currency columns keep their thousands separators.
func (xlsxParser) ParseFile(path string, opt Options) (*Fragment, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: open %s", filepath.Base(path))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, eris.Wrapf(ErrEmpty, "parser: %s has no sheets", filepath.Base(path))
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, eris.Errorf("parser: sheet %q not found in %s (available: %s)",
				opt.Sheet, filepath.Base(path), strings.Join(sheets, ", "))
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: read sheet %q of %s", sheet, filepath.Base(path))
	}
	if len(rows) == 0 {
		return nil, eris.Wrapf(ErrEmpty, "parser: %s", filepath.Base(path))
	}
	return &Fragment{Header: rows[0], Rows: rows[1:]}, nil
}
