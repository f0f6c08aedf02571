package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvParser struct {
	ext   string
	comma rune
}

func (p csvParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), p.ext)
}

func (p csvParser) ParseFile(path string, _ Options) (*Fragment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: read %s", filepath.Base(path))
	}
	// Exports from Excel often carry a BOM that would otherwise stick to the first column name.
	content = bytes.TrimPrefix(content, utf8BOM)

	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = p.comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.Wrapf(ErrEmpty, "parser: %s", filepath.Base(path))
		}
		return nil, eris.Wrapf(err, "parser: read header of %s", filepath.Base(path))
	}
	frag := &Fragment{Header: header}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "parser: read row %d of %s", len(frag.Rows)+2, filepath.Base(path))
		}
		frag.Rows = append(frag.Rows, rec)
	}
	return frag, nil
}
