package parser

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Fragment is one tabular input file: a header row plus data rows.
// Rows may be ragged; consumers pad or ignore missing trailing cells.
type Fragment struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Options tunes how fragments are read.
type Options struct {
	// Sheet selects the XLSX sheet; empty means the first sheet.
	Sheet string
}

// Parser defines a fragment parser implementation.
type Parser interface {
	CanParse(filename string) bool
	ParseFile(path string, opt Options) (*Fragment, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// Recognized reports whether any registered parser handles the file name.
func Recognized(path string) bool {
	return find(path) != nil
}

// ParseFile selects a parser based on the file extension.
func ParseFile(path string, opt Options) (*Fragment, error) {
	p := find(path)
	if p == nil {
		return nil, eris.Wrapf(ErrUnsupported, "parser: %s", filepath.Base(path))
	}
	frag, err := p.ParseFile(path, opt)
	if err != nil {
		return nil, err
	}
	frag.Name = filepath.Base(path)
	for i := range frag.Header {
		frag.Header[i] = strings.TrimSpace(frag.Header[i])
	}
	return frag, nil
}

func find(path string) Parser {
	for _, p := range registry {
		if p.CanParse(path) {
			return p
		}
	}
	return nil
}

func init() {
	Register(csvParser{ext: ".csv", comma: ','})
	Register(csvParser{ext: ".tsv", comma: '\t'})
	Register(xlsxParser{})
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = eris.New("unsupported fragment format")

// ErrEmpty indicates a fragment without a header row.
var ErrEmpty = eris.New("fragment has no header row")
