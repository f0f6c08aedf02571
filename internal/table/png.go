package table

import (
	"bytes"
	"image/color"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/rentlens-cli/internal/utils"
)

const pngDPI = 144

var (
	headerFill = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	ruleColor  = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	// The first column is set apart in gray since the bundled fonts are drawn upright.
	firstColColor = color.RGBA{R: 70, G: 70, B: 70, A: 255}
)

func textStyle(size vg.Length, c color.Color, xalign text.XAlignment) text.Style {
	return text.Style{
		Color:   c,
		Font:    font.Font{Typeface: "Liberation", Variant: "Sans", Size: size},
		XAlign:  xalign,
		YAlign:  draw.YCenter,
		Handler: plot.DefaultTextHandler,
	}
}

// WritePNG draws the table as an image at path.
func (t *Table) WritePNG(path string) error {
	var (
		pad      = vg.Points(8)
		margin   = vg.Points(16)
		rowH     = vg.Points(22)
		titleSty = textStyle(vg.Points(16), color.Black, draw.XCenter)
		subSty   = textStyle(vg.Points(11), firstColColor, draw.XCenter)
		headSty  = textStyle(vg.Points(11), color.Black, draw.XLeft)
		bodySty  = textStyle(vg.Points(11), color.Black, draw.XLeft)
		firstSty = textStyle(vg.Points(11), firstColColor, draw.XLeft)
	)

	cols := make([]vg.Length, len(t.Headers))
	for i, h := range t.Headers {
		cols[i] = headSty.Width(h)
	}
	for _, r := range t.Rows {
		for i := 0; i < len(cols) && i < len(r); i++ {
			if w := bodySty.Width(r[i]); w > cols[i] {
				cols[i] = w
			}
		}
	}
	var tableW vg.Length
	for i := range cols {
		cols[i] += 2 * pad
		tableW += cols[i]
	}
	if w := titleSty.Width(t.Title) + 2*pad; w > tableW {
		tableW = w
	}
	if w := subSty.Width(t.Subtitle) + 2*pad; w > tableW {
		tableW = w
	}

	heading := rowH * 1.5
	if t.Subtitle != "" {
		heading += rowH
	}
	width := tableW + 2*margin
	height := 2*margin + heading + rowH*vg.Length(len(t.Rows)+1)

	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(pngDPI))
	dc := draw.New(img)
	dc.FillPolygon(color.White, rect(0, 0, width, height))

	// vg's origin is bottom-left; y walks down from the top margin.
	y := height - margin
	cx := width / 2
	dc.FillText(titleSty, vg.Point{X: cx, Y: y - rowH*0.75}, t.Title)
	y -= rowH * 1.5
	if t.Subtitle != "" {
		dc.FillText(subSty, vg.Point{X: cx, Y: y - rowH/2}, t.Subtitle)
		y -= rowH
	}

	left := margin
	right := margin + tableW
	rule := draw.LineStyle{Color: ruleColor, Width: vg.Points(0.75)}
	dc.FillPolygon(headerFill, rect(left, y-rowH, right, y))
	dc.StrokeLine2(draw.LineStyle{Color: color.Black, Width: vg.Points(1)}, left, y, right, y)
	drawRow(dc, t.Headers, cols, left, y-rowH/2, pad, headSty, headSty)
	y -= rowH
	dc.StrokeLine2(draw.LineStyle{Color: color.Black, Width: vg.Points(1)}, left, y, right, y)

	first := bodySty
	if t.ItalicFirstColumn {
		first = firstSty
	}
	for _, r := range t.Rows {
		drawRow(dc, r, cols, left, y-rowH/2, pad, first, bodySty)
		y -= rowH
		dc.StrokeLine2(rule, left, y, right, y)
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return eris.Wrap(err, "table: encode png")
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return eris.Wrapf(err, "table: write %s", path)
	}
	return nil
}

func drawRow(dc draw.Canvas, cells []string, cols []vg.Length, x, y, pad vg.Length, first, rest text.Style) {
	for i, w := range cols {
		if i < len(cells) {
			sty := rest
			if i == 0 {
				sty = first
			}
			dc.FillText(sty, vg.Point{X: x + pad, Y: y}, cells[i])
		}
		x += w
	}
}

func rect(x0, y0, x1, y1 vg.Length) []vg.Point {
	return []vg.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}
