/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"godiagram/internal/domain"
	applog "godiagram/internal/log"
	"godiagram/internal/version"
)

// PDF writes els to a single-page PDF at path. One diagram unit maps to one point; the
// page is sized to the element bounds plus the margin.
func PDF(path string, els []*domain.Element, opt Options) error {
	l := applog.WithOperation(applog.WithComponent("export"), "pdf").With(slog.String("path", path))
	b, ok := extent(els)
	if !ok {
		return ErrNothingToExport
	}
	opt = opt.withDefaults()

	w := max(b.Width+2*opt.Margin, 1)
	h := max(b.Height+2*opt.Margin, 1)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetTitle(filepath.Base(path), true)
	pdf.SetCreator("godiagram "+version.String(), true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: w, Ht: h})

	bg := opt.Background
	setFillColor(pdf, bg)
	pdf.Rect(0, 0, w, h, "F")

	p := &pdfPainter{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		opt: opt,
		ox:  b.X - opt.Margin,
		oy:  b.Y - opt.Margin,
	}
	for _, el := range els {
		p.draw(el)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	l.Debug("exported", slog.Float64("width", w), slog.Float64("height", h))
	return nil
}

type pdfPainter struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	opt    Options
	ox, oy float64
}

func (p *pdfPainter) pt(q domain.Point) (float64, float64) { return q.X - p.ox, q.Y - p.oy }

func (p *pdfPainter) draw(el *domain.Element) {
	switch el.Kind {
	case domain.KindGroup:
		for _, c := range el.Children {
			p.draw(c)
		}
		if p.opt.GroupOutline {
			x, y := p.pt(el.Bounds.Min())
			p.pdf.SetDashPattern([]float64{4, 3}, 0)
			p.pdf.SetLineWidth(0.5)
			p.pdf.SetDrawColor(90, 90, 90)
			p.pdf.Rect(x, y, el.Bounds.Width, el.Bounds.Height, "D")
			p.pdf.SetDashPattern([]float64{}, 0)
		}
	case domain.KindConnector:
		p.connector(el)
	default:
		p.shape(el)
	}
}

// style sets fill and stroke from st and returns the gofpdf draw style, "" when there is
// nothing to paint.
func (p *pdfPainter) style(st domain.Style) string {
	s := ""
	if st.Fill.A > 0 {
		setFillColor(p.pdf, st.Fill)
		s += "F"
	}
	if st.Stroke.Width > 0 && st.Stroke.Color.A > 0 {
		setDrawColor(p.pdf, st.Stroke.Color)
		p.pdf.SetLineWidth(st.Stroke.Width)
		s += "D"
	}
	return s
}

func (p *pdfPainter) shape(el *domain.Element) {
	x, y := p.pt(el.Bounds.Min())
	w, h := el.Bounds.Width, el.Bounds.Height
	if el.Shape != domain.ShapeText {
		if s := p.style(el.Style); s != "" {
			switch el.Shape {
			case domain.ShapeEllipse:
				p.pdf.Ellipse(x+w/2, y+h/2, w/2, h/2, 0, s)
			case domain.ShapeDiamond:
				var pts []gofpdf.PointType
				for _, q := range diamond(el.Bounds) {
					px, py := p.pt(q)
					pts = append(pts, gofpdf.PointType{X: px, Y: py})
				}
				p.pdf.Polygon(pts, s)
			default:
				p.pdf.Rect(x, y, w, h, s)
			}
		}
	}
	p.label(el.Text, el.Style, el.Bounds.Center(), el.Bounds.Width)
}

func (p *pdfPainter) label(text string, st domain.Style, at domain.Point, maxWidth float64) {
	if text == "" {
		return
	}
	size := st.FontSize
	if size <= 0 {
		size = domain.DefaultStyle().FontSize
	}
	col := st.Stroke.Color
	if col.A == 0 {
		col = domain.Color{A: 255}
	}
	p.pdf.SetFont("Helvetica", "", size)
	p.pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
	lines := wrapText(p.tr(text), maxWidth, p.pdf.GetStringWidth)
	lineH := size * lineSpacing
	x, y := p.pt(at)
	y += firstBaseline(len(lines), lineH)
	for i, line := range lines {
		p.pdf.Text(x-p.pdf.GetStringWidth(line)/2, y+float64(i)*lineH+size*0.35, line)
	}
}

func (p *pdfPainter) connector(el *domain.Element) {
	st := el.Style.Stroke
	if st.Width <= 0 {
		st.Width = 1
	}
	if st.Color.A == 0 {
		st.Color = domain.Color{A: 255}
	}
	setDrawColor(p.pdf, st.Color)
	setFillColor(p.pdf, st.Color)
	p.pdf.SetLineWidth(st.Width)
	x1, y1 := p.pt(el.Start)
	x2, y2 := p.pt(el.End)
	p.pdf.Line(x1, y1, x2, y2)
	if a, b, ok := arrowHead(el.Start, el.End, arrowSize); ok {
		ax, ay := p.pt(a)
		bx, by := p.pt(b)
		p.pdf.Polygon([]gofpdf.PointType{{X: x2, Y: y2}, {X: ax, Y: ay}, {X: bx, Y: by}}, "F")
	}
	mid := domain.Point{X: (el.Start.X + el.End.X) / 2, Y: (el.Start.Y + el.End.Y) / 2}
	p.label(el.Text, el.Style, mid, 0)
}

func setDrawColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c domain.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
