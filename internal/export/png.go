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
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"godiagram/internal/domain"
	applog "godiagram/internal/log"
)

const arrowSize = 8.0

// MaxCanvasSide caps either side of a PNG export in pixels.
const MaxCanvasSide = 16384

// PNG renders els into a PNG image at path.
func PNG(path string, els []*domain.Element, opt Options) error {
	l := applog.WithOperation(applog.WithComponent("export"), "png").With(slog.String("path", path))
	b, ok := extent(els)
	if !ok {
		return ErrNothingToExport
	}
	opt = opt.withDefaults()

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	r := &rasterizer{
		opt:   opt,
		ttf:   ttf,
		faces: make(map[float64]font.Face),
		ox:    b.X - opt.Margin,
		oy:    b.Y - opt.Margin,
	}
	fw := math.Ceil((b.Width + 2*opt.Margin) * opt.Scale)
	fh := math.Ceil((b.Height + 2*opt.Margin) * opt.Scale)
	if !(fw <= MaxCanvasSide && fh <= MaxCanvasSide) {
		return fmt.Errorf("%w: %.0fx%.0f px, limit %d", ErrCanvasTooLarge, fw, fh, MaxCanvasSide)
	}
	w, h := int(fw), int(fh)
	dc := gg.NewContext(max(w, 1), max(h, 1))
	dc.SetColor(rgba(opt.Background))
	dc.Clear()

	for _, el := range els {
		r.draw(dc, el)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	l.Debug("exported", slog.Int("width", dc.Width()), slog.Int("height", dc.Height()))
	return nil
}

type rasterizer struct {
	opt    Options
	ttf    *truetype.Font
	faces  map[float64]font.Face
	ox, oy float64
}

func (r *rasterizer) pt(p domain.Point) (float64, float64) {
	return (p.X - r.ox) * r.opt.Scale, (p.Y - r.oy) * r.opt.Scale
}

func (r *rasterizer) rect(b domain.Rect) (x, y, w, h float64) {
	x, y = r.pt(b.Min())
	return x, y, b.Width * r.opt.Scale, b.Height * r.opt.Scale
}

func (r *rasterizer) face(size float64) font.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(r.ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	r.faces[size] = f
	return f
}

func (r *rasterizer) draw(dc *gg.Context, el *domain.Element) {
	switch el.Kind {
	case domain.KindGroup:
		for _, c := range el.Children {
			r.draw(dc, c)
		}
		if r.opt.GroupOutline {
			x, y, w, h := r.rect(el.Bounds)
			dc.SetDash(4, 3)
			dc.SetLineWidth(1)
			dc.SetColor(color.RGBA{R: 90, G: 90, B: 90, A: 255})
			dc.DrawRectangle(x, y, w, h)
			dc.Stroke()
			dc.SetDash()
		}
	case domain.KindConnector:
		r.connector(dc, el)
	default:
		r.shape(dc, el)
	}
}

func (r *rasterizer) shape(dc *gg.Context, el *domain.Element) {
	x, y, w, h := r.rect(el.Bounds)
	switch el.Shape {
	case domain.ShapeText:
	case domain.ShapeEllipse:
		dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
		r.fillStroke(dc, el.Style)
	case domain.ShapeDiamond:
		for i, p := range diamond(el.Bounds) {
			px, py := r.pt(p)
			if i == 0 {
				dc.MoveTo(px, py)
			} else {
				dc.LineTo(px, py)
			}
		}
		dc.ClosePath()
		r.fillStroke(dc, el.Style)
	default:
		dc.DrawRectangle(x, y, w, h)
		r.fillStroke(dc, el.Style)
	}
	r.label(dc, el.Text, el.Style, el.Bounds.Center(), el.Bounds.Width)
}

func (r *rasterizer) fillStroke(dc *gg.Context, st domain.Style) {
	if st.Fill.A > 0 {
		dc.SetColor(rgba(st.Fill))
		dc.FillPreserve()
	}
	if st.Stroke.Width > 0 && st.Stroke.Color.A > 0 {
		dc.SetColor(rgba(st.Stroke.Color))
		dc.SetLineWidth(st.Stroke.Width * r.opt.Scale)
		dc.StrokePreserve()
	}
	dc.ClearPath()
}

func (r *rasterizer) label(dc *gg.Context, text string, st domain.Style, at domain.Point, maxWidth float64) {
	if text == "" {
		return
	}
	size := st.FontSize
	if size <= 0 {
		size = domain.DefaultStyle().FontSize
	}
	dc.SetFontFace(r.face(size * r.opt.Scale))
	col := st.Stroke.Color
	if col.A == 0 {
		col = domain.Color{A: 255}
	}
	dc.SetColor(rgba(col))
	lines := wrapText(text, maxWidth*r.opt.Scale, func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	})
	lineH := size * r.opt.Scale * lineSpacing
	cx, cy := r.pt(at)
	cy += firstBaseline(len(lines), lineH)
	for i, line := range lines {
		dc.DrawStringAnchored(line, cx, cy+float64(i)*lineH, 0.5, 0.35)
	}
}

func (r *rasterizer) connector(dc *gg.Context, el *domain.Element) {
	st := el.Style.Stroke
	if st.Width <= 0 {
		st.Width = 1
	}
	if st.Color.A == 0 {
		st.Color = domain.Color{A: 255}
	}
	dc.SetColor(rgba(st.Color))
	dc.SetLineWidth(st.Width * r.opt.Scale)
	x1, y1 := r.pt(el.Start)
	x2, y2 := r.pt(el.End)
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()

	if p1, p2, ok := arrowHead(el.Start, el.End, arrowSize); ok {
		ax, ay := r.pt(p1)
		bx, by := r.pt(p2)
		dc.MoveTo(x2, y2)
		dc.LineTo(ax, ay)
		dc.LineTo(bx, by)
		dc.ClosePath()
		dc.Fill()
	}
	if el.Text != "" {
		mid := domain.Point{X: (el.Start.X + el.End.X) / 2, Y: (el.Start.Y + el.End.Y) / 2}
		r.label(dc, el.Text, el.Style, mid, 0)
	}
}

func rgba(c domain.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
