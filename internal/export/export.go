/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders diagram elements to write-only formats: PNG raster images and
// PDF documents. Exported files cannot be opened again as documents.
package export

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"godiagram/internal/domain"
)

var (
	// ErrNothingToExport is returned for an empty element list.
	ErrNothingToExport = errors.New("nothing to export")
	// ErrUnsupportedFormat is returned by ToFile for unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrCanvasTooLarge is returned by PNG when the scaled extent exceeds MaxCanvasSide.
	ErrCanvasTooLarge = errors.New("canvas too large")
)

// Options controls rendering. Zero values get defaults.
type Options struct {
	// Scale is output pixels per diagram unit (PNG only).
	Scale float64
	// Margin in diagram units around the element bounds.
	Margin float64
	// Background fills the canvas; a zero color means white.
	Background domain.Color
	// GroupOutline draws a dashed frame around groups.
	GroupOutline bool
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Margin < 0 {
		o.Margin = 0
	}
	if o.Background == (domain.Color{}) {
		o.Background = domain.Color{R: 255, G: 255, B: 255, A: 255}
	}
	return o
}

// IsExportPath reports whether path names an export format rather than a document.
func IsExportPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".pdf":
		return true
	}
	return false
}

// ToFile exports els to path, choosing the format from the extension.
func ToFile(path string, els []*domain.Element, opt Options) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG(path, els, opt)
	case ".pdf":
		return PDF(path, els, opt)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// extent returns the bounds enclosing all elements, connector end points included.
func extent(els []*domain.Element) (domain.Rect, bool) {
	var b domain.Rect
	found := false
	for _, top := range els {
		top.Walk(func(e *domain.Element) bool {
			r := e.Bounds
			if e.IsConnector() {
				r = domain.RectFromPoints(e.Start, e.End)
			}
			if !found {
				b, found = r, true
			} else {
				b = b.Union(r)
			}
			return true
		})
	}
	return b, found
}

// arrowHead returns the two base corners of an arrow head pointing from a to b.
func arrowHead(a, b domain.Point, size float64) (domain.Point, domain.Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l < 1e-9 {
		return domain.Point{}, domain.Point{}, false
	}
	dx, dy = dx/l, dy/l
	const spread = 0.5
	p1 := domain.Point{X: b.X - size*dx + size*dy*spread, Y: b.Y - size*dy - size*dx*spread}
	p2 := domain.Point{X: b.X - size*dx - size*dy*spread, Y: b.Y - size*dy + size*dx*spread}
	return p1, p2, true
}

// diamond returns the corner points of the diamond inscribed in r, clockwise from the top.
func diamond(r domain.Rect) [4]domain.Point {
	c := r.Center()
	return [4]domain.Point{
		{X: c.X, Y: r.Y},
		{X: r.X + r.Width, Y: c.Y},
		{X: c.X, Y: r.Y + r.Height},
		{X: r.X, Y: c.Y},
	}
}
