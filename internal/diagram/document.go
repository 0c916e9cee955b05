/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package diagram holds the in-memory document the editor works on: the ordered top-level
// elements (index is z-order, last paints on top) and the current selection.
package diagram

import (
	"slices"

	"godiagram/internal/domain"
)

// Document is the ordered list of top-level elements plus the selection. Selection only
// ever refers to top-level elements. Not safe for concurrent use.
type Document struct {
	elements []*domain.Element
	selected []*domain.Element
}

func New() *Document { return &Document{} }

// Elements returns the top-level elements in z-order. The slice is a copy.
func (d *Document) Elements() []*domain.Element { return slices.Clone(d.elements) }

// SelectedElements returns the selection in the order it was made. The slice is a copy.
func (d *Document) SelectedElements() []*domain.Element { return slices.Clone(d.selected) }

func (d *Document) Len() int                         { return len(d.elements) }
func (d *Document) At(i int) *domain.Element         { return d.elements[i] }
func (d *Document) IsEmpty() bool                    { return len(d.elements) == 0 }
func (d *Document) Contains(el *domain.Element) bool { return d.Index(el) >= 0 }

// Index returns the position of el among the top-level elements, or -1.
func (d *Document) Index(el *domain.Element) int {
	return slices.Index(d.elements, el)
}

// Find returns the top-level element with the given id.
func (d *Document) Find(id domain.ID) *domain.Element {
	for _, el := range d.elements {
		if el.ID == id {
			return el
		}
	}
	return nil
}

// AddRange appends els on top of the existing elements.
func (d *Document) AddRange(els ...*domain.Element) {
	d.elements = append(d.elements, els...)
}

// Clear removes all elements and the selection.
func (d *Document) Clear() {
	d.elements = nil
	d.selected = nil
}

// SelectElement adds el to the selection if it is a top-level element not yet selected.
func (d *Document) SelectElement(el *domain.Element) {
	if el == nil || !d.Contains(el) || slices.Contains(d.selected, el) {
		return
	}
	d.selected = append(d.selected, el)
}

// SelectElements replaces the selection. Elements that are not top-level are ignored.
func (d *Document) SelectElements(els []*domain.Element) {
	d.selected = nil
	for _, el := range els {
		d.SelectElement(el)
	}
}

func (d *Document) DeselectCurrentSelectedElements() { d.selected = nil }

// IsSelected reports whether el is part of the selection.
func (d *Document) IsSelected(el *domain.Element) bool { return slices.Contains(d.selected, el) }

// SelectedInOrder returns the selection sorted by z-order.
func (d *Document) SelectedInOrder() []*domain.Element {
	out := make([]*domain.Element, 0, len(d.selected))
	for _, el := range d.elements {
		if slices.Contains(d.selected, el) {
			out = append(out, el)
		}
	}
	return out
}

// InsertAt puts el at index i, shifting later elements up. i is clamped to [0, Len].
func (d *Document) InsertAt(i int, el *domain.Element) {
	i = max(0, min(i, len(d.elements)))
	d.elements = slices.Insert(d.elements, i, el)
}

// Remove takes els out of the top level and drops them from the selection. It returns the
// index each element had before the call, -1 for elements that were not present.
func (d *Document) Remove(els ...*domain.Element) []int {
	idx := make([]int, len(els))
	for i, el := range els {
		idx[i] = d.Index(el)
	}
	d.elements = slices.DeleteFunc(d.elements, func(e *domain.Element) bool {
		return slices.Contains(els, e)
	})
	d.selected = slices.DeleteFunc(d.selected, func(e *domain.Element) bool {
		return slices.Contains(els, e)
	})
	return idx
}

// Restore re-inserts els at the indices Remove reported for them. Elements are inserted
// in ascending index order so each one lands where it was.
func (d *Document) Restore(els []*domain.Element, idx []int) {
	order := make([]int, 0, len(els))
	for i := range els {
		if idx[i] >= 0 {
			order = append(order, i)
		}
	}
	slices.SortFunc(order, func(a, b int) int { return idx[a] - idx[b] })
	for _, i := range order {
		d.InsertAt(idx[i], els[i])
	}
}
