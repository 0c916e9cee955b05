/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"godiagram/internal/domain"
	"godiagram/internal/persist"
	"godiagram/internal/registry"
	"godiagram/internal/undo"
)

// Add places els on top of the document, registers them and selects them.
func (s *Session) Add(els ...*domain.Element) error {
	return s.add("Add", els)
}

func (s *Session) add(label string, els []*domain.Element) error {
	if len(els) == 0 {
		return nil
	}
	if err := s.checkFree(els); err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(label), err)
	}
	prevSel := s.Doc.SelectedElements()
	var idx []int
	return s.Stack.Do(&step{
		label: label,
		apply: func() error {
			for i, el := range els {
				if err := s.Reg.AddTree(el); err != nil {
					for _, done := range els[:i] {
						s.Reg.RemoveTree(done)
					}
					return err
				}
			}
			if idx == nil {
				idx = make([]int, len(els))
				for i := range els {
					idx[i] = s.Doc.Len() + i
				}
			}
			s.Doc.Restore(els, idx)
			s.Doc.SelectElements(els)
			return nil
		},
		revert: func() error {
			s.Doc.Remove(els...)
			for _, el := range els {
				s.Reg.RemoveTree(el)
			}
			s.Doc.SelectElements(prevSel)
			return nil
		},
	})
}

// Connect adds a connector bound to the top-level elements from and to.
func (s *Session) Connect(from, to domain.ID) (*domain.Element, error) {
	a, b := s.Doc.Find(from), s.Doc.Find(to)
	if a == nil {
		return nil, fmt.Errorf("connect: %w: %s", registry.ErrNotFound, from)
	}
	if b == nil {
		return nil, fmt.Errorf("connect: %w: %s", registry.ErrNotFound, to)
	}
	c := domain.NewConnector(s.Reg.NewID(), a.Bounds.Center(), b.Bounds.Center(), a.ID, b.ID)
	if err := s.add("Connect", []*domain.Element{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// binding records one connector end that pointed at a deleted element.
type binding struct {
	conn  *domain.Element
	start bool
	id    domain.ID
}

// Delete removes the selection. Connectors left behind lose their binding to the deleted
// elements; undo restores both. It reports whether anything was deleted.
func (s *Session) Delete() bool {
	sel := s.Doc.SelectedInOrder()
	if len(sel) == 0 {
		return false
	}
	prevSel := s.Doc.SelectedElements()
	gone := make(map[domain.ID]bool)
	for _, el := range sel {
		el.Walk(func(e *domain.Element) bool {
			gone[e.ID] = true
			return true
		})
	}
	var binds []binding
	for _, top := range s.Doc.Elements() {
		top.Walk(func(e *domain.Element) bool {
			if !e.IsConnector() || gone[e.ID] {
				return true
			}
			if e.StartID != "" && gone[e.StartID] {
				binds = append(binds, binding{conn: e, start: true, id: e.StartID})
			}
			if e.EndID != "" && gone[e.EndID] {
				binds = append(binds, binding{conn: e, id: e.EndID})
			}
			return true
		})
	}

	unbind := &step{
		label: "unbind connectors",
		apply: func() error {
			for _, b := range binds {
				if b.start {
					b.conn.StartID = ""
				} else {
					b.conn.EndID = ""
				}
			}
			return nil
		},
		revert: func() error {
			for _, b := range binds {
				if b.start {
					b.conn.StartID = b.id
				} else {
					b.conn.EndID = b.id
				}
			}
			return nil
		},
	}
	var idx []int
	remove := &step{
		label: "remove elements",
		apply: func() error {
			idx = s.Doc.Remove(sel...)
			s.Doc.DeselectCurrentSelectedElements()
			for _, el := range sel {
				s.Reg.RemoveTree(el)
			}
			return nil
		},
		revert: func() error {
			for i, el := range sel {
				if err := s.Reg.AddTree(el); err != nil {
					for _, done := range sel[:i] {
						s.Reg.RemoveTree(done)
					}
					return err
				}
			}
			s.Doc.Restore(sel, idx)
			s.Doc.SelectElements(prevSel)
			return nil
		},
	}
	if err := s.Stack.Do(&undo.Batch{Name: "Delete", Cmds: []undo.Command{unbind, remove}}); err != nil {
		s.log.Warn("delete failed", slog.Any("err", err))
		return false
	}
	s.log.Debug("deleted", slog.String("op", "delete"), slog.Int("elements", len(sel)))
	return true
}

// geometry is the positional state of one element.
type geometry struct {
	bounds     domain.Rect
	start, end domain.Point
}

type layout map[*domain.Element]geometry

func capture(els []*domain.Element) layout {
	l := make(layout)
	for _, el := range els {
		el.Walk(func(e *domain.Element) bool {
			l[e] = geometry{bounds: e.Bounds, start: e.Start, end: e.End}
			return true
		})
	}
	return l
}

func (l layout) apply() {
	for e, g := range l {
		e.Bounds, e.Start, e.End = g.bounds, g.start, g.end
	}
}

// Move offsets the selection by dx,dy. Connectors bound to moved elements follow with the
// bound end. It reports whether anything moved.
func (s *Session) Move(dx, dy float64) bool {
	sel := s.Doc.SelectedInOrder()
	if len(sel) == 0 || (dx == 0 && dy == 0) {
		return false
	}
	moved := make(map[domain.ID]bool)
	for _, el := range sel {
		el.Walk(func(e *domain.Element) bool {
			moved[e.ID] = true
			return true
		})
	}
	var followers []*domain.Element
	for _, top := range s.Doc.Elements() {
		top.Walk(func(e *domain.Element) bool {
			if e.IsConnector() && !moved[e.ID] && (moved[e.StartID] || moved[e.EndID]) {
				followers = append(followers, e)
			}
			return true
		})
	}

	touched := append(slices.Clone(sel), followers...)
	before := capture(touched)
	for _, el := range sel {
		el.Translate(dx, dy)
	}
	for _, c := range followers {
		if moved[c.StartID] {
			c.Start = c.Start.Offset(dx, dy)
		}
		if moved[c.EndID] {
			c.End = c.End.Offset(dx, dy)
		}
		c.Bounds = domain.RectFromPoints(c.Start, c.End)
	}
	after := capture(touched)
	before.apply()

	prevSel := s.Doc.SelectedElements()
	s.Stack.Record("Move",
		func() {
			after.apply()
			s.Doc.SelectElements(prevSel)
		},
		func() {
			before.apply()
			s.Doc.SelectElements(prevSel)
		})
	return true
}

// SetText changes the label of the attached element id.
func (s *Session) SetText(id domain.ID, text string) (bool, error) {
	el, err := s.Reg.Get(id)
	if err != nil {
		return false, fmt.Errorf("set text: %w", err)
	}
	old := el.Text
	if old == text {
		return false, nil
	}
	prevSel := s.Doc.SelectedElements()
	s.Stack.Record("Edit Text",
		func() {
			el.Text = text
			s.Doc.SelectElements(prevSel)
		},
		func() {
			el.Text = old
			s.Doc.SelectElements(prevSel)
		})
	return true, nil
}

// Topmost brings the selection to the front, keeping its relative order.
func (s *Session) Topmost() bool {
	return s.reorder("Bring to Front", func(order []*domain.Element, sel func(*domain.Element) bool) []*domain.Element {
		rest := slices.DeleteFunc(slices.Clone(order), sel)
		return append(rest, slices.DeleteFunc(slices.Clone(order), func(e *domain.Element) bool { return !sel(e) })...)
	})
}

// Bottommost sends the selection to the back, keeping its relative order.
func (s *Session) Bottommost() bool {
	return s.reorder("Send to Back", func(order []*domain.Element, sel func(*domain.Element) bool) []*domain.Element {
		picked := slices.DeleteFunc(slices.Clone(order), func(e *domain.Element) bool { return !sel(e) })
		return append(picked, slices.DeleteFunc(slices.Clone(order), sel)...)
	})
}

// MoveUp moves each selected element one step toward the front.
func (s *Session) MoveUp() bool {
	return s.reorder("Bring Forward", func(order []*domain.Element, sel func(*domain.Element) bool) []*domain.Element {
		for i := len(order) - 2; i >= 0; i-- {
			if sel(order[i]) && !sel(order[i+1]) {
				order[i], order[i+1] = order[i+1], order[i]
			}
		}
		return order
	})
}

// MoveDown moves each selected element one step toward the back.
func (s *Session) MoveDown() bool {
	return s.reorder("Send Backward", func(order []*domain.Element, sel func(*domain.Element) bool) []*domain.Element {
		for i := 1; i < len(order); i++ {
			if sel(order[i]) && !sel(order[i-1]) {
				order[i], order[i-1] = order[i-1], order[i]
			}
		}
		return order
	})
}

// reorder records a z-order change of the selection. The selected elements are taken out
// and re-inserted at their new indices, so elements outside the selection keep their
// relative order. Nothing is recorded when the order would not change.
func (s *Session) reorder(label string, arrange func([]*domain.Element, func(*domain.Element) bool) []*domain.Element) bool {
	sel := s.Doc.SelectedInOrder()
	if len(sel) == 0 {
		return false
	}
	isSel := func(e *domain.Element) bool { return slices.Contains(sel, e) }
	order := s.Doc.Elements()
	next := arrange(s.Doc.Elements(), isSel)

	from := make([]int, len(sel))
	to := make([]int, len(sel))
	for i, el := range sel {
		from[i] = slices.Index(order, el)
		to[i] = slices.Index(next, el)
	}
	if slices.Equal(from, to) {
		return false
	}
	prevSel := s.Doc.SelectedElements()
	s.Stack.Record(label,
		func() {
			s.Doc.Remove(sel...)
			s.Doc.Restore(sel, to)
			s.Doc.SelectElements(prevSel)
		},
		func() {
			s.Doc.Remove(sel...)
			s.Doc.Restore(sel, from)
			s.Doc.SelectElements(prevSel)
		})
	return true
}

// Copy puts the selection on the clipboard as document text. It reports whether anything
// was copied.
func (s *Session) Copy() (bool, error) {
	sel := s.Doc.SelectedInOrder()
	if len(sel) == 0 {
		return false, nil
	}
	data, err := persist.Serialize(sel)
	if err != nil {
		return false, fmt.Errorf("copy: %w", err)
	}
	if err := s.clip.WriteAll(string(data)); err != nil {
		return false, fmt.Errorf("copy: %w", err)
	}
	return true, nil
}

// Paste adds the clipboard contents as new elements with fresh ids, offset from the
// originals, and selects them.
func (s *Session) Paste() ([]*domain.Element, error) {
	text, err := s.clip.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyClipboard
	}
	els, err := persist.Deserialize([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}
	persist.Reidentify(els, s.Reg.NewID)
	for _, el := range els {
		el.Translate(s.pasteOffset, s.pasteOffset)
	}
	if err := s.add("Paste", els); err != nil {
		return nil, err
	}
	return els, nil
}
