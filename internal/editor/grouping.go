/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"godiagram/internal/domain"
)

// Group wraps the selected top-level elements into a new group placed where the lowest
// member was. Members keep their relative order inside the group. The whole change is one
// undo step; redo brings back the same group element. It returns nil when nothing is
// selected.
func (s *Session) Group() (*domain.Element, error) {
	members := s.Doc.SelectedInOrder()
	if len(members) == 0 {
		return nil, nil
	}
	prevSel := s.Doc.SelectedElements()
	g := domain.NewGroup(s.Reg.NewID(), members...)
	var idx []int

	err := s.Stack.Do(&step{
		label: "Group",
		apply: func() error {
			if err := s.Reg.Add(g); err != nil {
				return err
			}
			idx = s.Doc.Remove(members...)
			s.Doc.InsertAt(idx[0], g)
			s.Doc.SelectElements([]*domain.Element{g})
			return nil
		},
		revert: func() error {
			s.Doc.Remove(g)
			s.Doc.Restore(members, idx)
			s.Reg.Remove(g)
			s.Doc.SelectElements(prevSel)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("grouped", slog.String("op", "group"), slog.String("group", string(g.ID)), slog.Int("members", len(members)))
	return g, nil
}

// Ungroup dissolves the selected group, putting its children at the group's position.
// It does nothing unless exactly one group is selected. The group keeps its children while
// detached so undo can restore it unchanged.
func (s *Session) Ungroup() bool {
	sel := s.Doc.SelectedElements()
	if len(sel) != 1 || !sel[0].IsGroup() {
		return false
	}
	g := sel[0]
	children := g.Children
	var at int

	err := s.Stack.Do(&step{
		label: "Ungroup",
		apply: func() error {
			at = s.Doc.Index(g)
			s.Doc.Remove(g)
			for i, c := range children {
				s.Doc.InsertAt(at+i, c)
			}
			s.Reg.Remove(g)
			s.Doc.SelectElements(children)
			return nil
		},
		revert: func() error {
			if err := s.Reg.Add(g); err != nil {
				return err
			}
			s.Doc.Remove(children...)
			s.Doc.InsertAt(at, g)
			s.Doc.SelectElements([]*domain.Element{g})
			return nil
		},
	})
	if err != nil {
		s.log.Warn("ungroup failed", slog.Any("err", err))
		return false
	}
	s.log.Debug("ungrouped", slog.String("op", "ungroup"), slog.String("group", string(g.ID)))
	return true
}
