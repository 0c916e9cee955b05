/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"godiagram/internal/domain"
	"godiagram/internal/guides"
)

// MoveSnapped moves the selection by about dx,dy, adjusted so the bounds of the selection
// line up with an edge or center of an unselected top-level shape or group. It returns the
// offset actually applied and the guides that caused the adjustment.
func (s *Session) MoveSnapped(dx, dy float64, opt guides.Options) (domain.Point, []guides.Guide, bool) {
	sel := s.Doc.SelectedInOrder()
	if len(sel) == 0 {
		return domain.Point{}, nil, false
	}
	target := domain.UnionBounds(sel).Offset(dx, dy)
	var anchors []domain.Rect
	for _, el := range s.Doc.Elements() {
		if !s.Doc.IsSelected(el) && !el.IsConnector() {
			anchors = append(anchors, el.Bounds)
		}
	}
	snapped, gs := guides.Snap(target, anchors, opt)
	off := domain.Point{X: dx + snapped.X - target.X, Y: dy + snapped.Y - target.Y}
	return off, gs, s.Move(off.X, off.Y)
}
