/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"slices"
	"testing"

	"godiagram/internal/domain"
)

func box(id string) *domain.Element {
	return domain.NewShape(domain.ID(id), domain.ShapeBox, domain.R(0, 0, 10, 10), id)
}

func ids(els []*domain.Element) []domain.ID { return domain.IDs(els) }

func TestSelectionOnlyTopLevel(t *testing.T) {
	d := New()
	a, b, stray := box("a"), box("b"), box("x")
	d.AddRange(a, b)
	d.SelectElements([]*domain.Element{b, stray, a, b})
	if got := ids(d.SelectedElements()); !slices.Equal(got, []domain.ID{"b", "a"}) {
		t.Fatalf("selection = %v", got)
	}
	if got := ids(d.SelectedInOrder()); !slices.Equal(got, []domain.ID{"a", "b"}) {
		t.Fatalf("selection in order = %v", got)
	}
	d.DeselectCurrentSelectedElements()
	if len(d.SelectedElements()) != 0 {
		t.Fatalf("deselect failed")
	}
}

func TestRemoveRestoreRoundTrip(t *testing.T) {
	d := New()
	a, b, c, e := box("a"), box("b"), box("c"), box("e")
	d.AddRange(a, b, c, e)
	d.SelectElements([]*domain.Element{b})

	removed := []*domain.Element{e, b}
	idx := d.Remove(removed...)
	if !slices.Equal(idx, []int{3, 1}) {
		t.Fatalf("idx = %v", idx)
	}
	if got := ids(d.Elements()); !slices.Equal(got, []domain.ID{"a", "c"}) {
		t.Fatalf("after remove = %v", got)
	}
	if len(d.SelectedElements()) != 0 {
		t.Fatalf("removed element still selected")
	}

	d.Restore(removed, idx)
	if got := ids(d.Elements()); !slices.Equal(got, []domain.ID{"a", "b", "c", "e"}) {
		t.Fatalf("after restore = %v", got)
	}
}

func TestRestoreAfterAppend(t *testing.T) {
	d := New()
	a, b, c := box("a"), box("b"), box("c")
	d.AddRange(a, b, c)
	idx := d.Remove(b)
	d.AddRange(box("z"))
	d.Restore([]*domain.Element{b}, idx)
	if got := ids(d.Elements()); !slices.Equal(got, []domain.ID{"a", "b", "c", "z"}) {
		t.Fatalf("got %v", got)
	}
}

func TestElementsIsACopy(t *testing.T) {
	d := New()
	d.AddRange(box("a"))
	els := d.Elements()
	els[0] = nil
	if d.At(0) == nil {
		t.Fatalf("caller mutated document")
	}
	if d.Find("a") == nil || d.Find("nope") != nil {
		t.Fatalf("find mismatch")
	}
	d.Clear()
	if !d.IsEmpty() {
		t.Fatalf("clear failed")
	}
}
