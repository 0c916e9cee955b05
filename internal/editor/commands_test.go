/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"slices"
	"testing"

	"godiagram/internal/domain"
	"godiagram/internal/persist"
	"godiagram/internal/registry"
)

func newTestSession() *Session {
	return NewSession(Options{Clipboard: &MemoryClipboard{}})
}

func shape(id string, x float64) *domain.Element {
	return domain.NewShape(domain.ID(id), domain.ShapeBox, domain.R(x, 0, 10, 10), id)
}

func topIDs(s *Session) []domain.ID { return domain.IDs(s.Doc.Elements()) }
func selIDs(s *Session) []domain.ID { return domain.IDs(s.Doc.SelectedElements()) }

// state captures everything undo must restore: elements with attributes and order,
// selection and attached ids.
func state(t *testing.T, s *Session) string {
	t.Helper()
	data, err := persist.SerializeDocument(s.Doc.Elements(), s.Doc.SelectedElements())
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return string(data) + "\n" + stringIDs(s.Reg.IDs())
}

func stringIDs(ids []domain.ID) string {
	var out string
	for _, id := range ids {
		out += string(id) + ","
	}
	return out
}

func TestAddSelectsAndUndoRemoves(t *testing.T) {
	s := newTestSession()
	a, b := shape("1", 0), shape("2", 20)
	if err := s.Add(a, b); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(topIDs(s), []domain.ID{"1", "2"}) || !slices.Equal(selIDs(s), []domain.ID{"1", "2"}) {
		t.Fatalf("doc=%v sel=%v", topIDs(s), selIDs(s))
	}
	if !s.Reg.Contains("1") {
		t.Fatalf("added element not attached")
	}
	_ = s.Undo()
	if s.Doc.Len() != 0 || s.Reg.Contains("1") || !s.Reg.Detached("1") {
		t.Fatalf("undo add left doc=%v", topIDs(s))
	}
	_ = s.Redo()
	if got, _ := s.Reg.Get("1"); got != a {
		t.Fatalf("redo must reattach the same element")
	}
}

func TestAddRejectsTakenID(t *testing.T) {
	s := newTestSession()
	_ = s.Add(shape("1", 0))
	err := s.Add(shape("1", 5))
	if !errors.Is(err, registry.ErrDuplicateID) {
		t.Fatalf("err = %v", err)
	}
	if s.Stack.Len() != 1 {
		t.Fatalf("failed add must not be recorded")
	}
}

func TestConnectBindsAndDeleteUnbinds(t *testing.T) {
	s := newTestSession()
	a, b := shape("a", 0), shape("b", 100)
	_ = s.Add(a, b)
	c, err := s.Connect("a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if c.StartID != "a" || c.EndID != "b" || c.Start != a.Bounds.Center() {
		t.Fatalf("connector = %+v", c)
	}
	if _, err := s.Connect("a", "missing"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}

	s.Doc.SelectElements([]*domain.Element{b})
	before := state(t, s)
	if !s.Delete() {
		t.Fatalf("delete reported nothing")
	}
	if c.EndID != "" || c.StartID != "a" {
		t.Fatalf("bindings after delete: %q/%q", c.StartID, c.EndID)
	}
	if s.Reg.Contains("b") || len(s.Doc.SelectedElements()) != 0 {
		t.Fatalf("deleted element still live")
	}
	_ = s.Undo()
	if after := state(t, s); after != before {
		t.Fatalf("undo delete mismatch\n got: %s\nwant: %s", after, before)
	}
}

func TestAddRejectsAttachedElement(t *testing.T) {
	s := newTestSession()
	a := shape("a", 0)
	if err := s.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(a); !errors.Is(err, registry.ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
	if s.Doc.Len() != 1 || s.Stack.Len() != 1 {
		t.Fatalf("doc len = %d, history = %d", s.Doc.Len(), s.Stack.Len())
	}
	_ = s.Undo()
	if s.Doc.Len() != 0 || s.Reg.Contains("a") {
		t.Fatalf("one undo must remove the element, doc=%v", topIDs(s))
	}
	if err := s.Add(a); err != nil {
		t.Fatalf("re-adding a detached element: %v", err)
	}
}

func TestDeleteUndoFailureKeepsCursor(t *testing.T) {
	s := newTestSession()
	a, b := shape("a", 0), shape("b", 100)
	_ = s.Add(a, b)
	c, _ := s.Connect("a", "b")
	s.Doc.SelectElements([]*domain.Element{b})
	if !s.Delete() {
		t.Fatalf("delete reported nothing")
	}
	if got := s.Stack.UndoLabel(); got != "Delete" {
		t.Fatalf("undo label = %q", got)
	}
	s.Reg.Reset()
	_ = s.Reg.Add(shape("b", 5))

	cursor := s.Stack.Cursor()
	if err := s.Undo(); !errors.Is(err, registry.ErrDuplicateID) {
		t.Fatalf("undo err = %v, want ErrDuplicateID", err)
	}
	if s.Stack.Cursor() != cursor {
		t.Fatalf("cursor moved to %d, want %d", s.Stack.Cursor(), cursor)
	}
	if slices.Contains(topIDs(s), "b") || c.EndID != "" {
		t.Fatalf("failed undo changed the document: %v end=%q", topIDs(s), c.EndID)
	}
}

func TestDeleteWithoutSelectionIsNoOp(t *testing.T) {
	s := newTestSession()
	_ = s.Add(shape("a", 0))
	s.Doc.DeselectCurrentSelectedElements()
	if s.Delete() {
		t.Fatalf("nothing selected, nothing deleted")
	}
	if s.Stack.Len() != 1 {
		t.Fatalf("no-op was recorded")
	}
}

func TestMoveUndoIsExact(t *testing.T) {
	s := newTestSession()
	a, b := shape("a", 0.1), shape("b", 50)
	_ = s.Add(a, b)
	c, _ := s.Connect("a", "b")
	s.Doc.SelectElements([]*domain.Element{a})
	start := c.Start
	before := state(t, s)

	if !s.Move(0.7, -3.3) {
		t.Fatalf("move reported nothing")
	}
	if a.Bounds.X != 0.1+0.7 {
		t.Fatalf("x = %v", a.Bounds.X)
	}
	if c.Start == start || c.End != b.Bounds.Center() {
		t.Fatalf("bound connector end did not follow")
	}
	_ = s.Undo()
	if after := state(t, s); after != before {
		t.Fatalf("undo move mismatch\n got: %s\nwant: %s", after, before)
	}
	if s.Move(0, 0) {
		t.Fatalf("zero move recorded")
	}
}

func TestZOrder(t *testing.T) {
	s := newTestSession()
	a, b, c, d := shape("a", 0), shape("b", 0), shape("c", 0), shape("d", 0)
	_ = s.Add(a, b, c, d)

	s.Doc.SelectElements([]*domain.Element{b})
	if !s.Topmost() || !slices.Equal(topIDs(s), []domain.ID{"a", "c", "d", "b"}) {
		t.Fatalf("topmost: %v", topIDs(s))
	}
	if s.Topmost() {
		t.Fatalf("already on top, nothing to record")
	}
	if !s.Bottommost() || !slices.Equal(topIDs(s), []domain.ID{"b", "a", "c", "d"}) {
		t.Fatalf("bottommost: %v", topIDs(s))
	}
	if !s.MoveUp() || !slices.Equal(topIDs(s), []domain.ID{"a", "b", "c", "d"}) {
		t.Fatalf("move up: %v", topIDs(s))
	}
	s.Doc.SelectElements([]*domain.Element{c, d})
	if s.MoveUp() {
		t.Fatalf("block at top cannot move up")
	}
	if !s.MoveDown() || !slices.Equal(topIDs(s), []domain.ID{"a", "c", "d", "b"}) {
		t.Fatalf("move down: %v", topIDs(s))
	}
	for i := 0; i < 4; i++ {
		_ = s.Undo()
	}
	if !slices.Equal(topIDs(s), []domain.ID{"a", "b", "c", "d"}) {
		t.Fatalf("undo all z-order: %v", topIDs(s))
	}
}

func TestCopyPasteFreshIDs(t *testing.T) {
	s := newTestSession()
	a, b := shape("a", 0), shape("b", 40)
	_ = s.Add(a, b)
	_, _ = s.Connect("a", "b")
	s.Doc.SelectElements(s.Doc.Elements())

	ok, err := s.Copy()
	if err != nil || !ok {
		t.Fatalf("copy: %v %v", ok, err)
	}
	pasted, err := s.Paste()
	if err != nil {
		t.Fatal(err)
	}
	if len(pasted) != 3 || s.Doc.Len() != 6 {
		t.Fatalf("pasted %d, doc %d", len(pasted), s.Doc.Len())
	}
	for _, p := range pasted {
		if p.ID == "a" || p.ID == "b" {
			t.Fatalf("pasted element kept id %s", p.ID)
		}
	}
	if pasted[0].Bounds.X != DefaultPasteOffset {
		t.Fatalf("paste offset: %v", pasted[0].Bounds.X)
	}
	conn := pasted[2]
	if conn.StartID != pasted[0].ID || conn.EndID != pasted[1].ID {
		t.Fatalf("pasted connector not rebound: %s/%s", conn.StartID, conn.EndID)
	}
	if !slices.Equal(selIDs(s), domain.IDs(pasted)) {
		t.Fatalf("paste must select the new elements")
	}
	_ = s.Undo()
	if s.Doc.Len() != 3 {
		t.Fatalf("undo paste: %d", s.Doc.Len())
	}
}

func TestPasteEmptyClipboard(t *testing.T) {
	s := newTestSession()
	if _, err := s.Paste(); !errors.Is(err, ErrEmptyClipboard) {
		t.Fatalf("err = %v", err)
	}
	if err := s.clip.WriteAll("not a document"); err != nil {
		t.Fatal(err)
	}
	_, err := s.Paste()
	var fe *persist.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v", err)
	}
}

func TestSetText(t *testing.T) {
	s := newTestSession()
	a := shape("a", 0)
	_ = s.Add(a)
	if ok, err := s.SetText("a", "hello"); !ok || err != nil {
		t.Fatalf("set text: %v %v", ok, err)
	}
	if ok, _ := s.SetText("a", "hello"); ok {
		t.Fatalf("unchanged text recorded")
	}
	if _, err := s.SetText("zz", "x"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	_ = s.Undo()
	if a.Text != "a" {
		t.Fatalf("text = %q", a.Text)
	}
}

func TestLoadAndMerge(t *testing.T) {
	s := newTestSession()
	_ = s.Add(shape("old", 0))
	a := shape("a", 0)
	if err := s.Load([]*domain.Element{a}, []*domain.Element{a}); err != nil {
		t.Fatal(err)
	}
	if s.HasChanges() || s.Stack.Len() != 0 || s.Reg.Contains("old") {
		t.Fatalf("load must start clean")
	}
	if err := s.Merge([]*domain.Element{shape("b", 0)}); err != nil {
		t.Fatal(err)
	}
	if !s.HasChanges() || !slices.Equal(selIDs(s), []domain.ID{"b"}) {
		t.Fatalf("merge: dirty=%v sel=%v", s.HasChanges(), selIDs(s))
	}
	if err := s.Merge([]*domain.Element{shape("a", 0)}); !errors.Is(err, registry.ErrDuplicateID) {
		t.Fatalf("err = %v", err)
	}
	s.Reset()
	if s.Doc.Len() != 0 || s.Reg.Len() != 0 || s.HasChanges() {
		t.Fatalf("reset incomplete")
	}
}

func TestHasChangesAfterRecordAndUndo(t *testing.T) {
	s := newTestSession()
	if s.HasChanges() {
		t.Fatalf("new session is clean")
	}
	_ = s.Add(shape("a", 0))
	if !s.HasChanges() {
		t.Fatalf("record must dirty")
	}
	_ = s.Undo()
	if s.HasChanges() {
		t.Fatalf("undo to saved marker must be clean")
	}
}
