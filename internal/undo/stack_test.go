/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"errors"
	"slices"
	"testing"
)

// counter is a tiny document: a list of appended values.
type counter struct{ vals []int }

func (c *counter) push(s *Stack, v int) {
	s.Record("push", func() { c.vals = append(c.vals, v) }, func() { c.vals = c.vals[:len(c.vals)-1] })
}

func TestRecordUndoRedo(t *testing.T) {
	s := New(Config{})
	c := &counter{}
	c.push(s, 1)
	c.push(s, 2)
	if !slices.Equal(c.vals, []int{1, 2}) || s.Cursor() != 2 {
		t.Fatalf("after record: vals=%v cursor=%d", c.vals, s.Cursor())
	}
	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.vals, []int{1}) {
		t.Fatalf("after undo: %v", c.vals)
	}
	if s.RedoLabel() != "push" || s.UndoLabel() != "push" {
		t.Fatalf("labels: undo=%q redo=%q", s.UndoLabel(), s.RedoLabel())
	}
	if err := s.Redo(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.vals, []int{1, 2}) {
		t.Fatalf("after redo: %v", c.vals)
	}
}

func TestBoundariesAreNoOps(t *testing.T) {
	s := New(Config{})
	if err := s.Undo(); err != nil {
		t.Fatalf("undo on empty: %v", err)
	}
	if err := s.Redo(); err != nil {
		t.Fatalf("redo on empty: %v", err)
	}
	if s.CanUndo() || s.CanRedo() || s.Cursor() != 0 {
		t.Fatalf("unexpected state cursor=%d", s.Cursor())
	}
	if s.UndoLabel() != "" || s.RedoLabel() != "" {
		t.Fatalf("labels should be empty")
	}
}

func TestRecordTruncatesRedoTail(t *testing.T) {
	s := New(Config{})
	c := &counter{}
	c.push(s, 1) // A
	c.push(s, 2) // B
	_ = s.Undo()
	c.push(s, 3) // C
	if s.CanRedo() {
		t.Fatalf("redo should be impossible after new record")
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	if err := s.Redo(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.vals, []int{1, 3}) {
		t.Fatalf("vals = %v, want [1 3]", c.vals)
	}
}

func TestHasChangesTransitions(t *testing.T) {
	s := New(Config{})
	c := &counter{}
	if s.HasChanges() {
		t.Fatalf("fresh stack should be clean")
	}
	c.push(s, 1)
	if !s.HasChanges() {
		t.Fatalf("record should dirty")
	}
	_ = s.Undo()
	if s.HasChanges() {
		t.Fatalf("undo back to saved should be clean")
	}
	c.push(s, 2)
	s.MarkSaved()
	if s.HasChanges() {
		t.Fatalf("after save should be clean")
	}
	_ = s.Undo()
	if !s.HasChanges() {
		t.Fatalf("undo past save should dirty")
	}
	_ = s.Redo()
	if s.HasChanges() {
		t.Fatalf("redo back to save should be clean")
	}
	s.Invalidate()
	if !s.HasChanges() {
		t.Fatalf("invalidate should dirty")
	}
	s.ClearStacks()
	if s.HasChanges() || s.Len() != 0 || s.Cursor() != 0 {
		t.Fatalf("clear should reset")
	}
}

func TestSavedStateInTruncatedTailIsUnreachable(t *testing.T) {
	s := New(Config{})
	c := &counter{}
	c.push(s, 1)
	c.push(s, 2)
	s.MarkSaved()
	_ = s.Undo()
	c.push(s, 3)
	_ = s.Undo()
	if !s.HasChanges() {
		t.Fatalf("cursor 1 after truncation must still be dirty")
	}
	_ = s.Redo()
	if !s.HasChanges() {
		t.Fatalf("cursor 2 is a different state than the saved one")
	}
}

func TestMaxDepthTrimsOldest(t *testing.T) {
	s := New(Config{MaxDepth: 3})
	c := &counter{}
	s.MarkSaved()
	for i := 1; i <= 5; i++ {
		c.push(s, i)
	}
	depth, cursor, trimmed := s.Stats()
	if depth != 3 || cursor != 3 || trimmed != 2 {
		t.Fatalf("stats = %d/%d/%d", depth, cursor, trimmed)
	}
	for s.CanUndo() {
		_ = s.Undo()
	}
	if !slices.Equal(c.vals, []int{1, 2}) {
		t.Fatalf("vals = %v, want [1 2]", c.vals)
	}
	if !s.HasChanges() {
		t.Fatalf("trimmed saved state must stay dirty")
	}
}

type failing struct {
	applyErr, revertErr error
	applied             int
}

func (f *failing) Label() string { return "failing" }
func (f *failing) Apply() error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied++
	return nil
}
func (f *failing) Revert() error {
	if f.revertErr != nil {
		return f.revertErr
	}
	f.applied--
	return nil
}

func TestDoFailureLeavesStackUnchanged(t *testing.T) {
	s := New(Config{})
	boom := errors.New("boom")
	err := s.Do(&failing{applyErr: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if s.Len() != 0 || s.HasChanges() {
		t.Fatalf("failed apply must not be recorded")
	}
}

func TestUndoFailureKeepsCursor(t *testing.T) {
	s := New(Config{})
	f := &failing{}
	if err := s.Do(f); err != nil {
		t.Fatal(err)
	}
	f.revertErr = errors.New("stuck")
	if err := s.Undo(); err == nil {
		t.Fatalf("expected error")
	}
	if s.Cursor() != 1 {
		t.Fatalf("cursor moved to %d", s.Cursor())
	}
}

func TestBatchRollsBackOnFailure(t *testing.T) {
	a, b := &failing{}, &failing{applyErr: errors.New("nope")}
	s := New(Config{})
	err := s.Do(&Batch{Name: "pair", Cmds: []Command{a, b}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if a.applied != 0 {
		t.Fatalf("first step not rolled back: %d", a.applied)
	}
	if s.Len() != 0 {
		t.Fatalf("batch must not be recorded")
	}
}

func TestBatchIsOneStep(t *testing.T) {
	a, b := &failing{}, &failing{}
	s := New(Config{})
	if err := s.Do(&Batch{Name: "pair", Cmds: []Command{a, b}}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 || s.UndoLabel() != "pair" {
		t.Fatalf("len=%d label=%q", s.Len(), s.UndoLabel())
	}
	_ = s.Undo()
	if a.applied != 0 || b.applied != 0 {
		t.Fatalf("batch undo incomplete: %d %d", a.applied, b.applied)
	}
}
