/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo implements the command stack that backs undo/redo in the editor.
//
// The stack keeps an ordered list of commands and a cursor: commands before the cursor are
// applied, commands at or after it have been undone and can be redone. Recording a new
// command discards the redo tail. A saved marker remembers the cursor position of the last
// save or load so callers can ask whether the document has unsaved changes.
package undo

import (
	"fmt"
	"log/slog"

	applog "godiagram/internal/log"
)

// DefaultMaxDepth bounds the history when Config.MaxDepth is not set.
const DefaultMaxDepth = 1000

// unreachable marks a saved state that can no longer be reached by undo or redo.
const unreachable = -1

// Config controls the history bound.
type Config struct {
	// MaxDepth is the maximum number of commands kept; oldest ones are dropped first.
	MaxDepth int
}

// Stack is a cursor-based undo/redo history. It is not safe for concurrent use; it is
// owned by a single editing session.
type Stack struct {
	cfg     Config
	cmds    []Command
	cursor  int
	saved   int
	trimmed int
	log     *slog.Logger
}

// New returns an empty stack whose saved marker sits at the start.
func New(cfg Config) *Stack {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Stack{cfg: cfg, log: applog.WithComponent("undo")}
}

// Record runs forward immediately and appends it to the history together with backward.
func (s *Stack) Record(label string, forward, backward func()) {
	_ = s.Do(Func{Name: label, Forward: forward, Backward: backward})
}

// Do applies cmd and, if that succeeds, records it. A failed Apply leaves the stack
// unchanged.
func (s *Stack) Do(cmd Command) error {
	if err := cmd.Apply(); err != nil {
		return fmt.Errorf("apply %q: %w", cmd.Label(), err)
	}
	if s.cursor < len(s.cmds) {
		for i := s.cursor; i < len(s.cmds); i++ {
			s.cmds[i] = nil
		}
		s.cmds = s.cmds[:s.cursor]
		if s.saved > s.cursor {
			s.saved = unreachable
		}
	}
	s.cmds = append(s.cmds, cmd)
	s.cursor++
	s.trim()
	s.log.Debug("record", slog.String("op", "record"), slog.String("label", cmd.Label()), slog.Int("cursor", s.cursor))
	return nil
}

func (s *Stack) trim() {
	over := len(s.cmds) - s.cfg.MaxDepth
	if over <= 0 {
		return
	}
	for i := 0; i < over; i++ {
		s.cmds[i] = nil
	}
	s.cmds = append(s.cmds[:0], s.cmds[over:]...)
	s.cursor -= over
	s.trimmed += over
	if s.saved != unreachable {
		s.saved -= over
		if s.saved < 0 {
			s.saved = unreachable
		}
	}
}

// Undo reverts the command before the cursor. At the start of history it does nothing.
// If Revert fails the cursor stays put.
func (s *Stack) Undo() error {
	if s.cursor == 0 {
		return nil
	}
	cmd := s.cmds[s.cursor-1]
	if err := cmd.Revert(); err != nil {
		return fmt.Errorf("undo %q: %w", cmd.Label(), err)
	}
	s.cursor--
	s.log.Debug("undo", slog.String("op", "undo"), slog.String("label", cmd.Label()), slog.Int("cursor", s.cursor))
	return nil
}

// Redo re-applies the command at the cursor. At the end of history it does nothing.
func (s *Stack) Redo() error {
	if s.cursor == len(s.cmds) {
		return nil
	}
	cmd := s.cmds[s.cursor]
	if err := cmd.Apply(); err != nil {
		return fmt.Errorf("redo %q: %w", cmd.Label(), err)
	}
	s.cursor++
	s.log.Debug("redo", slog.String("op", "redo"), slog.String("label", cmd.Label()), slog.Int("cursor", s.cursor))
	return nil
}

// ClearStacks drops all history and treats the current state as saved.
func (s *Stack) ClearStacks() {
	for i := range s.cmds {
		s.cmds[i] = nil
	}
	s.cmds = s.cmds[:0]
	s.cursor = 0
	s.saved = 0
	s.trimmed = 0
}

// MarkSaved records the current cursor as the saved state.
func (s *Stack) MarkSaved() { s.saved = s.cursor }

// Invalidate forgets the saved state. Used when the document changes outside history.
func (s *Stack) Invalidate() { s.saved = unreachable }

// HasChanges reports whether the cursor differs from the saved marker.
func (s *Stack) HasChanges() bool { return s.cursor != s.saved }

func (s *Stack) CanUndo() bool { return s.cursor > 0 }
func (s *Stack) CanRedo() bool { return s.cursor < len(s.cmds) }

// UndoLabel names the command Undo would revert, or "" if none.
func (s *Stack) UndoLabel() string {
	if s.cursor == 0 {
		return ""
	}
	return s.cmds[s.cursor-1].Label()
}

// RedoLabel names the command Redo would apply, or "" if none.
func (s *Stack) RedoLabel() string {
	if s.cursor == len(s.cmds) {
		return ""
	}
	return s.cmds[s.cursor].Label()
}

func (s *Stack) Len() int    { return len(s.cmds) }
func (s *Stack) Cursor() int { return s.cursor }

// Stats returns history size, cursor and the number of commands dropped by the depth bound.
func (s *Stack) Stats() (depth, cursor, trimmed int) {
	return len(s.cmds), s.cursor, s.trimmed
}
