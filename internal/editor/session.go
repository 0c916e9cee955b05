/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor owns one editing session: the document, the element registry and the
// undo stack. Every mutation of the diagram goes through the stack so it can be undone.
package editor

import (
	"fmt"
	"log/slog"

	"godiagram/internal/diagram"
	"godiagram/internal/domain"
	applog "godiagram/internal/log"
	"godiagram/internal/registry"
	"godiagram/internal/undo"
)

// DefaultPasteOffset shifts pasted elements so they do not cover the originals.
const DefaultPasteOffset = 10

// Options configures a Session.
type Options struct {
	HistoryDepth int
	PasteOffset  float64
	Clipboard    Clipboard
}

// Session ties a Document to its Registry and undo Stack.
type Session struct {
	Doc   *diagram.Document
	Reg   *registry.Registry
	Stack *undo.Stack

	clip        Clipboard
	pasteOffset float64
	log         *slog.Logger
}

func NewSession(opts Options) *Session {
	if opts.PasteOffset == 0 {
		opts.PasteOffset = DefaultPasteOffset
	}
	if opts.Clipboard == nil {
		opts.Clipboard = &MemoryClipboard{}
	}
	return &Session{
		Doc:         diagram.New(),
		Reg:         registry.New(),
		Stack:       undo.New(undo.Config{MaxDepth: opts.HistoryDepth}),
		clip:        opts.Clipboard,
		pasteOffset: opts.PasteOffset,
		log:         applog.WithComponent("editor"),
	}
}

// Reset empties the document, forgets all elements and drops history.
func (s *Session) Reset() {
	s.Doc.Clear()
	s.Reg.Reset()
	s.Stack.ClearStacks()
}

// Load replaces the session contents with els and selects selection. History is dropped.
// On error the session is left as it was.
func (s *Session) Load(els, selection []*domain.Element) error {
	reg := registry.New()
	for _, el := range els {
		if err := reg.AddTree(el); err != nil {
			return fmt.Errorf("load: %w", err)
		}
	}
	s.Reg = reg
	s.Doc.Clear()
	s.Doc.AddRange(els...)
	s.Doc.SelectElements(selection)
	s.Stack.ClearStacks()
	s.log.Debug("loaded", slog.String("op", "load"), slog.Int("elements", len(els)))
	return nil
}

// Merge appends els to the document outside of history and selects them. The saved state
// is invalidated since the document changed without a recorded command.
func (s *Session) Merge(els []*domain.Element) error {
	if err := s.checkFree(els); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	for _, el := range els {
		if err := s.Reg.AddTree(el); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
	}
	s.Doc.AddRange(els...)
	s.Doc.SelectElements(els)
	s.Stack.Invalidate()
	s.log.Debug("merged", slog.String("op", "merge"), slog.Int("elements", len(els)))
	return nil
}

func (s *Session) Undo() error { return s.Stack.Undo() }
func (s *Session) Redo() error { return s.Stack.Redo() }

// HasChanges reports whether the document differs from the last saved or loaded state.
func (s *Session) HasChanges() bool { return s.Stack.HasChanges() }

// checkFree fails if any id in els is already taken by a different element or if an
// element is already attached. A detached element may come back.
func (s *Session) checkFree(els []*domain.Element) error {
	seen := make(map[domain.ID]*domain.Element)
	var err error
	for _, el := range els {
		el.Walk(func(e *domain.Element) bool {
			if cur, ok := s.Reg.Lookup(e.ID); ok && (cur != e || s.Reg.Contains(e.ID)) {
				err = fmt.Errorf("%w: %s", registry.ErrDuplicateID, e.ID)
				return false
			}
			if prev, ok := seen[e.ID]; ok && prev != e {
				err = fmt.Errorf("%w: %s", registry.ErrDuplicateID, e.ID)
				return false
			}
			seen[e.ID] = e
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// step is a Command built from closures that may fail.
type step struct {
	label  string
	apply  func() error
	revert func() error
}

func (c *step) Label() string { return c.label }
func (c *step) Apply() error  { return c.apply() }
func (c *step) Revert() error { return c.revert() }
