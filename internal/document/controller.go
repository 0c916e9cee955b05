/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package document implements the file-level commands of the editor (new, open, import,
// save, save as, export, exit) and the unsaved-changes gate that guards the destructive
// ones.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"godiagram/internal/editor"
	"godiagram/internal/export"
	applog "godiagram/internal/log"
	"godiagram/internal/persist"
	"godiagram/internal/storage"
)

// ErrNothingToSave is returned by Save for an empty document.
var ErrNothingToSave = errors.New("nothing to save")

// Answer is the user's reply to the unsaved-changes question.
type Answer int

const (
	AnswerCancel Answer = iota
	AnswerSave
	AnswerDiscard
)

func (a Answer) String() string {
	switch a {
	case AnswerSave:
		return "save"
	case AnswerDiscard:
		return "discard"
	default:
		return "cancel"
	}
}

// Prompter asks the user questions on behalf of the controller. The bool results report
// whether the user confirmed (false means the dialog was cancelled).
type Prompter interface {
	AskSaveChanges() (Answer, error)
	AskOpenPath() (string, bool, error)
	AskSavePath(current string) (string, bool, error)
}

// RecentIndex records documents the user opened or saved.
type RecentIndex interface {
	Touch(ctx context.Context, docPath string, elements int) error
	Prune(ctx context.Context, keep int) error
}

// Options configures a Controller.
type Options struct {
	KeepBackups int
	Export      export.Options
	Recent      RecentIndex // optional
	RecentLimit int
}

// Controller binds an editing session to a file on disk.
type Controller struct {
	s    *editor.Session
	p    Prompter
	opts Options
	path string
	log  *slog.Logger
}

func NewController(s *editor.Session, p Prompter, opts Options) *Controller {
	return &Controller{s: s, p: p, opts: opts, log: applog.WithComponent("document")}
}

// Session returns the editing session the controller works on.
func (c *Controller) Session() *editor.Session { return c.s }

// Path returns the file the document is bound to, "" when it was never saved.
func (c *Controller) Path() string { return c.path }

// CheckForChanges asks what to do with unsaved changes. It reports whether the caller may
// go on with its destructive action.
func (c *Controller) CheckForChanges() (bool, error) {
	return c.gate(c.s.Stack.ClearStacks)
}

// gate asks about unsaved changes and runs discard when the user throws them away. A
// document that is empty but dirty can still be saved from here.
func (c *Controller) gate(discard func()) (bool, error) {
	if !c.s.HasChanges() {
		return true, nil
	}
	ans, err := c.p.AskSaveChanges()
	if err != nil {
		return false, err
	}
	c.log.Debug("unsaved changes", slog.String("op", "gate"), slog.String("answer", ans.String()))
	switch ans {
	case AnswerDiscard:
		discard()
		return true, nil
	case AnswerSave:
		path := c.path
		if path == "" {
			p, ok, err := c.p.AskSavePath("")
			if !ok || err != nil {
				return false, err
			}
			path = p
		}
		return c.saveTo(path, true)
	default:
		return false, nil
	}
}

// New starts an empty, unbound document.
func (c *Controller) New() (bool, error) {
	ok, err := c.CheckForChanges()
	if !ok || err != nil {
		return false, err
	}
	c.s.Reset()
	c.path = ""
	c.log.Info("new document", slog.String("op", "new"))
	return true, nil
}

// Open replaces the document with the one at path, asking for a path when it is empty.
// The file is read and parsed before asking about unsaved changes, so the current document
// and its history are kept when reading, parsing or loading fails.
func (c *Controller) Open(path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		p, ok, err := c.p.AskOpenPath()
		if !ok || err != nil {
			return false, err
		}
		path = p
	}
	data, err := storage.ReadDocument(path)
	if err != nil {
		return false, err
	}
	doc, err := persist.DeserializeDocument(data)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	// Load drops the history itself once it succeeds.
	ok, err := c.gate(func() {})
	if !ok || err != nil {
		return false, err
	}
	if err := c.s.Load(doc.Elements, doc.Selection); err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	c.path = path
	c.touchRecent(path)
	c.log.Info("document opened", slog.String("op", "open"), slog.String("path", path), slog.Int("elements", len(doc.Elements)))
	return true, nil
}

// Import adds the elements of the document at path to the current one with fresh ids and
// selects them. It does not go through the undo history.
func (c *Controller) Import(path string) error {
	if strings.TrimSpace(path) == "" {
		p, ok, err := c.p.AskOpenPath()
		if !ok || err != nil {
			return err
		}
		path = p
	}
	data, err := storage.ReadDocument(path)
	if err != nil {
		return err
	}
	els, err := persist.Deserialize(data)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	persist.Reidentify(els, c.s.Reg.NewID)
	if err := c.s.Merge(els); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	c.log.Info("document imported", slog.String("op", "import"), slog.String("path", path), slog.Int("elements", len(els)))
	return nil
}

// Save writes the document to its bound path, asking for one if it is unbound. It reports
// whether the document was saved.
func (c *Controller) Save() (bool, error) {
	if c.s.Doc.IsEmpty() {
		return false, ErrNothingToSave
	}
	if c.path == "" {
		return c.SaveAs()
	}
	return c.SaveAsPath(c.path)
}

// SaveAs asks for a path and saves there. Choosing an export format exports instead and
// reports false since the document itself was not saved.
func (c *Controller) SaveAs() (bool, error) {
	path, ok, err := c.p.AskSavePath(c.path)
	if !ok || err != nil {
		return false, err
	}
	return c.SaveAsPath(path)
}

// SaveAsPath is SaveAs with a known path.
func (c *Controller) SaveAsPath(path string) (bool, error) {
	return c.saveTo(path, false)
}

func (c *Controller) saveTo(path string, allowEmpty bool) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, errors.New("save: empty path")
	}
	if export.IsExportPath(path) {
		if err := c.Export(path); err != nil {
			return false, err
		}
		return false, nil
	}
	if c.s.Doc.IsEmpty() && !allowEmpty {
		return false, ErrNothingToSave
	}
	data, err := c.Snapshot()
	if err != nil {
		return false, err
	}
	if err := storage.WriteDocument(path, data, storage.WriteOptions{KeepBackups: c.opts.KeepBackups}); err != nil {
		return false, fmt.Errorf("save %s: %w", path, err)
	}
	c.path = path
	c.s.Stack.MarkSaved()
	c.touchRecent(path)
	c.log.Info("document saved", slog.String("op", "save"), slog.String("path", path), slog.Int("bytes", len(data)))
	return true, nil
}

// Export renders the current elements to path (PNG or PDF).
func (c *Controller) Export(path string) error {
	if err := export.ToFile(path, c.s.Doc.Elements(), c.opts.Export); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	c.log.Info("document exported", slog.String("op", "export"), slog.String("path", path))
	return nil
}

// Exit reports whether the application may close.
func (c *Controller) Exit() (bool, error) {
	return c.CheckForChanges()
}

// Snapshot serializes the current document including its selection.
func (c *Controller) Snapshot() ([]byte, error) {
	return persist.SerializeDocument(c.s.Doc.Elements(), c.s.Doc.SelectedElements())
}

func (c *Controller) touchRecent(path string) {
	if c.opts.Recent == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.opts.Recent.Touch(ctx, path, c.s.Doc.Len()); err != nil {
		c.log.Warn("recent index update failed", slog.String("path", path), slog.Any("err", err))
		return
	}
	if c.opts.RecentLimit > 0 {
		if err := c.opts.Recent.Prune(ctx, c.opts.RecentLimit); err != nil {
			c.log.Warn("recent index prune failed", slog.Any("err", err))
		}
	}
}
