/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package shell is a line-oriented console front end for the editor. Each input line is a
// command operating on the current selection or on element ids (any unique prefix of an id
// is accepted).
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"godiagram/internal/document"
	"godiagram/internal/domain"
	"godiagram/internal/editor"
	"godiagram/internal/guides"
	applog "godiagram/internal/log"
	"godiagram/internal/registry"
)

const helpText = `Commands:
  add <box|ellipse|diamond|text> <x> <y> <w> <h> [text]
  connect <from-id> <to-id>
  list                          show elements (* marks selected)
  select all|none|<id>...
  delete | move <dx> <dy> | snap <dx> <dy> | text <id> <text>
  group | ungroup
  front | back | forward | backward
  copy | paste | undo | redo | history
  new | open [path] | import [path] | save | saveas [path] | export <path>
  status | help | quit
`

// Shell executes console commands against a document controller.
type Shell struct {
	ctrl *document.Controller
	con  *Console
	log  *slog.Logger
	quit bool
}

func New(ctrl *document.Controller, con *Console) *Shell {
	return &Shell{ctrl: ctrl, con: con, log: applog.WithComponent("shell")}
}

func (sh *Shell) session() *editor.Session { return sh.ctrl.Session() }

// Run reads and executes commands until quit is confirmed, the input ends or ctx is done.
// Command failures are reported to the console and do not end the loop.
func (sh *Shell) Run(ctx context.Context) error {
	for !sh.quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := sh.con.ReadLine("> ")
		if errors.Is(err, io.EOF) {
			if sh.session().HasChanges() {
				sh.log.Warn("input closed with unsaved changes")
			}
			return nil
		}
		if err != nil {
			return err
		}
		if err := sh.Exec(line); err != nil {
			sh.log.Debug("command failed", slog.String("line", line), slog.Any("err", err))
			sh.con.Printf("error: %v\n", err)
		}
	}
	return nil
}

// Exec runs a single command line.
func (sh *Shell) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	s := sh.session()
	switch cmd {
	case "help", "?":
		sh.con.Printf("%s", helpText)
	case "add":
		return sh.add(args)
	case "connect":
		if len(args) != 2 {
			return errors.New("usage: connect <from-id> <to-id>")
		}
		from, err := sh.resolve(args[0])
		if err != nil {
			return err
		}
		to, err := sh.resolve(args[1])
		if err != nil {
			return err
		}
		c, err := s.Connect(from, to)
		if err != nil {
			return err
		}
		sh.con.Printf("connected %s\n", short(c.ID))
	case "list", "ls":
		sh.list()
	case "select":
		return sh.selectCmd(args)
	case "delete", "del":
		sh.report(s.Delete(), "nothing selected")
	case "move":
		v, err := floats(args, 2, "usage: move <dx> <dy>")
		if err != nil {
			return err
		}
		sh.report(s.Move(v[0], v[1]), "nothing selected")
	case "snap":
		v, err := floats(args, 2, "usage: snap <dx> <dy>")
		if err != nil {
			return err
		}
		off, gs, ok := s.MoveSnapped(v[0], v[1], guides.Defaults())
		if !ok {
			sh.con.Printf("nothing moved\n")
			return nil
		}
		sh.con.Printf("moved by %g,%g (%d guides)\n", off.X, off.Y, len(gs))
	case "text":
		if len(args) < 1 {
			return errors.New("usage: text <id> <text>")
		}
		id, err := sh.resolve(args[0])
		if err != nil {
			return err
		}
		ok, err := s.SetText(id, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		sh.report(ok, "text unchanged")
	case "group":
		g, err := s.Group()
		if err != nil {
			return err
		}
		if g == nil {
			sh.con.Printf("nothing selected\n")
			return nil
		}
		sh.con.Printf("grouped %d elements as %s\n", len(g.Children), short(g.ID))
	case "ungroup":
		sh.report(s.Ungroup(), "select exactly one group")
	case "front":
		sh.report(s.Topmost(), "nothing to reorder")
	case "back":
		sh.report(s.Bottommost(), "nothing to reorder")
	case "forward":
		sh.report(s.MoveUp(), "nothing to reorder")
	case "backward":
		sh.report(s.MoveDown(), "nothing to reorder")
	case "copy":
		ok, err := s.Copy()
		if err != nil {
			return err
		}
		sh.report(ok, "nothing selected")
	case "paste":
		els, err := s.Paste()
		if err != nil {
			return err
		}
		sh.con.Printf("pasted %d elements\n", len(els))
	case "undo":
		label := s.Stack.UndoLabel()
		if err := s.Undo(); err != nil {
			return err
		}
		sh.report(label != "", "nothing to undo")
	case "redo":
		label := s.Stack.RedoLabel()
		if err := s.Redo(); err != nil {
			return err
		}
		sh.report(label != "", "nothing to redo")
	case "history":
		depth, cursor, trimmed := s.Stack.Stats()
		sh.con.Printf("undo: %q redo: %q (depth %d, cursor %d, trimmed %d)\n", s.Stack.UndoLabel(), s.Stack.RedoLabel(), depth, cursor, trimmed)
	case "status":
		sh.status()
	case "new":
		ok, err := sh.ctrl.New()
		sh.done(ok, "new document")
		return err
	case "open":
		ok, err := sh.ctrl.Open(strings.Join(args, " "))
		sh.done(ok, "opened "+sh.ctrl.Path())
		return err
	case "import":
		if err := sh.ctrl.Import(strings.Join(args, " ")); err != nil {
			return err
		}
		sh.con.Printf("imported %d elements\n", len(s.Doc.SelectedElements()))
	case "save":
		ok, err := sh.ctrl.Save()
		sh.done(ok, "saved "+sh.ctrl.Path())
		return err
	case "saveas":
		var ok bool
		var err error
		if len(args) > 0 {
			ok, err = sh.ctrl.SaveAsPath(strings.Join(args, " "))
		} else {
			ok, err = sh.ctrl.SaveAs()
		}
		sh.done(ok, "saved "+sh.ctrl.Path())
		return err
	case "export":
		if len(args) == 0 {
			return errors.New("usage: export <path.png|path.pdf>")
		}
		path := strings.Join(args, " ")
		if err := sh.ctrl.Export(path); err != nil {
			return err
		}
		sh.con.Printf("exported %s\n", path)
	case "quit", "exit":
		ok, err := sh.ctrl.Exit()
		if err != nil {
			return err
		}
		sh.quit = ok
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// Quit reports whether the shell accepted a quit command.
func (sh *Shell) Quit() bool { return sh.quit }

func (sh *Shell) add(args []string) error {
	const usage = "usage: add <box|ellipse|diamond|text> <x> <y> <w> <h> [text]"
	if len(args) < 5 {
		return errors.New(usage)
	}
	kind := strings.ToLower(args[0])
	switch kind {
	case domain.ShapeBox, domain.ShapeEllipse, domain.ShapeDiamond, domain.ShapeText:
	default:
		return fmt.Errorf("unknown shape %q", args[0])
	}
	v, err := floats(args[1:5], 4, usage)
	if err != nil {
		return err
	}
	if v[2] < 0 || v[3] < 0 {
		return errors.New("width and height must not be negative")
	}
	s := sh.session()
	el := domain.NewShape(s.Reg.NewID(), kind, domain.R(v[0], v[1], v[2], v[3]), strings.Join(args[5:], " "))
	if err := s.Add(el); err != nil {
		return err
	}
	sh.con.Printf("added %s\n", short(el.ID))
	return nil
}

func (sh *Shell) selectCmd(args []string) error {
	d := sh.session().Doc
	if len(args) == 0 {
		return errors.New("usage: select all|none|<id>...")
	}
	switch strings.ToLower(args[0]) {
	case "all":
		d.SelectElements(d.Elements())
		return nil
	case "none":
		d.DeselectCurrentSelectedElements()
		return nil
	}
	sel := make([]*domain.Element, 0, len(args))
	for _, a := range args {
		id, err := sh.resolve(a)
		if err != nil {
			return err
		}
		el := d.Find(id)
		if el == nil {
			return fmt.Errorf("%s is not a top-level element", short(id))
		}
		sel = append(sel, el)
	}
	d.SelectElements(sel)
	return nil
}

// resolve maps a unique id prefix to the id of an attached element.
func (sh *Shell) resolve(prefix string) (domain.ID, error) {
	var found []domain.ID
	for _, id := range sh.session().Reg.IDs() {
		if strings.HasPrefix(string(id), prefix) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		if sh.session().Reg.Detached(domain.ID(prefix)) {
			return "", fmt.Errorf("%w: %s was removed (undo restores it)", registry.ErrNotFound, prefix)
		}
		return "", fmt.Errorf("%w: %s", registry.ErrNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("ambiguous id %q matches %d elements", prefix, len(found))
	}
}

func (sh *Shell) list() {
	d := sh.session().Doc
	if d.IsEmpty() {
		sh.con.Printf("(empty)\n")
		return
	}
	for i, el := range d.Elements() {
		mark := " "
		if d.IsSelected(el) {
			mark = "*"
		}
		sh.con.Printf("%s %2d %s\n", mark, i, describe(el))
		for _, c := range el.Children {
			c.Walk(func(e *domain.Element) bool {
				sh.con.Printf("       %s\n", describe(e))
				return true
			})
		}
	}
}

func (sh *Shell) status() {
	s := sh.session()
	path := sh.ctrl.Path()
	if path == "" {
		path = "(unsaved)"
	}
	sh.con.Printf("%s: %d elements, %d selected, modified=%t\n", path, s.Doc.Len(), len(s.Doc.SelectedElements()), s.HasChanges())
}

func (sh *Shell) report(ok bool, otherwise string) {
	if !ok {
		sh.con.Printf("%s\n", otherwise)
	}
}

func (sh *Shell) done(ok bool, msg string) {
	if ok {
		sh.con.Printf("%s\n", msg)
	}
}

func describe(el *domain.Element) string {
	switch el.Kind {
	case domain.KindGroup:
		return fmt.Sprintf("group %s (%d members)", short(el.ID), len(el.Children))
	case domain.KindConnector:
		return fmt.Sprintf("connector %s %s -> %s", short(el.ID), endName(el.StartID, el.Start), endName(el.EndID, el.End))
	default:
		b := el.Bounds
		s := fmt.Sprintf("%s %s at %g,%g %gx%g", el.Shape, short(el.ID), b.X, b.Y, b.Width, b.Height)
		if el.Text != "" {
			s += fmt.Sprintf(" %q", el.Text)
		}
		return s
	}
}

func endName(id domain.ID, p domain.Point) string {
	if id != "" {
		return short(id)
	}
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

func short(id domain.ID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

func floats(args []string, n int, usage string) ([]float64, error) {
	if len(args) != n {
		return nil, errors.New(usage)
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s: %q is not a number", usage, a)
		}
		out[i] = v
	}
	return out, nil
}
