/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"godiagram/internal/document"
	"godiagram/internal/editor"
	"godiagram/internal/registry"
)

func newShell(input string) (*Shell, *document.Controller, *bytes.Buffer) {
	var out bytes.Buffer
	con := NewConsole(strings.NewReader(input), &out)
	s := editor.NewSession(editor.Options{Clipboard: &editor.MemoryClipboard{}})
	ctrl := document.NewController(s, con, document.Options{KeepBackups: -1})
	return New(ctrl, con), ctrl, &out
}

func TestRunGroupUndoAndQuitDiscarding(t *testing.T) {
	script := strings.Join([]string{
		"add box 0 0 10 10 A",
		"add box 20 0 10 10 B",
		"select all",
		"group",
		"list",
		"undo",
		"quit",
		"n",
	}, "\n") + "\n"
	sh, ctrl, out := newShell(script)
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sh.Quit() {
		t.Fatalf("quit not accepted")
	}
	s := ctrl.Session()
	if got := s.Doc.Len(); got != 2 {
		t.Fatalf("elements = %d, want 2", got)
	}
	if s.HasChanges() {
		t.Fatalf("discard should clear changes")
	}
	for _, want := range []string{"grouped 2 elements", "group ", "(2 members)", "unsaved changes"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunReportsErrorsAndContinues(t *testing.T) {
	sh, _, out := newShell("bogus\nmove 1\nstatus\n")
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	o := out.String()
	if !strings.Contains(o, `unknown command "bogus"`) {
		t.Fatalf("missing unknown command error:\n%s", o)
	}
	if !strings.Contains(o, "usage: move") {
		t.Fatalf("missing usage error:\n%s", o)
	}
	if !strings.Contains(o, "(unsaved): 0 elements, 0 selected, modified=false") {
		t.Fatalf("missing status:\n%s", o)
	}
}

func TestQuitCancelledKeepsRunning(t *testing.T) {
	sh, _, out := newShell("add box 0 0 1 1\nquit\nc\nstatus\n")
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sh.Quit() {
		t.Fatalf("quit accepted after cancel")
	}
	if !strings.Contains(out.String(), "modified=true") {
		t.Fatalf("status not printed after cancelled quit:\n%s", out.String())
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	sh, _, _ := newShell("status\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sh.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSaveAsNewOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.fsd")
	script := "add ellipse 0 0 5 5 E\nsaveas " + path + "\nnew\nopen " + path + "\nlist\n"
	sh, ctrl, out := newShell(script)
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctrl.Path() != path {
		t.Fatalf("path = %q, want %q", ctrl.Path(), path)
	}
	if ctrl.Session().Doc.Len() != 1 {
		t.Fatalf("elements = %d, want 1", ctrl.Session().Doc.Len())
	}
	if !strings.Contains(out.String(), `ellipse`) || !strings.Contains(out.String(), "opened "+path) {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestExecConnectAndTextByPrefix(t *testing.T) {
	sh, ctrl, _ := newShell("")
	for _, line := range []string{"add box 0 0 10 10", "add box 40 0 10 10"} {
		if err := sh.Exec(line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	d := ctrl.Session().Doc
	a, b := string(d.At(0).ID)[:8], string(d.At(1).ID)[:8]
	if err := sh.Exec("connect " + a + " " + b); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if d.Len() != 3 || !d.At(2).IsConnector() {
		t.Fatalf("connector not added")
	}
	if err := sh.Exec("text " + a + " hello world"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if got := d.At(0).Text; got != "hello world" {
		t.Fatalf("text = %q", got)
	}
	if err := sh.Exec("text zzzz x"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSelectRejectsChildren(t *testing.T) {
	sh, ctrl, _ := newShell("")
	for _, line := range []string{"add box 0 0 10 10", "add box 40 0 10 10", "select all", "group"} {
		if err := sh.Exec(line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	g := ctrl.Session().Doc.At(0)
	child := string(g.Children[0].ID)
	if err := sh.Exec("select " + child); err == nil {
		t.Fatalf("selecting a group member should fail")
	}
	if err := sh.Exec("select none"); err != nil {
		t.Fatal(err)
	}
	if n := len(ctrl.Session().Doc.SelectedElements()); n != 0 {
		t.Fatalf("selected = %d, want 0", n)
	}
}

func TestConsoleAnswers(t *testing.T) {
	c := NewConsole(strings.NewReader("maybe\ny\n\n"), io.Discard)
	ans, err := c.AskSaveChanges()
	if err != nil || ans != document.AnswerSave {
		t.Fatalf("answer = %v err = %v, want save", ans, err)
	}
	p, ok, err := c.AskSavePath("a.fsd")
	if err != nil || !ok || p != "a.fsd" {
		t.Fatalf("AskSavePath = %q %v %v", p, ok, err)
	}
	if _, ok, _ := c.AskOpenPath(); ok {
		t.Fatalf("AskOpenPath at EOF should be cancelled")
	}
	if ans, _ := c.AskSaveChanges(); ans != document.AnswerCancel {
		t.Fatalf("EOF answer = %v, want cancel", ans)
	}
}

func TestSnapCommand(t *testing.T) {
	sh, ctrl, out := newShell("add box 0 0 10 10\nadd box 20 0 10 10\nsnap -8 0\n")
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "moved by -10,0 (2 guides)") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if x := ctrl.Session().Doc.At(1).Bounds.X; x != 10 {
		t.Fatalf("x = %g, want 10", x)
	}
}

func TestRejectsNonFiniteNumbers(t *testing.T) {
	sh, ctrl, _ := newShell("")
	for _, line := range []string{"add box NaN 0 1 1", "add box 0 0 Inf 1"} {
		if err := sh.Exec(line); err == nil || !strings.Contains(err.Error(), "is not a number") {
			t.Fatalf("%s: err = %v", line, err)
		}
	}
	if err := sh.Exec("add box 0 0 10 10"); err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"move Inf 0", "move 0 -inf", "snap nan 0"} {
		if err := sh.Exec(line); err == nil {
			t.Fatalf("%s accepted", line)
		}
	}
	s := ctrl.Session()
	if s.Doc.Len() != 1 || s.Doc.At(0).Bounds.X != 0 || s.Stack.Len() != 1 {
		t.Fatalf("document changed: len=%d x=%g history=%d", s.Doc.Len(), s.Doc.At(0).Bounds.X, s.Stack.Len())
	}
}

func TestDeletedIDReportsRemoved(t *testing.T) {
	sh, ctrl, _ := newShell("")
	if err := sh.Exec("add box 0 0 10 10"); err != nil {
		t.Fatal(err)
	}
	id := string(ctrl.Session().Doc.At(0).ID)
	if err := sh.Exec("delete"); err != nil {
		t.Fatal(err)
	}
	err := sh.Exec("text " + id + " x")
	if !errors.Is(err, registry.ErrNotFound) || !strings.Contains(err.Error(), "was removed") {
		t.Fatalf("err = %v, want a removed element error", err)
	}
	if err := sh.Exec("undo"); err != nil {
		t.Fatal(err)
	}
	if err := sh.Exec("text " + id + " x"); err != nil {
		t.Fatalf("after undo: %v", err)
	}
}
