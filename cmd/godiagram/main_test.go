/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"godiagram/internal/config"
	"godiagram/internal/domain"
	"godiagram/internal/export"
	"godiagram/internal/persist"
)

func testEnv(t *testing.T, recent bool) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigFile, filepath.Join(dir, "config.yaml"))
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvRecentPath, filepath.Join(dir, "recent.sqlite"))
	if recent {
		t.Setenv(config.EnvRecentEnabled, "true")
	} else {
		t.Setenv(config.EnvRecentEnabled, "false")
	}
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&app{})
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	testEnv(t, false)
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "godiagram ") {
		t.Fatalf("output = %q", out)
	}
}

func TestNewThenInfo(t *testing.T) {
	dir := testEnv(t, false)
	path := filepath.Join(dir, "empty.fsd")
	if _, err := run(t, "", "new", path); err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := run(t, "", "new", path); err == nil {
		t.Fatalf("new over an existing file should fail without --force")
	}
	out, err := run(t, "", "info", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(out, "Top-level elements: 0 (selected 0)") {
		t.Fatalf("info output = %q", out)
	}
}

func TestExportCommand(t *testing.T) {
	dir := testEnv(t, false)
	src := filepath.Join(dir, "one.fsd")
	data, err := persist.Serialize([]*domain.Element{domain.NewShape("a", domain.ShapeBox, domain.R(0, 0, 20, 10), "A")})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "one.pdf")
	if _, err := run(t, "", "export", src, dst, "--outline"); err != nil {
		t.Fatalf("export: %v", err)
	}
	if fi, err := os.Stat(dst); err != nil || fi.Size() == 0 {
		t.Fatalf("pdf not written: %v", err)
	}
	_, err = run(t, "", "export", src, filepath.Join(dir, "one.svg"))
	if !errors.Is(err, export.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestEditSavesAndRecordsRecent(t *testing.T) {
	dir := testEnv(t, true)
	path := filepath.Join(dir, "flow.fsd")
	script := "add box 0 0 10 10 Start\nsaveas " + path + "\nquit\n"
	if _, err := run(t, script, "edit"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("document not saved: %v", err)
	}
	els, err := persist.Deserialize(data)
	if err != nil || len(els) != 1 || els[0].Text != "Start" {
		t.Fatalf("saved document = %v, %v", els, err)
	}
	out, err := run(t, "", "recent")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("recent output missing %s:\n%s", path, out)
	}
}

func TestConfigInit(t *testing.T) {
	dir := testEnv(t, false)
	if _, err := run(t, "", "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	cfg, err := config.LoadFrom(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Editor.HistoryDepth != config.Defaults().Editor.HistoryDepth {
		t.Fatalf("history depth = %d", cfg.Editor.HistoryDepth)
	}
}
