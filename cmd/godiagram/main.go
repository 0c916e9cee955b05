/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"godiagram/internal/config"
	"godiagram/internal/crash"
	"godiagram/internal/document"
	"godiagram/internal/editor"
	"godiagram/internal/export"
	applog "godiagram/internal/log"
	"godiagram/internal/storage"

	"github.com/spf13/cobra"
)

var errNoDocument = errors.New("no document open")

// app carries state shared by the subcommands. It also feeds crash recovery with the
// document being edited.
type app struct {
	cfgFile    string
	logLevel   string
	systemClip bool

	cfg  config.AppConfig
	log  *slog.Logger
	ctrl *document.Controller
}

func main() {
	a := &app{}
	defer crash.Recover(a)
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) Snapshot() ([]byte, error) {
	if a.ctrl == nil {
		return nil, errNoDocument
	}
	return a.ctrl.Snapshot()
}

func (a *app) Path() string {
	if a.ctrl == nil {
		return ""
	}
	return a.ctrl.Path()
}

// setup loads the configuration and initializes logging before any subcommand runs.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.LoadFrom(a.cfgFile)
	} else {
		a.cfg, err = config.Load()
	}
	lo := applog.Options{
		Level:     a.cfg.Logging.Level,
		Format:    a.cfg.Logging.Format,
		AddSource: a.cfg.Logging.Source,
		File:      a.cfg.Logging.File,
	}
	if a.logLevel != "" {
		lo.Level = a.logLevel
	}
	applog.Init(lo)
	a.log = applog.WithComponent("cli")
	if err != nil {
		a.log.Warn("config not loaded, using defaults", slog.Any("err", err))
	}
	return nil
}

func (a *app) exportOptions() export.Options {
	return export.Options{
		Scale:        a.cfg.Export.Scale,
		Margin:       a.cfg.Export.Margin,
		Background:   a.cfg.Export.BackgroundColor(),
		GroupOutline: a.cfg.Export.GroupOutline,
	}
}

// openRecent returns nil when the recent index is disabled.
func (a *app) openRecent() (*storage.Recent, error) {
	if !a.cfg.Recent.Enabled {
		return nil, nil
	}
	p := a.cfg.Recent.Path
	if p == "" {
		var err error
		if p, err = storage.DefaultRecentPath(); err != nil {
			return nil, err
		}
	}
	return storage.OpenRecent(p)
}

func (a *app) newSession() *editor.Session {
	var clip editor.Clipboard = &editor.MemoryClipboard{}
	if a.systemClip {
		if editor.SystemAvailable() {
			clip = editor.SystemClipboard{}
		} else {
			a.log.Warn("system clipboard unavailable, using in-process clipboard")
		}
	}
	return editor.NewSession(editor.Options{
		HistoryDepth: a.cfg.Editor.HistoryDepth,
		PasteOffset:  a.cfg.Editor.PasteOffset,
		Clipboard:    clip,
	})
}

func abs(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}
