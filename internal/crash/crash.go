/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and an autosave of the open document.
package crash

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "godiagram/internal/log"
	"godiagram/internal/storage"
	"godiagram/internal/version"
)

// Snapshotter provides the document state saved after a crash.
type Snapshotter interface {
	Snapshot() ([]byte, error)
	Path() string
}

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

var stderr io.Writer = os.Stderr

// Recover captures a panic, logs it with its stacktrace, writes a crash report and
// autosaves the document provided by src (if any). It must be deferred directly:
//
//	defer crash.Recover(ctrl)
func Recover(src Snapshotter) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	docPath := ""
	if src != nil {
		docPath = src.Path()
	}
	reportPath, err := writeReport(docPath, r, stack)
	if err != nil {
		l.Error("crash report failed", slog.Any("err", err))
	}
	if src != nil {
		if path, err := autosave(src); err != nil {
			l.Error("crash autosave failed", slog.Any("err", err))
		} else {
			l.Info("crash autosave written", slog.String("path", path))
			_, _ = fmt.Fprintf(stderr, "Unsaved changes were written to: %s\n", path)
		}
	}
	_, _ = fmt.Fprintf(stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func autosave(src Snapshotter) (string, error) {
	data, err := src.Snapshot()
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return storage.WriteAutosave(src.Path(), data)
}

// reportDir is the backups directory next to the document, or the temp dir for unsaved
// documents.
func reportDir(docPath string) string {
	if docPath == "" {
		return os.TempDir()
	}
	dir := filepath.Join(filepath.Dir(docPath), storage.BackupsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

func writeReport(docPath string, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(docPath), fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "godiagram crash report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if docPath != "" {
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", docPath)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	return path, f.Sync()
}
