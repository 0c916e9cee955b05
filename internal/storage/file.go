/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "godiagram/internal/log"
)

const (
	// BackupsDirName holds timestamped copies of documents next to the document itself.
	BackupsDirName = ".fsd-backups"
	// DefaultKeepBackups is used when WriteOptions.KeepBackups is zero.
	DefaultKeepBackups = 5

	backupStamp   = "20060102-150405.000"
	autosaveTag   = ".autosave"
	unsavedPrefix = "godiagram-unsaved"
)

// WriteOptions controls WriteDocument.
type WriteOptions struct {
	// KeepBackups is the number of backups retained per document. Zero means
	// DefaultKeepBackups, a negative value disables backups.
	KeepBackups int
}

// ReadDocument returns the raw contents of the document at path.
func ReadDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// WriteDocument replaces the file at path with data. An existing file is copied to the
// backups dir first. The new content goes to a temp file in the same directory which is
// synced and renamed over the target, so a crash never leaves a half-written document.
func WriteDocument(path string, data []byte, opts WriteOptions) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "write").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return errors.New("document path is empty")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure document dir: %w", err)
	}

	keep := opts.KeepBackups
	if keep == 0 {
		keep = DefaultKeepBackups
	}
	if keep > 0 {
		if _, statErr := os.Stat(path); statErr == nil {
			bpath := backupPath(path, time.Now())
			if err := copyFile(path, bpath); err != nil {
				return fmt.Errorf("backup current document: %w", err)
			}
			if err := pruneBackups(path, keep); err != nil {
				l.Warn("prune backups failed", slog.Any("err", err))
			}
		}
	}

	base := filepath.Base(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", err)
	}
	l.Debug("document written", slog.Int("bytes", len(data)))
	return nil
}

func backupPath(path string, at time.Time) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, BackupsDirName, fmt.Sprintf("%s.%s.bak", name, at.Format(backupStamp)))
}

// Backups lists the backups of the document at path, oldest first.
func Backups(path string) ([]string, error) {
	dir, name := filepath.Split(path)
	bdir := filepath.Join(dir, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		n := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(n, name+".") && strings.HasSuffix(n, ".bak") {
			out = append(out, filepath.Join(bdir, n))
		}
	}
	sort.Strings(out) // stamps sort lexicographically
	return out, nil
}

func pruneBackups(path string, keep int) error {
	all, err := Backups(path)
	if err != nil {
		return err
	}
	var errs []error
	for len(all) > keep {
		if err := os.Remove(all[0]); err != nil {
			errs = append(errs, err)
		}
		all = all[1:]
	}
	return errors.Join(errs...)
}

// AutosavePath returns where the crash autosave for docPath goes. Unsaved documents are
// autosaved to the temp dir.
func AutosavePath(docPath string) string {
	if strings.TrimSpace(docPath) == "" {
		return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d%s.fsd", unsavedPrefix, os.Getpid(), autosaveTag))
	}
	dir, name := filepath.Split(docPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dir, name+autosaveTag+".fsd")
}

// WriteAutosave writes data next to docPath without touching docPath or its backups.
func WriteAutosave(docPath string, data []byte) (string, error) {
	p := AutosavePath(docPath)
	if err := WriteDocument(p, data, WriteOptions{KeepBackups: -1}); err != nil {
		return "", fmt.Errorf("autosave: %w", err)
	}
	return p, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sf.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
