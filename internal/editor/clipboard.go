/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrEmptyClipboard is returned by Paste when there is nothing to paste.
var ErrEmptyClipboard = errors.New("clipboard is empty")

// Clipboard is the text clipboard used by Copy and Paste.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard uses the operating system clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemAvailable reports whether a system clipboard can be used on this machine.
func SystemAvailable() bool { return !clipboard.Unsupported }

// MemoryClipboard keeps the clipboard in process memory.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (m *MemoryClipboard) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *MemoryClipboard) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}
