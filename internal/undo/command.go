/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"errors"
	"fmt"
)

// Command is one reversible edit. Revert must restore exactly the state Apply started from.
type Command interface {
	Label() string
	Apply() error
	Revert() error
}

// Func adapts a pair of closures to Command.
type Func struct {
	Name     string
	Forward  func()
	Backward func()
}

func (f Func) Label() string { return f.Name }

func (f Func) Apply() error {
	if f.Forward != nil {
		f.Forward()
	}
	return nil
}

func (f Func) Revert() error {
	if f.Backward != nil {
		f.Backward()
	}
	return nil
}

// Batch applies its commands in order and reverts them in reverse order, so the whole
// sequence is one undo step. A failing step rolls back the steps already done.
type Batch struct {
	Name string
	Cmds []Command
}

func (b *Batch) Label() string { return b.Name }

func (b *Batch) Apply() error {
	for i, c := range b.Cmds {
		if err := c.Apply(); err != nil {
			return rollback(fmt.Errorf("%s: step %d: %w", b.Name, i, err), b.Cmds[:i])
		}
	}
	return nil
}

func (b *Batch) Revert() error {
	for i := len(b.Cmds) - 1; i >= 0; i-- {
		if err := b.Cmds[i].Revert(); err != nil {
			return fmt.Errorf("%s: revert step %d: %w", b.Name, i, err)
		}
	}
	return nil
}

// rollback reverts done in reverse order and joins any revert failure onto cause.
func rollback(cause error, done []Command) error {
	for i := len(done) - 1; i >= 0; i-- {
		if err := done[i].Revert(); err != nil {
			return errors.Join(cause, err)
		}
	}
	return cause
}
