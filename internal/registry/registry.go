/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package registry owns the canonical identity of every element known to an editing
// session. Elements live in an arena keyed by id for the whole session; a separate
// membership set tracks which of them are currently attached to the document.
// Detaching never destroys an element, so a later redo can reattach the same value.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"godiagram/internal/domain"
)

var (
	// ErrNotFound is returned by Get when the id is not attached.
	ErrNotFound = errors.New("element not found")
	// ErrDuplicateID is returned when a different element already owns the id.
	ErrDuplicateID = errors.New("duplicate element id")
)

// Registry is not safe for concurrent use; it belongs to a single editing session.
type Registry struct {
	arena  map[domain.ID]*domain.Element
	active map[domain.ID]struct{}
}

func New() *Registry {
	return &Registry{
		arena:  make(map[domain.ID]*domain.Element),
		active: make(map[domain.ID]struct{}),
	}
}

// NewID allocates a fresh element id.
func (r *Registry) NewID() domain.ID {
	for {
		id := domain.ID(uuid.NewString())
		if _, taken := r.arena[id]; !taken {
			return id
		}
	}
}

// Add attaches el. Re-adding a detached element restores it by identity.
func (r *Registry) Add(el *domain.Element) error {
	if el == nil || el.ID == "" {
		return errors.New("element without id")
	}
	if cur, ok := r.arena[el.ID]; ok && cur != el {
		return fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
	}
	r.arena[el.ID] = el
	r.active[el.ID] = struct{}{}
	return nil
}

// Remove detaches el; the arena keeps it.
func (r *Registry) Remove(el *domain.Element) {
	if el == nil {
		return
	}
	delete(r.active, el.ID)
}

// AddTree attaches el and all of its descendants. Nothing is attached if any id collides.
func (r *Registry) AddTree(el *domain.Element) error {
	var err error
	el.Walk(func(e *domain.Element) bool {
		if cur, ok := r.arena[e.ID]; ok && cur != e {
			err = fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	el.Walk(func(e *domain.Element) bool {
		err = r.Add(e)
		return err == nil
	})
	return err
}

// RemoveTree detaches el and all of its descendants.
func (r *Registry) RemoveTree(el *domain.Element) {
	el.Walk(func(e *domain.Element) bool {
		r.Remove(e)
		return true
	})
}

// Contains reports whether id is attached.
func (r *Registry) Contains(id domain.ID) bool {
	_, ok := r.active[id]
	return ok
}

// Get returns the attached element with the given id.
func (r *Registry) Get(id domain.ID) (*domain.Element, error) {
	if _, ok := r.active[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.arena[id], nil
}

// Lookup returns the element with the given id whether attached or detached.
func (r *Registry) Lookup(id domain.ID) (*domain.Element, bool) {
	el, ok := r.arena[id]
	return el, ok
}

// Detached reports whether id is known but not attached.
func (r *Registry) Detached(id domain.ID) bool {
	_, known := r.arena[id]
	return known && !r.Contains(id)
}

// Len returns the number of attached elements.
func (r *Registry) Len() int { return len(r.active) }

// IDs returns the attached ids in sorted order.
func (r *Registry) IDs() []domain.ID {
	out := make([]domain.ID, 0, len(r.active))
	for id := range r.active {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset forgets every element. Used when a session starts over on New or Open.
func (r *Registry) Reset() {
	r.arena = make(map[domain.ID]*domain.Element)
	r.active = make(map[domain.ID]struct{})
}
