/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package registry

import (
	"errors"
	"testing"

	"godiagram/internal/domain"
)

func TestAddRemoveKeepsElementAlive(t *testing.T) {
	r := New()
	a := domain.NewShape("1", domain.ShapeBox, domain.R(0, 0, 10, 10), "A")
	if err := r.Add(a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !r.Contains("1") {
		t.Fatalf("expected id 1 to be attached")
	}
	r.Remove(a)
	if r.Contains("1") {
		t.Fatalf("expected id 1 to be detached")
	}
	if _, err := r.Get("1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Remove: err=%v, want ErrNotFound", err)
	}
	if !r.Detached("1") {
		t.Fatalf("expected id 1 to be reported as detached")
	}
	if got, ok := r.Lookup("1"); !ok || got != a {
		t.Fatalf("Lookup did not return the detached element")
	}
	if err := r.Add(a); err != nil {
		t.Fatalf("re-Add: %v", err)
	}
	got, err := r.Get("1")
	if err != nil || got != a || got.Text != "A" {
		t.Fatalf("re-Add did not restore identity: got=%v err=%v", got, err)
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	r := New()
	if err := r.Add(domain.NewShape("x", domain.ShapeBox, domain.R(0, 0, 1, 1), "")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := r.Add(domain.NewShape("x", domain.ShapeBox, domain.R(0, 0, 1, 1), ""))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
}

func TestTreeOperations(t *testing.T) {
	r := New()
	a := domain.NewShape("a", domain.ShapeBox, domain.R(0, 0, 1, 1), "")
	b := domain.NewShape("b", domain.ShapeBox, domain.R(0, 0, 1, 1), "")
	g := domain.NewGroup("g", a, b)
	if err := r.AddTree(g); err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	r.RemoveTree(g)
	if r.Len() != 0 {
		t.Fatalf("Len after RemoveTree = %d, want 0", r.Len())
	}
	if ids := r.IDs(); len(ids) != 0 {
		t.Fatalf("IDs after RemoveTree = %v", ids)
	}
}

func TestAddTreeIsAllOrNothing(t *testing.T) {
	r := New()
	if err := r.Add(domain.NewShape("b", domain.ShapeBox, domain.R(0, 0, 1, 1), "")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	g := domain.NewGroup("g", domain.NewShape("a", domain.ShapeBox, domain.R(0, 0, 1, 1), ""), domain.NewShape("b", domain.ShapeBox, domain.R(0, 0, 1, 1), ""))
	if err := r.AddTree(g); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("AddTree err = %v, want ErrDuplicateID", err)
	}
	if r.Contains("g") || r.Contains("a") {
		t.Fatalf("AddTree attached elements despite collision")
	}
}

func TestNewIDIsUnique(t *testing.T) {
	r := New()
	seen := map[domain.ID]bool{}
	for i := 0; i < 100; i++ {
		id := r.NewID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
