/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package persist converts diagram elements to and from the .fsd document text.
//
// A document is a JSON object listing every element exactly once in pre-order of the
// document order, the top-level order and the selection. Group membership and connector
// bindings are stored as id references, so a document read back has the same structure it
// was written with.
package persist

import (
	"encoding/json"
	"fmt"

	"godiagram/internal/domain"
)

const (
	// FormatName tags .fsd documents.
	FormatName = "fsd"
	// Version is the document version written by Serialize.
	Version = 1
	// Ext is the file extension of documents.
	Ext = ".fsd"
)

// Document is a deserialized document: top-level elements in z-order and the selection.
type Document struct {
	Elements  []*domain.Element
	Selection []*domain.Element
}

type file struct {
	Format    string      `json:"format"`
	Version   int         `json:"version"`
	Order     []domain.ID `json:"order"`
	Selection []domain.ID `json:"selection,omitempty"`
	Elements  []record    `json:"elements"`
}

type record struct {
	ID       domain.ID     `json:"id"`
	Kind     domain.Kind   `json:"kind"`
	Shape    string        `json:"shape,omitempty"`
	Bounds   domain.Rect   `json:"bounds"`
	Style    domain.Style  `json:"style"`
	Text     string        `json:"text,omitempty"`
	Children []domain.ID   `json:"children,omitempty"`
	Start    *domain.Point `json:"start,omitempty"`
	End      *domain.Point `json:"end,omitempty"`
	StartID  domain.ID     `json:"startId,omitempty"`
	EndID    domain.ID     `json:"endId,omitempty"`
}

// Serialize writes els as a document with an empty selection.
func Serialize(els []*domain.Element) ([]byte, error) {
	return SerializeDocument(els, nil)
}

// SerializeDocument writes els and the selection. Connector ends bound to elements that
// are not part of els are written unbound. Selected elements that are not top-level in els
// are skipped.
func SerializeDocument(els, selection []*domain.Element) ([]byte, error) {
	f := file{
		Format:   FormatName,
		Version:  Version,
		Order:    make([]domain.ID, 0, len(els)),
		Elements: []record{},
	}
	present := make(map[domain.ID]*domain.Element)
	var err error
	for _, top := range els {
		if top == nil {
			return nil, fmt.Errorf("serialize: nil element")
		}
		f.Order = append(f.Order, top.ID)
		top.Walk(func(e *domain.Element) bool {
			if prev, ok := present[e.ID]; ok {
				if prev == e {
					err = fmt.Errorf("serialize: element %s appears twice", e.ID)
				} else {
					err = fmt.Errorf("serialize: duplicate id %s", e.ID)
				}
				return false
			}
			present[e.ID] = e
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	for _, top := range els {
		top.Walk(func(e *domain.Element) bool {
			f.Elements = append(f.Elements, toRecord(e, present))
			return true
		})
	}
	top := make(map[domain.ID]bool, len(f.Order))
	for _, id := range f.Order {
		top[id] = true
	}
	for _, el := range selection {
		if el != nil && top[el.ID] && present[el.ID] == el {
			f.Selection = append(f.Selection, el.ID)
		}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	return data, nil
}

func toRecord(e *domain.Element, present map[domain.ID]*domain.Element) record {
	r := record{
		ID:     e.ID,
		Kind:   e.Kind,
		Shape:  e.Shape,
		Bounds: e.Bounds,
		Style:  e.Style,
		Text:   e.Text,
	}
	for _, c := range e.Children {
		r.Children = append(r.Children, c.ID)
	}
	if e.IsConnector() {
		start, end := e.Start, e.End
		r.Start, r.End = &start, &end
		if _, ok := present[e.StartID]; ok {
			r.StartID = e.StartID
		}
		if _, ok := present[e.EndID]; ok {
			r.EndID = e.EndID
		}
	}
	return r
}

// Reidentify gives every element in els and their descendants a fresh id from newID.
// Connector bindings between the elements follow the new ids; bindings to anything else
// are dropped.
func Reidentify(els []*domain.Element, newID func() domain.ID) {
	remap := make(map[domain.ID]domain.ID)
	for _, top := range els {
		top.Walk(func(e *domain.Element) bool {
			id := newID()
			remap[e.ID] = id
			e.ID = id
			return true
		})
	}
	for _, top := range els {
		top.Walk(func(e *domain.Element) bool {
			if e.IsConnector() {
				e.StartID = remap[e.StartID]
				e.EndID = remap[e.EndID]
			}
			return true
		})
	}
}
