/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package persist

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"godiagram/internal/domain"
)

//go:embed fsd.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// FormatError reports text that is not a valid document. Nothing is loaded when it is
// returned.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return "invalid document: " + e.Reason + ": " + e.Err.Error()
	}
	return "invalid document: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErr(reason string, args ...any) *FormatError {
	return &FormatError{Reason: fmt.Sprintf(reason, args...)}
}

// Deserialize reads the top-level elements of a document, discarding its selection.
func Deserialize(data []byte) ([]*domain.Element, error) {
	doc, err := DeserializeDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Elements, nil
}

// DeserializeDocument parses and validates a document. Any structural problem yields a
// *FormatError.
func DeserializeDocument(data []byte) (*Document, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &FormatError{Reason: "decode", Err: err}
	}
	if f.Version != Version {
		return nil, formatErr("unsupported version %d", f.Version)
	}

	recs := make(map[domain.ID]*record, len(f.Elements))
	for i := range f.Elements {
		r := &f.Elements[i]
		if _, dup := recs[r.ID]; dup {
			return nil, formatErr("duplicate id %s", r.ID)
		}
		recs[r.ID] = r
	}

	owner := make(map[domain.ID]domain.ID)
	for _, r := range f.Elements {
		if len(r.Children) > 0 && r.Kind != domain.KindGroup {
			return nil, formatErr("%s element %s has children", r.Kind, r.ID)
		}
		for _, c := range r.Children {
			if _, ok := recs[c]; !ok {
				return nil, formatErr("group %s references missing child %s", r.ID, c)
			}
			if prev, taken := owner[c]; taken {
				return nil, formatErr("element %s is owned by both %s and %s", c, prev, r.ID)
			}
			owner[c] = r.ID
		}
		for _, ref := range []domain.ID{r.StartID, r.EndID} {
			if ref == "" {
				continue
			}
			if r.Kind != domain.KindConnector {
				return nil, formatErr("%s element %s has connector references", r.Kind, r.ID)
			}
			if _, ok := recs[ref]; !ok {
				return nil, formatErr("connector %s references missing element %s", r.ID, ref)
			}
		}
	}

	for id := range owner {
		for cur, steps := id, 0; ; steps++ {
			up, ok := owner[cur]
			if !ok {
				break
			}
			if up == id || steps > len(owner) {
				return nil, formatErr("ownership cycle through %s", id)
			}
			cur = up
		}
	}

	top := make(map[domain.ID]bool, len(f.Order))
	for _, id := range f.Order {
		if _, ok := recs[id]; !ok {
			return nil, formatErr("order references missing element %s", id)
		}
		if p, owned := owner[id]; owned {
			return nil, formatErr("top-level element %s is a child of %s", id, p)
		}
		if top[id] {
			return nil, formatErr("element %s listed twice in order", id)
		}
		top[id] = true
	}

	built := make(map[domain.ID]*domain.Element, len(recs))
	doc := &Document{Elements: make([]*domain.Element, 0, len(f.Order))}
	for _, id := range f.Order {
		doc.Elements = append(doc.Elements, build(id, recs, built))
	}
	if len(built) != len(recs) {
		for _, r := range f.Elements {
			if _, ok := built[r.ID]; !ok {
				return nil, formatErr("element %s is not reachable from the document order", r.ID)
			}
		}
	}

	seen := make(map[domain.ID]bool, len(f.Selection))
	for _, id := range f.Selection {
		if !top[id] {
			return nil, formatErr("selected element %s is not a top-level element", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		doc.Selection = append(doc.Selection, built[id])
	}
	return doc, nil
}

func validate(data []byte) error {
	s, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load document schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &FormatError{Reason: "malformed json", Err: err}
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return &FormatError{Reason: "schema", Err: errors.New(strings.Join(msgs, "; "))}
}

func build(id domain.ID, recs map[domain.ID]*record, built map[domain.ID]*domain.Element) *domain.Element {
	r := recs[id]
	el := &domain.Element{
		ID:      r.ID,
		Kind:    r.Kind,
		Shape:   r.Shape,
		Bounds:  r.Bounds,
		Style:   r.Style,
		Text:    r.Text,
		StartID: r.StartID,
		EndID:   r.EndID,
	}
	if r.Start != nil {
		el.Start = *r.Start
	}
	if r.End != nil {
		el.End = *r.End
	}
	built[id] = el
	for _, c := range r.Children {
		el.Children = append(el.Children, build(c, recs, built))
	}
	return el
}
