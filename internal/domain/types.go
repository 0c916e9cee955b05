/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the element model shared by the registry, the editing session,
// the serializer and the exporters. Elements are addressed by a stable ID; groups
// own their children by pointer, connectors reference their endpoints by ID.

// ID is the opaque, stable identity of an element.
type ID string

// Kind tags what an element is.
type Kind string

const (
	KindShape     Kind = "shape"
	KindConnector Kind = "connector"
	KindGroup     Kind = "group"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindShape, KindConnector, KindGroup:
		return true
	}
	return false
}

// Primitive shape tags for KindShape elements.
const (
	ShapeBox     = "box"
	ShapeEllipse = "ellipse"
	ShapeDiamond = "diamond"
	ShapeText    = "text"
)

// Element is an addressable diagram object.
type Element struct {
	ID     ID
	Kind   Kind
	Shape  string // primitive tag, only meaningful for KindShape
	Bounds Rect
	Style  Style
	Text   string

	// Connector endpoints. StartID/EndID are empty when the end is not bound.
	Start   Point
	End     Point
	StartID ID
	EndID   ID

	// Children is the ordered membership of a group.
	Children []*Element
}

// Style holds the persisted visual attributes of an element.
type Style struct {
	Fill     Color   `json:"fill"`
	Stroke   Stroke  `json:"stroke"`
	FontSize float64 `json:"fontSize,omitempty"`
}

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

type Stroke struct {
	Color Color   `json:"color"`
	Width float64 `json:"width"`
}

// DefaultStyle is applied to shapes created without explicit styling.
func DefaultStyle() Style {
	return Style{
		Fill:     Color{R: 255, G: 255, B: 255, A: 255},
		Stroke:   Stroke{Color: Color{A: 255}, Width: 1},
		FontSize: 10,
	}
}

// NewShape builds a primitive shape element.
func NewShape(id ID, shape string, bounds Rect, text string) *Element {
	return &Element{ID: id, Kind: KindShape, Shape: shape, Bounds: bounds, Style: DefaultStyle(), Text: text}
}

// NewConnector builds a connector between two points; endpoints are bound when the ids are non-empty.
func NewConnector(id ID, start, end Point, startID, endID ID) *Element {
	c := &Element{ID: id, Kind: KindConnector, Start: start, End: end, StartID: startID, EndID: endID, Style: DefaultStyle()}
	c.Bounds = RectFromPoints(start, end)
	return c
}

// NewGroup builds a group owning children; its bounds are the union of the children.
func NewGroup(id ID, children ...*Element) *Element {
	g := &Element{ID: id, Kind: KindGroup, Style: DefaultStyle()}
	g.Children = append(g.Children, children...)
	g.Bounds = UnionBounds(children)
	return g
}

func (e *Element) IsGroup() bool     { return e != nil && e.Kind == KindGroup }
func (e *Element) IsConnector() bool { return e != nil && e.Kind == KindConnector }

// Walk visits e and all of its descendants in pre-order. Returning false stops the walk.
func (e *Element) Walk(fn func(*Element) bool) bool {
	if e == nil {
		return true
	}
	if !fn(e) {
		return false
	}
	for _, c := range e.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of e, including its children.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Children != nil {
		cp.Children = make([]*Element, len(e.Children))
		for i, c := range e.Children {
			cp.Children[i] = c.Clone()
		}
	}
	return &cp
}

// CloneAll deep-copies a sequence of elements.
func CloneAll(els []*Element) []*Element {
	out := make([]*Element, len(els))
	for i, e := range els {
		out[i] = e.Clone()
	}
	return out
}

// Translate offsets the element geometry by dx,dy. Groups move their children too.
func (e *Element) Translate(dx, dy float64) {
	e.Walk(func(el *Element) bool {
		el.Bounds = el.Bounds.Offset(dx, dy)
		if el.Kind == KindConnector {
			el.Start = el.Start.Offset(dx, dy)
			el.End = el.End.Offset(dx, dy)
		}
		return true
	})
}

// IDs returns the ids of els in order.
func IDs(els []*Element) []ID {
	out := make([]ID, len(els))
	for i, e := range els {
		out[i] = e.ID
	}
	return out
}
