/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package guides snaps a moving rectangle to the edges and centers of nearby rectangles
// and reports the guide lines a front end can draw while dragging.
package guides

import (
	"math"

	"godiagram/internal/domain"
)

// DefaultThreshold is the snap distance used when Options.Threshold is not positive.
const DefaultThreshold = 6

type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

// Feature tells which parts of the rectangles lined up.
type Feature int

const (
	Edge Feature = iota
	Center
)

// Options selects the candidate features. The zero value snaps nothing.
type Options struct {
	Threshold float64
	Edges     bool
	Centers   bool
}

// Defaults snaps edges and centers within DefaultThreshold.
func Defaults() Options {
	return Options{Threshold: DefaultThreshold, Edges: true, Centers: true}
}

// Guide is a line along which the moving rectangle was aligned. Pos is the x coordinate
// of a vertical guide or the y coordinate of a horizontal one; From and To span both
// rectangles.
type Guide struct {
	Orientation Orientation
	Feature     Feature
	Pos         float64
	From, To    domain.Point
}

type axis struct {
	delta float64
	dist  float64
	guide Guide
	hit   bool
}

func (a *axis) consider(delta, threshold float64, g Guide) {
	d := math.Abs(delta)
	if d > threshold || (a.hit && d >= a.dist) {
		return
	}
	*a = axis{delta: delta, dist: d, guide: g, hit: true}
}

// Snap moves r onto the closest anchor feature within the threshold, independently in x
// and y. Ties keep the anchor listed first.
func Snap(r domain.Rect, anchors []domain.Rect, opt Options) (domain.Rect, []Guide) {
	if opt.Threshold <= 0 {
		opt.Threshold = DefaultThreshold
	}
	var x, y axis
	left, right, cx := r.X, r.X+r.Width, r.X+r.Width/2
	top, bottom, cy := r.Y, r.Y+r.Height, r.Y+r.Height/2
	for _, a := range anchors {
		al, ar, acx := a.X, a.X+a.Width, a.X+a.Width/2
		at, ab, acy := a.Y, a.Y+a.Height, a.Y+a.Height/2
		if opt.Edges {
			for _, p := range [][2]float64{{left, al}, {right, ar}, {left, ar}, {right, al}} {
				x.consider(p[1]-p[0], opt.Threshold, vertical(p[1], r, a, Edge))
			}
			for _, p := range [][2]float64{{top, at}, {bottom, ab}, {top, ab}, {bottom, at}} {
				y.consider(p[1]-p[0], opt.Threshold, horizontal(p[1], r, a, Edge))
			}
		}
		if opt.Centers {
			x.consider(acx-cx, opt.Threshold, vertical(acx, r, a, Center))
			y.consider(acy-cy, opt.Threshold, horizontal(acy, r, a, Center))
		}
	}

	var out []Guide
	if x.hit {
		r.X += x.delta
		out = append(out, x.guide)
	}
	if y.hit {
		r.Y += y.delta
		out = append(out, y.guide)
	}
	return r, out
}

func vertical(pos float64, r, a domain.Rect, f Feature) Guide {
	y0, y1 := math.Min(r.Y, a.Y), math.Max(r.Y+r.Height, a.Y+a.Height)
	return Guide{Orientation: Vertical, Feature: f, Pos: pos, From: domain.Point{X: pos, Y: y0}, To: domain.Point{X: pos, Y: y1}}
}

func horizontal(pos float64, r, a domain.Rect, f Feature) Guide {
	x0, x1 := math.Min(r.X, a.X), math.Max(r.X+r.Width, a.X+a.Width)
	return Guide{Orientation: Horizontal, Feature: f, Pos: pos, From: domain.Point{X: x0, Y: pos}, To: domain.Point{X: x1, Y: pos}}
}
