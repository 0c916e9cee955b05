/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import "strings"

// lineSpacing is the distance between label baselines relative to the font size.
const lineSpacing = 1.2

// wrapText breaks text into lines no wider than maxWidth as reported by measure. Explicit
// newlines always break. A word wider than maxWidth gets a line of its own. maxWidth <= 0
// disables wrapping.
func wrapText(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			next := cur + " " + w
			if maxWidth > 0 && measure(next) > maxWidth {
				lines = append(lines, cur)
				cur = w
				continue
			}
			cur = next
		}
		lines = append(lines, cur)
	}
	return lines
}

// firstBaseline returns the offset from the label center to the center of the first of n
// lines spaced lineH apart.
func firstBaseline(n int, lineH float64) float64 {
	return -float64(n-1) * lineH / 2
}
