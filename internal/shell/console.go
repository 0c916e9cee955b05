/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"godiagram/internal/document"
)

// Console reads answers line by line from r and writes prompts to w. It implements
// document.Prompter.
type Console struct {
	r *bufio.Reader
	w io.Writer
}

func NewConsole(r io.Reader, w io.Writer) *Console {
	return &Console{r: bufio.NewReader(r), w: w}
}

// ReadLine prints prompt and returns the next input line without its line ending.
// It returns io.EOF once the input is exhausted.
func (c *Console) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		_, _ = io.WriteString(c.w, prompt)
	}
	line, err := c.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.w, format, args...)
}

func (c *Console) AskSaveChanges() (document.Answer, error) {
	for {
		line, err := c.ReadLine("The document has unsaved changes. Save them? [y]es/[n]o/[c]ancel: ")
		if err == io.EOF {
			return document.AnswerCancel, nil
		}
		if err != nil {
			return document.AnswerCancel, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return document.AnswerSave, nil
		case "n", "no":
			return document.AnswerDiscard, nil
		case "c", "cancel", "":
			return document.AnswerCancel, nil
		}
	}
}

func (c *Console) AskOpenPath() (string, bool, error) {
	line, err := c.ReadLine("Open file: ")
	if err == io.EOF {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	p := strings.TrimSpace(line)
	return p, p != "", nil
}

// AskSavePath offers current as the default answer.
func (c *Console) AskSavePath(current string) (string, bool, error) {
	prompt := "Save as: "
	if current != "" {
		prompt = fmt.Sprintf("Save as [%s]: ", current)
	}
	line, err := c.ReadLine(prompt)
	if err == io.EOF {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	p := strings.TrimSpace(line)
	if p == "" {
		p = current
	}
	return p, p != "", nil
}
