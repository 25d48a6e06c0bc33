// Package note splits a formatted transcript into its title and body.
package note

import (
	"errors"
	"strings"
)

// ErrMalformed is returned when formatted text lacks a title or a body
var ErrMalformed = errors.New("formatted note needs a title line and a body")

const titlePrefix = "title:"

// Note is a formatted transcript
type Note struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

// Parse reads text of the form "Title: <title>\n\n<body>". The first line
// starting with "Title:" (any case) is the title; the body is everything
// after it with surrounding blank lines trimmed.
func Parse(text string) (Note, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var n Note
	start := len(lines)
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(line), titlePrefix) {
			n.Title = strings.TrimSpace(line[len(titlePrefix):])
			start = i + 1
			break
		}
	}
	if start < len(lines) {
		n.Body = strings.TrimSpace(strings.Join(lines[start:], "\n"))
	}

	if n.Title == "" || n.Body == "" {
		return Note{}, ErrMalformed
	}
	return n, nil
}
