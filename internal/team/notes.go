package team

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// notesRenderer leaves WithUnsafe unset, so raw HTML in notes is dropped.
var notesRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderNotes converts a team's markdown notes to HTML.
func RenderNotes(notes string) (string, error) {
	if notes == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := notesRenderer.Convert([]byte(notes), &buf); err != nil {
		return "", fmt.Errorf("rendering team notes: %w", err)
	}
	return buf.String(), nil
}
