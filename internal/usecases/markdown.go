package usecases

import "github.com/golang-commonmark/markdown"

var bodyRenderer = markdown.New(markdown.HTML(false), markdown.Typographer(false))

// renderBody renders a ticket's raw body as markdown (spec.md §4.1).
func renderBody(raw string) string {
	if raw == "" {
		return raw
	}
	return bodyRenderer.RenderToString([]byte(raw))
}
