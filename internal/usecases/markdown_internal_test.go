package usecases

import (
	"strings"
	"testing"
)

func TestRenderBody_EmptyStaysEmpty(t *testing.T) {
	if got := renderBody(""); got != "" {
		t.Fatalf("renderBody(\"\") = %q, want empty", got)
	}
}

func TestRenderBody_RendersMarkdown(t *testing.T) {
	got := renderBody("**bold**")
	if !strings.Contains(got, "<strong>bold</strong>") {
		t.Fatalf("renderBody did not render bold markup: %q", got)
	}
}
