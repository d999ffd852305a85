package web

import (
	"strings"
	"testing"
)

func TestMarkdownInline(t *testing.T) {
	t.Parallel()

	on := newMarkdownRenderer(true)
	if got := string(on.inline("buy *fresh* `milk`")); got != "buy <em>fresh</em> <code>milk</code>" {
		t.Fatalf("unexpected inline render: %q", got)
	}
	if got := string(on.inline("1. first")); got != "1. first" {
		t.Fatalf("expected block markdown to stay plain, got %q", got)
	}

	off := newMarkdownRenderer(false)
	if got := string(off.inline("*a* & b")); got != "*a* &amp; b" {
		t.Fatalf("expected escaped text when disabled, got %q", got)
	}
}

func TestMarkdownInline_KeepsTagShapedTextLiteral(t *testing.T) {
	t.Parallel()

	on := newMarkdownRenderer(true)
	if got := string(on.inline("Fix <div> layout")); got != "Fix &lt;div&gt; layout" {
		t.Fatalf("expected tag-shaped text to be escaped, got %q", got)
	}
	got := string(on.inline(`<img src=x onerror="alert(1)">`))
	if strings.Contains(got, "<img") || !strings.Contains(got, "&lt;img src=x onerror=") {
		t.Fatalf("expected raw html to render as escaped text, got %q", got)
	}
	got = string(on.inline(`see <b>bold</b> text`))
	if !strings.Contains(got, "&lt;b&gt;bold&lt;/b&gt;") {
		t.Fatalf("expected inline tags to render as escaped text, got %q", got)
	}
}

func TestMarkdownInline_UnderscoresAreLiteral(t *testing.T) {
	t.Parallel()

	on := newMarkdownRenderer(true)
	if got := string(on.inline("a_b_c __init__")); got != "a_b_c __init__" {
		t.Fatalf("expected underscores to survive, got %q", got)
	}
	if got := string(on.inline("**big**")); got != "<strong>big</strong>" {
		t.Fatalf("expected star emphasis to still render, got %q", got)
	}
}

func TestMarkdownInlineNoLinks(t *testing.T) {
	t.Parallel()

	on := newMarkdownRenderer(true)
	if got := string(on.inline("see https://example.com")); !strings.Contains(got, `href="https://example.com"`) {
		t.Fatalf("expected a link outside anchors, got %q", got)
	}
	for _, src := range []string{"see https://example.com", "see [docs](https://example.com)", "<https://example.com>"} {
		if got := string(on.inlineNoLinks(src)); strings.Contains(got, "<a") {
			t.Fatalf("inlineNoLinks(%q) produced a link: %q", src, got)
		}
	}
	if got := string(on.inlineNoLinks("*Work* stuff")); got != "<em>Work</em> stuff" {
		t.Fatalf("expected emphasis inside links, got %q", got)
	}
}
