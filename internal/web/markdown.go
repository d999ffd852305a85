package web

import (
	"bytes"
	"html/template"
	"reflect"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type markdownRenderer struct {
	enabled bool
	md      goldmark.Markdown
	// noLinks renders names that already sit inside an <a>.
	noLinks goldmark.Markdown
	policy  *bluemonday.Policy
}

func newMarkdownRenderer(enabled bool) *markdownRenderer {
	return &markdownRenderer{
		enabled: enabled,
		md:      newNameMarkdown(true),
		noLinks: newNameMarkdown(false),
		policy:  bluemonday.UGCPolicy(),
	}
}

// newNameMarkdown builds a goldmark instance for list and todo names. Tag-shaped
// text stays literal (no raw HTML parser) and only '*' marks emphasis, so names
// like "__init__" or "a_b_c" keep their underscores.
func newNameMarkdown(links bool) goldmark.Markdown {
	drop := []parser.InlineParser{parser.NewRawHTMLParser(), parser.NewEmphasisParser()}
	exts := []goldmark.Extender{extension.Strikethrough, emoji.Emoji}
	if links {
		exts = append(exts, extension.Linkify)
	} else {
		drop = append(drop, parser.NewLinkParser(), parser.NewAutoLinkParser())
	}

	inline := []util.PrioritizedValue{util.Prioritized(starEmphasisParser{}, 500)}
	for _, v := range parser.DefaultInlineParsers() {
		if !sameParserType(drop, v.Value) {
			inline = append(inline, v)
		}
	}
	p := parser.NewParser(
		parser.WithBlockParsers(parser.DefaultBlockParsers()...),
		parser.WithInlineParsers(inline...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
	return goldmark.New(goldmark.WithParser(p), goldmark.WithExtensions(exts...))
}

func sameParserType(set []parser.InlineParser, v any) bool {
	for _, p := range set {
		if reflect.TypeOf(p) == reflect.TypeOf(v) {
			return true
		}
	}
	return false
}

type starDelimiterProcessor struct{}

func (starDelimiterProcessor) IsDelimiter(b byte) bool { return b == '*' }

func (starDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (starDelimiterProcessor) OnMatch(consumes int) ast.Node {
	return ast.NewEmphasis(consumes)
}

// starEmphasisParser is goldmark's emphasis parser restricted to '*'.
type starEmphasisParser struct{}

func (starEmphasisParser) Trigger() []byte { return []byte{'*'} }

func (starEmphasisParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 1, starDelimiterProcessor{})
	if node == nil {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

// inline renders a name as inline markdown (emphasis, code spans, links, emoji)
// without the surrounding paragraph.
func (m *markdownRenderer) inline(src string) template.HTML {
	return m.render(m.md, src)
}

// inlineNoLinks is inline for names rendered inside a link.
func (m *markdownRenderer) inlineNoLinks(src string) template.HTML {
	return m.render(m.noLinks, src)
}

func (m *markdownRenderer) render(md goldmark.Markdown, src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return template.HTML("")
	}
	if !m.enabled {
		return template.HTML(template.HTMLEscapeString(src))
	}
	var b bytes.Buffer
	if err := md.Convert([]byte(src), &b); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	out := strings.TrimSpace(b.String())
	// Block constructs ("# x", "- x", "1. x") read as plain names here.
	if !strings.HasPrefix(out, "<p>") || !strings.HasSuffix(out, "</p>") || strings.Count(out, "<p>") != 1 {
		return template.HTML(template.HTMLEscapeString(src))
	}
	out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	return template.HTML(m.policy.Sanitize(out))
}
