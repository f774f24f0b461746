package render

import (
	"io"

	"github.com/aiton-rag/uploadui/pkg/vdom"
)

// PageData describes a full HTML document.
type PageData struct {
	// Body is rendered as-is inside <body>, so it usually is the mount
	// node the client refreshes.
	Body *vdom.VNode

	Title string

	// Lang defaults to "en".
	Lang string

	// StyleSheets are linked in <head>, in order.
	StyleSheets []string

	// Scripts are appended to the body as deferred script tags.
	Scripts []string

	// BodyAttrs go on the <body> element; the client reads its
	// configuration from data-* markers there.
	BodyAttrs []vdom.Attr
}

// RenderPage writes a complete document for page.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	hw := r.writer(w)
	hw.printf("<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n", escapeAttr(lang))
	hw.str("<meta charset=\"utf-8\">\n")
	hw.str("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	if page.Title != "" {
		hw.printf("<title>%s</title>\n", escapeHTML(page.Title))
	}
	for _, href := range page.StyleSheets {
		hw.printf("<link rel=\"stylesheet\" href=\"%s\">\n", escapeAttr(href))
	}
	hw.str("</head>\n<body")
	hw.attrs(vdom.Body(page.BodyAttrs).Props)
	hw.str(">\n")

	hw.node(page.Body, 0)

	for _, src := range page.Scripts {
		hw.printf("\n<script src=\"%s\" defer></script>", escapeAttr(src))
	}
	hw.str("\n</body>\n</html>\n")
	return hw.err
}
