package render

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/aiton-rag/uploadui/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty indents nested block elements. Development only.
	Pretty bool

	// Indent is one indentation level in pretty mode (default two spaces).
	Indent string
}

// Renderer turns vdom trees into HTML. It keeps no per-render state and
// is safe to share.
type Renderer struct {
	config RendererConfig
}

func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders node to a string.
func (r *Renderer) RenderToString(node *vdom.VNode) (string, error) {
	var buf bytes.Buffer
	err := r.RenderToWriter(&buf, node)
	return buf.String(), err
}

// RenderToWriter streams node to w.
func (r *Renderer) RenderToWriter(w io.Writer, node *vdom.VNode) error {
	hw := r.writer(w)
	hw.node(node, 0)
	return hw.err
}

// RenderChildren renders the children of node without node itself. A
// mounted root is refreshed on the client by replacing its innerHTML
// with this output.
func (r *Renderer) RenderChildren(w io.Writer, node *vdom.VNode) error {
	if node == nil {
		return nil
	}
	hw := r.writer(w)
	for _, c := range node.Children {
		hw.node(c, 0)
	}
	return hw.err
}

func (r *Renderer) writer(w io.Writer) *htmlWriter {
	return &htmlWriter{w: w, pretty: r.config.Pretty, indent: r.config.Indent}
}

// htmlWriter remembers the first write error and turns later writes
// into no-ops.
type htmlWriter struct {
	w      io.Writer
	err    error
	pretty bool
	indent string
}

func (hw *htmlWriter) str(s string) {
	if hw.err == nil {
		_, hw.err = io.WriteString(hw.w, s)
	}
}

func (hw *htmlWriter) printf(format string, args ...any) {
	if hw.err == nil {
		_, hw.err = fmt.Fprintf(hw.w, format, args...)
	}
}

func (hw *htmlWriter) newline() {
	if hw.pretty {
		hw.str("\n")
	}
}

func (hw *htmlWriter) pad(depth int) {
	if hw.pretty {
		hw.str(strings.Repeat(hw.indent, depth))
	}
}

func (hw *htmlWriter) node(n *vdom.VNode, depth int) {
	if n == nil || hw.err != nil {
		return
	}
	switch n.Kind {
	case vdom.KindElement:
		hw.element(n, depth)
	case vdom.KindText:
		hw.str(escapeHTML(n.Text))
	case vdom.KindRaw:
		hw.str(n.Text)
	case vdom.KindFragment:
		for _, c := range n.Children {
			hw.node(c, depth)
		}
	default:
		hw.err = fmt.Errorf("render: unknown node kind %d", n.Kind)
	}
}

func (hw *htmlWriter) element(n *vdom.VNode, depth int) {
	if n.Tag == "" {
		hw.err = fmt.Errorf("render: element without tag")
		return
	}
	if depth > 0 {
		hw.pad(depth)
	}
	hw.str("<" + n.Tag)
	hw.attrs(n.Props)
	hw.str(">")
	if vdom.IsVoidElement(n.Tag) {
		hw.newline()
		return
	}

	block := len(n.Children) > 0 && !inlineTags[n.Tag]
	if block {
		hw.newline()
	}
	for _, c := range n.Children {
		hw.node(c, depth+1)
	}
	if block {
		hw.pad(depth)
	}
	hw.str("</" + n.Tag + ">")
	hw.newline()
}

// attrs writes props in name order. Bound handlers are not attributes:
// each becomes a data-on-<event> marker after the regular attributes.
func (hw *htmlWriter) attrs(props vdom.Props) {
	keys := make([]string, 0, len(props))
	for k := range props {
		if !strings.HasPrefix(k, "_") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var events []string
	for _, k := range keys {
		v := props[k]
		if strings.HasPrefix(k, "on") && isHandler(v) {
			events = append(events, strings.ToLower(k[2:]))
			continue
		}
		if b, ok := v.(bool); ok && booleanAttrs[k] {
			if b {
				hw.str(" " + k)
			}
			continue
		}
		if s := attrString(v); s != "" {
			hw.printf(` %s="%s"`, k, escapeAttr(s))
		}
	}
	for _, e := range events {
		hw.printf(` data-on-%s="true"`, e)
	}
}

func isHandler(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(vdom.EventHandler); ok {
		return true
	}
	return reflect.TypeOf(v).Kind() == reflect.Func
}

func attrString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Tags kept on one line in pretty mode.
var inlineTags = setOf("a", "b", "br", "code", "em", "i", "small", "span", "strong")

// Attributes written as a bare name when true and omitted when false.
var booleanAttrs = setOf(
	"async", "autofocus", "checked", "defer", "disabled", "hidden",
	"multiple", "novalidate", "readonly", "required", "selected",
)

func setOf(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}
