package vtest

import (
	"strings"
	"testing"

	"github.com/aiton-rag/uploadui/pkg/render"
	"github.com/aiton-rag/uploadui/pkg/vdom"
)

const excerptLen = 500

var plain = render.NewRenderer(render.RendererConfig{})

// RenderToString renders node as compact HTML, or "" if it cannot be
// rendered.
func RenderToString(node *vdom.VNode) string {
	out, err := plain.RenderToString(node)
	if err != nil {
		return ""
	}
	return out
}

// excerpt renders node and cuts the result down for failure messages.
func excerpt(node *vdom.VNode) string {
	out := RenderToString(node)
	if len(out) > excerptLen {
		out = out[:excerptLen] + "..."
	}
	return out
}

// ExpectContains fails t unless the rendered node contains want.
func ExpectContains(t testing.TB, node *vdom.VNode, want string) {
	t.Helper()
	if !strings.Contains(RenderToString(node), want) {
		t.Errorf("rendered HTML lacks %q:\n%s", want, excerpt(node))
	}
}

// ExpectNotContains fails t if the rendered node contains unwanted.
func ExpectNotContains(t testing.TB, node *vdom.VNode, unwanted string) {
	t.Helper()
	if strings.Contains(RenderToString(node), unwanted) {
		t.Errorf("rendered HTML unexpectedly has %q:\n%s", unwanted, excerpt(node))
	}
}

// ExpectAttribute fails t unless the rendered node has attr="value"
// somewhere.
func ExpectAttribute(t testing.TB, node *vdom.VNode, attr, value string) {
	t.Helper()
	ExpectContains(t, node, attr+`="`+value+`"`)
}

// ExpectElementID returns the element with the given id, stopping the
// test when there is none.
func ExpectElementID(t testing.TB, root *vdom.VNode, id string) *vdom.VNode {
	t.Helper()
	el := vdom.GetElementByID(root, id)
	if el == nil {
		t.Fatalf("no element #%s in:\n%s", id, excerpt(root))
	}
	return el
}

func ExpectClass(t testing.TB, node *vdom.VNode, class string) {
	t.Helper()
	if !node.HasClass(class) {
		t.Errorf("<%s> class=%q, want %q in it", node.Tag, node.GetAttr("class"), class)
	}
}

func ExpectNoClass(t testing.TB, node *vdom.VNode, class string) {
	t.Helper()
	if node.HasClass(class) {
		t.Errorf("<%s> class=%q, want no %q", node.Tag, node.GetAttr("class"), class)
	}
}
