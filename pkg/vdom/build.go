package vdom

// El builds an element. Arguments may be Attr, []Attr, EventHandler,
// *VNode, []*VNode or a string (a text child); nil is skipped so
// optional parts can be passed inline.
func El(tag string, args ...any) *VNode {
	n := &VNode{Kind: KindElement, Tag: tag, Props: Props{}}
	for _, arg := range args {
		n.add(arg)
	}
	return n
}

func (v *VNode) add(arg any) {
	switch a := arg.(type) {
	case Attr:
		v.setProp(a)
	case []Attr:
		for _, item := range a {
			v.setProp(item)
		}
	case EventHandler:
		v.Props[a.Event] = a.Handler
	case *VNode:
		v.AppendChild(a)
	case []*VNode:
		for _, c := range a {
			v.AppendChild(c)
		}
	case string:
		v.AppendChild(Text(a))
	}
}

// setProp stores a constructor attribute. Class arguments merge into
// the class list instead of replacing it.
func (v *VNode) setProp(a Attr) {
	switch {
	case a.Key == "":
	case a.Key == "class":
		if s, ok := a.Value.(string); ok {
			v.AddClass(splitClasses(s)...)
			return
		}
		v.Props[a.Key] = a.Value
	default:
		v.Props[a.Key] = a.Value
	}
}

func tag(name string) func(args ...any) *VNode {
	return func(args ...any) *VNode { return El(name, args...) }
}

// Element constructors used by the upload page.
var (
	Html    = tag("html")
	Body    = tag("body")
	Header  = tag("header")
	Section = tag("section")
	H1      = tag("h1")
	H2      = tag("h2")
	H5      = tag("h5")
	Div     = tag("div")
	P       = tag("p")
	Span    = tag("span")
	Strong  = tag("strong")
	Small   = tag("small")
	I       = tag("i")
	Form    = tag("form")
	Label   = tag("label")
	Input   = tag("input")
	Button  = tag("button")
)

// Text returns a text node; the renderer escapes it.
func Text(s string) *VNode {
	return &VNode{Kind: KindText, Text: s}
}

// Raw returns a node whose content is written out unescaped.
func Raw(html string) *VNode {
	return &VNode{Kind: KindRaw, Text: html}
}

// Fragment groups nodes without a wrapping element. Arguments follow
// the El rules; attributes are accepted but never rendered.
func Fragment(children ...any) *VNode {
	f := &VNode{Kind: KindFragment, Props: Props{}}
	for _, c := range children {
		f.add(c)
	}
	return f
}

// If returns node when cond holds and nil otherwise.
func If(cond bool, node *VNode) *VNode {
	if !cond {
		return nil
	}
	return node
}

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// IsVoidElement reports whether tag never has children or a closing tag.
func IsVoidElement(tag string) bool {
	return voidTags[tag]
}
