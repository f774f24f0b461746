package vdom

import (
	"fmt"
	"strings"
)

// Attribute access

// GetAttr returns the string form of an attribute, or "" when unset.
func (v *VNode) GetAttr(key string) string {
	if v == nil || v.Props == nil {
		return ""
	}
	switch val := v.Props[key].(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// HasAttr reports whether the attribute is present and not false.
func (v *VNode) HasAttr(key string) bool {
	if v == nil || v.Props == nil {
		return false
	}
	val, ok := v.Props[key]
	if !ok || val == nil {
		return false
	}
	if b, isBool := val.(bool); isBool {
		return b
	}
	return true
}

// SetAttr sets an attribute value.
func (v *VNode) SetAttr(key string, value any) {
	if v.Props == nil {
		v.Props = make(Props)
	}
	v.Props[key] = value
}

// RemoveAttr deletes an attribute.
func (v *VNode) RemoveAttr(key string) {
	delete(v.Props, key)
}

// ElementID returns the id attribute.
func (v *VNode) ElementID() string {
	return v.GetAttr("id")
}

// Class list

func splitClasses(s string) []string {
	return strings.Fields(s)
}

// Classes returns the element's class list in order.
func (v *VNode) Classes() []string {
	return splitClasses(v.GetAttr("class"))
}

// HasClass reports whether the class list contains name.
func (v *VNode) HasClass(name string) bool {
	for _, c := range v.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends classes that are not already present.
func (v *VNode) AddClass(names ...string) {
	classes := v.Classes()
	for _, name := range names {
		if name == "" || containsString(classes, name) {
			continue
		}
		classes = append(classes, name)
	}
	v.setClasses(classes)
}

// RemoveClass removes every occurrence of the given classes.
func (v *VNode) RemoveClass(names ...string) {
	classes := v.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if !containsString(names, c) {
			kept = append(kept, c)
		}
	}
	v.setClasses(kept)
}

// SetClass replaces the whole class list.
func (v *VNode) SetClass(names ...string) {
	v.setClasses(splitClasses(strings.Join(names, " ")))
}

func (v *VNode) setClasses(classes []string) {
	if len(classes) == 0 {
		v.RemoveAttr("class")
		return
	}
	v.SetAttr("class", strings.Join(classes, " "))
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Events

// On binds handler to the named event, replacing any previous binding.
func (v *VNode) On(name string, handler any) {
	v.SetAttr("on"+name, handler)
}

// Handler returns the handler bound to the named event, or nil.
func (v *VNode) Handler(name string) any {
	if v == nil || v.Props == nil {
		return nil
	}
	return v.Props["on"+name]
}

// Content

// SetText replaces all children with a single text node.
func (v *VNode) SetText(text string) {
	v.Children = []*VNode{Text(text)}
}

// TextContent returns the concatenated text of the node and its descendants.
func (v *VNode) TextContent() string {
	if v == nil {
		return ""
	}
	if v.Kind == KindText {
		return v.Text
	}
	var b strings.Builder
	for _, c := range v.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// ReplaceChildren swaps the node's children for the given ones.
func (v *VNode) ReplaceChildren(children ...*VNode) {
	v.Children = v.Children[:0]
	for _, c := range children {
		if c != nil {
			v.Children = append(v.Children, c)
		}
	}
}

// AppendChild adds child as the last child.
func (v *VNode) AppendChild(child *VNode) {
	if child != nil {
		v.Children = append(v.Children, child)
	}
}

// PrependChild adds child as the first child.
func (v *VNode) PrependChild(child *VNode) {
	if child == nil {
		return
	}
	v.Children = append([]*VNode{child}, v.Children...)
}

// RemoveChild detaches child if it is a direct child of v.
func (v *VNode) RemoveChild(child *VNode) bool {
	for i, c := range v.Children {
		if c == child {
			v.Children = append(v.Children[:i], v.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Tree queries

// Walk visits every node depth-first, passing each node's parent.
// Returning false from fn stops the walk.
func Walk(root *VNode, fn func(node, parent *VNode) bool) {
	walk(root, nil, fn)
}

func walk(node, parent *VNode, fn func(node, parent *VNode) bool) bool {
	if node == nil {
		return true
	}
	if !fn(node, parent) {
		return false
	}
	for _, c := range node.Children {
		if !walk(c, node, fn) {
			return false
		}
	}
	return true
}

// GetElementByID returns the first element whose id matches.
func GetElementByID(root *VNode, id string) *VNode {
	var found *VNode
	Walk(root, func(n, _ *VNode) bool {
		if n.Kind == KindElement && n.ElementID() == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// QueryAll returns every element for which match returns true.
func QueryAll(root *VNode, match func(*VNode) bool) []*VNode {
	var out []*VNode
	Walk(root, func(n, _ *VNode) bool {
		if n.Kind == KindElement && match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// QueryByClass returns every element carrying all the given classes.
func QueryByClass(root *VNode, classes ...string) []*VNode {
	return QueryAll(root, func(n *VNode) bool {
		for _, c := range classes {
			if !n.HasClass(c) {
				return false
			}
		}
		return true
	})
}

// QueryByAttr returns every element whose attribute equals value,
// the equivalent of the selector [key="value"].
func QueryByAttr(root *VNode, key, value string) []*VNode {
	return QueryAll(root, func(n *VNode) bool {
		return n.GetAttr(key) == value
	})
}

// Contains reports whether node is root or one of its descendants.
func Contains(root, node *VNode) bool {
	found := false
	Walk(root, func(n, _ *VNode) bool {
		if n == node {
			found = true
			return false
		}
		return true
	})
	return found
}

// Remove detaches node from wherever it sits under root.
// It reports false when node is not in the tree (already removed).
func Remove(root, node *VNode) bool {
	removed := false
	Walk(root, func(n, parent *VNode) bool {
		if n == node && parent != nil {
			removed = parent.RemoveChild(n)
			return false
		}
		return true
	})
	return removed
}
