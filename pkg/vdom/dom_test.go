package vdom

import "testing"

func testTree() *VNode {
	return Div(Class("container"),
		Div(ID("alerts")),
		Span(Data("stat", "total_files"), "3"),
		Div(Class("card"),
			Span(Data("stat", "total_files"), "3"),
			Span(Data("stat", "total_categories"), "1"),
		),
		Div(ID("dropZone"), Class("drop-zone")),
	)
}

func TestClassList(t *testing.T) {
	node := Div(Class("drop-zone"))

	node.AddClass("drag-over")
	node.AddClass("drag-over")
	if got := node.GetAttr("class"); got != "drop-zone drag-over" {
		t.Errorf("after AddClass class = %q", got)
	}
	if !node.HasClass("drag-over") {
		t.Error("HasClass(drag-over) = false")
	}

	node.RemoveClass("drag-over")
	if node.HasClass("drag-over") {
		t.Error("drag-over should be removed")
	}
	if got := node.GetAttr("class"); got != "drop-zone" {
		t.Errorf("after RemoveClass class = %q", got)
	}

	node.RemoveClass("drop-zone")
	if _, ok := node.Props["class"]; ok {
		t.Error("empty class list should drop the attribute")
	}

	node.SetClass("alert alert-success", "mt-2")
	if got := node.Classes(); len(got) != 3 {
		t.Errorf("Classes() = %v, want 3 entries", got)
	}
}

func TestAttrHelpers(t *testing.T) {
	node := Button(Disabled())
	if !node.HasAttr("disabled") {
		t.Error("disabled should be present")
	}
	node.SetAttr("disabled", false)
	if node.HasAttr("disabled") {
		t.Error("disabled=false should read as absent")
	}
	if got := node.GetAttr("disabled"); got != "" {
		t.Errorf("GetAttr(disabled) = %q, want empty", got)
	}
	node.SetAttr("data-count", 3)
	if got := node.GetAttr("data-count"); got != "3" {
		t.Errorf("GetAttr(data-count) = %q, want 3", got)
	}
	node.RemoveAttr("data-count")
	if node.HasAttr("data-count") {
		t.Error("data-count should be removed")
	}
}

func TestGetElementByID(t *testing.T) {
	root := testTree()
	zone := GetElementByID(root, "dropZone")
	if zone == nil || !zone.HasClass("drop-zone") {
		t.Fatalf("GetElementByID(dropZone) = %+v", zone)
	}
	if GetElementByID(root, "missing") != nil {
		t.Error("missing id should return nil")
	}
}

func TestQueries(t *testing.T) {
	root := testTree()
	if got := len(QueryByAttr(root, "data-stat", "total_files")); got != 2 {
		t.Errorf("total_files nodes = %d, want 2", got)
	}
	if got := len(QueryByAttr(root, "data-stat", "total_categories")); got != 1 {
		t.Errorf("total_categories nodes = %d, want 1", got)
	}
	if got := len(QueryByClass(root, "card")); got != 1 {
		t.Errorf("card nodes = %d, want 1", got)
	}
	if got := len(QueryByClass(root, "card", "missing")); got != 0 {
		t.Errorf("nodes with card+missing = %d, want 0", got)
	}
}

func TestTextContentAndSetText(t *testing.T) {
	node := Div(Strong("Uploading:"), " report.pdf")
	if got := node.TextContent(); got != "Uploading: report.pdf" {
		t.Errorf("TextContent() = %q", got)
	}
	node.SetText("0")
	if len(node.Children) != 1 || node.TextContent() != "0" {
		t.Errorf("after SetText children = %+v", node.Children)
	}
}

func TestChildMutation(t *testing.T) {
	parent := Div()
	a, b := Span("a"), Span("b")

	parent.AppendChild(a)
	parent.PrependChild(b)
	if parent.Children[0] != b || parent.Children[1] != a {
		t.Fatal("PrependChild should insert first")
	}
	if !parent.RemoveChild(b) {
		t.Fatal("RemoveChild(b) = false")
	}
	if parent.RemoveChild(b) {
		t.Error("second RemoveChild(b) should report false")
	}
	parent.ReplaceChildren(b, nil)
	if len(parent.Children) != 1 || parent.Children[0] != b {
		t.Errorf("ReplaceChildren left %v", parent.Children)
	}
}

func TestRemoveFromTree(t *testing.T) {
	root := testTree()
	card := QueryByClass(root, "card")[0]

	if !Contains(root, card) {
		t.Fatal("card should be in tree")
	}
	if !Remove(root, card) {
		t.Fatal("Remove(card) = false")
	}
	if Contains(root, card) {
		t.Error("card still in tree after Remove")
	}
	if Remove(root, card) {
		t.Error("removing twice should report false")
	}
	if Remove(root, root) {
		t.Error("root has no parent and cannot be removed")
	}
}

func TestHandlerBinding(t *testing.T) {
	node := Div()
	if node.Handler(EventDrop) != nil {
		t.Error("unbound handler should be nil")
	}
	node.On(EventDrop, func() {})
	if node.Handler(EventDrop) == nil {
		t.Error("bound handler should be returned")
	}
}
