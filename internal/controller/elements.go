package controller

import "github.com/aiton-rag/uploadui/pkg/vdom"

// Element ids and classes of the page contract.
const (
	IDUploadForm    = "uploadForm"
	IDUploadButton  = "uploadBtn"
	IDFileInput     = "file"
	IDDropZone      = "dropZone"
	IDDropZoneInput = "dropZoneInput"

	ClassContainer       = "container"
	ClassProgress        = "mt-4"
	ClassNeedsValidation = "needs-validation"
	ClassWasValidated    = "was-validated"
	ClassDragOver        = "drag-over"

	AttrStat            = "data-stat"
	StatTotalFiles      = "total_files"
	StatTotalCategories = "total_categories"

	// AttrPreventDefault lists events whose native default the thin
	// client suppresses on the element.
	AttrPreventDefault = "data-prevent-default"

	// AttrPickerFor names the file input a click on the element opens.
	AttrPickerFor = "data-picker-for"

	// AttrSelected holds the name of the file the server has selected
	// for the form input. The client keeps its input only while the
	// name matches.
	AttrSelected = "data-selected"
)

// Elements are the nodes the controller binds to. Any of them may be
// nil; the features that need a missing element are skipped.
type Elements struct {
	// Root is the document. Stat nodes and banners are looked up here.
	Root *vdom.VNode

	Form          *vdom.VNode
	Button        *vdom.VNode
	FileInput     *vdom.VNode
	DropZone      *vdom.VNode
	DropZoneInput *vdom.VNode

	// Alerts receives banners as its first child.
	Alerts *vdom.VNode

	// Progress receives per-file indicators.
	Progress *vdom.VNode

	// Body, when part of the tree, gets the drag prevent-default marker.
	Body *vdom.VNode
}

// ElementsFrom resolves the page contract in doc.
func ElementsFrom(doc *vdom.VNode) Elements {
	el := Elements{
		Root:          doc,
		Form:          vdom.GetElementByID(doc, IDUploadForm),
		Button:        vdom.GetElementByID(doc, IDUploadButton),
		FileInput:     vdom.GetElementByID(doc, IDFileInput),
		DropZone:      vdom.GetElementByID(doc, IDDropZone),
		DropZoneInput: vdom.GetElementByID(doc, IDDropZoneInput),
	}
	if containers := vdom.QueryByClass(doc, ClassContainer); len(containers) > 0 {
		el.Alerts = containers[0]
		if progress := vdom.QueryByClass(containers[0], ClassProgress); len(progress) > 0 {
			el.Progress = progress[0]
		}
	}
	if el.Progress == nil {
		el.Progress = doc
	}
	if bodies := vdom.QueryAll(doc, func(n *vdom.VNode) bool { return n.Tag == "body" }); len(bodies) > 0 {
		el.Body = bodies[0]
	}
	return el
}

func (el Elements) canSubmit() bool {
	return el.Form != nil && el.Button != nil && el.FileInput != nil
}

func (el Elements) canDrop() bool {
	return el.DropZone != nil && el.DropZoneInput != nil
}
