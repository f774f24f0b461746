// Package page builds the upload page document.
package page

import (
	"strconv"
	"strings"

	"github.com/aiton-rag/uploadui/internal/controller"
	"github.com/aiton-rag/uploadui/pkg/render"
	"github.com/aiton-rag/uploadui/pkg/upload"
	"github.com/aiton-rag/uploadui/pkg/vdom"
)

// MountID is the id of the element whose children the client replaces
// on every render frame.
const MountID = "app"

// Default asset and endpoint paths.
const (
	DefaultTitle      = "Upload Documents - AITON-RAG"
	DefaultScriptPath = "/static/upload.js"
	DefaultStylePath  = "/static/upload.css"
	DefaultWSPath     = "/_uploadui/ws"
	DefaultStagePath  = "/_upload/stage"
)

// Options configure the page.
type Options struct {
	Title       string
	Constraints upload.Constraints

	// Paths the client talks to.
	WSPath    string
	StagePath string

	// StyleSheets are linked before DefaultStylePath. Use them for
	// Bootstrap and Font Awesome.
	StyleSheets []string
}

func (o *Options) applyDefaults() {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Constraints.AllowedExtensions == nil {
		o.Constraints = upload.DefaultConstraints()
	}
	if o.WSPath == "" {
		o.WSPath = DefaultWSPath
	}
	if o.StagePath == "" {
		o.StagePath = DefaultStagePath
	}
}

// Build returns a fresh upload document rooted at div#app.
//
// The file input is deliberately not required: the controller reports
// an empty submit itself.
func Build(opts Options) *vdom.VNode {
	opts.applyDefaults()
	rules := opts.Constraints

	return vdom.Div(vdom.ID(MountID),
		vdom.Div(vdom.Class(controller.ClassContainer, "py-4"),
			vdom.Header(vdom.Class("mb-4"),
				vdom.H1(vdom.Class("h3"), vdom.I(vdom.Class("fas", "fa-cloud-upload-alt", "me-2")), "Upload Documents"),
				vdom.P(vdom.Class("text-muted"), "Add documents to the AITON-RAG knowledge base."),
			),
			statsRow(),
			vdom.Section(vdom.Class("card", "mb-4"),
				vdom.Div(vdom.Class("card-body"),
					vdom.H2(vdom.Class("h5", "card-title"), "Upload a file"),
					uploadForm(rules),
				),
			),
			dropZone(rules),
			vdom.Div(vdom.ID("progress"), vdom.Class(controller.ClassProgress), vdom.AriaLive("polite")),
		),
	)
}

func statsRow() *vdom.VNode {
	card := func(icon, label, stat string) *vdom.VNode {
		return vdom.Div(vdom.Class("col-md-6"),
			vdom.Div(vdom.Class("card", "stats-card"),
				vdom.Div(vdom.Class("card-body"),
					vdom.H5(vdom.Class("card-title"), vdom.I(vdom.Class("fas", icon, "me-2")), label),
					vdom.P(vdom.Class("display-6", "mb-0"),
						vdom.Span(vdom.Data("stat", stat), "-"),
					),
				),
			),
		)
	}
	return vdom.Div(vdom.Class("row", "mb-4"),
		card("fa-file-alt", "Processed files", controller.StatTotalFiles),
		card("fa-folder-open", "Categories", controller.StatTotalCategories),
	)
}

func uploadForm(rules upload.Constraints) *vdom.VNode {
	return vdom.Form(
		vdom.ID(controller.IDUploadForm),
		vdom.Class(controller.ClassNeedsValidation),
		vdom.Novalidate(),
		vdom.Div(vdom.Class("mb-3"),
			vdom.Label(vdom.For(controller.IDFileInput), vdom.Class("form-label"), "Document"),
			vdom.Input(
				vdom.ID(controller.IDFileInput),
				vdom.Name("file"),
				vdom.Type("file"),
				vdom.Class("form-control"),
				vdom.Accept(rules.Accept()),
			),
			vdom.Div(vdom.Class("form-text"), hint(rules)),
		),
		vdom.Button(
			vdom.ID(controller.IDUploadButton),
			vdom.Type("submit"),
			vdom.Class("btn", "btn-primary"),
		),
	)
}

func dropZone(rules upload.Constraints) *vdom.VNode {
	return vdom.Div(
		vdom.ID(controller.IDDropZone),
		vdom.Class("drop-zone", "text-center", "p-5"),
		vdom.Role("button"),
		vdom.AriaLabel("Drop files here or click to browse"),
		vdom.I(vdom.Class("fas", "fa-file-upload", "fa-3x", "mb-3"), vdom.AriaHidden(true)),
		vdom.P(vdom.Class("mb-1"), "Drag and drop files here"),
		vdom.Small(vdom.Class("text-muted"), "or click to browse"),
		vdom.Input(
			vdom.ID(controller.IDDropZoneInput),
			vdom.Type("file"),
			vdom.Multiple(),
			vdom.Hidden(),
			vdom.Accept(rules.Accept()),
		),
	)
}

func hint(rules upload.Constraints) string {
	exts := make([]string, len(rules.AllowedExtensions))
	for i, ext := range rules.AllowedExtensions {
		exts[i] = strings.ToUpper(strings.TrimPrefix(ext, "."))
	}
	text := "Supported formats: " + strings.Join(exts, ", ")
	if rules.MaxFileSize > 0 {
		text += ". Maximum size: " + upload.FormatSize(rules.MaxFileSize)
	}
	return text
}

// Data wraps a built document for render.RenderPage. The body carries
// the client's endpoints, the size limit used to skip staging, and the
// drag prevent-default marker.
func Data(doc *vdom.VNode, opts Options) render.PageData {
	opts.applyDefaults()
	return render.PageData{
		Body:        doc,
		Title:       opts.Title,
		StyleSheets: append(append([]string(nil), opts.StyleSheets...), DefaultStylePath),
		Scripts:     []string{DefaultScriptPath},
		BodyAttrs: []vdom.Attr{
			vdom.Data("ws-path", opts.WSPath),
			vdom.Data("stage-path", opts.StagePath),
			vdom.Data("mount", MountID),
			vdom.Data("max-file-size", strconv.FormatInt(opts.Constraints.MaxFileSize, 10)),
			{Key: controller.AttrPreventDefault, Value: strings.Join(vdom.DragEvents, " ")},
		},
	}
}
