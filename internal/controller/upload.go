package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aiton-rag/uploadui/pkg/protocol"
	"github.com/aiton-rag/uploadui/pkg/upload"
	"github.com/aiton-rag/uploadui/pkg/vdom"
)

// UI texts.
const (
	msgSelectFile       = "Please select a file to upload"
	msgUploadedFmt      = "File uploaded successfully: %s"
	msgUploadFailedFmt  = "Upload failed: %s"
	msgUploadFailed     = "Upload failed. Please try again."
	msgIndicatorOKFmt   = "Uploaded: %s"
	msgIndicatorErrFmt  = "Error: %s"
	msgIndicatorFailed  = "Upload failed"
	msgUnknownError     = "unknown error"
	msgTooManyFilesFmt  = "Too many files: %d selected, only the first %d are uploaded."
	labelUploading      = "Uploading..."
	labelUploadProcess  = "Upload & Process"
	labelIndicatorStart = "Uploading:"
	labelProcessing     = "Processing..."
)

// Upload sources for metrics.
const (
	sourceForm = "form"
	sourceDrop = "drop"
)

// Validate checks f against the constraints, showing a warning banner
// when it is rejected.
func (c *Controller) Validate(f upload.SelectedFile) bool {
	c.mu.Lock()
	err := c.validateLocked(f)
	c.mu.Unlock()
	if err != nil {
		c.notify()
	}
	return err == nil
}

func (c *Controller) validateLocked(f upload.SelectedFile) error {
	err := c.rules.Validate(f)
	if err == nil {
		return nil
	}
	var verr *upload.ValidationError
	if errors.As(err, &verr) {
		c.metrics.ValidationFailed(string(verr.Reason))
	}
	c.log.Info("file rejected", "file", f.Name, "size", f.Size, "error", err)
	c.banners.Warning(err.Error())
	return err
}

// Submit uploads the form-selected file. A nil file shows the
// "select a file" warning. The result is reflected in a banner; on
// success the form is reset, the staged copy released and a stats
// refresh scheduled. After a failure the selection is kept so the user
// can try again.
//
// The returned error is the failure already shown to the user.
func (c *Controller) Submit(ctx context.Context, f *upload.SelectedFile) (*upload.Result, error) {
	if err := c.beginSubmit(ctx, f); err != nil {
		return nil, err
	}
	return c.finishSubmit(ctx, f)
}

// beginSubmit validates f and, when it passes, puts the form in the
// uploading state. A rejected form selection is cleared and released.
func (c *Controller) beginSubmit(ctx context.Context, f *upload.SelectedFile) error {
	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return ErrUploadInProgress
	}
	if f == nil {
		c.banners.Warning(msgSelectFile)
		c.mu.Unlock()
		c.notify()
		return ErrNoFile
	}
	if err := c.validateLocked(*f); err != nil {
		if c.selected == f {
			c.resetForm()
		}
		c.mu.Unlock()
		c.notify()
		c.discard(ctx, *f)
		return err
	}
	c.setUploadState(true)
	c.mu.Unlock()
	c.notify()
	return nil
}

// finishSubmit sends f and settles the form whatever the outcome.
func (c *Controller) finishSubmit(ctx context.Context, f *upload.SelectedFile) (*upload.Result, error) {
	defer func() {
		c.mu.Lock()
		c.setUploadState(false)
		c.mu.Unlock()
		c.notify()
	}()

	start := c.opts.Now()
	c.metrics.UploadStarted(sourceForm)
	res, err := c.opts.Uploader.Upload(ctx, *f)
	c.metrics.UploadFinished(sourceForm, outcome(err), c.opts.Now().Sub(start))

	c.mu.Lock()
	var serverErr *upload.ServerError
	switch {
	case err == nil:
		c.banners.Success(fmt.Sprintf(msgUploadedFmt, res.Filename))
		if c.selected == nil || c.selected == f {
			c.resetForm()
		}
		c.scheduleStatsRefresh()
		c.log.Info("file uploaded", "file", f.Name, "stored_as", res.Filename)
	case errors.As(err, &serverErr):
		c.banners.Danger(fmt.Sprintf(msgUploadFailedFmt, serverMessage(serverErr)))
		c.log.Warn("upload rejected by server", "file", f.Name, "error", serverErr.Message)
	default:
		c.banners.Danger(msgUploadFailed)
		c.log.Error("upload error", "file", f.Name, "error", err)
	}
	c.mu.Unlock()

	if err == nil {
		c.discard(ctx, *f)
	}
	return res, err
}

type fileJob struct {
	file      upload.SelectedFile
	indicator *vdom.VNode
}

// HandleFiles validates each file independently and uploads every valid
// one concurrently with its own progress indicator. It returns once all
// uploads settled, joining the per-file failures.
func (c *Controller) HandleFiles(ctx context.Context, files []upload.SelectedFile) error {
	jobs, rejected := c.prepareFiles(ctx, files)
	return errors.Join(append(rejected, c.runJobs(ctx, jobs)...)...)
}

// prepareFiles caps the batch at MaxFiles, validates each file and
// gives every accepted one a spinner indicator. Files that will not be
// uploaded are released.
func (c *Controller) prepareFiles(ctx context.Context, files []upload.SelectedFile) ([]fileJob, []error) {
	var (
		jobs     []fileJob
		rejected []error
		unused   []upload.SelectedFile
	)
	c.mu.Lock()
	if limit := c.opts.MaxFiles; len(files) > limit {
		c.banners.Warning(fmt.Sprintf(msgTooManyFilesFmt, len(files), limit))
		c.log.Info("drop truncated", "files", len(files), "max", limit)
		rejected = append(rejected, fmt.Errorf("%w: %d of %d skipped", ErrTooManyFiles, len(files)-limit, len(files)))
		unused = append(unused, files[limit:]...)
		files = files[:limit]
	}
	for _, f := range files {
		if err := c.validateLocked(f); err != nil {
			rejected = append(rejected, err)
			unused = append(unused, f)
			continue
		}
		jobs = append(jobs, fileJob{file: f, indicator: c.createIndicator(f)})
	}
	c.mu.Unlock()
	c.notify()

	for _, f := range unused {
		c.discard(ctx, f)
	}
	return jobs, rejected
}

func (c *Controller) runJobs(ctx context.Context, jobs []fileJob) []error {
	var (
		g      errgroup.Group
		errMu  sync.Mutex
		failed []error
	)
	if c.opts.MaxConcurrent > 0 {
		g.SetLimit(c.opts.MaxConcurrent)
	}
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := c.uploadOne(ctx, j.file, j.indicator); err != nil {
				errMu.Lock()
				failed = append(failed, fmt.Errorf("%s: %w", j.file.Name, err))
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

// handleDropped is the event path of HandleFiles: indicators appear
// before the handler returns, uploads run through spawn.
func (c *Controller) handleDropped(ctx context.Context, refs []protocol.FileRef) {
	jobs, _ := c.prepareFiles(ctx, c.FilesFrom(refs))
	if len(jobs) == 0 {
		return
	}
	c.spawn(ctx, func(ctx context.Context) { c.runJobs(ctx, jobs) })
}

func (c *Controller) uploadOne(ctx context.Context, f upload.SelectedFile, indicator *vdom.VNode) error {
	start := c.opts.Now()
	c.metrics.UploadStarted(sourceDrop)
	res, err := c.opts.Uploader.Upload(ctx, f)
	c.metrics.UploadFinished(sourceDrop, outcome(err), c.opts.Now().Sub(start))

	c.mu.Lock()
	var serverErr *upload.ServerError
	switch {
	case err == nil:
		c.settleIndicator(indicator, true, fmt.Sprintf(msgIndicatorOKFmt, res.Filename))
		c.scheduleStatsRefresh()
		c.log.Info("file uploaded", "file", f.Name, "stored_as", res.Filename)
	case errors.As(err, &serverErr):
		c.settleIndicator(indicator, false, fmt.Sprintf(msgIndicatorErrFmt, serverMessage(serverErr)))
		c.log.Warn("upload rejected by server", "file", f.Name, "error", serverErr.Message)
	default:
		c.settleIndicator(indicator, false, msgIndicatorFailed)
		c.log.Error("upload error", "file", f.Name, "error", err)
	}
	c.mu.Unlock()
	c.notify()
	c.discard(ctx, f)
	return err
}

// createIndicator appends a spinner indicator for f to the progress
// region. Caller holds mu.
func (c *Controller) createIndicator(f upload.SelectedFile) *vdom.VNode {
	c.indicators++
	indicator := vdom.Div(
		vdom.ID("upload-"+strconv.Itoa(c.indicators)),
		vdom.Class("alert", "alert-info", "mt-2", "fade-in"),
		vdom.TitleAttr(upload.FormatSize(f.Size)),
		vdom.Div(
			vdom.Class("d-flex", "align-items-center"),
			vdom.Div(vdom.Class("loading-spinner", "me-3")),
			vdom.Div(
				vdom.Strong(labelIndicatorStart),
				vdom.Text(" "+f.Name),
				vdom.Div(vdom.Class("small", "text-muted"), labelProcessing),
			),
		),
	)
	c.el.Progress.AppendChild(indicator)
	return indicator
}

// settleIndicator swaps the spinner for a status icon and schedules the
// indicator's removal. Caller holds mu.
func (c *Controller) settleIndicator(indicator *vdom.VNode, ok bool, message string) {
	icon, level := "fas fa-exclamation-triangle text-danger", "alert-danger"
	if ok {
		icon, level = "fas fa-check-circle text-success", "alert-success"
	}
	indicator.SetClass("alert", level, "mt-2")
	indicator.ReplaceChildren(vdom.Div(
		vdom.Class("d-flex", "align-items-center"),
		vdom.I(vdom.Class(icon, "me-3")),
		vdom.Div(message),
	))

	c.afterFunc(c.opts.AlertTTL, func() {
		c.mu.Lock()
		removed := vdom.Remove(c.el.Root, indicator)
		c.mu.Unlock()
		if removed {
			c.notify()
		}
	})
}

// setUploadState toggles the form between idle and uploading. Caller
// holds mu.
func (c *Controller) setUploadState(uploading bool) {
	if !c.el.canSubmit() {
		c.uploading = uploading
		return
	}
	c.uploading = uploading
	btn, input := c.el.Button, c.el.FileInput
	if uploading {
		btn.SetAttr("disabled", true)
		btn.ReplaceChildren(vdom.Span(vdom.Class("loading-spinner", "me-2")), vdom.Text(labelUploading))
		input.SetAttr("disabled", true)
		return
	}
	btn.RemoveAttr("disabled")
	btn.ReplaceChildren(vdom.I(vdom.Class("fas", "fa-upload", "me-2")), vdom.Text(labelUploadProcess))
	input.RemoveAttr("disabled")
}

// Uploading reports whether a form upload is in flight.
func (c *Controller) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

// Selected returns the file currently chosen in the form input.
func (c *Controller) Selected() *upload.SelectedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Select sets the form input's file, replacing (and discarding) any
// previous selection. The input carries the chosen name so the client
// can keep its own file input across renders.
func (c *Controller) Select(ctx context.Context, f *upload.SelectedFile) {
	c.mu.Lock()
	prev := c.selected
	c.selected = f
	if in := c.el.FileInput; in != nil {
		if f != nil {
			in.SetAttr(AttrSelected, f.Name)
		} else {
			in.RemoveAttr(AttrSelected)
		}
	}
	c.mu.Unlock()
	c.notify()
	if prev != nil && (f == nil || prev.StagedID != f.StagedID) {
		c.discard(ctx, *prev)
	}
}

// resetForm clears the form selection. Caller holds mu.
func (c *Controller) resetForm() {
	c.selected = nil
	if c.el.FileInput != nil {
		c.el.FileInput.RemoveAttr("value")
		c.el.FileInput.RemoveAttr(AttrSelected)
	}
}

// discard releases the staged copy of a file that is done with.
func (c *Controller) discard(ctx context.Context, f upload.SelectedFile) {
	if err := f.Release(context.WithoutCancel(ctx)); err != nil {
		c.log.Warn("releasing staged file", "file", f.Name, "temp_id", f.StagedID, "error", err)
	}
}

// FilesFrom converts event file references into selected files backed
// by the staging store.
func (c *Controller) FilesFrom(refs []protocol.FileRef) []upload.SelectedFile {
	files := make([]upload.SelectedFile, 0, len(refs))
	for _, ref := range refs {
		files = append(files, upload.StagedFile(c.opts.Store, ref.TempID, ref.Name, ref.Size, ref.Type))
	}
	return files
}

func (c *Controller) onSubmit(ctx context.Context, e *protocol.Event) error {
	if !c.markValidated(c.el.Form, e) {
		return nil
	}
	c.mu.Lock()
	selected := c.selected
	c.mu.Unlock()
	if err := c.beginSubmit(ctx, selected); err != nil {
		return nil
	}
	c.spawn(ctx, func(ctx context.Context) { _, _ = c.finishSubmit(ctx, selected) })
	return nil
}

// onValidatedSubmit handles needs-validation forms other than the
// upload form.
func (c *Controller) onValidatedSubmit(_ context.Context, e *protocol.Event) error {
	c.mu.Lock()
	form := vdom.GetElementByID(c.el.Root, e.Target)
	c.mu.Unlock()
	c.markValidated(form, e)
	return nil
}

// markValidated adds was-validated to a needs-validation form and
// reports whether the submit may proceed.
func (c *Controller) markValidated(form *vdom.VNode, e *protocol.Event) bool {
	c.mu.Lock()
	participates := form != nil && form.HasClass(ClassNeedsValidation)
	if participates {
		form.AddClass(ClassWasValidated)
	}
	c.mu.Unlock()
	if !participates {
		return true
	}
	c.notify()
	if !e.FormValid() {
		c.log.Debug("submit stopped by constraint validation", "form", e.Target)
		return false
	}
	return true
}

func (c *Controller) onFileChange(ctx context.Context, e *protocol.Event) error {
	files := c.FilesFrom(e.Files)
	if len(files) == 0 {
		c.Select(ctx, nil)
		return nil
	}
	f := files[0]
	c.Select(ctx, &f)
	for _, extra := range files[1:] {
		c.discard(ctx, extra)
	}
	return nil
}

func (c *Controller) onPicked(ctx context.Context, e *protocol.Event) error {
	if len(e.Files) == 0 {
		return nil
	}
	c.handleDropped(ctx, e.Files)
	return nil
}

func outcome(err error) string {
	var serverErr *upload.ServerError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &serverErr):
		return "server_error"
	default:
		return "transport_error"
	}
}

func serverMessage(err *upload.ServerError) string {
	if err.Message == "" {
		return msgUnknownError
	}
	return err.Message
}
