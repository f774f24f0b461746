package controller

import (
	"context"

	"github.com/aiton-rag/uploadui/pkg/protocol"
)

// DragState is the drop zone highlight state.
type DragState int

const (
	DragIdle DragState = iota
	DragHover
)

func (s DragState) String() string {
	if s == DragHover {
		return "drag-hover"
	}
	return "idle"
}

// DragState returns the current drop zone state.
func (c *Controller) DragState() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragging {
		return DragHover
	}
	return DragIdle
}

// setDragging moves the state machine and reports whether the document
// changed. Caller holds mu.
func (c *Controller) setDragging(on bool) bool {
	if c.el.DropZone == nil || c.dragging == on {
		return false
	}
	c.dragging = on
	if on {
		c.el.DropZone.AddClass(ClassDragOver)
	} else {
		c.el.DropZone.RemoveClass(ClassDragOver)
	}
	return true
}

func (c *Controller) onDragEnter(context.Context, *protocol.Event) error {
	c.mu.Lock()
	changed := c.setDragging(true)
	c.mu.Unlock()
	if changed {
		c.notify()
	}
	return nil
}

func (c *Controller) onDragLeave(context.Context, *protocol.Event) error {
	c.mu.Lock()
	changed := c.setDragging(false)
	c.mu.Unlock()
	if changed {
		c.notify()
	}
	return nil
}

// onDrop ends the hover state whatever the files turn out to be, then
// handles them.
func (c *Controller) onDrop(ctx context.Context, e *protocol.Event) error {
	if err := c.onDragLeave(ctx, e); err != nil {
		return err
	}
	if len(e.Files) == 0 {
		return nil
	}
	c.handleDropped(ctx, e.Files)
	return nil
}
