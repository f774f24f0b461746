package vtest

import (
	"testing"
	"time"

	"github.com/aiton-rag/uploadui/pkg/vdom"
)

func TestClock_AdvanceRunsDueTimersInOrder(t *testing.T) {
	c := NewClock()
	var order []string
	c.AfterFunc(5*time.Second, func() { order = append(order, "five") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "two") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "two-b") })

	c.Advance(time.Second)
	if len(order) != 0 {
		t.Fatalf("fired early: %v", order)
	}
	c.Advance(time.Second)
	if len(order) != 2 || order[0] != "two" || order[1] != "two-b" {
		t.Fatalf("order = %v", order)
	}
	c.Advance(10 * time.Second)
	if len(order) != 3 || c.Pending() != 0 {
		t.Fatalf("order = %v, pending = %d", order, c.Pending())
	}
}

func TestClock_StopAndChained(t *testing.T) {
	c := NewClock()
	fired := 0
	stop := c.AfterFunc(time.Second, func() { fired++ })
	if !stop() {
		t.Error("stop() = false for pending timer")
	}
	if stop() {
		t.Error("second stop() = true")
	}

	c.AfterFunc(time.Second, func() {
		c.AfterFunc(time.Second, func() { fired++ })
	})
	c.Advance(3 * time.Second)
	if fired != 1 {
		t.Errorf("fired = %d, want 1 (chained timer inside window)", fired)
	}
	if got := c.Now(); !got.Equal(NewClock().Now().Add(3 * time.Second)) {
		t.Errorf("Now() = %v", got)
	}
}

func TestExpectHelpers(t *testing.T) {
	doc := vdom.Div(vdom.ID("root"), vdom.Class("a b"), vdom.Span(vdom.ID("x"), "hello"))
	ExpectContains(t, doc, "hello")
	ExpectNotContains(t, doc, "goodbye")
	ExpectAttribute(t, doc, "id", "root")
	el := ExpectElementID(t, doc, "x")
	if el.Tag != "span" {
		t.Errorf("Tag = %q", el.Tag)
	}
	ExpectClass(t, doc, "b")
	ExpectNoClass(t, doc, "c")
}
