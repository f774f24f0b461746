// Package vtest provides testing helpers for vdom documents and for code
// that schedules work on a clock.
//
// # Render Assertions
//
//	vtest.ExpectContains(t, doc, "File uploaded successfully: report.pdf")
//	vtest.ExpectClass(t, vdom.GetElementByID(doc, "dropZone"), "drag-over")
//
// # Fake Clock
//
// Clock replaces time.AfterFunc so timed behavior can be driven without
// sleeping:
//
//	clock := vtest.NewClock()
//	ctrl := controller.New(elems, controller.Options{AfterFunc: clock.AfterFunc})
//	clock.Advance(2 * time.Second) // fires the stats refresh
package vtest
