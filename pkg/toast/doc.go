// Package toast renders dismissible alert banners into a vdom document.
//
// At most one automatic banner is visible at a time: showing a new one
// removes every element carrying the auto-alert class. Banners are
// inserted first in their container and removed after a TTL (5s by
// default) unless dismissed earlier through their close button.
//
//	banners := toast.New(toast.Options{
//	    Root:      doc,
//	    Container: vdom.GetElementByID(doc, "alerts"),
//	    Locker:    &mu,
//	    OnChange:  requestRender,
//	})
//	banners.Success("File uploaded successfully: report.pdf")
//
// Methods that mutate the document expect the caller to hold Locker;
// timed removal acquires it itself.
package toast
