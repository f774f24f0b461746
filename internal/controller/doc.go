// Package controller implements the upload page's behavior: it binds
// handlers to the page elements, validates picked files, submits them to
// the API and reflects every outcome back into the document.
//
// A Controller owns one document. All DOM mutation happens under the
// controller lock, which plays the role of the browser's event loop;
// network calls run outside it. Timed work (stats refresh, banner and
// indicator removal) goes through an injectable AfterFunc so tests can
// drive it with a fake clock.
package controller
