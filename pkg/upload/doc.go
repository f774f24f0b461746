// Package upload holds the upload domain: the selected-file model, the
// client-side validation rules, the HTTP client for the AITON-RAG API,
// and the staging stores that hold browser-picked bytes until the
// controller submits them.
//
// # Flow
//
//  1. User picks or drops files in the browser
//  2. The thin client POSTs each file to the staging endpoint (Handler),
//     which streams it to a Store and returns a temp_id
//  3. The DOM event reaches the server carrying {temp_id, name, size, type}
//  4. The controller validates the metadata (Validate) and, for valid
//     files, opens the staged bytes and calls Client.Upload
//
// Files that already exceed the size limit are never staged; their event
// carries metadata only and validation rejects them.
//
// # Validation
//
// Validation is extension based (plus size). A renamed file passes; real
// content checks belong to the API that processes the upload.
//
// # Errors
//
// Client and validation failures are reported as *ValidationError,
// *ServerError or *TransportError:
//
//	res, err := client.Upload(ctx, file)
//	var serverErr *upload.ServerError
//	switch {
//	case errors.As(err, &serverErr):
//	    // show serverErr.Message verbatim
//	case err != nil:
//	    // transport failure: generic message, log err
//	}
package upload
