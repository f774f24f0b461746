// Package errors provides structured, actionable errors for the uploadui
// command line and configuration loader.
//
// Each error has a registered code (e.g. "E101") that maps to a category
// and a short message. Call sites add a detail, a suggestion and, for
// configuration files, the location of the problem:
//
//	err := errors.New("E101").
//	    WithLocation("uploadui.json", 4, 17).
//	    WithDetail(`invalid character '}' looking for beginning of value`).
//	    WithSuggestion("Check that uploadui.json is valid JSON")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR E101: Invalid configuration file
//	//
//	//   uploadui.json:4:17
//	//
//	//       3 │   "api_base_url": "http://localhost:8000",
//	//   →   4 │   "max_file_size": },
//	//         │                 ^
//	//
//	//   Hint: Check that uploadui.json is valid JSON
//
// # Code ranges
//
//   - E100-E119: configuration
//   - E120-E129: upstream API
//   - E130-E139: files given to the CLI
//   - E140-E149: server lifecycle
package errors
