package errors

import "sort"

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// Configuration (E100-E119)
	"E100": {Category: CategoryConfig, Message: "Configuration file not found"},
	"E101": {Category: CategoryConfig, Message: "Invalid configuration file"},
	"E102": {Category: CategoryConfig, Message: "Invalid configuration value"},
	"E103": {Category: CategoryConfig, Message: "Invalid duration"},
	"E104": {Category: CategoryConfig, Message: "Unknown staging backend"},
	"E105": {Category: CategoryConfig, Message: "S3 bucket not configured"},
	"E106": {Category: CategoryConfig, Message: "Invalid API base URL"},
	"E107": {Category: CategoryConfig, Message: "Environment file could not be loaded"},

	// Upstream API (E120-E129)
	"E120": {Category: CategoryUpstream, Message: "API unreachable"},
	"E121": {Category: CategoryUpstream, Message: "API reported a failure"},

	// Files given to the CLI (E130-E139)
	"E130": {Category: CategoryFile, Message: "File not accepted"},
	"E131": {Category: CategoryFile, Message: "File not readable"},

	// Server lifecycle (E140-E149)
	"E140": {Category: CategoryServer, Message: "Server failed to start"},
	"E141": {Category: CategoryServer, Message: "Staging store unavailable"},
}

// Codes returns all registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
