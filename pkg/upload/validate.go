package upload

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// MaxFileSize is the default upload size limit (10MB).
const MaxFileSize int64 = 10 * 1024 * 1024

// DefaultExtensions are the file types the knowledge base ingests.
var DefaultExtensions = []string{".pdf", ".docx", ".txt", ".html", ".md", ".htm"}

// Constraints are the client-side acceptance rules for a file.
type Constraints struct {
	// MaxFileSize is the largest accepted size in bytes. Zero disables
	// the check.
	MaxFileSize int64

	// AllowedExtensions are lowercase extensions including the dot.
	AllowedExtensions []string
}

// DefaultConstraints returns the 10MB / document-extension rules.
func DefaultConstraints() Constraints {
	exts := make([]string, len(DefaultExtensions))
	copy(exts, DefaultExtensions)
	return Constraints{MaxFileSize: MaxFileSize, AllowedExtensions: exts}
}

// Extension returns "." plus the lowercased text after the last dot of
// name. A name without a dot yields "." plus the whole name, so it never
// matches a real extension.
func Extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return "." + strings.ToLower(name)
}

// Validate checks size first, then extension.
func (c Constraints) Validate(f SelectedFile) error {
	if c.MaxFileSize > 0 && f.Size > c.MaxFileSize {
		return &ValidationError{
			File:    f.Name,
			Reason:  ReasonTooLarge,
			Message: fmt.Sprintf("File too large: %s. Maximum size is %s.", f.Name, sizeLabel(c.MaxFileSize)),
			err:     ErrTooLarge,
		}
	}

	ext := Extension(f.Name)
	if !c.Allows(ext) {
		return &ValidationError{
			File:    f.Name,
			Reason:  ReasonUnsupportedType,
			Message: fmt.Sprintf("Unsupported file type: %s. Supported types: %s", ext, strings.Join(c.AllowedExtensions, ", ")),
			err:     ErrUnsupportedType,
		}
	}
	return nil
}

// Allows reports whether ext (with dot, any case) is accepted.
func (c Constraints) Allows(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// Accept renders the extensions for an <input accept="..."> attribute.
func (c Constraints) Accept() string {
	return strings.Join(c.AllowedExtensions, ",")
}

// Validate checks f against DefaultConstraints.
func Validate(f SelectedFile) error {
	return DefaultConstraints().Validate(f)
}

// sizeLabel prints whole mebibyte limits the way users read them ("10MB").
func sizeLabel(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return humanize.IBytes(uint64(n))
}
