package upload_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aiton-rag/uploadui/pkg/upload"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.pdf", ".pdf"},
		{"REPORT.PDF", ".pdf"},
		{"archive.tar.gz", ".gz"},
		{"notes.Md", ".md"},
		{"README", ".readme"},
		{"trailing.", "."},
	}
	for _, tt := range tests {
		if got := upload.Extension(tt.name); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestValidate_Accepts(t *testing.T) {
	for _, name := range []string{"a.pdf", "b.docx", "c.txt", "d.html", "e.htm", "f.md", "G.PDF"} {
		f := upload.SelectedFile{Name: name, Size: 2 * 1024 * 1024}
		if err := upload.Validate(f); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", name, err)
		}
	}
}

func TestValidate_SizeLimit(t *testing.T) {
	atLimit := upload.SelectedFile{Name: "edge.pdf", Size: upload.MaxFileSize}
	if err := upload.Validate(atLimit); err != nil {
		t.Fatalf("file at exactly the limit rejected: %v", err)
	}

	over := upload.SelectedFile{Name: "big.pdf", Size: upload.MaxFileSize + 1}
	err := upload.Validate(over)
	var verr *upload.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if verr.Reason != upload.ReasonTooLarge {
		t.Errorf("Reason = %q, want %q", verr.Reason, upload.ReasonTooLarge)
	}
	if !errors.Is(err, upload.ErrTooLarge) {
		t.Error("expected errors.Is(err, ErrTooLarge)")
	}
	want := "File too large: big.pdf. Maximum size is 10MB."
	if verr.Message != want {
		t.Errorf("Message = %q, want %q", verr.Message, want)
	}
}

func TestValidate_SizeCheckedBeforeExtension(t *testing.T) {
	err := upload.Validate(upload.SelectedFile{Name: "huge.exe", Size: upload.MaxFileSize * 2})
	var verr *upload.ValidationError
	if !errors.As(err, &verr) || verr.Reason != upload.ReasonTooLarge {
		t.Fatalf("err = %v, want too_large", err)
	}
}

func TestValidate_UnsupportedType(t *testing.T) {
	for _, name := range []string{"photo.png", "tiny.exe", "noext", "sheet.xlsx"} {
		err := upload.Validate(upload.SelectedFile{Name: name, Size: 1})
		var verr *upload.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Validate(%q) = %v, want *ValidationError", name, err)
		}
		if verr.Reason != upload.ReasonUnsupportedType {
			t.Errorf("%s: Reason = %q", name, verr.Reason)
		}
		if !errors.Is(err, upload.ErrUnsupportedType) {
			t.Errorf("%s: expected ErrUnsupportedType", name)
		}
	}

	err := upload.Validate(upload.SelectedFile{Name: "photo.PNG", Size: 1})
	want := "Unsupported file type: .png. Supported types: .pdf, .docx, .txt, .html, .md, .htm"
	if err == nil || err.Error() != want {
		t.Errorf("message = %v, want %q", err, want)
	}
}

func TestConstraints_Custom(t *testing.T) {
	c := upload.Constraints{MaxFileSize: 1500, AllowedExtensions: []string{".csv"}}
	if err := c.Validate(upload.SelectedFile{Name: "data.CSV", Size: 1500}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := c.Validate(upload.SelectedFile{Name: "data.csv", Size: 1501})
	if err == nil || !strings.Contains(err.Error(), "Maximum size is 1.5 KiB.") {
		t.Errorf("err = %v", err)
	}
	if c.Accept() != ".csv" {
		t.Errorf("Accept() = %q", c.Accept())
	}

	unlimited := upload.Constraints{AllowedExtensions: []string{".txt"}}
	if err := unlimited.Validate(upload.SelectedFile{Name: "x.txt", Size: 1 << 40}); err != nil {
		t.Errorf("zero MaxFileSize should disable the size check: %v", err)
	}
}

func TestDefaultConstraints_Independent(t *testing.T) {
	c := upload.DefaultConstraints()
	c.AllowedExtensions[0] = ".exe"
	if upload.DefaultExtensions[0] != ".pdf" {
		t.Fatal("DefaultConstraints shares its slice with DefaultExtensions")
	}
	if got := upload.DefaultConstraints().Accept(); got != ".pdf,.docx,.txt,.html,.md,.htm" {
		t.Errorf("Accept() = %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{-5, "0 B"},
		{512, "512 B"},
		{2 * 1024 * 1024, "2.0 MiB"},
	}
	for _, tt := range tests {
		if got := upload.FormatSize(tt.n); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
