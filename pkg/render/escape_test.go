package render

import "testing"

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a & b", "a &amp; b"},
		{"<b>", "&lt;b&gt;"},
		{`"quoted"`, "&quot;quoted&quot;"},
		{"it's", "it&#39;s"},
		{"line\nbreak", "line\nbreak"},
	}
	for _, tt := range tests {
		if got := escapeHTML(tt.in); got != tt.want {
			t.Errorf("escapeHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeAttr(t *testing.T) {
	if got := escapeAttr("a\tb\r\nc"); got != "a&#9;b&#13;&#10;c" {
		t.Errorf("escapeAttr whitespace = %q", got)
	}
	if got := escapeAttr(`<"x">`); got != "&lt;&quot;x&quot;&gt;" {
		t.Errorf("escapeAttr markup = %q", got)
	}
}
