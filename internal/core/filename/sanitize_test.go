package filename

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`..\..\evil.exe`, "evil.exe"},
		{"../../etc/passwd", "passwd"},
		{"C:\\Users\\me\\report.pdf", "report.pdf"},
		{`a:b*c?d"e<f>g|h.txt`, "abcdefgh.txt"},
		{"", Fallback},
		{"   ", Fallback},
		{"/", Fallback},
		{`\\`, Fallback},
		{"dir/", Fallback},
		{`?*:`, Fallback},
		{"보고서.hwp", "보고서.hwp"},
		{"naïve résumé.docx", "naïve résumé.docx"},
		{" spaced name .zip", " spaced name .zip"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitize_IdempotentAndTotal(t *testing.T) {
	inputs := []string{
		"", " ", "\t\n", "/", `\`, "//\\//", "a/b\\c", `..\..\evil.exe`,
		"download.bin", "日本語/ファイル.txt", "\x00\x01", "%2e%2e%2fx",
		`"quoted".txt`, "trailing.", ".hidden", strings.Repeat("a/", 50) + "z",
		"con:", "<>|", "x\u00a0", "\uFFFD",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if strings.TrimSpace(once) == "" {
			t.Fatalf("Sanitize(%q) returned blank", in)
		}
		if strings.ContainsAny(once, `/\:*?"<>|`) {
			t.Fatalf("Sanitize(%q) = %q still has forbidden chars", in, once)
		}
		if twice := Sanitize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestBase(t *testing.T) {
	tests := map[string]string{
		"a/b/c.txt":      "c.txt",
		`a\b\c.txt`:      "c.txt",
		`mixed/dir\f.7z`: "f.7z",
		"plain":          "plain",
		"dir/":           "",
	}
	for in, want := range tests {
		if got := Base(in); got != want {
			t.Errorf("Base(%q) = %q, want %q", in, got, want)
		}
	}
}
