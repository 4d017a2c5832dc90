package htmlpolicy

import (
	"strings"
	"testing"
)

func TestSanitizeHTMLStripsScripts(t *testing.T) {
	sanitizer := NewSanitizer()
	out := sanitizer.SanitizeHTML(`<p>Gâteaux <strong>maison</strong></p><script>alert(1)</script>`)
	if strings.Contains(out, "script") {
		t.Fatalf("expected script to be removed, got %q", out)
	}
	if !strings.Contains(out, "<strong>maison</strong>") {
		t.Fatalf("expected formatting to be kept, got %q", out)
	}
}

func TestSanitizeHTMLDropsEventHandlers(t *testing.T) {
	sanitizer := NewSanitizer()
	out := sanitizer.SanitizeHTML(`<p onclick="steal()">Bonjour</p>`)
	if out != "<p>Bonjour</p>" {
		t.Fatalf("expected <p>Bonjour</p>, got %q", out)
	}
}
