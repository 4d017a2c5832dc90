package htmlpolicy

import (
	"strings"

	"cakeshop/contexts/shop/shop-service/ports"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer keeps the formatting produced by the dashboard rich text
// editor and drops everything else, including scripts and inline styles.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "br", "strong", "em", "b", "i", "u", "ul", "ol", "li", "h3", "h4", "blockquote")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowStandardURLs()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &Sanitizer{policy: policy}
}

func (s *Sanitizer) SanitizeHTML(input string) string {
	return strings.TrimSpace(s.policy.Sanitize(input))
}

var _ ports.Sanitizer = (*Sanitizer)(nil)
