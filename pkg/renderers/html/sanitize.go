package html

import (
	"strings"
	"sync"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	recommendationPolicyOnce sync.Once
	recommendationPolicy     *bluemonday.Policy
)

// RenderRecommendation turns the service's recommendation (plain text or
// Markdown) into HTML that is safe to embed. Raw HTML in the input is
// dropped; links open in a new tab without a referrer.
func RenderRecommendation(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.SkipHTML | mdhtml.HrefTargetBlank,
	})
	rendered := markdown.ToHTML([]byte(trimmed), p, renderer)

	return strings.TrimSpace(string(recommendationSanitizer().SanitizeBytes(rendered)))
}

func recommendationSanitizer() *bluemonday.Policy {
	recommendationPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"p", "br", "strong", "em", "b", "i", "ul", "ol", "li",
			"blockquote", "code", "pre", "h3", "h4", "hr",
		)
		policy.AllowStandardURLs()
		policy.AllowAttrs("href").OnElements("a")
		policy.RequireNoReferrerOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		recommendationPolicy = policy
	})
	return recommendationPolicy
}
