package conversational

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicyOnce sync.Once
	stripPolicy     *bluemonday.Policy
)

// htmlToText flattens authored HTML blocks into plain terminal text: tags are
// stripped, entities decoded, and whitespace collapsed.
func htmlToText(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	stripPolicyOnce.Do(func() {
		stripPolicy = bluemonday.StrictPolicy()
	})
	plain := html.UnescapeString(stripPolicy.Sanitize(markup))
	return strings.Join(strings.Fields(plain), " ")
}
