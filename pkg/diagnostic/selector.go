package diagnostic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ericchiang/css"

	"github.com/walteh/ussls/pkg/position"
)

// USS pseudo-classes and pseudo-elements are not all valid CSS, so they are
// removed before the selector is handed to the CSS parser.
var pseudoPattern = regexp.MustCompile(`::?[\w-]+(\([^)]*\))?`)

// checkSelector parses each selector of a rule opener line such as
// ".a:hover, Button > Label {".
func checkSelector(num int, line string) []Diagnostic {
	brace := strings.IndexByte(line, '{')
	if brace < 0 {
		return nil
	}

	var diags []Diagnostic
	start := 0
	for _, part := range strings.Split(line[:brace], ",") {
		end := start + len(part)
		sel := strings.TrimSpace(part)
		lead := start + strings.Index(part, sel)
		start = end + 1

		if sel == "" {
			col := position.ByteToUTF16(line, lead)
			diags = append(diags, Diagnostic{
				Range:    lineRange(num, col, col),
				Severity: SeverityWarning,
				Message:  "Empty selector",
				Source:   Source,
			})
			continue
		}

		stripped := strings.TrimSpace(pseudoPattern.ReplaceAllString(sel, ""))
		if stripped == "" {
			continue
		}
		if _, err := css.Parse(stripped); err != nil {
			diags = append(diags, Diagnostic{
				Range:    lineRange(num, position.ByteToUTF16(line, lead), position.ByteToUTF16(line, lead+len(sel))),
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("Invalid selector '%s': %v", sel, err),
				Source:   Source,
			})
		}
	}
	return diags
}
