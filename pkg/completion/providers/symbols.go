package providers

import (
	"regexp"
	"slices"
)

var (
	classPattern    = regexp.MustCompile(`\.(-?[a-zA-Z_][\w-]*)`)
	idPattern       = regexp.MustCompile(`#([a-zA-Z_][\w-]*)`)
	variablePattern = regexp.MustCompile(`(--[\w-]+)\s*:`)
	hexOnlyPattern  = regexp.MustCompile(`^(?:[0-9A-Fa-f]{3,4}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)
)

// blankStrings replaces the contents of quoted strings with spaces so that
// paths like "icons/a.png" are not mistaken for selectors. Offsets are kept.
func blankStrings(text string) string {
	b := []byte(text)
	var quote byte
	for i := 0; i < len(b); i++ {
		switch {
		case quote != 0 && b[i] == quote:
			quote = 0
		case quote != 0 && b[i] != '\n':
			b[i] = ' '
		case quote != 0:
			quote = 0
		case b[i] == '"' || b[i] == '\'':
			quote = b[i]
		}
	}
	return string(b)
}

func uniqueSorted(names []string) []string {
	slices.Sort(names)
	return slices.Compact(names)
}

// ClassNames lists the distinct class names used in text.
func ClassNames(text string) []string {
	text = blankStrings(text)
	var names []string
	for _, m := range classPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > 0 && isDigit(text[m[0]-1]) {
			continue
		}
		names = append(names, text[m[2]:m[3]])
	}
	return uniqueSorted(names)
}

// IdNames lists the distinct element names used in #id selectors. Tokens that
// read as hex colors are left out.
func IdNames(text string) []string {
	text = blankStrings(text)
	var names []string
	for _, m := range idPattern.FindAllStringSubmatch(text, -1) {
		if hexOnlyPattern.MatchString(m[1]) {
			continue
		}
		names = append(names, m[1])
	}
	return uniqueSorted(names)
}

// VariableNames lists the distinct custom properties defined in text.
func VariableNames(text string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(text, -1) {
		names = append(names, m[1])
	}
	return uniqueSorted(names)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
