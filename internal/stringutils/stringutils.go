package stringutils

import "strings"

// IndentLines prefixes each non-empty line of str with indent.
func IndentLines(str, indent string) string {
	lines := strings.Split(str, "\n")

	for i, l := range lines {
		if l == "" {
			continue
		}

		lines[i] = indent + l
	}

	return strings.Join(lines, "\n")
}
