package builtin

// HasEdgeSpace reports whether s starts or ends with ASCII whitespace. It lets
// hot paths skip strings.TrimSpace (and its allocation) for clean values.
func HasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return isSpace(s[0]) || isSpace(s[len(s)-1])
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
