package remapper

import "strings"

// ParseMethodDesc splits a method descriptor of the form "(args)ret"
// into its ordered parameter type descriptors and the return type
// descriptor. Array prefixes stay attached to their element type.
// Input that is not a method descriptor yields no parameters and the
// text itself as the return type, so a caller rebuilding the descriptor
// reproduces its input.
func ParseMethodDesc(desc string) (args []string, ret string) {
	if !strings.HasPrefix(desc, "(") {
		return nil, desc
	}
	close := strings.IndexByte(desc, ')')
	if close < 0 {
		return nil, desc
	}

	inner := desc[1:close]
	for len(inner) > 0 {
		next := typeDescLen(inner)
		if next <= 0 {
			// Undecodable tail; keep it as one opaque slot rather than
			// dropping characters.
			args = append(args, inner)
			break
		}
		args = append(args, inner[:next])
		inner = inner[next:]
	}
	return args, desc[close+1:]
}

// typeDescLen returns the length of the single type descriptor at the
// start of s, or 0 if s does not start with one.
func typeDescLen(s string) int {
	if s == "" {
		return 0
	}
	switch s[0] {
	case 'Z', 'B', 'C', 'S', 'I', 'J', 'F', 'D', 'V':
		return 1
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return 0
		}
		return end + 1
	case '[':
		elem := typeDescLen(s[1:])
		if elem == 0 {
			return 0
		}
		return elem + 1
	default:
		return 0
	}
}

// MapMethodDesc remaps every parameter type and the return type of a
// method descriptor through r, preserving parameter order and arity
// exactly. Non-method input is remapped as a single type descriptor.
func MapMethodDesc(r Remapper, desc string) string {
	if !strings.HasPrefix(desc, "(") || !strings.ContainsRune(desc, ')') {
		return r.MapDesc(desc)
	}
	args, ret := ParseMethodDesc(desc)

	var b strings.Builder
	b.WriteByte('(')
	for _, arg := range args {
		b.WriteString(r.MapDesc(arg))
	}
	b.WriteByte(')')
	b.WriteString(r.MapDesc(ret))
	return b.String()
}
