package refmap

import "strings"

// MemberRef is one symbolic class-member reference, split into its
// structural parts. Any of the three parts may be absent (empty string);
// a reference carrying only an owner denotes the type itself, never a
// member.
type MemberRef struct {
	Owner string
	Name  string
	Desc  string
}

// ParseMemberRef splits a reference string into owner, member name and
// descriptor. Accepted shapes:
//
//	Lsome/Type;              class-only reference
//	owner;name(args)ret      method with owner
//	owner;name:desc          field with owner
//	name(args)ret            method, unqualified
//	name:desc                field, unqualified
//	owner;name               member of unknown kind
//	name                     bare member name
//
// Parsing is lenient: text that fits none of the shapes degrades to a
// bare-name (or owner-only) reference rather than failing. Callers that
// need to reject empty input must do so themselves.
func ParseMemberRef(text string) MemberRef {
	text = stripSpace(text)

	// A lone L...; with no member suffix is a class reference.
	if strings.HasPrefix(text, "L") && strings.HasSuffix(text, ";") &&
		strings.Count(text, ";") == 1 && !strings.ContainsAny(text, "(:") {
		return MemberRef{Owner: text[1 : len(text)-1]}
	}

	var ref MemberRef
	rest := text

	if sep := strings.IndexByte(rest, ';'); sep >= 0 && beforeDesc(rest, sep) {
		ref.Owner = rest[:sep]
		rest = rest[sep+1:]
	}

	if paren := strings.IndexByte(rest, '('); paren >= 0 {
		ref.Desc = rest[paren:]
		rest = rest[:paren]
	} else if colon := strings.IndexByte(rest, ':'); colon >= 0 {
		ref.Desc = rest[colon+1:]
		rest = rest[:colon]
	}

	// Stray separators left in the name slot (e.g. "owner;;") mean the
	// name is absent, not literally ";".
	ref.Name = strings.Trim(rest, ";")
	return ref
}

// String renders the reference in canonical form, the exact inverse of
// ParseMemberRef for every reference it produces. Method descriptors are
// appended directly; field descriptors are separated by a colon.
func (ref MemberRef) String() string {
	var b strings.Builder
	if ref.Owner != "" {
		b.WriteString(ref.Owner)
		b.WriteByte(';')
	}
	b.WriteString(ref.Name)
	if ref.Desc != "" {
		if !strings.HasPrefix(ref.Desc, "(") {
			b.WriteByte(':')
		}
		b.WriteString(ref.Desc)
	}
	return b.String()
}

// IsField reports whether the reference names a field. A reference
// without a descriptor is kind-ambiguous and reports true here; callers
// that care about the distinction must check HasDesc first.
func (ref MemberRef) IsField() bool {
	return !strings.HasPrefix(ref.Desc, "(")
}

// HasOwner reports whether the owning type is present.
func (ref MemberRef) HasOwner() bool { return ref.Owner != "" }

// HasName reports whether the member name is present.
func (ref MemberRef) HasName() bool { return ref.Name != "" }

// HasDesc reports whether the type descriptor is present.
func (ref MemberRef) HasDesc() bool { return ref.Desc != "" }

// beforeDesc reports whether position i in s comes before any descriptor
// separator, i.e. whether a ';' at i belongs to the owner prefix rather
// than to an object type inside a descriptor.
func beforeDesc(s string, i int) bool {
	if paren := strings.IndexByte(s, '('); paren >= 0 && paren < i {
		return false
	}
	if colon := strings.IndexByte(s, ':'); colon >= 0 && colon < i {
		return false
	}
	return true
}

func stripSpace(s string) string {
	if !strings.ContainsAny(s, " \t") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
