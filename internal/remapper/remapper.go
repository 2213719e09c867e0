// Package remapper defines the name-remapping authorities consulted by
// the refmap engine and their composition into an ordered chain.
package remapper

// Remapper translates names between naming environments. Every method
// is infallible: an authority that does not recognize a name must
// return its input unchanged. Absent owner or descriptor arguments are
// passed as empty strings and must be tolerated.
type Remapper interface {
	// MapType translates a type name. Both binary (a/b/C) and source
	// (a.b.C) spellings may be passed; the result uses the same
	// separator style as the input.
	MapType(name string) string

	// MapFieldName translates a field name, given its owner and value
	// type descriptor when known.
	MapFieldName(owner, name, desc string) string

	// MapMethodName translates a method name, given its owner and
	// method descriptor when known.
	MapMethodName(owner, name, desc string) string

	// MapDesc translates a single type descriptor such as
	// "Lcom/example/Foo;", "[I" or "Z".
	MapDesc(desc string) string
}

// Chain composes remapping authorities in order. Each stage sees the
// running result of the previous stages: member-name lookups receive
// the owner and descriptor as translated so far, so a chain of
// environment hops (a->b, b->c) resolves end to end. An empty chain is
// the identity remapper.
type Chain []Remapper

func (c Chain) MapType(name string) string {
	for _, r := range c {
		name = r.MapType(name)
	}
	return name
}

func (c Chain) MapFieldName(owner, name, desc string) string {
	for _, r := range c {
		name = r.MapFieldName(owner, name, desc)
		owner = mapOptionalType(r, owner)
		desc = mapOptionalDesc(r, desc)
	}
	return name
}

func (c Chain) MapMethodName(owner, name, desc string) string {
	for _, r := range c {
		name = r.MapMethodName(owner, name, desc)
		owner = mapOptionalType(r, owner)
		desc = mapOptionalMethodDesc(r, desc)
	}
	return name
}

func (c Chain) MapDesc(desc string) string {
	for _, r := range c {
		desc = r.MapDesc(desc)
	}
	return desc
}

func mapOptionalType(r Remapper, owner string) string {
	if owner == "" {
		return owner
	}
	return r.MapType(owner)
}

func mapOptionalDesc(r Remapper, desc string) string {
	if desc == "" {
		return desc
	}
	return r.MapDesc(desc)
}

func mapOptionalMethodDesc(r Remapper, desc string) string {
	if desc == "" {
		return desc
	}
	return MapMethodDesc(r, desc)
}
