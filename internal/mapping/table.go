// Package mapping holds the persisted name-mapping tables that translate
// the stable development naming environment into a target environment.
package mapping

// Member identifies one field or method by owning type, name and
// descriptor. Field identities carry an empty Desc.
type Member struct {
	Owner string
	Name  string
	Desc  string
}

// Table is one in-memory mapping set: type names, field identities and
// method identities, each mapped to their target-environment
// equivalents. A Table is immutable once loaded; absent entries are not
// an error, the original identity simply passes through at lookup time.
type Table struct {
	types   map[string]string
	fields  map[Member]Member
	methods map[Member]Member
}

func NewTable() *Table {
	return &Table{
		types:   make(map[string]string),
		fields:  make(map[Member]Member),
		methods: make(map[Member]Member),
	}
}

func (t *Table) AddType(from, to string) {
	t.types[from] = to
}

func (t *Table) AddField(from, to Member) {
	from.Desc = ""
	to.Desc = ""
	t.fields[from] = to
}

func (t *Table) AddMethod(from, to Member) {
	t.methods[from] = to
}

// TypeName looks up the target name for a type, by binary name.
func (t *Table) TypeName(name string) (string, bool) {
	to, ok := t.types[name]
	return to, ok
}

// Field looks up the target identity for a field. Field mappings are
// keyed by owner and name only.
func (t *Table) Field(owner, name string) (Member, bool) {
	to, ok := t.fields[Member{Owner: owner, Name: name}]
	return to, ok
}

// Method looks up the target identity for a method, keyed by owner,
// name and full descriptor.
func (t *Table) Method(owner, name, desc string) (Member, bool) {
	to, ok := t.methods[Member{Owner: owner, Name: name, Desc: desc}]
	return to, ok
}

func (t *Table) TypeCount() int   { return len(t.types) }
func (t *Table) FieldCount() int  { return len(t.fields) }
func (t *Table) MethodCount() int { return len(t.methods) }

// EachType calls fn for every type mapping, in no particular order.
func (t *Table) EachType(fn func(from, to string)) {
	for from, to := range t.types {
		fn(from, to)
	}
}

// EachField calls fn for every field mapping, in no particular order.
func (t *Table) EachField(fn func(from, to Member)) {
	for from, to := range t.fields {
		fn(from, to)
	}
}

// EachMethod calls fn for every method mapping, in no particular order.
func (t *Table) EachMethod(fn func(from, to Member)) {
	for from, to := range t.methods {
		fn(from, to)
	}
}
