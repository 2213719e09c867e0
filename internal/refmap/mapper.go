package refmap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Mapper answers reference-remap queries for one refmap resource. A
// remap never fails: unknown or malformed references pass through
// unchanged, so a single unrecognized reference cannot abort a whole
// patch-application run.
type Mapper interface {
	// IsDefault reports whether the mapper carries no mapping data at
	// all; in that state every remap is an identity operation.
	IsDefault() bool

	// ResourceName returns the name of the backing resource, for
	// diagnostics only.
	ResourceName() string

	// Status returns a human-readable description of the mapper state,
	// for diagnostics only.
	Status() string

	// Context returns the current mapping context.
	Context() string

	// SetContext selects which logical sub-mapping within the resource
	// subsequent Remap calls consult. It may be switched freely between
	// queries on the same instance.
	SetContext(context string)

	// Remap is RemapWithContext using the current context.
	Remap(className, ref string) string

	// RemapWithContext resolves ref, scoped by context and className,
	// into the target naming environment.
	RemapWithContext(context, className, ref string) string
}

// refMapDocument is the on-disk shape of a refmap resource: a default
// mapping set plus named context-scoped sets sharing one file.
type refMapDocument struct {
	Mappings map[string]map[string]string            `json:"mappings"`
	Data     map[string]map[string]map[string]string `json:"data"`
}

// ReferenceMap is the table-backed base mapper. It substitutes
// references via plain lookup in the loaded resource and carries the
// mutable context used to pick a sub-mapping. It performs no structural
// remapping of its own; see RemappingMapper for that.
type ReferenceMap struct {
	resourceName string
	status       string
	context      string
	mappings     map[string]map[string]string
	data         map[string]map[string]map[string]string
	isDefault    bool
}

const (
	statusLoaded  = "mappings loaded"
	statusDefault = "no mapping data"
)

// NewReferenceMap builds a mapper over already-decoded mapping sets.
// Passing nil for both yields a default (identity) mapper.
func NewReferenceMap(name string, mappings map[string]map[string]string, data map[string]map[string]map[string]string) *ReferenceMap {
	rm := &ReferenceMap{
		resourceName: name,
		mappings:     mappings,
		data:         data,
	}
	if len(mappings) == 0 && len(data) == 0 {
		rm.isDefault = true
		rm.status = statusDefault
	} else {
		rm.status = statusLoaded
	}
	return rm
}

// DefaultReferenceMap returns a mapper with no mapping data. All remap
// operations on it are identity.
func DefaultReferenceMap() *ReferenceMap {
	rm := NewReferenceMap("<default>", nil, nil)
	rm.status = statusDefault
	return rm
}

// ReadReferenceMap loads a refmap resource from disk. Failure to read or
// decode is not an error to the caller: it is logged once and the
// returned mapper is default, so every lookup degrades to passthrough.
func ReadReferenceMap(path string) *ReferenceMap {
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("refmap resource not readable, remapping disabled for it", "path", path, "error", err)
		rm := DefaultReferenceMap()
		rm.resourceName = path
		rm.status = fmt.Sprintf("resource not readable: %v", err)
		return rm
	}

	var doc refMapDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("refmap resource malformed, remapping disabled for it", "path", path, "error", err)
		rm := DefaultReferenceMap()
		rm.resourceName = path
		rm.status = fmt.Sprintf("resource malformed: %v", err)
		return rm
	}

	return NewReferenceMap(path, doc.Mappings, doc.Data)
}

func (rm *ReferenceMap) IsDefault() bool       { return rm.isDefault }
func (rm *ReferenceMap) ResourceName() string  { return rm.resourceName }
func (rm *ReferenceMap) Status() string        { return rm.status }
func (rm *ReferenceMap) Context() string       { return rm.context }
func (rm *ReferenceMap) SetContext(ctx string) { rm.context = ctx }

func (rm *ReferenceMap) Remap(className, ref string) string {
	return rm.RemapWithContext(rm.context, className, ref)
}

func (rm *ReferenceMap) RemapWithContext(context, className, ref string) string {
	if rm.isDefault {
		return ref
	}
	classMappings := rm.classMappings(context)
	refs, ok := classMappings[className]
	if !ok {
		return ref
	}
	if mapped, ok := refs[ref]; ok {
		return mapped
	}
	return ref
}

// classMappings picks the context-scoped mapping set when one exists for
// the given context, falling back to the default set.
func (rm *ReferenceMap) classMappings(context string) map[string]map[string]string {
	if context != "" {
		if scoped, ok := rm.data[context]; ok {
			return scoped
		}
	}
	return rm.mappings
}

// Contexts returns the names of the context-scoped mapping sets in the
// resource, in no particular order.
func (rm *ReferenceMap) Contexts() []string {
	out := make([]string, 0, len(rm.data))
	for name := range rm.data {
		out = append(out, name)
	}
	return out
}

// ClassNames returns the class scopes present in the mapping set
// selected by context.
func (rm *ReferenceMap) ClassNames(context string) []string {
	classMappings := rm.classMappings(context)
	out := make([]string, 0, len(classMappings))
	for name := range classMappings {
		out = append(out, name)
	}
	return out
}

// References returns the raw reference strings recorded for one class
// scope in the mapping set selected by context.
func (rm *ReferenceMap) References(context, className string) []string {
	refs := rm.classMappings(context)[className]
	out := make([]string, 0, len(refs))
	for ref := range refs {
		out = append(out, ref)
	}
	return out
}
