package remapper

import (
	"log/slog"
	"strings"
	"sync"

	"refract/internal/mapping"
	"refract/internal/shared/observability"
)

// Lookup is the keyed query surface a TableRemapper needs from its
// backing mapping set. Both the in-memory mapping.Table and the sqlite
// mapstore satisfy it.
type Lookup interface {
	TypeName(name string) (string, bool)
	Field(owner, name string) (mapping.Member, bool)
	Method(owner, name, desc string) (mapping.Member, bool)
}

// TableRemapper is a Remapper backed by one mapping table. The table is
// loaded lazily on first use; a failed load is logged once and the
// remapper degrades to identity for its lifetime, never retrying.
type TableRemapper struct {
	source   string
	loadOnce sync.Once
	load     func() (Lookup, error)
	table    Lookup
}

// NewFileRemapper returns a remapper over the SRG table at path,
// deferring the read until the first lookup.
func NewFileRemapper(path string) *TableRemapper {
	return &TableRemapper{
		source: path,
		load: func() (Lookup, error) {
			return mapping.LoadSRGFile(path)
		},
	}
}

// NewLookupRemapper returns a remapper over an already-open mapping
// source such as a sqlite store.
func NewLookupRemapper(source string, table Lookup) *TableRemapper {
	return &TableRemapper{source: source, table: table}
}

// Source returns the path or name of the backing mapping set.
func (tr *TableRemapper) Source() string { return tr.source }

func (tr *TableRemapper) lookup() Lookup {
	tr.loadOnce.Do(func() {
		if tr.table != nil || tr.load == nil {
			return
		}
		timer := observability.StartTableLoadTimer()
		table, err := tr.load()
		timer.ObserveDuration()
		if err != nil {
			slog.Warn("mapping table unavailable, remapper degraded to identity", "source", tr.source, "error", err)
			return
		}
		tr.table = table
	})
	return tr.table
}

func (tr *TableRemapper) MapType(name string) string {
	table := tr.lookup()
	if table == nil || name == "" {
		return name
	}
	// Tables are keyed by binary names; accept source-style names and
	// answer in kind.
	dotted := strings.ContainsRune(name, '.')
	key := name
	if dotted {
		key = strings.ReplaceAll(name, ".", "/")
	}
	mapped, ok := table.TypeName(key)
	if !ok {
		return name
	}
	if dotted {
		return strings.ReplaceAll(mapped, "/", ".")
	}
	return mapped
}

func (tr *TableRemapper) MapFieldName(owner, name, desc string) string {
	table := tr.lookup()
	if table == nil || name == "" {
		return name
	}
	if mapped, ok := table.Field(owner, name); ok {
		return mapped.Name
	}
	return name
}

func (tr *TableRemapper) MapMethodName(owner, name, desc string) string {
	table := tr.lookup()
	if table == nil || name == "" {
		return name
	}
	if mapped, ok := table.Method(owner, name, desc); ok {
		return mapped.Name
	}
	return name
}

func (tr *TableRemapper) MapDesc(desc string) string {
	table := tr.lookup()
	if table == nil {
		return desc
	}
	return mapTypeDesc(table, desc)
}

// mapTypeDesc remaps one type descriptor: array prefixes are preserved,
// object types are remapped through the type table, everything else
// (primitives, undecodable text) passes through.
func mapTypeDesc(table Lookup, desc string) string {
	switch {
	case strings.HasPrefix(desc, "["):
		return "[" + mapTypeDesc(table, desc[1:])
	case strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";"):
		inner := desc[1 : len(desc)-1]
		if mapped, ok := table.TypeName(inner); ok {
			return "L" + mapped + ";"
		}
		return desc
	default:
		return desc
	}
}
