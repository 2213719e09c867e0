package remapper

import (
	"strings"
	"testing"

	"refract/internal/mapping"
)

func tableWith(lines string) *mapping.Table {
	table, err := mapping.ParseSRG(strings.NewReader(lines))
	if err != nil {
		panic(err)
	}
	return table
}

func TestChainEmpty(t *testing.T) {
	var chain Chain
	if got := chain.MapType("com/example/Foo"); got != "com/example/Foo" {
		t.Errorf("empty chain MapType = %q", got)
	}
	if got := chain.MapMethodName("o", "m", "()V"); got != "m" {
		t.Errorf("empty chain MapMethodName = %q", got)
	}
	if got := chain.MapDesc("I"); got != "I" {
		t.Errorf("empty chain MapDesc = %q", got)
	}
}

func TestChainComposesEnvironmentHops(t *testing.T) {
	// First hop: dev -> intermediate. Second hop: intermediate -> runtime.
	// The second stage only knows intermediate names, so it can resolve
	// the method only if the chain threads owner and descriptor forward.
	hop1 := NewLookupRemapper("hop1", tableWith(`
CL: com/example/Foo srg/Foo
MD: com/example/Foo/doThing (I)V srg/Foo/func_1 (I)V
`))
	hop2 := NewLookupRemapper("hop2", tableWith(`
CL: srg/Foo a/b
MD: srg/Foo/func_1 (I)V a/b/m (I)V
`))
	chain := Chain{hop1, hop2}

	if got := chain.MapType("com/example/Foo"); got != "a/b" {
		t.Errorf("MapType across hops = %q, want %q", got, "a/b")
	}
	if got := chain.MapMethodName("com/example/Foo", "doThing", "(I)V"); got != "m" {
		t.Errorf("MapMethodName across hops = %q, want %q", got, "m")
	}
}

func TestChainFieldThreading(t *testing.T) {
	hop1 := NewLookupRemapper("hop1", tableWith(`
CL: com/example/Foo srg/Foo
FD: com/example/Foo/level srg/Foo/field_1
`))
	hop2 := NewLookupRemapper("hop2", tableWith(`
CL: srg/Foo a/b
FD: srg/Foo/field_1 a/b/f
`))
	chain := Chain{hop1, hop2}

	if got := chain.MapFieldName("com/example/Foo", "level", "I"); got != "f" {
		t.Errorf("MapFieldName across hops = %q, want %q", got, "f")
	}

	// Absent owner and descriptor must stay absent through every stage.
	if got := chain.MapFieldName("", "unknown", ""); got != "unknown" {
		t.Errorf("MapFieldName with absent parts = %q", got)
	}
}

func TestChainIdentityFallback(t *testing.T) {
	chain := Chain{NewLookupRemapper("only", tableWith("CL: com/example/Foo a/b"))}

	if got := chain.MapType("com/example/Unknown"); got != "com/example/Unknown" {
		t.Errorf("unknown type must fall back to identity, got %q", got)
	}
	if got := chain.MapMethodName("com/example/Foo", "unknown", "()V"); got != "unknown" {
		t.Errorf("unknown method must fall back to identity, got %q", got)
	}
}
