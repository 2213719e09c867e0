package refmap

import (
	"strings"
	"testing"
)

// stubChain is a call-counting remapper used to observe memoization.
type stubChain struct {
	calls   int
	types   map[string]string
	fields  map[string]string
	methods map[string]string
}

func (s *stubChain) MapType(name string) string {
	s.calls++
	if to, ok := s.types[name]; ok {
		return to
	}
	return name
}

func (s *stubChain) MapFieldName(owner, name, desc string) string {
	s.calls++
	if to, ok := s.fields[name]; ok {
		return to
	}
	return name
}

func (s *stubChain) MapMethodName(owner, name, desc string) string {
	s.calls++
	if to, ok := s.methods[name]; ok {
		return to
	}
	return name
}

func (s *stubChain) MapDesc(desc string) string {
	s.calls++
	if strings.HasPrefix(desc, "[") {
		return "[" + s.MapDesc(desc[1:])
	}
	if strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";") {
		if to, ok := s.types[desc[1:len(desc)-1]]; ok {
			return "L" + to + ";"
		}
	}
	return desc
}

// passthroughBase returns a non-default base mapper whose table never
// matches the references under test, so they reach the chain verbatim.
func passthroughBase() *ReferenceMap {
	return NewReferenceMap("test", map[string]map[string]string{
		"unrelated.Class": {"x": "y"},
	}, nil)
}

func TestNewRemappingMapperDefaultPassthrough(t *testing.T) {
	base := DefaultReferenceMap()
	chain := &stubChain{types: map[string]string{"a": "b"}}

	wrapped := NewRemappingMapper(base, chain)
	if wrapped != Mapper(base) {
		t.Fatal("default base must be returned unchanged, not decorated")
	}
	if got := wrapped.RemapWithContext("", "cls", "a"); got != "a" {
		t.Errorf("default mapper must be identity, got %q", got)
	}
	if chain.calls != 0 {
		t.Errorf("chain must never be consulted for a default mapper, got %d calls", chain.calls)
	}
}

func TestRemapEmptyReference(t *testing.T) {
	chain := &stubChain{}
	rm := NewRemappingMapper(passthroughBase(), chain)

	if got := rm.RemapWithContext("ctx", "cls", ""); got != "" {
		t.Errorf("empty reference must stay empty, got %q", got)
	}
	if chain.calls != 0 {
		t.Errorf("empty reference must not reach the chain, got %d calls", chain.calls)
	}
}

func TestRemapClassShape(t *testing.T) {
	chain := &stubChain{types: map[string]string{"com.example.Foo": "com.example.Bar"}}
	rm := NewRemappingMapper(passthroughBase(), chain)

	got := rm.RemapWithContext("", "cls", "Lcom/example/Foo;")
	if got != "Lcom/example/Bar;" {
		t.Errorf("class shape remap = %q, want %q", got, "Lcom/example/Bar;")
	}
}

func TestRemapMethodShape(t *testing.T) {
	chain := &stubChain{
		types: map[string]string{
			"com/example/A": "com/example/A2",
			"com/example/B": "com/example/B2",
		},
		methods: map[string]string{"doThing": "doThing2"},
	}
	rm := NewRemappingMapper(passthroughBase(), chain)

	got := rm.RemapWithContext("", "cls", "com/example/Foo;doThing(Lcom/example/A;I)Lcom/example/B;")
	want := "com/example/Foo;doThing2(Lcom/example/A2;I)Lcom/example/B2;"
	if got != want {
		t.Errorf("method shape remap = %q, want %q", got, want)
	}
}

func TestRemapMethodShapePreservesArity(t *testing.T) {
	chain := &stubChain{types: map[string]string{"com/example/A": "com/example/A2"}}
	rm := NewRemappingMapper(passthroughBase(), chain)

	got := rm.RemapWithContext("", "cls", "m([Lcom/example/A;Lcom/example/A;J)V")
	want := "m([Lcom/example/A2;Lcom/example/A2;J)V"
	if got != want {
		t.Errorf("arity/order not preserved: %q, want %q", got, want)
	}
}

func TestRemapFieldShape(t *testing.T) {
	chain := &stubChain{
		types:  map[string]string{"com/example/Foo": "com/example/Qux", "com/example/B": "com/example/B2"},
		fields: map[string]string{"level": "level2"},
	}
	rm := NewRemappingMapper(passthroughBase(), chain)

	got := rm.RemapWithContext("", "cls", "com/example/Foo;level:Lcom/example/B;")
	want := "com/example/Qux;level2:Lcom/example/B2;"
	if got != want {
		t.Errorf("field shape remap = %q, want %q", got, want)
	}

	// Unqualified field: absent owner and descriptor stay absent.
	if got := rm.RemapWithContext("", "cls", "level"); got != "level2" {
		t.Errorf("bare field remap = %q, want %q", got, "level2")
	}
}

func TestRemapOwnerOnlyMemberForm(t *testing.T) {
	chain := &stubChain{types: map[string]string{"com/example/Foo": "com/example/Bar"}}
	rm := NewRemappingMapper(passthroughBase(), chain)

	got := rm.RemapWithContext("", "cls", "com/example/Foo;;")
	if got != "com/example/Bar;" {
		t.Errorf("owner-only remap = %q, want %q", got, "com/example/Bar;")
	}
}

func TestRemapMemoization(t *testing.T) {
	chain := &stubChain{methods: map[string]string{"doThing": "doThing2"}}
	rm := NewRemappingMapper(passthroughBase(), chain)

	first := rm.RemapWithContext("", "cls", "com/example/Foo;doThing(I)V")
	after := chain.calls
	if after == 0 {
		t.Fatal("first remap must consult the chain")
	}

	second := rm.RemapWithContext("", "cls", "com/example/Foo;doThing(I)V")
	if first != second {
		t.Errorf("results differ: %q vs %q", first, second)
	}
	if chain.calls != after {
		t.Errorf("second remap must be a pure cache hit, chain calls went %d -> %d", after, chain.calls)
	}
}

func TestRemapCacheKeyedOnStableForm(t *testing.T) {
	// Two differently-spelled raw references canonicalize to the same
	// stable string in the base table and must share one cache entry.
	base := NewReferenceMap("test", map[string]map[string]string{
		"mixins.example.FooMixin": {
			"spellingA": "com/example/Foo;doThing(I)V",
			"spellingB": "com/example/Foo;doThing(I)V",
		},
	}, nil)
	chain := &stubChain{methods: map[string]string{"doThing": "doThing2"}}
	rm := NewRemappingMapper(base, chain).(*RemappingMapper)

	first := rm.RemapWithContext("", "mixins.example.FooMixin", "spellingA")
	after := chain.calls

	second := rm.RemapWithContext("", "mixins.example.FooMixin", "spellingB")
	if first != second {
		t.Errorf("spellings disagree: %q vs %q", first, second)
	}
	if chain.calls != after {
		t.Errorf("second spelling must hit the shared entry, chain calls went %d -> %d", after, chain.calls)
	}
	if rm.CacheLen() != 1 {
		t.Errorf("expected one shared cache entry, got %d", rm.CacheLen())
	}
}

func TestRemapDelegatesContextToBase(t *testing.T) {
	base := passthroughBase()
	rm := NewRemappingMapper(base, &stubChain{})

	rm.SetContext("alt")
	if base.Context() != "alt" {
		t.Errorf("context must live on the base mapper, got %q", base.Context())
	}
	if rm.Context() != "alt" {
		t.Errorf("decorator context = %q", rm.Context())
	}
}
