package remapper

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTableRemapperLookups(t *testing.T) {
	tr := NewLookupRemapper("test", tableWith(`
CL: com/example/Foo a/b
FD: com/example/Foo/level a/b/f_1
MD: com/example/Foo/doThing (I)V a/b/m_1 (I)V
`))

	if got := tr.MapType("com/example/Foo"); got != "a/b" {
		t.Errorf("MapType = %q", got)
	}
	if got := tr.MapFieldName("com/example/Foo", "level", "I"); got != "f_1" {
		t.Errorf("MapFieldName = %q", got)
	}
	if got := tr.MapMethodName("com/example/Foo", "doThing", "(I)V"); got != "m_1" {
		t.Errorf("MapMethodName = %q", got)
	}
	if got := tr.MapDesc("Lcom/example/Foo;"); got != "La/b;" {
		t.Errorf("MapDesc = %q", got)
	}
	if got := tr.MapDesc("[[Lcom/example/Foo;"); got != "[[La/b;" {
		t.Errorf("MapDesc array = %q", got)
	}
	if got := tr.MapDesc("I"); got != "I" {
		t.Errorf("MapDesc primitive = %q", got)
	}
}

func TestTableRemapperSourceStyleNames(t *testing.T) {
	tr := NewLookupRemapper("test", tableWith("CL: com/example/Foo a/b"))

	// Source-style names answer in source style; binary names in binary.
	if got := tr.MapType("com.example.Foo"); got != "a.b" {
		t.Errorf("dotted MapType = %q", got)
	}
	if got := tr.MapType("com/example/Foo"); got != "a/b" {
		t.Errorf("slashed MapType = %q", got)
	}
	if got := tr.MapType("com.example.Unknown"); got != "com.example.Unknown" {
		t.Errorf("unknown dotted MapType = %q", got)
	}
}

func TestFileRemapperLazyLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.srg")
	if err := os.WriteFile(path, []byte("CL: com/example/Foo a/b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := NewFileRemapper(path)

	// The file may vanish after the first lookup; the loaded table stays.
	if got := tr.MapType("com/example/Foo"); got != "a/b" {
		t.Errorf("MapType after lazy load = %q", got)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if got := tr.MapType("com/example/Foo"); got != "a/b" {
		t.Errorf("MapType after file removal = %q", got)
	}
}

func TestFileRemapperLoadFailure(t *testing.T) {
	tr := NewFileRemapper(filepath.Join(t.TempDir(), "absent.srg"))

	// Degrades to identity for its whole lifetime, no retry.
	if got := tr.MapType("com/example/Foo"); got != "com/example/Foo" {
		t.Errorf("MapType after failed load = %q", got)
	}
	if got := tr.MapFieldName("o", "n", "I"); got != "n" {
		t.Errorf("MapFieldName after failed load = %q", got)
	}
	if got := tr.MapDesc("Lcom/example/Foo;"); got != "Lcom/example/Foo;" {
		t.Errorf("MapDesc after failed load = %q", got)
	}
}
