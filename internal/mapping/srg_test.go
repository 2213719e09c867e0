package mapping

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	derrors "refract/internal/core/errors"
)

const sampleSRG = `
# development -> runtime mappings
PK: com/example com/example
CL: com/example/Foo a/b
CL: com/example/Bar a/c

FD: com/example/Foo/level a/b/f_1
MD: com/example/Foo/doThing (Lcom/example/Bar;I)V a/b/m_1 (La/c;I)V

XX: some future record kind
`

func TestParseSRG(t *testing.T) {
	table, err := ParseSRG(strings.NewReader(sampleSRG))
	if err != nil {
		t.Fatalf("ParseSRG: %v", err)
	}

	if table.TypeCount() != 2 || table.FieldCount() != 1 || table.MethodCount() != 1 {
		t.Fatalf("counts = %d/%d/%d", table.TypeCount(), table.FieldCount(), table.MethodCount())
	}

	if to, ok := table.TypeName("com/example/Foo"); !ok || to != "a/b" {
		t.Errorf("TypeName = %q, %v", to, ok)
	}
	if _, ok := table.TypeName("com/example/Missing"); ok {
		t.Error("unexpected hit for unmapped type")
	}

	field, ok := table.Field("com/example/Foo", "level")
	if !ok || field.Owner != "a/b" || field.Name != "f_1" {
		t.Errorf("Field = %+v, %v", field, ok)
	}

	method, ok := table.Method("com/example/Foo", "doThing", "(Lcom/example/Bar;I)V")
	if !ok || method.Owner != "a/b" || method.Name != "m_1" || method.Desc != "(La/c;I)V" {
		t.Errorf("Method = %+v, %v", method, ok)
	}

	// Method identity includes the descriptor.
	if _, ok := table.Method("com/example/Foo", "doThing", "()V"); ok {
		t.Error("descriptor must be part of the method key")
	}
}

func TestParseSRGMalformed(t *testing.T) {
	cases := []string{
		"CL: onlyone",
		"FD: com/example/Foo/level",
		"MD: com/example/Foo/doThing (I)V a/b/m_1",
		"FD: noslash a/b/f",
	}
	for _, line := range cases {
		if _, err := ParseSRG(strings.NewReader(line)); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

func TestParseSRGIgnoresNoise(t *testing.T) {
	table, err := ParseSRG(strings.NewReader("\n\n# comment only\nnot a record\n"))
	if err != nil {
		t.Fatalf("ParseSRG: %v", err)
	}
	if table.TypeCount() != 0 {
		t.Errorf("expected empty table, got %d types", table.TypeCount())
	}
}

func TestLoadSRGFileMissing(t *testing.T) {
	_, err := LoadSRGFile("/nonexistent/path.srg")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !derrors.IsCode(err, derrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND code, got %v", err)
	}
}

func TestLoadSRGFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.srg")
	if err := os.WriteFile(path, []byte("CL: onlyone\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadSRGFile(path)
	if err == nil {
		t.Fatal("expected error for malformed file")
	}
	if !derrors.IsCode(err, derrors.CodeParseError) {
		t.Errorf("expected PARSE_ERROR code, got %v", err)
	}
}
