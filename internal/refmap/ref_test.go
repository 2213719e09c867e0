package refmap

import "testing"

func TestParseMemberRef(t *testing.T) {
	cases := []struct {
		text string
		want MemberRef
	}{
		{"Lcom/example/Foo;", MemberRef{Owner: "com/example/Foo"}},
		{"com/example/Foo;doThing(Lcom/example/A;I)Lcom/example/B;", MemberRef{
			Owner: "com/example/Foo",
			Name:  "doThing",
			Desc:  "(Lcom/example/A;I)Lcom/example/B;",
		}},
		{"com/example/Foo;field:Lcom/example/B;", MemberRef{
			Owner: "com/example/Foo",
			Name:  "field",
			Desc:  "Lcom/example/B;",
		}},
		{"doThing()V", MemberRef{Name: "doThing", Desc: "()V"}},
		{"field:I", MemberRef{Name: "field", Desc: "I"}},
		{"com/example/Foo;member", MemberRef{Owner: "com/example/Foo", Name: "member"}},
		{"member", MemberRef{Name: "member"}},
		{"com/example/Foo;", MemberRef{Owner: "com/example/Foo"}},
		// Stray trailing separator: owner-only, not a member named ";".
		{"com/example/Foo;;", MemberRef{Owner: "com/example/Foo"}},
		// Whitespace is structural noise.
		{" doThing ( I ) V ", MemberRef{Name: "doThing", Desc: "(I)V"}},
	}

	for _, tc := range cases {
		got := ParseMemberRef(tc.text)
		if got != tc.want {
			t.Errorf("ParseMemberRef(%q) = %+v, want %+v", tc.text, got, tc.want)
		}
	}
}

func TestMemberRefRoundTrip(t *testing.T) {
	texts := []string{
		"Lcom/example/Foo;",
		"com/example/Foo;doThing(Lcom/example/A;I)Lcom/example/B;",
		"com/example/Foo;field:Lcom/example/B;",
		"doThing()V",
		"field:I",
		"com/example/Foo;member",
		"member",
		"com/example/Foo;",
	}

	for _, text := range texts {
		first := ParseMemberRef(text)
		second := ParseMemberRef(first.String())
		if first != second {
			t.Errorf("round-trip broken for %q: %+v -> %q -> %+v", text, first, first.String(), second)
		}
	}
}

func TestMemberRefString(t *testing.T) {
	cases := []struct {
		ref  MemberRef
		want string
	}{
		{MemberRef{Owner: "com/example/Foo", Name: "doThing", Desc: "(I)V"}, "com/example/Foo;doThing(I)V"},
		{MemberRef{Owner: "com/example/Foo", Name: "field", Desc: "I"}, "com/example/Foo;field:I"},
		{MemberRef{Owner: "com/example/Foo"}, "com/example/Foo;"},
		{MemberRef{Name: "member"}, "member"},
		{MemberRef{Name: "field", Desc: "I"}, "field:I"},
	}

	for _, tc := range cases {
		if got := tc.ref.String(); got != tc.want {
			t.Errorf("%+v.String() = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestMemberRefKind(t *testing.T) {
	if !ParseMemberRef("field:I").IsField() {
		t.Error("descriptor without parens should be a field")
	}
	if ParseMemberRef("doThing(I)V").IsField() {
		t.Error("descriptor with parens should be a method")
	}
	// No descriptor: kind is ambiguous, callers must check HasDesc.
	ref := ParseMemberRef("member")
	if ref.HasDesc() {
		t.Error("bare name should have no descriptor")
	}
	if !ref.IsField() {
		t.Error("kind-ambiguous reference defaults to field dispatch")
	}
}
