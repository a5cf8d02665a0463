package user

import "testing"

func TestParseSex(t *testing.T) {
	cases := map[string]Sex{
		"male":      SexMale,
		"Femenino":  SexFemale,
		" otro ":    SexOther,
		"OTHER":     SexOther,
		"masculino": SexMale,
	}
	for in, want := range cases {
		got, ok := ParseSex(in)
		if !ok || got != want {
			t.Errorf("ParseSex(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}

	for _, in := range []string{"", "x", "hombre"} {
		if _, ok := ParseSex(in); ok {
			t.Errorf("ParseSex(%q) should fail", in)
		}
	}
}

func TestNewProfile(t *testing.T) {
	p := NewProfile("  lucia ", "femenino", " Córdoba")
	want := Profile{Nickname: "lucia", Sex: SexFemale, Room: "Córdoba"}
	if p != want {
		t.Fatalf("NewProfile = %+v, want %+v", p, want)
	}
	if !p.Complete() {
		t.Error("profile should be complete")
	}

	for _, p := range []Profile{
		NewProfile("", "male", "Salta"),
		NewProfile("   ", "male", "Salta"),
		NewProfile("juan", "", "Salta"),
		NewProfile("juan", "unknown", "Salta"),
		NewProfile("juan", "male", ""),
	} {
		if p.Complete() {
			t.Errorf("%+v should be incomplete", p)
		}
	}
}
