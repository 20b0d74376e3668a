package catalogue

import "testing"

func TestBuiltin_loadsAllSixSortedByID(t *testing.T) {
	cat, errs := New(Builtin()...)
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if cat.Len() != 6 {
		t.Fatalf("expected 6 cases, got %d", cat.Len())
	}
	prev := 0
	for _, c := range cat.Cases() {
		if c.ID <= prev {
			t.Fatalf("cases not strictly ascending by id: %d after %d", c.ID, prev)
		}
		prev = c.ID
	}
}

func TestNew_dropsMalformedCaseKeepsRest(t *testing.T) {
	cases := append(Builtin(), Case{ID: 0, Name: ""})
	cat, errs := New(cases...)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one validation error, got %d: %v", len(errs), errs)
	}
	if cat.Len() != 6 {
		t.Fatalf("expected the 6 well-formed cases to survive, got %d", cat.Len())
	}
}

func TestCase_validateRejectsEmptyBody(t *testing.T) {
	c := Case{ID: 99, Name: "empty"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected a case with no body commands to fail validation")
	}
}
