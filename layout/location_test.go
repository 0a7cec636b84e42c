package layout

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewLocation(t *testing.T) {
	s := MustSection(9, j1Facing, j2Normal)
	type setup struct {
		name     string
		section  Section
		endpoint JunctionEndpoint
		offset   int
		err      error
	}
	setups := []setup{
		{"junction", s, j1Facing, 0, nil},
		{"middle", s, j2Normal, 4, nil},
		{"last", s, j1Facing, 8, nil},
		{"negative", s, j1Facing, -1, ErrInvalidArgument},
		{"length", s, j1Facing, 9, ErrInvalidArgument},
		{"foreign endpoint", s, j1Normal, 1, ErrInvalidArgument},
		{"absent section", Section{}, j1Facing, 1, ErrAbsent},
		{"absent endpoint", s, JunctionEndpoint{}, 1, ErrAbsent},
	}
	for _, s := range setups {
		t.Run(s.name, func(t *testing.T) {
			l, err := NewLocation(s.section, s.endpoint, s.offset)
			if !errors.Is(err, s.err) {
				t.Fatalf("expected %v, got %v", s.err, err)
			}
			if err == nil {
				if err := l.CheckInvariant(); err != nil {
					t.Fatalf("CheckInvariant: %s", err)
				}
			}
		})
	}
}

func TestLocationScenario(t *testing.T) {
	s := MustSection(9, j1Facing, j2Normal)
	l := MustLocation(s, j1Facing, 3)
	if got, expected := l.String(), "Distance 3 from j1 along the FACING branch"; got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
	l2 := MustLocation(s, j2Normal, 6)
	if !l.Equivalent(l2) || !l2.Equivalent(l) {
		t.Fatalf("%s and %s must be equivalent", l, l2)
	}
	if l.Key() != l2.Key() {
		t.Fatalf("keys differ: %#v %#v", l.Key(), l2.Key())
	}
	if got := MustLocation(s, j2Normal, 0).String(); got != "j2" {
		t.Fatalf("expected j2, got %q", got)
	}
}

func TestLocationJunctionCollapse(t *testing.T) {
	sections := []Section{
		MustSection(9, j1Facing, j2Normal),
		MustSection(3, j1Normal, j3Reverse),
		MustSection(5, j1Reverse, j2Facing),
		MustSection(5, j2Facing, j1Reverse),
		MustSection(7, j1Facing, j1Reverse),
	}
	var ls []Location
	for _, s := range sections {
		for _, e := range []JunctionEndpoint{s.EndpointA(), s.EndpointB()} {
			if e.Junction() == NewJunction("j1") {
				ls = append(ls, MustLocation(s, e, 0))
			}
		}
	}
	for _, a := range ls {
		if !a.AtJunction() {
			t.Fatalf("%#v not at junction", a)
		}
		for _, b := range ls {
			if !a.Equivalent(b) {
				t.Fatalf("%#v and %#v must be equivalent", a, b)
			}
			if a.Key() != b.Key() {
				t.Fatalf("keys differ: %#v %#v", a.Key(), b.Key())
			}
		}
	}
	other := MustLocation(sections[0], j2Normal, 0)
	if other.Equivalent(ls[0]) {
		t.Fatalf("%s and %s are different junctions", other, ls[0])
	}
}

func TestLocationOffsetSum(t *testing.T) {
	for _, s := range []Section{
		MustSection(9, j1Facing, j2Normal),
		MustSection(2, j2Normal, j1Facing),
		MustSection(10, j1Facing, j1Normal),
	} {
		a, b := s.EndpointA(), s.EndpointB()
		for k := 1; k < s.Length(); k++ {
			t.Run(fmt.Sprintf("%s/%d", s, k), func(t *testing.T) {
				la := MustLocation(s, a, k)
				lb := MustLocation(s, b, s.Length()-k)
				if !la.Equivalent(lb) || !lb.Equivalent(la) {
					t.Fatalf("%s and %s must be equivalent", la, lb)
				}
				if la.Key() != lb.Key() {
					t.Fatalf("keys differ: %#v %#v", la.Key(), lb.Key())
				}
				if !la.Equivalent(la) {
					t.Fatal("not reflexive")
				}
			})
		}
	}
}

func TestLocationNonEquivalence(t *testing.T) {
	s := MustSection(9, j1Facing, j2Normal)
	s2 := MustSection(9, j1Normal, j3Reverse)
	type setup struct {
		name string
		a, b Location
	}
	setups := []setup{
		{"same endpoint different offset", MustLocation(s, j1Facing, 3), MustLocation(s, j1Facing, 4)},
		{"opposite ends wrong sum", MustLocation(s, j1Facing, 3), MustLocation(s, j2Normal, 5)},
		{"opposite ends same offset", MustLocation(s, j1Facing, 3), MustLocation(s, j2Normal, 3)},
		{"junction and middle", MustLocation(s, j1Facing, 0), MustLocation(s, j1Facing, 1)},
		{"different sections same junction", MustLocation(s, j1Facing, 3), MustLocation(s2, j1Normal, 3)},
		{"different sections sum", MustLocation(s, j1Facing, 3), MustLocation(s2, j3Reverse, 6)},
	}
	for _, s := range setups {
		t.Run(s.name, func(t *testing.T) {
			if s.a.Equivalent(s.b) || s.b.Equivalent(s.a) {
				t.Fatalf("%s and %s must not be equivalent", s.a, s.b)
			}
		})
	}
}

func TestLocationSameEndpointDifferentSection(t *testing.T) {
	// Equivalent through the shared endpoint, even though the sections differ.
	a := MustLocation(MustSection(9, j1Facing, j2Normal), j1Facing, 3)
	b := MustLocation(MustSection(5, j1Facing, j3Reverse), j1Facing, 3)
	if !a.Equivalent(b) {
		t.Fatalf("%s and %s must be equivalent", a, b)
	}
	// Keys are only canonical within a Track, where these two sections cannot coexist.
	if a.Key() == b.Key() {
		t.Fatalf("keys of different sections are equal: %#v", a.Key())
	}
	y := NewTrack()
	if err := y.AddSections(a.Section(), b.Section()); !errors.Is(err, ErrInvalidTrack) {
		t.Fatalf("expected ErrInvalidTrack, got %v", err)
	}
}

func TestOnSection(t *testing.T) {
	s := MustSection(9, j1Facing, j2Normal)
	touching := MustSection(4, j1Normal, j3Reverse)
	far := MustSection(4, j2Facing, j3Reverse)
	atJ1 := MustLocation(s, j1Facing, 0)
	middle := MustLocation(s, j1Facing, 4)
	type setup struct {
		name     string
		l        Location
		s        Section
		expected bool
	}
	setups := []setup{
		{"own section", middle, s, true},
		{"own section swapped", middle, MustSection(9, j2Normal, j1Facing), true},
		{"middle elsewhere", middle, touching, false},
		{"junction on touching", atJ1, touching, true},
		{"junction on far", atJ1, far, false},
	}
	for _, s := range setups {
		t.Run(s.name, func(t *testing.T) {
			if got := s.l.OnSection(s.s); got != s.expected {
				t.Fatalf("expected %t, got %t", s.expected, got)
			}
		})
	}
}

func TestLocationKeyAsMapKey(t *testing.T) {
	s := MustSection(9, j1Facing, j2Normal)
	seen := map[LocationKey]Location{}
	for k := 0; k < s.Length(); k++ {
		for _, e := range []JunctionEndpoint{j1Facing, j2Normal} {
			l := MustLocation(s, e, k)
			seen[l.Key()] = l
		}
	}
	// 0..8 from j1, plus j2 itself
	if len(seen) != 10 {
		t.Fatalf("expected 10 distinct points, got %d", len(seen))
	}
}
