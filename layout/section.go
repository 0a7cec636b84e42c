package layout

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Section is a piece of track of positive length between two distinct endpoints.
// Both endpoints may be on the same junction (on different branches), making the section a loop.
//
// Two sections are equal if they have the same length and the same endpoints, in either order.
// Use Equal or compare Key values; the == operator compares endpoint order as well.
type Section struct {
	// Length of the section in metres.
	length int
	a      JunctionEndpoint
	b      JunctionEndpoint
}

// SectionKey is a canonical form of a Section that can be compared with == and used as a map key.
// A always sorts before B.
type SectionKey struct {
	Length int
	A      JunctionEndpoint
	B      JunctionEndpoint
}

func (k SectionKey) String() string {
	return fmt.Sprintf("%d %s %s", k.Length, k.A, k.B)
}

func NewSection(length int, a, b JunctionEndpoint) (Section, error) {
	if a.IsZero() || b.IsZero() {
		return Section{}, fmt.Errorf("section endpoints: %w", ErrAbsent)
	}
	if length <= 0 {
		return Section{}, fmt.Errorf("section length %d must be positive: %w", length, ErrInvalidArgument)
	}
	if a == b {
		return Section{}, fmt.Errorf("section endpoints are both %s: %w", a, ErrInvalidArgument)
	}
	return Section{length: length, a: a, b: b}, nil
}

// MustSection is NewSection, but it panics on error.
func MustSection(length int, a, b JunctionEndpoint) Section {
	s, err := NewSection(length, a, b)
	if err != nil {
		panic(fmt.Sprintf("MustSection: %s", err))
	}
	return s
}

func (s Section) Length() int { return s.length }

// EndpointA returns the first endpoint given to NewSection.
func (s Section) EndpointA() JunctionEndpoint { return s.a }

// EndpointB returns the second endpoint given to NewSection.
func (s Section) EndpointB() JunctionEndpoint { return s.b }

func (s Section) IsZero() bool { return s == Section{} }

// IsLoop reports whether both ends of the section are on the same junction.
func (s Section) IsLoop() bool { return s.a.junction == s.b.junction }

func (s Section) Endpoints() mapset.Set[JunctionEndpoint] {
	return mapset.NewThreadUnsafeSet(s.a, s.b)
}

// Junctions returns the junctions this section touches (one for a loop, two otherwise).
func (s Section) Junctions() mapset.Set[Junction] {
	return mapset.NewThreadUnsafeSet(s.a.junction, s.b.junction)
}

func (s Section) HasEndpoint(e JunctionEndpoint) bool {
	return e == s.a || e == s.b
}

// OtherEndpoint returns the endpoint at the opposite end of the section to e.
func (s Section) OtherEndpoint(e JunctionEndpoint) (JunctionEndpoint, error) {
	switch e {
	case s.a:
		return s.b, nil
	case s.b:
		return s.a, nil
	}
	return JunctionEndpoint{}, fmt.Errorf("%s is not an endpoint of section %s: %w", e, s, ErrInvalidArgument)
}

func (s Section) Key() SectionKey {
	if s.b.less(s.a) {
		return SectionKey{Length: s.length, A: s.b, B: s.a}
	}
	return SectionKey{Length: s.length, A: s.a, B: s.b}
}

func (s Section) Equal(o Section) bool {
	if s.length != o.length {
		return false
	}
	return (s.a == o.a && s.b == o.b) || (s.a == o.b && s.b == o.a)
}

func (s Section) String() string {
	return fmt.Sprintf("%d %s %s", s.length, s.a, s.b)
}

// CheckInvariant returns an error if s is not a valid section.
// This is intended for testing.
func (s Section) CheckInvariant() error {
	if s.length <= 0 {
		return fmt.Errorf("length %d is not positive", s.length)
	}
	if s.a.IsZero() || s.b.IsZero() {
		return fmt.Errorf("endpoint missing: %w", ErrAbsent)
	}
	if !s.a.branch.Valid() || !s.b.branch.Valid() {
		return fmt.Errorf("endpoint branch is invalid: %s %s", s.a.branch, s.b.branch)
	}
	if s.a == s.b {
		return fmt.Errorf("endpoints are both %s", s.a)
	}
	return nil
}
