package layout

import "fmt"

// Location is a point on a track.
//
// A location is described by a section, an endpoint of that section, and a distance (the offset) from that endpoint along the section.
// The same point can be described in several ways:
// 3 from (j1, FACING) on a section of length 10 is also 7 from the other end,
// and a location at a junction (offset 0) lies on every section connected to the junction.
// Hence, compare locations using Equivalent or Key, not ==.
type Location struct {
	section  Section
	endpoint JunctionEndpoint
	offset   int
}

// LocationKey is a canonical form of a Location.
// Equivalent locations have the same LocationKey, as long as their sections do not share an endpoint without being equal
// (which is always the case for sections in the same Track).
type LocationKey struct {
	// Junction is set iff the location is at a junction. The other fields are zero then.
	Junction Junction
	Section  SectionKey
	// Offset from Section.A.
	Offset int
}

func NewLocation(section Section, endpoint JunctionEndpoint, offset int) (Location, error) {
	if section.IsZero() {
		return Location{}, fmt.Errorf("location section: %w", ErrAbsent)
	}
	if endpoint.IsZero() {
		return Location{}, fmt.Errorf("location endpoint: %w", ErrAbsent)
	}
	if offset < 0 || offset >= section.length {
		return Location{}, fmt.Errorf("offset %d not in [0, %d): %w", offset, section.length, ErrInvalidArgument)
	}
	if !section.HasEndpoint(endpoint) {
		return Location{}, fmt.Errorf("%s is not an endpoint of section %s: %w", endpoint, section, ErrInvalidArgument)
	}
	return Location{section: section, endpoint: endpoint, offset: offset}, nil
}

// MustLocation is NewLocation, but it panics on error.
func MustLocation(section Section, endpoint JunctionEndpoint, offset int) Location {
	l, err := NewLocation(section, endpoint, offset)
	if err != nil {
		panic(fmt.Sprintf("MustLocation: %s", err))
	}
	return l
}

// Section returns the section this location was made with.
// A location at a junction lies on other sections too; see OnSection.
func (l Location) Section() Section { return l.section }

func (l Location) Endpoint() JunctionEndpoint { return l.endpoint }

func (l Location) Offset() int { return l.offset }

func (l Location) AtJunction() bool { return l.offset == 0 }

// OnSection reports whether the location lies on s.
func (l Location) OnSection(s Section) bool {
	if l.section.Equal(s) {
		return true
	}
	if l.AtJunction() {
		j := l.endpoint.junction
		return s.a.junction == j || s.b.junction == j
	}
	return false
}

// Equivalent reports whether l and o are the same point, which is when:
//   - both are at the same junction (on any branch), or
//   - they have the same endpoint and the same offset, or
//   - they are on the same section, measured from opposite ends, and their offsets add up to the section's length.
func (l Location) Equivalent(o Location) bool {
	if l.AtJunction() && o.AtJunction() {
		return l.endpoint.junction == o.endpoint.junction
	}
	if l.endpoint == o.endpoint && l.offset == o.offset {
		return true
	}
	return l.endpoint != o.endpoint &&
		l.section.Equal(o.section) &&
		l.offset+o.offset == l.section.length
}

func (l Location) Key() LocationKey {
	if l.AtJunction() {
		return LocationKey{Junction: l.endpoint.junction}
	}
	sk := l.section.Key()
	offset := l.offset
	if l.endpoint != sk.A {
		offset = sk.Length - l.offset
	}
	return LocationKey{Section: sk, Offset: offset}
}

func (l Location) String() string {
	if l.AtJunction() {
		return l.endpoint.junction.String()
	}
	return fmt.Sprintf("Distance %d from %s along the %s branch", l.offset, l.endpoint.junction, l.endpoint.branch)
}

// CheckInvariant returns an error if l is not a valid location.
// This is intended for testing.
func (l Location) CheckInvariant() error {
	if err := l.section.CheckInvariant(); err != nil {
		return fmt.Errorf("section: %w", err)
	}
	if !l.section.HasEndpoint(l.endpoint) {
		return fmt.Errorf("endpoint %s not on section %s", l.endpoint, l.section)
	}
	if l.offset < 0 || l.offset >= l.section.length {
		return fmt.Errorf("offset %d not in [0, %d)", l.offset, l.section.length)
	}
	return nil
}
