package layout

import "fmt"

// Junction is a point where up to three sections meet (at most one per Branch).
// Two junctions are the same junction iff their IDs are equal.
// The zero value is the absent junction; use NewJunction to make one (an empty ID is allowed).
type Junction struct {
	id    string
	named bool
}

func NewJunction(id string) Junction {
	return Junction{id: id, named: true}
}

func (j Junction) ID() string { return j.id }

func (j Junction) IsZero() bool { return !j.named }

func (j Junction) String() string { return j.id }

// JunctionEndpoint is one connection point of a section: a junction, and the branch of the junction the section is connected to.
type JunctionEndpoint struct {
	junction Junction
	branch   Branch
}

// NewEndpoint returns an endpoint for junction j on branch b.
func NewEndpoint(j Junction, b Branch) (JunctionEndpoint, error) {
	if j.IsZero() {
		return JunctionEndpoint{}, fmt.Errorf("endpoint junction: %w", ErrAbsent)
	}
	if b == 0 {
		return JunctionEndpoint{}, fmt.Errorf("endpoint branch: %w", ErrAbsent)
	}
	if !b.Valid() {
		return JunctionEndpoint{}, fmt.Errorf("endpoint branch %s: %w", b, ErrInvalidArgument)
	}
	return JunctionEndpoint{junction: j, branch: b}, nil
}

// MustEndpoint is NewEndpoint, but with a junction ID, and it panics on error.
func MustEndpoint(id string, b Branch) JunctionEndpoint {
	e, err := NewEndpoint(NewJunction(id), b)
	if err != nil {
		panic(fmt.Sprintf("MustEndpoint(%q, %s): %s", id, b, err))
	}
	return e
}

func (e JunctionEndpoint) Junction() Junction { return e.junction }

func (e JunctionEndpoint) Branch() Branch { return e.branch }

func (e JunctionEndpoint) IsZero() bool { return e == JunctionEndpoint{} }

func (e JunctionEndpoint) String() string {
	return fmt.Sprintf("(%s, %s)", e.junction, e.branch)
}

// less orders endpoints by junction ID, then by branch.
func (e JunctionEndpoint) less(o JunctionEndpoint) bool {
	if e.junction.id != o.junction.id {
		return e.junction.id < o.junction.id
	}
	return e.branch < o.branch
}
