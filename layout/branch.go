package layout

import "fmt"

// Branch is the type of connection between a junction and a section.
// The zero value is not a valid branch and stands for an absent one.
type Branch int

const (
	Facing Branch = iota + 1
	Normal
	Reverse
)

var branchNames = [...]string{
	Facing:  "FACING",
	Normal:  "NORMAL",
	Reverse: "REVERSE",
}

// Branches lists every valid branch.
var Branches = []Branch{Facing, Normal, Reverse}

func (b Branch) Valid() bool {
	return b >= Facing && b <= Reverse
}

func (b Branch) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Branch(%d)", int(b))
	}
	return branchNames[b]
}

// ParseBranch is the inverse of Branch.String.
func ParseBranch(s string) (Branch, error) {
	for _, b := range Branches {
		if branchNames[b] == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown branch %q: %w", s, ErrInvalidArgument)
}
