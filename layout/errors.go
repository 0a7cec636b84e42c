package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrAbsent is returned when a required value (junction, branch, endpoint, section) is the zero value.
	ErrAbsent = errors.New("required value absent")
	// ErrInvalidArgument is returned when a value is outside of its domain.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidTrack is returned by Track when adding a section would make two sections share an endpoint.
	ErrInvalidTrack = errors.New("invalid track")
)

// InvalidTrackError describes why a section could not be added to a Track.
type InvalidTrackError struct {
	// Section is the section that was rejected.
	Section Section
	// Existing is the section already connected to Endpoint.
	// For AddSections, this may be an earlier section of the same batch.
	Existing Section
	// Endpoint is the junction/branch pair both sections want.
	Endpoint JunctionEndpoint
}

func (e *InvalidTrackError) Error() string {
	return fmt.Sprintf("invalid track: %s is already used by section %s (adding %s)", e.Endpoint, e.Existing, e.Section)
}

func (e *InvalidTrackError) Is(target error) bool {
	return target == ErrInvalidTrack
}
