// Package layout models the static topology of a railway track: junctions, the sections between them, and locations on them.
package layout

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/maps"
)

// Track is a set of sections.
// A junction is on the track iff it is an endpoint of one of the track's sections.
// No two sections of a track share an endpoint, i.e. a junction has at most one section per branch.
//
// Track is safe for concurrent use.
type Track struct {
	lock     sync.RWMutex
	sections map[SectionKey]Section
	// occupied maps each endpoint in use to the section using it.
	occupied map[JunctionEndpoint]SectionKey
}

func NewTrack() *Track {
	return &Track{
		sections: map[SectionKey]Section{},
		occupied: map[JunctionEndpoint]SectionKey{},
	}
}

// AddSection adds s to the track.
// If the track already contains an equal section, it does nothing.
// If one of the endpoints of s is already used by a different section, it returns an *InvalidTrackError and the track is not modified.
func (t *Track) AddSection(s Section) error {
	if s.IsZero() {
		return fmt.Errorf("add section: %w", ErrAbsent)
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	key := s.Key()
	if _, ok := t.sections[key]; ok {
		return nil
	}
	if err := t.checkFree(s, nil); err != nil {
		return err
	}
	t.insert(key, s)
	return nil
}

// AddSections adds all of ss, or none of them if any would fail with AddSection.
// Sections in ss are also checked against each other.
func (t *Track) AddSections(ss ...Section) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	staged := map[JunctionEndpoint]Section{}
	pending := map[SectionKey]Section{}
	order := make([]SectionKey, 0, len(ss))
	for i, s := range ss {
		if s.IsZero() {
			return fmt.Errorf("section %d: %w", i, ErrAbsent)
		}
		key := s.Key()
		if _, ok := t.sections[key]; ok {
			continue
		}
		if _, ok := pending[key]; ok {
			continue
		}
		if err := t.checkFree(s, staged); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		staged[s.a] = s
		staged[s.b] = s
		pending[key] = s
		order = append(order, key)
	}
	for _, key := range order {
		t.insert(key, pending[key])
	}
	return nil
}

// checkFree returns an error if an endpoint of s is already in use by the track or by staged.
// lock must be taken!
func (t *Track) checkFree(s Section, staged map[JunctionEndpoint]Section) error {
	for _, e := range [2]JunctionEndpoint{s.a, s.b} {
		if key, ok := t.occupied[e]; ok {
			return &InvalidTrackError{Section: s, Existing: t.sections[key], Endpoint: e}
		}
		if other, ok := staged[e]; ok {
			return &InvalidTrackError{Section: s, Existing: other, Endpoint: e}
		}
	}
	return nil
}

// lock must be taken!
func (t *Track) insert(key SectionKey, s Section) {
	t.sections[key] = s
	t.occupied[s.a] = key
	t.occupied[s.b] = key
}

// RemoveSection removes the section equal to s from the track, if there is one.
func (t *Track) RemoveSection(s Section) {
	t.lock.Lock()
	defer t.lock.Unlock()
	key := s.Key()
	existing, ok := t.sections[key]
	if !ok {
		return
	}
	delete(t.sections, key)
	delete(t.occupied, existing.a)
	delete(t.occupied, existing.b)
}

func (t *Track) Contains(s Section) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	_, ok := t.sections[s.Key()]
	return ok
}

func (t *Track) Len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return len(t.sections)
}

// Junctions returns all junctions on the track.
func (t *Track) Junctions() mapset.Set[Junction] {
	t.lock.RLock()
	defer t.lock.RUnlock()
	js := mapset.NewThreadUnsafeSet[Junction]()
	for e := range t.occupied {
		js.Add(e.junction)
	}
	return js
}

// SectionAt returns the section connected to j on branch b.
func (t *Track) SectionAt(j Junction, b Branch) (Section, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	key, ok := t.occupied[JunctionEndpoint{junction: j, branch: b}]
	if !ok {
		return Section{}, false
	}
	return t.sections[key], true
}

// All returns the sections of the track in no particular order.
// Each iteration works on a snapshot taken when it starts, so the track may be modified while iterating.
func (t *Track) All() iter.Seq[Section] {
	return func(yield func(Section) bool) {
		t.lock.RLock()
		snapshot := maps.Values(t.sections)
		t.lock.RUnlock()
		for _, s := range snapshot {
			if !yield(s) {
				return
			}
		}
	}
}

// Sections returns the sections of the track, sorted by length and then endpoints.
func (t *Track) Sections() []Section {
	t.lock.RLock()
	ss := maps.Values(t.sections)
	t.lock.RUnlock()
	sort.Slice(ss, func(i, j int) bool {
		a, b := ss[i].Key(), ss[j].Key()
		if a.A != b.A {
			return a.A.less(b.A)
		}
		if a.B != b.B {
			return a.B.less(b.B)
		}
		return a.Length < b.Length
	})
	return ss
}

// String returns the sections of the track, one per line.
func (t *Track) String() string {
	ss := t.Sections()
	lines := make([]string, len(ss))
	for i, s := range ss {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}

// CheckInvariant returns an error if the track is inconsistent.
// This is intended for testing.
func (t *Track) CheckInvariant() error {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if len(t.occupied) != 2*len(t.sections) {
		return fmt.Errorf("%d endpoints in use by %d sections", len(t.occupied), len(t.sections))
	}
	for key, s := range t.sections {
		if err := s.CheckInvariant(); err != nil {
			return fmt.Errorf("section %s: %w", s, err)
		}
		if s.Key() != key {
			return fmt.Errorf("section %s stored under wrong key %#v", s, key)
		}
		for _, e := range [2]JunctionEndpoint{s.a, s.b} {
			if t.occupied[e] != key {
				return fmt.Errorf("endpoint %s of section %s is used by %#v", e, s, t.occupied[e])
			}
		}
	}
	return nil
}
