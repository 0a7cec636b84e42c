// Package store keeps tracks in a buntdb database, keyed by UUID.
// Tracks are stored in their text form (see parser).
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/parser"
)

var ErrNotFound = errors.New("track not found")

// ErrUnrepresentable is returned when a track's text form does not parse back to the same track
// (e.g. a junction ID containing whitespace or one of "(),#").
var ErrUnrepresentable = fmt.Errorf("track text does not parse back: %w", layout.ErrInvalidArgument)

const keyPattern = "track:*:sections"

func key(id uuid.UUID) string {
	return fmt.Sprintf("track:%s:sections", id)
}

// ParseSyncPolicy converts a config value ("always", "every-second", or "never") to a buntdb.SyncPolicy.
func ParseSyncPolicy(s string) (buntdb.SyncPolicy, error) {
	switch s {
	case "always":
		return buntdb.Always, nil
	case "every-second", "":
		return buntdb.EverySecond, nil
	case "never":
		return buntdb.Never, nil
	default:
		return 0, fmt.Errorf("unknown sync policy %q", s)
	}
}

type Store struct {
	db *buntdb.DB
}

// Open opens the database at path (":memory:" for an in-memory database).
func Open(path string, policy buntdb.SyncPolicy) (*Store, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var conf buntdb.Config
	err = db.ReadConfig(&conf)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read config: %w", err)
	}
	conf.SyncPolicy = policy
	err = db.SetConfig(conf)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("set config: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// encode returns the text form of t, checking that it reads back as t.
func encode(t *layout.Track) (string, error) {
	text := t.String()
	t2, err := parser.ParseTrack(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnrepresentable, err)
	}
	if t2.Len() != t.Len() {
		return "", fmt.Errorf("%d sections read back as %d: %w", t.Len(), t2.Len(), ErrUnrepresentable)
	}
	for sec := range t.All() {
		if !t2.Contains(sec) {
			return "", fmt.Errorf("section %s: %w", sec, ErrUnrepresentable)
		}
	}
	return text, nil
}

func set(tx *buntdb.Tx, id uuid.UUID, t *layout.Track) error {
	text, err := encode(t)
	if err != nil {
		return fmt.Errorf("track %s: %w", id, err)
	}
	_, _, err = tx.Set(key(id), text, nil)
	return err
}

// Save stores t under id, replacing any track already stored there.
func (s *Store) Save(id uuid.UUID, t *layout.Track) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		return set(tx, id, t)
	})
}

func get(tx *buntdb.Tx, id uuid.UUID) (*layout.Track, error) {
	value, err := tx.Get(key(id))
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, fmt.Errorf("track %s: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	t, err := parser.ParseTrack(value)
	if err != nil {
		return nil, fmt.Errorf("track %s: stored data: %w", id, err)
	}
	return t, nil
}

func (s *Store) Load(id uuid.UUID) (t *layout.Track, err error) {
	err = s.db.View(func(tx *buntdb.Tx) error {
		t, err = get(tx, id)
		return err
	})
	return
}

// Update loads the track stored under id, calls fn with it, and stores it if fn returns nil.
// If there is no track under id, fn gets an empty track when create is set, and ErrNotFound is returned otherwise.
// Updates are serialised, so fn sees the latest track.
func (s *Store) Update(id uuid.UUID, create bool, fn func(t *layout.Track) error) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		t, err := get(tx, id)
		if errors.Is(err, ErrNotFound) && create {
			t = layout.NewTrack()
		} else if err != nil {
			return err
		}
		err = fn(t)
		if err != nil {
			return err
		}
		return set(tx, id, t)
	})
}

func (s *Store) Delete(id uuid.UUID) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key(id))
		if errors.Is(err, buntdb.ErrNotFound) {
			return fmt.Errorf("track %s: %w", id, ErrNotFound)
		}
		return err
	})
}

// List returns the IDs of all stored tracks, in ascending key order.
func (s *Store) List() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	var parseErr error
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(keyPattern, func(k, _ string) bool {
			raw := strings.TrimSuffix(strings.TrimPrefix(k, "track:"), ":sections")
			id, err := uuid.Parse(raw)
			if err != nil {
				parseErr = fmt.Errorf("key %s: %w", k, err)
				return false
			}
			ids = append(ids, id)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, parseErr
}
