package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/parser"
)

func openMemory(t *testing.T) *Store {
	s, err := Open(":memory:", buntdb.Never)
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoad(t *testing.T) {
	s := openMemory(t)
	y, err := parser.ParseTrack("9 (j1, FACING) (j2, NORMAL)\n4 (j1, NORMAL) (j1, REVERSE)")
	if err != nil {
		t.Fatal(err)
	}
	id := uuid.MustParse("2fe1cbb0-b584-45f5-96ec-a9bfd55b1e91")
	if err := s.Save(id, y); err != nil {
		t.Fatalf("Save: %s", err)
	}
	y2, err := s.Load(id)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if diff := cmp.Diff(y.String(), y2.String()); diff != "" {
		t.Fatalf("diff: %s", diff)
	}
	if _, err := s.Load(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s := openMemory(t)
	id := uuid.New()
	first := layout.MustSection(1, layout.MustEndpoint("A", layout.Normal), layout.MustEndpoint("B", layout.Normal))
	second := layout.MustSection(1, layout.MustEndpoint("A", layout.Normal), layout.MustEndpoint("C", layout.Facing))
	err := s.Update(id, false, func(y *layout.Track) error { return y.AddSection(first) })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Load(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update without create stored a track: %v", err)
	}
	err = s.Update(id, true, func(y *layout.Track) error { return y.AddSection(first) })
	if err != nil {
		t.Fatalf("Update: %s", err)
	}
	err = s.Update(id, false, func(y *layout.Track) error { return y.AddSection(second) })
	if !errors.Is(err, layout.ErrInvalidTrack) {
		t.Fatalf("expected ErrInvalidTrack, got %v", err)
	}
	y, err := s.Load(id)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if y.Len() != 1 || !y.Contains(first) {
		t.Fatalf("unexpected track:\n%s", y)
	}
}

func TestUnrepresentable(t *testing.T) {
	s := openMemory(t)
	id := uuid.New()
	x := layout.MustEndpoint("x", layout.Normal)

	empty := layout.NewTrack()
	if err := empty.AddSection(layout.MustSection(3, layout.MustEndpoint("", layout.Facing), x)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(id, empty); err != nil {
		t.Fatalf("Save with empty junction ID: %s", err)
	}
	y, err := s.Load(id)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if diff := cmp.Diff(empty.String(), y.String()); diff != "" {
		t.Fatalf("diff: %s", diff)
	}

	spaced := layout.NewTrack()
	if err := spaced.AddSection(layout.MustSection(3, layout.MustEndpoint("Central Station", layout.Facing), x)); err != nil {
		t.Fatal(err)
	}
	other := uuid.New()
	if err := s.Save(other, spaced); !errors.Is(err, ErrUnrepresentable) || !errors.Is(err, layout.ErrInvalidArgument) {
		t.Fatalf("expected ErrUnrepresentable, got %v", err)
	}
	if _, err := s.Load(other); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rejected track was stored: %v", err)
	}
	err = s.Update(id, false, func(y *layout.Track) error {
		return y.AddSection(layout.MustSection(5, layout.MustEndpoint("a(b)", layout.Facing), layout.MustEndpoint("c", layout.Normal)))
	})
	if !errors.Is(err, ErrUnrepresentable) {
		t.Fatalf("expected ErrUnrepresentable, got %v", err)
	}
	y, err = s.Load(id)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if y.Len() != 1 {
		t.Fatalf("rejected update was stored:\n%s", y)
	}
}

func TestListDelete(t *testing.T) {
	s := openMemory(t)
	ids := []uuid.UUID{
		uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		uuid.MustParse("00000000-0000-0000-0000-000000000002"),
	}
	for _, id := range ids {
		if err := s.Save(id, layout.NewTrack()); err != nil {
			t.Fatalf("Save: %s", err)
		}
	}
	got, err := s.List()
	if err != nil {
		t.Fatalf("List: %s", err)
	}
	if diff := cmp.Diff(ids, got); diff != "" {
		t.Fatalf("List diff: %s", diff)
	}
	if err := s.Delete(ids[0]); err != nil {
		t.Fatalf("Delete: %s", err)
	}
	if err := s.Delete(ids[0]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err = s.List()
	if err != nil {
		t.Fatalf("List: %s", err)
	}
	if diff := cmp.Diff(ids[1:], got); diff != "" {
		t.Fatalf("List diff: %s", diff)
	}
}

func TestParseSyncPolicy(t *testing.T) {
	for s, expected := range map[string]buntdb.SyncPolicy{
		"always":       buntdb.Always,
		"every-second": buntdb.EverySecond,
		"":             buntdb.EverySecond,
		"never":        buntdb.Never,
	} {
		got, err := ParseSyncPolicy(s)
		if err != nil {
			t.Fatalf("ParseSyncPolicy(%q): %s", s, err)
		}
		if got != expected {
			t.Fatalf("ParseSyncPolicy(%q) = %v", s, got)
		}
	}
	if _, err := ParseSyncPolicy("sometimes"); err == nil {
		t.Fatal("expected error")
	}
}
