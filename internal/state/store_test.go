package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lezoo/keep/internal/resource"
)

func sample() *Data {
	return &Data{
		Categories: []resource.Category{{ID: 1, Name: "Perso", Color: "#ff0000"}},
		Notes:      []resource.Note{{ID: 5, Title: "T", Content: "C"}},
		Tasks:      []resource.Task{{ID: 2, Description: "d"}, {ID: 3, Description: "e"}},
	}
}

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(sample(), nil)

	snap := s.Snapshot()
	if !snap.HasData || len(snap.Tasks) != 2 || snap.Notes[0].ID != 5 {
		t.Fatalf("snapshot = %#v, want sample data", snap.Data)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	snap.Tasks[0].ID = 999
	snap2 := s.Snapshot()
	if snap2.Tasks[0].ID != 2 {
		t.Fatalf("Snapshot should clone tasks; got id %d want 2", snap2.Tasks[0].ID)
	}
}

func TestStore_UpdateErrorWithoutDataKeepsPrevious(t *testing.T) {
	var s Store

	s.Update(sample(), nil)
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if !reflect.DeepEqual(snap.Data, prev.Data) {
		t.Fatalf("data changed on error: got %#v want %#v", snap.Data, prev.Data)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_UpdateErrorWithDataReplaces(t *testing.T) {
	var s Store

	s.Update(sample(), nil)
	partial := sample()
	partial.Notes = nil
	s.Update(partial, errors.New("unable to load notes"))

	snap := s.Snapshot()
	if len(snap.Notes) != 0 || len(snap.Tasks) != 2 {
		t.Fatalf("snapshot = %#v, want notes cleared and tasks kept", snap.Data)
	}
	if snap.ConsecutiveFailures != 1 {
		t.Fatalf("ConsecutiveFailures = %d, want 1", snap.ConsecutiveFailures)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("fresh store = %d failures offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	for i, wantOffline := range []bool{false, true, true} {
		s.Update(nil, errors.New("fail"))
		snap = s.Snapshot()
		if snap.ConsecutiveFailures != i+1 {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i+1)
		}
		if snap.IsOffline() != wantOffline {
			t.Fatalf("IsOffline() = %v after %d failures, want %v", snap.IsOffline(), i+1, wantOffline)
		}
	}

	s.Update(sample(), nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: %d failures offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestStore_SetDataKeepsSyncBookkeeping(t *testing.T) {
	var s Store

	s.Update(nil, errors.New("offline"))
	before := s.Snapshot()

	s.SetData(*sample())
	snap := s.Snapshot()
	if !snap.HasData || len(snap.Tasks) != 2 {
		t.Fatalf("snapshot = %#v, want sample data", snap.Data)
	}
	if snap.ConsecutiveFailures != 1 || snap.LastError == nil || !snap.LastUpdated.Equal(before.LastUpdated) {
		t.Fatalf("bookkeeping changed: %+v", snap)
	}
}
