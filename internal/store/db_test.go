package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d := NewDB()
	if err := d.Open(filepath.Join(t.TempDir(), "nested", "test.db")); err != nil {
		t.Fatalf("Open: %v", err)
	}
	go d.Start()
	t.Cleanup(func() {
		close(d.RequestChan)
		d.Close()
	})
	return d
}

func roundTrip(t *testing.T, d *DB, req Request) Response {
	t.Helper()
	d.RequestChan <- req
	select {
	case resp := <-d.ResponseChan:
		if resp.Op != req.Op {
			t.Fatalf("expected response for op %d, got %d", req.Op, resp.Op)
		}
		return resp
	case <-time.After(5 * time.Second):
		t.Fatalf("no response for op %d", req.Op)
	}
	return Response{}
}

func TestBoxesLifecycle(t *testing.T) {
	d := openTestDB(t)

	resp := roundTrip(t, d, Request{Op: FetchBoxes})
	if resp.Err != nil || len(resp.Boxes) != 0 {
		t.Fatalf("expected empty store, got %v, %v", resp.Boxes, resp.Err)
	}

	resp = roundTrip(t, d, Request{Op: AddBox, Path: filepath.Join("/home", "u", "Desktop")})
	if resp.Err != nil {
		t.Fatalf("AddBox: %v", resp.Err)
	}
	first := resp.Added
	if first == nil || first.Name != "Desktop" {
		t.Fatalf("expected box named after its folder, got %+v", first)
	}
	if _, err := uuid.Parse(first.ID); err != nil {
		t.Errorf("expected uuid id, got %q", first.ID)
	}
	if first.CreatedAt.IsZero() {
		t.Error("expected creation time")
	}

	resp = roundTrip(t, d, Request{Op: AddBox, Name: "Work", Path: filepath.Join("/srv", "work")})
	if len(resp.Boxes) != 2 || resp.Boxes[0].ID != first.ID || resp.Boxes[1].Name != "Work" {
		t.Fatalf("expected boxes in creation order, got %+v", resp.Boxes)
	}

	resp = roundTrip(t, d, Request{Op: RemoveBox, ID: first.ID})
	if len(resp.Boxes) != 1 || resp.Boxes[0].Name != "Work" {
		t.Errorf("expected only Work to remain, got %+v", resp.Boxes)
	}
}

func TestAddBoxSamePathKeepsFirst(t *testing.T) {
	d := openTestDB(t)
	path := filepath.Join("/home", "u", "Desktop")

	a := roundTrip(t, d, Request{Op: AddBox, Name: "one", Path: path})
	b := roundTrip(t, d, Request{Op: AddBox, Name: "two", Path: path})
	if a.Added == nil || b.Added == nil {
		t.Fatalf("expected both adds to report a box: %v, %v", a.Err, b.Err)
	}
	if a.Added.ID != b.Added.ID || b.Added.Name != "one" {
		t.Errorf("expected the first box to be kept, got %+v then %+v", a.Added, b.Added)
	}
	if len(b.Boxes) != 1 {
		t.Errorf("expected one box, got %d", len(b.Boxes))
	}
}

func TestSettingsUpsert(t *testing.T) {
	d := openTestDB(t)

	roundTrip(t, d, Request{Op: SaveSetting, Key: KeyLastBox, Value: "a"})
	resp := roundTrip(t, d, Request{Op: SaveSetting, Key: KeyLastBox, Value: "b"})
	if resp.Settings[KeyLastBox] != "b" {
		t.Errorf("expected upserted value b, got %q", resp.Settings[KeyLastBox])
	}

	resp = roundTrip(t, d, Request{Op: FetchSettings})
	if len(resp.Settings) != 1 {
		t.Errorf("expected one setting, got %v", resp.Settings)
	}
}
