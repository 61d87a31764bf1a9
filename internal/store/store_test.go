package store

import (
	"os"
	"path/filepath"
	"testing"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	tmpDir := t.TempDir()

	fileStore, err := OpenFile(filepath.Join(tmpDir, "files"))
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	sqliteStore, err := OpenSQLite(filepath.Join(tmpDir, "kv.db"), DriverPure)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get("missing"); err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}

			if err := s.Set("tasklyTasks_guest", []byte(`[1,2]`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			data, ok, err := s.Get("tasklyTasks_guest")
			if err != nil || !ok {
				t.Fatalf("Get failed: ok=%v err=%v", ok, err)
			}
			if string(data) != `[1,2]` {
				t.Errorf("Expected [1,2], got %s", data)
			}

			// Overwrite
			if err := s.Set("tasklyTasks_guest", []byte(`[]`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			data, _, _ = s.Get("tasklyTasks_guest")
			if string(data) != `[]` {
				t.Errorf("Expected overwrite, got %s", data)
			}

			if err := s.Delete("tasklyTasks_guest"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, ok, _ := s.Get("tasklyTasks_guest"); ok {
				t.Error("key still present after Delete")
			}
			// Deleting twice is fine
			if err := s.Delete("tasklyTasks_guest"); err != nil {
				t.Errorf("second Delete failed: %v", err)
			}
		})
	}
}

func TestStore_KeysByPrefix(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s.Set("tasklyTasks_a_example_com", []byte(`[]`))
			s.Set("tasklyTrash_a_example_com", []byte(`[]`))
			s.Set("tasklyTasks_guest", []byte(`[]`))

			keys, err := s.Keys("tasklyTasks_")
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			if len(keys) != 2 || keys[0] != "tasklyTasks_a_example_com" || keys[1] != "tasklyTasks_guest" {
				t.Errorf("unexpected keys: %v", keys)
			}

			all, _ := s.Keys("")
			if len(all) != 3 {
				t.Errorf("Expected 3 keys, got %d", len(all))
			}
		})
	}
}

func TestGetJSON_MalformedDegradesToMissing(t *testing.T) {
	s := NewMemory()
	s.Set("broken", []byte(`{not json`))

	var v []string
	if GetJSON(s, "broken", &v) {
		t.Error("expected malformed value to be reported as missing")
	}
	if v != nil {
		t.Errorf("expected v untouched, got %v", v)
	}
}

func TestSetJSON_RoundTrip(t *testing.T) {
	s := NewMemory()
	if err := SetJSON(s, "k", map[string]int{"a": 1}); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	var got map[string]int
	if !GetJSON(s, "k", &got) || got["a"] != 1 {
		t.Errorf("unexpected value: %v", got)
	}
}

func TestRename(t *testing.T) {
	s := NewMemory()
	s.Set("old", []byte(`"x"`))

	if err := Rename(s, "old", "new"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if _, ok, _ := s.Get("old"); ok {
		t.Error("old key should be gone")
	}
	if data, ok, _ := s.Get("new"); !ok || string(data) != `"x"` {
		t.Errorf("new key missing or wrong: %s", data)
	}

	// Missing source is a no-op
	if err := Rename(s, "nope", "other"); err != nil {
		t.Errorf("Rename of missing key failed: %v", err)
	}
}

func TestFile_PersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	s1, _ := OpenFile(dir)
	s1.Set("tasklyUser", []byte(`{"email":"a@b.c"}`))

	s2, err := OpenFile(dir)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if _, ok, _ := s2.Get("tasklyUser"); !ok {
		t.Error("value not persisted")
	}

	// No temp files left behind
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			t.Errorf("unexpected file in store dir: %s", e.Name())
		}
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open("redis", t.TempDir()); err == nil {
		t.Error("expected error for unknown backend")
	}
}
