package identity

import (
	"testing"

	"github.com/vthunder/taskly/internal/store"
)

func TestNamespace(t *testing.T) {
	cases := map[string]string{
		"":                  "guest",
		"   ":               "guest",
		"jo.doe@mail.co.uk": "jo_doe_mail_co_uk",
		"x@y.z":             "x_y_z",
	}
	for in, want := range cases {
		if got := Namespace(in); got != want {
			t.Errorf("Namespace(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeysFor(t *testing.T) {
	k := KeysFor(Identity{Email: "a@b.com"})
	if k.Tasks != "tasklyTasks_a_b_com" || k.Archive != "tasklyTrash_a_b_com" || k.Reminders != "tasklyReminders_a_b_com" {
		t.Errorf("unexpected keys: %+v", k)
	}

	guest := KeysFor(Identity{})
	if guest.Tasks != "tasklyTasks_guest" {
		t.Errorf("unexpected guest key: %s", guest.Tasks)
	}
}

func TestStoreProvider(t *testing.T) {
	s := store.NewMemory()
	p := StoreProvider{Store: s}

	if p.CurrentIdentity().Email != "" {
		t.Error("expected guest before sign-in")
	}
	if err := p.SetCurrent("a@b.com"); err != nil {
		t.Fatalf("SetCurrent failed: %v", err)
	}
	if p.CurrentIdentity().Email != "a@b.com" {
		t.Errorf("unexpected identity: %+v", p.CurrentIdentity())
	}
	if err := p.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if p.CurrentIdentity().Email != "" {
		t.Error("expected guest after Clear")
	}

	// A corrupt user record degrades to guest
	s.Set(currentUserKey, []byte("garbage"))
	if p.CurrentIdentity().Email != "" {
		t.Error("expected guest for corrupt user record")
	}
}

func TestChangeEmail(t *testing.T) {
	s := store.NewMemory()
	p := StoreProvider{Store: s}
	p.SetCurrent("old@x.com")

	old := KeysFor(Identity{Email: "old@x.com"})
	s.Set(old.Tasks, []byte(`[]`))
	s.Set(old.Archive, []byte(`[]`))

	if err := ChangeEmail(s, "old@x.com", "new@x.com"); err != nil {
		t.Fatalf("ChangeEmail failed: %v", err)
	}

	nk := KeysFor(Identity{Email: "new@x.com"})
	if _, ok, _ := s.Get(nk.Tasks); !ok {
		t.Error("tasks not migrated")
	}
	if _, ok, _ := s.Get(nk.Archive); !ok {
		t.Error("archive not migrated")
	}
	if _, ok, _ := s.Get(old.Tasks); ok {
		t.Error("old tasks key still present")
	}
	if p.CurrentIdentity().Email != "new@x.com" {
		t.Errorf("current user not updated: %+v", p.CurrentIdentity())
	}

	if err := ChangeEmail(s, "new@x.com", ""); err == nil {
		t.Error("expected error for empty new email")
	}
}

func TestNamespaces(t *testing.T) {
	s := store.NewMemory()
	s.Set("tasklyTasks_b_x_com", []byte("[]"))
	s.Set("tasklyTrash_a_x_com", []byte("[]"))
	s.Set("tasklyReminders_b_x_com", []byte("[]"))
	s.Set("tasklyUser", []byte(`{"email":"b@x.com"}`))

	got, err := Namespaces(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "a_x_com" || got[1] != "b_x_com" {
		t.Errorf("Namespaces = %v", got)
	}
}
