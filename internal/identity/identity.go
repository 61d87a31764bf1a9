// Package identity maps the signed-in user to a storage namespace. It does
// not authenticate anyone; it only tells the task engine whose keys to use.
package identity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vthunder/taskly/internal/logging"
	"github.com/vthunder/taskly/internal/store"
)

const (
	// GuestNamespace is used when nobody is signed in.
	GuestNamespace = "guest"

	currentUserKey = "tasklyUser"

	tasksPrefix     = "tasklyTasks_"
	archivePrefix   = "tasklyTrash_"
	remindersPrefix = "tasklyReminders_"
)

// Identity is the signed-in user, or the zero value for a guest.
type Identity struct {
	Email string `json:"email,omitempty"`
}

type Provider interface {
	CurrentIdentity() Identity
}

// Keys are the store keys owned by one identity.
type Keys struct {
	Tasks     string
	Archive   string
	Reminders string
}

// Namespace sanitizes an email into a key suffix.
func Namespace(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return GuestNamespace
	}
	return strings.NewReplacer("@", "_", ".", "_").Replace(email)
}

func KeysFor(id Identity) Keys {
	return KeysForNamespace(Namespace(id.Email))
}

// KeysForNamespace returns the keys of an already sanitized namespace.
func KeysForNamespace(ns string) Keys {
	return Keys{
		Tasks:     tasksPrefix + ns,
		Archive:   archivePrefix + ns,
		Reminders: remindersPrefix + ns,
	}
}

// Namespaces lists every namespace that owns at least one key in s, sorted.
func Namespaces(s store.Store) ([]string, error) {
	seen := make(map[string]bool)
	for _, prefix := range []string{tasksPrefix, archivePrefix, remindersPrefix} {
		keys, err := s.Keys(prefix)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			seen[strings.TrimPrefix(k, prefix)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out, nil
}

// Static always reports the same identity.
type Static struct {
	Email string
}

func (s Static) CurrentIdentity() Identity {
	return Identity{Email: s.Email}
}

// StoreProvider reads the current user record kept in the store.
type StoreProvider struct {
	Store store.Store
}

func (p StoreProvider) CurrentIdentity() Identity {
	var id Identity
	store.GetJSON(p.Store, currentUserKey, &id)
	return id
}

// SetCurrent records email as the signed-in user.
func (p StoreProvider) SetCurrent(email string) error {
	return store.SetJSON(p.Store, currentUserKey, Identity{Email: strings.TrimSpace(email)})
}

// Clear signs the current user out.
func (p StoreProvider) Clear() error {
	return p.Store.Delete(currentUserKey)
}

// ChangeEmail moves every namespaced key owned by oldEmail over to newEmail
// and, if oldEmail is the current user, updates the current user record.
func ChangeEmail(s store.Store, oldEmail, newEmail string) error {
	if strings.TrimSpace(newEmail) == "" {
		return fmt.Errorf("new email is required")
	}
	from := KeysFor(Identity{Email: oldEmail})
	to := KeysFor(Identity{Email: newEmail})
	if from == to {
		return nil
	}

	for _, pair := range [][2]string{
		{from.Tasks, to.Tasks},
		{from.Archive, to.Archive},
		{from.Reminders, to.Reminders},
	} {
		if err := store.Rename(s, pair[0], pair[1]); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", pair[0], err)
		}
	}

	p := StoreProvider{Store: s}
	if strings.EqualFold(p.CurrentIdentity().Email, strings.TrimSpace(oldEmail)) {
		if err := p.SetCurrent(newEmail); err != nil {
			return err
		}
	}

	logging.Info("identity", "migrated data from %s to %s", Namespace(oldEmail), Namespace(newEmail))
	return nil
}
