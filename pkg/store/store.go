// Package store implements the on-disk credential store: a JSON document
// of principal entries, loaded wholesale into memory and flushed back with
// an atomic rename. A single mutex serializes every operation, the same
// convention the rest of this module uses for shared mutable state.
package store

import (
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/pzverkov/kdcauth/internal/constants"
	qerrors "github.com/pzverkov/kdcauth/internal/errors"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is one principal's credential record.
type Entry struct {
	ID    string `json:"id"`
	Key   []byte `json:"key"`
	Admin bool   `json:"admin"`
}

type document struct {
	Entries      []Entry `json:"entries"`
	Bootstrapped bool    `json:"bootstrapped"`
}

// Observer receives store mutation events, for metrics/tracing hooks.
// Implementations should be lightweight; callbacks run under the store's
// mutex.
type Observer interface {
	// OnMutate is called after a mutating operation persists successfully.
	OnMutate(op string, size int)
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

var _ Observer = (*NoOpObserver)(nil)

// OnMutate implements Observer.
func (NoOpObserver) OnMutate(string, int) {}

// Store is the credential store: a JSON document backed by a file, guarded
// by a single mutex.
type Store struct {
	mu           sync.Mutex
	path         string
	entries      map[string]Entry
	bootstrapped bool
	dirty        bool
	closed       bool
	observer     Observer
}

// New constructs a Store backed by dir/server_credential_store.json,
// loading it if present.
func New(dir string) (*Store, error) {
	s := &Store{
		path:     filepath.Join(dir, constants.CredentialStoreFileName),
		entries:  make(map[string]Entry),
		observer: NoOpObserver{},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetObserver installs observer for subsequent mutations. Should be called
// before concurrent use begins.
func (s *Store) SetObserver(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if observer == nil {
		observer = NoOpObserver{}
	}
	s.observer = observer
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var doc document
	if err := jsonAPI.Unmarshal(data, &doc); err != nil {
		return err
	}

	for _, entry := range doc.Entries {
		s.entries[entry.ID] = entry
	}
	s.bootstrapped = doc.Bootstrapped
	return nil
}

// save serializes the in-memory entries and writes them to disk via a
// temp-file-then-rename sequence, so a crash mid-write never leaves a
// truncated store on disk.
func (s *Store) save() error {
	doc := document{Entries: make([]Entry, 0, len(s.entries)), Bootstrapped: s.bootstrapped}
	for _, entry := range s.entries {
		doc.Entries = append(doc.Entries, entry)
	}

	data, err := jsonAPI.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".credential-store-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, constants.CredentialStoreFilePerm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	s.dirty = false
	return nil
}

// HasEntry reports whether id has an entry in the store.
func (s *Store) HasEntry(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// GetCredentials returns the key bytes for id.
func (s *Store) GetCredentials(id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, qerrors.NotAvailable(id)
	}
	return append([]byte(nil), entry.Key...), nil
}

// AddCredentials inserts a new entry for id. Fails if id already exists.
func (s *Store) AddCredentials(id string, key []byte, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		return qerrors.ErrEntryExists
	}
	s.entries[id] = Entry{ID: id, Key: append([]byte(nil), key...), Admin: admin}
	s.dirty = true
	if err := s.save(); err != nil {
		return err
	}
	s.observer.OnMutate("add_credentials", len(s.entries))
	return nil
}

// SetCredentials replaces the key for an existing entry. Fails if id is
// absent.
func (s *Store) SetCredentials(id string, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return qerrors.ErrEntryAbsent
	}
	entry.Key = append([]byte(nil), key...)
	s.entries[id] = entry
	s.dirty = true
	if err := s.save(); err != nil {
		return err
	}
	s.observer.OnMutate("set_credentials", len(s.entries))
	return nil
}

// RemoveEntry deletes id unconditionally. Fails if id is absent.
func (s *Store) RemoveEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return qerrors.ErrEntryAbsent
	}
	delete(s.entries, id)
	s.dirty = true
	if err := s.save(); err != nil {
		return err
	}
	s.observer.OnMutate("remove_entry", len(s.entries))
	return nil
}

// IsAdmin reports whether id is an entry with the admin flag set. Absent
// ids are reported as false rather than an error.
func (s *Store) IsAdmin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	return ok && entry.Admin
}

// SetAdmin sets the admin flag for an existing entry. Fails if id is absent.
func (s *Store) SetAdmin(id string, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return qerrors.ErrEntryAbsent
	}
	entry.Admin = admin
	s.entries[id] = entry
	s.dirty = true
	if err := s.save(); err != nil {
		return err
	}
	s.observer.OnMutate("set_admin", len(s.entries))
	return nil
}

// Bootstrapped reports whether the store has recorded that bootstrap
// registration already completed. Authoritative over HasOnlyBootstrapEntries,
// which is kept only for compatibility with the legacy size-3 detection.
func (s *Store) Bootstrapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bootstrapped
}

// MarkBootstrapped persists the bootstrapped flag as true. Idempotent.
func (s *Store) MarkBootstrapped() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bootstrapped {
		return nil
	}
	s.bootstrapped = true
	s.dirty = true
	return s.save()
}

// Size returns the number of entries currently in the store.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// HasOnlyBootstrapEntries reports whether the store contains exactly the
// three bootstrap entries and nothing else — the signal the controller uses
// to decide whether an initial password should still be live.
func (s *Store) HasOnlyBootstrapEntries() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) != constants.BootstrapEntryCount {
		return false
	}
	for _, id := range []string{constants.TicketGrantingKeyID, constants.ServiceServerSecretKeyID, constants.ServiceServerPrincipalID} {
		if _, ok := s.entries[id]; !ok {
			return false
		}
	}
	return true
}

// Shutdown flushes any unsaved changes to disk.
func (s *Store) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return qerrors.ErrStoreClosed
	}
	s.closed = true
	if s.dirty {
		return s.save()
	}
	return nil
}
