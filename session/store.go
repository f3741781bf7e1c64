package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store holds every live session, keyed by a namespaced DocumentIdentity.
// Namespaces keep the UI surfaces independent: the sidebar pane, modal
// dialogs, and the multi-document view never share sessions for the same
// document.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for key, creating an empty one on miss.
func (st *Store) Get(key string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[key]; ok {
		return s
	}
	s := &Session{}
	st.sessions[key] = s
	return s
}

// Clear drops the session for key. The next Get starts fresh.
func (st *Store) Clear(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, key)
}

// Persist writes a session back under key, e.g. a closing dialog saving its
// history so a reopened dialog for the same document can resume.
func (st *Store) Persist(key string, s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[key] = s
}

// PurgeAllExcept drops every session in key's namespace other than key
// itself. Invoked when the single-document view renders a document: only the
// visible document's conversation is kept warm. This is a bounded-memory
// policy, not cache eviction.
func (st *Store) PurgeAllExcept(key string) {
	ns := namespace(key)

	st.mu.Lock()
	defer st.mu.Unlock()
	for k := range st.sessions {
		if k != key && namespace(k) == ns {
			delete(st.sessions, k)
		}
	}
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func namespace(key string) string {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i]
	}
	return key
}

// PaneKey keys the single-document sidebar session for a document.
func PaneKey(docID string) string {
	return "pane:" + docID
}

// DialogKey keys the persisted dialog history for a document. A closing
// dialog persists here; a reopened dialog resumes from here.
func DialogKey(docID string) string {
	return "dialog:" + docID
}

// NewLiveDialogKey keys one open dialog instance. Multiple dialogs for the
// same document stay independent while open.
func NewLiveDialogKey(docID string) string {
	return "live-dialog:" + docID + ":" + uuid.NewString()
}

// MultiDocKey keys the single multi-document chat session.
func MultiDocKey() string {
	return "multidoc:all"
}
