package sealed

import (
	"sync"

	errs "sealedtable/server/errors"
)

// GrantKind is the capability a subject holds over a sealed value.
type GrantKind string

const (
	ComputeOwner       GrantKind = "compute_owner"
	ReadGrant          GrantKind = "read"
	TransientReadGrant GrantKind = "transient_read"
)

// Handle is the readable reference returned to an authorized requester.
type Handle struct {
	ref Ref
}

func (h Handle) Ref() Ref { return h.ref }

// Store pairs every sealed value with its capability grants. A handle can only
// come into existence through Create, which applies the mandatory ComputeOwner
// grant and the first ReadGrant in the same step.
type Store struct {
	mu     sync.Mutex
	eng    Engine
	admin  string
	grants map[Ref]map[string]GrantKind
}

func NewStore(eng Engine, admin string) *Store {
	return &Store{eng: eng, admin: admin, grants: make(map[Ref]map[string]GrantKind)}
}

// Create seals plain and atomically grants ComputeOwner to owner and a
// ReadGrant to reader. There is no path that yields a ref without these grants.
func (s *Store) Create(plain uint64, owner, reader string) (Ref, error) {
	ref, err := s.eng.Seal(plain)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.grants[ref] = map[string]GrantKind{owner: ComputeOwner, reader: ReadGrant}
	s.mu.Unlock()
	return ref, nil
}

// Combine produces a new sealed value from two existing ones and grants it the
// same mandatory pair of capabilities. Sealed values are immutable; replacing
// one always goes through here or Create.
func (s *Store) Combine(op Op, a, b Ref, owner, reader string) (Ref, error) {
	s.mu.Lock()
	_, okA := s.grants[a]
	_, okB := s.grants[b]
	s.mu.Unlock()
	if !okA || !okB {
		return 0, errs.New(errs.CodeSealedRefNotFound, "unknown operand ref")
	}
	ref, err := s.eng.Combine(op, a, b)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.grants[ref] = map[string]GrantKind{owner: ComputeOwner, reader: ReadGrant}
	s.mu.Unlock()
	return ref, nil
}

func (s *Store) GrantRead(ref Ref, subject string) error {
	return s.grant(ref, subject, ReadGrant)
}

func (s *Store) GrantTransientRead(ref Ref, subject string) error {
	return s.grant(ref, subject, TransientReadGrant)
}

func (s *Store) grant(ref Ref, subject string, kind GrantKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[ref]
	if !ok {
		return errs.New(errs.CodeSealedRefNotFound, "ref %d", ref)
	}
	if g[subject] == ComputeOwner {
		return nil // owner already outranks any read grant
	}
	g[subject] = kind
	return nil
}

// RevokeTransient removes a transient read grant. Permanent grants and the
// owner grant are not revocable.
func (s *Store) RevokeTransient(ref Ref, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[ref]
	if !ok {
		return errs.New(errs.CodeSealedRefNotFound, "ref %d", ref)
	}
	if g[subject] == TransientReadGrant {
		delete(g, subject)
	}
	return nil
}

// ReadAuthorized returns a readable handle, or rejects the requester. Who
// asked is itself sensitive, so the error names neither value nor requester.
func (s *Store) ReadAuthorized(ref Ref, requester string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[ref]
	if !ok {
		return Handle{}, errs.New(errs.CodeSealedRefNotFound, "ref %d", ref)
	}
	if requester == s.admin {
		return Handle{ref: ref}, nil
	}
	switch g[requester] {
	case ComputeOwner, ReadGrant, TransientReadGrant:
		return Handle{ref: ref}, nil
	}
	return Handle{}, errs.New(errs.CodeSealedReadDenied, "read denied")
}

// Grants reports the recorded capabilities for a ref. Used by audit paths.
func (s *Store) Grants(ref Ref) map[string]GrantKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[ref]
	if !ok {
		return nil
	}
	out := make(map[string]GrantKind, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}
