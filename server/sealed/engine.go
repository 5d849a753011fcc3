// Package sealed models opaque sealed values and the capability grants that
// gate access to them. The computation engine itself is external; this package
// only creates handles, combines them through the engine, and enforces who may
// hold a readable reference.
package sealed

import (
	"sync"

	errs "sealedtable/server/errors"
)

// Ref is an opaque handle to a sealed value. Ref 0 is never issued.
type Ref uint64

// Op selects a combination the engine performs without opening either operand.
type Op string

const (
	OpAdd    Op = "add"
	OpSub    Op = "sub"
	OpCmp    Op = "cmp"
	OpSelect Op = "select"
)

// Engine is the external sealed-value computation engine. Implementations
// never expose plaintext through this interface.
type Engine interface {
	Seal(plain uint64) (Ref, error)
	Combine(op Op, a, b Ref) (Ref, error)
}

// LocalEngine is an in-process stand-in for the external engine, used by tests
// and the exhibition runner. Plaintexts stay inside the engine.
type LocalEngine struct {
	mu   sync.Mutex
	next Ref
	vals map[Ref]uint64
}

func NewLocalEngine() *LocalEngine {
	return &LocalEngine{vals: make(map[Ref]uint64)}
}

func (e *LocalEngine) Seal(plain uint64) (Ref, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	e.vals[e.next] = plain
	return e.next, nil
}

func (e *LocalEngine) Combine(op Op, a, b Ref) (Ref, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	va, ok := e.vals[a]
	if !ok {
		return 0, errs.New(errs.CodeSealedRefNotFound, "ref %d", a)
	}
	vb, ok := e.vals[b]
	if !ok {
		return 0, errs.New(errs.CodeSealedRefNotFound, "ref %d", b)
	}
	var out uint64
	switch op {
	case OpAdd:
		out = va + vb
	case OpSub:
		if vb > va {
			out = 0
		} else {
			out = va - vb
		}
	case OpCmp:
		if va > vb {
			out = 1
		}
	case OpSelect:
		if va != 0 {
			out = va
		} else {
			out = vb
		}
	default:
		return 0, errs.New(errs.CodeUnknown, "unsupported op %q", op)
	}
	e.next++
	e.vals[e.next] = out
	return e.next, nil
}

// open is a test seam; it is not part of Engine.
func (e *LocalEngine) open(r Ref) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vals[r]
	return v, ok
}
