package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"sealedtable/server/escrow"
	"sealedtable/server/sealed"
	"sealedtable/server/table"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := Config{Admin: "admin", AdminToken: "sekrit"}
	vault := escrow.NewLedger()
	seals := sealed.NewStore(sealed.NewLocalEngine(), cfg.Admin)
	m := table.New(table.Config{Admin: cfg.Admin, Vault: vault, Seals: seals, Seed: 1})
	return Router(m, nil, cfg)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouterSessionLifecycle(t *testing.T) {
	h := newTestHandler(t)
	admin := map[string]string{"X-Admin-Token": "sekrit"}

	w := doJSON(t, h, "POST", "/api/sessions", map[string]any{"kind": 0, "capacity": 4, "min_wager": 10}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create: %d %s", w.Code, w.Body)
	}
	var created struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.ID != 1 {
		t.Fatalf("create response %s (%v)", w.Body, err)
	}
	base := fmt.Sprintf("/api/sessions/%d", created.ID)

	w = doJSON(t, h, "POST", base+"/join", map[string]any{"identity": "alice", "contribution": 10, "intend": true}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("join alice: %d %s", w.Code, w.Body)
	}

	// Error mapping: duplicate join 403, short wager 402, unknown session 404.
	w = doJSON(t, h, "POST", base+"/join", map[string]any{"identity": "alice", "contribution": 10, "intend": true}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("dup join: %d %s", w.Code, w.Body)
	}
	w = doJSON(t, h, "POST", base+"/join", map[string]any{"identity": "carol", "contribution": 5, "intend": true}, nil)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("short wager: %d %s", w.Code, w.Body)
	}
	w = doJSON(t, h, "GET", "/api/sessions/99", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown session: %d", w.Code)
	}

	w = doJSON(t, h, "POST", base+"/join", map[string]any{"identity": "bob", "contribution": 10, "intend": true}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("join bob: %d %s", w.Code, w.Body)
	}
	// Session is active now; a late join is a phase conflict.
	w = doJSON(t, h, "POST", base+"/join", map[string]any{"identity": "dave", "contribution": 10, "intend": true}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("late join: %d %s", w.Code, w.Body)
	}

	w = doJSON(t, h, "POST", base+"/act", map[string]any{"identity": "bob", "raise": true, "added": 15}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("act: %d %s", w.Code, w.Body)
	}

	w = doJSON(t, h, "GET", base, nil, nil)
	var snap table.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("snapshot decode: %v", err)
	}
	if snap.Pot != 35 || snap.Phase != "active" {
		t.Fatalf("snapshot = %+v", snap)
	}

	// Teardown requires the admin token.
	w = doJSON(t, h, "POST", base+"/end", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("end without token: %d", w.Code)
	}
	w = doJSON(t, h, "POST", base+"/end", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("end: %d %s", w.Code, w.Body)
	}
	w = doJSON(t, h, "POST", base+"/end", nil, admin)
	if w.Code != http.StatusConflict {
		t.Fatalf("double end: %d", w.Code)
	}
}

func TestRouterSealedReadPolicy(t *testing.T) {
	h := newTestHandler(t)
	doJSON(t, h, "POST", "/api/sessions", map[string]any{"kind": 0, "capacity": 4, "min_wager": 10}, nil)
	doJSON(t, h, "POST", "/api/sessions/1/join", map[string]any{"identity": "alice", "contribution": 10, "intend": true}, nil)

	w := doJSON(t, h, "GET", "/api/sessions/1/participants/alice/wager", nil, map[string]string{"X-Identity": "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("owner read: %d %s", w.Code, w.Body)
	}
	w = doJSON(t, h, "GET", "/api/sessions/1/participants/alice/wager", nil, map[string]string{"X-Identity": "bob"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign read: %d %s", w.Code, w.Body)
	}
	w = doJSON(t, h, "GET", "/api/sessions/1/participants/alice/wager", nil, map[string]string{"X-Admin-Token": "sekrit"})
	if w.Code != http.StatusOK {
		t.Fatalf("admin read: %d %s", w.Code, w.Body)
	}
}

func TestRouterAuditStoreUnconfigured(t *testing.T) {
	h := newTestHandler(t)
	doJSON(t, h, "POST", "/api/sessions", map[string]any{"kind": 0, "capacity": 4, "min_wager": 10}, nil)
	w := doJSON(t, h, "GET", "/api/sessions/1/actions", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("actions without db: %d", w.Code)
	}
}
