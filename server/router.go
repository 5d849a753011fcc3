package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	errs "sealedtable/server/errors"
	"sealedtable/server/store"
	"sealedtable/server/table"
)

// Router exposes the session manager over HTTP. db may be nil; the audit
// history endpoints then report 503.
func Router(m *table.Manager, db *store.DB, cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if cfg.Debug {
		r.Use(middleware.Logger)
	}

	// caller resolves the acting identity: a valid admin token acts as the
	// administrator, anything else acts as the X-Identity header (or the
	// identity named in the request body, for the ops that carry one).
	caller := func(req *http.Request) string {
		if cfg.AdminToken != "" && req.Header.Get("X-Admin-Token") == cfg.AdminToken {
			return m.Admin()
		}
		return req.Header.Get("X-Identity")
	}

	r.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var in struct {
				Kind     uint8  `json:"kind"`
				Capacity int    `json:"capacity"`
				MinWager uint64 `json:"min_wager"`
			}
			if !decode(w, req, &in) {
				return
			}
			id, err := m.CreateSession(table.GameKind(in.Kind), in.Capacity, in.MinWager)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, map[string]any{"id": id})
		})

		r.Get("/count", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, map[string]any{"count": m.TotalSessions()})
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				snap, err := m.GetSession(id)
				if err != nil {
					writeErr(w, err)
					return
				}
				writeJSON(w, snap)
			})

			r.Post("/join", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				var in struct {
					Identity     string `json:"identity"`
					Contribution uint64 `json:"contribution"`
					Intend       bool   `json:"intend"`
				}
				if !decode(w, req, &in) {
					return
				}
				if err := m.Join(id, in.Identity, in.Contribution, in.Intend); err != nil {
					writeErr(w, err)
					return
				}
				writeJSON(w, map[string]any{"ok": true})
			})

			r.Post("/act", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				var in struct {
					Identity string `json:"identity"`
					Call     bool   `json:"call"`
					Raise    bool   `json:"raise"`
					Fold     bool   `json:"fold"`
					Added    uint64 `json:"added"`
				}
				if !decode(w, req, &in) {
					return
				}
				if err := m.Act(id, in.Identity, in.Call, in.Raise, in.Fold, in.Added); err != nil {
					writeErr(w, err)
					return
				}
				writeJSON(w, map[string]any{"ok": true})
			})

			r.Post("/reveal", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				var in struct {
					Identity string `json:"identity"`
					Opened   []bool `json:"opened"`
				}
				if !decode(w, req, &in) {
					return
				}
				if err := m.Reveal(id, in.Identity, in.Opened); err != nil {
					writeErr(w, err)
					return
				}
				writeJSON(w, map[string]any{"ok": true})
			})

			r.Post("/end", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				if err := m.EmergencyEnd(id, caller(req)); err != nil {
					writeErr(w, err)
					return
				}
				writeJSON(w, map[string]any{"ok": true})
			})

			r.Post("/settle", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				if err := m.Settle(id, caller(req)); err != nil {
					writeErr(w, err)
					return
				}
				writeJSON(w, map[string]any{"ok": true})
			})

			r.Get("/participants/{identity}/wager", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				h, err := m.SealedWager(id, chi.URLParam(req, "identity"), caller(req))
				if err != nil {
					writeErr(w, err)
					return
				}
				writeJSON(w, map[string]any{"sealed_ref": h.Ref()})
			})

			r.Get("/participants/{identity}/actions", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				log, err := m.ActionLog(id, chi.URLParam(req, "identity"), caller(req))
				if err != nil {
					writeErr(w, err)
					return
				}
				writeJSON(w, map[string]any{"actions": log})
			})

			r.Get("/actions", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				if db == nil {
					http.Error(w, "audit store not configured", http.StatusServiceUnavailable)
					return
				}
				rows, err := db.SessionActions(req.Context(), id)
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				writeJSON(w, map[string]any{"actions": rows})
			})

			r.Get("/settlement", func(w http.ResponseWriter, req *http.Request) {
				id, ok := sessionID(w, req)
				if !ok {
					return
				}
				if db == nil {
					http.Error(w, "audit store not configured", http.StatusServiceUnavailable)
					return
				}
				row, found, err := db.GetSettlement(req.Context(), id)
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				if !found {
					http.Error(w, "no settlement yet", http.StatusNotFound)
					return
				}
				writeJSON(w, row)
			})
		})
	})

	r.Post("/api/withdraw", func(w http.ResponseWriter, req *http.Request) {
		if err := m.Withdraw(caller(req)); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	})

	return r
}

func sessionID(w http.ResponseWriter, req *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, req *http.Request, v any) bool {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	code := errs.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": err.Error(),
		"code":  code,
		"kind":  code.Kind(),
	})
}
