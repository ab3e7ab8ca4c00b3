package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ResourceDef declares one record resource exposed over the CRUD protocol.
type ResourceDef struct {
	// Name is the singular resource name; routes are mounted at /{Name}s.
	Name string
	// Schema validates and normalizes caller payloads.
	Schema Validator
	// Permit optionally restricts which identities may use the resource at
	// all. Nil allows every authenticated identity. Denied callers get 403,
	// distinct from the 401 given to unauthenticated ones.
	Permit func(userID string) bool
}

// Handler runs the per-request CRUD protocol: authenticate (done upstream by
// authMiddleware), permit, validate, dispatch to the store, map the outcome.
// It holds no per-request state of its own.
type Handler struct {
	store  Store
	logger *log.Logger
}

// NewHandler creates a Handler with dependencies.
func NewHandler(store Store, logger *log.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Routes mounts the CRUD endpoints for each resource on a fresh router.
func (h *Handler) Routes(resources ...ResourceDef) chi.Router {
	r := chi.NewRouter()
	for _, def := range resources {
		def := def
		base := "/" + def.Name + "s"
		r.Get(base, h.handleList(def))
		r.Post(base, h.handleCreate(def))
		r.Get(base+"/{id}", h.handleGet(def))
		r.Patch(base+"/{id}", h.handleUpdate(def, UpdateModePartial))
		r.Put(base+"/{id}", h.handleUpdate(def, UpdateModeFull))
		r.Delete(base+"/{id}", h.handleDelete(def))
	}
	return r
}

// identity returns the authenticated user id, enforcing the resource's
// permit hook. A false return means the response has been written.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request, def ResourceDef) (string, bool) {
	userID := userIDFrom(r.Context())
	if userID == "" {
		writeUnauthorized(w)
		return "", false
	}
	if def.Permit != nil && !def.Permit(userID) {
		writeError(w, http.StatusForbidden, CodeForbidden, "Forbidden",
			"This user cannot access this resource.")
		return "", false
	}
	return userID, true
}

// handleList processes GET /{resource}s. Every query parameter is an
// equality filter against the owner's records.
func (h *Handler) handleList(def ResourceDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.identity(w, r, def)
		if !ok {
			return
		}
		var filters map[string]any
		if params := r.URL.Query(); len(params) > 0 {
			filters = make(map[string]any, len(params))
			for field, values := range params {
				filters[field] = nativeValue(values[0])
			}
		}
		records, err := h.store.List(r.Context(), def.Name, userID, filters)
		if err != nil {
			h.internalError(w, "listing records", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"_items": records})
	}
}

// handleCreate processes POST /{resource}s.
func (h *Handler) handleCreate(def ResourceDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.identity(w, r, def)
		if !ok {
			return
		}
		payload, ok := h.decodeBody(w, r)
		if !ok {
			return
		}
		normalized, err := def.Schema.Validate(payload, nil)
		if err != nil {
			writeInvalidPayload(w, err)
			return
		}
		rec, err := h.store.Create(r.Context(), def.Name, userID, normalized)
		if err != nil {
			h.internalError(w, "creating record", err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/%s/%ss/%s", apiVersion, def.Name, rec.ID()))
		writeJSON(w, http.StatusCreated, rec)
	}
}

// handleGet processes GET /{resource}s/{id}.
func (h *Handler) handleGet(def ResourceDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.identity(w, r, def)
		if !ok {
			return
		}
		rec, err := h.store.Get(r.Context(), def.Name, userID, chi.URLParam(r, "id"))
		if err != nil {
			h.storeError(w, "getting record", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// handleUpdate processes PATCH (partial merge) and PUT (full replace) of
// /{resource}s/{id}. The merged end state is validated before the store is
// touched, so a partial payload that would leave the record invalid is
// rejected without side effects.
func (h *Handler) handleUpdate(def ResourceDef, mode UpdateMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.identity(w, r, def)
		if !ok {
			return
		}
		payload, ok := h.decodeBody(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		existing, err := h.store.Get(r.Context(), def.Name, userID, id)
		if err != nil {
			h.storeError(w, "fetching record for update", err)
			return
		}
		doc := payload
		if mode == UpdateModePartial {
			doc = stripReserved(existing)
			for k, v := range stripReserved(payload) {
				doc[k] = v
			}
		}
		normalized, err := def.Schema.Validate(doc, existing)
		if err != nil {
			writeInvalidPayload(w, err)
			return
		}
		rec, err := h.store.Update(r.Context(), def.Name, userID, id, normalized, mode)
		if err != nil {
			h.storeError(w, "updating record", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// handleDelete processes DELETE /{resource}s/{id}, echoing the deleted
// record's final state.
func (h *Handler) handleDelete(def ResourceDef) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := h.identity(w, r, def)
		if !ok {
			return
		}
		rec, err := h.store.Delete(r.Context(), def.Name, userID, chi.URLParam(r, "id"))
		if err != nil {
			h.storeError(w, "deleting record", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// decodeBody reads a single JSON object from the request body. A false
// return means the 400 response has been written.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (Record, bool) {
	var payload Record
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPayload, "Invalid parameters",
			fmt.Sprintf("invalid request payload: %v", err))
		return nil, false
	}
	if err := ensureSingleJSON(dec); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidPayload, "Invalid parameters", err.Error())
		return nil, false
	}
	return payload, true
}

// ensureSingleJSON ensures only a single JSON object is in the request body.
func ensureSingleJSON(dec *json.Decoder) error {
	if t, err := dec.Token(); err != io.EOF || t != nil {
		return fmt.Errorf("request body must only contain a single JSON object")
	}
	return nil
}

func writeInvalidPayload(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, CodeInvalidPayload, "Invalid parameters", err.Error())
}

// storeError maps a store failure onto the response: absence is the caller's
// problem, everything else is ours.
func (h *Handler) storeError(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeNotFound(w)
		return
	}
	h.internalError(w, action, err)
}

// internalError logs full detail server-side and returns a generic body.
func (h *Handler) internalError(w http.ResponseWriter, action string, err error) {
	h.logger.Printf("error %s: %v", action, err)
	writeError(w, http.StatusInternalServerError, CodeUndefined, "Internal Server Error",
		"A programmatic error occurred, developers have been informed.")
}
