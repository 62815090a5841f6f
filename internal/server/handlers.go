package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/metaschema/internal/errs"
	"github.com/koustreak/metaschema/internal/schema"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Ready: s.current.Load() != nil})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	res, ok := s.published(w)
	if !ok {
		return
	}
	format := schema.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		var err error
		if format, err = schema.ParseFormat(q); err != nil {
			writeError(w, err)
			return
		}
	}
	data, err := res.Schema.Encode(format)
	if err != nil {
		writeError(w, err)
		return
	}
	if format == schema.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	_, _ = w.Write(data)
}

func (s *Server) handleWarnings(w http.ResponseWriter, _ *http.Request) {
	res, ok := s.published(w)
	if !ok {
		return
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []schema.Warning{}
	}
	writeJSON(w, http.StatusOK, warnings)
}

func (s *Server) handleNamespace(w http.ResponseWriter, r *http.Request) {
	res, ok := s.published(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "namespace")
	ns := res.Schema.Namespace(name)
	if ns == nil {
		writeError(w, errs.Newf(errs.ErrKindNotFound, "namespace %s not found", name))
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	res, ok := s.published(w)
	if !ok {
		return
	}
	e, err := lookupEntity(res.Schema, r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleOpposite(w http.ResponseWriter, r *http.Request) {
	res, ok := s.published(w)
	if !ok {
		return
	}
	e, err := lookupEntity(res.Schema, r)
	if err != nil {
		writeError(w, err)
		return
	}
	name := chi.URLParam(r, "relationship")
	rel := e.Relationship(name)
	if rel == nil {
		writeError(w, errs.Newf(errs.ErrKindNotFound, "relationship %s not found", name).At(e.Name, ""))
		return
	}
	opp := res.Schema.Opposite(rel)
	if opp == nil {
		writeError(w, errs.New(errs.ErrKindNotFound, "relationship has no opposite").At(e.Name, name))
		return
	}
	writeJSON(w, http.StatusOK, opp)
}

func lookupEntity(s *schema.Schema, r *http.Request) (*schema.Entity, error) {
	ns, name := chi.URLParam(r, "namespace"), chi.URLParam(r, "entity")
	if s.Namespace(ns) == nil {
		return nil, errs.Newf(errs.ErrKindNotFound, "namespace %s not found", ns)
	}
	e := s.Entity(ns, name)
	if e == nil {
		return nil, errs.Newf(errs.ErrKindNotFound, "entity %s not found in namespace %s", name, ns)
	}
	return e, nil
}

// published returns the current schema or answers 503.
func (s *Server) published(w http.ResponseWriter) (*schema.Result, bool) {
	res := s.current.Load()
	if res == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   "unavailable",
			Message: "no schema has been published yet",
		})
		return nil, false
	}
	return res, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		status = http.StatusNotFound
	case errs.ErrKindInvalidInput:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: errs.KindOf(err).String(), Message: err.Error()})
}
