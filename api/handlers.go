package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/router"
	"github.com/hupe1980/pathway/store"
)

type askRequest struct {
	Query   string         `json:"query"`
	Athlete string         `json:"athlete,omitempty"`
	Context map[string]any `json:"context,omitempty"`
	// Full returns the complete state instead of the summary.
	Full bool `json:"full,omitempty"`
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	athlete := req.Athlete
	if athlete == "" {
		athlete = s.athlete
	}
	st, err := s.asker.Route(r.Context(), router.Request{Query: req.Query, Athlete: athlete, Context: req.Context})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Full {
		writeJSON(w, st, http.StatusOK)
		return
	}
	writeJSON(w, router.Summarize(st), http.StatusOK)
}

type scoreRequest struct {
	Repo string `json:"repo"`
}

func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	if s.scorer == nil {
		writeJSON(w, errorResponse{Error: "repository scoring not configured"}, http.StatusServiceUnavailable)
		return
	}
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Repo) == "" {
		s.writeError(w, r, &core.ValidationError{Field: "repo", Constraint: "required"})
		return
	}
	res, err := s.scorer.Score(r.Context(), req.Repo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, res, http.StatusOK)
}

type taskRequest struct {
	Title    string `json:"title"`
	Domain   string `json:"domain"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Athlete  string `json:"athlete,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (t taskRequest) record() store.Record {
	rec := store.Record{}
	for k, v := range map[string]string{
		"title":    t.Title,
		"domain":   t.Domain,
		"status":   t.Status,
		"priority": t.Priority,
		"athlete":  t.Athlete,
		"due_date": t.DueDate,
		"notes":    t.Notes,
	} {
		if v != "" {
			rec[k] = v
		}
	}
	return rec
}

type recordInserter interface {
	InsertRecord(ctx context.Context, table string, rec store.Record) (store.Record, error)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		writeJSON(w, errorResponse{Error: "task store not configured"}, http.StatusServiceUnavailable)
		return
	}
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec := req.record()
	if ins, ok := s.sink.(recordInserter); ok {
		saved, err := ins.InsertRecord(r.Context(), store.TableTasks, rec)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, saved, http.StatusCreated)
		return
	}
	if err := s.sink.Insert(r.Context(), store.TableTasks, rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, rec, http.StatusCreated)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		writeJSON(w, errorResponse{Error: "task store not configured"}, http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	f := store.Filter{Eq: map[string]any{}, OrderBy: "created_at", Desc: true}
	for _, key := range []string{"status", "domain", "priority", "athlete"} {
		if v := q.Get(key); v != "" {
			f.Eq[key] = v
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, &core.ValidationError{Field: "limit", Constraint: "non-negative integer", Value: v})
			return
		}
		f.Limit = n
	}
	recs, err := s.sink.Query(r.Context(), store.TableTasks, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, map[string]any{"tasks": recs}, http.StatusOK)
}
