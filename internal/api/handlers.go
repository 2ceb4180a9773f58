package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/company-directory/internal/company"
	"github.com/sells-group/company-directory/internal/query"
)

type companiesResponse struct {
	Count     int               `json:"count"`
	Companies []company.Company `json:"companies"`
}

func listResponse(cs []company.Company) companiesResponse {
	return companiesResponse{Count: len(cs), Companies: cs}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := strings.TrimSpace(q.Get("q"))
	if term == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.svc.Search(r.Context(), term, limit)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(out))
}

func (s *Server) filter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := company.Filter{
		Type:       q.Get("type"),
		Sector:     q.Get("sector"),
		Domain:     q.Get("domain"),
		Capability: q.Get("capability"),
		City:       q.Get("city"),
	}

	var err error
	if f.GreaterStockholm, err = boolParam(q, "greater_stockholm"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	relevant, err := boolParam(q, "relevant")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.OnlyRelevant = relevant != nil && *relevant
	if f.MinQuality, err = intParam(q, "min_quality"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.MinQuality > 100 {
		writeError(w, http.StatusBadRequest, "min_quality: must be between 0 and 100")
		return
	}
	if f.Limit, err = intParam(q, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.svc.Filter(r.Context(), f)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(out))
}

func (s *Server) random(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	count, err := intParam(q, "count")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	relevant, err := boolParam(q, "relevant")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.svc.Random(r.Context(), company.RandomFilter{
		Count:        count,
		Type:         strings.TrimSpace(q.Get("type")),
		OnlyRelevant: relevant != nil && *relevant,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse(out))
}

func (s *Server) daily(w http.ResponseWriter, r *http.Request) {
	c, ok, err := s.svc.Daily(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id: must be an integer")
		return
	}

	d, ok, err := s.svc.Detail(r.Context(), id)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(chi.URLParam(r, "kind"))
	if kind != query.CategoryTypes && kind != "type" {
		if _, err := company.ParseTagKind(kind); err != nil {
			writeError(w, http.StatusBadRequest, "kind: must be types, sector, domain, capability or dimension")
			return
		}
	}

	out, err := s.svc.Categories(r.Context(), kind)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "values": out})
}

func (s *Server) cities(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Cities(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": out})
}

func (s *Server) suggestTypes(w http.ResponseWriter, r *http.Request) {
	s.suggest(w, r, s.svc.SuggestTypes)
}

func (s *Server) suggestCities(w http.ResponseWriter, r *http.Request) {
	s.suggest(w, r, s.svc.SuggestCities)
}

func (s *Server) suggest(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, int) ([]string, error)) {
	q := r.URL.Query()
	limit, err := intParam(q, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := fn(r.Context(), q.Get("prefix"), limit)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
