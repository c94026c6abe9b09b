package http

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleOverviewKpis(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	key := q.cacheKey()
	if kpis, found := s.kpiCache.Get(key); found {
		slog.DebugContext(r.Context(), "KPI cache hit", "key", key)
		writeJSON(w, r, http.StatusOK, newKpiResponse(kpis, q.anchor, q.selector))
		return
	}

	kpis, err := s.svc.ExecOverviewKpis(r.Context(), q.filters, q.selector, q.anchor)
	if err != nil {
		slog.ErrorContext(r.Context(), "Overview KPI computation failed", "error", err, "key", key)
		writeError(w, r, http.StatusInternalServerError, "kpi computation failed")
		return
	}

	s.kpiCache.Set(key, kpis)
	writeJSON(w, r, http.StatusOK, newKpiResponse(kpis, q.anchor, q.selector))
}

func (s *Server) handleArrBridge(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	key := q.cacheKey()
	steps, found := s.bridgeCache.Get(key)
	if !found {
		steps, err = s.svc.ArrBridge(r.Context(), q.filters, q.selector, q.anchor)
		if err != nil {
			slog.ErrorContext(r.Context(), "ARR bridge computation failed", "error", err, "key", key)
			writeError(w, r, http.StatusInternalServerError, "arr bridge computation failed")
			return
		}
		s.bridgeCache.Set(key, steps)
	}

	writeJSON(w, r, http.StatusOK, newBridgeResponse(steps))
}

func (s *Server) handleTopRow(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	key := q.cacheKey()
	row, found := s.topRowCache.Get(key)
	if !found {
		row, err = s.svc.TopRowKpis(r.Context(), q.filters, q.selector, q.anchor)
		if err != nil {
			slog.ErrorContext(r.Context(), "Top row computation failed", "error", err, "key", key)
			writeError(w, r, http.StatusInternalServerError, "top row computation failed")
			return
		}
		s.topRowCache.Set(key, row)
	}

	writeJSON(w, r, http.StatusOK, newTopRowResponse(row))
}

func (s *Server) handleLogoFlows(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	key := q.cacheKey()
	months, found := s.logoCache.Get(key)
	if !found {
		months, err = s.svc.LogoFlows(r.Context(), q.filters, q.selector, q.anchor)
		if err != nil {
			slog.ErrorContext(r.Context(), "Logo flow computation failed", "error", err, "key", key)
			writeError(w, r, http.StatusInternalServerError, "logo flow computation failed")
			return
		}
		s.logoCache.Set(key, months)
	}

	writeJSON(w, r, http.StatusOK, newLogoResponse(months))
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.wh.Products(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Product dimension read failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "dimension read failed")
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{ID: p.ID, Name: p.Name})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	if countries, found := s.dimCache.Get("countries"); found {
		writeJSON(w, r, http.StatusOK, countries)
		return
	}

	countries, err := s.wh.Countries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Country dimension read failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "dimension read failed")
		return
	}
	if countries == nil {
		countries = []string{}
	}

	s.dimCache.Set("countries", countries)
	writeJSON(w, r, http.StatusOK, countries)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	if months, found := s.dimCache.Get("months"); found {
		writeJSON(w, r, http.StatusOK, months)
		return
	}

	keys, err := s.wh.Months(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Month dimension read failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "dimension read failed")
		return
	}

	months := make([]string, 0, len(keys))
	for _, m := range keys {
		months = append(months, m.String())
	}

	s.dimCache.Set("months", months)
	writeJSON(w, r, http.StatusOK, months)
}
