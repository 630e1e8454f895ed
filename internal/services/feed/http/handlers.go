// Package http provides http transport for the feed
package http

import (
	stdhttp "net/http"
	"strconv"

	perr "helix/internal/platform/errors"
	phttp "helix/internal/platform/net/http"
	"helix/internal/platform/net/http/bind"
	"helix/internal/services/feed/domain"
)

const (
	defaultRecent = 15
	defaultPage   = 100
)

// Register mounts feed endpoints on the given router
func Register(r phttp.Router, stats domain.StatsPort, pages domain.RecordsPort, recent int) {
	if recent <= 0 {
		recent = defaultRecent
	}
	h := &handlers{stats: stats, pages: pages, recent: recent}

	r.Get("/v1/feed/stats", phttp.Handle(h.snapshot))
	r.Get("/v1/feed/recent", phttp.Handle(h.recentList))
	r.Post("/v1/feed/reset", phttp.Handle(h.reset))
	r.Get("/v1/records", phttp.Handle(h.records))
}

type handlers struct {
	stats  domain.StatsPort
	pages  domain.RecordsPort
	recent int
}

// GET /v1/feed/stats
func (h *handlers) snapshot(*stdhttp.Request) phttp.Response {
	return phttp.OK(h.stats.Snapshot())
}

// GET /v1/feed/recent?limit=&q=
func (h *handlers) recentList(r *stdhttp.Request) phttp.Response {
	q := domain.RecentQuery{Limit: h.recent, Q: r.URL.Query().Get("q")}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return phttp.Error(badParam("limit", s))
		}
		q.Limit = n
	}
	if err := bind.Struct(q); err != nil {
		return phttp.Error(err)
	}
	items := h.stats.Recent(q)
	return phttp.OK(struct {
		Items []domain.DisplayRecord `json:"items"`
		Count int                    `json:"count"`
	}{Items: items, Count: len(items)})
}

// POST /v1/feed/reset clears session counters; the log is untouched
func (h *handlers) reset(*stdhttp.Request) phttp.Response {
	h.stats.Reset()
	return phttp.NoContent()
}

// GET /v1/records?cursor=&limit=
func (h *handlers) records(r *stdhttp.Request) phttp.Response {
	q := domain.RecordsQuery{Limit: defaultPage}
	vals := r.URL.Query()
	if s := vals.Get("cursor"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return phttp.Error(badParam("cursor", s))
		}
		q.Cursor = n
	}
	if s := vals.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return phttp.Error(badParam("limit", s))
		}
		q.Limit = n
	}
	if err := bind.Struct(q); err != nil {
		return phttp.Error(err)
	}

	recs, next, err := h.pages.Page(r.Context(), q)
	if err != nil {
		return phttp.Error(err)
	}
	return phttp.List(recs, phttp.Page{
		Count:      len(recs),
		Limit:      q.Limit,
		Cursor:     q.Cursor,
		NextCursor: next.Offset,
	})
}

func badParam(field, v string) error {
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s must be an integer, got %q", field, v), field)
}
