package routers

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"

	"github.com/filiksyos/gittodoc/internal/events"
	"github.com/filiksyos/gittodoc/internal/github"
	"github.com/filiksyos/gittodoc/internal/history"
	"github.com/filiksyos/gittodoc/internal/ingest"
	"github.com/filiksyos/gittodoc/internal/web"
)

type Dependencies struct {
	Ingest     *ingest.Service
	Stars      *github.StarCounter
	StarRepo   string
	Events     events.Producer
	History    history.Repository
	Logger     *log.Logger
	Middleware []func(http.Handler) http.Handler
}

type Router struct {
	mux     *http.ServeMux
	handler http.Handler
}

func New(deps Dependencies) (*Router, error) {
	if deps.Ingest == nil {
		return nil, errors.New("ingest service is required")
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	rd, err := newRenderer(deps.Logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	ctx := context.Background()

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	NewDigestRoutes(deps, rd).RegisterHandlers(ctx, mux)

	var handler http.Handler = mux
	for i := len(deps.Middleware) - 1; i >= 0; i-- {
		handler = deps.Middleware[i](handler)
	}

	return &Router{
		mux:     mux,
		handler: handler,
	}, nil
}

func (r *Router) Handler() http.Handler {
	if r == nil {
		return nil
	}
	return r.handler
}
