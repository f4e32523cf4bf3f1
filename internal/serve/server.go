// Package serve is the HTTP surface of the blog: the JSON article API, the
// sitemap, the live-reload event stream and operational endpoints.
package serve

import (
	"context"
	"errors"
	"geoblog/internal/auth"
	"geoblog/internal/domain/config"
	"geoblog/internal/render"
	"geoblog/internal/service"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"net/http"
	"sync"
	"time"
)

type Options struct {
	HTTP    config.HTTPConfig
	SiteURL string
	Service *service.ArticleService
	Auth    *auth.Provider
	Metrics *Metrics
	Log     zerolog.Logger
	// WatchDirs are the article roots watched for live reload.
	WatchDirs []string
}

type Server struct {
	http    config.HTTPConfig
	siteURL string
	svc     *service.ArticleService
	auth    *auth.Provider
	md      *render.MarkdownRenderer
	metrics *Metrics
	log     zerolog.Logger
	dirs    []string

	sseMu     sync.Mutex
	sseConns  map[chan string]struct{}
	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(opt Options) *Server {
	m := opt.Metrics
	if m == nil {
		m = NewMetrics()
	}
	return &Server{
		http:     opt.HTTP,
		siteURL:  opt.SiteURL,
		svc:      opt.Service,
		auth:     opt.Auth,
		md:       render.NewMarkdownRenderer(),
		metrics:  m,
		log:      opt.Log,
		dirs:     opt.WatchDirs,
		sseConns: make(map[chan string]struct{}),
	}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(
		RequestID(),
		Logging(s.log),
		Recover(),
		Instrument(s.metrics),
		ClientIP(s.http.TrustForwardedFor),
	)
	if s.auth != nil {
		r.Use(AuthBearer(s.auth))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(Timeout(s.http.RequestTimeout))

		api.Get("/articles", s.handleListArticles)
		api.Post("/articles", s.handleCreateArticle)
		api.Get("/articles/{filename}", s.handleGetArticle)
		api.Put("/articles/{filename}", s.handleSaveArticle)
		api.Delete("/articles/{filename}", s.handleDeleteArticle)
		api.Get("/tags", s.handleTags)
	})

	r.Get("/sitemap.xml", s.handleSitemap)
	r.Get("/dev/events", s.handleSSE)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, errNoRoute, false)
	})
	return r
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.http.Watch {
		if err := s.startWatch(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              s.http.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", s.http.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Server) isAdmin(r *http.Request) bool {
	return s.auth != nil && s.auth.IsAdmin(r.Context())
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, s.isAdmin(r))
}
