package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/lms/discuss"
	"github.com/nasermirzaei89/lms/interactions"
	"github.com/nasermirzaei89/lms/knowledge"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend is the server side the handler talks to: the gateway every
// mutation reconciles with, plus reads that hydrate a session's store.
type Backend interface {
	interactions.Gateway

	CreateArticle(ctx context.Context, title string) (*knowledge.Article, error)
	LoadArticle(ctx context.Context, articleID string) (knowledge.Article, error)
	LoadDiscussion(ctx context.Context, discussionID string) ([]*discuss.Reply, error)
}

type Config struct {
	// PreviewLimit is how many replies a collapsed thread shows.
	PreviewLimit int
	Coordinator  interactions.Config
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// SessionIdleTimeout evicts the cached workspace of a session that made
	// no request for that long. Zero falls back to the cookie max age.
	SessionIdleTimeout time.Duration
	// MaxSessions caps the cached workspaces. Zero means DefaultMaxSessions.
	MaxSessions int
}

type Handler struct {
	mux          *http.ServeMux
	handler      http.Handler
	backend      Backend
	workspaces   *workspaces
	cookieStore  *sessions.CookieStore
	sessionName  string
	previewLimit int
	gatherer     prometheus.Gatherer
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(
	backend Backend,
	cookieStore *sessions.CookieStore,
	sessionName string,
	config Config,
) *Handler {
	idleTimeout := config.SessionIdleTimeout
	if idleTimeout == 0 && cookieStore.Options != nil {
		idleTimeout = time.Duration(cookieStore.Options.MaxAge) * time.Second
	}

	h := &Handler{
		mux:          nil,
		handler:      nil,
		backend:      backend,
		workspaces:   newWorkspaces(backend, config.Coordinator, idleTimeout, config.MaxSessions),
		cookieStore:  cookieStore,
		sessionName:  sessionName,
		previewLimit: config.PreviewLimit,
		gatherer:     config.Gatherer,
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = h.mux

		h.registerRoutes()
	}

	{
		h.handler = h.sessionMiddleware(h.handler)
		h.handler = recoverMiddleware(h.handler)
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// Close waits for every mutation dispatched through the handler to settle.
func (h *Handler) Close() {
	h.workspaces.close()
}

func (h *Handler) registerRoutes() {
	h.mux.Handle("POST /login", h.HandleLogin())
	h.mux.Handle("POST /logout", h.HandleLogout())

	h.mux.Handle("POST /knowledge", h.HandleCreateArticle())
	h.mux.Handle("GET /knowledge/{articleId}", h.HandleViewArticle())
	h.mux.Handle("POST /knowledge/{articleId}/like", h.HandleReact(interactions.KindLike))
	h.mux.Handle("POST /knowledge/{articleId}/dislike", h.HandleReact(interactions.KindDislike))

	h.mux.Handle("GET /discussions/{discussionId}/replies", h.HandleViewThread())
	h.mux.Handle("POST /discussions/{discussionId}/replies", h.HandleSubmitReply())
	h.mux.Handle("POST /replies/{replyId}/vote", h.HandleVoteReply())

	if h.gatherer != nil {
		h.mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				http.Error(w, "internal error occurred", http.StatusInternalServerError)
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}
