// Package server composes the HTTP surface: the Connect services, proof
// uploads and static blobs, the websocket hub, metrics and health checks.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Atmakurhemanthkumar/splitmate/internal/auth"
	"github.com/Atmakurhemanthkumar/splitmate/internal/broadcast"
	"github.com/Atmakurhemanthkumar/splitmate/internal/identity"
	"github.com/Atmakurhemanthkumar/splitmate/internal/ledger"
	"github.com/Atmakurhemanthkumar/splitmate/internal/metrics"
	"github.com/Atmakurhemanthkumar/splitmate/internal/middleware"
	"github.com/Atmakurhemanthkumar/splitmate/internal/proofs"
	"github.com/Atmakurhemanthkumar/splitmate/internal/registry"
	"github.com/Atmakurhemanthkumar/splitmate/internal/service"
	"github.com/Atmakurhemanthkumar/splitmate/pkg/api/apiconnect"
)

const healthTimeout = 2 * time.Second

// Upload names are random and never rewritten.
const uploadCacheControl = "public, max-age=31536000, immutable"

// Pinger reports backend health. storage.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the components the server routes to.
type Deps struct {
	Tokens   *auth.JWTManager
	Identity *identity.Service
	Registry *registry.Registry
	Ledger   *ledger.Ledger
	Proofs   *proofs.Bridge
	Store    Pinger

	// Hub, Metrics and UploadDir are optional; their routes are omitted when unset.
	Hub       *broadcast.Hub
	Metrics   *metrics.Metrics
	UploadDir string
}

// New returns the router serving every endpoint.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger, cors)

	public := connect.WithInterceptors(
		middleware.OptionalAuth(d.Tokens),
		middleware.LoggingInterceptor(d.Metrics),
	)
	private := connect.WithInterceptors(
		middleware.RequireAuth(d.Tokens),
		middleware.LoggingInterceptor(d.Metrics),
	)

	r.Mount(apiconnect.NewAuthServiceHandler(service.NewAuthService(d.Identity), public))
	r.Mount(apiconnect.NewUserServiceHandler(service.NewUserService(d.Identity), private))
	r.Mount(apiconnect.NewGroupServiceHandler(service.NewGroupService(d.Registry), private))
	r.Mount(apiconnect.NewExpenseServiceHandler(service.NewExpenseService(d.Ledger), private))
	r.Mount(apiconnect.NewPaymentServiceHandler(service.NewPaymentService(d.Proofs), private))

	uploads := &uploadHandler{proofs: d.Proofs, ledger: d.Ledger}
	r.With(middleware.RequireAuthHTTP(d.Tokens)).Post("/uploads/proofs/{expenseID}", uploads.ServeHTTP)
	if d.UploadDir != "" {
		r.Handle("/uploads/*", noListing(fileserver.HandlerWithOptions("/uploads", d.UploadDir, fileserver.Options{
			CacheControl:         uploadCacheControl,
			DisablePrecompressed: true,
		})))
	}

	if d.Hub != nil {
		r.Get("/ws", (&wsHandler{tokens: d.Tokens, registry: d.Registry, hub: d.Hub}).ServeHTTP)
	}
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	r.Get("/healthz", health(d.Store))

	return r
}

// H2C wraps h for HTTP/2 without TLS, which Connect clients use.
func H2C(h http.Handler) http.Handler {
	return h2c.NewHandler(h, &http2.Server{})
}

// cors adds CORS headers for browser access.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// noListing hides directory indexes.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func health(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
