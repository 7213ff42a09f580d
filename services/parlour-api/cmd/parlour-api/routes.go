package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/utiibeauty/parlour/libs/httpx"
	"github.com/utiibeauty/parlour/libs/runtime"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/handlers"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/realtime"
)

type routeDeps struct {
	logger       *slog.Logger
	auth         *handlers.AuthHandler
	shopStatus   *handlers.ShopStatusHandler
	bookings     *handlers.BookingsHandler
	reviews      *handlers.ReviewsHandler
	audit        *handlers.AuditHandler
	hub          *realtime.Hub
	requireAdmin func(http.Handler) http.Handler
	limiter      httpx.Limiter
	corsOrigins  []string
	readyChecks  []runtime.ReadyCheck
}

const (
	requestTimeout = 15 * time.Second
	maxBodyBytes   = 64 << 10
)

func newRouter(d routeDeps) http.Handler {
	mux := runtime.NewBaseMux(d.readyChecks...)

	bounded := func(h http.Handler, m ...httpx.Middleware) http.Handler {
		m = append(m, httpx.WithBodyLimit(maxBodyBytes), httpx.WithTimeout(requestTimeout))
		return httpx.Chain(h, m...)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return bounded(h, d.requireAdmin)
	}
	loginLimit := httpx.WithRateLimit(d.limiter, "login", d.logger, true)
	publicLimit := httpx.WithRateLimit(d.limiter, "public", d.logger, true)

	mux.Handle("/api/v1/auth/login", bounded(http.HandlerFunc(d.auth.Login), loginLimit))
	mux.Handle("/api/v1/auth/refresh", bounded(http.HandlerFunc(d.auth.Refresh), loginLimit))
	mux.Handle("/api/v1/auth/logout", bounded(http.HandlerFunc(d.auth.Logout)))
	mux.Handle("/api/v1/auth/session", admin(d.auth.Session))

	mux.Handle("/api/v1/shop-status", bounded(d.shopStatus))
	// Long-lived; TimeoutHandler would break the hijack.
	mux.HandleFunc("/api/v1/shop-status/changes", d.hub.ServeWebSocket)

	mux.Handle("/api/v1/bookings", admin(d.bookings.Collection))
	mux.Handle("/api/v1/bookings/status", admin(d.bookings.UpdateStatus))
	mux.Handle("/api/v1/bookings/delete", admin(d.bookings.Delete))
	mux.Handle("/api/v1/public/bookings", bounded(http.HandlerFunc(d.bookings.PublicSubmit), publicWrites(publicLimit)))

	mux.Handle("/api/v1/reviews", admin(d.reviews.AdminList))
	mux.Handle("/api/v1/reviews/delete", admin(d.reviews.Delete))
	mux.Handle("/api/v1/public/reviews", bounded(http.HandlerFunc(d.reviews.Public), publicWrites(publicLimit)))

	mux.Handle("/api/v1/audit", admin(d.audit.List))

	return httpx.Chain(mux,
		httpx.WithRecover(d.logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(d.logger),
		httpx.WithCORS(httpx.DefaultCORSPolicy(d.corsOrigins)),
	)
}

// publicWrites applies limit to POSTs only so storefront reads stay unthrottled.
func publicWrites(limit httpx.Middleware) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
