package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/utiibeauty/parlour/libs/auth"
	"github.com/utiibeauty/parlour/libs/httpx"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/audit"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/sessions"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/storage"
)

type TokenSigner interface {
	TokenVerifier
	Issue(sub, email, role string, ttl time.Duration) (string, auth.Claims, error)
}

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (storage.Admin, error)
	GetByID(ctx context.Context, id string) (storage.Admin, error)
}

type RefreshStore interface {
	Create(ctx context.Context, adminID string, rawToken string, expiresAt time.Time) (string, error)
	GetByHash(ctx context.Context, hash string) (sessions.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
}

// Auditor records admin actions. Failures are logged, never surfaced.
type Auditor interface {
	Record(ctx context.Context, eventType string, actorID string, metadata map[string]any) error
}

type AuthHandler struct {
	signer     TokenSigner
	admins     AdminStore
	refresh    RefreshStore
	audit      Auditor
	logger     *slog.Logger
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthHandler(
	signer TokenSigner,
	admins AdminStore,
	refresh RefreshStore,
	auditor Auditor,
	logger *slog.Logger,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) *AuthHandler {
	return &AuthHandler{
		signer:     signer,
		admins:     admins,
		refresh:    refresh,
		audit:      auditor,
		logger:     logger,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	Email        string    `json:"email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	AdminID   string    `json:"admin_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	admin, err := h.admins.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "invalid login credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("admin lookup failed", "err", err)
		http.Error(w, "failed to load admin", http.StatusInternalServerError)
		return
	}
	if !admin.CheckPassword(req.Password) {
		http.Error(w, "invalid login credentials", http.StatusUnauthorized)
		return
	}

	resp, ok := h.issueTokens(w, r, admin)
	if !ok {
		return
	}
	h.record(r.Context(), audit.EventLogin, admin.ID, nil)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		http.Error(w, "refresh token required", http.StatusBadRequest)
		return
	}

	stored, err := h.refresh.GetByHash(r.Context(), sessions.HashToken(req.RefreshToken))
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		http.Error(w, "failed to load refresh token", http.StatusInternalServerError)
		return
	}
	if !stored.Active(h.now()) {
		http.Error(w, "refresh token expired or revoked", http.StatusUnauthorized)
		return
	}

	admin, err := h.admins.GetByID(r.Context(), stored.AdminID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		http.Error(w, "failed to load admin", http.StatusInternalServerError)
		return
	}
	if err := h.refresh.Revoke(r.Context(), stored.ID); err != nil {
		if errors.Is(err, sessions.ErrAlreadyRevoked) {
			http.Error(w, "refresh token expired or revoked", http.StatusUnauthorized)
			return
		}
		http.Error(w, "failed to revoke refresh token", http.StatusInternalServerError)
		return
	}

	resp, ok := h.issueTokens(w, r, admin)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Logout revokes the refresh token. Unknown tokens are not an error.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		http.Error(w, "refresh token required", http.StatusBadRequest)
		return
	}

	stored, err := h.refresh.GetByHash(r.Context(), sessions.HashToken(req.RefreshToken))
	if err != nil {
		if storage.IsNotFound(err) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "failed to load refresh token", http.StatusInternalServerError)
		return
	}
	if err := h.refresh.Revoke(r.Context(), stored.ID); err != nil {
		if errors.Is(err, sessions.ErrAlreadyRevoked) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "failed to revoke refresh token", http.StatusInternalServerError)
		return
	}
	h.record(r.Context(), audit.EventLogout, stored.AdminID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Session reports the identity behind the bearer token. Mount behind RequireAdmin.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		AdminID:   claims.Sub,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.Expiry(),
	})
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, admin storage.Admin) (tokenResponse, bool) {
	access, claims, err := h.signer.Issue(admin.ID, admin.Email, auth.RoleAdmin, h.accessTTL)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return tokenResponse{}, false
	}
	raw, err := sessions.NewRawToken()
	if err != nil {
		http.Error(w, "failed to issue refresh token", http.StatusInternalServerError)
		return tokenResponse{}, false
	}
	if _, err := h.refresh.Create(r.Context(), admin.ID, raw, h.now().Add(h.refreshTTL)); err != nil {
		http.Error(w, "failed to issue refresh token", http.StatusInternalServerError)
		return tokenResponse{}, false
	}
	return tokenResponse{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresAt:    claims.Expiry(),
		Email:        admin.Email,
	}, true
}

func (h *AuthHandler) record(ctx context.Context, eventType, actor string, metadata map[string]any) {
	recordAudit(ctx, h.audit, h.logger, eventType, actor, metadata)
}

func recordAudit(ctx context.Context, a Auditor, logger *slog.Logger, eventType, actor string, metadata map[string]any) {
	if a == nil {
		return
	}
	if err := a.Record(ctx, eventType, actor, metadata); err != nil {
		logger.Warn("audit record failed", "err", err, "event_type", eventType)
	}
}
