package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"authstarter/cmd/identity"
	"authstarter/cmd/internal/auth/token"

	"github.com/prometheus/client_golang/prometheus"
)

// dummyPassword satisfies the account policy so its hash exercises the same
// Argon2id cost as a real credential.
const dummyPassword = "Dummy-t1ming-0nly!"

// Handler wires the auth HTTP endpoints to the identity store and token
// manager.
type Handler struct {
	log    *slog.Logger
	cfg    Config
	store  identity.Store
	tokens *token.Manager

	metrics *metrics

	// dummyHash is verified against when login targets an unknown email,
	// so the missing-user and wrong-password paths share a timing class.
	dummyHash string
}

// NewHandler constructs an auth Handler. reg may be nil to skip metrics
// registration (tests).
func NewHandler(log *slog.Logger, store identity.Store, tokens *token.Manager, cfg Config, reg prometheus.Registerer) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("authapi: nil identity store")
	}
	if tokens == nil {
		return nil, errors.New("authapi: nil token manager")
	}

	h := &Handler{
		log:     log,
		cfg:     cfg,
		store:   store,
		tokens:  tokens,
		metrics: newMetrics(reg),
	}

	if hash, err := identity.HashPassword(dummyPassword); err == nil {
		h.dummyHash = hash
	} else {
		log.Warn("auth.dummy_hash.fail", "err", err)
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/refresh", h.handleRefresh)
	mux.HandleFunc("/me", h.handleMe)
	mux.HandleFunc("/update-password", h.handleUpdatePassword)
	mux.HandleFunc("/update-email", h.handleUpdateEmail)
	mux.HandleFunc("/logout", h.handleLogout)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if fields := validateRegister(req); len(fields) > 0 {
		h.metrics.observe("register", "invalid")
		h.writeError(w, http.StatusBadRequest, "validation failed", fields)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	// Uniqueness is enforced by the store's atomic constraint; a concurrent
	// duplicate surfaces as the same conflict a sequential one would.
	u, err := h.store.CreateUser(ctx, identity.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Now:      now,
	})
	if err != nil {
		h.metrics.observe("register", "fail")
		h.writeStoreError(w, "auth.register", err)
		return
	}

	pair, err := h.tokens.IssuePair(u.ID, u.Email, now)
	if err != nil {
		h.log.Error("auth.register.issue.fail", "err", err)
		h.writeError(w, http.StatusInternalServerError, msgInternalError, nil)
		return
	}

	h.metrics.observe("register", "ok")
	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExp, now)
	writeJSON(w, http.StatusCreated, authResponse{
		Token: pair.AccessToken,
		User:  toUserResponse(u),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if fields := validateLogin(req); len(fields) > 0 {
		h.writeError(w, http.StatusBadRequest, "validation failed", fields)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	ua, err := h.store.GetUserAuthByEmail(ctx, req.Email)
	if err != nil {
		if !identity.IsNotFound(err) {
			h.log.Error("auth.login.lookup.fail", "err", err)
			h.writeError(w, http.StatusInternalServerError, msgInternalError, nil)
			return
		}
		// Unknown email: burn a verify against the dummy hash so this
		// path and the wrong-password path share a timing class, then
		// return the exact same body.
		if h.dummyHash != "" {
			_, _ = identity.VerifyPassword(req.Password, h.dummyHash)
		}
		h.metrics.observe("login", "fail")
		h.writeError(w, http.StatusUnauthorized, msgInvalidCredentials, nil)
		return
	}

	ok, err := identity.VerifyPassword(req.Password, ua.PasswordHash)
	if err != nil || !ok {
		h.metrics.observe("login", "fail")
		h.writeError(w, http.StatusUnauthorized, msgInvalidCredentials, nil)
		return
	}

	pair, err := h.tokens.IssuePair(ua.User.ID, ua.User.Email, now)
	if err != nil {
		h.log.Error("auth.login.issue.fail", "err", err)
		h.writeError(w, http.StatusInternalServerError, msgInternalError, nil)
		return
	}

	h.metrics.observe("login", "ok")
	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExp, now)
	writeJSON(w, http.StatusOK, authResponse{
		Token: pair.AccessToken,
		User:  toUserResponse(ua.User),
	})
}

// handleRefresh mints a new access token from the refresh cookie. The
// refresh token itself is not rotated here; rotation happens at login,
// register and email change only.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}

	refresh, ok := h.refreshTokenFromCookie(r)
	if !ok {
		// Missing cookie is "not authenticated", not "stop trying".
		h.writeError(w, http.StatusUnauthorized, "refresh token missing", nil)
		return
	}

	now := time.Now().UTC()
	claims, err := h.tokens.VerifyRefresh(refresh, now)
	if err != nil {
		// 403 tells the client the refresh path is dead: force logout
		// rather than retry.
		h.metrics.observe("refresh", "fail")
		h.clearRefreshCookie(w)
		h.writeError(w, http.StatusForbidden, "invalid or expired refresh token", nil)
		return
	}

	access, _, err := h.tokens.IssueAccess(claims.UserID, claims.Email, now)
	if err != nil {
		h.log.Error("auth.refresh.issue.fail", "err", err)
		h.writeError(w, http.StatusInternalServerError, msgInternalError, nil)
		return
	}

	h.metrics.observe("refresh", "ok")
	writeJSON(w, http.StatusOK, tokenResponse{Token: access})
}

// handleMe re-reads the identity record by id rather than trusting the
// token's cached email claim, so renamed or changed state is reflected and a
// deleted identity fails even with a cryptographically valid token.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodGet) {
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	u, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		h.writeStoreError(w, "auth.me", err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(u)})
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPatch) {
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	var req updatePasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if fields := validateUpdatePassword(req); len(fields) > 0 {
		h.writeError(w, http.StatusBadRequest, "validation failed", fields)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	ua, err := h.store.GetUserAuthByID(ctx, claims.UserID)
	if err != nil {
		h.writeStoreError(w, "auth.update_password", err)
		return
	}

	// Token possession alone is insufficient to change the credential.
	okPw, err := identity.VerifyPassword(req.CurrentPassword, ua.PasswordHash)
	if err != nil || !okPw {
		h.metrics.observe("update_password", "fail")
		h.writeError(w, http.StatusUnauthorized, "current password is incorrect", nil)
		return
	}

	if err := h.store.UpdatePassword(ctx, claims.UserID, req.NewPassword, now); err != nil {
		h.metrics.observe("update_password", "fail")
		h.writeStoreError(w, "auth.update_password", err)
		return
	}

	h.metrics.observe("update_password", "ok")
	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
}

// handleUpdateEmail persists the new email and issues a fresh token pair:
// the claims embed the email, so the old tokens' meaning goes stale the
// moment the store changes.
func (h *Handler) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPatch) {
		return
	}

	claims, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	var req updateEmailRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if fields := validateUpdateEmail(req); len(fields) > 0 {
		h.writeError(w, http.StatusBadRequest, "validation failed", fields)
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	ua, err := h.store.GetUserAuthByID(ctx, claims.UserID)
	if err != nil {
		h.writeStoreError(w, "auth.update_email", err)
		return
	}

	// A same-email update is rejected before the password check so it is
	// always a no-op error, regardless of credential correctness.
	if identity.NormalizeEmail(req.NewEmail) == ua.User.Email {
		h.writeError(w, http.StatusBadRequest, "validation failed", []fieldError{
			{Field: "newEmail", Message: "new email must differ from the current email"},
		})
		return
	}

	okPw, err := identity.VerifyPassword(req.CurrentPassword, ua.PasswordHash)
	if err != nil || !okPw {
		h.metrics.observe("update_email", "fail")
		h.writeError(w, http.StatusUnauthorized, "current password is incorrect", nil)
		return
	}

	u, err := h.store.UpdateEmail(ctx, claims.UserID, req.NewEmail, now)
	if err != nil {
		h.metrics.observe("update_email", "fail")
		h.writeStoreError(w, "auth.update_email", err)
		return
	}

	pair, err := h.tokens.IssuePair(u.ID, u.Email, now)
	if err != nil {
		h.log.Error("auth.update_email.issue.fail", "err", err)
		h.writeError(w, http.StatusInternalServerError, msgInternalError, nil)
		return
	}

	h.metrics.observe("update_email", "ok")
	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExp, now)
	writeJSON(w, http.StatusOK, authResponse{
		Token: pair.AccessToken,
		User:  toUserResponse(u),
	})
}

// handleLogout clears the refresh cookie without verifying anything: logging
// out an already-expired session is harmless and must not error.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !h.allowMethod(w, r, http.MethodPost) {
		return
	}

	h.metrics.observe("logout", "ok")
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

func (h *Handler) allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	h.writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	return false
}

func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (token.Claims, bool) {
	raw := bearerToken(r)
	if raw == "" {
		h.writeError(w, http.StatusUnauthorized, "missing or invalid access token", nil)
		return token.Claims{}, false
	}
	claims, err := h.tokens.VerifyAccess(raw, time.Now().UTC())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "missing or invalid access token", nil)
		return token.Claims{}, false
	}
	return claims, true
}
