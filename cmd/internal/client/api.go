package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// User is the client-side identity view, always a read-through cache of the
// server's record.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// API is the HTTP boundary to the auth server. The refresh token lives in
// the cookie jar and is never read by this code.
type API struct {
	base string
	http *http.Client
}

// APIOption configures the API client.
type APIOption func(*API)

// WithHTTPClient overrides the underlying HTTP client. A cookie jar is
// attached if the client has none, since refresh depends on it.
func WithHTTPClient(c *http.Client) APIOption {
	return func(a *API) {
		if c != nil {
			a.http = c
		}
	}
}

// NewAPI constructs an API client for the given base URL.
func NewAPI(baseURL string, opts ...APIOption) (*API, error) {
	a := &API{
		base: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	if a.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		a.http.Jar = jar
	}
	return a, nil
}

type authResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Register creates an account and returns the issued access token. The
// refresh cookie lands in the jar.
func (a *API) Register(ctx context.Context, name, email, password, confirmation string) (string, User, error) {
	var res authResult
	err := a.call(ctx, http.MethodPost, "/register", "", map[string]string{
		"name":                 name,
		"email":                email,
		"password":             password,
		"passwordConfirmation": confirmation,
	}, &res)
	if err != nil {
		return "", User{}, err
	}
	return res.Token, res.User, nil
}

// Login exchanges credentials for an access token plus refresh cookie.
func (a *API) Login(ctx context.Context, email, password string) (string, User, error) {
	var res authResult
	err := a.call(ctx, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return "", User{}, err
	}
	return res.Token, res.User, nil
}

// Refresh mints a new access token from the refresh cookie.
func (a *API) Refresh(ctx context.Context) (string, error) {
	var res struct {
		Token string `json:"token"`
	}
	if err := a.call(ctx, http.MethodPost, "/refresh", "", nil, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

// Me fetches the current identity record.
func (a *API) Me(ctx context.Context, token string) (User, error) {
	var res struct {
		User User `json:"user"`
	}
	if err := a.call(ctx, http.MethodGet, "/me", token, nil, &res); err != nil {
		return User{}, err
	}
	return res.User, nil
}

// UpdatePassword rotates the credential.
func (a *API) UpdatePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	return a.call(ctx, http.MethodPatch, "/update-password", token, map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, nil)
}

// UpdateEmail changes the account email and returns the fresh token pair's
// access half (the rotated refresh cookie lands in the jar).
func (a *API) UpdateEmail(ctx context.Context, token, newEmail, currentPassword string) (string, User, error) {
	var res authResult
	err := a.call(ctx, http.MethodPatch, "/update-email", token, map[string]string{
		"newEmail":        newEmail,
		"currentPassword": currentPassword,
	}, &res)
	if err != nil {
		return "", User{}, err
	}
	return res.Token, res.User, nil
}

// Logout asks the server to clear the refresh cookie. Always safe to call.
func (a *API) Logout(ctx context.Context) error {
	return a.call(ctx, http.MethodPost, "/logout", "", nil, nil)
}

// call performs one request and parses any failure into an APIError at this
// boundary; callers only ever see tagged errors.
func (a *API) call(ctx context.Context, method, path, token string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Kind: KindNetworkUnreachable, Message: "server unreachable"}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &APIError{Kind: KindNetworkUnreachable, Message: "response truncated"}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &APIError{Kind: KindUnknown, StatusCode: resp.StatusCode, Message: "malformed response body"}
		}
		return nil
	}

	return parseError(resp.StatusCode, data)
}

// parseError maps the server's error body onto the tagged taxonomy. Shape
// sniffing happens here and nowhere else.
func parseError(status int, data []byte) *APIError {
	var body struct {
		StatusCode int          `json:"statusCode"`
		Message    string       `json:"message"`
		Errors     []FieldError `json:"errors"`
	}
	_ = json.Unmarshal(data, &body)

	msg := strings.TrimSpace(body.Message)
	if msg == "" {
		msg = http.StatusText(status)
	}

	kind := KindUnknown
	switch status {
	case http.StatusBadRequest:
		kind = KindValidation
	case http.StatusUnauthorized:
		kind = KindAuthentication
	case http.StatusForbidden:
		kind = KindAuthorizationExpired
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusConflict:
		kind = KindConflict
	}

	return &APIError{
		Kind:       kind,
		StatusCode: status,
		Message:    msg,
		Fields:     body.Errors,
	}
}
