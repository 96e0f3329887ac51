package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State is the controller's session phase. Consumers (route guards, UI)
// dispatch on it; transitions happen only inside the controller.
type State int

const (
	// StateUninitialized: Hydrate has not run yet. Nothing is known.
	StateUninitialized State = iota

	// StateHydrating: a stored token is being validated against the server.
	StateHydrating

	// StateAuthenticated: a verified identity is loaded.
	StateAuthenticated

	// StateAnonymous: definitively logged out.
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateHydrating:
		return "hydrating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// Snapshot is an immutable view of the session at one instant.
type Snapshot struct {
	State State
	User  User
	Err   error
}

// Controller owns the client session: it hydrates from the credential
// store, keeps the access token fresh (one silent refresh per failed
// request, serialized across concurrent callers), and reacts to external
// logouts signalled through the shared store.
type Controller struct {
	api   *API
	store *CredentialStore

	mu    sync.RWMutex
	state State
	user  User
	token string
	err   error
	// gen increments on every session-changing transition; in-flight
	// identity fetches from an older generation discard their result.
	gen uint64

	refresh singleflight.Group

	unsubscribe func()
	done        chan struct{}
}

// NewController wires a controller to its API boundary and shared store and
// starts watching for external token changes.
func NewController(api *API, store *CredentialStore) *Controller {
	c := &Controller{
		api:   api,
		store: store,
		state: StateUninitialized,
		done:  make(chan struct{}),
	}
	events, cancel := store.Subscribe()
	c.unsubscribe = cancel
	go c.watch(events)
	return c
}

// Close stops the external-event watcher. The shared store stays open; it
// may be serving other controllers.
func (c *Controller) Close() {
	c.unsubscribe()
	close(c.done)
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{State: c.state, User: c.user, Err: c.err}
}

// Hydrate restores the session from the durable store. With no stored
// token it settles anonymous without touching the network. With one, it
// validates via /me, allowing a single silent refresh if the token has
// gone stale. Any unrecoverable failure clears the stored token so the
// next load starts clean.
func (c *Controller) Hydrate(ctx context.Context) Snapshot {
	token, err := c.store.Token(ctx)
	if err != nil || token == "" {
		c.toAnonymous(err)
		return c.Snapshot()
	}

	c.mu.Lock()
	c.state = StateHydrating
	c.err = nil
	c.token = token
	gen := c.gen
	c.mu.Unlock()

	user, token, err := c.fetchIdentity(ctx, token)
	if err != nil {
		// Network trouble keeps the stored token: the session is
		// unknown, not dead.
		if KindOf(err) == KindNetworkUnreachable {
			c.toAnonymous(err)
			return c.Snapshot()
		}
		_ = c.store.ClearToken(ctx)
		c.toAnonymous(err)
		return c.Snapshot()
	}

	c.commitSession(gen, token, user)
	return c.Snapshot()
}

// Register creates an account and enters the authenticated state.
func (c *Controller) Register(ctx context.Context, name, email, password, confirmation string) error {
	c.clearErr()
	token, user, err := c.api.Register(ctx, name, email, password, confirmation)
	if err != nil {
		c.setErr(err)
		return err
	}
	return c.adoptSession(ctx, token, user)
}

// Login authenticates and enters the authenticated state.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	c.clearErr()
	token, user, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.setErr(err)
		return err
	}
	return c.adoptSession(ctx, token, user)
}

// Logout is local-first: state and storage are cleared immediately, the
// server call is best-effort in the background. A user who clicks logout
// is logged out, reachable server or not.
func (c *Controller) Logout(ctx context.Context) {
	c.toAnonymous(nil)
	_ = c.store.ClearToken(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.api.Logout(ctx)
	}()
}

// UpdatePassword rotates the credential using the current session token.
func (c *Controller) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	c.clearErr()
	err := c.authorized(ctx, func(token string) error {
		return c.api.UpdatePassword(ctx, token, currentPassword, newPassword)
	})
	if err != nil {
		c.setErr(err)
	}
	return err
}

// UpdateEmail changes the account email. On success the server rotates the
// token pair, so the new access token replaces the session's and the
// identity view is updated from the response.
func (c *Controller) UpdateEmail(ctx context.Context, newEmail, currentPassword string) error {
	c.clearErr()

	var (
		newToken string
		user     User
	)
	err := c.authorized(ctx, func(token string) error {
		var callErr error
		newToken, user, callErr = c.api.UpdateEmail(ctx, token, newEmail, currentPassword)
		return callErr
	})
	if err != nil {
		c.setErr(err)
		return err
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.commitSession(gen, newToken, user)
	return c.store.SetToken(ctx, newToken)
}

// RefreshIdentity re-fetches /me and updates the cached user.
func (c *Controller) RefreshIdentity(ctx context.Context) error {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	var user User
	err := c.authorized(ctx, func(token string) error {
		var callErr error
		user, callErr = c.api.Me(ctx, token)
		return callErr
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state != StateAuthenticated {
		// The session changed under this fetch; its result is stale.
		return nil
	}
	c.user = user
	return nil
}

// authorized runs fn with the session token, retrying exactly once after a
// silent refresh when the first attempt fails with an authentication
// error. A second authentication failure, or a dead refresh path, tears
// the session down.
func (c *Controller) authorized(ctx context.Context, fn func(token string) error) error {
	c.mu.RLock()
	token := c.token
	state := c.state
	c.mu.RUnlock()
	if state != StateAuthenticated || token == "" {
		return &APIError{Kind: KindAuthentication, Message: "not authenticated"}
	}

	err := fn(token)
	if err == nil || !IsAuthentication(err) {
		if IsAuthorizationExpired(err) {
			c.teardown(ctx, err)
		}
		return err
	}

	fresh, rerr := c.silentRefresh(ctx)
	if rerr != nil {
		if IsAuthorizationExpired(rerr) || IsAuthentication(rerr) {
			c.teardown(ctx, rerr)
		}
		return rerr
	}

	err = fn(fresh)
	if err != nil && (IsAuthentication(err) || IsAuthorizationExpired(err)) {
		// Refresh succeeded yet the token is still refused: no retry
		// loop, the session is over.
		c.teardown(ctx, err)
	}
	return err
}

// silentRefresh mints one new access token via the refresh cookie.
// Concurrent callers collapse onto a single server round trip.
func (c *Controller) silentRefresh(ctx context.Context) (string, error) {
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		token, err := c.api.Refresh(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
		if serr := c.store.SetToken(ctx, token); serr != nil {
			return "", serr
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fetchIdentity validates token against /me, allowing one silent refresh.
// It returns the (possibly replaced) token alongside the identity.
func (c *Controller) fetchIdentity(ctx context.Context, token string) (User, string, error) {
	user, err := c.api.Me(ctx, token)
	if err == nil {
		return user, token, nil
	}
	if !IsAuthentication(err) {
		return User{}, "", err
	}

	fresh, err := c.silentRefresh(ctx)
	if err != nil {
		return User{}, "", err
	}
	user, err = c.api.Me(ctx, fresh)
	if err != nil {
		return User{}, "", err
	}
	return user, fresh, nil
}

// adoptSession installs a freshly issued token + identity and persists the
// token for the next load.
func (c *Controller) adoptSession(ctx context.Context, token string, user User) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()
	c.commitSession(gen, token, user)
	return c.store.SetToken(ctx, token)
}

// commitSession moves to authenticated, unless the session advanced past
// gen in the meantime.
func (c *Controller) commitSession(gen uint64, token string, user User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.state = StateAuthenticated
	c.token = token
	c.user = user
	c.err = nil
}

// teardown ends the session after an unrecoverable auth failure.
func (c *Controller) teardown(ctx context.Context, cause error) {
	c.toAnonymous(cause)
	_ = c.store.ClearToken(ctx)
}

func (c *Controller) toAnonymous(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = StateAnonymous
	c.user = User{}
	c.token = ""
	c.err = cause
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *Controller) clearErr() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
}

// watch reacts to token changes made through the shared store by another
// controller. A clear while authenticated is an external logout; this
// instance follows suit without another storage write.
func (c *Controller) watch(events <-chan TokenEvent) {
	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.mu.Lock()
			switch {
			case ev.Token == "" && (c.state == StateAuthenticated || c.state == StateHydrating):
				c.gen++
				c.state = StateAnonymous
				c.user = User{}
				c.token = ""
				c.err = nil
			case ev.Token != "" && c.state == StateAuthenticated && ev.Token != c.token:
				// Another instance rotated the token; adopt it.
				c.token = ev.Token
			}
			c.mu.Unlock()
		}
	}
}
