package client

// Decision is a route guard's verdict for one navigation attempt.
type Decision int

const (
	// DecisionAllow: the session state satisfies the route's requirement.
	DecisionAllow Decision = iota

	// DecisionWait: the session is still settling; render nothing yet and
	// re-evaluate once hydration finishes.
	DecisionWait

	// DecisionRedirect: the requirement cannot be met; send the visitor to
	// the decision's Target.
	DecisionRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionRedirect:
		return "redirect"
	default:
		return "allow"
	}
}

// Verdict pairs a Decision with the redirect target when one applies.
type Verdict struct {
	Decision Decision
	Target   string
}

// Guard evaluates session state against per-route requirements. Targets
// are configurable so the package stays routing-framework agnostic.
type Guard struct {
	controller *Controller

	// LoginTarget receives unauthenticated visitors of protected routes.
	LoginTarget string
	// HomeTarget receives authenticated visitors of guest-only routes.
	HomeTarget string
}

// NewGuard builds a guard with conventional defaults.
func NewGuard(c *Controller) *Guard {
	return &Guard{
		controller:  c,
		LoginTarget: "/login",
		HomeTarget:  "/",
	}
}

// RequireAuth protects a route that needs an authenticated session.
// Unsettled states wait rather than redirect, so a page reload with a
// valid stored token never bounces through the login screen.
func (g *Guard) RequireAuth() Verdict {
	switch g.controller.Snapshot().State {
	case StateAuthenticated:
		return Verdict{Decision: DecisionAllow}
	case StateUninitialized, StateHydrating:
		return Verdict{Decision: DecisionWait}
	default:
		return Verdict{Decision: DecisionRedirect, Target: g.LoginTarget}
	}
}

// RequireGuest protects a route meant only for logged-out visitors, such
// as the login and registration forms.
func (g *Guard) RequireGuest() Verdict {
	switch g.controller.Snapshot().State {
	case StateAnonymous:
		return Verdict{Decision: DecisionAllow}
	case StateUninitialized, StateHydrating:
		return Verdict{Decision: DecisionWait}
	default:
		return Verdict{Decision: DecisionRedirect, Target: g.HomeTarget}
	}
}
