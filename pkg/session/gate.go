package session

import (
	"sync"
	"time"
)

// Route names a screen.
type Route string

const (
	RouteSignIn       Route = "sign-in"
	RouteHome         Route = "home"
	RouteCreate       Route = "create"
	RouteProfile      Route = "profile"
	RouteResults      Route = "results"
	RouteRecipe       Route = "recipe"
	RouteCategory     Route = "category"
	RouteSaved        Route = "saved"
	RouteMealTracked  Route = "meal-tracked"
	RouteMealsHistory Route = "meals-history"
)

// Tabs are the routes of the tabbed area, in tab bar order.
var Tabs = []Route{RouteHome, RouteCreate, RouteProfile}

// Tabbed reports whether r is one of the tab routes.
func (r Route) Tabbed() bool {
	for _, t := range Tabs {
		if r == t {
			return true
		}
	}
	return false
}

// Gate decides which route is shown for a requested one, based on the
// current session. Every route except sign-in needs a valid session.
type Gate struct {
	mu      sync.RWMutex
	session *Session
	now     func() time.Time
}

func NewGate(s *Session) *Gate {
	return &Gate{session: s, now: time.Now}
}

// Resolve maps a requested route to the one to display.
func (g *Gate) Resolve(r Route) Route {
	signedIn := g.SignedIn()
	switch {
	case r == RouteSignIn && signedIn:
		return RouteHome
	case r != RouteSignIn && !signedIn:
		return RouteSignIn
	}
	return r
}

func (g *Gate) SignedIn() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session.Valid(g.now())
}

// Establish records a successful sign-in.
func (g *Gate) Establish(s *Session) {
	g.mu.Lock()
	g.session = s
	g.mu.Unlock()
}

func (g *Gate) SignOut() {
	g.mu.Lock()
	g.session = nil
	g.mu.Unlock()
}

// Session returns the current session, ErrSignedOut or ErrExpired.
func (g *Gate) Session() (*Session, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil || g.session.Token == "" {
		return nil, ErrSignedOut
	}
	if !g.session.Valid(g.now()) {
		return nil, ErrExpired
	}
	s := *g.session
	return &s, nil
}

// Token is the bearer token for API requests, or "" when signed out.
func (g *Gate) Token() string {
	s, err := g.Session()
	if err != nil {
		return ""
	}
	return s.Token
}

// UserID is the signed-in user's id, or "".
func (g *Gate) UserID() string {
	s, err := g.Session()
	if err != nil {
		return ""
	}
	return s.UserID
}
