package guard

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

type Route struct {
	Name    string
	Pattern string
	Guard   Guard
}

var (
	Home     = Route{Name: "home", Pattern: HomePath, Guard: AuthOnly{}}
	Posts    = Route{Name: "posts", Pattern: PostsPath, Guard: AuthOnly{}}
	Post     = Route{Name: "post", Pattern: PostPath, Guard: AuthOnly{}}
	Profile  = Route{Name: "profile", Pattern: ProfilePath, Guard: AuthOnly{}}
	Login    = Route{Name: "login", Pattern: LoginPath, Guard: GuestOnly{}}
	Register = Route{Name: "register", Pattern: RegisterPath, Guard: GuestOnly{}}
	NotFound = Route{Name: "not-found", Guard: Public{}}

	DefaultRoutes = []Route{Home, Posts, Post, Profile, Login, Register}
)

// Match is a path resolved against the route table.
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
	Query  url.Values
}

func (m Match) Param(name string) string {
	return m.Params[name]
}

// Router matches client paths with chi patterns.
type Router struct {
	mux    *chi.Mux
	routes map[string]Route
}

func NewRouter(routes ...Route) *Router {
	r := &Router{
		mux:    chi.NewMux(),
		routes: map[string]Route{},
	}

	for _, route := range routes {
		r.mux.Get(route.Pattern, http.NotFound)
		r.routes[route.Pattern] = route
	}
	return r
}

func (r *Router) Routes() []Route {
	routes := make([]Route, 0, len(r.routes))
	for _, route := range r.mux.Routes() {
		routes = append(routes, r.routes[route.Pattern])
	}
	return routes
}

// Match resolves target, which may carry a query string. Unknown paths
// resolve to NotFound.
func (r *Router) Match(target string) Match {
	u, err := url.Parse(target)
	if err != nil || u.Path == "" {
		u = &url.URL{Path: HomePath}
	}

	rctx := chi.NewRouteContext()
	pattern := r.mux.Find(rctx, http.MethodGet, u.Path)

	route, ok := r.routes[pattern]
	if !ok {
		route = NotFound
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}

	return Match{Route: route, Path: u.Path, Params: params, Query: u.Query()}
}
