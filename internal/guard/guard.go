package guard

const (
	HomePath     = "/"
	PostsPath    = "/posts"
	PostPath     = "/posts/{id}"
	ProfilePath  = "/profile"
	LoginPath    = "/login"
	RegisterPath = "/register"
)

// Decision is the outcome of a guard, an empty Redirect lets navigation through.
type Decision struct {
	Redirect string
}

func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

// Guard decides on token presence alone and never waits for the profile.
type Guard interface {
	Decide(authenticated bool) Decision
}

// AuthOnly sends anonymous sessions to the login route.
type AuthOnly struct{}

func (AuthOnly) Decide(authenticated bool) Decision {
	if !authenticated {
		return Decision{Redirect: LoginPath}
	}
	return Decision{}
}

// GuestOnly sends authenticated sessions home.
type GuestOnly struct{}

func (GuestOnly) Decide(authenticated bool) Decision {
	if authenticated {
		return Decision{Redirect: HomePath}
	}
	return Decision{}
}

type Public struct{}

func (Public) Decide(bool) Decision {
	return Decision{}
}
