package core

// AuthStatus is the process-wide authentication state. It is written only by
// the session store and read by everything that needs to know whether the
// user holds a valid session.
type AuthStatus int

const (
	// StatusUnauthenticated means no valid session exists.
	StatusUnauthenticated AuthStatus = iota

	// StatusLoading means a persisted token was found and a restoration
	// check is in flight.
	StatusLoading

	// StatusAuthenticated means the backend has confirmed the session.
	StatusAuthenticated
)

func (s AuthStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Identity is what the backend reports about an authenticated session.
type Identity struct {
	Address string `json:"address"`
	Role    string `json:"role"`
}
