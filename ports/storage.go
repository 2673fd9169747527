package ports

// Storage is the durable client profile storage the session token and view
// state survive restarts in. Reads are synchronous; a failing backend is
// treated by callers as "no value", never as a fatal condition.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Fixed storage keys shared by the session store, the navigation machine and
// the preference panels. The backend reconstructs nothing from these; they
// only shape what a restart restores.
const (
	KeySessionToken = "session_token"
	KeyDashboard    = "dashboard"
	KeyActiveTab    = "active_tab"
	KeyPrefs        = "prefs"
)
