package store

type IdentityKind int

const (
	IdentityNone IdentityKind = iota
	IdentityAnonymous
	IdentityAuthenticated
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityAuthenticated:
		return "authenticated"
	case IdentityAnonymous:
		return "anonymous"
	default:
		return "none"
	}
}

// Identity is whoever a request acts on behalf of. A user id always wins over
// a session id when both are present.
type Identity struct {
	UserID    string
	SessionID string
	Email     string
	Role      string
}

func (i Identity) Kind() IdentityKind {
	switch {
	case i.UserID != "":
		return IdentityAuthenticated
	case i.SessionID != "":
		return IdentityAnonymous
	default:
		return IdentityNone
	}
}

func (i Identity) IsAdmin() bool {
	return i.UserID != "" && i.Role == "admin"
}
