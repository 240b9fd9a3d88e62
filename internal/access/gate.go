package access

// State is the outcome of evaluating the gate for one request.
type State int

const (
	// Resolving means the session has not finished its authorization lookup.
	Resolving State = iota
	// Unauthenticated means there is no signed-in identity.
	Unauthenticated
	// Unauthorized means the identity has no authorization record.
	Unauthorized
	// Underprivileged means the record's role ranks below the requirement.
	Underprivileged
	// Authorized means the protected content may be served.
	Authorized
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Unauthenticated:
		return "unauthenticated"
	case Unauthorized:
		return "unauthorized"
	case Underprivileged:
		return "underprivileged"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Input holds everything the gate looks at.
type Input struct {
	Loading  bool
	Identity string
	Record   *Record
	Required Role
}

// Decide evaluates the gate. The checks run in the order of the State
// constants and the first match wins.
func Decide(in Input) State {
	switch {
	case in.Loading:
		return Resolving
	case in.Identity == "":
		return Unauthenticated
	case in.Record == nil:
		return Unauthorized
	case !in.Record.Role.Satisfies(in.Required):
		return Underprivileged
	default:
		return Authorized
	}
}
