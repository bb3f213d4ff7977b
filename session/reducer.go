package session

// State is the in-memory session. Empty strings mean no active session.
type State struct {
	LoginID string
	Token   string
}

// Active reports whether a session is established.
func (s State) Active() bool {
	return s.LoginID != "" || s.Token != ""
}

// Reduce is total and pure: NewSession replaces the session, every other
// action leaves the state unchanged.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case NewSession:
		return State{LoginID: a.ID, Token: a.Token}
	default:
		return state
	}
}
