package model

// Session is an authenticated handle to the backend. It is never persisted.
type Session struct {
	Token     string
	TheaterID string // empty for super-admin sessions
	Label     string // label of the credential that produced it
}

func (s Session) Scoped() bool { return s.TheaterID != "" }

// TheaterBinding pairs a session with one theater. Each binding owns
// exactly one stream subscriber and one receipt worker.
type TheaterBinding struct {
	TheaterID string
	Name      string
	Session   Session
	Printer   PrinterConfig
}

// Label is used as the logger name for the binding.
func (b TheaterBinding) Label() string {
	switch b.Name {
	case b.Session.Label:
		return b.Session.Label
	case "":
		return b.Session.Label + "." + b.TheaterID
	}
	return b.Session.Label + "." + b.Name
}
