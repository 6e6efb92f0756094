package audit

// Actor describes the principal behind a request. Identity is established by
// the surrounding system; the engine only records and enforces against it.
type Actor struct {
	ID        string
	Role      string
	Roles     []string
	IPAddress string
	UserAgent string
	SessionID string
}
