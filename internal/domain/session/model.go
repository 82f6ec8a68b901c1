package session

// UnknownSessionID is reported when the platform's reply does not identify a session.
const UnknownSessionID = -1

// Session is a running slot that clients can join. Tokens are set only after
// a successful Join.
type Session struct {
	ID          *int   `json:"id,omitempty"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Language    string `json:"language"`
	ClientToken string `json:"client_token,omitempty"`
	ServerToken string `json:"server_token,omitempty"`

	remote ServiceClient
}

// Remote returns the client the session was produced with.
func (s *Session) Remote() ServiceClient {
	return s.remote
}

// Joined reports whether the session carries tokens from a join.
func (s *Session) Joined() bool {
	return s.ClientToken != "" && s.ServerToken != ""
}
