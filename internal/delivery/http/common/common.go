package http_common

// Response is the envelope every JSON endpoint answers with. Handlers
// embed it in their own DTOs to add payload fields next to the flag.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func OK() Response {
	return Response{Success: true}
}

func Fail(message string) Response {
	return Response{Success: false, Message: message}
}

const (
	// SessionCookie carries the opaque redis session token.
	SessionCookie = "vortex_session"

	// Gin context keys set by the auth middleware.
	CtxSessionToken = "session_token"
	CtxSession      = "session"
)
