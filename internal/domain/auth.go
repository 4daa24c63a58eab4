package domain

// ============================================================
// Auth — session + request / response types
// ============================================================

// User is the identity returned by the backend on login/registration.
type User struct {
	ID        ID     `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// DisplayName is the first name, or "User" when the backend sent none.
func (u *User) DisplayName() string {
	if u == nil || u.FirstName == "" {
		return "User"
	}
	return u.FirstName
}

// Session is the authenticated state of the client.
// Token and User are either both set or both nil.
type Session struct {
	Token string
	User  *User
	// Epoch changes on every set/clear of the session.
	Epoch uint64
}

// Authenticated reports whether both halves of the session are present.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthResponse is the body of both auth endpoints.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
}
