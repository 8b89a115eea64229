package authapi

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	NICNumber string `json:"nicNumber"`
}

// LoginResponse is a successful login answer.
type LoginResponse struct {
	Message  string `json:"message,omitempty"`
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
}

// RegisterRequest is the body of POST /api/auth/register. Exactly one of
// Username or Email is set, depending on how registration is configured.
type RegisterRequest struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password"`
	NICNumber string `json:"nicNumber,omitempty"`
}

// RegisterResponse is a successful registration answer. No token is issued.
type RegisterResponse struct {
	Message string `json:"message,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}
