package auth

// LoginRequest carries the commerce API credentials.
type LoginRequest struct {
	UserName string `json:"userName" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a customer account in the commerce API.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// StatusResponse reports whether the session is logged in.
type StatusResponse struct {
	Authenticated bool `json:"authenticated"`
}
