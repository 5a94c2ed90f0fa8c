package auth

import "github.com/frahmantamala/contacthub/internal"

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SelectDivisionDTO struct {
	DivisionID *int64 `json:"divisionId"`
}

type UserResponse struct {
	User *internal.User `json:"user"`
}
