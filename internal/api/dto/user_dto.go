package dto

import (
	"time"

	"github.com/spec-kit/campusmatch/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	College  string `json:"college"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the account as its owner sees it.
type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	College    string    `json:"college,omitempty"`
	IsApproved bool      `json:"is_approved"`
	IsPremium  bool      `json:"is_premium"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		College:    u.College,
		IsApproved: u.IsApproved,
		IsPremium:  u.IsPremium,
		CreatedAt:  u.CreatedAt,
	}
}

// ProfileResponse is the public view of a member. IsSelf and Matched are
// only present for authenticated viewers.
type ProfileResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	College string `json:"college,omitempty"`
	IsSelf  *bool  `json:"is_self,omitempty"`
	Matched *bool  `json:"matched,omitempty"`
}

// ContactResponse exposes contact details to premium members.
type ContactResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
