package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
// Password holds the bcrypt hash, never the plain text.
// Tokens are the currently active session tokens, oldest first.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Age       int
	Tokens    []string
	Avatar    []byte
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasToken reports whether token is one of the user's active sessions.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public strips the password hash, tokens and avatar bytes.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
