package user

import (
	"time"

	"github.com/google/uuid"
)

const DefaultAvatar = "profile-pic.png"

type User struct {
	ID           uuid.UUID `json:"id"`
	ClerkID      *string   `json:"clerkId,omitempty"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Age          int       `json:"age"`
	Weight       float64   `json:"weight"`
	Height       float64   `json:"height"`
	Gender       string    `json:"gender"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
