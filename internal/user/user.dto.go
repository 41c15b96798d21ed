package user

import "fitChallengeAPI/internal/types/challenge"

type CreateUserRequest struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Age       int     `json:"age"`
	Weight    float64 `json:"weight"`
	Height    float64 `json:"height"`
	Gender    string  `json:"gender"`
	// ClerkID links the account to a Clerk identity when AUTH_PROVIDER=clerk.
	ClerkID string `json:"clerkId,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	UserID string `json:"userId"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type UpdateAvatarRequest struct {
	Avatar string `json:"avatar"`
}

type UpdateBodyRequest struct {
	Age    *int     `json:"age"`
	Weight *float64 `json:"weight"`
	Height *float64 `json:"height"`
}

type ProfileResponse struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Email      string                 `json:"email"`
	Age        int                    `json:"age"`
	Height     float64                `json:"height"`
	Weight     float64                `json:"weight"`
	BMI        float64                `json:"bmi"`
	Avatar     string                 `json:"avatar"`
	Challenges []*challenge.Challenge `json:"challenges"`
}
