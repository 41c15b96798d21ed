package post

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID     uuid.UUID   `json:"id" db:"id"`
	UserID uuid.UUID   `json:"userId" db:"user_id"`
	Author string      `json:"user" db:"author"`
	Text   string      `json:"text" db:"text"`
	Date   time.Time   `json:"date" db:"created_at"`
	Likes  []uuid.UUID `json:"likes"`
}

type CreatePostRequest struct {
	Text string `json:"text"`
}

type LikePostRequest struct {
	PostID string `json:"postId"`
}
