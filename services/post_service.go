package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/internal/store"
	"fitChallengeAPI/internal/types/post"

	"github.com/google/uuid"
)

type PostService struct {
	posts    store.PostStore
	users    store.UserStore
	clock    clock.Clock
	notifier Notifier
}

func NewPostService(st store.Store, clk clock.Clock) *PostService {
	return &PostService{
		posts: st,
		users: st,
		clock: clk,
	}
}

func (s *PostService) SetNotifier(n Notifier) {
	s.notifier = n
}

// ListPosts returns the feed, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]*post.Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*post.Post{}
	}
	return posts, nil
}

func (s *PostService) CreatePost(ctx context.Context, userID uuid.UUID, req *post.CreatePostRequest) (*post.Post, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, invalid("User and text are required")
	}

	author, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "User")
	}

	p := &post.Post{
		ID:     uuid.New(),
		UserID: author.ID,
		Author: author.DisplayName(),
		Text:   text,
		Date:   s.clock.Now().UTC().Truncate(time.Microsecond),
		Likes:  []uuid.UUID{},
	}
	if err := s.posts.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// LikePost adds userID to the post's likes and returns the updated post.
func (s *PostService) LikePost(ctx context.Context, userID uuid.UUID, req *post.LikePostRequest) (*post.Post, error) {
	if req.PostID == "" {
		return nil, invalid("postId is required")
	}
	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		return nil, invalid("Invalid postId")
	}

	if err := s.posts.LikePost(ctx, postID, userID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, invalid("User has already liked this post")
		}
		return nil, translate(err, "Post")
	}

	p, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, translate(err, "Post")
	}

	s.notifyLiked(ctx, userID, p)
	return p, nil
}

func (s *PostService) notifyLiked(ctx context.Context, likerID uuid.UUID, p *post.Post) {
	if s.notifier == nil || p.UserID == likerID {
		return
	}

	liker, err := s.users.GetUserByID(ctx, likerID)
	if err != nil {
		log.Printf("LikePost: could not load liker %s: %v", likerID, err)
		return
	}

	s.notifier.Notify(ctx, p.UserID, &notification.Notification{
		ID:    uuid.New(),
		Type:  notification.NotificationPostLiked,
		Title: "New like",
		Body:  fmt.Sprintf("%s liked your post", liker.DisplayName()),
		Data: map[string]string{
			"postId": p.ID.String(),
		},
		CreatedAt: s.clock.Now().UTC(),
	})
}
