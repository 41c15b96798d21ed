package handlers

import (
	"context"
	"net/http"
	"time"

	"fitChallengeAPI/internal/types/post"
	"fitChallengeAPI/middleware"
	"fitChallengeAPI/services"
)

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	posts, err := h.postService.ListPosts(ctx)
	if err != nil {
		respondWithServiceError(w, "ListPosts", err)
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req post.CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.postService.CreatePost(ctx, userID, &req)
	if err != nil {
		respondWithServiceError(w, "CreatePost", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *PostHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req post.LikePostRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.postService.LikePost(ctx, userID, &req)
	if err != nil {
		respondWithServiceError(w, "LikePost", err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}
