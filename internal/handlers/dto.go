package handlers

import (
	"time"

	"notebook/internal/models"
)

// SignupRequest represents the request body for signup.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=256"`
}

// NoteRequest is the body of note create and update. Omitting tags on
// update keeps the note's current tags.
type NoteRequest struct {
	Title   string   `json:"title" validate:"required,max=128"`
	Content string   `json:"content" validate:"required,max=20000"`
	Tags    []string `json:"tags" validate:"omitempty,max=64,dive,required,max=128"`
}

type TagRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type TagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type NoteResponse struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	UserID    string        `json:"user_id"`
	Tags      []TagResponse `json:"tags"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func newNoteResponse(n *models.NoteEntity) NoteResponse {
	v := n.Values()
	tags := make([]TagResponse, 0, len(n.Tags()))
	for _, t := range n.Tags() {
		tags = append(tags, TagResponse{ID: t.ID, Name: t.Name})
	}
	return NoteResponse{
		ID:        v.ID,
		Title:     v.Title,
		Content:   v.Content,
		UserID:    v.UserID,
		Tags:      tags,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}
