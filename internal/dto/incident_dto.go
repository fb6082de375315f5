package dto

import "time"

type CreateIncidentRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Location    *string `json:"location"`
}

type UpdateIncidentRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
}

type IncidentResponse struct {
	ID            uint              `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	Status        string            `json:"status"`
	Location      *string           `json:"location,omitempty"`
	ImageURL      *string           `json:"image_url,omitempty"`
	Author        UserResponse      `json:"author"`
	CommentCount  int64             `json:"comment_count"`
	ReactionCount int64             `json:"reaction_count"`
	Reactions     map[string]int64  `json:"reactions,omitempty"`
	UserReaction  *string           `json:"user_reaction,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     *time.Time        `json:"updated_at,omitempty"`
}

type IncidentListResponse struct {
	Incidents []IncidentResponse `json:"incidents"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	PerPage   int                `json:"per_page"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type CommentResponse struct {
	ID         uint         `json:"id"`
	Content    string       `json:"content"`
	Author     UserResponse `json:"author"`
	IncidentID uint         `json:"incident_id"`
	IsFlagged  bool         `json:"is_flagged"`
	CreatedAt  time.Time    `json:"created_at"`
}

type ReactionRequest struct {
	Type string `json:"type"`
}

// ReactionResponse reports the outcome of a toggle: "added", "removed" or
// "updated", plus the new per-type counts for the incident.
type ReactionResponse struct {
	Result string           `json:"result"`
	Counts map[string]int64 `json:"counts"`
}
