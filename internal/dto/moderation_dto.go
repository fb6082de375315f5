package dto

import "time"

type ModerationRequest struct {
	Action     string  `json:"action"`
	Reason     *string `json:"reason"`
	NotifyUser bool    `json:"notify_user"`
}

type BulkModerationRequest struct {
	Action  string  `json:"action"`
	ItemIDs []uint  `json:"item_ids"`
	Reason  *string `json:"reason"`
}

type BulkResult struct {
	Message   string `json:"message"`
	Processed int    `json:"processed_count"`
	Requested int    `json:"total_requested"`
}

type UserStatusRequest struct {
	IsActive bool    `json:"is_active"`
	Reason   *string `json:"reason"`
}

type AdminStatusRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// IncidentModerationItem is one row in the moderation queue, an incident
// with its engagement counts and age.
type IncidentModerationItem struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	AuthorEmail    string    `json:"author_email"`
	Location       *string   `json:"location,omitempty"`
	CommentsCount  int64     `json:"comments_count"`
	ReactionsCount int64     `json:"reactions_count"`
	DaysOpen       int       `json:"days_open"`
	CreatedAt      time.Time `json:"created_at"`
}

type CommentModerationItem struct {
	ID        uint        `json:"id"`
	Content   string      `json:"content"`
	Author    UserRef     `json:"author"`
	Incident  IncidentRef `json:"incident"`
	IsFlagged bool        `json:"is_flagged"`
	CreatedAt time.Time   `json:"created_at"`
}

type UserRef struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type IncidentRef struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type AuditLogEntry struct {
	ID         uint                   `json:"id"`
	AdminID    uint                   `json:"admin_id"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type"`
	TargetID   uint                   `json:"target_id"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Level      string                 `json:"level"`
	CreatedAt  time.Time              `json:"created_at"`
}

type AuditLogPage struct {
	Logs  []AuditLogEntry `json:"logs"`
	Total int64           `json:"total"`
}
