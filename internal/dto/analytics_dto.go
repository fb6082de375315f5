package dto

import "time"

type DashboardStats struct {
	TotalUsers        int64 `json:"total_users"`
	ActiveUsers       int64 `json:"active_users"`
	InactiveUsers     int64 `json:"inactive_users"`
	AdminUsers        int64 `json:"admin_users"`
	TotalIncidents    int64 `json:"total_incidents"`
	ActiveIncidents   int64 `json:"active_incidents"`
	ResolvedIncidents int64 `json:"resolved_incidents"`
	FlaggedIncidents  int64 `json:"flagged_incidents"`
	ArchivedIncidents int64 `json:"archived_incidents"`
	TotalComments     int64 `json:"total_comments"`
	FlaggedComments   int64 `json:"flagged_comments"`
	TotalReactions    int64 `json:"total_reactions"`
	NewUsersToday     int64 `json:"new_users_today"`
	NewIncidentsToday int64 `json:"new_incidents_today"`
	NewCommentsToday  int64 `json:"new_comments_today"`
}

type CategoryAnalytics struct {
	Category       string  `json:"category"`
	Count          int64   `json:"count"`
	Percentage     float64 `json:"percentage"`
	AvgComments    float64 `json:"avg_comments"`
	AvgReactions   float64 `json:"avg_reactions"`
	ResolutionRate float64 `json:"resolution_rate"`
}

type DailyIncidentPoint struct {
	Date      string `json:"date"`
	Incidents int64  `json:"incidents"`
	Resolved  int64  `json:"resolved"`
}

type CategoryTrendPoint struct {
	Date     string `json:"date"`
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type UserActivityPoint struct {
	Date     string `json:"date"`
	NewUsers int64  `json:"new_users"`
}

type TrendsResponse struct {
	DailyIncidents []DailyIncidentPoint `json:"daily_incidents"`
	CategoryTrends []CategoryTrendPoint `json:"category_trends"`
	UserActivity   []UserActivityPoint  `json:"user_activity"`
}

type ActiveUserStat struct {
	UserID        uint   `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	IncidentCount int64  `json:"incident_count"`
}

type CategoryResponseTime struct {
	Category string  `json:"category"`
	AvgHours float64 `json:"avg_hours"`
}

type PerformanceMetrics struct {
	AvgResolutionTimeHours float64                `json:"avg_resolution_time_hours"`
	MostActiveUsers        []ActiveUserStat       `json:"most_active_users"`
	CategoryResponseTimes  []CategoryResponseTime `json:"category_response_times"`
}

type UserAnalytics struct {
	UserID         uint       `json:"user_id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	IncidentsCount int64      `json:"incidents_count"`
	CommentsCount  int64      `json:"comments_count"`
	ReactionsCount int64      `json:"reactions_count"`
	LastActivity   *time.Time `json:"last_activity,omitempty"`
	AccountAgeDays int        `json:"account_age_days"`
	IsActive       bool       `json:"is_active"`
}

type UserDetailStats struct {
	TotalIncidents    int64 `json:"total_incidents"`
	ActiveIncidents   int64 `json:"active_incidents"`
	ResolvedIncidents int64 `json:"resolved_incidents"`
	TotalComments     int64 `json:"total_comments"`
	FlaggedComments   int64 `json:"flagged_comments"`
	TotalReactions    int64 `json:"total_reactions"`
}

type UserIncidentSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type UserCommentSummary struct {
	ID         uint      `json:"id"`
	Content    string    `json:"content"`
	IncidentID uint      `json:"incident_id"`
	IsFlagged  bool      `json:"is_flagged"`
	CreatedAt  time.Time `json:"created_at"`
}

type UserDetails struct {
	User            UserResponse          `json:"user"`
	Statistics      UserDetailStats       `json:"statistics"`
	RecentIncidents []UserIncidentSummary `json:"recent_incidents"`
	RecentComments  []UserCommentSummary  `json:"recent_comments"`
}

type IncidentReportRow struct {
	ID             uint                    `json:"id"`
	Title          string                  `json:"title"`
	Description    string                  `json:"description"`
	Category       string                  `json:"category"`
	Status         string                  `json:"status"`
	Location       *string                 `json:"location"`
	AuthorEmail    string                  `json:"author_email"`
	AuthorName     string                  `json:"author_name"`
	CreatedAt      string                  `json:"created_at"`
	UpdatedAt      *string                 `json:"updated_at"`
	HasImage       bool                    `json:"has_image"`
	CommentsCount  int64                   `json:"comments_count"`
	ReactionsCount int64                   `json:"reactions_count"`
	Comments       []IncidentReportComment `json:"comments,omitempty"`
}

// IncidentReportComment is a nested comment row, present only when the
// report was requested with comments included. The CSV rendering keeps the
// flat comments_count column instead.
type IncidentReportComment struct {
	ID          uint   `json:"id"`
	Content     string `json:"content"`
	AuthorEmail string `json:"author_email"`
	CreatedAt   string `json:"created_at"`
	IsFlagged   bool   `json:"is_flagged"`
}

type UserReportRow struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	IsActive       bool   `json:"is_active"`
	IsAdmin        bool   `json:"is_admin"`
	CreatedAt      string `json:"created_at"`
	IncidentsCount int64  `json:"incidents_count"`
	CommentsCount  int64  `json:"comments_count"`
	ReactionsCount int64  `json:"reactions_count"`
	TotalActivity  int64  `json:"total_activity"`
}

// Report wraps either JSON rows or rendered CSV text depending on the
// requested format.
type Report struct {
	Format      string      `json:"format"`
	Data        interface{} `json:"data"`
	Total       int         `json:"total,omitempty"`
	Filename    string      `json:"filename,omitempty"`
	GeneratedAt string      `json:"generated_at,omitempty"`
}
