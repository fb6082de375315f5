package services

import (
	"math"
	"sort"
	"time"

	"github.com/campuswatch/ireport-backend/internal/dto"
	"github.com/campuswatch/ireport-backend/internal/models"
	"gorm.io/gorm"
)

// AnalyticsService computes the admin dashboard, category, trend and
// performance figures. All aggregation is read-only.
type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// Dashboard returns the headline counters, including "new today" figures
// measured from UTC midnight.
func (s *AnalyticsService) Dashboard() (*dto.DashboardStats, error) {
	stats := &dto.DashboardStats{}
	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, s.db.Model(&models.User{})},
		{&stats.ActiveUsers, s.db.Model(&models.User{}).Where("is_active = ?", true)},
		{&stats.AdminUsers, s.db.Model(&models.User{}).Where("is_admin = ?", true)},
		{&stats.NewUsersToday, s.db.Model(&models.User{}).Where("created_at >= ?", startOfDay)},
		{&stats.TotalIncidents, s.db.Model(&models.Incident{})},
		{&stats.ActiveIncidents, s.db.Model(&models.Incident{}).Where("status = ?", models.StatusActive)},
		{&stats.ResolvedIncidents, s.db.Model(&models.Incident{}).Where("status = ?", models.StatusResolved)},
		{&stats.FlaggedIncidents, s.db.Model(&models.Incident{}).Where("status = ?", models.StatusFlagged)},
		{&stats.ArchivedIncidents, s.db.Model(&models.Incident{}).Where("status = ?", models.StatusArchived)},
		{&stats.NewIncidentsToday, s.db.Model(&models.Incident{}).Where("created_at >= ?", startOfDay)},
		{&stats.TotalComments, s.db.Model(&models.Comment{})},
		{&stats.FlaggedComments, s.db.Model(&models.Comment{}).Where("is_flagged = ?", true)},
		{&stats.NewCommentsToday, s.db.Model(&models.Comment{}).Where("created_at >= ?", startOfDay)},
		{&stats.TotalReactions, s.db.Model(&models.Reaction{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	stats.InactiveUsers = stats.TotalUsers - stats.ActiveUsers
	return stats, nil
}

// Categories returns per-category share, engagement averages and resolution
// rate, ordered by count descending with the category name breaking ties.
func (s *AnalyticsService) Categories() ([]dto.CategoryAnalytics, error) {
	var totalIncidents int64
	if err := s.db.Model(&models.Incident{}).Count(&totalIncidents).Error; err != nil {
		return nil, err
	}

	type categoryRow struct {
		Category string
		Count    int64
	}
	var rows []categoryRow
	if err := s.db.Model(&models.Incident{}).
		Select("category, COUNT(*) as count").
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]dto.CategoryAnalytics, 0, len(rows))
	for _, row := range rows {
		var resolved, totalComments, totalReactions int64
		if err := s.db.Model(&models.Incident{}).
			Where("category = ? AND status = ?", row.Category, models.StatusResolved).
			Count(&resolved).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Comment{}).
			Joins("JOIN incidents ON incidents.id = comments.incident_id").
			Where("incidents.category = ?", row.Category).
			Count(&totalComments).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Reaction{}).
			Joins("JOIN incidents ON incidents.id = reactions.incident_id").
			Where("incidents.category = ?", row.Category).
			Count(&totalReactions).Error; err != nil {
			return nil, err
		}

		percentage := 0.0
		if totalIncidents > 0 {
			percentage = float64(row.Count) / float64(totalIncidents) * 100
		}
		resolutionRate := 0.0
		avgComments := 0.0
		avgReactions := 0.0
		if row.Count > 0 {
			resolutionRate = float64(resolved) / float64(row.Count) * 100
			avgComments = float64(totalComments) / float64(row.Count)
			avgReactions = float64(totalReactions) / float64(row.Count)
		}

		out = append(out, dto.CategoryAnalytics{
			Category:       row.Category,
			Count:          row.Count,
			Percentage:     round2(percentage),
			AvgComments:    round1(avgComments),
			AvgReactions:   round1(avgReactions),
			ResolutionRate: round2(resolutionRate),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// Trends returns daily incident, category and registration series over the
// given window. Days is clamped to [1, 365].
func (s *AnalyticsService) Trends(days int) (*dto.TrendsResponse, error) {
	if days < 1 {
		days = 1
	}
	if days > 365 {
		days = 365
	}
	since := time.Now().AddDate(0, 0, -days)

	resp := &dto.TrendsResponse{
		DailyIncidents: []dto.DailyIncidentPoint{},
		CategoryTrends: []dto.CategoryTrendPoint{},
		UserActivity:   []dto.UserActivityPoint{},
	}

	type dailyRow struct {
		Date      string
		Incidents int64
		Resolved  int64
	}
	var daily []dailyRow
	err := s.db.Model(&models.Incident{}).
		Select("DATE(created_at) as date, COUNT(*) as incidents, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) as resolved", models.StatusResolved).
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date").
		Scan(&daily).Error
	if err != nil {
		return nil, err
	}
	for _, d := range daily {
		resp.DailyIncidents = append(resp.DailyIncidents, dto.DailyIncidentPoint{
			Date:      d.Date,
			Incidents: d.Incidents,
			Resolved:  d.Resolved,
		})
	}

	type categoryRow struct {
		Date     string
		Category string
		Count    int64
	}
	var byCategory []categoryRow
	err = s.db.Model(&models.Incident{}).
		Select("DATE(created_at) as date, category, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at), category").
		Order("date").
		Scan(&byCategory).Error
	if err != nil {
		return nil, err
	}
	for _, c := range byCategory {
		resp.CategoryTrends = append(resp.CategoryTrends, dto.CategoryTrendPoint{
			Date:     c.Date,
			Category: c.Category,
			Count:    c.Count,
		})
	}

	type userRow struct {
		Date     string
		NewUsers int64
	}
	var users []userRow
	err = s.db.Model(&models.User{}).
		Select("DATE(created_at) as date, COUNT(*) as new_users").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date").
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		resp.UserActivity = append(resp.UserActivity, dto.UserActivityPoint{
			Date:     u.Date,
			NewUsers: u.NewUsers,
		})
	}

	return resp, nil
}

// Performance returns resolution-time and activity metrics. Incidents that
// were never updated are excluded from the average resolution time since
// there is no timestamp to measure against.
func (s *AnalyticsService) Performance() (*dto.PerformanceMetrics, error) {
	type stampPair struct {
		Category  string
		CreatedAt time.Time
		UpdatedAt *time.Time
	}

	var resolved []stampPair
	if err := s.db.Model(&models.Incident{}).
		Select("category, created_at, updated_at").
		Where("status = ?", models.StatusResolved).
		Scan(&resolved).Error; err != nil {
		return nil, err
	}

	totalHours := 0.0
	measured := 0
	for _, p := range resolved {
		if p.UpdatedAt == nil {
			continue
		}
		totalHours += p.UpdatedAt.Sub(p.CreatedAt).Hours()
		measured++
	}
	avgResolution := 0.0
	if measured > 0 {
		avgResolution = totalHours / float64(measured)
	}

	type activeRow struct {
		ID            uint
		FullName      string
		Email         string
		IncidentCount int64
	}
	var active []activeRow
	err := s.db.Model(&models.User{}).
		Select("users.id, users.full_name, users.email, COUNT(incidents.id) as incident_count").
		Joins("LEFT JOIN incidents ON incidents.author_id = users.id").
		Group("users.id, users.full_name, users.email").
		Order("incident_count DESC").
		Limit(10).
		Scan(&active).Error
	if err != nil {
		return nil, err
	}

	var all []stampPair
	if err := s.db.Model(&models.Incident{}).
		Select("category, created_at, updated_at").
		Scan(&all).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	hoursByCategory := map[string]float64{}
	countByCategory := map[string]int{}
	for _, p := range all {
		end := now
		if p.UpdatedAt != nil {
			end = *p.UpdatedAt
		}
		hoursByCategory[p.Category] += end.Sub(p.CreatedAt).Hours()
		countByCategory[p.Category]++
	}

	categories := make([]string, 0, len(hoursByCategory))
	for category := range hoursByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	metrics := &dto.PerformanceMetrics{
		AvgResolutionTimeHours: round2(avgResolution),
		MostActiveUsers:        []dto.ActiveUserStat{},
		CategoryResponseTimes:  []dto.CategoryResponseTime{},
	}
	for _, a := range active {
		metrics.MostActiveUsers = append(metrics.MostActiveUsers, dto.ActiveUserStat{
			UserID:        a.ID,
			Name:          a.FullName,
			Email:         a.Email,
			IncidentCount: a.IncidentCount,
		})
	}
	for _, category := range categories {
		metrics.CategoryResponseTimes = append(metrics.CategoryResponseTimes, dto.CategoryResponseTime{
			Category: category,
			AvgHours: round2(hoursByCategory[category] / float64(countByCategory[category])),
		})
	}
	return metrics, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
