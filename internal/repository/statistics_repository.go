package repository

import (
	"context"
	"time"
)

// StatisticsRepository answers dashboard/reporting aggregate queries over
// alerts and incidents, adapted from the teacher's AlertStatisticsService
// onto this repo's alerts/incidents tables.
type StatisticsRepository struct {
	conn pgxIface
}

func NewStatisticsRepository(conn pgxIface) *StatisticsRepository {
	return &StatisticsRepository{conn: conn}
}

type AlertStatistics struct {
	TotalAlerts    int64           `json:"total_alerts"`
	FiringAlerts   int64           `json:"firing_alerts"`
	ResolvedAlerts int64           `json:"resolved_alerts"`
	CriticalAlerts int64           `json:"critical_alerts"`
	WarningAlerts  int64           `json:"warning_alerts"`
	InfoAlerts     int64           `json:"info_alerts"`
	BySeverity     []SeverityStats `json:"by_severity"`
	ByStatus       []StatusStats   `json:"by_status"`
	ByDay          []DailyStats    `json:"by_day"`
	TopServices    []ServiceStats  `json:"top_services"`
}

type SeverityStats struct {
	Severity string `json:"severity"`
	Count    int64  `json:"count"`
}

type StatusStats struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DailyStats struct {
	Date     string `json:"date"`
	Total    int64  `json:"total"`
	Firing   int64  `json:"firing"`
	Resolved int64  `json:"resolved"`
	Critical int64  `json:"critical"`
	Warning  int64  `json:"warning"`
}

type ServiceStats struct {
	Service    string `json:"service"`
	AlertCount int64  `json:"alert_count"`
}

// GetStatistics reports alert volume broken down by severity, status, day
// (last 7 days), and the busiest services, optionally bounded to
// [startTime, endTime], both ends inclusive.
func (r *StatisticsRepository) GetStatistics(ctx context.Context, startTime, endTime *time.Time) (*AlertStatistics, error) {
	stats := &AlertStatistics{}

	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerts
		WHERE ($1::timestamptz IS NULL OR starts_at >= $1)
			AND ($2::timestamptz IS NULL OR starts_at <= $2)
	`, startTime, endTime).Scan(&stats.TotalAlerts)
	if err != nil {
		return nil, err
	}

	err = r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerts WHERE status = 'firing'
			AND ($1::timestamptz IS NULL OR starts_at >= $1)
			AND ($2::timestamptz IS NULL OR starts_at <= $2)
	`, startTime, endTime).Scan(&stats.FiringAlerts)
	if err != nil {
		return nil, err
	}

	err = r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerts WHERE status = 'resolved'
			AND ($1::timestamptz IS NULL OR resolved_at >= $1)
			AND ($2::timestamptz IS NULL OR resolved_at <= $2)
	`, startTime, endTime).Scan(&stats.ResolvedAlerts)
	if err != nil {
		return nil, err
	}

	severityRows, err := r.conn.Query(ctx, `
		SELECT severity, COUNT(*) FROM alerts
		WHERE ($1::timestamptz IS NULL OR starts_at >= $1)
			AND ($2::timestamptz IS NULL OR starts_at <= $2)
		GROUP BY severity
	`, startTime, endTime)
	if err != nil {
		return nil, err
	}
	defer severityRows.Close()
	for severityRows.Next() {
		var s SeverityStats
		if err := severityRows.Scan(&s.Severity, &s.Count); err != nil {
			return nil, err
		}
		stats.BySeverity = append(stats.BySeverity, s)
		switch s.Severity {
		case "critical":
			stats.CriticalAlerts = s.Count
		case "warning":
			stats.WarningAlerts = s.Count
		case "info":
			stats.InfoAlerts = s.Count
		}
	}

	statusRows, err := r.conn.Query(ctx, `
		SELECT status, COUNT(*) FROM alerts
		WHERE ($1::timestamptz IS NULL OR starts_at >= $1)
			AND ($2::timestamptz IS NULL OR starts_at <= $2)
		GROUP BY status
	`, startTime, endTime)
	if err != nil {
		return nil, err
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var s StatusStats
		if err := statusRows.Scan(&s.Status, &s.Count); err != nil {
			return nil, err
		}
		stats.ByStatus = append(stats.ByStatus, s)
	}

	dayRows, err := r.conn.Query(ctx, `
		SELECT
			DATE(starts_at) AS date,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'firing') AS firing,
			COUNT(*) FILTER (WHERE status = 'resolved') AS resolved,
			COUNT(*) FILTER (WHERE severity = 'critical') AS critical,
			COUNT(*) FILTER (WHERE severity = 'warning') AS warning
		FROM alerts
		WHERE starts_at >= CURRENT_DATE - INTERVAL '7 days'
		GROUP BY DATE(starts_at)
		ORDER BY date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var d DailyStats
		if err := dayRows.Scan(&d.Date, &d.Total, &d.Firing, &d.Resolved, &d.Critical, &d.Warning); err != nil {
			return nil, err
		}
		stats.ByDay = append(stats.ByDay, d)
	}

	serviceRows, err := r.conn.Query(ctx, `
		SELECT service, COUNT(*) AS count
		FROM alerts
		WHERE status = 'firing'
			AND ($1::timestamptz IS NULL OR starts_at >= $1)
			AND ($2::timestamptz IS NULL OR starts_at <= $2)
		GROUP BY service
		ORDER BY count DESC
		LIMIT 10
	`, startTime, endTime)
	if err != nil {
		return nil, err
	}
	defer serviceRows.Close()
	for serviceRows.Next() {
		var s ServiceStats
		if err := serviceRows.Scan(&s.Service, &s.AlertCount); err != nil {
			return nil, err
		}
		stats.TopServices = append(stats.TopServices, s)
	}

	return stats, nil
}

// DashboardSummary is the at-a-glance counter set for a landing page.
type DashboardSummary struct {
	TotalChannels   int `json:"total_channels"`
	EnabledChannels int `json:"enabled_channels"`
	TotalSchedules  int `json:"total_schedules"`
	TodayAlerts     int `json:"today_alerts"`
	FiringAlerts    int `json:"firing_alerts"`
	OpenIncidents   int `json:"open_incidents"`
}

func (r *StatisticsRepository) GetDashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	summary := &DashboardSummary{}

	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM notification_channels`).Scan(&summary.TotalChannels); err != nil {
		return nil, err
	}
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM notification_channels WHERE is_active = true`).Scan(&summary.EnabledChannels); err != nil {
		return nil, err
	}
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM oncall_schedules`).Scan(&summary.TotalSchedules); err != nil {
		return nil, err
	}
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE DATE(starts_at) = CURRENT_DATE`).Scan(&summary.TodayAlerts); err != nil {
		return nil, err
	}
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE status = 'firing'`).Scan(&summary.FiringAlerts); err != nil {
		return nil, err
	}
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM incidents WHERE status != 'resolved'`).Scan(&summary.OpenIncidents); err != nil {
		return nil, err
	}

	return summary, nil
}
