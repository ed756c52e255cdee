package repositories

import (
	"context"
	"time"
)

// DailyUsage aggregates renders and credits spent for one day.
type DailyUsage struct {
	Date    time.Time
	Renders int64
	Credits int64
}

// StyleCount pairs a style name with how many renders used it.
type StyleCount struct {
	Name  string
	Count int64
}

// UserUsage aggregates one user's render activity.
type UserUsage struct {
	UserID       string
	DisplayName  string
	Renders      int64
	CreditsSpent int64
}

// ReportingRepository answers the aggregate queries behind the admin reports.
// Read-only.
type ReportingRepository interface {
	CountSignups(ctx context.Context, since time.Time) (int64, error)
	DailyUsageSince(ctx context.Context, since time.Time) ([]DailyUsage, error)
	StylePopularitySince(ctx context.Context, since time.Time) ([]StyleCount, error)
	TopUsersSince(ctx context.Context, since time.Time, limit int) ([]UserUsage, error)
}
