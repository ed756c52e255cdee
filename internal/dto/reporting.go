package dto

import "github.com/shopspring/decimal"

// DailyUsagePoint is one day of render/credit activity.
type DailyUsagePoint struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Renders int64  `json:"renders"`
	Credits int64  `json:"credits"`
}

// StylePopularityEntry counts renders per style.
type StylePopularityEntry struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TopUserEntry summarizes one user's activity in the period.
type TopUserEntry struct {
	UserID       string `json:"userID"`
	DisplayName  string `json:"displayName"`
	Renders      int64  `json:"renders"`
	CreditsSpent int64  `json:"creditsSpent"`
}

// UsageReport is the admin analytics payload for a lookback period.
type UsageReport struct {
	PeriodDays          int                    `json:"periodDays"`
	NewUsers            int64                  `json:"newUsers"`
	TotalRenders        int64                  `json:"totalRenders"`
	CreditsSpent        int64                  `json:"creditsSpent"`
	AvgCreditsPerRender decimal.Decimal        `json:"avgCreditsPerRender"`
	AvgRendersPerDay    decimal.Decimal        `json:"avgRendersPerDay"`
	Daily               []DailyUsagePoint      `json:"daily"`
	StylePopularity     []StylePopularityEntry `json:"stylePopularity"`
	TopUsers            []TopUserEntry         `json:"topUsers"`
}
