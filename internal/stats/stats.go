package stats

// PeriodStat is one aggregation window's totals.
type PeriodStat struct {
	Period     string `json:"period"` // "week", "month", "year", "all_time"
	TotalSteps int    `json:"total_steps"`
	ActiveDays int    `json:"active_days" db:"active_days"`
	TotalDays  int    `json:"total_days"`
}

type UserStats struct {
	TodaySteps     int     `json:"today_steps"`
	StepsThisWeek  int     `json:"steps_this_week"`
	StepsThisMonth int     `json:"steps_this_month"`
	StepsThisYear  int     `json:"steps_this_year"`
	TotalSteps     int     `json:"total_steps"`
	ActiveDays     int     `json:"active_days"`
	DailyAverage   int     `json:"daily_average"`
	BestDaySteps   int     `json:"best_day_steps"`
	BestDayDate    *string `json:"best_day_date,omitempty"`
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
	FriendsCount   int     `json:"friends_count"`
	Rank           int     `json:"rank"`
}
