package share

import "time"

// DaySteps is one day's worth of counted steps.
type DaySteps struct {
	Date  time.Time `json:"date"`
	Steps int       `json:"steps"`
}

// MessageData is the flat bag of everything a share message can mention.
// It is assembled per request from whatever stats the caller has on hand,
// so every field is optional. Which fields are set decides which content
// blocks are available.
type MessageData struct {
	TotalSteps          *int       `json:"total_steps,omitempty"`
	DayCount            *int       `json:"day_count,omitempty"`
	StartDate           *time.Time `json:"start_date,omitempty"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	DailyAverage        *int       `json:"daily_average,omitempty"`
	PerDayBreakdown     []DaySteps `json:"per_day_breakdown,omitempty"`
	BestDay             *DaySteps  `json:"best_day,omitempty"`
	CurrentStreak       *int       `json:"current_streak,omitempty"`
	Rank                *int       `json:"rank,omitempty"`
	TotalRanked         *int       `json:"total_ranked,omitempty"`
	LeagueName          *string    `json:"league_name,omitempty"`
	LeagueAverage       *int       `json:"league_average,omitempty"`
	PreviousPeriodSteps *int       `json:"previous_period_steps,omitempty"`
	ImprovementPercent  *float64   `json:"improvement_percent,omitempty"`
}

// hasField reports whether the named data field is present and usable.
// Field names match the RequiredData lists in the block registry.
func (d *MessageData) hasField(field string) bool {
	if d == nil {
		return false
	}
	switch field {
	case "total_steps":
		return d.TotalSteps != nil
	case "day_count":
		return d.DayCount != nil
	case "start_date":
		return d.StartDate != nil
	case "end_date":
		return d.EndDate != nil
	case "daily_average":
		return d.DailyAverage != nil
	case "per_day_breakdown":
		return len(d.PerDayBreakdown) > 0
	case "best_day":
		return d.BestDay != nil
	case "current_streak":
		return d.CurrentStreak != nil
	case "rank":
		return d.Rank != nil
	case "total_ranked":
		return d.TotalRanked != nil
	case "league_name":
		return d.LeagueName != nil
	case "league_average":
		return d.LeagueAverage != nil
	case "previous_period_steps":
		return d.PreviousPeriodSteps != nil
	case "improvement_percent":
		return d.ImprovementPercent != nil
	}
	return false
}
