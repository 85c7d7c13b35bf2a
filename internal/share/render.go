package share

import (
	"fmt"
	"strconv"
	"strings"
)

// renderFuncs maps each block to its pure formatting function. A render
// func returns "" when its data is missing; the builder filters on
// availability first, so the empty return is only a backstop.
var renderFuncs = map[ContentBlock]func(*MessageData) string{
	BlockTotalSteps:      renderTotalSteps,
	BlockDateRange:       renderDateRange,
	BlockDayCount:        renderDayCount,
	BlockDailyAverage:    renderDailyAverage,
	BlockPerDayBreakdown: renderPerDayBreakdown,
	BlockBestDay:         renderBestDay,
	BlockStreak:          renderStreak,
	BlockRank:            renderRank,
	BlockLeagueName:      renderLeagueName,
	BlockLeagueAverage:   renderLeagueAverage,
	BlockPreviousPeriod:  renderPreviousPeriod,
	BlockImprovement:     renderImprovement,
}

func renderTotalSteps(d *MessageData) string {
	if d.TotalSteps == nil {
		return ""
	}
	return fmt.Sprintf("👟 %s steps", formatCount(*d.TotalSteps))
}

func renderDateRange(d *MessageData) string {
	if d.StartDate == nil || d.EndDate == nil {
		return ""
	}
	start, end := *d.StartDate, *d.EndDate
	if start.Equal(end) || start.Format("2006-01-02") == end.Format("2006-01-02") {
		return fmt.Sprintf("📅 %s", start.Format("Jan 2"))
	}
	return fmt.Sprintf("📅 %s - %s", start.Format("Jan 2"), end.Format("Jan 2"))
}

func renderDayCount(d *MessageData) string {
	if d.DayCount == nil {
		return ""
	}
	if *d.DayCount == 1 {
		return "🗓️ 1 day of movement"
	}
	return fmt.Sprintf("🗓️ %d days of movement", *d.DayCount)
}

func renderDailyAverage(d *MessageData) string {
	if d.DailyAverage == nil {
		return ""
	}
	return fmt.Sprintf("📊 %s steps/day average", formatCount(*d.DailyAverage))
}

func renderPerDayBreakdown(d *MessageData) string {
	if len(d.PerDayBreakdown) == 0 {
		return ""
	}
	lines := make([]string, 0, len(d.PerDayBreakdown))
	for _, day := range d.PerDayBreakdown {
		lines = append(lines, fmt.Sprintf("%s: %s", day.Date.Format("Mon"), formatCount(day.Steps)))
	}
	return strings.Join(lines, "\n")
}

func renderBestDay(d *MessageData) string {
	if d.BestDay == nil {
		return ""
	}
	return fmt.Sprintf("🏆 Best day: %s (%s steps)",
		d.BestDay.Date.Format("Jan 2"), formatCount(d.BestDay.Steps))
}

func renderStreak(d *MessageData) string {
	if d.CurrentStreak == nil {
		return ""
	}
	if *d.CurrentStreak == 1 {
		return "🔥 1-day streak"
	}
	return fmt.Sprintf("🔥 %d-day streak", *d.CurrentStreak)
}

func renderRank(d *MessageData) string {
	if d.Rank == nil || d.TotalRanked == nil {
		return ""
	}
	return fmt.Sprintf("%s Ranked #%d of %d", rankEmoji(*d.Rank), *d.Rank, *d.TotalRanked)
}

func renderLeagueName(d *MessageData) string {
	if d.LeagueName == nil {
		return ""
	}
	return fmt.Sprintf("⚔️ %s league", *d.LeagueName)
}

func renderLeagueAverage(d *MessageData) string {
	if d.LeagueAverage == nil {
		return ""
	}
	return fmt.Sprintf("📈 League average: %s steps", formatCount(*d.LeagueAverage))
}

func renderPreviousPeriod(d *MessageData) string {
	if d.PreviousPeriodSteps == nil {
		return ""
	}
	return fmt.Sprintf("⏮️ Last period: %s steps", formatCount(*d.PreviousPeriodSteps))
}

func renderImprovement(d *MessageData) string {
	if d.ImprovementPercent == nil {
		return ""
	}
	pct := *d.ImprovementPercent
	sign := "+"
	if pct < 0 {
		sign = ""
	}
	return fmt.Sprintf("🚀 %s%.1f%% vs last period", sign, pct)
}

func rankEmoji(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return "🏅"
}

// formatCount renders an integer with thousands separators: 1234567 ->
// "1,234,567".
func formatCount(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
