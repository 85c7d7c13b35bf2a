package share

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func sampleData() *MessageData {
	start := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	return &MessageData{
		TotalSteps:   intPtr(52340),
		DayCount:     intPtr(7),
		StartDate:    timePtr(start),
		EndDate:      timePtr(end),
		DailyAverage: intPtr(7477),
		PerDayBreakdown: []DaySteps{
			{Date: start, Steps: 6100},
			{Date: start.AddDate(0, 0, 1), Steps: 8200},
		},
		BestDay:             &DaySteps{Date: end, Steps: 9001},
		CurrentStreak:       intPtr(12),
		Rank:                intPtr(3),
		TotalRanked:         intPtr(25),
		LeagueName:          strPtr("Morning Milers"),
		LeagueAverage:       intPtr(6200),
		PreviousPeriodSteps: intPtr(48000),
		ImprovementPercent:  floatPtr(9.0),
	}
}

func TestAvailableWithFullData(t *testing.T) {
	got := Available(sampleData())
	assert.ElementsMatch(t, AllBlocks(), got, "fully populated data makes every block available")
}

func TestAvailableRequiresAllFields(t *testing.T) {
	d := sampleData()
	d.TotalRanked = nil // rank needs both rank and total_ranked

	got := Available(d)
	assert.NotContains(t, got, BlockRank)
	assert.False(t, IsAvailable(d, BlockRank))
	assert.True(t, IsAvailable(d, BlockTotalSteps))
}

func TestAvailableEmptyData(t *testing.T) {
	assert.Empty(t, Available(&MessageData{}))
	assert.Empty(t, Available(nil))
}

func TestAvailablePerDayBreakdownNeedsEntries(t *testing.T) {
	d := &MessageData{PerDayBreakdown: []DaySteps{}}
	assert.False(t, IsAvailable(d, BlockPerDayBreakdown))

	d.PerDayBreakdown = []DaySteps{{Date: time.Now(), Steps: 100}}
	assert.True(t, IsAvailable(d, BlockPerDayBreakdown))
}

func TestConfigKnownAndUnknown(t *testing.T) {
	c, ok := Config(BlockLeagueName)
	require.True(t, ok)
	assert.Equal(t, CategoryLeague, c.Category)
	assert.Equal(t, []ContentBlock{BlockRank}, c.Requires)

	_, ok = Config(ContentBlock("steps_per_beer"))
	assert.False(t, ok)
}

func TestRegistryIsClosedSetOfTwelve(t *testing.T) {
	assert.Len(t, AllBlocks(), 12)
}
