package share

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageJoinsBlocksInRegistryOrder(t *testing.T) {
	d := sampleData()
	msg, err := BuildMessage(d, []ContentBlock{BlockStreak, BlockTotalSteps}, BuildOptions{
		Platform: PlatformGeneric,
	})
	require.NoError(t, err)

	lines := strings.Split(msg, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "👟 52,340 steps", lines[0])
	assert.Equal(t, "🔥 12-day streak", lines[1])
}

func TestBuildMessageAppendsFooter(t *testing.T) {
	d := sampleData()
	msg, err := BuildMessage(d, []ContentBlock{BlockTotalSteps}, BuildOptions{
		Platform:       PlatformGeneric,
		IncludeHashtag: true,
		IncludeURL:     true,
		URL:            "https://stepleague.app/s/abc123",
	})
	require.NoError(t, err)

	lines := strings.Split(msg, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, DefaultHashtag, lines[1])
	assert.Equal(t, "https://stepleague.app/s/abc123", lines[2])
}

func TestBuildMessageSkipsUnavailableBlocks(t *testing.T) {
	d := &MessageData{TotalSteps: intPtr(1000)}
	msg, err := BuildMessage(d, []ContentBlock{BlockTotalSteps, BlockStreak, BlockBestDay}, BuildOptions{
		Platform: PlatformGeneric,
	})
	require.NoError(t, err)
	assert.Equal(t, "👟 1,000 steps", msg)
}

func TestBuildMessagePullsPrerequisiteIntoOutput(t *testing.T) {
	d := sampleData()
	msg, err := BuildMessage(d, []ContentBlock{BlockLeagueName}, BuildOptions{
		Platform: PlatformGeneric,
	})
	require.NoError(t, err)

	lines := strings.Split(msg, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "🥉 Ranked #3 of 25", lines[0])
	assert.Equal(t, "⚔️ Morning Milers league", lines[1])
}

func TestBuildMessageRejectsUnknownBlock(t *testing.T) {
	_, err := BuildMessage(sampleData(), []ContentBlock{"calories"}, BuildOptions{})
	assert.ErrorContains(t, err, "unknown content block")
}

func TestBuildMessageEmptySelectionFooterOnly(t *testing.T) {
	msg, err := BuildMessage(&MessageData{}, nil, BuildOptions{
		Platform:       PlatformTwitter,
		IncludeHashtag: true,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultHashtag, msg)
}

func TestBuildMessageNeverExceedsBudget(t *testing.T) {
	d := sampleData()
	// A wide breakdown forces truncation on the tight platforms.
	d.PerDayBreakdown = nil
	for i := 0; i < 30; i++ {
		d.PerDayBreakdown = append(d.PerDayBreakdown, DaySteps{
			Date:  d.StartDate.AddDate(0, 0, i),
			Steps: 7000 + i*111,
		})
	}

	for _, p := range []Platform{PlatformTwitter, PlatformBluesky, PlatformMastodon, PlatformWhatsApp, PlatformGeneric} {
		msg, err := BuildMessage(d, AllBlocks(), BuildOptions{
			Platform:       p,
			IncludeHashtag: true,
			IncludeURL:     true,
			URL:            "https://stepleague.app/s/abc123",
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, utf8.RuneCountInString(msg), p.MaxLength(), "platform %s", p)
	}
}

func TestTruncationPreservesFooter(t *testing.T) {
	d := sampleData()
	for i := 0; i < 30; i++ {
		d.PerDayBreakdown = append(d.PerDayBreakdown, DaySteps{
			Date:  d.StartDate.AddDate(0, 0, i),
			Steps: 7000,
		})
	}

	url := "https://stepleague.app/s/abc123"
	msg, err := BuildMessage(d, AllBlocks(), BuildOptions{
		Platform:       PlatformTwitter,
		IncludeHashtag: true,
		IncludeURL:     true,
		URL:            url,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(msg, DefaultHashtag+"\n"+url),
		"footer must survive truncation intact")
	assert.Contains(t, msg, ellipsis)
}

func TestTruncationKeepsWholeLines(t *testing.T) {
	d := sampleData()
	for i := 0; i < 30; i++ {
		d.PerDayBreakdown = append(d.PerDayBreakdown, DaySteps{
			Date:  d.StartDate.AddDate(0, 0, i),
			Steps: 7000,
		})
	}

	msg, err := BuildMessage(d, AllBlocks(), BuildOptions{
		Platform:       PlatformTwitter,
		IncludeHashtag: true,
	})
	require.NoError(t, err)

	// Every content line before the ellipsis is a complete rendered line,
	// never a mid-line cut.
	body := strings.Split(msg, ellipsis)[0]
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			continue
		}
		assert.NotEqual(t, " ", line[len(line)-1:])
	}
	assert.Equal(t, "👟 52,340 steps", strings.Split(msg, "\n")[0])
}

func TestTruncateFirstLineDoesNotFit(t *testing.T) {
	long := strings.Repeat("x", 50)
	out := truncate([]string{long}, "#tag", 20)
	assert.Equal(t, "...\n#tag", out)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 20)
}

func TestTruncateNoFooter(t *testing.T) {
	out := truncate([]string{"aaaa", "bbbb", "cccc"}, "", 12)
	assert.Equal(t, "aaaa\nbbbb...", out)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 12)
}

func TestPlatformBudgets(t *testing.T) {
	assert.Equal(t, 280, PlatformTwitter.MaxLength())
	assert.Equal(t, 300, PlatformBluesky.MaxLength())
	assert.Equal(t, 500, PlatformMastodon.MaxLength())
	assert.Equal(t, 1000, Platform("carrier_pigeon").MaxLength())
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", formatCount(0))
	assert.Equal(t, "999", formatCount(999))
	assert.Equal(t, "1,000", formatCount(1000))
	assert.Equal(t, "52,340", formatCount(52340))
	assert.Equal(t, "1,234,567", formatCount(1234567))
	assert.Equal(t, "-12,000", formatCount(-12000))
}

func TestRenderImprovementSign(t *testing.T) {
	d := &MessageData{ImprovementPercent: floatPtr(12.5)}
	assert.Equal(t, "🚀 +12.5% vs last period", renderImprovement(d))

	d.ImprovementPercent = floatPtr(-4.2)
	assert.Equal(t, "🚀 -4.2% vs last period", renderImprovement(d))
}

func TestRenderDateRange(t *testing.T) {
	start := time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.August, 23, 0, 0, 0, 0, time.UTC)

	d := &MessageData{StartDate: &start, EndDate: &end}
	assert.Equal(t, "📅 Aug 17 - Aug 23", renderDateRange(d))

	d.EndDate = &start
	assert.Equal(t, "📅 Aug 17", renderDateRange(d))

	d.EndDate = nil
	assert.Empty(t, renderDateRange(d))
}
