package share

// ShareContext names the UI scenario a share was started from. Each context
// maps to a preset block selection.
type ShareContext string

const (
	ContextBatchSubmission ShareContext = "batch_submission"
	ContextSingleDay       ShareContext = "single_day"
	ContextWeeklySummary   ShareContext = "weekly_summary"
	ContextLeagueRank      ShareContext = "league_rank"
	ContextStreakMilestone ShareContext = "streak_milestone"
)

var contextDefaults = map[ShareContext][]ContentBlock{
	ContextBatchSubmission: {
		BlockTotalSteps, BlockDateRange, BlockDayCount, BlockDailyAverage,
	},
	ContextSingleDay: {
		BlockTotalSteps, BlockDateRange, BlockStreak,
	},
	ContextWeeklySummary: {
		BlockTotalSteps, BlockDateRange, BlockDailyAverage, BlockBestDay, BlockStreak,
	},
	ContextLeagueRank: {
		BlockRank, BlockLeagueName, BlockTotalSteps, BlockLeagueAverage,
	},
	ContextStreakMilestone: {
		BlockStreak, BlockTotalSteps, BlockDayCount,
	},
}

// DefaultBlocks returns the preset selection for a context. Unknown contexts
// fall back to the batch submission preset.
func DefaultBlocks(c ShareContext) []ContentBlock {
	preset, ok := contextDefaults[c]
	if !ok {
		preset = contextDefaults[ContextBatchSubmission]
	}
	out := make([]ContentBlock, len(preset))
	copy(out, preset)
	return out
}
