package share

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSelectionPullsInPrerequisites(t *testing.T) {
	got, err := NormalizeSelection([]ContentBlock{BlockLeagueName})
	require.NoError(t, err)
	assert.Equal(t, []ContentBlock{BlockRank, BlockLeagueName}, got,
		"selecting league_name must also select rank, in registry order")
}

func TestNormalizeSelectionDeduplicates(t *testing.T) {
	got, err := NormalizeSelection([]ContentBlock{
		BlockTotalSteps, BlockStreak, BlockTotalSteps, BlockStreak,
	})
	require.NoError(t, err)
	assert.Equal(t, []ContentBlock{BlockTotalSteps, BlockStreak}, got)
}

func TestNormalizeSelectionRejectsUnknownBlock(t *testing.T) {
	_, err := NormalizeSelection([]ContentBlock{BlockTotalSteps, "calories"})
	assert.ErrorContains(t, err, "unknown content block")
}

func TestNormalizeSelectionEmpty(t *testing.T) {
	got, err := NormalizeSelection(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalizeSelectionKeepsRegistryOrder(t *testing.T) {
	got, err := NormalizeSelection([]ContentBlock{
		BlockImprovement, BlockStreak, BlockTotalSteps,
	})
	require.NoError(t, err)
	assert.Equal(t, []ContentBlock{
		BlockTotalSteps, BlockStreak, BlockPreviousPeriod, BlockImprovement,
	}, got)
}

func TestRemoveBlockDropsDependents(t *testing.T) {
	sel := []ContentBlock{
		BlockTotalSteps, BlockRank, BlockLeagueName, BlockLeagueAverage,
	}
	got := RemoveBlock(sel, BlockRank)
	assert.Equal(t, []ContentBlock{BlockTotalSteps}, got,
		"removing rank must also remove league_name and league_average")
}

func TestRemoveBlockLeafOnly(t *testing.T) {
	sel := []ContentBlock{BlockRank, BlockLeagueName}
	got := RemoveBlock(sel, BlockLeagueName)
	assert.Equal(t, []ContentBlock{BlockRank}, got)
}

func TestRemoveBlockAbsent(t *testing.T) {
	sel := []ContentBlock{BlockTotalSteps}
	got := RemoveBlock(sel, BlockStreak)
	assert.Equal(t, sel, got)
}

func TestDefaultBlocksPerContext(t *testing.T) {
	assert.Equal(t, []ContentBlock{
		BlockRank, BlockLeagueName, BlockTotalSteps, BlockLeagueAverage,
	}, DefaultBlocks(ContextLeagueRank))

	assert.Equal(t, []ContentBlock{
		BlockStreak, BlockTotalSteps, BlockDayCount,
	}, DefaultBlocks(ContextStreakMilestone))
}

func TestDefaultBlocksUnknownContextFallsBack(t *testing.T) {
	assert.Equal(t, DefaultBlocks(ContextBatchSubmission), DefaultBlocks("sleep_tracking"))
}

func TestDefaultBlocksAreNormalizable(t *testing.T) {
	for _, ctx := range []ShareContext{
		ContextBatchSubmission, ContextSingleDay, ContextWeeklySummary,
		ContextLeagueRank, ContextStreakMilestone,
	} {
		_, err := NormalizeSelection(DefaultBlocks(ctx))
		assert.NoError(t, err, "context %s", ctx)
	}
}
