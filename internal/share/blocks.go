package share

// ContentBlock identifies one independently toggleable fragment of a share
// message. The set is closed; anything outside it is rejected.
type ContentBlock string

const (
	BlockTotalSteps      ContentBlock = "total_steps"
	BlockDateRange       ContentBlock = "date_range"
	BlockDayCount        ContentBlock = "day_count"
	BlockDailyAverage    ContentBlock = "daily_average"
	BlockPerDayBreakdown ContentBlock = "per_day_breakdown"
	BlockBestDay         ContentBlock = "best_day"
	BlockStreak          ContentBlock = "streak"
	BlockRank            ContentBlock = "rank"
	BlockLeagueName      ContentBlock = "league_name"
	BlockLeagueAverage   ContentBlock = "league_average"
	BlockPreviousPeriod  ContentBlock = "previous_period"
	BlockImprovement     ContentBlock = "improvement"
)

// BlockCategory groups blocks for the share composer UI.
type BlockCategory string

const (
	CategorySummary  BlockCategory = "summary"
	CategoryDetail   BlockCategory = "detail"
	CategoryLeague   BlockCategory = "league"
	CategoryProgress BlockCategory = "progress"
)

// BlockConfig is the static configuration of one content block.
type BlockConfig struct {
	Block        ContentBlock   `json:"block"`
	Label        string         `json:"label"`
	Emoji        string         `json:"emoji"`
	Category     BlockCategory  `json:"category"`
	RequiredData []string       `json:"required_data"`
	Requires     []ContentBlock `json:"requires,omitempty"`
}

// registry holds every block in render order. Order matters: the message
// builder emits selected blocks in this order, not selection order.
var registry = []BlockConfig{
	{
		Block:        BlockTotalSteps,
		Label:        "Total steps",
		Emoji:        "👟",
		Category:     CategorySummary,
		RequiredData: []string{"total_steps"},
	},
	{
		Block:        BlockDateRange,
		Label:        "Date range",
		Emoji:        "📅",
		Category:     CategorySummary,
		RequiredData: []string{"start_date", "end_date"},
	},
	{
		Block:        BlockDayCount,
		Label:        "Day count",
		Emoji:        "🗓️",
		Category:     CategorySummary,
		RequiredData: []string{"day_count"},
	},
	{
		Block:        BlockDailyAverage,
		Label:        "Daily average",
		Emoji:        "📊",
		Category:     CategorySummary,
		RequiredData: []string{"daily_average"},
	},
	{
		Block:        BlockPerDayBreakdown,
		Label:        "Per-day breakdown",
		Emoji:        "📋",
		Category:     CategoryDetail,
		RequiredData: []string{"per_day_breakdown"},
	},
	{
		Block:        BlockBestDay,
		Label:        "Best day",
		Emoji:        "🏆",
		Category:     CategoryDetail,
		RequiredData: []string{"best_day"},
	},
	{
		Block:        BlockStreak,
		Label:        "Streak",
		Emoji:        "🔥",
		Category:     CategoryProgress,
		RequiredData: []string{"current_streak"},
	},
	{
		Block:        BlockRank,
		Label:        "League rank",
		Emoji:        "🏅",
		Category:     CategoryLeague,
		RequiredData: []string{"rank", "total_ranked"},
	},
	{
		Block:        BlockLeagueName,
		Label:        "League name",
		Emoji:        "⚔️",
		Category:     CategoryLeague,
		RequiredData: []string{"league_name"},
		Requires:     []ContentBlock{BlockRank},
	},
	{
		Block:        BlockLeagueAverage,
		Label:        "League average",
		Emoji:        "📈",
		Category:     CategoryLeague,
		RequiredData: []string{"league_average"},
		Requires:     []ContentBlock{BlockRank},
	},
	{
		Block:        BlockPreviousPeriod,
		Label:        "Previous period",
		Emoji:        "⏮️",
		Category:     CategoryProgress,
		RequiredData: []string{"previous_period_steps"},
	},
	{
		Block:        BlockImprovement,
		Label:        "Improvement",
		Emoji:        "🚀",
		Category:     CategoryProgress,
		RequiredData: []string{"improvement_percent"},
		Requires:     []ContentBlock{BlockPreviousPeriod},
	},
}

var configs = func() map[ContentBlock]BlockConfig {
	m := make(map[ContentBlock]BlockConfig, len(registry))
	for _, c := range registry {
		m[c.Block] = c
	}
	return m
}()

// Config returns the static configuration for a block.
func Config(b ContentBlock) (BlockConfig, bool) {
	c, ok := configs[b]
	return c, ok
}

// AllBlocks returns every known block in render order.
func AllBlocks() []ContentBlock {
	out := make([]ContentBlock, len(registry))
	for i, c := range registry {
		out[i] = c.Block
	}
	return out
}

// IsAvailable reports whether a single block has all of its required data
// present in the bag.
func IsAvailable(d *MessageData, b ContentBlock) bool {
	c, ok := configs[b]
	if !ok {
		return false
	}
	for _, field := range c.RequiredData {
		if !d.hasField(field) {
			return false
		}
	}
	return true
}

// Available returns the blocks that can render from the given data, in
// render order.
func Available(d *MessageData) []ContentBlock {
	var out []ContentBlock
	for _, c := range registry {
		if IsAvailable(d, c.Block) {
			out = append(out, c.Block)
		}
	}
	return out
}
