package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"stepLeagueAPI/internal/share"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skip2/go-qrcode"
)

type ShareService struct {
	db            *pgxpool.Pool
	userService   *UserService
	stepsService  *StepsService
	leagueService *LeagueService
	appURL        string
}

func NewShareService(db *pgxpool.Pool, userService *UserService, stepsService *StepsService, leagueService *LeagueService, appURL string) *ShareService {
	return &ShareService{
		db:            db,
		userService:   userService,
		stepsService:  stepsService,
		leagueService: leagueService,
		appURL:        appURL,
	}
}

// ShareOptionsResponse is everything the share composer needs to render:
// block configs, which blocks the user's data can fill, the context preset,
// and the assembled data bag itself.
type ShareOptionsResponse struct {
	Context   share.ShareContext   `json:"context"`
	Blocks    []share.BlockConfig  `json:"blocks"`
	Available []share.ContentBlock `json:"available"`
	Defaults  []share.ContentBlock `json:"defaults"`
	Data      *share.MessageData   `json:"data"`
}

type BuildMessageRequest struct {
	Context        share.ShareContext   `json:"context"`
	Blocks         []share.ContentBlock `json:"blocks,omitempty"`
	Platform       share.Platform       `json:"platform"`
	IncludeHashtag bool                 `json:"include_hashtag"`
	IncludeURL     bool                 `json:"include_url"`
	StartDate      string               `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate        string               `json:"end_date,omitempty"`
}

type BuildMessageResponse struct {
	Message   string               `json:"message"`
	Length    int                  `json:"length"`
	MaxLength int                  `json:"max_length"`
	Blocks    []share.ContentBlock `json:"blocks"`
}

type ShareCardResponse struct {
	ShareURL     string `json:"share_url"`
	QrCodeBase64 string `json:"qr_code_base64"`
}

// AssembleData builds the flat share data bag from stored stats for a date
// range. Missing pieces (no league, no previous period) leave their fields
// nil rather than failing the whole assembly.
func (s *ShareService) AssembleData(ctx context.Context, clerkID string, start, end time.Time) (*share.MessageData, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	entries, err := s.stepsService.RangeBreakdown(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	data := &share.MessageData{}

	if len(entries) > 0 {
		total := 0
		best := share.DaySteps{}
		breakdown := make([]share.DaySteps, 0, len(entries))
		for _, e := range entries {
			total += e.Steps
			day := share.DaySteps{Date: e.EntryDate, Steps: e.Steps}
			breakdown = append(breakdown, day)
			if e.Steps > best.Steps {
				best = day
			}
		}
		dayCount := len(entries)
		avg := total / dayCount

		data.TotalSteps = &total
		data.DayCount = &dayCount
		data.StartDate = &start
		data.EndDate = &end
		data.DailyAverage = &avg
		data.PerDayBreakdown = breakdown
		data.BestDay = &best
	}

	var current int
	err = s.db.QueryRow(ctx, `SELECT current_streak FROM streaks WHERE user_id = $1`, userID).Scan(&current)
	if err == nil && current > 0 {
		data.CurrentStreak = &current
	}

	if name, rank, totalRanked, avg, err := s.leagueService.UserLeagueStanding(ctx, userID); err == nil {
		data.Rank = &rank
		data.TotalRanked = &totalRanked
		data.LeagueName = &name
		data.LeagueAverage = &avg
	}

	// Previous period: the window of the same length immediately before.
	windowDays := int(end.Sub(start).Hours()/24) + 1
	prevStart := start.AddDate(0, 0, -windowDays)
	prevEnd := start.AddDate(0, 0, -1)
	prevEntries, err := s.stepsService.RangeBreakdown(ctx, userID, prevStart, prevEnd)
	if err == nil && len(prevEntries) > 0 {
		prevTotal := 0
		for _, e := range prevEntries {
			prevTotal += e.Steps
		}
		data.PreviousPeriodSteps = &prevTotal
		if prevTotal > 0 && data.TotalSteps != nil {
			improvement := (float64(*data.TotalSteps) - float64(prevTotal)) / float64(prevTotal) * 100
			data.ImprovementPercent = &improvement
		}
	}

	return data, nil
}

func (s *ShareService) ShareOptions(ctx context.Context, clerkID string, shareCtx share.ShareContext, start, end time.Time) (*ShareOptionsResponse, error) {
	data, err := s.AssembleData(ctx, clerkID, start, end)
	if err != nil {
		return nil, err
	}

	blocks := make([]share.BlockConfig, 0, len(share.AllBlocks()))
	for _, b := range share.AllBlocks() {
		c, _ := share.Config(b)
		blocks = append(blocks, c)
	}

	return &ShareOptionsResponse{
		Context:   shareCtx,
		Blocks:    blocks,
		Available: share.Available(data),
		Defaults:  share.DefaultBlocks(shareCtx),
		Data:      data,
	}, nil
}

func (s *ShareService) BuildShareMessage(ctx context.Context, clerkID string, req *BuildMessageRequest) (*BuildMessageResponse, error) {
	start, end, err := resolveRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	data, err := s.AssembleData(ctx, clerkID, start, end)
	if err != nil {
		return nil, err
	}

	blocks := req.Blocks
	if len(blocks) == 0 {
		blocks = share.DefaultBlocks(req.Context)
	}
	normalized, err := share.NormalizeSelection(blocks)
	if err != nil {
		return nil, err
	}

	msg, err := share.BuildMessage(data, normalized, share.BuildOptions{
		Platform:       req.Platform,
		IncludeHashtag: req.IncludeHashtag,
		IncludeURL:     req.IncludeURL,
		URL:            s.appURL,
	})
	if err != nil {
		return nil, err
	}

	return &BuildMessageResponse{
		Message:   msg,
		Length:    len([]rune(msg)),
		MaxLength: req.Platform.MaxLength(),
		Blocks:    normalized,
	}, nil
}

// ShareCard renders a QR code pointing at the user's public profile,
// returned base64 encoded for direct embedding.
func (s *ShareService) ShareCard(ctx context.Context, clerkID string) (*ShareCardResponse, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	shareURL := fmt.Sprintf("%s/u/%s", s.appURL, userID)

	pngBytes, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return &ShareCardResponse{
		ShareURL:     shareURL,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
	}, nil
}

// resolveRange parses optional YYYY-MM-DD bounds, defaulting to the last
// seven days ending today.
func resolveRange(startStr, endStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	start := now.AddDate(0, 0, -6)
	end := now

	var err error
	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date, expected YYYY-MM-DD")
		}
	}
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date, expected YYYY-MM-DD")
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date before start_date")
	}
	return start, end, nil
}
