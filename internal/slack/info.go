package slack

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/erenbektas/blossom/internal/store"
)

type infoItem struct {
	key   string
	value string
}

// serverSummaryText renders the server-wide statistics table.
func (c *Commands) serverSummaryText(ctx context.Context) string {
	summary, err := c.store.GenerateSummary(ctx, c.now())
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to generate summary")
		return ErrInternal
	}

	completedPct := 0.0
	if summary.Submissions > 0 {
		completedPct = float64(summary.Completed) / float64(summary.Submissions) * 100
	}

	rows := []Row{
		Cell("Volunteers", strconv.Itoa(summary.Volunteers)),
		Cell("Transcriptions", strconv.Itoa(summary.Transcriptions)),
		Cell("Submissions", strconv.Itoa(summary.Submissions)),
		Cell("Completed", fmt.Sprintf("%d (%.1f%%)", summary.Completed, completedPct)),
		Cell("Days live", strconv.Itoa(summary.DaysSinceStart)),
	}
	return fmt.Sprintf(serverSummary, strings.Join(FormatTable(rows, nil, 0), "\n"))
}

// userInfoText builds the three-section volunteer report: General,
// Transcription Quality and Debug Info, joined by blank lines under a title
// naming the volunteer with a clickable profile link.
func (c *Commands) userInfoText(ctx context.Context, user *store.User) string {
	title := fmt.Sprintf("Info about *<https://reddit.com/u/%s|u/%s>*:", user.Username, user.Username)

	general, err := c.generalInfo(ctx, user)
	if err != nil {
		c.logger.Error().Err(err).Str("username", user.Username).Msg("Failed to build general info")
		return ErrInternal
	}
	quality, err := c.qualityInfo(ctx, user)
	if err != nil {
		c.logger.Error().Err(err).Str("username", user.Username).Msg("Failed to build quality info")
		return ErrInternal
	}
	debug := c.debugInfo(user)

	sections := []string{
		formatInfoSection("General", general),
		formatInfoSection("Transcription Quality", quality),
		formatInfoSection("Debug Info", debug),
	}
	return title + "\n\n" + strings.Join(sections, "\n\n")
}

func (c *Commands) generalInfo(ctx context.Context, user *store.User) ([]infoItem, error) {
	now := c.now()

	total, err := c.store.Gamma(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	recent, err := c.store.GammaSince(ctx, user.ID, now.AddDate(0, 0, -14))
	if err != nil {
		return nil, err
	}
	lastActive, err := c.store.LastActive(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	lastActiveStr := FormatTime(lastActive, now)
	if lastActiveStr == "" {
		lastActiveStr = "Never"
	}

	return []infoItem{
		{"Gamma", fmt.Sprintf("%d Γ (%d Γ in last 2 weeks)", total, recent)},
		{"Joined on", FormatTime(&user.DateJoined, now)},
		{"Last active", lastActiveStr},
	}, nil
}

func (c *Commands) qualityInfo(ctx context.Context, user *store.User) ([]infoItem, error) {
	gamma, err := c.store.Gamma(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	counts, err := c.store.CountChecks(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	status, err := c.store.WatchStatus(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	// All ratios fall back to zero when their denominator is zero.
	checkRatio := 0.0
	if gamma > 0 {
		checkRatio = float64(counts.Total) / float64(gamma)
	}
	commentRatio := 0.0
	warningRatio := 0.0
	if counts.Total > 0 {
		commentRatio = float64(counts.Comments) / float64(counts.Total)
		warningRatio = float64(counts.Warnings) / float64(counts.Total)
	}

	return []infoItem{
		{"Checks", fmt.Sprintf("%d (%.1f%% of transcriptions)", counts.Total, checkRatio*100)},
		{"Warnings", fmt.Sprintf("%d (%.1f%% of checks)", counts.Warnings, warningRatio*100)},
		{"Comments", fmt.Sprintf("%d (%.1f%% of checks)", counts.Comments, commentRatio*100)},
		{"Watch status", status},
	}, nil
}

func (c *Commands) debugInfo(user *store.User) []infoItem {
	return []infoItem{
		{"ID", fmt.Sprintf("`%d`", user.ID)},
		{"Blacklisted", boolStr(user.Blacklisted)},
		{"Bot", boolStr(user.IsBot)},
		{"Accepted CoC", boolStr(user.AcceptedCoC)},
	}
}

// formatInfoSection renders a section as a bolded name over dashed
// key-value lines.
func formatInfoSection(name string, items []infoItem) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, fmt.Sprintf("*%s*:", name))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s: %s", item.key, item.value))
	}
	return strings.Join(lines, "\n")
}

func boolStr(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
