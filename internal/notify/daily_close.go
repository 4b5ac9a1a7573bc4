// Package notify sends the daily cash close to a Telegram chat.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/notify/mocks"
	"gitlab.com/yelinaung/caja-gym/internal/report"
)

const (
	// CheckInterval is how often the loop checks whether the close is due.
	CheckInterval = 15 * time.Minute
	// CloseTimeout bounds a single close run.
	CloseTimeout = 2 * time.Minute
)

// TelegramAPI is the Telegram client surface used by DailyClose.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*tgbot.Bot)(nil)

// Summarizer computes the cash summary for a date range.
type Summarizer interface {
	Summary(ctx context.Context, from, to time.Time) (*report.Summary, error)
}

// DailyClose sends one cash close message per day at a fixed local hour.
type DailyClose struct {
	api     TelegramAPI
	reports Summarizer
	chatID  int64
	hour    int
	loc     *time.Location

	lastSent string
}

// NewDailyClose creates a DailyClose for chatID at hour in loc.
func NewDailyClose(api TelegramAPI, reports Summarizer, chatID int64, hour int, loc *time.Location) *DailyClose {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyClose{api: api, reports: reports, chatID: chatID, hour: hour, loc: loc}
}

// NewTelegramClient creates a send-only Telegram client.
func NewTelegramClient(token string) (*tgbot.Bot, error) {
	client, err := tgbot.New(token, tgbot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	return client, nil
}

// Run checks every CheckInterval until ctx is done.
func (d *DailyClose) Run(ctx context.Context) {
	logger.Log.Info().
		Int("hour", d.hour).
		Str("timezone", d.loc.String()).
		Msg("Daily close loop started")

	ticker := time.NewTicker(CheckInterval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Daily close loop stopped")
		return
	default:
	}

	d.check(ctx, time.Now().In(d.loc))

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Daily close loop stopped")
			return
		case <-ticker.C:
			d.check(ctx, time.Now().In(d.loc))
		}
	}
}

// check sends the close for now's date when now is in the configured hour
// and it has not been sent yet.
func (d *DailyClose) check(ctx context.Context, now time.Time) {
	if now.Hour() != d.hour {
		return
	}

	today := now.Format(models.DateLayout)
	if d.lastSent == today {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, CloseTimeout)
	defer cancel()

	if err := d.Send(runCtx, now); err != nil {
		logger.Log.Error().Err(err).Str("date", today).Msg("Failed to send daily close")
		return
	}
	d.lastSent = today
}

// Send posts the close for day's date: the summary text, then the income
// chart when there is income to chart.
func (d *DailyClose) Send(ctx context.Context, day time.Time) error {
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	summary, err := d.reports.Summary(ctx, date, date)
	if err != nil {
		return fmt.Errorf("failed to compute summary: %w", err)
	}

	if _, err := d.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: d.chatID,
		Text:   summary.FormatText(),
	}); err != nil {
		return fmt.Errorf("failed to send summary: %w", err)
	}

	chart, err := report.GenerateCategoryChart(summary.Categories, models.DirectionIncome, report.ChartTitle(models.DirectionIncome, date, date))
	if errors.Is(err, report.ErrNoData) {
		logger.Log.Debug().Str("date", date.Format(models.DateLayout)).Msg("Daily close sent without chart")
		return nil
	}
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to render daily close chart")
		return nil
	}

	if _, err := d.api.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID: d.chatID,
		Photo: &tgmodels.InputFileUpload{
			Filename: report.ChartFilename(models.DirectionIncome, date),
			Data:     bytes.NewReader(chart),
		},
	}); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to send daily close chart")
	}

	logger.Log.Info().Str("date", date.Format(models.DateLayout)).Int("movements", summary.Count).Msg("Daily close sent")
	return nil
}
