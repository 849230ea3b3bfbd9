package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kassaflow/kassa/internal/modules/entries"
	"github.com/kassaflow/kassa/internal/modules/reports"
)

// EntrySource supplies the day's cash entries for export.
type EntrySource interface {
	ForDay(date time.Time) ([]entries.Entry, error)
}

// ReportSource supplies the daily report for export.
type ReportSource interface {
	Daily(date time.Time) (*reports.PeriodReport, error)
}

// Sender delivers a backup file to a Telegram chat.
type Sender interface {
	SendDocument(chatID int64, name string, data []byte, caption string) error
}

// Uploader mirrors a backup file to object storage.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte) error
}

// Config wires the optional delivery targets. A nil Sender or a zero
// OwnerID disables Telegram delivery, a nil Uploader disables the S3
// mirror. Writing to Dir always happens.
type Config struct {
	Dir      string
	Location *time.Location
	OwnerID  int64
	Sender   Sender
	Uploader Uploader
}

// Result describes one completed backup run.
type Result struct {
	RunID string   `json:"run_id"`
	Date  string   `json:"date"`
	Files []string `json:"files"`
}

// Service exports the day's books as CSV files and delivers them.
type Service struct {
	entries EntrySource
	reports ReportSource
	cfg     Config
	log     zerolog.Logger
}

// NewService creates a new backup service.
func NewService(entrySource EntrySource, reportSource ReportSource, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		entries: entrySource,
		reports: reportSource,
		cfg:     cfg,
		log:     log.With().Str("service", "backup").Logger(),
	}
}

// Run exports the given day. Files are always written to the backups
// directory; Telegram and S3 delivery are best effort and only logged on
// failure.
func (s *Service) Run(ctx context.Context, date time.Time) (*Result, error) {
	runID := uuid.NewString()
	day := date.In(s.cfg.Location).Format("2006-01-02")
	log := s.log.With().Str("run_id", runID).Str("date", day).Logger()

	dayEntries, err := s.entries.ForDay(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	report, err := s.reports.Daily(date)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily report: %w", err)
	}

	entriesCSV, err := EntriesCSV(dayEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to build entries CSV: %w", err)
	}
	reportCSV, err := ReportCSV(report)
	if err != nil {
		return nil, fmt.Errorf("failed to build report CSV: %w", err)
	}

	files := map[string][]byte{
		fmt.Sprintf("entries_%s.csv", day): entriesCSV,
		fmt.Sprintf("reports_%s.csv", day): reportCSV,
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}

	result := &Result{RunID: runID, Date: day}
	for _, name := range names {
		path := filepath.Join(s.cfg.Dir, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		result.Files = append(result.Files, path)
	}

	s.deliver(ctx, log, day, names, files)

	log.Info().Int("entries", len(dayEntries)).Msg("Backup completed")
	return result, nil
}

func (s *Service) deliver(ctx context.Context, log zerolog.Logger, day string, names []string, files map[string][]byte) {
	if s.cfg.Sender != nil {
		if s.cfg.OwnerID == 0 {
			log.Warn().Msg("No backup recipient configured, skipping Telegram delivery")
		} else {
			caption := fmt.Sprintf("Backup %s", day)
			for _, name := range names {
				if err := s.cfg.Sender.SendDocument(s.cfg.OwnerID, name, files[name], caption); err != nil {
					log.Warn().Err(err).Str("file", name).Msg("Failed to deliver backup over Telegram")
				}
			}
		}
	}

	if s.cfg.Uploader != nil {
		for _, name := range names {
			key := fmt.Sprintf("backups/%s/%s", day, name)
			if err := s.cfg.Uploader.Upload(ctx, key, files[name]); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Failed to mirror backup to S3")
			}
		}
	}
}
