package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/Kerhoff/fastclub/internal/models"
)

// Notifier sends a message to a club chat.
type Notifier func(chatID int64, text string)

// StartSweep runs Sweep once immediately and then on every tick of interval.
// It blocks until the context is cancelled, so it should be launched in a
// separate goroutine.
func (s *Service) StartSweep(ctx context.Context, interval time.Duration, notify Notifier) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Infof("Sweep scheduler started (interval=%s)", interval)
	s.runSweep(ctx, notify)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweep scheduler stopped")
			return
		case <-ticker.C:
			s.runSweep(ctx, notify)
		}
	}
}

func (s *Service) runSweep(ctx context.Context, notify Notifier) {
	if err := s.Sweep(ctx, notify); err != nil {
		s.logger.Errorf("Sweep finished with errors: %v", err)
	}
}

// LastSweep returns when the last sweep completed, or the zero time.
func (s *Service) LastSweep() time.Time {
	return s.lastSweep.Load()
}

// Sweep generates the missing annual fees of every club and sends the daily
// meeting digest to clubs bound to a chat. Overlapping calls return at once.
// Stored fee statuses are never rewritten here.
func (s *Service) Sweep(ctx context.Context, notify Notifier) error {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.logger.Debug("Sweep already running, skipping")
		return nil
	}
	defer s.sweeping.Store(false)

	clubs, err := s.Clubs.List(ctx)
	if err != nil {
		s.metrics.SweepRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to list clubs: %w", err)
	}

	var result *multierror.Error
	for _, club := range clubs {
		if err := s.sweepClub(ctx, club, notify); err != nil {
			result = multierror.Append(result, fmt.Errorf("club %d: %w", club.ID, err))
		}
	}

	s.lastSweep.Store(s.Now())
	if err := result.ErrorOrNil(); err != nil {
		s.metrics.SweepRuns.WithLabelValues("error").Inc()
		return err
	}
	s.metrics.SweepRuns.WithLabelValues("ok").Inc()
	return nil
}

func (s *Service) sweepClub(ctx context.Context, club *models.Club, notify Notifier) error {
	summary, err := s.GenerateAnnualFees(ctx, club.ID)
	if err != nil {
		return err
	}
	if !club.HasChat() || notify == nil {
		return nil
	}

	if summary.Created > 0 {
		notify(*club.ChatID, fmt.Sprintf("\U0001F4B6 *Annual fees %d*\n%d new fee(s) of %s issued.",
			summary.Year, summary.Created, summary.Amount.StringFixed(2)))
	}

	today := s.Today(club)
	key := today.Format("2006-01-02")
	s.mu.Lock()
	sent := s.notified[club.ID] == key
	s.mu.Unlock()
	if sent {
		return nil
	}

	digest, err := s.meetingDigest(ctx, club, today)
	if err != nil {
		return err
	}
	if digest != "" {
		notify(*club.ChatID, digest)
	}

	s.mu.Lock()
	s.notified[club.ID] = key
	s.mu.Unlock()
	return nil
}

func (s *Service) meetingDigest(ctx context.Context, club *models.Club, today time.Time) (string, error) {
	todays, err := s.MeetingsOn(ctx, club, today)
	if err != nil {
		return "", err
	}
	tomorrows, err := s.MeetingsOn(ctx, club, today.AddDate(0, 0, 1))
	if err != nil {
		return "", err
	}
	if len(todays) == 0 && len(tomorrows) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("\U0001F4C5 *Upcoming meetings*\n")
	for _, occ := range todays {
		sb.WriteString(FormatOccurrence("Today", occ))
	}
	for _, occ := range tomorrows {
		sb.WriteString(FormatOccurrence("Tomorrow", occ))
	}
	return sb.String(), nil
}

// FormatOccurrence renders one meeting as a Markdown list line.
func FormatOccurrence(day string, occ models.MeetingOccurrence) string {
	line := fmt.Sprintf("• %s %s: %s", day, occ.Time, occ.MeetingType.Label())
	if occ.Location != "" {
		line += " @ " + occ.Location
	}
	return line + "\n"
}
