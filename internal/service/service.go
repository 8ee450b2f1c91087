package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/Kerhoff/fastclub/internal/calendar"
	"github.com/Kerhoff/fastclub/internal/metrics"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

// ErrInvalidInput is returned when a caller supplies data that violates a
// domain rule. The wrapped message names the offending field.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Options tunes the service. Zero values fall back to defaults.
type Options struct {
	// MonthsAhead is the default meeting projection horizon
	MonthsAhead int
	// AnnualFeeAmount overrides the per-club annual fee when positive
	AnnualFeeAmount decimal.Decimal
	// Clock supplies the current instant; time.Now when nil
	Clock func() time.Time
}

// Service is the central business logic layer. It fetches records from the
// repositories, runs the pure calendar and fee computations and persists
// the results.
type Service struct {
	db      *sql.DB
	logger  *logrus.Logger
	metrics *metrics.Metrics
	opts    Options

	Clubs        repository.ClubRepository
	Members      repository.MemberRepository
	MeetingRules repository.MeetingRuleRepository
	FeeTypes     repository.FeeTypeRepository
	Fees         repository.FeeRepository
	Calendar     repository.CalendarRepository

	sweeping  *atomic.Bool
	lastSweep *atomic.Time

	mu       sync.Mutex
	notified map[int64]string // club ID -> date of last meeting digest
}

// New creates a new Service with all required dependencies.
func New(db *sql.DB, logger *logrus.Logger, m *metrics.Metrics, opts Options,
	clubs repository.ClubRepository,
	members repository.MemberRepository,
	rules repository.MeetingRuleRepository,
	feeTypes repository.FeeTypeRepository,
	fees repository.FeeRepository,
	cal repository.CalendarRepository,
) *Service {
	if opts.MonthsAhead <= 0 || opts.MonthsAhead > calendar.MaxMonthsAhead {
		opts.MonthsAhead = calendar.DefaultMonthsAhead
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		db: db, logger: logger, metrics: m, opts: opts,
		Clubs: clubs, Members: members, MeetingRules: rules,
		FeeTypes: feeTypes, Fees: fees, Calendar: cal,
		sweeping:  atomic.NewBool(false),
		lastSweep: atomic.NewTime(time.Time{}),
		notified:  make(map[int64]string),
	}
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// Now returns the current instant from the configured clock.
func (s *Service) Now() time.Time {
	return s.opts.Clock()
}

// Today returns the current instant in the club's time zone.
func (s *Service) Today(club *models.Club) time.Time {
	return s.opts.Clock().In(club.Location())
}

// MonthsAhead returns the default projection horizon.
func (s *Service) MonthsAhead() int {
	return s.opts.MonthsAhead
}

// GetClub loads a club or returns repository.ErrNotFound.
func (s *Service) GetClub(ctx context.Context, id int64) (*models.Club, error) {
	club, err := s.Clubs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup club %d: %w", id, err)
	}
	if club == nil {
		return nil, fmt.Errorf("club %d: %w", id, repository.ErrNotFound)
	}
	return club, nil
}

// ListClubs returns every club.
func (s *Service) ListClubs(ctx context.Context) ([]*models.Club, error) {
	clubs, err := s.Clubs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	return clubs, nil
}

// CreateClub validates and stores a new club.
func (s *Service) CreateClub(ctx context.Context, club *models.Club) (*models.Club, error) {
	club.Name = strings.TrimSpace(club.Name)
	if club.Name == "" {
		return nil, invalid("club name is required")
	}
	if club.AnnualFee.IsNegative() {
		return nil, invalid("annual fee must not be negative")
	}
	if club.Timezone != "" {
		if _, err := time.LoadLocation(club.Timezone); err != nil {
			return nil, invalid("unknown time zone %q", club.Timezone)
		}
	}

	club, err := s.Clubs.Create(ctx, club)
	if err != nil {
		return nil, fmt.Errorf("failed to create club: %w", err)
	}
	s.logger.WithField("club_id", club.ID).Infof("Created club %q", club.Name)
	return club, nil
}

// EnsureClub retrieves the club bound to a Telegram chat, or creates one if
// none exists. If the chat title has changed, the club name is updated.
func (s *Service) EnsureClub(ctx context.Context, chatID int64, chatTitle string) (*models.Club, error) {
	chatTitle = strings.TrimSpace(chatTitle)

	club, err := s.Clubs.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup club (chat_id=%d): %w", chatID, err)
	}
	if club == nil {
		if chatTitle == "" {
			chatTitle = fmt.Sprintf("Club %d", chatID)
		}
		club = &models.Club{ChatID: &chatID, Name: chatTitle}
		club, err = s.Clubs.Create(ctx, club)
		if err != nil {
			return nil, fmt.Errorf("failed to create club for chat %d: %w", chatID, err)
		}
		s.logger.Infof("Created new club: %q (chat_id=%d)", chatTitle, chatID)
		return club, nil
	}

	if chatTitle != "" && club.Name != chatTitle {
		club.Name = chatTitle
		updated, err := s.Clubs.Update(ctx, club)
		if err != nil {
			return nil, fmt.Errorf("failed to update club %d: %w", club.ID, err)
		}
		club = updated
		s.logger.Infof("Updated club name to %q (club_id=%d)", chatTitle, club.ID)
	}

	return club, nil
}
