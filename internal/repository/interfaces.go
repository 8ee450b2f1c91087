package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Kerhoff/fastclub/internal/models"
)

var (
	// ErrNotFound is returned when a record addressed by ID does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateObligation is returned when the storage uniqueness
	// constraint on annual fees (one per member and due year) rejects an insert
	ErrDuplicateObligation = errors.New("annual fee already exists for member and year")
)

// ClubRepository defines the interface for club data operations
type ClubRepository interface {
	Create(ctx context.Context, club *models.Club) (*models.Club, error)
	GetByID(ctx context.Context, id int64) (*models.Club, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.Club, error)
	List(ctx context.Context) ([]*models.Club, error)
	Update(ctx context.Context, club *models.Club) (*models.Club, error)
}

// MemberRepository defines the interface for member data operations.
// Update never changes the membership start date.
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) (*models.Member, error)
	GetByID(ctx context.Context, id int64) (*models.Member, error)
	GetByClubID(ctx context.Context, clubID int64, filters MemberFilters) ([]*models.Member, error)
	GetByTelegramID(ctx context.Context, clubID, telegramID int64) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) (*models.Member, error)
	Delete(ctx context.Context, id int64) error
}

// MeetingRuleRepository defines the interface for recurring meeting rules.
// A club's rule set is only ever replaced as a whole.
type MeetingRuleRepository interface {
	GetByClubID(ctx context.Context, clubID int64) ([]*models.MeetingRule, error)
	ReplaceAll(ctx context.Context, clubID int64, rules []*models.MeetingRule) ([]*models.MeetingRule, error)
}

// FeeTypeRepository defines the interface for the fee catalogue
type FeeTypeRepository interface {
	Create(ctx context.Context, feeType *models.FeeType) (*models.FeeType, error)
	GetByClubID(ctx context.Context, clubID int64) ([]*models.FeeType, error)
	GetByName(ctx context.Context, clubID int64, name string) (*models.FeeType, error)
	Delete(ctx context.Context, id int64) error
}

// FeeRepository defines the interface for fee obligation operations.
// CreateBatch inserts all obligations or none of them.
type FeeRepository interface {
	Create(ctx context.Context, obligation *models.FeeObligation) (*models.FeeObligation, error)
	CreateBatch(ctx context.Context, obligations []*models.FeeObligation) error
	GetByID(ctx context.Context, id int64) (*models.FeeObligation, error)
	GetByClubID(ctx context.Context, clubID int64, filters FeeFilters) ([]*models.FeeObligation, error)
	Update(ctx context.Context, obligation *models.FeeObligation) (*models.FeeObligation, error)
}

// CalendarRepository defines the interface for club event operations
type CalendarRepository interface {
	Create(ctx context.Context, event *models.CalendarEvent) (*models.CalendarEvent, error)
	GetByID(ctx context.Context, id int64) (*models.CalendarEvent, error)
	GetByClubID(ctx context.Context, clubID int64, filters CalendarFilters) ([]*models.CalendarEvent, error)
	Delete(ctx context.Context, id int64) error
}

// MemberFilters represents filters for querying members
type MemberFilters struct {
	Status *models.MemberStatus
	Limit  int
	Offset int
}

// FeeFilters represents filters for querying fee obligations. Status
// matches the stored status, not the display status.
type FeeFilters struct {
	Status   *models.FeeStatus
	MemberID *int64
	FeeType  string
	Limit    int
	Offset   int
}

// CalendarFilters represents filters for querying calendar events
type CalendarFilters struct {
	From  *time.Time
	To    *time.Time
	Limit int
}
