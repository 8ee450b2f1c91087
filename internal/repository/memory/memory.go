// Package memory implements the repository interfaces in process memory.
// Records are copied on the way in and out, so callers never share state
// with the store. Ordering follows the postgres implementation.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

// Store holds every table. One Store backs all six repositories so IDs are
// unique across them.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	clubs    map[int64]models.Club
	members  map[int64]models.Member
	rules    map[int64][]models.MeetingRule
	feeTypes map[int64]models.FeeType
	fees     map[int64]models.FeeObligation
	events   map[int64]models.CalendarEvent
}

// New creates an empty store.
func New() *Store {
	return &Store{
		clubs:    map[int64]models.Club{},
		members:  map[int64]models.Member{},
		rules:    map[int64][]models.MeetingRule{},
		feeTypes: map[int64]models.FeeType{},
		fees:     map[int64]models.FeeObligation{},
		events:   map[int64]models.CalendarEvent{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Clubs returns the club repository.
func (s *Store) Clubs() repository.ClubRepository { return clubRepository{s} }

// Members returns the member repository.
func (s *Store) Members() repository.MemberRepository { return memberRepository{s} }

// MeetingRules returns the meeting rule repository.
func (s *Store) MeetingRules() repository.MeetingRuleRepository { return meetingRuleRepository{s} }

// FeeTypes returns the fee type repository.
func (s *Store) FeeTypes() repository.FeeTypeRepository { return feeTypeRepository{s} }

// Fees returns the fee obligation repository.
func (s *Store) Fees() repository.FeeRepository { return feeRepository{s} }

// Calendar returns the calendar event repository.
func (s *Store) Calendar() repository.CalendarRepository { return calendarRepository{s} }

// sorted returns the values of m ordered by ID.
func sorted[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ---------------------------------------------------------------------------
// Clubs
// ---------------------------------------------------------------------------

type clubRepository struct{ *Store }

func (r clubRepository) Create(_ context.Context, club *models.Club) (*models.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if club.ChatID != nil {
		for _, c := range r.clubs {
			if c.ChatID != nil && *c.ChatID == *club.ChatID {
				return nil, fmt.Errorf("failed to create club: chat %d already bound", *club.ChatID)
			}
		}
	}
	now := time.Now()
	club.ID = r.id()
	club.CreatedAt = now
	club.UpdatedAt = now
	r.clubs[club.ID] = *club
	return club, nil
}

func (r clubRepository) GetByID(_ context.Context, id int64) (*models.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clubs[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r clubRepository) GetByChatID(_ context.Context, chatID int64) (*models.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clubs {
		if c.ChatID != nil && *c.ChatID == chatID {
			return &c, nil
		}
	}
	return nil, nil
}

func (r clubRepository) List(_ context.Context) ([]*models.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Club
	for _, c := range sorted(r.clubs) {
		out = append(out, &c)
	}
	return out, nil
}

func (r clubRepository) Update(_ context.Context, club *models.Club) (*models.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.clubs[club.ID]
	if !ok {
		return nil, fmt.Errorf("club %d: %w", club.ID, repository.ErrNotFound)
	}
	club.CreatedAt = old.CreatedAt
	club.UpdatedAt = time.Now()
	r.clubs[club.ID] = *club
	return club, nil
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

type memberRepository struct{ *Store }

func (r memberRepository) Create(_ context.Context, member *models.Member) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clubs[member.ClubID]; !ok {
		return nil, fmt.Errorf("failed to create member: club %d does not exist", member.ClubID)
	}
	if member.Status == "" {
		member.Status = models.MemberStatusActive
	}
	now := time.Now()
	member.ID = r.id()
	member.CreatedAt = now
	member.UpdatedAt = now
	r.members[member.ID] = *member
	return member, nil
}

func (r memberRepository) GetByID(_ context.Context, id int64) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		return &m, nil
	}
	return nil, nil
}

func (r memberRepository) GetByClubID(_ context.Context, clubID int64, filters repository.MemberFilters) ([]*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Member
	for _, m := range sorted(r.members) {
		if m.ClubID != clubID || (filters.Status != nil && m.Status != *filters.Status) {
			continue
		}
		out = append(out, &m)
	}
	slices.SortStableFunc(out, func(a, b *models.Member) int {
		if c := cmp.Compare(a.LastName, b.LastName); c != 0 {
			return c
		}
		return cmp.Compare(a.FirstName, b.FirstName)
	})
	return page(out, filters.Limit, filters.Offset), nil
}

func (r memberRepository) GetByTelegramID(_ context.Context, clubID, telegramID int64) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range sorted(r.members) {
		if m.ClubID == clubID && m.TelegramID != nil && *m.TelegramID == telegramID {
			return &m, nil
		}
	}
	return nil, nil
}

func (r memberRepository) Update(_ context.Context, member *models.Member) (*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.members[member.ID]
	if !ok {
		return nil, fmt.Errorf("member %d: %w", member.ID, repository.ErrNotFound)
	}
	member.ClubID = old.ClubID
	member.MembershipStartDate = old.MembershipStartDate
	member.CreatedAt = old.CreatedAt
	member.UpdatedAt = time.Now()
	r.members[member.ID] = *member
	return member, nil
}

func (r memberRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return fmt.Errorf("member with ID %d: %w", id, repository.ErrNotFound)
	}
	delete(r.members, id)
	for fid, ob := range r.fees {
		if ob.MemberID == id {
			delete(r.fees, fid)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Meeting rules
// ---------------------------------------------------------------------------

type meetingRuleRepository struct{ *Store }

func (r meetingRuleRepository) GetByClubID(_ context.Context, clubID int64) ([]*models.MeetingRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.MeetingRule
	for _, rule := range r.rules[clubID] {
		out = append(out, &rule)
	}
	return out, nil
}

func (r meetingRuleRepository) ReplaceAll(_ context.Context, clubID int64, rules []*models.MeetingRule) ([]*models.MeetingRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := make([]models.MeetingRule, 0, len(rules))
	for _, rule := range rules {
		rule.ID = r.id()
		rule.ClubID = clubID
		rule.CreatedAt = now
		rule.UpdatedAt = now
		stored = append(stored, *rule)
	}
	r.rules[clubID] = stored
	return rules, nil
}

// ---------------------------------------------------------------------------
// Fee types
// ---------------------------------------------------------------------------

type feeTypeRepository struct{ *Store }

func (r feeTypeRepository) Create(_ context.Context, feeType *models.FeeType) (*models.FeeType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ft := range r.feeTypes {
		if ft.ClubID == feeType.ClubID && strings.EqualFold(ft.Name, feeType.Name) {
			return nil, fmt.Errorf("failed to create fee type: %q already exists", feeType.Name)
		}
	}
	now := time.Now()
	feeType.ID = r.id()
	feeType.CreatedAt = now
	feeType.UpdatedAt = now
	r.feeTypes[feeType.ID] = *feeType
	return feeType, nil
}

func (r feeTypeRepository) GetByClubID(_ context.Context, clubID int64) ([]*models.FeeType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FeeType
	for _, ft := range sorted(r.feeTypes) {
		if ft.ClubID == clubID {
			out = append(out, &ft)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.FeeType) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out, nil
}

func (r feeTypeRepository) GetByName(_ context.Context, clubID int64, name string) (*models.FeeType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ft := range r.feeTypes {
		if ft.ClubID == clubID && strings.EqualFold(ft.Name, name) {
			return &ft, nil
		}
	}
	return nil, nil
}

func (r feeTypeRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.feeTypes[id]; !ok {
		return fmt.Errorf("fee type with ID %d: %w", id, repository.ErrNotFound)
	}
	delete(r.feeTypes, id)
	return nil
}

// ---------------------------------------------------------------------------
// Fee obligations
// ---------------------------------------------------------------------------

type feeRepository struct{ *Store }

// conflicts reports whether ob would break the one-annual-fee-per-member-
// and-year constraint against the stored obligations and pending.
func (r feeRepository) conflicts(ob *models.FeeObligation, pending []models.FeeObligation) bool {
	if !ob.IsAnnual() {
		return false
	}
	clash := func(other models.FeeObligation) bool {
		return other.IsAnnual() && other.MemberID == ob.MemberID && other.DueDate.Year() == ob.DueDate.Year()
	}
	for _, other := range r.fees {
		if clash(other) {
			return true
		}
	}
	return slices.ContainsFunc(pending, clash)
}

func (r feeRepository) Create(_ context.Context, ob *models.FeeObligation) (*models.FeeObligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(ob, nil) {
		return nil, fmt.Errorf("failed to create fee obligation: %w", repository.ErrDuplicateObligation)
	}
	now := time.Now()
	ob.ID = r.id()
	ob.CreatedAt = now
	ob.UpdatedAt = now
	r.fees[ob.ID] = *ob
	return ob, nil
}

func (r feeRepository) CreateBatch(_ context.Context, obligations []*models.FeeObligation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make([]models.FeeObligation, 0, len(obligations))
	for _, ob := range obligations {
		if r.conflicts(ob, staged) {
			return fmt.Errorf("member %d: %w", ob.MemberID, repository.ErrDuplicateObligation)
		}
		staged = append(staged, *ob)
	}

	now := time.Now()
	for _, ob := range obligations {
		ob.ID = r.id()
		ob.CreatedAt = now
		ob.UpdatedAt = now
		r.fees[ob.ID] = *ob
	}
	return nil
}

func (r feeRepository) GetByID(_ context.Context, id int64) (*models.FeeObligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ob, ok := r.fees[id]; ok {
		return &ob, nil
	}
	return nil, nil
}

func (r feeRepository) GetByClubID(_ context.Context, clubID int64, filters repository.FeeFilters) ([]*models.FeeObligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.FeeObligation
	for _, ob := range sorted(r.fees) {
		switch {
		case ob.ClubID != clubID:
			continue
		case filters.Status != nil && ob.Status != *filters.Status:
			continue
		case filters.MemberID != nil && ob.MemberID != *filters.MemberID:
			continue
		case filters.FeeType != "" && ob.FeeType != filters.FeeType:
			continue
		}
		out = append(out, &ob)
	}
	slices.SortStableFunc(out, func(a, b *models.FeeObligation) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return page(out, filters.Limit, filters.Offset), nil
}

func (r feeRepository) Update(_ context.Context, ob *models.FeeObligation) (*models.FeeObligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.fees[ob.ID]
	if !ok {
		return nil, fmt.Errorf("fee obligation %d: %w", ob.ID, repository.ErrNotFound)
	}
	old.Status = ob.Status
	old.PaidDate = ob.PaidDate
	old.PaymentMethod = ob.PaymentMethod
	old.Notes = ob.Notes
	old.UpdatedAt = time.Now()
	r.fees[ob.ID] = old
	ob.UpdatedAt = old.UpdatedAt
	return ob, nil
}

// ---------------------------------------------------------------------------
// Calendar events
// ---------------------------------------------------------------------------

type calendarRepository struct{ *Store }

func (r calendarRepository) Create(_ context.Context, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	event.ID = r.id()
	event.CreatedAt = now
	event.UpdatedAt = now
	r.events[event.ID] = *event
	return event, nil
}

func (r calendarRepository) GetByID(_ context.Context, id int64) (*models.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.events[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (r calendarRepository) GetByClubID(_ context.Context, clubID int64, filters repository.CalendarFilters) ([]*models.CalendarEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.CalendarEvent
	for _, e := range sorted(r.events) {
		switch {
		case e.ClubID != clubID:
			continue
		case filters.From != nil && e.StartTime.Before(*filters.From):
			continue
		case filters.To != nil && e.StartTime.After(*filters.To):
			continue
		}
		out = append(out, &e)
	}
	slices.SortStableFunc(out, func(a, b *models.CalendarEvent) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return page(out, filters.Limit, 0), nil
}

func (r calendarRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return fmt.Errorf("calendar event with ID %d: %w", id, repository.ErrNotFound)
	}
	delete(r.events, id)
	return nil
}
