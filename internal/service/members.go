package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/fastclub/internal/calendar"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository"
)

// MemberUpdate carries the mutable member fields. Nil fields are left as
// they are; the membership start date cannot be changed.
type MemberUpdate struct {
	FirstName       *string
	LastName        *string
	Email           *string
	Status          *models.MemberStatus
	CurrentPosition *string
	TelegramID      *int64
}

// CreateMember validates and stores a new member of an existing club.
func (s *Service) CreateMember(ctx context.Context, member *models.Member) (*models.Member, error) {
	if _, err := s.GetClub(ctx, member.ClubID); err != nil {
		return nil, err
	}

	member.FirstName = strings.TrimSpace(member.FirstName)
	member.LastName = strings.TrimSpace(member.LastName)
	member.Email = strings.TrimSpace(member.Email)
	if member.FirstName == "" {
		return nil, invalid("first name is required")
	}
	if member.MembershipStartDate.IsZero() {
		return nil, invalid("membership start date is required")
	}
	if member.Status == "" {
		member.Status = models.MemberStatusActive
	}
	if !member.Status.Valid() {
		return nil, invalid("unknown member status %q", member.Status)
	}
	member.MembershipStartDate = calendar.DateOf(member.MembershipStartDate)

	member, err := s.Members.Create(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"club_id":   member.ClubID,
		"member_id": member.ID,
	}).Infof("Admitted member %s", member.FullName())
	return member, nil
}

// GetMember loads a member or returns repository.ErrNotFound.
func (s *Service) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	member, err := s.Members.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup member %d: %w", id, err)
	}
	if member == nil {
		return nil, fmt.Errorf("member %d: %w", id, repository.ErrNotFound)
	}
	return member, nil
}

// ListMembers returns the members of a club, optionally restricted to one status.
func (s *Service) ListMembers(ctx context.Context, clubID int64, status *models.MemberStatus) ([]*models.Member, error) {
	if status != nil && !status.Valid() {
		return nil, invalid("unknown member status %q", *status)
	}
	members, err := s.Members.GetByClubID(ctx, clubID, repository.MemberFilters{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list members of club %d: %w", clubID, err)
	}
	return members, nil
}

// MemberByTelegramID finds the member of a club linked to a Telegram user.
// It returns nil when the user is not linked.
func (s *Service) MemberByTelegramID(ctx context.Context, clubID, telegramID int64) (*models.Member, error) {
	member, err := s.Members.GetByTelegramID(ctx, clubID, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup member (telegram_id=%d): %w", telegramID, err)
	}
	return member, nil
}

// UpdateMember applies upd to the member. Status may move freely between
// the five values.
func (s *Service) UpdateMember(ctx context.Context, id int64, upd MemberUpdate) (*models.Member, error) {
	member, err := s.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.FirstName != nil {
		name := strings.TrimSpace(*upd.FirstName)
		if name == "" {
			return nil, invalid("first name must not be empty")
		}
		member.FirstName = name
	}
	if upd.LastName != nil {
		member.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Email != nil {
		member.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, invalid("unknown member status %q", *upd.Status)
		}
		member.Status = *upd.Status
	}
	if upd.CurrentPosition != nil {
		member.CurrentPosition = strings.TrimSpace(*upd.CurrentPosition)
	}
	if upd.TelegramID != nil {
		member.TelegramID = upd.TelegramID
	}

	updated, err := s.Members.Update(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to update member %d: %w", id, err)
	}
	return updated, nil
}

// DeleteMember hard-deletes a member. Their fees go with them.
func (s *Service) DeleteMember(ctx context.Context, id int64) error {
	if err := s.Members.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete member %d: %w", id, err)
	}
	s.logger.WithField("member_id", id).Info("Deleted member")
	return nil
}
