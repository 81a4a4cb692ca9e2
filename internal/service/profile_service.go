package service

import (
	"context"

	"github.com/spec-kit/campusmatch/internal/domain"
	"github.com/spec-kit/campusmatch/internal/repository"
	apperrors "github.com/spec-kit/campusmatch/pkg/util"
)

// ProfileService reads member profiles.
type ProfileService struct {
	users   repository.UserRepository
	matches repository.MatchRepository
}

// NewProfileService constructs the service.
func NewProfileService(users repository.UserRepository, matches repository.MatchRepository) *ProfileService {
	return &ProfileService{users: users, matches: matches}
}

// Profile is a member as seen by a viewer. Relation is nil for anonymous viewers.
type Profile struct {
	User     *domain.User
	Relation *ProfileRelation
}

// ProfileRelation describes how the viewer relates to the profile owner.
type ProfileRelation struct {
	IsSelf  bool
	Matched bool
}

// Get loads a profile. viewerID may be empty.
func (s *ProfileService) Get(ctx context.Context, viewerID, id string) (*Profile, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := &Profile{User: user}
	if viewerID == "" {
		return profile, nil
	}

	relation := &ProfileRelation{IsSelf: viewerID == user.ID}
	if !relation.IsSelf {
		matched, err := s.matches.AreMatched(ctx, viewerID, user.ID)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		relation.Matched = matched
	}
	profile.Relation = relation
	return profile, nil
}

// Me loads the caller's own account.
func (s *ProfileService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.load(ctx, userID)
}

func (s *ProfileService) load(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("profile", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	// Suspended or unapproved members are hidden from others.
	if user.IsSuspended || !user.IsApproved {
		return nil, apperrors.NewNotFound("profile", map[string]any{"id": id})
	}
	return user, nil
}
