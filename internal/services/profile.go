package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftline/draftline-backend/internal/pkg/logger"
	"github.com/draftline/draftline-backend/internal/repos"
	"github.com/draftline/draftline-backend/internal/types"
)

// ProfileInput is the client-supplied profile payload.
type ProfileInput struct {
	Name            string `json:"name"`
	Goal            string `json:"goal"`
	PlannedContent  string `json:"plannedContent"`
	ReactiveContent string `json:"reactiveContent"`
	CompanyContent  string `json:"companyContent"`
}

type ProfileService interface {
	UpsertProfile(ctx context.Context, userID uuid.UUID, input *ProfileInput) (*types.Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
}

type profileService struct {
	db          *gorm.DB
	log         *logger.Logger
	profileRepo repos.ProfileRepo
	userRepo    repos.UserRepo
}

func NewProfileService(
	db *gorm.DB,
	log *logger.Logger,
	profileRepo repos.ProfileRepo,
	userRepo repos.UserRepo,
) ProfileService {
	return &profileService{
		db:          db,
		log:         log.With("service", "ProfileService"),
		profileRepo: profileRepo,
		userRepo:    userRepo,
	}
}

func (ps *profileService) UpsertProfile(ctx context.Context, userID uuid.UUID, input *ProfileInput) (*types.Profile, error) {
	if input == nil {
		return nil, fmt.Errorf("Profile input required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("Profile name required")
	}

	profile := &types.Profile{
		UserID:          userID,
		Name:            strings.TrimSpace(input.Name),
		Goal:            strings.TrimSpace(input.Goal),
		PlannedContent:  strings.TrimSpace(input.PlannedContent),
		ReactiveContent: strings.TrimSpace(input.ReactiveContent),
		CompanyContent:  strings.TrimSpace(input.CompanyContent),
	}

	var saved *types.Profile
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		saved, txErr = ps.profileRepo.Upsert(ctx, tx, profile)
		if txErr != nil {
			return fmt.Errorf("Failed to upsert profile: %w", txErr)
		}
		return nil
	})
	if err != nil {
		ps.log.Warn("Profile upsert failed", "user_id", userID, "error", err)
		return nil, err
	}
	return saved, nil
}

func (ps *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	return ps.profileRepo.GetByUserID(ctx, nil, userID)
}

func (ps *profileService) ListUsers(ctx context.Context) ([]*types.User, error) {
	users, err := ps.userRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to list users: %w", err)
	}
	return users, nil
}
