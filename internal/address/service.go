package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

// Service manages the caller's saved delivery addresses.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*AddressDTO, error)
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the address service.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Logger *logger.Logger
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("address repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: params.Repo, tx: params.Tx, logg: params.Logger}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapAddressDTO(row))
	}
	return out, nil
}

// Create saves a new address. The user's first address becomes the default.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*AddressDTO, error) {
	address := &models.Address{
		UserID:       userID,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        strings.TrimSpace(input.Phone),
		AddressLine1: strings.TrimSpace(input.AddressLine1),
		AddressLine2: trimOptional(input.AddressLine2),
		Landmark:     trimOptional(input.Landmark),
		City:         strings.TrimSpace(input.City),
		State:        strings.TrimSpace(input.State),
		Pincode:      strings.TrimSpace(input.Pincode),
	}
	for _, required := range []struct{ field, value string }{
		{"address_line1", address.AddressLine1},
		{"city", address.City},
		{"state", address.State},
		{"pincode", address.Pincode},
	} {
		if required.value == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, required.field+" is required").
				WithDetails(map[string]any{"field": required.field})
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.CountForUser(ctx, userID)
		if err != nil {
			return err
		}
		address.IsDefault = existing == 0
		return repo.Create(ctx, address)
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":    userID.String(),
		"address_id": address.ID.String(),
	})
	s.logg.Info(logCtx, "address created")
	dto := mapAddressDTO(*address)
	return &dto, nil
}

// SetDefault makes addressID the only default address of the user.
func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error) {
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	var address *models.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindForUser(ctx, userID, addressID)
		if err != nil {
			return err
		}
		if found.IsDefault {
			address = found
			return nil
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		if err := repo.MarkDefault(ctx, userID, addressID); err != nil {
			return err
		}
		found.IsDefault = true
		address = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := mapAddressDTO(*address)
	return &dto, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
