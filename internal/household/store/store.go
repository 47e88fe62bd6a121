// Package store defines the persistence interfaces for households and
// residents. Interfaces keep the registry logic testable and allow swapping
// the in-memory and postgres implementations without rewiring services.
package store

import (
	"context"

	"wardbook/internal/household/models"
	id "wardbook/pkg/domain"
)

// HouseholdStore persists households. Implementations return
// sentinel.ErrNotFound for absent ids and sentinel.ErrConflict when a
// household code is already taken.
type HouseholdStore interface {
	Create(ctx context.Context, household *models.Household) error
	FindByID(ctx context.Context, householdID id.HouseholdID) (*models.Household, error)
	FindByCode(ctx context.Context, code string) (*models.Household, error)
	Update(ctx context.Context, household *models.Household) error
}

// ResidentStore persists residents. FindByNationalID returns
// sentinel.ErrNotFound when no resident carries the given national ID;
// callers use it for the move-in duplicate check.
type ResidentStore interface {
	Create(ctx context.Context, resident *models.Resident) error
	FindByID(ctx context.Context, residentID id.ResidentID) (*models.Resident, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Resident, error)
	Update(ctx context.Context, resident *models.Resident) error
	ListByHousehold(ctx context.Context, householdID id.HouseholdID) ([]*models.Resident, error)
	// CountActiveMembers counts residents of the household whose status
	// counts toward per-capita billing. Always recomputed, never cached.
	CountActiveMembers(ctx context.Context, householdID id.HouseholdID) (int, error)
}
