// Package store defines the persistence interfaces for fee types and fee
// records.
package store

import (
	"context"

	"wardbook/internal/ledger/models"
	id "wardbook/pkg/domain"
)

// FeeTypeStore persists fee type definitions. Implementations return
// sentinel.ErrNotFound for absent ids.
type FeeTypeStore interface {
	Create(ctx context.Context, feeType *models.FeeType) error
	FindByID(ctx context.Context, feeTypeID id.FeeTypeID) (*models.FeeType, error)
	Update(ctx context.Context, feeType *models.FeeType) error
	List(ctx context.Context) ([]*models.FeeType, error)
}

// FeeRecordStore persists payment transactions. ListByPair returns every
// record for a (fee type, household) pair; balances are derived from that
// full list on every read.
type FeeRecordStore interface {
	Create(ctx context.Context, record *models.FeeRecord) error
	FindByID(ctx context.Context, recordID id.FeeRecordID) (*models.FeeRecord, error)
	Update(ctx context.Context, record *models.FeeRecord) error
	ListByPair(ctx context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID) ([]models.FeeRecord, error)
}
