package service

import (
	"context"
	"errors"
	"time"

	hhmodels "wardbook/internal/household/models"
	"wardbook/internal/lifecycle/models"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	"wardbook/pkg/platform/sentinel"
)

// resolve applies the side effects of an approved request. It runs inside
// the approval transaction; any error it returns rolls the whole approval
// back. References were validated at creation time, so a missing row here
// means the world drifted between creation and approval.
func (s *Service) resolve(ctx context.Context, request *models.ChangeRequest, now time.Time) error {
	switch request.Type {
	case models.ChangeTypeBirth:
		return s.resolveBirth(ctx, request, now)
	case models.ChangeTypeMoveIn:
		return s.resolveMoveIn(ctx, request, now)
	case models.ChangeTypeTemporaryResidence:
		return s.resolveStatusFlip(ctx, request, hhmodels.ResidentStatusTemporaryResident, now)
	case models.ChangeTypeTemporaryAbsence:
		return s.resolveStatusFlip(ctx, request, hhmodels.ResidentStatusTemporaryAbsent, now)
	case models.ChangeTypeMoveOut:
		return s.resolveMoveOut(ctx, request, now)
	case models.ChangeTypeSplit:
		return s.resolveSplit(ctx, request, now)
	case models.ChangeTypeOwnerChange:
		return s.resolveOwnerChange(ctx, request, now)
	case models.ChangeTypeDeath:
		return s.resolveStatusFlip(ctx, request, hhmodels.ResidentStatusDeceased, now)
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown change type reached the resolver")
	}
}

func (s *Service) resolveBirth(ctx context.Context, request *models.ChangeRequest, now time.Time) error {
	payload := request.Payload.Birth
	if _, err := s.households.FindByID(ctx, *request.HouseholdID); err != nil {
		return wrapHouseholdErr(err)
	}
	relation := payload.Relation
	if relation == "" {
		relation = "child"
	}
	child, err := hhmodels.NewResident(id.NewResidentID(), *request.HouseholdID, payload.FullName, payload.DateOfBirth, payload.Gender, relation, now)
	if err != nil {
		return err
	}
	if err := s.residents.Create(ctx, child); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resident")
	}
	request.LinkResident(child.ID, now)
	return nil
}

func (s *Service) resolveMoveIn(ctx context.Context, request *models.ChangeRequest, now time.Time) error {
	payload := request.Payload.MoveIn
	if _, err := s.households.FindByID(ctx, *request.HouseholdID); err != nil {
		return wrapHouseholdErr(err)
	}
	if payload.NationalID != "" {
		_, err := s.residents.FindByNationalID(ctx, payload.NationalID)
		switch {
		case err == nil:
			return dErrors.New(dErrors.CodeDuplicateResident, "a resident with this national ID already exists")
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "national ID lookup failed")
		}
	}
	resident, err := hhmodels.NewResident(id.NewResidentID(), *request.HouseholdID, payload.FullName, payload.DateOfBirth, payload.Gender, payload.Relation, now)
	if err != nil {
		return err
	}
	resident.NationalID = payload.NationalID
	if err := s.residents.Create(ctx, resident); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeDuplicateResident, "a resident with this national ID already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create resident")
	}
	request.LinkResident(resident.ID, now)
	return nil
}

func (s *Service) resolveStatusFlip(ctx context.Context, request *models.ChangeRequest, status hhmodels.ResidentStatus, now time.Time) error {
	resident, err := s.residents.FindByID(ctx, *request.ResidentID)
	if err != nil {
		return wrapResidentErr(err)
	}
	if resident.Status == hhmodels.ResidentStatusDeceased {
		return dErrors.New(dErrors.CodeInvariantViolation, "resident is deceased")
	}
	resident.ApplyStatus(status, now)
	if err := s.residents.Update(ctx, resident); err != nil {
		return wrapResidentErr(err)
	}
	return nil
}

// resolveMoveOut detaches the resident from their household. A resident
// already deceased is left untouched; the move-out is a no-op, not an error.
func (s *Service) resolveMoveOut(ctx context.Context, request *models.ChangeRequest, now time.Time) error {
	resident, err := s.residents.FindByID(ctx, *request.ResidentID)
	if err != nil {
		return wrapResidentErr(err)
	}
	if resident.Status == hhmodels.ResidentStatusDeceased {
		return nil
	}
	resident.ApplyMoveOut(now)
	if err := s.residents.Update(ctx, resident); err != nil {
		return wrapResidentErr(err)
	}
	return nil
}

func (s *Service) resolveOwnerChange(ctx context.Context, request *models.ChangeRequest, now time.Time) error {
	household, err := s.households.FindByID(ctx, *request.HouseholdID)
	if err != nil {
		return wrapHouseholdErr(err)
	}
	candidate, err := s.residents.FindByID(ctx, request.Payload.OwnerChange.NewOwnerID)
	if err != nil {
		return wrapResidentErr(err)
	}
	// Validated at creation; the membership may have drifted since.
	if candidate.HouseholdID == nil || *candidate.HouseholdID != household.ID || !candidate.IsActiveMember() {
		return dErrors.New(dErrors.CodeInvariantViolation, "new owner is no longer an active member of the household")
	}
	household.SetOwner(candidate.ID, now)
	candidate.Relation = "owner"
	candidate.UpdatedAt = now
	if err := s.households.Update(ctx, household); err != nil {
		return wrapHouseholdErr(err)
	}
	if err := s.residents.Update(ctx, candidate); err != nil {
		return wrapResidentErr(err)
	}
	return nil
}

// resolveSplit moves the selected members into a newly created household and
// installs the designated member as its owner. The source household keeps
// its remaining members and its original owner.
func (s *Service) resolveSplit(ctx context.Context, request *models.ChangeRequest, now time.Time) error {
	payload := request.Payload.Split
	source, err := s.households.FindByID(ctx, *request.HouseholdID)
	if err != nil {
		return wrapHouseholdErr(err)
	}
	members, err := s.residents.ListByHousehold(ctx, *request.HouseholdID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list household members")
	}

	byID := make(map[id.ResidentID]*hhmodels.Resident, len(members))
	activeCount := 0
	for _, member := range members {
		byID[member.ID] = member
		if member.IsActiveMember() {
			activeCount++
		}
	}
	selected := make([]*hhmodels.Resident, 0, len(payload.MemberIDs))
	for _, memberID := range payload.MemberIDs {
		member, ok := byID[memberID]
		if !ok || !member.IsActiveMember() {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "member %s is no longer an active member of the household", memberID)
		}
		// The owner may have changed since creation; the selection must not
		// move whoever owns the source household now.
		if source.OwnerID != nil && *source.OwnerID == memberID {
			return dErrors.New(dErrors.CodeInvariantViolation, "the selection would move the source household's owner")
		}
		selected = append(selected, member)
	}
	if len(selected) >= activeCount {
		return dErrors.New(dErrors.CodeInvariantViolation, "a split must leave at least one active member behind")
	}

	target, err := hhmodels.NewHousehold(id.NewHouseholdID(), payload.NewCode, payload.NewAddress, now)
	if err != nil {
		return err
	}
	target.SetOwner(payload.NewOwnerID, now)
	if err := s.households.Create(ctx, target); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "household code must be unique")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create household")
	}

	for _, member := range selected {
		relation := member.Relation
		if member.ID == payload.NewOwnerID {
			relation = "owner"
		}
		member.MoveToHousehold(target.ID, relation, now)
		if err := s.residents.Update(ctx, member); err != nil {
			return wrapResidentErr(err)
		}
	}
	return nil
}
