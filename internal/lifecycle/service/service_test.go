package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	hhmodels "wardbook/internal/household/models"
	householdstore "wardbook/internal/household/store/household"
	residentstore "wardbook/internal/household/store/resident"
	"wardbook/internal/lifecycle/models"
	requeststore "wardbook/internal/lifecycle/store/request"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	"wardbook/pkg/requestcontext"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type LifecycleServiceSuite struct {
	suite.Suite

	requests   *requeststore.InMemory
	households *householdstore.InMemory
	residents  *residentstore.InMemory
	service    *Service

	household *hhmodels.Household
	owner     *hhmodels.Resident
	members   []*hhmodels.Resident
}

func TestLifecycleServiceSuite(t *testing.T) {
	suite.Run(t, new(LifecycleServiceSuite))
}

func (s *LifecycleServiceSuite) SetupTest() {
	s.requests = requeststore.NewInMemory()
	s.households = householdstore.NewInMemory()
	s.residents = residentstore.NewInMemory()
	s.service = New(s.requests, s.households, s.residents, NewMemoryTx())

	ctx := context.Background()

	household, err := hhmodels.NewHousehold(id.NewHouseholdID(), "WB-001", "12 Elm Lane", testNow)
	s.Require().NoError(err)

	owner, err := hhmodels.NewResident(id.NewResidentID(), household.ID, "Owner One", testNow.AddDate(-40, 0, 0), hhmodels.GenderMale, "owner", testNow)
	s.Require().NoError(err)
	household.SetOwner(owner.ID, testNow)

	s.Require().NoError(s.households.Create(ctx, household))
	s.Require().NoError(s.residents.Create(ctx, owner))
	s.household = household
	s.owner = owner

	s.members = []*hhmodels.Resident{owner}
	for _, name := range []string{"Member Two", "Member Three", "Member Four"} {
		member, err := hhmodels.NewResident(id.NewResidentID(), household.ID, name, testNow.AddDate(-20, 0, 0), hhmodels.GenderFemale, "member", testNow)
		s.Require().NoError(err)
		s.Require().NoError(s.residents.Create(ctx, member))
		s.members = append(s.members, member)
	}
}

func (s *LifecycleServiceSuite) staffCtx() context.Context {
	ctx := requestcontext.WithRole(context.Background(), requestcontext.RoleStaff)
	ctx = requestcontext.WithUserID(ctx, id.NewUserID())
	return requestcontext.WithTime(ctx, testNow)
}

func (s *LifecycleServiceSuite) createMoveOut(residentID id.ResidentID) *models.ChangeRequest {
	request, err := s.service.CreateRequest(s.staffCtx(), CreateRequestInput{
		Type:       models.ChangeTypeMoveOut,
		ResidentID: &residentID,
		Payload: models.Payload{
			MoveOut: &models.MoveOutPayload{ToAddress: "9 Oak Street", FromDate: testNow},
		},
	})
	s.Require().NoError(err)
	return request
}

func (s *LifecycleServiceSuite) TestCreateRequestValidation() {
	ctx := s.staffCtx()

	s.Run("birth requires payload fields", func() {
		_, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:        models.ChangeTypeBirth,
			HouseholdID: &s.household.ID,
			Payload:     models.Payload{Birth: &models.BirthPayload{DateOfBirth: testNow}},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("birth must not carry a resident id", func() {
		_, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:        models.ChangeTypeBirth,
			ResidentID:  &s.owner.ID,
			HouseholdID: &s.household.ID,
			Payload: models.Payload{
				Birth: &models.BirthPayload{FullName: "Baby", DateOfBirth: testNow},
			},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("move-out requires an existing resident", func() {
		missing := id.NewResidentID()
		_, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:       models.ChangeTypeMoveOut,
			ResidentID: &missing,
			Payload: models.Payload{
				MoveOut: &models.MoveOutPayload{ToAddress: "9 Oak Street", FromDate: testNow},
			},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("split may never move the whole household", func() {
		_, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:        models.ChangeTypeSplit,
			HouseholdID: &s.household.ID,
			Payload: models.Payload{
				Split: &models.SplitPayload{
					MemberIDs:  []id.ResidentID{s.members[0].ID, s.members[1].ID, s.members[2].ID, s.members[3].ID},
					NewOwnerID: s.members[1].ID,
					NewCode:    "WB-002",
					NewAddress: "3 Birch Road",
				},
			},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("split may not move the current owner", func() {
		_, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:        models.ChangeTypeSplit,
			HouseholdID: &s.household.ID,
			Payload: models.Payload{
				Split: &models.SplitPayload{
					MemberIDs:  []id.ResidentID{s.owner.ID, s.members[1].ID},
					NewOwnerID: s.members[1].ID,
					NewCode:    "WB-002",
					NewAddress: "3 Birch Road",
				},
			},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("split owner must be among the selected members", func() {
		_, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:        models.ChangeTypeSplit,
			HouseholdID: &s.household.ID,
			Payload: models.Payload{
				Split: &models.SplitPayload{
					MemberIDs:  []id.ResidentID{s.members[1].ID},
					NewOwnerID: s.members[2].ID,
					NewCode:    "WB-002",
					NewAddress: "3 Birch Road",
				},
			},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *LifecycleServiceSuite) TestApprovalStateMachine() {
	ctx := s.staffCtx()

	s.Run("double approve fails with invalid transition", func() {
		request := s.createMoveOut(s.members[1].ID)

		approved, err := s.service.Approve(ctx, request.ID)
		s.Require().NoError(err)
		s.Equal(models.ApprovalStatusApproved, approved.ApprovalStatus)
		s.Require().NotNil(approved.ApproverID)

		_, err = s.service.Approve(ctx, request.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("approve then reject fails and keeps the terminal state", func() {
		request := s.createMoveOut(s.members[2].ID)

		_, err := s.service.Approve(ctx, request.ID)
		s.Require().NoError(err)

		_, err = s.service.Reject(ctx, request.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		stored, err := s.service.Get(ctx, request.ID)
		s.Require().NoError(err)
		s.Equal(models.ApprovalStatusApproved, stored.ApprovalStatus)
	})

	s.Run("reject stamps without side effects", func() {
		request := s.createMoveOut(s.members[3].ID)

		rejected, err := s.service.Reject(ctx, request.ID)
		s.Require().NoError(err)
		s.Equal(models.ApprovalStatusRejected, rejected.ApprovalStatus)

		resident, err := s.residents.FindByID(context.Background(), s.members[3].ID)
		s.Require().NoError(err)
		s.Equal(hhmodels.ResidentStatusPermanent, resident.Status)
		s.Require().NotNil(resident.HouseholdID)
	})

	s.Run("non-staff cannot resolve", func() {
		request := s.createMoveOut(s.members[1].ID)
		ctx := requestcontext.WithTime(context.Background(), testNow)
		_, err := s.service.Approve(ctx, request.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *LifecycleServiceSuite) TestBirthAndMoveIn() {
	ctx := s.staffCtx()

	s.Run("approved birth creates the resident and back-fills the request", func() {
		request, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:        models.ChangeTypeBirth,
			HouseholdID: &s.household.ID,
			Payload: models.Payload{
				Birth: &models.BirthPayload{FullName: "Baby Five", DateOfBirth: testNow},
			},
		})
		s.Require().NoError(err)
		s.Nil(request.ResidentID)

		approved, err := s.service.Approve(ctx, request.ID)
		s.Require().NoError(err)
		s.Require().NotNil(approved.ResidentID)

		child, err := s.residents.FindByID(context.Background(), *approved.ResidentID)
		s.Require().NoError(err)
		s.Equal("Baby Five", child.FullName)
		s.Equal("child", child.Relation)
		s.Equal(hhmodels.ResidentStatusPermanent, child.Status)
		s.Require().NotNil(child.HouseholdID)
		s.Equal(s.household.ID, *child.HouseholdID)
	})

	s.Run("move-in with a duplicate national id fails the approval", func() {
		s.owner.NationalID = "ID-12345"
		s.Require().NoError(s.residents.Update(context.Background(), s.owner))

		request, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:        models.ChangeTypeMoveIn,
			HouseholdID: &s.household.ID,
			Payload: models.Payload{
				MoveIn: &models.MoveInPayload{
					FullName:    "New Neighbor",
					DateOfBirth: testNow.AddDate(-25, 0, 0),
					NationalID:  "ID-12345",
				},
			},
		})
		s.Require().NoError(err)

		_, err = s.service.Approve(ctx, request.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateResident))

		// The failed approval leaves the request pending.
		stored, err := s.service.Get(ctx, request.ID)
		s.Require().NoError(err)
		s.Equal(models.ApprovalStatusPending, stored.ApprovalStatus)
	})
}

func (s *LifecycleServiceSuite) TestMoveOutAndDeath() {
	ctx := s.staffCtx()

	s.Run("approved move-out detaches the resident", func() {
		request := s.createMoveOut(s.members[1].ID)
		_, err := s.service.Approve(ctx, request.ID)
		s.Require().NoError(err)

		resident, err := s.residents.FindByID(context.Background(), s.members[1].ID)
		s.Require().NoError(err)
		s.Equal(hhmodels.ResidentStatusMovedOut, resident.Status)
		s.Nil(resident.HouseholdID)
	})

	s.Run("move-out of a deceased resident is a no-op", func() {
		target := s.members[2]
		request := s.createMoveOut(target.ID)

		deathRequest, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:       models.ChangeTypeDeath,
			ResidentID: &target.ID,
			Payload:    models.Payload{Death: &models.DeathPayload{DateOfDeath: testNow}},
		})
		s.Require().NoError(err)
		_, err = s.service.Approve(ctx, deathRequest.ID)
		s.Require().NoError(err)

		// Death flips status but keeps household membership.
		deceased, err := s.residents.FindByID(context.Background(), target.ID)
		s.Require().NoError(err)
		s.Equal(hhmodels.ResidentStatusDeceased, deceased.Status)
		s.Require().NotNil(deceased.HouseholdID)

		_, err = s.service.Approve(ctx, request.ID)
		s.Require().NoError(err)

		unchanged, err := s.residents.FindByID(context.Background(), target.ID)
		s.Require().NoError(err)
		s.Equal(hhmodels.ResidentStatusDeceased, unchanged.Status)
		s.Require().NotNil(unchanged.HouseholdID)
	})

	s.Run("temporary absence flips status and keeps membership", func() {
		request, err := s.service.CreateRequest(ctx, CreateRequestInput{
			Type:       models.ChangeTypeTemporaryAbsence,
			ResidentID: &s.members[3].ID,
			Payload: models.Payload{
				TemporaryAbsence: &models.TemporaryAbsencePayload{Destination: "abroad", FromDate: testNow},
			},
		})
		s.Require().NoError(err)
		_, err = s.service.Approve(ctx, request.ID)
		s.Require().NoError(err)

		resident, err := s.residents.FindByID(context.Background(), s.members[3].ID)
		s.Require().NoError(err)
		s.Equal(hhmodels.ResidentStatusTemporaryAbsent, resident.Status)
		s.Require().NotNil(resident.HouseholdID)
		s.True(resident.IsActiveMember())
	})
}

func (s *LifecycleServiceSuite) TestSplit() {
	ctx := s.staffCtx()

	moved := []id.ResidentID{s.members[2].ID, s.members[3].ID}
	request, err := s.service.CreateRequest(ctx, CreateRequestInput{
		Type:        models.ChangeTypeSplit,
		HouseholdID: &s.household.ID,
		Payload: models.Payload{
			Split: &models.SplitPayload{
				MemberIDs:  moved,
				NewOwnerID: s.members[2].ID,
				NewCode:    "WB-002",
				NewAddress: "3 Birch Road",
			},
		},
	})
	s.Require().NoError(err)

	_, err = s.service.Approve(ctx, request.ID)
	s.Require().NoError(err)

	target, err := s.households.FindByCode(context.Background(), "WB-002")
	s.Require().NoError(err)
	s.Require().NotNil(target.OwnerID)
	s.Equal(s.members[2].ID, *target.OwnerID)

	newOwner, err := s.residents.FindByID(context.Background(), s.members[2].ID)
	s.Require().NoError(err)
	s.Equal(target.ID, *newOwner.HouseholdID)
	s.Equal("owner", newOwner.Relation)

	movedMember, err := s.residents.FindByID(context.Background(), s.members[3].ID)
	s.Require().NoError(err)
	s.Equal(target.ID, *movedMember.HouseholdID)
	s.Equal("member", movedMember.Relation)

	// The source household keeps its remaining members and owner.
	source, err := s.households.FindByID(context.Background(), s.household.ID)
	s.Require().NoError(err)
	s.Require().NotNil(source.OwnerID)
	s.Equal(s.owner.ID, *source.OwnerID)

	remaining, err := s.residents.CountActiveMembers(context.Background(), s.household.ID)
	s.Require().NoError(err)
	s.Equal(2, remaining)
}

func (s *LifecycleServiceSuite) TestSplitOwnershipDrift() {
	ctx := s.staffCtx()

	// Valid at creation: neither selected member owns the household yet.
	splitRequest, err := s.service.CreateRequest(ctx, CreateRequestInput{
		Type:        models.ChangeTypeSplit,
		HouseholdID: &s.household.ID,
		Payload: models.Payload{
			Split: &models.SplitPayload{
				MemberIDs:  []id.ResidentID{s.members[2].ID, s.members[3].ID},
				NewOwnerID: s.members[2].ID,
				NewCode:    "WB-002",
				NewAddress: "3 Birch Road",
			},
		},
	})
	s.Require().NoError(err)

	// Ownership moves to a selected member before the split resolves.
	ownerChange, err := s.service.CreateRequest(ctx, CreateRequestInput{
		Type:        models.ChangeTypeOwnerChange,
		HouseholdID: &s.household.ID,
		Payload: models.Payload{
			OwnerChange: &models.OwnerChangePayload{NewOwnerID: s.members[2].ID},
		},
	})
	s.Require().NoError(err)
	_, err = s.service.Approve(ctx, ownerChange.ID)
	s.Require().NoError(err)

	_, err = s.service.Approve(ctx, splitRequest.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	// The failed approval rolls back: the request stays pending and the
	// owner still belongs to the source household.
	stored, err := s.service.Get(ctx, splitRequest.ID)
	s.Require().NoError(err)
	s.Equal(models.ApprovalStatusPending, stored.ApprovalStatus)

	source, err := s.households.FindByID(context.Background(), s.household.ID)
	s.Require().NoError(err)
	s.Require().NotNil(source.OwnerID)
	s.Equal(s.members[2].ID, *source.OwnerID)

	currentOwner, err := s.residents.FindByID(context.Background(), s.members[2].ID)
	s.Require().NoError(err)
	s.Require().NotNil(currentOwner.HouseholdID)
	s.Equal(s.household.ID, *currentOwner.HouseholdID)
}

func (s *LifecycleServiceSuite) TestOwnerChange() {
	ctx := s.staffCtx()

	request, err := s.service.CreateRequest(ctx, CreateRequestInput{
		Type:        models.ChangeTypeOwnerChange,
		HouseholdID: &s.household.ID,
		Payload: models.Payload{
			OwnerChange: &models.OwnerChangePayload{NewOwnerID: s.members[1].ID},
		},
	})
	s.Require().NoError(err)

	_, err = s.service.Approve(ctx, request.ID)
	s.Require().NoError(err)

	household, err := s.households.FindByID(context.Background(), s.household.ID)
	s.Require().NoError(err)
	s.Require().NotNil(household.OwnerID)
	s.Equal(s.members[1].ID, *household.OwnerID)

	s.Run("candidate outside the household is rejected at creation", func() {
		outsider, err := hhmodels.NewResident(id.NewResidentID(), id.NewHouseholdID(), "Outsider", testNow.AddDate(-30, 0, 0), hhmodels.GenderOther, "member", testNow)
		s.Require().NoError(err)
		s.Require().NoError(s.residents.Create(context.Background(), outsider))

		_, err = s.service.CreateRequest(ctx, CreateRequestInput{
			Type:        models.ChangeTypeOwnerChange,
			HouseholdID: &s.household.ID,
			Payload: models.Payload{
				OwnerChange: &models.OwnerChangePayload{NewOwnerID: outsider.ID},
			},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
