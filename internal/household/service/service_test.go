package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"wardbook/internal/household/models"
	householdstore "wardbook/internal/household/store/household"
	residentstore "wardbook/internal/household/store/resident"
	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	"wardbook/pkg/requestcontext"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type HouseholdServiceSuite struct {
	suite.Suite

	households *householdstore.InMemory
	residents  *residentstore.InMemory
	service    *Service
}

func TestHouseholdServiceSuite(t *testing.T) {
	suite.Run(t, new(HouseholdServiceSuite))
}

func (s *HouseholdServiceSuite) SetupTest() {
	s.households = householdstore.NewInMemory()
	s.residents = residentstore.NewInMemory()
	s.service = New(s.households, s.residents, NewMemoryTx())
}

func (s *HouseholdServiceSuite) staffCtx() context.Context {
	ctx := requestcontext.WithRole(context.Background(), requestcontext.RoleStaff)
	ctx = requestcontext.WithUserID(ctx, id.NewUserID())
	return requestcontext.WithTime(ctx, testNow)
}

func (s *HouseholdServiceSuite) register(code string) *HouseholdDetails {
	details, err := s.service.Register(s.staffCtx(), RegisterInput{
		Code:    code,
		Address: "12 Elm Lane",
		Owner: OwnerInput{
			FullName:    "Owner One",
			DateOfBirth: testNow.AddDate(-40, 0, 0),
			Gender:      models.GenderMale,
		},
	})
	s.Require().NoError(err)
	return details
}

func (s *HouseholdServiceSuite) addMember(householdID id.HouseholdID, name string) *models.Resident {
	member, err := models.NewResident(id.NewResidentID(), householdID, name, testNow.AddDate(-20, 0, 0), models.GenderFemale, "member", testNow)
	s.Require().NoError(err)
	s.Require().NoError(s.residents.Create(context.Background(), member))
	return member
}

func (s *HouseholdServiceSuite) TestRegister() {
	s.Run("creates household with owner resident", func() {
		details := s.register("WB-001")
		s.Equal(1, details.MemberCount)
		s.Require().NotNil(details.Household.OwnerID)

		owner, err := s.residents.FindByID(context.Background(), *details.Household.OwnerID)
		s.Require().NoError(err)
		s.Equal("owner", owner.Relation)
		s.Equal(models.ResidentStatusPermanent, owner.Status)
	})

	s.Run("duplicate code aborts the whole registration", func() {
		s.register("WB-002")
		_, err := s.service.Register(s.staffCtx(), RegisterInput{
			Code:    "WB-002",
			Address: "9 Oak Street",
			Owner: OwnerInput{
				FullName:    "Owner Two",
				DateOfBirth: testNow.AddDate(-35, 0, 0),
			},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("non-staff cannot register", func() {
		ctx := requestcontext.WithTime(context.Background(), testNow)
		_, err := s.service.Register(ctx, RegisterInput{Code: "WB-003", Address: "x"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *HouseholdServiceSuite) TestToggleStatusCascade() {
	ctx := s.staffCtx()

	details := s.register("WB-001")
	householdID := details.Household.ID
	member := s.addMember(householdID, "Member Two")
	absent := s.addMember(householdID, "Member Three")
	absent.ApplyStatus(models.ResidentStatusTemporaryAbsent, testNow)
	s.Require().NoError(s.residents.Update(context.Background(), absent))

	// One member moved out independently before the toggle.
	gone := s.addMember(householdID, "Member Four")
	gone.ApplyMoveOut(testNow)
	s.Require().NoError(s.residents.Update(context.Background(), gone))

	s.Run("deactivation moves every billing-active member out", func() {
		household, err := s.service.ToggleStatus(ctx, householdID)
		s.Require().NoError(err)
		s.Equal(models.HouseholdStatusInactive, household.Status)

		for _, residentID := range []id.ResidentID{*details.Household.OwnerID, member.ID, absent.ID} {
			resident, err := s.residents.FindByID(context.Background(), residentID)
			s.Require().NoError(err)
			s.Equal(models.ResidentStatusMovedOut, resident.Status)
		}
		count, err := s.residents.CountActiveMembers(context.Background(), householdID)
		s.Require().NoError(err)
		s.Equal(0, count)
	})

	s.Run("reactivation restores only members moved out by the toggle", func() {
		household, err := s.service.ToggleStatus(ctx, householdID)
		s.Require().NoError(err)
		s.Equal(models.HouseholdStatusActive, household.Status)

		count, err := s.residents.CountActiveMembers(context.Background(), householdID)
		s.Require().NoError(err)
		s.Equal(3, count)

		// The independently moved-out member stays moved out.
		unaffected, err := s.residents.FindByID(context.Background(), gone.ID)
		s.Require().NoError(err)
		s.Equal(models.ResidentStatusMovedOut, unaffected.Status)
		s.Nil(unaffected.HouseholdID)
	})
}

func (s *HouseholdServiceSuite) TestGetAndListResidents() {
	details := s.register("WB-001")
	householdID := details.Household.ID
	s.addMember(householdID, "Member Two")

	got, err := s.service.Get(context.Background(), householdID)
	s.Require().NoError(err)
	s.Equal(2, got.MemberCount)

	residents, err := s.service.ListResidents(context.Background(), householdID)
	s.Require().NoError(err)
	s.Len(residents, 2)

	_, err = s.service.Get(context.Background(), id.NewHouseholdID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
