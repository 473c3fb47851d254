package service

import (
	"context"
	"strings"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"coopgate/internal/session"
	"coopgate/internal/wizard/models"
	dErrors "coopgate/pkg/domain-errors"
	pvalidation "coopgate/pkg/platform/validation"
)

func (s *ServiceSuite) TestCreateReturnsKeyOnce() {
	ctx := context.Background()

	var stored *models.Wizard
	s.mockStore.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, w *models.Wizard) error {
			stored = w
			return nil
		})

	w, key, err := s.service.Create(ctx, session.RoleMember)
	s.Require().NoError(err)
	s.NotEmpty(key)
	s.Equal(models.StepPersonal, w.Step)
	s.True(w.Draft.PaymentConfirmed)

	s.Require().NotNil(stored)
	s.NotEqual(key, stored.KeyHash, "plaintext key must never be stored")
}

func (s *ServiceSuite) TestGetRejectsWrongKey() {
	ctx := context.Background()
	w := s.newOwnedWizard(session.RoleMember)
	s.mockStore.EXPECT().FindByID(gomock.Any(), w.ID).Return(w, nil).Times(2)

	got, err := s.service.Get(ctx, w.ID, s.ownerKey)
	s.Require().NoError(err)
	s.Equal(w.ID, got.ID)

	_, err = s.service.Get(ctx, w.ID, "not-the-key")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestUpdateFields() {
	ctx := context.Background()
	w := s.newOwnedWizard(session.RoleMember)

	s.Run("Given known fields When update Then draft holds them", func() {
		s.expectMutate(w)

		updated, err := s.service.UpdateFields(ctx, w.ID, s.ownerKey, map[string]string{
			models.FieldFirstName: "Adunni",
			models.FieldPhone:     "08031234567",
		})
		s.Require().NoError(err)
		s.Equal("Adunni", updated.Draft.FirstName)
		s.Equal("08031234567", updated.Draft.Phone)
	})

	s.Run("Given an unknown field When update Then the whole batch is rejected", func() {
		fresh := s.newOwnedWizard(session.RoleMember)
		s.expectMutate(fresh)

		_, err := s.service.UpdateFields(ctx, fresh.ID, s.ownerKey, map[string]string{
			models.FieldFirstName: "Adunni",
			"middleName":          "X",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("Given an oversize value When update Then rejected before the store", func() {
		_, err := s.service.UpdateFields(ctx, w.ID, s.ownerKey, map[string]string{
			models.FieldAddress: strings.Repeat("a", pvalidation.MaxFieldValueLength+1),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestAttachPassportBounds() {
	ctx := context.Background()
	w := s.newOwnedWizard(session.RoleMember)

	s.Run("empty upload rejected", func() {
		_, err := s.service.AttachPassport(ctx, w.ID, s.ownerKey, models.Passport{Filename: "p.jpg"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("oversize upload rejected", func() {
		_, err := s.service.AttachPassport(ctx, w.ID, s.ownerKey, models.Passport{
			Filename: "p.jpg",
			Data:     make([]byte, MaxPassportBytes+1),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("valid upload stored", func() {
		s.expectMutate(w)
		updated, err := s.service.AttachPassport(ctx, w.ID, s.ownerKey, models.Passport{
			Filename:    "p.jpg",
			ContentType: "image/jpeg",
			Data:        []byte{0xff, 0xd8},
		})
		s.Require().NoError(err)
		s.Require().NotNil(updated.Draft.Passport)
		s.Equal("p.jpg", updated.Draft.Passport.Filename)
	})
}

func (s *ServiceSuite) TestAdvanceGatesOnRequiredFields() {
	ctx := context.Background()

	s.Run("Given a blank draft When advance Then validation error names the field", func() {
		w := s.newOwnedWizard(session.RoleMember)
		s.expectMutate(w)

		_, err := s.service.Advance(ctx, w.ID, s.ownerKey)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), models.FieldFirstName)
		s.Equal(models.StepPersonal, w.Step, "failed advance must not move the step")
	})

	s.Run("Given a complete step one When advance Then member lands on next of kin", func() {
		w := s.newOwnedWizard(session.RoleMember)
		w.Draft.FirstName = "Adunni"
		w.Draft.Surname = "Balogun"
		w.Draft.Phone = "08031234567"
		w.Draft.Address = "12 Allen Avenue"
		w.Draft.Group = "3"
		s.expectMutate(w)

		updated, err := s.service.Advance(ctx, w.ID, s.ownerKey)
		s.Require().NoError(err)
		s.Equal(models.StepNextOfKin, updated.Step)
	})

	s.Run("Given a superadmin When advance from step one Then payment step", func() {
		w := s.newOwnedWizard(session.RoleSuperAdmin)
		w.Draft.FirstName = "Adunni"
		w.Draft.Surname = "Balogun"
		w.Draft.Phone = "08031234567"
		s.expectMutate(w)

		updated, err := s.service.Advance(ctx, w.ID, s.ownerKey)
		s.Require().NoError(err)
		s.Equal(models.StepPayment, updated.Step)
	})
}

func (s *ServiceSuite) TestRetreatHasNoPreconditions() {
	ctx := context.Background()

	s.Run("member retreats payment to next of kin", func() {
		w := s.newOwnedWizard(session.RoleMember)
		w.Step = models.StepPayment
		s.expectMutate(w)

		updated, err := s.service.Retreat(ctx, w.ID, s.ownerKey)
		s.Require().NoError(err)
		s.Equal(models.StepNextOfKin, updated.Step)
	})

	s.Run("superadmin retreats payment straight to personal", func() {
		w := s.newOwnedWizard(session.RoleSuperAdmin)
		w.Step = models.StepPayment
		s.expectMutate(w)

		updated, err := s.service.Retreat(ctx, w.ID, s.ownerKey)
		s.Require().NoError(err)
		s.Equal(models.StepPersonal, updated.Step)
	})

	s.Run("retreat from step one fails", func() {
		w := s.newOwnedWizard(session.RoleMember)
		s.expectMutate(w)

		_, err := s.service.Retreat(ctx, w.ID, s.ownerKey)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestConfirmPayment() {
	ctx := context.Background()
	w := s.newOwnedWizard(session.RoleMember)
	w.Draft.PaymentConfirmed = false
	s.expectMutate(w)

	updated, err := s.service.ConfirmPayment(ctx, w.ID, s.ownerKey)
	s.Require().NoError(err)
	s.True(updated.Draft.PaymentConfirmed)
}

func (s *ServiceSuite) TestAbandon() {
	ctx := context.Background()
	w := s.newOwnedWizard(session.RoleMember)

	s.Run("owner can abandon", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), w.ID).Return(w, nil)
		s.mockStore.EXPECT().Delete(gomock.Any(), w.ID).Return(nil)

		s.NoError(s.service.Abandon(ctx, w.ID, s.ownerKey))
	})

	s.Run("wrong key cannot abandon", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), w.ID).Return(w, nil)

		err := s.service.Abandon(ctx, w.ID, "bogus")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown wizard propagates not found", func() {
		s.mockStore.EXPECT().FindByID(gomock.Any(), w.ID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "wizard not found"))

		err := s.service.Abandon(ctx, w.ID, s.ownerKey)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestStoreErrorPropagates() {
	ctx := context.Background()
	w := s.newOwnedWizard(session.RoleMember)
	s.mockStore.EXPECT().FindByID(gomock.Any(), w.ID).Return(nil, assert.AnError)

	_, err := s.service.Get(ctx, w.ID, s.ownerKey)
	s.ErrorIs(err, assert.AnError)
}
