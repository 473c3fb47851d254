package service

import (
	"context"

	"go.uber.org/mock/gomock"

	"coopgate/internal/session"
	"coopgate/internal/upstream"
	"coopgate/internal/wizard/models"
	dErrors "coopgate/pkg/domain-errors"
)

func (s *ServiceSuite) expectSubmitLookup(w *models.Wizard) {
	s.mockStore.EXPECT().FindByID(gomock.Any(), w.ID).Return(w, nil)
	s.mockStore.EXPECT().BeginSubmit(gomock.Any(), w.ID).Return(w, nil)
	s.mockStore.EXPECT().EndSubmit(gomock.Any(), w.ID)
}

func (s *ServiceSuite) TestSubmitMemberSuccessResetsDraft() {
	ctx := context.Background()
	w := s.newSubmittableWizard(session.RoleMember)
	w.Draft.SetPassport(models.Passport{Filename: "p.jpg", ContentType: "image/jpeg", Data: []byte{1}})

	s.expectSubmitLookup(w)
	s.mockGroups.EXPECT().Resolve(gomock.Any(), "5").Return("Oluwanisola")

	var sent upstream.Submission
	s.mockUpstream.EXPECT().
		SubmitRegistration(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, sub upstream.Submission) (string, error) {
			sent = sub
			return "Welcome to the society.", nil
		})
	s.expectMutate(w)

	msg, err := s.service.Submit(ctx, w.ID, s.ownerKey, SubmitMeta{})
	s.Require().NoError(err)
	s.Equal("Welcome to the society.", msg)

	s.Equal("/members/register", sent.Route.Path)
	s.False(sent.Route.Authenticated)
	s.Empty(sent.BearerToken)
	s.Equal("Oluwanisola", sent.Fields[models.FieldGroup], "group travels as a display name, not an id")
	s.Equal("Adunni", sent.Fields[models.FieldFirstName])
	s.Require().NotNil(sent.Passport)

	s.Equal(models.StepPersonal, w.Step, "draft resets to step one after success")
	s.Empty(w.Draft.FirstName)
	s.Nil(w.Draft.Passport)
	s.True(w.Draft.PaymentConfirmed)
}

func (s *ServiceSuite) TestSubmitEmptyServerMessageGetsGenericOne() {
	ctx := context.Background()
	w := s.newSubmittableWizard(session.RoleMember)

	s.expectSubmitLookup(w)
	s.mockGroups.EXPECT().Resolve(gomock.Any(), "5").Return("Oluwanisola")
	s.mockUpstream.EXPECT().SubmitRegistration(gomock.Any(), gomock.Any()).Return("", nil)
	s.expectMutate(w)

	msg, err := s.service.Submit(ctx, w.ID, s.ownerKey, SubmitMeta{})
	s.Require().NoError(err)
	s.Equal(MsgRegistered, msg)
}

func (s *ServiceSuite) TestSubmitFailureLeavesDraftIntact() {
	ctx := context.Background()
	w := s.newSubmittableWizard(session.RoleMember)

	s.expectSubmitLookup(w)
	s.mockGroups.EXPECT().Resolve(gomock.Any(), "5").Return("Oluwanisola")
	s.mockUpstream.EXPECT().
		SubmitRegistration(gomock.Any(), gomock.Any()).
		Return("", dErrors.New(dErrors.CodeConflict, upstream.MsgAlreadyRegistered))

	_, err := s.service.Submit(ctx, w.ID, s.ownerKey, SubmitMeta{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(upstream.MsgAlreadyRegistered, dErrors.MessageOf(err, ""))

	s.Equal(models.StepPayment, w.Step, "failed submission must not reset anything")
	s.Equal("Adunni", w.Draft.FirstName)
}

func (s *ServiceSuite) TestSubmitRejectedWhenAlreadyInFlight() {
	ctx := context.Background()
	w := s.newSubmittableWizard(session.RoleMember)

	s.mockStore.EXPECT().FindByID(gomock.Any(), w.ID).Return(w, nil)
	s.mockStore.EXPECT().BeginSubmit(gomock.Any(), w.ID).
		Return(nil, dErrors.New(dErrors.CodeConflict, "submission already in progress"))

	_, err := s.service.Submit(ctx, w.ID, s.ownerKey, SubmitMeta{})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestSubmitRequiresPaymentStep() {
	ctx := context.Background()
	w := s.newSubmittableWizard(session.RoleMember)
	w.Step = models.StepNextOfKin

	s.expectSubmitLookup(w)

	_, err := s.service.Submit(ctx, w.ID, s.ownerKey, SubmitMeta{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestSubmitRequiresCoreIdentityFields() {
	ctx := context.Background()
	w := s.newSubmittableWizard(session.RoleMember)
	w.Draft.Phone = "   "

	s.expectSubmitLookup(w)

	_, err := s.service.Submit(ctx, w.ID, s.ownerKey, SubmitMeta{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestSubmitAdminForwardsBearerToken() {
	w := s.newSubmittableWizard(session.RoleAdmin)
	ctx := session.WithActor(context.Background(), session.Actor{
		Subject: "admin-1",
		Role:    session.RoleAdmin,
		Token:   "raw-bearer-token",
	})

	s.expectSubmitLookup(w)
	s.mockGroups.EXPECT().Resolve(gomock.Any(), "5").Return("Oluwanisola")

	var sent upstream.Submission
	s.mockUpstream.EXPECT().
		SubmitRegistration(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, sub upstream.Submission) (string, error) {
			sent = sub
			return "Member created.", nil
		})
	s.expectMutate(w)

	_, err := s.service.Submit(ctx, w.ID, s.ownerKey, SubmitMeta{})
	s.Require().NoError(err)
	s.Equal("/admin/members", sent.Route.Path)
	s.True(sent.Route.Authenticated)
	s.Equal("raw-bearer-token", sent.BearerToken)
}

func (s *ServiceSuite) TestSubmitAdminWithoutActorIsUnauthorized() {
	ctx := context.Background() // no actor attached
	w := s.newSubmittableWizard(session.RoleAdmin)

	s.expectSubmitLookup(w)
	s.mockGroups.EXPECT().Resolve(gomock.Any(), "5").Return("Oluwanisola")

	_, err := s.service.Submit(ctx, w.ID, s.ownerKey, SubmitMeta{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestSubmitWrongKeyNeverTouchesUpstream() {
	ctx := context.Background()
	w := s.newSubmittableWizard(session.RoleMember)

	s.mockStore.EXPECT().FindByID(gomock.Any(), w.ID).Return(w, nil)

	_, err := s.service.Submit(ctx, w.ID, "bogus", SubmitMeta{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
