package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coopgate/internal/session"
	dErrors "coopgate/pkg/domain-errors"
)

func filledStepOne(role session.Role) Draft {
	d := NewDraft()
	d.FirstName = "Adunni"
	d.Surname = "Balogun"
	d.Phone = "08031234567"
	if !role.SkipsNextOfKin() {
		d.Group = "2"
		d.Address = "14 Allen Avenue, Ikeja"
	}
	return d
}

func TestUpdateFieldMergesText(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.UpdateField(FieldFirstName, "Adunni"))
	require.NoError(t, d.UpdateField(FieldKinPhone, "08189990000"))

	assert.Equal(t, "Adunni", d.FirstName)
	assert.Equal(t, "08189990000", d.KinPhone)
}

func TestUpdateFieldIdempotent(t *testing.T) {
	d := NewDraft()
	require.NoError(t, d.UpdateField(FieldSurname, "Balogun"))
	before := d
	require.NoError(t, d.UpdateField(FieldSurname, "Balogun"))
	assert.Equal(t, before, d)
}

func TestUpdateFieldCheckboxSemantics(t *testing.T) {
	d := NewDraft()
	assert.True(t, d.PaymentConfirmed, "payment flag defaults to true")

	require.NoError(t, d.UpdateField(FieldPaymentConfirmed, "false"))
	assert.False(t, d.PaymentConfirmed)

	require.NoError(t, d.UpdateField(FieldPaymentConfirmed, "true"))
	assert.True(t, d.PaymentConfirmed)

	// Unparsable checkbox values mean unchecked.
	require.NoError(t, d.UpdateField(FieldPaymentConfirmed, "maybe"))
	assert.False(t, d.PaymentConfirmed)
}

func TestUpdateFieldRejectsUnknownAndFileFields(t *testing.T) {
	d := NewDraft()
	err := d.UpdateField("favouriteColour", "blue")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = d.UpdateField(FieldPassportImage, "raw-bytes")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestRequiredFieldsStepOne(t *testing.T) {
	assert.Equal(t,
		[]string{FieldFirstName, FieldSurname, FieldPhone, FieldGroup, FieldAddress},
		RequiredFields(session.RoleMember, StepPersonal))

	assert.Equal(t,
		[]string{FieldFirstName, FieldSurname, FieldPhone},
		RequiredFields(session.RoleSuperAdmin, StepPersonal))
}

func TestRequiredFieldsStepTwo(t *testing.T) {
	assert.Equal(t,
		[]string{FieldKinFirstName, FieldKinSurname, FieldKinPhone, FieldKinAddress},
		RequiredFields(session.RoleAdmin, StepNextOfKin))

	assert.Empty(t, RequiredFields(session.RoleSuperAdmin, StepNextOfKin))
}

func TestMissingFieldsTreatsBlankAsEmpty(t *testing.T) {
	d := filledStepOne(session.RoleMember)
	d.Address = "   "
	assert.Equal(t, []string{FieldAddress}, d.MissingFields(session.RoleMember, StepPersonal))
}

func TestMissingFieldsAnyEmptyBlocksAdvance(t *testing.T) {
	for _, field := range RequiredFields(session.RoleMember, StepPersonal) {
		d := filledStepOne(session.RoleMember)
		require.NoError(t, d.UpdateField(field, ""))
		assert.Equal(t, []string{field}, d.MissingFields(session.RoleMember, StepPersonal),
			"clearing %s must block advancing", field)
	}
}

func TestNextStepLinearForMember(t *testing.T) {
	next, err := NextStep(session.RoleMember, StepPersonal)
	require.NoError(t, err)
	assert.Equal(t, StepNextOfKin, next)

	next, err = NextStep(session.RoleMember, StepNextOfKin)
	require.NoError(t, err)
	assert.Equal(t, StepPayment, next)

	_, err = NextStep(session.RoleMember, StepPayment)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestNextStepSuperadminSkipsNextOfKin(t *testing.T) {
	next, err := NextStep(session.RoleSuperAdmin, StepPersonal)
	require.NoError(t, err)
	assert.Equal(t, StepPayment, next)
}

func TestPrevStepNeverBelowFirst(t *testing.T) {
	prev, err := PrevStep(session.RoleMember, StepPayment)
	require.NoError(t, err)
	assert.Equal(t, StepNextOfKin, prev)

	prev, err = PrevStep(session.RoleMember, StepNextOfKin)
	require.NoError(t, err)
	assert.Equal(t, StepPersonal, prev)

	_, err = PrevStep(session.RoleMember, StepPersonal)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestPrevStepSuperadminJumpsBackToPersonal(t *testing.T) {
	prev, err := PrevStep(session.RoleSuperAdmin, StepPayment)
	require.NoError(t, err)
	assert.Equal(t, StepPersonal, prev)
}

func TestValuesOmitsEmptyFieldsAndKeepsPaymentFlag(t *testing.T) {
	d := NewDraft()
	d.FirstName = "Adunni"
	d.Group = "5"

	values := d.Values()
	assert.Equal(t, map[string]string{
		FieldFirstName:        "Adunni",
		FieldGroup:            "5",
		FieldPaymentConfirmed: "true",
	}, values)
}

func TestWizardResetRoundTrip(t *testing.T) {
	now := time.Now()
	w := NewWizard(session.RoleMember, "hash", now)
	w.Draft = filledStepOne(session.RoleMember)
	w.Draft.SetPassport(Passport{Filename: "me.jpg", ContentType: "image/jpeg", Data: []byte{1, 2}})
	w.Step = StepPayment

	w.ResetDraft(now.Add(time.Minute))

	assert.Equal(t, NewDraft(), w.Draft)
	assert.Equal(t, StepPersonal, w.Step)
}

func TestWizardCloneIsDeep(t *testing.T) {
	w := NewWizard(session.RoleMember, "hash", time.Now())
	w.Draft.SetPassport(Passport{Filename: "me.jpg", ContentType: "image/jpeg", Data: []byte{1, 2, 3}})

	clone := w.Clone()
	clone.Draft.Passport.Data[0] = 9
	clone.Draft.FirstName = "changed"

	assert.EqualValues(t, 1, w.Draft.Passport.Data[0])
	assert.Empty(t, w.Draft.FirstName)
}
