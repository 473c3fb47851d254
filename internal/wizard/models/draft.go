// Package models holds the registration wizard domain types: the in-progress
// draft, the step machine, and the wizard instance that owns them.
package models

import (
	"fmt"
	"strconv"
	"strings"

	dErrors "coopgate/pkg/domain-errors"

	"coopgate/internal/session"
)

// Step is the wizard position. The machine is linear: personal info, next of
// kin, then payment/confirmation. Superadmins skip the next-of-kin step
// entirely, collapsing to 1 -> 3.
type Step int

const (
	StepPersonal  Step = 1
	StepNextOfKin Step = 2
	StepPayment   Step = 3
)

// Wire names for draft fields. These match the field names the SPA submits
// and the upstream multipart contract.
const (
	FieldFirstName        = "firstName"
	FieldSurname          = "surname"
	FieldPhone            = "phone"
	FieldAddress          = "address"
	FieldGroup            = "group"
	FieldKinFirstName     = "kinFirstName"
	FieldKinSurname       = "kinSurname"
	FieldKinPhone         = "kinPhone"
	FieldKinAddress       = "kinAddress"
	FieldPaymentConfirmed = "paymentConfirmed"
	FieldPassportImage    = "passportImage"
)

// Passport is the uploaded passport photograph.
type Passport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Draft is the in-progress, unsubmitted registration form state. It lives in
// memory only; it is never written to persistent storage and a gateway
// restart loses it.
type Draft struct {
	FirstName    string
	Surname      string
	Phone        string
	Address      string
	Group        string // group identifier; resolved to a display name at submit time
	KinFirstName string
	KinSurname   string
	KinPhone     string
	KinAddress   string
	Passport     *Passport

	// PaymentConfirmed defaults to true, matching the behavior the SPA
	// shipped with. The payment callback sets it explicitly; see DESIGN.md
	// for the open product question around this default.
	PaymentConfirmed bool
}

// NewDraft returns the initial empty draft.
func NewDraft() Draft {
	return Draft{PaymentConfirmed: true}
}

// UpdateField merges one text or checkbox field into the draft. No field
// level validation happens here; validation occurs only at step transitions
// and submit. File fields go through SetPassport instead.
func (d *Draft) UpdateField(name, value string) error {
	switch name {
	case FieldFirstName:
		d.FirstName = value
	case FieldSurname:
		d.Surname = value
	case FieldPhone:
		d.Phone = value
	case FieldAddress:
		d.Address = value
	case FieldGroup:
		d.Group = value
	case FieldKinFirstName:
		d.KinFirstName = value
	case FieldKinSurname:
		d.KinSurname = value
	case FieldKinPhone:
		d.KinPhone = value
	case FieldKinAddress:
		d.KinAddress = value
	case FieldPaymentConfirmed:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			// Checkbox semantics: anything unparsable is unchecked.
			parsed = false
		}
		d.PaymentConfirmed = parsed
	case FieldPassportImage:
		return dErrors.New(dErrors.CodeInvalidInput, "passportImage must be uploaded as a file")
	default:
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown field %q", name))
	}
	return nil
}

// SetPassport replaces the stored passport blob.
func (d *Draft) SetPassport(p Passport) {
	d.Passport = &p
}

// TextValue returns the current value of a text/checkbox field by wire name.
func (d *Draft) TextValue(name string) string {
	switch name {
	case FieldFirstName:
		return d.FirstName
	case FieldSurname:
		return d.Surname
	case FieldPhone:
		return d.Phone
	case FieldAddress:
		return d.Address
	case FieldGroup:
		return d.Group
	case FieldKinFirstName:
		return d.KinFirstName
	case FieldKinSurname:
		return d.KinSurname
	case FieldKinPhone:
		return d.KinPhone
	case FieldKinAddress:
		return d.KinAddress
	case FieldPaymentConfirmed:
		return strconv.FormatBool(d.PaymentConfirmed)
	default:
		return ""
	}
}

// Values returns every non-empty text field plus the payment flag, keyed by
// wire name. This is the field set the multipart submission encodes, before
// the group identifier is swapped for its resolved display name.
func (d *Draft) Values() map[string]string {
	out := make(map[string]string)
	for _, name := range []string{
		FieldFirstName, FieldSurname, FieldPhone, FieldAddress, FieldGroup,
		FieldKinFirstName, FieldKinSurname, FieldKinPhone, FieldKinAddress,
	} {
		if v := d.TextValue(name); v != "" {
			out[name] = v
		}
	}
	out[FieldPaymentConfirmed] = strconv.FormatBool(d.PaymentConfirmed)
	return out
}

// RequiredFields lists the draft fields that must be non-blank before the
// wizard may advance past the given step.
func RequiredFields(role session.Role, step Step) []string {
	switch step {
	case StepPersonal:
		required := []string{FieldFirstName, FieldSurname, FieldPhone}
		if !role.SkipsNextOfKin() {
			required = append(required, FieldGroup, FieldAddress)
		}
		return required
	case StepNextOfKin:
		if role.SkipsNextOfKin() {
			return nil
		}
		return []string{FieldKinFirstName, FieldKinSurname, FieldKinPhone, FieldKinAddress}
	default:
		return nil
	}
}

// MissingFields returns the required fields for the step that are still
// blank, in declaration order.
func (d *Draft) MissingFields(role session.Role, step Step) []string {
	var missing []string
	for _, name := range RequiredFields(role, step) {
		if strings.TrimSpace(d.TextValue(name)) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// NextStep computes the forward transition for the role. Superadmins jump
// from personal info straight to payment.
func NextStep(role session.Role, current Step) (Step, error) {
	switch current {
	case StepPersonal:
		if role.SkipsNextOfKin() {
			return StepPayment, nil
		}
		return StepNextOfKin, nil
	case StepNextOfKin:
		return StepPayment, nil
	default:
		return current, dErrors.New(dErrors.CodeInvalidInput, "already at the final step")
	}
}

// PrevStep computes the backward transition for the role. Retreating is
// always permitted from step two onward and never goes below step one.
func PrevStep(role session.Role, current Step) (Step, error) {
	switch current {
	case StepPayment:
		if role.SkipsNextOfKin() {
			return StepPersonal, nil
		}
		return StepNextOfKin, nil
	case StepNextOfKin:
		return StepPersonal, nil
	default:
		return current, dErrors.New(dErrors.CodeInvalidInput, "already at the first step")
	}
}
