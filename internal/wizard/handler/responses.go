package handler

import (
	"time"

	"coopgate/internal/groups"
	"coopgate/internal/wizard/models"
)

// CreateResponse is returned once per wizard; Key is the plaintext owner key
// and never appears again.
type CreateResponse struct {
	Wizard WizardResponse `json:"wizard"`
	Key    string         `json:"key"`
}

// WizardResponse is the state snapshot the SPA renders from. The passport
// blob never travels back; only its presence does.
type WizardResponse struct {
	ID               string            `json:"id"`
	Role             string            `json:"role"`
	Step             int               `json:"step"`
	Fields           map[string]string `json:"fields"`
	PaymentConfirmed bool              `json:"payment_confirmed"`
	HasPassport      bool              `json:"has_passport"`
	CanAdvance       bool              `json:"can_advance"`
	MissingFields    []string          `json:"missing_fields,omitempty"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// SubmitResponse carries the upstream (or generic) success message.
type SubmitResponse struct {
	Message string `json:"message"`
}

// GroupsResponse lists the selectable cooperative groups.
type GroupsResponse struct {
	Groups []GroupResponse `json:"groups"`
}

type GroupResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toWizardResponse(w *models.Wizard) WizardResponse {
	fields := w.Draft.Values()
	delete(fields, models.FieldPaymentConfirmed) // exposed as a typed bool instead

	return WizardResponse{
		ID:               w.ID.String(),
		Role:             string(w.Role),
		Step:             int(w.Step),
		Fields:           fields,
		PaymentConfirmed: w.Draft.PaymentConfirmed,
		HasPassport:      w.Draft.Passport != nil,
		CanAdvance:       w.CanAdvance(),
		MissingFields:    w.Draft.MissingFields(w.Role, w.Step),
		UpdatedAt:        w.UpdatedAt,
	}
}

func toCreateResponse(w *models.Wizard, key string) CreateResponse {
	return CreateResponse{
		Wizard: toWizardResponse(w),
		Key:    key,
	}
}

func toGroupsResponse(list []groups.Group) GroupsResponse {
	out := make([]GroupResponse, 0, len(list))
	for _, g := range list {
		out = append(out, GroupResponse{ID: g.ID, Name: g.Name})
	}
	return GroupsResponse{Groups: out}
}
