package models

import (
	"time"

	"github.com/google/uuid"

	"coopgate/internal/session"
)

// Wizard is one live registration wizard instance. The draft it owns is
// single-writer, single-owner state: exactly one client drives it, identified
// by the owner key issued at creation.
type Wizard struct {
	ID      uuid.UUID
	Role    session.Role
	Step    Step
	Draft   Draft
	KeyHash string // bcrypt hash of the owner key; the plaintext is returned once

	// Submitting guards against re-entrant submission: at most one
	// in-flight upstream call per wizard instance.
	Submitting bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWizard creates a fresh instance at step one with an empty draft.
func NewWizard(role session.Role, keyHash string, now time.Time) *Wizard {
	return &Wizard{
		ID:        uuid.New(),
		Role:      role,
		Step:      StepPersonal,
		Draft:     NewDraft(),
		KeyHash:   keyHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanAdvance reports whether every required field for the current step is
// filled.
func (w *Wizard) CanAdvance() bool {
	return len(w.Draft.MissingFields(w.Role, w.Step)) == 0
}

// ResetDraft returns the wizard to its initial state: empty draft, step one.
// Called after a successful submission.
func (w *Wizard) ResetDraft(now time.Time) {
	w.Draft = NewDraft()
	w.Step = StepPersonal
	w.UpdatedAt = now
}

// Clone returns a deep copy, including the passport bytes, so callers can
// read wizard state without aliasing store-owned memory.
func (w *Wizard) Clone() *Wizard {
	copied := *w
	if w.Draft.Passport != nil {
		p := *w.Draft.Passport
		p.Data = append([]byte(nil), w.Draft.Passport.Data...)
		copied.Draft.Passport = &p
	}
	return &copied
}
