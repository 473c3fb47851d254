// Package service drives the registration wizard: a linear three-step form
// machine with role-dependent required fields and a terminal multipart
// submission relayed to the cooperative core API.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"coopgate/internal/groups"
	"coopgate/internal/session"
	"coopgate/internal/upstream"
	"coopgate/internal/wizard/models"
	dErrors "coopgate/pkg/domain-errors"
	pvalidation "coopgate/pkg/platform/validation"
	"coopgate/pkg/secrets"
)

// MsgRegistered is the generic success message used when the backend does
// not supply one of its own.
const MsgRegistered = "Registration submitted successfully."

// MaxPassportBytes caps the stored passport image size.
const MaxPassportBytes = 5 << 20

// SubmitMeta carries request diagnostics for a submission attempt.
type SubmitMeta struct {
	UserAgent string
}

// Service implements the wizard state machine over an instance store, the
// upstream client, and the group source.
type Service struct {
	store    Store
	upstream UpstreamClient
	groups   GroupSource
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, upstreamClient UpstreamClient, groupSource GroupSource, opts ...Option) *Service {
	s := &Service{
		store:    store,
		upstream: upstreamClient,
		groups:   groupSource,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new wizard for the role and returns it together with the
// plaintext owner key. The key is returned exactly once; only its bcrypt
// hash is retained.
func (s *Service) Create(ctx context.Context, role session.Role) (*models.Wizard, string, error) {
	key, err := secrets.Generate()
	if err != nil {
		return nil, "", err
	}
	hash, err := secrets.Hash(key)
	if err != nil {
		return nil, "", err
	}

	w := models.NewWizard(role, hash, s.now())
	if err := s.store.Create(ctx, w); err != nil {
		return nil, "", err
	}

	if s.observer != nil {
		s.observer.IncrementWizardsStarted()
	}
	s.logEvent(ctx, "wizard_created", "wizard_id", w.ID, "role", role)
	return w, key, nil
}

// Get returns the wizard state for its owner.
func (s *Service) Get(ctx context.Context, id uuid.UUID, key string) (*models.Wizard, error) {
	w, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(w, key); err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateFields merges the given field values into the draft. Fields are
// applied in name order; an unknown field rejects the whole update. No
// validation of values happens here, only at step transitions and submit.
func (s *Service) UpdateFields(ctx context.Context, id uuid.UUID, key string, fields map[string]string) (*models.Wizard, error) {
	if err := pvalidation.CheckMapCount("fields", fields, pvalidation.MaxFieldsPerUpdate); err != nil {
		return nil, err
	}
	for name, value := range fields {
		if err := pvalidation.CheckStringLength(name, value, pvalidation.MaxFieldValueLength); err != nil {
			return nil, err
		}
	}

	return s.mutateOwned(ctx, id, key, func(w *models.Wizard) error {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := w.Draft.UpdateField(name, fields[name]); err != nil {
				return err
			}
		}
		return nil
	})
}

// AttachPassport replaces the draft's passport image.
func (s *Service) AttachPassport(ctx context.Context, id uuid.UUID, key string, passport models.Passport) (*models.Wizard, error) {
	if len(passport.Data) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "passport image is empty")
	}
	if len(passport.Data) > MaxPassportBytes {
		return nil, dErrors.New(dErrors.CodeValidation, "passport image is too large")
	}
	if err := pvalidation.CheckStringLength("filename", passport.Filename, pvalidation.MaxFilenameLength); err != nil {
		return nil, err
	}
	return s.mutateOwned(ctx, id, key, func(w *models.Wizard) error {
		w.Draft.SetPassport(passport)
		return nil
	})
}

// Advance moves the wizard one step forward once every required field for
// the current step is filled. Superadmins jump straight from personal info
// to the payment step.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, key string) (*models.Wizard, error) {
	return s.mutateOwned(ctx, id, key, func(w *models.Wizard) error {
		if missing := w.Draft.MissingFields(w.Role, w.Step); len(missing) > 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is required", missing[0]))
		}
		next, err := models.NextStep(w.Role, w.Step)
		if err != nil {
			return err
		}
		w.Step = next
		return nil
	})
}

// Retreat moves the wizard one step back. It has no field preconditions.
func (s *Service) Retreat(ctx context.Context, id uuid.UUID, key string) (*models.Wizard, error) {
	return s.mutateOwned(ctx, id, key, func(w *models.Wizard) error {
		prev, err := models.PrevStep(w.Role, w.Step)
		if err != nil {
			return err
		}
		w.Step = prev
		return nil
	})
}

// ConfirmPayment records the payment widget's success callback on the draft.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID, key string) (*models.Wizard, error) {
	w, err := s.mutateOwned(ctx, id, key, func(w *models.Wizard) error {
		w.Draft.PaymentConfirmed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, "payment_confirmed", "wizard_id", id)
	return w, nil
}

// Abandon destroys the wizard and its draft.
func (s *Service) Abandon(ctx context.Context, id uuid.UUID, key string) error {
	w, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(w, key); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.observer != nil {
		s.observer.DecrementActiveWizards(1)
	}
	s.logEvent(ctx, "wizard_abandoned", "wizard_id", id)
	return nil
}

// Groups returns the current group reference list.
func (s *Service) Groups(ctx context.Context) []groups.Group {
	return s.groups.List(ctx)
}

// Submit relays the completed draft upstream. Preconditions: the wizard is
// at the payment step and no submission is already in flight. On success the
// draft is reset to its initial empty state at step one; on any failure the
// draft is left intact so the owner can retry without re-entering data.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, key string, meta SubmitMeta) (string, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := authorize(current, key); err != nil {
		return "", err
	}

	w, err := s.store.BeginSubmit(ctx, id)
	if err != nil {
		return "", err
	}
	// Guaranteed cleanup: the in-flight flag is released whatever happens.
	defer s.store.EndSubmit(ctx, id)

	if w.Step != models.StepPayment {
		return "", dErrors.New(dErrors.CodeValidation, "submission is only available from the final step")
	}
	for _, name := range []string{models.FieldFirstName, models.FieldSurname, models.FieldPhone} {
		if strings.TrimSpace(w.Draft.TextValue(name)) == "" {
			return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s is required", name))
		}
	}

	fields := w.Draft.Values()
	if w.Draft.Group != "" {
		// Transmit the resolved display name, never the identifier.
		fields[models.FieldGroup] = s.groups.Resolve(ctx, w.Draft.Group)
	}

	route := upstream.RouteFor(w.Role)
	var bearer string
	if route.Authenticated {
		actor, ok := session.FromContext(ctx)
		if !ok || !actor.Role.Privileged() {
			return "", dErrors.New(dErrors.CodeUnauthorized, "privileged submission requires an authenticated admin")
		}
		bearer = actor.Token
	}

	s.logSubmissionAttempt(ctx, w, meta)

	message, err := s.upstream.SubmitRegistration(ctx, upstream.Submission{
		Fields:      fields,
		Passport:    w.Draft.Passport,
		Route:       route,
		BearerToken: bearer,
	})
	if err != nil {
		s.submissionFailed(ctx, w, err)
		return "", err
	}

	if _, err := s.store.Mutate(ctx, id, func(w *models.Wizard) error {
		w.ResetDraft(s.now())
		return nil
	}); err != nil {
		// The member exists upstream; a reset failure only affects local state.
		s.logger.ErrorContext(ctx, "could not reset draft after successful submission",
			"error", err, "wizard_id", id)
	}

	if s.observer != nil {
		s.observer.IncrementSubmissions(string(w.Role))
	}
	s.logEvent(ctx, "registration_submitted", "wizard_id", id, "role", w.Role)

	if message == "" {
		message = MsgRegistered
	}
	return message, nil
}

// mutateOwned runs fn on the wizard after verifying the owner key.
func (s *Service) mutateOwned(ctx context.Context, id uuid.UUID, key string, fn func(*models.Wizard) error) (*models.Wizard, error) {
	now := s.now()
	return s.store.Mutate(ctx, id, func(w *models.Wizard) error {
		if err := authorize(w, key); err != nil {
			return err
		}
		if err := fn(w); err != nil {
			return err
		}
		w.UpdatedAt = now
		return nil
	})
}

func authorize(w *models.Wizard, key string) error {
	if err := secrets.Verify(key, w.KeyHash); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid wizard key")
	}
	return nil
}
