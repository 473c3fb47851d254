package service

import (
	"context"
	"errors"

	"coopgate/internal/device"
	"coopgate/internal/wizard/models"
	dErrors "coopgate/pkg/domain-errors"
)

// logEvent emits a structured lifecycle event. All wizard state changes go
// through here so log shapes stay uniform.
func (s *Service) logEvent(ctx context.Context, event string, args ...any) {
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) logSubmissionAttempt(ctx context.Context, w *models.Wizard, meta SubmitMeta) {
	args := []any{
		"wizard_id", w.ID,
		"role", w.Role,
		"has_passport", w.Draft.Passport != nil,
	}
	if fp := device.Fingerprint(meta.UserAgent); fp != "" {
		args = append(args, "device_fingerprint", fp)
	}
	s.logger.InfoContext(ctx, "submission_attempt", args...)
}

func (s *Service) submissionFailed(ctx context.Context, w *models.Wizard, err error) {
	reason := "internal"
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		reason = string(dErr.Code)
	}
	if s.observer != nil {
		s.observer.IncrementSubmissionFailures(reason)
	}
	s.logger.WarnContext(ctx, "submission_failed",
		"wizard_id", w.ID, "role", w.Role, "reason", reason, "error", err)
}
