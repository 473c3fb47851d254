// Package handler exposes the wizard over HTTP for the registration SPA.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coopgate/internal/groups"
	"coopgate/internal/session"
	"coopgate/internal/wizard/models"
	"coopgate/internal/wizard/service"
	dErrors "coopgate/pkg/domain-errors"
	"coopgate/pkg/platform/httputil"
	"coopgate/pkg/validation"
)

// HeaderWizardKey carries the owner key issued at wizard creation.
const HeaderWizardKey = "X-Wizard-Key"

// maxUploadBytes bounds the multipart passport upload request.
const maxUploadBytes = 8 << 20

// Service defines the wizard operations the HTTP layer needs.
type Service interface {
	Create(ctx context.Context, role session.Role) (*models.Wizard, string, error)
	Get(ctx context.Context, id uuid.UUID, key string) (*models.Wizard, error)
	UpdateFields(ctx context.Context, id uuid.UUID, key string, fields map[string]string) (*models.Wizard, error)
	AttachPassport(ctx context.Context, id uuid.UUID, key string, passport models.Passport) (*models.Wizard, error)
	Advance(ctx context.Context, id uuid.UUID, key string) (*models.Wizard, error)
	Retreat(ctx context.Context, id uuid.UUID, key string) (*models.Wizard, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID, key string) (*models.Wizard, error)
	Submit(ctx context.Context, id uuid.UUID, key string, meta service.SubmitMeta) (string, error)
	Abandon(ctx context.Context, id uuid.UUID, key string) error
	Groups(ctx context.Context) []groups.Group
}

// Handler handles wizard and group endpoints.
type Handler struct {
	logger *slog.Logger
	wizard Service
}

// New creates a new wizard Handler.
func New(wizard Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		wizard: wizard,
	}
}

// Register registers the wizard routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/wizards", h.handleCreate)
	r.Get("/wizards/{id}", h.handleGet)
	r.Put("/wizards/{id}/fields", h.handleUpdateFields)
	r.Post("/wizards/{id}/passport", h.handleUploadPassport)
	r.Post("/wizards/{id}/advance", h.handleAdvance)
	r.Post("/wizards/{id}/retreat", h.handleRetreat)
	r.Post("/wizards/{id}/payment", h.handleConfirmPayment)
	r.Post("/wizards/{id}/submit", h.handleSubmit)
	r.Delete("/wizards/{id}", h.handleAbandon)
	r.Get("/groups", h.handleListGroups)
}

// handleCreate starts a wizard. The role comes from the authenticated actor;
// anonymous requests get a member wizard.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	role := session.RoleMember
	if actor, ok := session.FromContext(ctx); ok {
		role = actor.Role
	}

	wizard, key, err := h.wizard.Create(ctx, role)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create wizard", "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCreateResponse(wizard, key))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, key, err := wizardRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	wizard, err := h.wizard.Get(ctx, id, key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toWizardResponse(wizard))
}

func (h *Handler) handleUpdateFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, key, err := wizardRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := httputil.DecodeJSON[UpdateFieldsRequest](r)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to decode field update", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if err := validation.Validate(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	wizard, err := h.wizard.UpdateFields(ctx, id, key, req.Fields)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toWizardResponse(wizard))
}

func (h *Handler) handleUploadPassport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, key, err := wizardRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart upload"))
		return
	}

	file, header, err := r.FormFile(models.FieldPassportImage)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "passportImage file part is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read uploaded file"))
		return
	}

	wizard, err := h.wizard.AttachPassport(ctx, id, key, models.Passport{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toWizardResponse(wizard))
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.wizard.Advance)
}

func (h *Handler) handleRetreat(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.wizard.Retreat)
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.wizard.ConfirmPayment)
}

// step factors the shared shape of the bodyless transition endpoints.
func (h *Handler) step(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, string) (*models.Wizard, error)) {
	ctx := r.Context()
	id, key, err := wizardRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	wizard, err := op(ctx, id, key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toWizardResponse(wizard))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, key, err := wizardRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	message, err := h.wizard.Submit(ctx, id, key, service.SubmitMeta{
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submission failed", "wizard_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, SubmitResponse{Message: message})
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, key, err := wizardRef(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.wizard.Abandon(ctx, id, key); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toGroupsResponse(h.wizard.Groups(r.Context())))
}

// wizardRef extracts the wizard id from the path and the owner key header.
func wizardRef(r *http.Request) (uuid.UUID, string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, "", dErrors.New(dErrors.CodeBadRequest, "invalid wizard id")
	}
	key := r.Header.Get(HeaderWizardKey)
	if key == "" {
		return uuid.Nil, "", dErrors.New(dErrors.CodeUnauthorized, "missing X-Wizard-Key header")
	}
	return id, key, nil
}
