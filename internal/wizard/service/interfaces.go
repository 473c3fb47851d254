package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks Store,UpstreamClient,GroupSource

import (
	"context"

	"github.com/google/uuid"

	"coopgate/internal/groups"
	"coopgate/internal/upstream"
	"coopgate/internal/wizard/models"
)

// Store owns live wizard instances.
type Store interface {
	Create(ctx context.Context, w *models.Wizard) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wizard, error)
	Mutate(ctx context.Context, id uuid.UUID, fn func(*models.Wizard) error) (*models.Wizard, error)
	BeginSubmit(ctx context.Context, id uuid.UUID) (*models.Wizard, error)
	EndSubmit(ctx context.Context, id uuid.UUID)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UpstreamClient relays completed drafts to the cooperative core API.
type UpstreamClient interface {
	SubmitRegistration(ctx context.Context, sub upstream.Submission) (string, error)
}

// GroupSource serves the group reference list and name resolution.
type GroupSource interface {
	List(ctx context.Context) []groups.Group
	Resolve(ctx context.Context, id string) string
}

// Observer receives wizard lifecycle metrics. *metrics.Metrics satisfies it.
type Observer interface {
	IncrementWizardsStarted()
	DecrementActiveWizards(count int)
	IncrementSubmissions(role string)
	IncrementSubmissionFailures(reason string)
}
