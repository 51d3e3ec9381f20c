package usecase

import (
	"context"

	"github.com/fastygo/selfreg/domain"
)

// IdentityConnector abstracts the identity service so use cases stay transport-agnostic.
// Implementations report remote rejections as *domain.RequestError and
// local or transport failures as *domain.ClientError.
type IdentityConnector interface {
	CreateUser(ctx context.Context, user *domain.User, accessToken string) (*domain.User, error)
	GetCurrentUser(ctx context.Context, accessToken string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, update domain.UpdateUser, accessToken string) (*domain.User, error)
}

// Mailer renders a named template and sends it.
type Mailer interface {
	RenderAndSend(ctx context.Context, templateName, from, to string, user *domain.User, vars map[string]string) error
}
