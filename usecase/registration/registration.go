package registration

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/selfreg/domain"
	"github.com/fastygo/selfreg/pkg/logger"
	"github.com/fastygo/selfreg/usecase"
)

const (
	// MailTemplate is the template rendered for activation mails.
	MailTemplate = "registration"
	// LinkVariable carries the activation link into the mail template.
	LinkVariable = "registerlink"
)

// Settings are the externally supplied values the workflow depends on.
type Settings struct {
	LinkPrefix   string
	FromAddress  string
	ExtensionURN string
	TokenField   string
	DefaultRole  string
}

type UseCase struct {
	identity usecase.IdentityConnector
	mailer   usecase.Mailer
	settings Settings
	logger   *zap.Logger
	newToken func() string
}

func New(identity usecase.IdentityConnector, mailer usecase.Mailer, settings Settings, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.DefaultRole == "" {
		settings.DefaultRole = "USER"
	}
	return &UseCase{
		identity: identity,
		mailer:   mailer,
		settings: settings,
		logger:   logger,
		newToken: uuid.NewString,
	}
}

// Register creates user in an inactive state and mails an activation link
// to it. The created user is not removed again when the mail fails.
func (uc *UseCase) Register(ctx context.Context, accessToken string, user *domain.User) (*domain.User, error) {
	log := logger.WithRequestID(ctx, uc.logger)
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}

	email, ok := user.SendToEmail()
	if !ok {
		msg := fmt.Sprintf("Could not register user. No email of user %s found!", user.UserName)
		log.Warn("registration rejected", zap.String("user_name", user.UserName), zap.String("reason", "no email"))
		return nil, domain.NewError(domain.ErrCodeInvalid, msg)
	}

	activationToken := uc.newToken()
	created, err := uc.identity.CreateUser(ctx, uc.prepareUser(user, activationToken), accessToken)
	if err != nil {
		log.Warn("user creation failed", zap.String("user_name", user.UserName), zap.Error(err))
		return nil, err
	}

	vars := map[string]string{
		LinkVariable: ActivationLink(uc.settings.LinkPrefix, created.ID, activationToken),
	}
	if err := uc.mailer.RenderAndSend(ctx, MailTemplate, uc.settings.FromAddress, email.Value, created, vars); err != nil {
		log.Error("activation mail failed; user stays inactive",
			zap.String("user_id", created.ID),
			zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeInternal, "Problems creating email for user registration", err)
	}

	log.Info("user registered", zap.String("user_id", created.ID))
	return created, nil
}

// Activate marks the user active when token matches the one stored at
// registration. The token is also the credential used towards the
// identity service.
func (uc *UseCase) Activate(ctx context.Context, userID, token string) error {
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("user_id", userID))
	if token == "" {
		log.Warn("activation rejected", zap.String("reason", "empty token"))
		return domain.ErrTokenMismatch
	}

	current, err := uc.identity.GetCurrentUser(ctx, token)
	if err != nil {
		log.Warn("fetching user for activation failed", zap.Error(err))
		return err
	}

	stored, ok := uc.storedToken(current)
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		log.Warn("activation rejected", zap.String("reason", "token mismatch"))
		return domain.ErrTokenMismatch
	}

	update := (&domain.UpdateUser{}).
		DeleteExtensionField(uc.settings.ExtensionURN, uc.settings.TokenField).
		UpdateActive(true)
	if _, err := uc.identity.UpdateUser(ctx, userID, *update, token); err != nil {
		log.Warn("activation update failed", zap.Error(err))
		return err
	}

	log.Info("user activated")
	return nil
}

func (uc *UseCase) storedToken(user *domain.User) (string, bool) {
	ext, ok := user.Extension(uc.settings.ExtensionURN)
	if !ok {
		return "", false
	}
	return ext.StringField(uc.settings.TokenField)
}

// prepareUser copies user, forces it inactive with the default role only and
// attaches the registration extension holding the activation token.
func (uc *UseCase) prepareUser(user *domain.User, activationToken string) *domain.User {
	prepared := user.Clone()
	prepared.Active = domain.Bool(false)
	prepared.Roles = []domain.Role{{Value: uc.settings.DefaultRole}}

	ext, ok := prepared.Extension(uc.settings.ExtensionURN)
	if !ok {
		ext = domain.NewExtension(uc.settings.ExtensionURN)
	}
	ext.URN = uc.settings.ExtensionURN
	ext.SetString(uc.settings.TokenField, activationToken)
	prepared.AddExtension(ext)
	return prepared
}

// ActivationLink appends userId and activationToken to prefix.
func ActivationLink(prefix, userID, activationToken string) string {
	sep := "?"
	if strings.Contains(prefix, "?") {
		sep = "&"
	}
	return prefix + sep + "userId=" + url.QueryEscape(userID) + "&activationToken=" + url.QueryEscape(activationToken)
}
