package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/davicafu/eventshop/internal/auth/domain"
	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
)

const serviceName = "auth"

// AuthService define los casos de uso del contexto auth: alta de usuarios y
// solicitudes de restablecimiento de contraseña. El envío del correo lo hace
// el servicio notification al consumir auth.passwordreset.
type AuthService struct {
	repo   domain.UserRepository
	events domain.EventPublisher
	log    *zap.Logger
}

func NewAuthService(repo domain.UserRepository, events domain.EventPublisher, log *zap.Logger) *AuthService {
	return &AuthService{repo: repo, events: events, log: log}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "a valid email is required")
	}
	if name == "" {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "name is required")
	}
	if len(password) < 8 {
		return nil, sharedDomain.NewFailure(sharedDomain.ValidationFailed, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(email, name, string(hash))
	if err := s.repo.Add(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.UserRegistered, user.ID, events.UserRegisteredPayload{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		RegisteredAt: user.CreatedAt,
	})

	s.log.Info("✅ Usuario registrado",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// RequestPasswordReset publica auth.passwordreset para el usuario indicado.
// Para no revelar qué emails existen, un email desconocido devuelve éxito
// sin publicar nada.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return sharedDomain.NewFailure(sharedDomain.ValidationFailed, "email is required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if sharedDomain.IsKind(err, sharedDomain.NotFound) {
			s.log.Info("Password reset solicitado para email desconocido", zap.String("email", email))
			return nil
		}
		return err
	}

	requestID := uuid.New()
	s.publish(ctx, events.PasswordReset, user.ID, events.PasswordResetPayload{
		UserID:      user.ID,
		Email:       user.Email,
		RequestID:   requestID,
		RequestedAt: time.Now().UTC(),
	})

	s.log.Info("🔑 Password reset solicitado",
		zap.String("user_id", user.ID.String()),
		zap.String("request_id", requestID.String()),
	)
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, correlationID uuid.UUID, payload interface{}) {
	env, err := events.NewEnvelope(eventType, serviceName, correlationID.String(), payload)
	if err != nil {
		s.log.Error("💥 No se pudo construir el envelope", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	_ = s.events.Publish(ctx, env)
}
