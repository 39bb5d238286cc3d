package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
	"github.com/davicafu/eventshop/internal/shared/events"
	"github.com/davicafu/eventshop/tests/mocks"
)

func newTestService() (*AuthService, *mocks.InMemoryUserRepo, *mocks.RecordingPublisher) {
	repo := mocks.NewInMemoryUserRepo()
	pub := mocks.NewRecordingPublisher()
	return NewAuthService(repo, pub, zap.NewNop()), repo, pub
}

func TestRegister_PublishesUserRegistered(t *testing.T) {
	svc, repo, pub := newTestService()

	user, err := svc.Register(context.Background(), "Ana@Example.com", "Ana", "supersecret")
	assert.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email) // normalizado
	assert.Len(t, repo.Users, 1)
	assert.Len(t, pub.ByType(events.UserRegistered), 1)

	// La contraseña nunca se guarda en claro.
	assert.NotEqual(t, "supersecret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("supersecret")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, pub := newTestService()

	_, err := svc.Register(context.Background(), "ana@example.com", "Ana", "supersecret")
	assert.NoError(t, err)

	_, err = svc.Register(context.Background(), "ANA@example.com", "Otra Ana", "otherpassword")
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.Conflict))
	assert.Len(t, pub.ByType(events.UserRegistered), 1)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "not-an-email", "Ana", "supersecret")
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.ValidationFailed))

	_, err = svc.Register(context.Background(), "ana@example.com", "Ana", "short")
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.ValidationFailed))
}

func TestRequestPasswordReset_PublishesEvent(t *testing.T) {
	svc, _, pub := newTestService()
	user, _ := svc.Register(context.Background(), "ana@example.com", "Ana", "supersecret")

	assert.NoError(t, svc.RequestPasswordReset(context.Background(), "ana@example.com"))

	published := pub.ByType(events.PasswordReset)
	assert.Len(t, published, 1)
	assert.Equal(t, user.ID.String(), published[0].CorrelationID)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	svc, _, pub := newTestService()

	// No revela si el email existe: éxito sin evento.
	assert.NoError(t, svc.RequestPasswordReset(context.Background(), "nadie@example.com"))
	assert.Empty(t, pub.Published)
}

func TestGetUser_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GetUser(context.Background(), uuid.New())
	assert.True(t, sharedDomain.IsKind(err, sharedDomain.NotFound))
}
