package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lingocards/lingo-api/internal/domain"
	"github.com/lingocards/lingo-api/internal/platform/logger"
	"github.com/lingocards/lingo-api/internal/service"
	"github.com/lingocards/lingo-api/internal/store"
)

// Session is the result of a successful login.
type Session struct {
	Username  string
	Token     string
	ExpiresAt time.Time
}

// Service registers learners and issues tokens for them.
type Service struct {
	users    store.UserStore
	hasher   PasswordHasher
	verifier PasswordVerifier
	tokens   JWTService
	logger   *slog.Logger
}

// NewService creates an account service. It panics on missing dependencies,
// which is a wiring error.
func NewService(
	users store.UserStore,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	tokens JWTService,
	logger *slog.Logger,
) *Service {
	if users == nil {
		panic("users cannot be nil")
	}
	if hasher == nil || verifier == nil {
		panic("password hasher and verifier cannot be nil")
	}
	if tokens == nil {
		panic("tokens cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger.With(slog.String("component", "account_service")),
	}
}

// Register creates a learner account. The plaintext password is hashed and
// dropped before the user reaches the store.
// Returns store.ErrUsernameTaken when the username is in use.
func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(username, password)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, service.NewServiceError("register", "failed to hash password", err)
	}
	user.HashedPassword = hash
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			log.Debug("registration rejected: username taken", slog.String("username", user.Username))
			return nil, err
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("username", user.Username))
		return nil, service.NewServiceError("register", "failed to create user", err)
	}

	log.Info("user registered", slog.String("username", user.Username))
	return user, nil
}

// Login checks the credentials and returns a signed token.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("login failed: unknown user", slog.String("username", username))
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to load user",
			slog.String("error", err.Error()),
			slog.String("username", username))
		return nil, service.NewServiceError("login", "failed to load user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login failed: password mismatch", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateToken(ctx, user.Username)
	if err != nil {
		return nil, service.NewServiceError("login", "failed to issue token", err)
	}

	log.Info("user logged in", slog.String("username", user.Username))
	return &Session{Username: user.Username, Token: token, ExpiresAt: expiresAt}, nil
}
