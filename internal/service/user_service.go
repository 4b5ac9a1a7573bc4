package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
	"gitlab.com/yelinaung/caja-gym/internal/auth"
	"gitlab.com/yelinaung/caja-gym/internal/database"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/models"
	"gitlab.com/yelinaung/caja-gym/internal/repository"
)

// dummyHash keeps login timing similar for unknown usernames.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := auth.HashPassword("caja-gym-unknown-user")
	return hash
})

// UserInput holds the fields for a new user.
type UserInput struct {
	Name     string
	Username string
	Password string
	Role     models.Role
}

// LoginResult is a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"usuario"`
}

// UserService handles login and back-office accounts.
type UserService struct {
	db     database.DB
	tokens *auth.TokenManager
}

// NewUserService creates a new UserService.
func NewUserService(db database.DB, tokens *auth.TokenManager) *UserService {
	return &UserService{db: db, tokens: tokens}
}

func invalidCredentials() error {
	return apperror.New(apperror.CodeInvalidCredentials, "usuario o contraseña incorrectos")
}

// Login checks credentials and issues an access token. Unknown users, wrong
// passwords and inactive users all fail with INVALID_CREDENTIALS.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := repository.NewUserRepository(s.db).GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if isNoRows(err) {
			auth.CheckPassword(dummyHash(), password)
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) || !user.Active {
		logger.Log.Warn().Str("user_hash", logger.HashUserID(user.ID)).Msg("Login rejected")
		return nil, invalidCredentials()
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	logger.Log.Info().Str("user_hash", logger.HashUserID(user.ID)).Str("role", string(user.Role)).Msg("Login")
	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// CreateUser adds a back-office account.
func (s *UserService) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	name, err := cleanName("nombre", in.Name)
	if err != nil {
		return nil, err
	}
	username, err := cleanName("username", in.Username)
	if err != nil {
		return nil, err
	}
	if strings.ContainsAny(username, " \t\n") {
		return nil, apperror.Validation("username no puede contener espacios")
	}
	if !in.Role.Valid() {
		return nil, apperror.Validation("rol debe ser %q o %q", models.RoleAdmin, models.RoleCoach)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	repo := repository.NewUserRepository(s.db)
	exists, err := repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict(database.IdxUsersUsername)
	}

	user := &models.User{Name: name, Username: username, PasswordHash: hash, Role: in.Role}
	if err := repo.Create(ctx, user); err != nil {
		return nil, translateConflict(err)
	}

	logger.Log.Info().Str("user_hash", logger.HashUserID(user.ID)).Str("role", string(user.Role)).Msg("User created")
	return user, nil
}

// ListUsers returns every account.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return repository.NewUserRepository(s.db).List(ctx)
}

// GetUser returns one account.
func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := repository.NewUserRepository(s.db).GetUserByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, func() error { return apperror.NotFound("usuario") })
	}
	return user, nil
}

// ToggleUser flips an account's active flag. Admins cannot deactivate
// themselves.
func (s *UserService) ToggleUser(ctx context.Context, id int, acting *models.User) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if acting != nil && acting.ID == id && user.Active {
		return nil, apperror.Validation("no podés desactivar tu propio usuario")
	}

	updated, err := repository.NewUserRepository(s.db).SetActive(ctx, id, !user.Active)
	if err != nil {
		return nil, orNotFound(err, func() error { return apperror.NotFound("usuario") })
	}

	logger.Log.Info().Str("user_hash", logger.HashUserID(id)).Bool("active", updated.Active).Msg("User toggled")
	return updated, nil
}
