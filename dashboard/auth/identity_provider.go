package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"insurance_platform/dashboard/schema"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFoundWithEmail = errors.New("no user found for given email")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrGeneratingJwt         = errors.New("error generating jwt")
	ErrEmailAlreadyInUse     = errors.New("email already exists")
	ErrInvalidEmail          = errors.New("invalid email format")
	ErrPasswordTooShort      = errors.New("password must be at least 6 characters")
)

type LoginResult struct {
	Email       string
	IsAdmin     bool
	AccessToken string
}

type IdentityProvider interface {
	AuthMiddleware() chi.Middlewares

	LoginWithEmail(email, password string) (LoginResult, error)

	CreateUser(email, password string, isAdmin bool) (uuid.UUID, error)
}

type defaultAccount struct {
	email    string
	password string
	isAdmin  bool
}

// Bootstrap accounts seeded when the user table is empty. A convenience for
// demo deployments, not a security feature.
var defaultAccounts = []defaultAccount{
	{email: "admin@example.com", password: "admin123", isAdmin: true},
	{email: "user@example.com", password: "user123", isAdmin: false},
	{email: "demo@example.com", password: "demo123", isAdmin: false},
}

func seedDefaultAccounts(db *gorm.DB) error {
	return db.Transaction(func(txn *gorm.DB) error {
		var count int64
		result := txn.Model(&schema.User{}).Count(&count)
		if result.Error != nil {
			slog.Error("sql error counting users for default account seed", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		if count > 0 {
			return nil
		}

		for _, account := range defaultAccounts {
			hashedPwd, err := bcrypt.GenerateFromPassword([]byte(account.password), 10)
			if err != nil {
				return fmt.Errorf("error encrypting default account password: %w", err)
			}
			user := schema.User{
				Id:       uuid.New(),
				Email:    account.email,
				Password: hashedPwd,
				IsAdmin:  account.isAdmin,
			}
			result := txn.Create(&user)
			if result.Error != nil {
				slog.Error("sql error seeding default account", "email", account.email, "error", result.Error)
				return schema.ErrDbAccessFailed
			}
		}
		slog.Info("seeded default accounts into empty user store", "count", len(defaultAccounts))
		return nil
	})
}

type requestContextKey string

const UserRequestContextKey requestContextKey = "user"

func UserFromContext(r *http.Request) (schema.User, error) {
	userUntyped := r.Context().Value(UserRequestContextKey)
	if userUntyped == nil {
		return schema.User{}, fmt.Errorf("user field not found in request context")
	}
	user, ok := userUntyped.(schema.User)
	if !ok {
		return schema.User{}, fmt.Errorf("invalid value for user field")
	}
	return user, nil
}
