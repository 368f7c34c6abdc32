package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"insurance_platform/dashboard/auth"
	"insurance_platform/utils"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

// AddRoutes registers onto the shared router, the frontend expects these at
// the top level rather than under a prefix.
func (s *UserService) AddRoutes(r chi.Router) {
	r.Post("/signup", s.Signup)
	r.Post("/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/me", s.Me)
	})
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	// The well-known admin address always signs up as an admin, matching the
	// seeded bootstrap accounts.
	isAdmin := params.Email == "admin@example.com"

	_, err := s.userAuth.CreateUser(params.Email, params.Password, isAdmin)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyInUse),
			errors.Is(err, auth.ErrInvalidEmail),
			errors.Is(err, auth.ErrPasswordTooShort):
			responseCode = http.StatusBadRequest
		}
		http.Error(w, err.Error(), responseCode)
		return
	}

	utils.WriteJsonResponse(w, signupResponse{Message: "User created successfully", Email: params.Email})
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Email       string `json:"email"`
	IsAdmin     bool   `json:"is_admin"`
}

// Login accepts a form-encoded username/password pair, the username field
// carries the email.
func (s *UserService) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, fmt.Sprintf("error parsing login form: %v", err), http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		http.Error(w, "missing username or password", http.StatusBadRequest)
		return
	}

	login, err := s.userAuth.LoginWithEmail(email, password)
	if err != nil {
		responseCode := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrUserNotFoundWithEmail), errors.Is(err, auth.ErrInvalidCredentials):
			responseCode = http.StatusUnauthorized
		}
		http.Error(w, fmt.Sprintf("login failed: %v", err), responseCode)
		return
	}

	utils.WriteJsonResponse(w, loginResponse{
		AccessToken: login.AccessToken,
		TokenType:   "bearer",
		Email:       login.Email,
		IsAdmin:     login.IsAdmin,
	})
}

type userInfoResponse struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsAdmin   bool      `json:"is_admin"`
}

func (s *UserService) Me(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, userInfoResponse{
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		IsAdmin:   user.IsAdmin,
	})
}
