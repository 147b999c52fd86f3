package auth

import (
	"errors"
	"net/http"

	apperrors "github.com/rosterd/rosterd/internal/errors"
	"github.com/rosterd/rosterd/internal/validation"
)

// CredentialsForm is the OAuth2 password-flow form. Username carries the email.
type CredentialsForm struct {
	Username string `form:"username" validate:"required,max=255"`
	Password string `form:"password" validate:"required,maxbytes=72"`
}

type RegisterForm struct {
	Username string `form:"username" validate:"required,email,max=255"`
	Password string `form:"password" validate:"required,maxbytes=72"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type RegisterResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type Handlers struct {
	service            *Service
	revealLoginFailure bool
}

// NewHandlers builds the public auth endpoints. When revealLoginFailure is set
// a failed login tells the caller whether the email or the password was wrong.
func NewHandlers(service *Service, revealLoginFailure bool) *Handlers {
	return &Handlers{service: service, revealLoginFailure: revealLoginFailure}
}

// Token handles POST /auth/token/.
func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.BadRequest("invalid form body")
	}
	form := CredentialsForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := validation.Struct(form); err != nil {
		return err
	}

	token, err := h.service.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return apperrors.InvalidCredentials(h.loginFailureMessage(err)).WithCause(err)
		}
		return err
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
	return nil
}

// Register handles POST /auth/register/.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.BadRequest("invalid form body")
	}
	form := RegisterForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
	if err := validation.Struct(form); err != nil {
		return err
	}

	user, err := h.service.Register(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return apperrors.AlreadyExists("User already exists.")
		}
		if errors.Is(err, ErrPasswordTooLong) {
			return apperrors.ValidationError("password: must be at most 72 bytes")
		}
		return err
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, RegisterResponse{
		ID:    user.ID,
		Email: user.Email,
	})
	return nil
}

func (h *Handlers) loginFailureMessage(err error) string {
	if !h.revealLoginFailure {
		return "Invalid credentials."
	}
	if errors.Is(err, ErrWrongPassword) {
		return "Invalid password."
	}
	return "Invalid email."
}
