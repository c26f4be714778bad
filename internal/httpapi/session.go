package httpapi

import (
	"net/http"
	"time"

	"coursecart-be/internal/auth"
	"coursecart-be/internal/user"

	"github.com/labstack/echo/v4"
)

const sessionTTL = 24 * time.Hour

type registerRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

func (s *Server) setSessionCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	u, err := s.opts.Users.Register(c.Request().Context(), user.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	token, err := s.opts.Users.IssueToken(u)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, token, sessionTTL)

	return c.JSON(http.StatusCreated, sessionResponse{Token: token, User: toUserResponse(u)})
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	u, token, err := s.opts.Users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, token, sessionTTL)

	return c.JSON(http.StatusOK, sessionResponse{Token: token, User: toUserResponse(u)})
}

func (s *Server) logout(c echo.Context) error {
	s.setSessionCookie(c, "", -time.Second)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) me(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}
