package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fakenews-detector/internal/domain"
	httpez "fakenews-detector/internal/transport/http/ez"
	"fakenews-detector/pkg/utils"
)

type publicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toPublic(u *domain.User) publicUser {
	return publicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

func mountAuthActions(ez httpez.EZ, d Deps) {
	type signupIn struct {
		Name     string `json:"name"     binding:"required"`
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	type signupOut struct {
		Message string     `json:"message"`
		User    publicUser `json:"user"`
	}
	httpez.Register[signupIn, signupOut](ez, httpez.Action[signupIn, signupOut]{
		Method:  http.MethodPost,
		Path:    "/signup",
		Binder:  httpez.BindJSON,
		Success: http.StatusCreated,
		Handler: func(c *gin.Context, in *signupIn) (signupOut, error) {
			email := strings.TrimSpace(in.Email)

			// Pre-check is a fast path; the unique index is the real guard.
			existing, err := d.Users.FindByEmail(c.Request.Context(), email)
			if err != nil {
				return signupOut{}, httpez.Internal("signup failed", err)
			}
			if existing != nil {
				return signupOut{}, httpez.Conflict("email already exists")
			}

			u := &domain.User{
				ID:           utils.NewID(),
				Name:         strings.TrimSpace(in.Name),
				Email:        email,
				PasswordHash: utils.HashPassword(in.Password),
				Theme:        domain.ThemeDark,
			}
			if err := d.Users.Create(c.Request.Context(), u); err != nil {
				if errors.Is(err, domain.ErrDuplicateEmail) {
					return signupOut{}, httpez.Conflict("email already exists")
				}
				return signupOut{}, httpez.Internal("signup failed", err)
			}
			return signupOut{Message: "User created", User: toPublic(u)}, nil
		},
	})

	type loginIn struct {
		Email    string `json:"email"    binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	type loginOut struct {
		Token string     `json:"token"`
		User  publicUser `json:"user"`
	}
	httpez.Register[loginIn, loginOut](ez, httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			u, err := d.Users.FindByEmail(c.Request.Context(), strings.TrimSpace(in.Email))
			if err != nil {
				return loginOut{}, httpez.Internal("login failed", err)
			}
			// Unknown email and wrong password are deliberately the same
			// answer; nothing here may confirm an account exists.
			if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
				return loginOut{}, httpez.Unauthorized("invalid credentials")
			}
			tok, err := d.JWT.Issue(u.ID)
			if err != nil || tok == "" {
				return loginOut{}, httpez.Internal("issue token failed", err)
			}
			return loginOut{Token: tok, User: toPublic(u)}, nil
		},
	})
}
