package router

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fakenews-detector/internal/domain"
	httpez "fakenews-detector/internal/transport/http/ez"
	"fakenews-detector/pkg/utils"
)

type profileUser struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Theme domain.Theme `json:"themePreference"`
}

func toProfile(u *domain.User) profileUser {
	theme := u.Theme
	if !theme.Valid() {
		theme = domain.ThemeDark
	}
	return profileUser{ID: u.ID, Name: u.Name, Email: u.Email, Theme: theme}
}

func mountUserActions(ez httpez.EZ, d Deps) {
	type profileOut struct {
		User profileUser `json:"user"`
	}

	httpez.Register[struct{}, profileOut](ez, httpez.Action[struct{}, profileOut]{
		Method: http.MethodGet,
		Path:   "/profile",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (profileOut, error) {
			u, err := d.Users.FindByID(c.Request.Context(), c.GetString("userId"))
			if err != nil {
				return profileOut{}, httpez.Internal("load profile failed", err)
			}
			if u == nil {
				return profileOut{}, httpez.NotFound("user not found")
			}
			return profileOut{User: toProfile(u)}, nil
		},
	})

	// Partial update: only provided fields change. A password change
	// additionally requires the current password.
	type profileIn struct {
		Name            *string `json:"name"`
		Email           *string `json:"email"`
		Password        *string `json:"password"`
		CurrentPassword *string `json:"currentPassword"`
	}
	httpez.Register[profileIn, profileOut](ez, httpez.Action[profileIn, profileOut]{
		Method: http.MethodPut,
		Path:   "/profile",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *profileIn) (profileOut, error) {
			ctx := c.Request.Context()
			u, err := d.Users.FindByID(ctx, c.GetString("userId"))
			if err != nil {
				return profileOut{}, httpez.Internal("load profile failed", err)
			}
			if u == nil {
				return profileOut{}, httpez.NotFound("user not found")
			}

			if in.Name != nil {
				name := strings.TrimSpace(*in.Name)
				if name == "" {
					return profileOut{}, httpez.BadRequest("name must not be empty")
				}
				u.Name = name
			}
			if in.Email != nil {
				email := strings.TrimSpace(*in.Email)
				if email == "" {
					return profileOut{}, httpez.BadRequest("email must not be empty")
				}
				if email != u.Email {
					other, err := d.Users.FindByEmail(ctx, email)
					if err != nil {
						return profileOut{}, httpez.Internal("update profile failed", err)
					}
					if other != nil && other.ID != u.ID {
						return profileOut{}, httpez.Conflict("email already exists")
					}
					u.Email = email
				}
			}
			if in.Password != nil && *in.Password != "" {
				if in.CurrentPassword == nil || !utils.CheckPassword(*in.CurrentPassword, u.PasswordHash) {
					return profileOut{}, httpez.Unauthorized("current password incorrect")
				}
				u.PasswordHash = utils.HashPassword(*in.Password)
			}

			if err := d.Users.Update(ctx, u); err != nil {
				if errors.Is(err, domain.ErrDuplicateEmail) {
					return profileOut{}, httpez.Conflict("email already exists")
				}
				return profileOut{}, httpez.Internal("update profile failed", err)
			}
			return profileOut{User: toProfile(u)}, nil
		},
	})

	type historyRow struct {
		ID         string       `json:"id"`
		Prediction domain.Label `json:"prediction"`
		Confidence float64      `json:"confidence"`
		Text       string       `json:"text"`
		ImageURL   *string      `json:"imageUrl"`
		CreatedAt  string       `json:"createdAt"`
	}
	type historyQ struct {
		Limit  int `form:"limit"`
		Offset int `form:"offset"`
	}
	type historyOut struct {
		History []historyRow `json:"history"`
	}
	httpez.Register[historyQ, historyOut](ez, httpez.Action[historyQ, historyOut]{
		Method: http.MethodGet,
		Path:   "/history",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *historyQ) (historyOut, error) {
			recs, err := d.History.ListByUser(c.Request.Context(), c.GetString("userId"), in.Limit, in.Offset)
			if err != nil {
				return historyOut{}, httpez.Internal("load history failed", err)
			}
			out := historyOut{History: make([]historyRow, 0, len(recs))}
			for _, r := range recs {
				out.History = append(out.History, historyRow{
					ID:         r.ID,
					Prediction: r.Prediction,
					Confidence: r.Confidence,
					Text:       r.InputText,
					ImageURL:   r.ImageURL,
					CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
				})
			}
			return out, nil
		},
	})

	type settingsIn struct {
		Theme string `json:"theme"`
	}
	type settingsOut struct {
		Message string       `json:"message"`
		Theme   domain.Theme `json:"theme"`
	}
	httpez.Register[settingsIn, settingsOut](ez, httpez.Action[settingsIn, settingsOut]{
		Method: http.MethodPut,
		Path:   "/settings",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *settingsIn) (settingsOut, error) {
			theme := domain.Theme(in.Theme)
			// Reject before anything is loaded or written.
			if !theme.Valid() {
				return settingsOut{}, httpez.BadRequest("invalid theme")
			}

			ctx := c.Request.Context()
			u, err := d.Users.FindByID(ctx, c.GetString("userId"))
			if err != nil {
				return settingsOut{}, httpez.Internal("update settings failed", err)
			}
			if u == nil {
				return settingsOut{}, httpez.NotFound("user not found")
			}
			u.Theme = theme
			if err := d.Users.Update(ctx, u); err != nil {
				return settingsOut{}, httpez.Internal("update settings failed", err)
			}
			return settingsOut{Message: "Settings updated", Theme: theme}, nil
		},
	})
}
