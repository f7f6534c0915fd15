package domain

import (
	"context"
	"time"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark" // default for new accounts
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Theme        Theme     `json:"themePreference"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Update writes name, email, password hash, and theme. Other fields
	// are immutable after creation.
	Update(ctx context.Context, u *User) error
}
