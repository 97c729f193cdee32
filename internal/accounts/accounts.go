// Package accounts stores users. It answers the pipeline's owner lookups and
// backs the register/login/profile endpoints.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"healcheck-back/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username or email already registered")
)

type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// OwnerExists reports whether a live user has the given id.
func (d *Directory) OwnerExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up user %d: %w", id, err)
	}
	return count > 0, nil
}

// Create inserts a user whose password is already hashed.
func (d *Directory) Create(ctx context.Context, username string, email *string, passwordHash string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if email != nil {
		e := strings.ToLower(strings.TrimSpace(*email))
		email = &e
		if e == "" {
			email = nil
		}
	}

	var existing int64
	q := d.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username)
	if email != nil {
		q = q.Or("email = ?", *email)
	}
	if err := q.Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if existing > 0 {
		return nil, ErrUserExists
	}

	user := models.User{Username: username, Email: email, Password: passwordHash}
	if err := d.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// FindByLogin looks a user up by username or, when login contains '@', by email.
func (d *Directory) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	q := d.db.WithContext(ctx)
	if strings.Contains(login, "@") {
		q = q.Where("email = ?", strings.ToLower(login))
	} else {
		q = q.Where("username = ?", login)
	}

	var user models.User
	err := q.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (d *Directory) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %d: %w", id, err)
	}
	return &user, nil
}
