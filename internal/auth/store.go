package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/seacable/atlas-backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// Store is the persistence the auth handlers and middleware need.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, userID string) (User, error)
	FindRole(ctx context.Context, userID string) (string, error)
	UpdatePassword(ctx context.Context, userID, hashed string) error
	SaveSession(ctx context.Context, s Session) error
	DeleteSession(ctx context.Context, sessionID string) error
	FindSessionByID(id string) (utils.SessionData, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateUser(ctx context.Context, u *User) error {
	if _, err := s.FindUserByEmail(ctx, u.Email); err == nil {
		return ErrEmailTaken
	}
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).Error
	return u, userErr(err)
}

func (s *GormStore) FindUserByID(ctx context.Context, userID string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "user_id = ?", userID).Error
	return u, userErr(err)
}

func (s *GormStore) FindRole(ctx context.Context, userID string) (string, error) {
	u, err := s.FindUserByID(ctx, userID)
	return u.Role, err
}

func (s *GormStore) UpdatePassword(ctx context.Context, userID, hashed string) error {
	res := s.db.WithContext(ctx).Model(&User{}).Where("user_id = ?", userID).Update("hashed_password", hashed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SaveSession keeps one session per user, replacing any earlier one.
func (s *GormStore) SaveSession(ctx context.Context, sess Session) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "expires_at"}),
	}).Create(&sess).Error
}

func (s *GormStore) DeleteSession(ctx context.Context, sessionID string) error {
	res := s.db.WithContext(ctx).Delete(&Session{}, "session_id = ?", sessionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *GormStore) FindSessionByID(id string) (utils.SessionData, error) {
	var session Session

	err := s.db.First(&session, "session_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.SessionData{}, ErrSessionNotFound
	}
	if err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func userErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
