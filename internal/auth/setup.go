package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/seacable/atlas-backend/internal/db"
	"github.com/seacable/atlas-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Init creates the app_auth schema and its tables.
func Init(d *gorm.DB) error {
	return db.Migrate(d, "app_auth", &User{}, &Session{})
}

// NewUser validates the fields and hashes password.
func NewUser(name, email, password, role string) (User, error) {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return User{}, fmt.Errorf("name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("invalid email %q", email)
	}
	if role == "" {
		role = RoleAnalyst
	}
	if !slices.Contains(Roles, role) {
		return User{}, fmt.Errorf("unknown role %q", role)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return User{
		UserID:         utils.GenerateUUID(),
		Name:           name,
		Email:          email,
		HashedPassword: string(hashed),
		Role:           role,
	}, nil
}

// Register creates a user through store.
func Register(ctx context.Context, store Store, name, email, password, role string) (User, error) {
	u, err := NewUser(name, email, password, role)
	if err != nil {
		return User{}, err
	}
	if err := store.CreateUser(ctx, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Roles used by the atlas UI.
const (
	RoleAdmin     = "Admin"
	RoleScientist = "Data Scientist"
	RoleAnalyst   = "Data Analyst"
)

// Roles lists every assignable role.
var Roles = []string{RoleAdmin, RoleScientist, RoleAnalyst}

// WriterRoles may append records to the cable store.
var WriterRoles = []string{RoleAdmin, RoleScientist}
