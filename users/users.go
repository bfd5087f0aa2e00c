package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the single role carried in an access token's role claim.
type RoleType string

const (
	RoleSuperAdmin RoleType = "superadmin" // Every country, every import
	RoleAdmin      RoleType = "admin"      // Manages sites and runs imports
	RoleViewer     RoleType = "viewer"     // Read-only dashboards
)

// AdminRoles are the roles allowed to change data.
var AdminRoles = []RoleType{RoleAdmin, RoleSuperAdmin}

type User struct {
	ID           string    `json:"id,omitempty"`          // Unique identifier for the user
	Username     string    `json:"username,omitempty"`    // Unique login name
	PasswordHash string    `json:"-"`                     // Hashed version of the user's password - never serialize
	FirstName    string    `json:"first_name,omitempty"`  // First name of the user
	LastName     string    `json:"last_name,omitempty"`   // Last name of the user
	Role         RoleType  `json:"role"`                  // Role issued in the access token
	Country      string    `json:"pays,omitempty"`        // Country the user is restricted to, empty for all
	DateJoined   time.Time `json:"date_joined,omitempty"` // Date and time when the user was created
	LastLogin    time.Time `json:"last_login,omitempty"`  // Last time the user logged in
	Blocked      bool      `json:"blocked,omitempty"`     // Blocked users cannot log in
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// New creates a user with a hashed password after checking its strength.
func New(username, password string, role RoleType, country string) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("[users New] username is required")
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, fmt.Errorf("[users New] %s: %w", username, err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[users New] failed to hash password: %w", err)
	}
	return &User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Country:      country,
		DateJoined:   time.Now(),
	}, nil
}

func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

func (u *User) HasRole(roles ...RoleType) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// CanSeeCountry reports whether the user's country scope includes country.
func (u *User) CanSeeCountry(country string) bool {
	return u.Country == "" || strings.EqualFold(u.Country, country)
}
