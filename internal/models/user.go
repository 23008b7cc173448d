package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available operator roles.
type UserRole string

const (
	// RoleSuperAdmin may view and filter across all barangays.
	RoleSuperAdmin UserRole = "super_admin"
	// RoleBarangayAdmin is restricted to their home barangay.
	RoleBarangayAdmin UserRole = "barangay_admin"
)

// JWTClaims carries the ambient operator context attached to every request:
// role, home barangay, and the acting admin's display name.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
	Barangay string   `json:"barangay"`
	jwt.RegisteredClaims
}

// UserRecord is a row from the users directory. Every attribute beyond the
// id is optional; identity resolution picks the first present name-like
// field in a fixed order.
type UserRecord struct {
	ID          string  `db:"id"`
	Email       *string `db:"email"`
	Name        *string `db:"name"`
	FullName    *string `db:"full_name"`
	DisplayName *string `db:"display_name"`
	Username    *string `db:"username"`
	Address     *string `db:"address"`
	Phone       *string `db:"phone"`
	Contact     *string `db:"contact"`
	PhoneNumber *string `db:"phone_number"`
}

// AdminRecord is a row from the admins directory.
type AdminRecord struct {
	ID       string  `db:"id"`
	Email    string  `db:"email"`
	Name     *string `db:"name"`
	FullName *string `db:"full_name"`
	Barangay *string `db:"barangay"`
}
