package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access-token payload issued by the portal identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	SchoolID string   `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}

// CanManageSchool reports whether the caller may operate on the given school.
// Superadmins span schools; admins are bound to the school in their token when one is set.
func (c *JWTClaims) CanManageSchool(schoolID string) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleSuperAdmin {
		return true
	}
	return c.SchoolID == "" || c.SchoolID == schoolID
}
