package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a document in the MongoDB users collection. Username and email
// are stored lowercased and are unique case-insensitively. Password holds
// the bcrypt hash, never plaintext. RefreshToken is the single current
// refresh token, unset while the user is logged out.
type User struct {
	ID           primitive.ObjectID `json:"id"                     bson:"_id,omitempty"`
	UserName     string             `json:"userName"               bson:"userName"`
	Email        string             `json:"email"                  bson:"email"`
	FullName     string             `json:"fullName"               bson:"fullName"`
	Password     string             `json:"-"                      bson:"password"`
	Avatar       string             `json:"avatar"                 bson:"avatar"`
	CoverImage   string             `json:"coverImage,omitempty"   bson:"coverImage,omitempty"`
	RefreshToken string             `json:"-"                      bson:"refreshToken,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"              bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"              bson:"updatedAt"`
}

// PublicUser is the sanitized view of a User: password hash and refresh
// token removed. Everything handed back to clients goes through this.
type PublicUser struct {
	ID         string    `json:"id"`
	UserName   string    `json:"userName"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public returns the sanitized view of u.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID.Hex(),
		UserName:   u.UserName,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// LoginRequest is the JSON body for POST /api/v1/users/login.
// One of UserName or Email must be present.
type LoginRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RenewRequest is the JSON body fallback for POST /api/v1/users/renew-token
// when the refresh token is not supplied as a cookie.
type RenewRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UpdateAccountRequest is the JSON body for PATCH /api/v1/users/update-account.
type UpdateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// UpdatePasswordRequest is the JSON body for PATCH /api/v1/users/update-password.
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
