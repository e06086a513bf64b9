package models

import (
	"time"

	"github.com/politologod/vibes-marketplace/internal/utils"
)

// Auth is a login credential record. It references the Profile (User) it
// authenticates; profile data never lives here.
type Auth struct {
	ID           utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
	Email        string      `bson:"email" json:"email"`
	PasswordHash string      `bson:"password" json:"-"`
	UserID       utils.SixID `bson:"userId" json:"userId"`
	IsActive     bool        `bson:"isActive" json:"isActive"`
	LastLogin    *time.Time  `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// AuthUser is the reduced user view returned with tokens by the auth endpoints.
type AuthUser struct {
	ID             utils.SixID `json:"id"`
	Email          string      `json:"email"`
	NombreCompleto string      `json:"nombreCompleto"`
}
