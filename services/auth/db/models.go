package db

import (
	"time"

	"github.com/medchat-io/medchat/pkg/api"
	"gorm.io/gorm"
)

type ApiKey struct {
	gorm.Model
	Name          string
	Role          api.Role
	CreatorUserID string
	IsActive      bool
	KeyHash       string
	MaskedKey     string
}

type User struct {
	gorm.Model
	Email         string
	EmailVerified bool
	FullName      string
	Role          api.Role
	ExternalId    string
	LastLogin     time.Time
	Username      string
	PasswordHash  string
	IsActive      bool `gorm:"default:true"`
}
