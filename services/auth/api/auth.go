package api

import (
	"time"

	"github.com/medchat-io/medchat/pkg/api"
)

type CheckResponse struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	RoleName api.Role `json:"role" enums:"admin,editor,viewer" example:"viewer"`
}

type GetUsersResponse struct {
	ID           uint       `json:"id"`
	UserName     string     `json:"username"`
	Email        string     `json:"email"`
	ExternalId   string     `json:"external_id"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActivity *time.Time `json:"last_activity"`
	RoleName     api.Role   `json:"role"`
	IsActive     bool       `json:"is_active"`
}

type GetMeResponse struct {
	ID          uint       `json:"id"`
	UserName    string     `json:"username"`
	Email       string     `json:"email"`
	CreatedAt   time.Time  `json:"created_at"`
	MemberSince time.Time  `json:"member_since"`
	LastLogin   *time.Time `json:"last_login"`
	Role        api.Role   `json:"role"`
}

type CreateUserRequest struct {
	EmailAddress string    `json:"email_address" validate:"required,email"`
	Role         *api.Role `json:"role" enums:"admin,editor,viewer" example:"viewer"`
	Password     *string   `json:"password"`
}

type ResetUserPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type CreateAPIKeyRequest struct {
	Name string   `json:"name" validate:"required"` // Name of the key
	Role api.Role `json:"role" enums:"admin,editor,viewer" example:"viewer"`
}

type CreateAPIKeyResponse struct {
	ID        uint      `json:"id" example:"1"`
	Name      string    `json:"name" example:"example"`
	Active    bool      `json:"active" example:"true"`
	CreatedAt time.Time `json:"created_at"`
	RoleName  api.Role  `json:"role" enums:"admin,editor,viewer" example:"viewer"`
	Token     string    `json:"token"` // Token of the key, shown only on creation
}

type APIKeyResponse struct {
	ID            uint      `json:"id" example:"1"`
	CreatedAt     time.Time `json:"created_at"`
	Name          string    `json:"name" example:"example"`
	RoleName      api.Role  `json:"role" enums:"admin,editor,viewer" example:"viewer"`
	CreatorUserID string    `json:"creator_user_id"`
	Active        bool      `json:"active" example:"true"`
	MaskedKey     string    `json:"masked_key" example:"abc...de"`
}
