package handlers

import (
	"mime/multipart"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement
// Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// RegisterRequest is the DTO for the registration endpoint.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=25"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=50"`
	FirstName string `json:"first_name" validate:"required,min=3,max=25"`
	LastName  string `json:"last_name" validate:"required,min=3,max=25"`
}

// LoginRequest carries form credentials.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// PatchUserRequest is the DTO for partial user updates. Absent fields stay
// unchanged.
type PatchUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=3,max=25"`
	LastName  *string `json:"last_name" validate:"omitempty,min=3,max=25"`
	Username  *string `json:"username" validate:"omitempty,min=3,max=25"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=50"`
}

// AddEmailRequest is the DTO for attaching an address to a user.
type AddEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateOrganizationRequest is the multipart DTO for creating an
// organization. The photo is optional.
type CreateOrganizationRequest struct {
	Name        string                `form:"organization_name" validate:"required,min=3,max=25"`
	EmailDomain string                `form:"email_domain" validate:"required,min=3,max=25"`
	Location    string                `form:"location" validate:"required,min=3,max=25"`
	Photo       *multipart.FileHeader `form:"photo"`
}

// CreateGroupRequest is the DTO for creating a group under an organization.
type CreateGroupRequest struct {
	Title         string `json:"title" validate:"required,min=3,max=100"`
	ParentGroupID string `json:"parent_group_id" validate:"omitempty"`
}

// UploadResourceRequest is the multipart DTO for the resource upload
// endpoint.
type UploadResourceRequest struct {
	Name        string                `form:"name" validate:"required,min=3,max=50"`
	Description string                `form:"description" validate:"max=150"`
	File        *multipart.FileHeader `form:"file" validate:"required"`
}

// VoteRequest carries one user's rating for a resource. A pointer keeps the
// legitimate zero rating distinguishable from an absent field.
type VoteRequest struct {
	Rating *int `json:"rating" validate:"required,min=0,max=5"`
}
