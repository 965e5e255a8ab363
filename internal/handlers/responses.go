package handlers

// ErrorResponse is the standard format for API error responses. Detail
// carries a stable machine-readable code.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// TokenResponse is the login result.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MembershipResponse answers the room membership probe.
type MembershipResponse struct {
	Joined bool `json:"joined"`
}

// MessageResponse is a generic human-readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Stable error codes surfaced in ErrorResponse.Detail.
const (
	detailUserAlreadyExists     = "USER_ALREADY_EXIST"
	detailInvalidUsername       = "INVALID_USERNAME"
	detailInvalidPassword       = "INVALID_PASSWORD"
	detailUsernameAlreadyExists = "USERNAME_ALREADY_EXIST"
	detailEmailAlreadyExists    = "EMAIL_ALREADY_EXIST"
	detailEmailDontExist        = "EMAIL_DONT_EXIST"
	detailDeleteAllEmails       = "DELETE_ALL_EMAILS_NOT_ALLOWED"
	detailRoomNotFound          = "ROOM_NOT_FOUND"
	detailUserAlreadyJoined     = "USER_ALREADY_JOINED"
	detailOrganizationExists    = "ORGANIZATION_ALREADY_EXIST"
	detailOrganizationNotFound  = "ORGANIZATION_NOT_FOUND"
	detailGroupNotFound         = "GROUP_NOT_FOUND"
	detailResourceNotFound      = "RESOURCE_NOT_FOUND"
	detailInvalidToken          = "INVALID_TOKEN"
)
