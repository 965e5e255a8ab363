package domain

import (
	"context"
	"time"
)

// Resource is one file-backed learning resource embedded in a group
// document. Rating is the rounded mean of all votes; -1 means unrated.
type Resource struct {
	ID          string    `json:"resource_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	FileURL     string    `json:"file_url"`
	UploadedBy  string    `json:"uploaded_by"`
	Rating      int       `json:"rating"`
	Votes       map[string]int `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// ResourceRepository defines storage operations for group resources.
type ResourceRepository interface {
	// Add appends a resource to the group's embedded list. Returns
	// ErrGroupNotFound when the group is absent.
	Add(ctx context.Context, groupID string, res Resource) error

	// List returns the group's resources in insertion order.
	List(ctx context.Context, groupID string) ([]Resource, error)

	// Vote records one user's rating (0..5) for a resource, replacing any
	// previous vote by the same user, and returns the resource with its
	// recomputed aggregate rating. Returns ErrGroupNotFound or
	// ErrResourceNotFound.
	Vote(ctx context.Context, groupID, resourceID, userID string, rating int) (*Resource, error)
}
