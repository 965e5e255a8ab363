package domain

import (
	"context"
	"time"
)

// Organization is an education organization: the root of the group tree and
// a chat room in its own right.
type Organization struct {
	ID          string    `json:"organization_id"`
	Name        string    `json:"organization_name"`
	EmailDomain string    `json:"email_domain"`
	Location    string    `json:"location"`
	PhotoURL    string    `json:"photo_url"`
	Members     []string  `json:"users"`
	MemberCount int       `json:"user_count"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// NewOrganization carries the fields required to create an organization.
// PhotoURL is resolved by the handler (uploaded file or the default).
type NewOrganization struct {
	Name        string
	EmailDomain string
	Location    string
	PhotoURL    string
}

// Group is a study group inside an organization. Groups form a tree via
// ParentGroupID/SubGroups; a group with an empty ParentGroupID hangs
// directly off the organization.
type Group struct {
	ID             string   `json:"group_id"`
	Title          string   `json:"title"`
	OrganizationID string   `json:"org_id"`
	ParentGroupID  string   `json:"parent_group_id,omitempty"`
	SubGroups      []string `json:"-"`
	MemberCount    int      `json:"members_count"`
}

// NewGroup carries the fields required to create a group.
type NewGroup struct {
	Title          string
	OrganizationID string
	ParentGroupID  string
}

// OrganizationRepository defines storage operations for organizations.
type OrganizationRepository interface {
	// Create inserts a new organization. Returns ErrOrganizationExists
	// when the name is already taken.
	Create(ctx context.Context, org NewOrganization) (*Organization, error)

	// List returns all organizations.
	List(ctx context.Context) ([]Organization, error)

	// FindByID returns ErrOrganizationNotFound when absent.
	FindByID(ctx context.Context, id string) (*Organization, error)
}

// GroupRepository defines storage operations for groups.
type GroupRepository interface {
	// Create inserts a new group and, when ParentGroupID is set, links it
	// into the parent's SubGroups list. Returns ErrGroupNotFound when the
	// parent does not resolve, ErrOrganizationNotFound when the
	// organization does not.
	Create(ctx context.Context, group NewGroup) (*Group, error)

	// ListByOrganization returns all groups of one organization.
	ListByOrganization(ctx context.Context, orgID string) ([]Group, error)

	// FindByID returns ErrGroupNotFound when absent.
	FindByID(ctx context.Context, id string) (*Group, error)

	// Subgroups returns the direct children of a group.
	Subgroups(ctx context.Context, id string) ([]Group, error)
}
