package database

import (
	"context"
	"fmt"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// GroupStore encapsulates database operations for groups.
type GroupStore struct {
	db *surrealdb.DB
}

// NewGroupStore creates a new GroupStore.
func NewGroupStore(db *surrealdb.DB) *GroupStore {
	return &GroupStore{db: db}
}

var _ domain.GroupRepository = (*GroupStore)(nil)

// Create inserts a new group under an organization and, when a parent group
// is named, links the new id into the parent's sub_groups list.
func (s *GroupStore) Create(ctx context.Context, group domain.NewGroup) (*domain.Group, error) {
	orgKey, ok := recordKey(group.OrganizationID, tableOrganization)
	if !ok {
		return nil, domain.ErrOrganizationNotFound
	}

	org, err := QueryOne[organizationDoc](ctx, s.db,
		"SELECT id FROM type::thing($tb, $key)",
		map[string]any{"tb": tableOrganization, "key": orgKey})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if org == nil || org.ID == nil {
		return nil, domain.ErrOrganizationNotFound
	}

	if group.ParentGroupID != "" {
		if _, err := s.FindByID(ctx, group.ParentGroupID); err != nil {
			return nil, err
		}
	}

	query := `
		CREATE group SET
			title = $title,
			org_id = $org_id,
			parent_group_id = $parent_group_id,
			sub_groups = [],
			members = [],
			messages = [],
			resources = [],
			created_at = time::now(),
			updated_at = time::now()
	`
	params := map[string]any{
		"title":           group.Title,
		"org_id":          recordString(org.ID),
		"parent_group_id": group.ParentGroupID,
	}

	doc, err := QueryOne[groupDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("failed to create group: empty result")
	}

	if group.ParentGroupID != "" {
		if err := s.linkSubgroup(ctx, group.ParentGroupID, recordString(doc.ID)); err != nil {
			return nil, err
		}
	}

	return doc.toDomain(), nil
}

// ListByOrganization returns all groups of one organization, the nested ones
// included.
func (s *GroupStore) ListByOrganization(ctx context.Context, orgID string) ([]domain.Group, error) {
	query := "SELECT * FROM group WHERE org_id = $org_id"
	params := map[string]any{"org_id": orgID}

	docs, err := Query[groupDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	groups := make([]domain.Group, len(docs))
	for i := range docs {
		groups[i] = *docs[i].toDomain()
	}
	return groups, nil
}

// FindByID resolves a group by its record id.
func (s *GroupStore) FindByID(ctx context.Context, id string) (*domain.Group, error) {
	doc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// Subgroups returns the direct children of a group.
func (s *GroupStore) Subgroups(ctx context.Context, id string) ([]domain.Group, error) {
	if _, err := s.fetch(ctx, id); err != nil {
		return nil, err
	}

	query := "SELECT * FROM group WHERE parent_group_id = $parent"
	params := map[string]any{"parent": id}

	docs, err := Query[groupDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	groups := make([]domain.Group, len(docs))
	for i := range docs {
		groups[i] = *docs[i].toDomain()
	}
	return groups, nil
}

// fetch loads the full group document, or ErrGroupNotFound.
func (s *GroupStore) fetch(ctx context.Context, id string) (*groupDoc, error) {
	key, ok := recordKey(id, tableGroup)
	if !ok {
		return nil, domain.ErrGroupNotFound
	}

	query := "SELECT * FROM type::thing($tb, $key)"
	params := map[string]any{"tb": tableGroup, "key": key}

	doc, err := QueryOne[groupDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if doc == nil || doc.ID == nil {
		return nil, domain.ErrGroupNotFound
	}

	return doc, nil
}

// linkSubgroup appends the child id to the parent's sub_groups list.
func (s *GroupStore) linkSubgroup(ctx context.Context, parentID, childID string) error {
	key, ok := recordKey(parentID, tableGroup)
	if !ok {
		return domain.ErrGroupNotFound
	}

	query := `
		UPDATE type::thing($tb, $key) SET
			sub_groups = array::union(sub_groups, [$child]),
			updated_at = time::now()
	`
	params := map[string]any{"tb": tableGroup, "key": key, "child": childID}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to link subgroup: %w", err)
	}
	return nil
}
