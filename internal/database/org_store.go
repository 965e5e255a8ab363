package database

import (
	"context"
	"fmt"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// OrganizationStore encapsulates database operations for organizations.
type OrganizationStore struct {
	db *surrealdb.DB
}

// NewOrganizationStore creates a new OrganizationStore.
func NewOrganizationStore(db *surrealdb.DB) *OrganizationStore {
	return &OrganizationStore{db: db}
}

var _ domain.OrganizationRepository = (*OrganizationStore)(nil)

// Create inserts a new organization with an empty member list and message
// log. The name must be unclaimed.
func (s *OrganizationStore) Create(ctx context.Context, org domain.NewOrganization) (*domain.Organization, error) {
	existing, err := QueryOne[organizationDoc](ctx, s.db,
		"SELECT id FROM organization WHERE organization_name = $name",
		map[string]any{"name": org.Name})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrOrganizationExists
	}

	query := `
		CREATE organization SET
			organization_name = $name,
			email_domain = $email_domain,
			location = $location,
			photo_url = $photo_url,
			members = [],
			messages = [],
			created_at = time::now(),
			updated_at = time::now()
	`
	params := map[string]any{
		"name":         org.Name,
		"email_domain": org.EmailDomain,
		"location":     org.Location,
		"photo_url":    org.PhotoURL,
	}

	doc, err := QueryOne[organizationDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("failed to create organization: empty result")
	}

	return doc.toDomain(), nil
}

// List returns all organizations.
func (s *OrganizationStore) List(ctx context.Context) ([]domain.Organization, error) {
	docs, err := Query[organizationDoc](ctx, s.db, "SELECT * FROM organization", nil)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	orgs := make([]domain.Organization, len(docs))
	for i := range docs {
		orgs[i] = *docs[i].toDomain()
	}
	return orgs, nil
}

// FindByID resolves an organization by its record id.
func (s *OrganizationStore) FindByID(ctx context.Context, id string) (*domain.Organization, error) {
	key, ok := recordKey(id, tableOrganization)
	if !ok {
		return nil, domain.ErrOrganizationNotFound
	}

	query := "SELECT * FROM type::thing($tb, $key)"
	params := map[string]any{"tb": tableOrganization, "key": key}

	doc, err := QueryOne[organizationDoc](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if doc == nil || doc.ID == nil {
		return nil, domain.ErrOrganizationNotFound
	}

	return doc.toDomain(), nil
}
