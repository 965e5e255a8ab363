package database

import (
	"context"
	"fmt"
	"math"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/surrealdb/surrealdb.go"
)

// ResourceStore manages the learning resources embedded in group documents.
type ResourceStore struct {
	db     *surrealdb.DB
	groups *GroupStore
}

// NewResourceStore creates a new ResourceStore.
func NewResourceStore(db *surrealdb.DB) *ResourceStore {
	return &ResourceStore{db: db, groups: NewGroupStore(db)}
}

var _ domain.ResourceRepository = (*ResourceStore)(nil)

// Add appends a resource to the group's embedded list.
func (s *ResourceStore) Add(ctx context.Context, groupID string, res domain.Resource) error {
	key, ok := recordKey(groupID, tableGroup)
	if !ok {
		return domain.ErrGroupNotFound
	}

	query := `
		UPDATE type::thing($tb, $key) SET
			resources += $resource,
			updated_at = time::now()
		RETURN AFTER
	`
	params := map[string]any{
		"tb":       tableGroup,
		"key":      key,
		"resource": resourceToDoc(res),
	}

	doc, err := QueryOne[groupDoc](ctx, s.db, query, params)
	if err != nil {
		return fmt.Errorf("failed to add resource: %w", err)
	}
	if doc == nil {
		return domain.ErrGroupNotFound
	}

	return nil
}

// List returns the group's resources in insertion order.
func (s *ResourceStore) List(ctx context.Context, groupID string) ([]domain.Resource, error) {
	doc, err := s.groups.fetch(ctx, groupID)
	if err != nil {
		return nil, err
	}

	resources := make([]domain.Resource, len(doc.Resources))
	for i := range doc.Resources {
		resources[i] = doc.Resources[i].toDomain()
	}
	return resources, nil
}

// Vote records one user's rating for a resource, replacing any previous vote
// by the same user, and recomputes the aggregate.
func (s *ResourceStore) Vote(ctx context.Context, groupID, resourceID, userID string, rating int) (*domain.Resource, error) {
	doc, err := s.groups.fetch(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var voted *resourceDoc
	for i := range doc.Resources {
		if doc.Resources[i].ID != resourceID {
			continue
		}
		res := &doc.Resources[i]
		if res.Votes == nil {
			res.Votes = make(map[string]int)
		}
		res.Votes[userID] = rating
		res.Rating = aggregateRating(res.Votes)
		voted = res
		break
	}
	if voted == nil {
		return nil, domain.ErrResourceNotFound
	}

	query := `
		UPDATE $id SET
			resources = $resources,
			updated_at = time::now()
	`
	params := map[string]any{"id": doc.ID, "resources": doc.Resources}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}

	result := voted.toDomain()
	return &result, nil
}

// aggregateRating is the rounded mean of all votes, or -1 when nobody has
// voted yet.
func aggregateRating(votes map[string]int) int {
	if len(votes) == 0 {
		return -1
	}
	sum := 0
	for _, v := range votes {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(votes))))
}
