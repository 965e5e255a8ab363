package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrgRepo is an in-memory OrganizationRepository for handler tests.
type fakeOrgRepo struct {
	orgs map[string]*domain.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[string]*domain.Organization)}
}

func (r *fakeOrgRepo) Create(ctx context.Context, org domain.NewOrganization) (*domain.Organization, error) {
	for _, existing := range r.orgs {
		if existing.Name == org.Name {
			return nil, domain.ErrOrganizationExists
		}
	}
	created := &domain.Organization{
		ID:          "organization:o" + org.Name,
		Name:        org.Name,
		EmailDomain: org.EmailDomain,
		Location:    org.Location,
		PhotoURL:    org.PhotoURL,
	}
	r.orgs[created.ID] = created
	return created, nil
}

func (r *fakeOrgRepo) List(ctx context.Context) ([]domain.Organization, error) {
	var out []domain.Organization
	for _, org := range r.orgs {
		out = append(out, *org)
	}
	return out, nil
}

func (r *fakeOrgRepo) FindByID(ctx context.Context, id string) (*domain.Organization, error) {
	if org, ok := r.orgs[id]; ok {
		return org, nil
	}
	return nil, domain.ErrOrganizationNotFound
}

func TestOrganizationHandler_CreateWithoutPhoto(t *testing.T) {
	repo := newFakeOrgRepo()
	handler := NewOrganizationHandler(repo, storage.NewAferoStore(afero.NewMemMapFs()))
	e := newEcho()

	req := multipartRequest(t, "/", map[string]string{
		"organization_name": "Wonderland U",
		"email_domain":      "wonderland.edu",
		"location":          "Rabbit Hole",
	}, "", "", "", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Organization
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, defaultOrganizationPhoto, created.PhotoURL)
}

func TestOrganizationHandler_CreateWithPhoto(t *testing.T) {
	repo := newFakeOrgRepo()
	fs := afero.NewMemMapFs()
	handler := NewOrganizationHandler(repo, storage.NewAferoStore(fs))
	e := newEcho()

	req := multipartRequest(t, "/", map[string]string{
		"organization_name": "Wonderland U",
		"email_domain":      "wonderland.edu",
		"location":          "Rabbit Hole",
	}, "photo", "campus.png", "image/png", []byte("png bytes"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Organization
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.True(t, strings.HasPrefix(created.PhotoURL, "/uploads/organizations/"))

	stored, err := afero.ReadFile(fs, created.PhotoURL[len("/uploads/"):])
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), stored)
}

func TestOrganizationHandler_CreateRejectsBadPhotoType(t *testing.T) {
	handler := NewOrganizationHandler(newFakeOrgRepo(), storage.NewAferoStore(afero.NewMemMapFs()))
	e := newEcho()

	req := multipartRequest(t, "/", map[string]string{
		"organization_name": "Wonderland U",
		"email_domain":      "wonderland.edu",
		"location":          "Rabbit Hole",
	}, "photo", "campus.svg", "image/svg+xml", []byte("<svg/>"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.Create(c)
	require.Error(t, err)
}

func TestOrganizationHandler_CreateDuplicateName(t *testing.T) {
	repo := newFakeOrgRepo()
	_, err := repo.Create(context.Background(), domain.NewOrganization{Name: "Wonderland U"})
	require.NoError(t, err)
	handler := NewOrganizationHandler(repo, storage.NewAferoStore(afero.NewMemMapFs()))
	e := newEcho()

	req := multipartRequest(t, "/", map[string]string{
		"organization_name": "Wonderland U",
		"email_domain":      "wonderland.edu",
		"location":          "Rabbit Hole",
	}, "", "", "", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.Create(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "ORGANIZATION_ALREADY_EXIST")
}

func TestOrganizationHandler_GetNotFound(t *testing.T) {
	handler := NewOrganizationHandler(newFakeOrgRepo(), storage.NewAferoStore(afero.NewMemMapFs()))
	e := newEcho()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("organization:gone")

	require.NoError(t, handler.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ORGANIZATION_NOT_FOUND")
}
