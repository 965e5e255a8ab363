package database

import (
	"strings"
	"time"

	"github.com/campuslink/campuslink/internal/domain"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Table names backing the two room kinds.
const (
	tableUser         = "user"
	tableOrganization = "organization"
	tableGroup        = "group"
)

// roomTable maps a room kind to its backing table.
func roomTable(kind domain.RoomKind) string {
	if kind == domain.RoomKindGroup {
		return tableGroup
	}
	return tableOrganization
}

// recordKey extracts the key part of a "table:key" identifier, validating
// the table prefix. A bare key (no colon) is accepted as-is, so callers can
// pass either form.
func recordKey(id, table string) (string, bool) {
	tb, key, ok := strings.Cut(id, ":")
	if !ok {
		return id, id != ""
	}
	if tb != table || key == "" {
		return "", false
	}
	return key, true
}

// recordString formats a RecordID back into the flat "table:key" form the
// API exposes.
func recordString(id *surrealmodels.RecordID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// emailDoc is one entry of a user's stored email list.
type emailDoc struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// userDoc is the stored shape of a user.
type userDoc struct {
	ID        *surrealmodels.RecordID       `json:"id,omitempty"`
	Username  string                        `json:"username"`
	FirstName string                        `json:"first_name"`
	LastName  string                        `json:"last_name"`
	Emails    []emailDoc                    `json:"emails"`
	Password  string                        `json:"password,omitempty"`
	CreatedAt *surrealmodels.CustomDateTime `json:"created_at,omitempty"`
	UpdatedAt *surrealmodels.CustomDateTime `json:"updated_at,omitempty"`
}

// toDomain flattens the stored document into the canonical user shape:
// string id, no credential.
func (d *userDoc) toDomain() *domain.User {
	emails := make([]domain.EmailEntry, len(d.Emails))
	for i, e := range d.Emails {
		emails[i] = domain.EmailEntry{Address: e.Address, Verified: e.Verified}
	}
	return &domain.User{
		ID:        recordString(d.ID),
		Username:  d.Username,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Emails:    emails,
		CreatedAt: docTime(d.CreatedAt),
		UpdatedAt: docTime(d.UpdatedAt),
	}
}

// messageDoc is one entry of a room's embedded message log. Sender ids are
// stored as flat strings; the join back to users happens on the read path.
type messageDoc struct {
	ID        string                        `json:"id"`
	SenderID  string                        `json:"sender_id"`
	Content   string                        `json:"content"`
	Timestamp *surrealmodels.CustomDateTime `json:"timestamp"`
}

func messageToDoc(msg domain.Message) messageDoc {
	return messageDoc{
		ID:        msg.ID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		Timestamp: &surrealmodels.CustomDateTime{Time: msg.Timestamp},
	}
}

// resourceDoc is one entry of a group's embedded resource list.
type resourceDoc struct {
	ID          string                        `json:"id"`
	Name        string                        `json:"name"`
	Description string                        `json:"description,omitempty"`
	FileURL     string                        `json:"file_url"`
	UploadedBy  string                        `json:"uploaded_by"`
	Rating      int                           `json:"rating"`
	Votes       map[string]int                `json:"votes,omitempty"`
	CreatedAt   *surrealmodels.CustomDateTime `json:"created_at,omitempty"`
}

func (d *resourceDoc) toDomain() domain.Resource {
	return domain.Resource{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		FileURL:     d.FileURL,
		UploadedBy:  d.UploadedBy,
		Rating:      d.Rating,
		Votes:       d.Votes,
		CreatedAt:   docTime(d.CreatedAt),
	}
}

func resourceToDoc(res domain.Resource) resourceDoc {
	return resourceDoc{
		ID:          res.ID,
		Name:        res.Name,
		Description: res.Description,
		FileURL:     res.FileURL,
		UploadedBy:  res.UploadedBy,
		Rating:      res.Rating,
		Votes:       res.Votes,
		CreatedAt:   &surrealmodels.CustomDateTime{Time: res.CreatedAt},
	}
}

// organizationDoc is the stored shape of an organization.
type organizationDoc struct {
	ID          *surrealmodels.RecordID       `json:"id,omitempty"`
	Name        string                        `json:"organization_name"`
	EmailDomain string                        `json:"email_domain"`
	Location    string                        `json:"location"`
	PhotoURL    string                        `json:"photo_url"`
	Members     []string                      `json:"members"`
	Messages    []messageDoc                  `json:"messages"`
	CreatedAt   *surrealmodels.CustomDateTime `json:"created_at,omitempty"`
	UpdatedAt   *surrealmodels.CustomDateTime `json:"updated_at,omitempty"`
}

func (d *organizationDoc) toDomain() *domain.Organization {
	return &domain.Organization{
		ID:          recordString(d.ID),
		Name:        d.Name,
		EmailDomain: d.EmailDomain,
		Location:    d.Location,
		PhotoURL:    d.PhotoURL,
		Members:     d.Members,
		MemberCount: len(d.Members),
		CreatedAt:   docTime(d.CreatedAt),
		UpdatedAt:   docTime(d.UpdatedAt),
	}
}

// groupDoc is the stored shape of a group.
type groupDoc struct {
	ID            *surrealmodels.RecordID       `json:"id,omitempty"`
	Title         string                        `json:"title"`
	Organization  string                        `json:"org_id"`
	ParentGroupID string                        `json:"parent_group_id,omitempty"`
	SubGroups     []string                      `json:"sub_groups"`
	Members       []string                      `json:"members"`
	Messages      []messageDoc                  `json:"messages"`
	Resources     []resourceDoc                 `json:"resources"`
	CreatedAt     *surrealmodels.CustomDateTime `json:"created_at,omitempty"`
	UpdatedAt     *surrealmodels.CustomDateTime `json:"updated_at,omitempty"`
}

func (d *groupDoc) toDomain() *domain.Group {
	return &domain.Group{
		ID:             recordString(d.ID),
		Title:          d.Title,
		OrganizationID: d.Organization,
		ParentGroupID:  d.ParentGroupID,
		SubGroups:      d.SubGroups,
		MemberCount:    len(d.Members),
	}
}

func docTime(t *surrealmodels.CustomDateTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}
