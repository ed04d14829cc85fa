package services

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"eventadmin-client-go/internal/api"
	"eventadmin-client-go/internal/models"
	"eventadmin-client-go/internal/query"
)

// Upload is one file going out in a multipart request.
type Upload struct {
	Name    string
	Content io.Reader
}

// ValidationError blocks a submission before any network call.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}

// UserInput carries the multipart fields of a create or update. Fields are
// sent verbatim; the profile image and extra files get their own parts, and
// DeleteFileIDs become delete_files[] entries on update.
type UserInput struct {
	Fields        map[string]string
	ProfileImage  *Upload
	Files         []Upload
	DeleteFileIDs []int
}

var requiredUserFields = []string{"first_name", "last_name", "gender"}

func (in UserInput) validate() error {
	for _, field := range requiredUserFields {
		if in.Fields[field] == "" {
			return &ValidationError{Field: field}
		}
	}
	return nil
}

func (in UserInput) form() *api.Form {
	form := api.NewForm()
	for name, value := range in.Fields {
		form.AddField(name, value)
	}
	if in.ProfileImage != nil {
		form.AddFile("profile_image", in.ProfileImage.Name, in.ProfileImage.Content)
	}
	for _, file := range in.Files {
		form.AddFile("files[]", file.Name, file.Content)
	}
	for _, id := range in.DeleteFileIDs {
		form.AddField("delete_files[]", strconv.Itoa(id))
	}
	return form
}

// Users queries and mutates the user collection.
type Users struct {
	client *api.Client
	cache  *query.Cache
	scope  string
}

func NewUsers(client *api.Client, cache *query.Cache) *Users {
	return &Users{client: client, cache: cache, scope: "users"}
}

// NewAdmins is the same resource against the /admins listing; admins live
// in their own cache scope so the two tables never cross-invalidate.
func NewAdmins(client *api.Client, cache *query.Cache) *Users {
	return &Users{client: client, cache: cache, scope: "admins"}
}

func (s *Users) listKey(p query.Params) string {
	return p.Key(s.scope)
}

func (s *Users) itemKey(id string) string {
	return s.scope + "/" + id
}

// List fetches one page of users for the given parameter tuple, served
// through the shared cache.
func (s *Users) List(ctx context.Context, p query.Params) (*models.Page[models.User], error) {
	return query.Fetch(ctx, s.cache, s.listKey(p), func(ctx context.Context) (*models.Page[models.User], error) {
		var page models.Page[models.User]
		path := "/" + s.scope + "?" + p.QueryString()
		if err := s.client.DoJSON(ctx, "GET", path, nil, &page); err != nil {
			return nil, err
		}
		return &page, nil
	})
}

func (s *Users) Get(ctx context.Context, id string) (*models.User, error) {
	return query.Fetch(ctx, s.cache, s.itemKey(id), func(ctx context.Context) (*models.User, error) {
		var user models.User
		if err := s.client.DoJSON(ctx, "GET", "/"+s.scope+"/"+id, nil, &user); err != nil {
			return nil, err
		}
		return &user, nil
	})
}

func (s *Users) Create(ctx context.Context, input UserInput) (*models.User, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	var user models.User
	if err := s.client.DoJSON(ctx, "POST", "/"+s.scope, input.form(), &user); err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix(s.scope + "?")
	return &user, nil
}

// Update tunnels through POST with a _method=PUT override: the backend
// cannot parse PUT multipart submissions.
func (s *Users) Update(ctx context.Context, id string, input UserInput) (*models.User, error) {
	form := input.form().MethodOverride("PUT")
	var user models.User
	if err := s.client.DoJSON(ctx, "POST", "/"+s.scope+"/"+id, form, &user); err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix(s.scope + "?")
	s.cache.Invalidate(s.itemKey(id))
	return &user, nil
}

func (s *Users) Delete(ctx context.Context, id string) error {
	if err := s.client.DoJSON(ctx, "DELETE", "/"+s.scope+"/"+id, nil, nil); err != nil {
		return err
	}
	s.cache.InvalidatePrefix(s.scope + "?")
	s.cache.Invalidate(s.itemKey(id))
	return nil
}

// EventsForUser lists the events a user is attached to.
func (s *Users) EventsForUser(ctx context.Context, id string) (*models.EventsForUser, error) {
	key := fmt.Sprintf("%s/%s/events", s.scope, id)
	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (*models.EventsForUser, error) {
		var resp models.EventsForUser
		if err := s.client.DoJSON(ctx, "GET", "/"+s.scope+"/"+id+"/events", nil, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
}
