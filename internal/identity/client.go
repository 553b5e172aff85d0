package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/domain"
)

// ErrRoleNotFound is returned when a named realm role does not exist.
var ErrRoleNotFound = errors.New("realm role not found")

// StatusError is a non-2xx answer from the admin API.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 answer from the admin API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Account is what the provider stores about a user.
type Account struct {
	Email    string
	Name     string
	LastName string
	Password string
}

// Client talks to the Keycloak admin REST API. Every public operation
// obtains a fresh client-credentials token.
type Client struct {
	http     *http.Client
	creds    clientcredentials.Config
	adminURL string
	logger   *zap.Logger
}

// NewClient builds a client for the configured realm.
func NewClient(cfg config.KeycloakConfig, logger *zap.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout()},
		creds: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL(),
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		adminURL: strings.TrimRight(cfg.AdminURL(), "/"),
		logger:   logger,
	}
}

// CreateUser registers an enabled account with a permanent password and
// returns the provider id taken from the Location header.
func (c *Client) CreateUser(ctx context.Context, acc Account) (string, error) {
	s, err := c.session(ctx)
	if err != nil {
		return "", err
	}
	payload := map[string]any{
		"username":  acc.Email,
		"email":     acc.Email,
		"firstName": acc.Name,
		"lastName":  acc.LastName,
		"enabled":   true,
		"credentials": []credential{{
			Type: "password", Value: acc.Password, Temporary: false,
		}},
	}
	resp, err := s.do(http.MethodPost, "/users", payload, nil)
	if err != nil {
		return "", err
	}
	location := resp.Header.Get("Location")
	id := path.Base(strings.TrimRight(location, "/"))
	if location == "" || id == "." || id == "/" {
		return "", errors.New("create user: response carries no Location header")
	}
	c.logger.Debug("identity user created", zap.String("external_id", id))
	return id, nil
}

// UpdateUser replaces the name and email of an account.
func (c *Client) UpdateUser(ctx context.Context, externalID string, acc Account) error {
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"firstName": acc.Name,
		"lastName":  acc.LastName,
		"email":     acc.Email,
		"enabled":   true,
	}
	_, err = s.do(http.MethodPut, "/users/"+url.PathEscape(externalID), payload, nil)
	return err
}

// SetPassword stores a permanent password.
func (c *Client) SetPassword(ctx context.Context, externalID, password string) error {
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	cred := credential{Type: "password", Value: password, Temporary: false}
	_, err = s.do(http.MethodPut, "/users/"+url.PathEscape(externalID)+"/reset-password", cred, nil)
	return err
}

// AssignRole leaves the user with exactly roleName plus its default roles.
func (c *Client) AssignRole(ctx context.Context, externalID, roleName string) error {
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	mappings := "/users/" + url.PathEscape(externalID) + "/role-mappings/realm"

	var current []Role
	if _, err := s.do(http.MethodGet, mappings, nil, &current); err != nil {
		return err
	}
	all, err := s.realmRoles()
	if err != nil {
		return err
	}
	role, ok := findRole(all, roleName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoleNotFound, roleName)
	}

	toRemove, toAdd := planRoleReplacement(current, []Role{role})
	if len(toRemove) > 0 {
		if _, err := s.do(http.MethodDelete, mappings, toRemove, nil); err != nil {
			return err
		}
	}
	if len(toAdd) > 0 {
		if _, err := s.do(http.MethodPost, mappings, toAdd, nil); err != nil {
			return err
		}
	}
	return nil
}

// CompositeRoles lists roles that have child roles, skipping default roles.
func (c *Client) CompositeRoles(ctx context.Context) ([]domain.RoleWithPermissions, error) {
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.realmRoles()
	if err != nil {
		return nil, err
	}
	var out []domain.RoleWithPermissions
	for _, r := range all {
		if domain.IsDefaultRole(r.Name) {
			continue
		}
		children, err := s.composites(r.Name)
		if err != nil {
			c.logger.Debug("skipping role without readable composites", zap.String("role", r.Name), zap.Error(err))
			continue
		}
		if len(children) == 0 {
			continue
		}
		item := domain.RoleWithPermissions{Name: r.Name}
		for _, child := range children {
			item.Permissions = append(item.Permissions, child.Name)
		}
		out = append(out, item)
	}
	return out, nil
}

// SimpleRoles lists non-default roles with no children. These are the
// permissions.
func (c *Client) SimpleRoles(ctx context.Context) ([]Role, error) {
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.simpleRoles()
}

// ReplaceRolePermissions makes permissions the exact child set of role.
// Unknown permission names are ignored.
func (c *Client) ReplaceRolePermissions(ctx context.Context, role string, permissions []string) error {
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	current, err := s.composites(role)
	if err != nil {
		return err
	}
	all, err := s.realmRoles()
	if err != nil {
		return err
	}

	toRemove, toAdd := planRoleReplacement(current, selectRoles(all, permissions))
	endpoint := "/roles/" + url.PathEscape(role) + "/composites"
	if len(toRemove) > 0 {
		if _, err := s.do(http.MethodDelete, endpoint, toRemove, nil); err != nil {
			return err
		}
	}
	if len(toAdd) > 0 {
		if _, err := s.do(http.MethodPost, endpoint, toAdd, nil); err != nil {
			return err
		}
	}
	return nil
}

// AddPermission composes one permission onto role. It returns false when the
// permission is unknown.
func (c *Client) AddPermission(ctx context.Context, role, permission string) (bool, error) {
	return c.editPermission(ctx, http.MethodPost, role, permission)
}

// RemovePermission detaches one permission from role. It returns false when
// the permission is unknown.
func (c *Client) RemovePermission(ctx context.Context, role, permission string) (bool, error) {
	return c.editPermission(ctx, http.MethodDelete, role, permission)
}

func (c *Client) editPermission(ctx context.Context, method, role, permission string) (bool, error) {
	s, err := c.session(ctx)
	if err != nil {
		return false, err
	}
	simple, err := s.simpleRoles()
	if err != nil {
		return false, err
	}
	perm, ok := findRole(simple, permission)
	if !ok {
		return false, nil
	}
	if _, err := s.do(method, "/roles/"+url.PathEscape(role)+"/composites", []Role{perm}, nil); err != nil {
		return false, err
	}
	return true, nil
}

type credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// session is one authenticated unit of work.
type session struct {
	ctx    context.Context
	client *Client
	token  string
}

func (c *Client) session(ctx context.Context) (*session, error) {
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := c.creds.Token(tokenCtx)
	if err != nil {
		return nil, fmt.Errorf("obtain admin token: %w", err)
	}
	return &session{ctx: ctx, client: c, token: tok.AccessToken}, nil
}

func (s *session) realmRoles() ([]Role, error) {
	var roles []Role
	if _, err := s.do(http.MethodGet, "/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *session) composites(role string) ([]Role, error) {
	var roles []Role
	if _, err := s.do(http.MethodGet, "/roles/"+url.PathEscape(role)+"/composites", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *session) simpleRoles() ([]Role, error) {
	all, err := s.realmRoles()
	if err != nil {
		return nil, err
	}
	var out []Role
	for _, r := range all {
		if domain.IsDefaultRole(r.Name) {
			continue
		}
		children, err := s.composites(r.Name)
		if err != nil {
			continue
		}
		if len(children) == 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

// do sends a JSON request relative to the admin root and decodes a JSON answer
// into out when out is not nil.
func (s *session) do(method, endpoint string, body, out any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(raw)
	}

	target := s.client.adminURL + endpoint
	req, err := http.NewRequestWithContext(s.ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{Method: method, URL: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", method, endpoint, err)
		}
	}
	return resp, nil
}
