package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/config"
)

// fakeKeycloak keeps just enough realm state to exercise the admin contract.
type fakeKeycloak struct {
	mu          sync.Mutex
	tokens      int
	users       map[string]map[string]any
	passwords   map[string]string
	userRoles   map[string][]Role
	roles       []Role
	composites  map[string][]Role
	failCreate  bool
	nextID      string
	seenSecrets []string
}

func newFakeKeycloak() *fakeKeycloak {
	return &fakeKeycloak{
		users:      map[string]map[string]any{},
		passwords:  map[string]string{},
		userRoles:  map[string][]Role{},
		composites: map[string][]Role{},
		nextID:     "kc-1",
		roles: []Role{
			{ID: "r0", Name: "default-roles-subastas", Composite: true},
			{ID: "r1", Name: "Administrador", Composite: true},
			{ID: "r2", Name: "Subastador", Composite: true},
			{ID: "r3", Name: "Postor"},
			{ID: "p1", Name: "realizar pujas"},
			{ID: "p2", Name: "explorar subastas"},
			{ID: "p3", Name: "gestionar usuarios"},
		},
	}
}

func (f *fakeKeycloak) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	base := "/admin/realms/subastas"

	mux.HandleFunc("POST /realms/subastas/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.tokens++
		f.seenSecrets = append(f.seenSecrets, r.PostForm.Get("client_secret"))
		f.mu.Unlock()
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"admin-token","token_type":"bearer","expires_in":60}`))
	})

	mux.HandleFunc("POST "+base+"/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
		if f.failCreate {
			http.Error(w, `{"errorMessage":"User exists with same username"}`, http.StatusConflict)
			return
		}
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.users[f.nextID] = body
		f.mu.Unlock()
		w.Header().Set("Location", "http://"+r.Host+base+"/users/"+f.nextID)
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("PUT "+base+"/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.users[r.PathValue("id")]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.users[r.PathValue("id")] = body
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("PUT "+base+"/users/{id}/reset-password", func(w http.ResponseWriter, r *http.Request) {
		var cred credential
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&cred))
		assert.Equal(t, "password", cred.Type)
		assert.False(t, cred.Temporary)
		f.mu.Lock()
		f.passwords[r.PathValue("id")] = cred.Value
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc(base+"/users/{id}/role-mappings/realm", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(f.userRoles[id])
		case http.MethodDelete:
			var drop []Role
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&drop))
			f.userRoles[id] = without(f.userRoles[id], drop)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			var add []Role
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&add))
			f.userRoles[id] = append(f.userRoles[id], add...)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	mux.HandleFunc("GET "+base+"/roles", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.roles)
	})

	mux.HandleFunc(base+"/roles/{role}/composites", func(w http.ResponseWriter, r *http.Request) {
		role := r.PathValue("role")
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, known := findRole(f.roles, role); !known {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Could not find role"}`))
			return
		}
		switch r.Method {
		case http.MethodGet:
			children := f.composites[role]
			if children == nil {
				children = []Role{}
			}
			_ = json.NewEncoder(w).Encode(children)
		case http.MethodDelete:
			var drop []Role
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&drop))
			f.composites[role] = without(f.composites[role], drop)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			var add []Role
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&add))
			f.composites[role] = append(f.composites[role], add...)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	return mux
}

func without(list, drop []Role) []Role {
	var out []Role
	for _, r := range list {
		if _, found := findRole(drop, r.Name); !found {
			out = append(out, r)
		}
	}
	return out
}

func names(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Name)
	}
	return out
}

func newTestClient(t *testing.T, kc *fakeKeycloak) *Client {
	t.Helper()
	srv := httptest.NewServer(kc.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(config.KeycloakConfig{
		BaseURL:      srv.URL,
		Realm:        "subastas",
		ClientID:     "user-service",
		ClientSecret: "secret",
		TimeoutSec:   5,
	}, zap.NewNop())
}

func TestCreateUserReturnsLocationID(t *testing.T) {
	kc := newFakeKeycloak()
	kc.nextID = "6f1c2d"
	client := newTestClient(t, kc)

	id, err := client.CreateUser(context.Background(), Account{Email: "ana@x.com", Name: "Ana", LastName: "Diaz", Password: "Secr3t!"})
	require.NoError(t, err)
	assert.Equal(t, "6f1c2d", id)

	stored := kc.users["6f1c2d"]
	assert.Equal(t, "ana@x.com", stored["username"])
	assert.Equal(t, "ana@x.com", stored["email"])
	assert.Equal(t, true, stored["enabled"])
	assert.Equal(t, []string{"secret"}, kc.seenSecrets)
}

func TestCreateUserNon2xxFails(t *testing.T) {
	kc := newFakeKeycloak()
	kc.failCreate = true
	client := newTestClient(t, kc)

	_, err := client.CreateUser(context.Background(), Account{Email: "ana@x.com"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusConflict, statusErr.StatusCode)
}

func TestEveryOperationFetchesFreshToken(t *testing.T) {
	kc := newFakeKeycloak()
	kc.users["kc-1"] = map[string]any{}
	client := newTestClient(t, kc)
	ctx := context.Background()

	require.NoError(t, client.UpdateUser(ctx, "kc-1", Account{Email: "a@x.com", Name: "A"}))
	require.NoError(t, client.SetPassword(ctx, "kc-1", "n3w"))
	_, err := client.SimpleRoles(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, kc.tokens)
	assert.Equal(t, "n3w", kc.passwords["kc-1"])
}

func TestUpdateUnknownUserFails(t *testing.T) {
	client := newTestClient(t, newFakeKeycloak())
	err := client.UpdateUser(context.Background(), "ghost", Account{Email: "a@x.com"})
	assert.Error(t, err)
}

func TestAssignRoleLeavesExactlyOneNonDefaultRole(t *testing.T) {
	kc := newFakeKeycloak()
	kc.userRoles["kc-1"] = []Role{
		{ID: "r0", Name: "default-roles-subastas"},
		{ID: "r1", Name: "Administrador"},
		{ID: "r2", Name: "Subastador"},
	}
	client := newTestClient(t, kc)

	require.NoError(t, client.AssignRole(context.Background(), "kc-1", "Postor"))
	assert.ElementsMatch(t, []string{"default-roles-subastas", "Postor"}, names(kc.userRoles["kc-1"]))

	require.NoError(t, client.AssignRole(context.Background(), "kc-1", "Postor"))
	assert.ElementsMatch(t, []string{"default-roles-subastas", "Postor"}, names(kc.userRoles["kc-1"]))
}

func TestAssignUnknownRole(t *testing.T) {
	kc := newFakeKeycloak()
	kc.userRoles["kc-1"] = []Role{{Name: "Postor"}}
	client := newTestClient(t, kc)

	err := client.AssignRole(context.Background(), "kc-1", "Emperador")
	assert.ErrorIs(t, err, ErrRoleNotFound)
	assert.Equal(t, []string{"Postor"}, names(kc.userRoles["kc-1"]))
}

func TestReplaceRolePermissionsIsFullReplace(t *testing.T) {
	kc := newFakeKeycloak()
	kc.composites["Subastador"] = []Role{{ID: "p2", Name: "explorar subastas"}, {ID: "p3", Name: "gestionar usuarios"}}
	client := newTestClient(t, kc)

	err := client.ReplaceRolePermissions(context.Background(), "Subastador", []string{"realizar pujas", "explorar subastas", "no existe"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"realizar pujas", "explorar subastas"}, names(kc.composites["Subastador"]))
}

func TestCompositeRolesSkipsDefaultAndEmpty(t *testing.T) {
	kc := newFakeKeycloak()
	kc.composites["default-roles-subastas"] = []Role{{Name: "offline_access"}}
	kc.composites["Administrador"] = []Role{{Name: "gestionar usuarios"}}
	client := newTestClient(t, kc)

	roles, err := client.CompositeRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Administrador", roles[0].Name)
	assert.Equal(t, []string{"gestionar usuarios"}, roles[0].Permissions)
}

func TestAddAndRemovePermission(t *testing.T) {
	kc := newFakeKeycloak()
	kc.composites["Administrador"] = []Role{{ID: "p3", Name: "gestionar usuarios"}}
	client := newTestClient(t, kc)
	ctx := context.Background()

	ok, err := client.AddPermission(ctx, "Administrador", "realizar pujas")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{"gestionar usuarios", "realizar pujas"}, names(kc.composites["Administrador"]))

	ok, err = client.RemovePermission(ctx, "Administrador", "realizar pujas")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"gestionar usuarios"}, names(kc.composites["Administrador"]))

	ok, err = client.AddPermission(ctx, "Administrador", "volar")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplacePermissionsOfUnknownRoleIsNotFound(t *testing.T) {
	kc := newFakeKeycloak()
	c := newTestClient(t, kc)

	err := c.ReplaceRolePermissions(context.Background(), "Fantasma", []string{"realizar pujas"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}
