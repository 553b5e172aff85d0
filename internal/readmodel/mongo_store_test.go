package readmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPatchFieldsOnlySetsProvidedFields(t *testing.T) {
	role := 2
	verified := true
	set := patchFields(UserPatch{RoleID: &role, Verified: &verified})
	assert.Equal(t, bson.M{"rolId": 2, "verificado": true}, set)
	assert.Empty(t, patchFields(UserPatch{}))
}

func TestUserDocumentFieldNames(t *testing.T) {
	raw, err := bson.Marshal(UserDocument{ID: "u1", Email: "ana@x.com", RoleID: 3})
	assert.NoError(t, err)

	var m bson.M
	assert.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "u1", m["_id"])
	assert.Equal(t, "ana@x.com", m["correo"])
	assert.Equal(t, false, m["verificado"])
}

func TestActivityFilterBounds(t *testing.T) {
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	doc := ActivityDocument{UserID: "u1", Action: "x", OccurredAt: at}
	assert.True(t, ActivityFilter{From: at, To: at}.matches(doc))
	assert.False(t, ActivityFilter{To: at.Add(-time.Second)}.matches(doc))
	assert.False(t, ActivityFilter{UserID: "u2"}.matches(doc))
}
