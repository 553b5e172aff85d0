package readmodel

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/domain"
)

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	users       *mongo.Collection
	activities  *mongo.Collection
	roles       *mongo.Collection
	permissions *mongo.Collection
	logger      *zap.Logger
}

// NewMongoStore binds the collections of db.
func NewMongoStore(db *mongo.Database, logger *zap.Logger) *MongoStore {
	return &MongoStore{
		users:       db.Collection(CollectionUsers),
		activities:  db.Collection(CollectionActivities),
		roles:       db.Collection(CollectionRoles),
		permissions: db.Collection(CollectionPermissions),
		logger:      logger,
	}
}

// EnsureIndexes creates the query indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "correo", Value: 1}},
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := s.activities.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "usuarioId", Value: 1}, {Key: "fecha", Value: -1}},
	}); err != nil {
		return fmt.Errorf("activities index: %w", err)
	}
	return nil
}

// SeedCatalog upserts the static role and permission catalog.
func (s *MongoStore) SeedCatalog(ctx context.Context) error {
	for _, p := range domain.Permissions() {
		doc := PermissionDocument{ID: p.ID, Description: p.Description}
		if _, err := s.permissions.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, options.Replace().SetUpsert(true)); err != nil {
			return fmt.Errorf("seed permission %d: %w", p.ID, err)
		}
	}
	for _, r := range CatalogRoles() {
		if _, err := s.roles.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true)); err != nil {
			return fmt.Errorf("seed role %d: %w", r.ID, err)
		}
	}
	s.logger.Info("read store catalog seeded")
	return nil
}

func (s *MongoStore) InsertUser(ctx context.Context, doc UserDocument) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) UpdateUser(ctx context.Context, id string, patch UserPatch) error {
	set := patchFields(patch)
	if len(set) == 0 {
		return nil
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	// MatchedCount, not ModifiedCount: a replay that changes nothing is fine.
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, ErrDocumentNotFound)
	}
	return nil
}

func (s *MongoStore) InsertActivity(ctx context.Context, doc ActivityDocument) error {
	_, err := s.activities.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (*UserDocument, error) {
	return findOne[UserDocument](ctx, s.users, bson.M{"_id": id})
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*UserDocument, error) {
	return findOne[UserDocument](ctx, s.users, bson.M{"correo": email})
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]UserDocument, error) {
	return findAll[UserDocument](ctx, s.users, bson.M{}, options.Find().SetSort(bson.D{{Key: "apellido", Value: 1}, {Key: "nombre", Value: 1}}))
}

func (s *MongoStore) ListActivities(ctx context.Context, filter ActivityFilter) ([]ActivityDocument, error) {
	q := bson.M{}
	if filter.UserID != "" {
		q["usuarioId"] = filter.UserID
	}
	if filter.Action != "" {
		q["tipoAccion"] = filter.Action
	}
	if !filter.From.IsZero() || !filter.To.IsZero() {
		rng := bson.M{}
		if !filter.From.IsZero() {
			rng["$gte"] = filter.From
		}
		if !filter.To.IsZero() {
			rng["$lte"] = filter.To
		}
		q["fecha"] = rng
	}
	return findAll[ActivityDocument](ctx, s.activities, q, options.Find().SetSort(bson.D{{Key: "fecha", Value: -1}}))
}

func (s *MongoStore) FindRoleByID(ctx context.Context, id int) (*RoleDocument, error) {
	return findOne[RoleDocument](ctx, s.roles, bson.M{"_id": id})
}

func (s *MongoStore) ListRoles(ctx context.Context) ([]RoleDocument, error) {
	return findAll[RoleDocument](ctx, s.roles, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func patchFields(p UserPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["nombre"] = *p.Name
	}
	if p.LastName != nil {
		set["apellido"] = *p.LastName
	}
	if p.Email != nil {
		set["correo"] = *p.Email
	}
	if p.Phone != nil {
		set["telefono"] = *p.Phone
	}
	if p.Address != nil {
		set["direccion"] = *p.Address
	}
	if p.PasswordHash != nil {
		set["password"] = *p.PasswordHash
	}
	if p.RoleID != nil {
		set["rolId"] = *p.RoleID
	}
	if p.Verified != nil {
		set["verificado"] = *p.Verified
	}
	return set
}
