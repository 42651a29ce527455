package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/scrumban/core/internal/ports"
)

const (
	mongoSchemaCollection = "_collections"
	mongoCreatedAt        = "_createdAt"
	mongoUpdatedAt        = "_updatedAt"
)

// MongoStore maps each store collection onto a Mongo collection of the
// database named by the store's database id. Registered collections and their
// attribute lists live in the _collections meta collection.
type MongoStore struct {
	db  *mongo.Database
	now func() time.Time
}

type mongoCollection struct {
	Name       string   `bson:"_id"`
	Attributes []string `bson:"attributes"`
}

// NewMongoStore creates a store over the database databaseID.
func NewMongoStore(client *mongo.Client, databaseID string) *MongoStore {
	return &MongoStore{db: client.Database(databaseID), now: time.Now}
}

// EnsureSchema registers every collection of schema.
func (s *MongoStore) EnsureSchema(ctx context.Context, schema Schema) error {
	meta := s.db.Collection(mongoSchemaCollection)
	for _, name := range schema.Collections() {
		attrs := schema[name]
		if attrs == nil {
			attrs = []string{}
		}
		_, err := meta.ReplaceOne(ctx,
			bson.M{"_id": name},
			mongoCollection{Name: name, Attributes: attrs},
			options.Replace().SetUpsert(true))
		if err != nil {
			return unavailable(err)
		}
	}
	return nil
}

func (s *MongoStore) attributes(ctx context.Context, collection string) ([]string, error) {
	var meta mongoCollection
	err := s.db.Collection(mongoSchemaCollection).FindOne(ctx, bson.M{"_id": collection}).Decode(&meta)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, collectionNotFound(collection)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return meta.Attributes, nil
}

func (s *MongoStore) Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	attrs, err := s.attributes(ctx, collection)
	if err != nil {
		return nil, err
	}
	if err := checkAttributes(collection, attrs, fields); err != nil {
		return nil, err
	}
	if id == "" {
		id = NewID()
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	record := bson.M{"_id": id, mongoCreatedAt: now, mongoUpdatedAt: now}
	for k, v := range fields {
		record[k] = v
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, documentExists(collection, id)
		}
		return nil, unavailable(err)
	}
	return &ports.Document{ID: id, Collection: collection, Fields: copyFields(fields), CreatedAt: now, UpdatedAt: now}, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	if _, err := s.attributes(ctx, collection); err != nil {
		return nil, err
	}
	var record bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, documentNotFound(collection, id)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return decodeMongo(collection, record), nil
}

func (s *MongoStore) List(ctx context.Context, collection string, filters ...ports.Filter) ([]*ports.Document, error) {
	if _, err := s.attributes(ctx, collection); err != nil {
		return nil, err
	}
	query := bson.M{}
	for _, f := range filters {
		query[f.Field] = f.Value
	}

	cursor, err := s.db.Collection(collection).Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: mongoCreatedAt, Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, unavailable(err)
	}
	defer cursor.Close(ctx)

	var records []bson.M
	if err := cursor.All(ctx, &records); err != nil {
		return nil, unavailable(err)
	}
	out := make([]*ports.Document, 0, len(records))
	for _, record := range records {
		out = append(out, decodeMongo(collection, record))
	}
	return out, nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, patch map[string]interface{}) (*ports.Document, error) {
	attrs, err := s.attributes(ctx, collection)
	if err != nil {
		return nil, err
	}
	if err := checkAttributes(collection, attrs, patch); err != nil {
		return nil, err
	}

	set := bson.M{mongoUpdatedAt: s.now().UTC().Truncate(time.Millisecond)}
	for k, v := range patch {
		set[k] = v
	}

	var record bson.M
	err = s.db.Collection(collection).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, documentNotFound(collection, id)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return decodeMongo(collection, record), nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.attributes(ctx, collection); err != nil {
		return err
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return unavailable(err)
	}
	if res.DeletedCount == 0 {
		return documentNotFound(collection, id)
	}
	return nil
}

// Ping checks the Mongo deployment.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func decodeMongo(collection string, record bson.M) *ports.Document {
	doc := &ports.Document{Collection: collection, Fields: map[string]interface{}{}}
	for k, v := range record {
		switch k {
		case "_id":
			doc.ID, _ = v.(string)
		case mongoCreatedAt:
			doc.CreatedAt = mongoTime(v)
		case mongoUpdatedAt:
			doc.UpdatedAt = mongoTime(v)
		default:
			doc.Fields[k] = v
		}
	}
	return doc
}

func mongoTime(v interface{}) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	default:
		return time.Time{}
	}
}
