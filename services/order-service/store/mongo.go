package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type kvDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoCollection is the subset of a collection MongoStore uses.
type MongoCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (ChangeStream, error)
}

// ChangeStream is satisfied by *mongo.ChangeStream.
type ChangeStream interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
	Close(ctx context.Context) error
}

type driverCollection struct {
	*mongo.Collection
}

func (c driverCollection) Watch(ctx context.Context, pipeline interface{}, opts ...*options.ChangeStreamOptions) (ChangeStream, error) {
	cs, err := c.Collection.Watch(ctx, pipeline, opts...)
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// MongoStore keeps one document per key. Watch uses a change stream, so the
// server must run as a replica set.
type MongoStore struct {
	client *mongo.Client
	coll   MongoCollection
	logger *zap.Logger
}

// ConnectMongo connects and pings the server.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func NewMongoStore(client *mongo.Client, database, collection string, logger *zap.Logger) *MongoStore {
	if collection == "" {
		collection = "kv"
	}
	s := NewMongoStoreFromCollection(driverCollection{client.Database(database).Collection(collection)}, logger)
	s.client = client
	return s
}

// NewMongoStoreFromCollection wraps coll. Close is a no-op for stores built
// this way.
func NewMongoStoreFromCollection(coll MongoCollection, logger *zap.Logger) *MongoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoStore{coll: coll, logger: logger}
}

func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc kvDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

func (s *MongoStore) Set(ctx context.Context, key string, value []byte) error {
	doc := kvDocument{Key: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", key, err)
	}
	return nil
}

type kvChange struct {
	FullDocument *kvDocument `bson:"fullDocument"`
}

func (s *MongoStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: key}}}},
	}
	cs, err := s.coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("mongo watch %s: %w", key, err)
	}

	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		defer cs.Close(context.Background())

		for cs.Next(ctx) {
			var change kvChange
			if err := cs.Decode(&change); err != nil {
				s.logger.Warn("mongo change decode failed", zap.String("key", key), zap.Error(err))
				continue
			}
			if change.FullDocument != nil {
				offer(out, []byte(change.FullDocument.Value))
			}
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			s.logger.Warn("mongo change stream stopped", zap.String("key", key), zap.Error(err))
		}
	}()
	return out, nil
}

func (s *MongoStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	filter := bson.M{}
	if prefix != "" {
		filter["_id"] = bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("mongo keys %s: %w", prefix, err)
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	return keys, cur.Err()
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
