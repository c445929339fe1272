package exportstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mujanati13/xcite/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection is the collection holding export records.
const MongoCollection = "property_exports"

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "xcite"

// MongoStore keeps export records as documents of one collection. The handle
// is the hex form of the document's ObjectID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	models.ExportRecord `bson:",inline"`
}

// OpenMongo connects to uri and pings the server.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoStore(client, client.Database(database).Collection(MongoCollection)), nil
}

func NewMongoStore(client *mongo.Client, coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, coll: coll}
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) CreateExportRecord(ctx context.Context, rec models.ExportRecord) (string, error) {
	res, err := s.coll.InsertOne(ctx, mongoRecord{ExportRecord: rec})
	if err != nil {
		return "", fmt.Errorf("insert export record: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *MongoStore) ScanExportRecords(ctx context.Context) ([]models.ExportRecord, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find export records: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.ExportRecord
	for cur.Next(ctx) {
		var doc mongoRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode export record: %w", err)
		}
		rec := doc.ExportRecord
		rec.Handle = doc.ID.Hex()
		out = append(out, rec)
	}
	return out, cur.Err()
}

func (s *MongoStore) GetExportRecord(ctx context.Context, handle string) (models.ExportRecord, error) {
	oid, err := primitive.ObjectIDFromHex(handle)
	if err != nil {
		return models.ExportRecord{}, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	var doc mongoRecord
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ExportRecord{}, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if err != nil {
		return models.ExportRecord{}, fmt.Errorf("get export record: %w", err)
	}
	rec := doc.ExportRecord
	rec.Handle = handle
	return rec, nil
}

func (s *MongoStore) UpdateExportRecord(ctx context.Context, handle string, rec models.ExportRecord) error {
	oid, err := primitive.ObjectIDFromHex(handle)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": oid}, mongoRecord{ExportRecord: rec})
	if err != nil {
		return fmt.Errorf("update export record: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return nil
}
