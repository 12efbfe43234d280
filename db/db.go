package db

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"speaksea/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ExamRecordsCollection holds one document per finished examination.
const ExamRecordsCollection = "exam_records"

// extractDBName parses the database name from the URI, defaulting to "speaksea"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "speaksea"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return "speaksea"
}

// ConnectMongoDB establishes a connection to MongoDB using the provided URI
// and returns the database named in its path.
func ConnectMongoDB(ctx context.Context, uri string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	slog.Info("connected to MongoDB", "database", dbName)
	return client, client.Database(dbName), nil
}

// ExamRecordStore archives finished examinations. Records are never read
// back by the conversation pipeline.
type ExamRecordStore struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewExamRecordStore(database *mongo.Database) *ExamRecordStore {
	return &ExamRecordStore{
		collection: database.Collection(ExamRecordsCollection),
		timeout:    5 * time.Second,
	}
}

// Save inserts record and fills in its ID.
func (s *ExamRecordStore) Save(ctx context.Context, record *models.ExamRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("saving exam record: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		record.ID = id
		slog.Debug("exam record saved", "id", id.Hex())
	}
	return nil
}
