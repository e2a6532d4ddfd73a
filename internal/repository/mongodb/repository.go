package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/checksheet/internal/domain/models"
)

const evaluationsCollection = "evaluations"

// Repository stores completion evaluations.
type Repository interface {
	SaveEvaluation(ctx context.Context, record models.EvaluationRecord) error
	ListEvaluations(ctx context.Context, containerCode string, limit int64) ([]models.EvaluationRecord, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: evaluationsCollection,
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveEvaluation inserts one evaluation outcome.
func (r *MongoDBRepository) SaveEvaluation(ctx context.Context, record models.EvaluationRecord) error {
	if _, err := r.collection().InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert evaluation for %s: %w", record.ContainerCode, err)
	}
	return nil
}

// ListEvaluations returns the newest evaluations of a container first.
// A limit of zero returns all of them.
func (r *MongoDBRepository) ListEvaluations(ctx context.Context, containerCode string, limit int64) ([]models.EvaluationRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "evaluated_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection().Find(ctx, bson.M{"container_code": containerCode}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations for %s: %w", containerCode, err)
	}
	defer cursor.Close(ctx)

	var out []models.EvaluationRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode evaluations: %w", err)
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
