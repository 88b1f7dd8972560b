package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

// MovementRepository is the append-only movement log backed by the
// stock_movements collection. Records are inserted and queried, never updated.
type MovementRepository struct {
	collection *mongo.Collection
}

func NewMovementRepository(db *mongo.Database) *MovementRepository {
	repo := &MovementRepository{collection: db.Collection("stock_movements")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *MovementRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "movementId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sku", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "referenceId", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *MovementRepository) Insert(ctx context.Context, movement *domain.StockMovement) error {
	_, err := r.collection.InsertOne(ctx, movement)
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}
	return nil
}

func (r *MovementRepository) FindBySKU(ctx context.Context, sku string, limit, offset int) ([]*domain.StockMovement, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"sku": sku}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer cursor.Close(ctx)

	movements := make([]*domain.StockMovement, 0)
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, fmt.Errorf("failed to decode movements: %w", err)
	}
	return movements, nil
}
