package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

// DemandRepository persists shortfall records in the demands collection.
type DemandRepository struct {
	collection *mongo.Collection
}

func NewDemandRepository(db *mongo.Database) *DemandRepository {
	repo := &DemandRepository{collection: db.Collection("demands")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *DemandRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "demandId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "followUpId", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *DemandRepository) Insert(ctx context.Context, demand *domain.Demand) error {
	_, err := r.collection.InsertOne(ctx, demand)
	if err != nil {
		return fmt.Errorf("failed to insert demand: %w", err)
	}
	return nil
}

func (r *DemandRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Demand, error) {
	var demand domain.Demand
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&demand)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find demand: %w", err)
	}
	return &demand, nil
}

func (r *DemandRepository) FindOpen(ctx context.Context, limit, offset int) ([]*domain.Demand, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list demands: %w", err)
	}
	defer cursor.Close(ctx)

	demands := make([]*domain.Demand, 0)
	if err := cursor.All(ctx, &demands); err != nil {
		return nil, fmt.Errorf("failed to decode demands: %w", err)
	}
	return demands, nil
}

func (r *DemandRepository) DeleteByOrderID(ctx context.Context, orderID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return fmt.Errorf("failed to delete demand: %w", err)
	}
	return nil
}
