package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bizops-platform/inventory-service/internal/domain"
)

// OrderRepository persists reservation orders in the orders collection.
type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	repo := &OrderRepository{collection: db.Collection("orders")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *OrderRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "followUpId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) FindByFollowUp(ctx context.Context, followUpID string) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"followUpId": followUpID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// TransitionStatus moves an order between statuses with a conditional write;
// a false result means the order was not in the expected source status.
func (r *OrderRepository) TransitionStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, fulfilledAt *time.Time) (bool, error) {
	set := bson.M{
		"status":    to,
		"updatedAt": time.Now().UTC(),
	}
	if fulfilledAt != nil {
		set["fulfilledAt"] = fulfilledAt
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"orderId": orderID, "status": from},
		bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to transition order status: %w", err)
	}
	return result.MatchedCount == 1, nil
}

// ClaimLine marks one order line as fulfilled with a conditional positional
// update; a false result means the line was already claimed.
func (r *OrderRepository) ClaimLine(ctx context.Context, orderID, sku string) (bool, error) {
	filter := bson.M{
		"orderId": orderID,
		"lines":   bson.M{"$elemMatch": bson.M{"sku": sku, "fulfilled": false}},
	}
	update := bson.M{
		"$set": bson.M{
			"lines.$.fulfilled": true,
			"updatedAt":         time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to claim order line: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

// ReleaseClaim reverses ClaimLine for a line whose ledger deduction did not
// commit, so a later run re-attempts it; a false result means the line was
// not claimed.
func (r *OrderRepository) ReleaseClaim(ctx context.Context, orderID, sku string) (bool, error) {
	filter := bson.M{
		"orderId": orderID,
		"lines":   bson.M{"$elemMatch": bson.M{"sku": sku, "fulfilled": true}},
	}
	update := bson.M{
		"$set": bson.M{
			"lines.$.fulfilled": false,
			"updatedAt":         time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to release order line claim: %w", err)
	}
	return result.ModifiedCount == 1, nil
}
