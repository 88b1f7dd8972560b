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

// StockItemRepository persists the stock ledger in the stock_items collection.
type StockItemRepository struct {
	collection *mongo.Collection
}

func NewStockItemRepository(db *mongo.Database) *StockItemRepository {
	repo := &StockItemRepository{collection: db.Collection("stock_items")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *StockItemRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *StockItemRepository) Insert(ctx context.Context, item *domain.StockItem) error {
	_, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateSKU
		}
		return fmt.Errorf("failed to insert stock item: %w", err)
	}
	return nil
}

func (r *StockItemRepository) FindBySKU(ctx context.Context, sku string) (*domain.StockItem, error) {
	var item domain.StockItem
	err := r.collection.FindOne(ctx, bson.M{"sku": sku}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find stock item: %w", err)
	}
	return &item, nil
}

func (r *StockItemRepository) FindAll(ctx context.Context, limit, offset int) ([]*domain.StockItem, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "sku", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*domain.StockItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode stock items: %w", err)
	}
	return items, nil
}

// Update writes all four counters conditionally on the version the caller
// read, incrementing it. A concurrent writer that got there first leaves no
// matching document and the caller receives ErrVersionConflict.
func (r *StockItemRepository) Update(ctx context.Context, item *domain.StockItem) error {
	item.UpdatedAt = time.Now().UTC()

	filter := bson.M{"sku": item.SKU, "version": item.Version}
	update := bson.M{
		"$set": bson.M{
			"quantity":         item.Quantity,
			"bufferStock":      item.BufferStock,
			"reservedQuantity": item.ReservedQuantity,
			"reservedBuffer":   item.ReservedBuffer,
			"productName":      item.ProductName,
			"unitPrice":        item.UnitPrice,
			"updatedAt":        item.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update stock item: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrVersionConflict
	}

	item.Version++
	return nil
}
