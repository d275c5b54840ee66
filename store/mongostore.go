package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stock-support-tracker/models"
)

const mongoWatchlistCollection = "watchlist"

// MongoStore backs the watchlist with a MongoDB collection keyed by
// symbol (the document _id).
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB at uri and uses the watchlist
// collection of dbName. The connection is verified with a ping before
// the store is returned.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second).
		SetConnectTimeout(30 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection(mongoWatchlistCollection),
	}, nil
}

func (m *MongoStore) ListAll(ctx context.Context) ([]models.TrackedStock, error) {
	cursor, err := m.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("listing watchlist: %w", err)
	}
	defer cursor.Close(ctx)

	var stocks []models.TrackedStock
	if err := cursor.All(ctx, &stocks); err != nil {
		return nil, fmt.Errorf("decoding watchlist: %w", err)
	}
	return stocks, nil
}

func (m *MongoStore) FindBySymbol(ctx context.Context, symbol string) (*models.TrackedStock, error) {
	var stock models.TrackedStock
	err := m.collection.FindOne(ctx, bson.M{"_id": symbol}).Decode(&stock)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", symbol, err)
	}
	return &stock, nil
}

func (m *MongoStore) Insert(ctx context.Context, stock *models.TrackedStock) error {
	if _, err := m.collection.InsertOne(ctx, stock); err != nil {
		return fmt.Errorf("inserting %s: %w", stock.Symbol, err)
	}
	return nil
}

func (m *MongoStore) Update(ctx context.Context, stock *models.TrackedStock) error {
	res, err := m.collection.ReplaceOne(ctx, bson.M{"_id": stock.Symbol}, stock)
	if err != nil {
		return fmt.Errorf("updating %s: %w", stock.Symbol, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("symbol %s not stored", stock.Symbol)
	}
	return nil
}

func (m *MongoStore) DeleteBySymbol(ctx context.Context, symbol string) (*models.TrackedStock, error) {
	var stock models.TrackedStock
	err := m.collection.FindOneAndDelete(ctx, bson.M{"_id": symbol}).Decode(&stock)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", symbol, err)
	}
	return &stock, nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
