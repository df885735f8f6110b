package repository

import (
	"context"

	"poker24/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultRecentGames = 20

// GameRepo archives finished games
type GameRepo interface {
	Create(ctx context.Context, game *model.GameRecord) error
	GetByID(ctx context.Context, id string) (*model.GameRecord, error)
	ListRecent(ctx context.Context, limit int) ([]model.GameRecord, error)
}

type gameRepo struct {
	collection *mongo.Collection
}

func NewGameRepo(client *mongo.Client, dbName string) GameRepo {
	db := client.Database(dbName)
	return &gameRepo{
		collection: db.Collection("games"),
	}
}

func (r *gameRepo) Create(ctx context.Context, game *model.GameRecord) error {
	_, err := r.collection.InsertOne(ctx, game)
	return err
}

func (r *gameRepo) GetByID(ctx context.Context, id string) (*model.GameRecord, error) {
	var game model.GameRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&game)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Game not found
		}
		return nil, err
	}
	return &game, nil
}

// ListRecent returns the latest finished games, newest first
func (r *gameRepo) ListRecent(ctx context.Context, limit int) ([]model.GameRecord, error) {
	if limit <= 0 {
		limit = defaultRecentGames
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "endedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	games := []model.GameRecord{}
	if err := cursor.All(ctx, &games); err != nil {
		return nil, err
	}
	return games, nil
}
