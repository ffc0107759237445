package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
)

// SessionRepository defines the interface for session-related database operations.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) (int64, error)
}

const sessionCollection = "sessions"

type sessionMongoRepository struct {
	db *mongo.Database
}

func NewSessionMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) SessionRepository {
	collection := db.Collection(sessionCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session indexes")
	}

	return &sessionMongoRepository{db: db}
}

func (r *sessionMongoRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	session.CreatedAt = time.Now()

	result, err := r.db.Collection(sessionCollection).InsertOne(ctx, session)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		session.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return session, nil
}

func (r *sessionMongoRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var session model.Session
	if err := r.db.Collection(sessionCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *sessionMongoRepository) DeleteSession(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	_, err = r.db.Collection(sessionCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	return err
}

func (r *sessionMongoRepository) DeleteUserSessions(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.Collection(sessionCollection).DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}
