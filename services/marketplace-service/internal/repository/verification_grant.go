package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
)

// VerificationGrantRepository stores the single-use grants behind email verification tokens.
type VerificationGrantRepository interface {
	CreateGrant(ctx context.Context, grant *model.VerificationGrant) error

	// ConsumeGrant deletes the grant of a token and reports whether it was still present.
	ConsumeGrant(ctx context.Context, tokenID, email string, purpose model.OTPPurpose) (bool, error)
}

const verificationGrantCollection = "verification_grants"

type verificationGrantMongoRepository struct {
	db *mongo.Database
}

func NewVerificationGrantMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) VerificationGrantRepository {
	collection := db.Collection(verificationGrantCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create verification grant indexes")
	}

	return &verificationGrantMongoRepository{db: db}
}

func (r *verificationGrantMongoRepository) CreateGrant(ctx context.Context, grant *model.VerificationGrant) error {
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now()
	}

	_, err := r.db.Collection(verificationGrantCollection).InsertOne(ctx, grant)
	return err
}

func (r *verificationGrantMongoRepository) ConsumeGrant(
	ctx context.Context,
	tokenID string,
	email string,
	purpose model.OTPPurpose,
) (bool, error) {
	// The TTL monitor runs about once a minute, so expiry is checked here as well.
	filter := bson.M{
		"token_id":   tokenID,
		"email":      email,
		"purpose":    purpose,
		"expires_at": bson.M{"$gt": time.Now()},
	}

	result, err := r.db.Collection(verificationGrantCollection).DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}

	return result.DeletedCount == 1, nil
}
