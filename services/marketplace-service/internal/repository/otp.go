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

// OTPRepository defines the interface for one-time code operations.
type OTPRepository interface {
	// CreateOTP stores a new code.
	CreateOTP(ctx context.Context, otp *model.OTP) (*model.OTP, error)

	// GetLatestOTP returns the most recently issued code for an email and purpose.
	GetLatestOTP(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error)

	// DeleteOTP removes a single code and reports whether it was still present.
	DeleteOTP(ctx context.Context, id bson.ObjectID) (bool, error)

	// DeleteOTPs removes every outstanding code for an email and purpose.
	DeleteOTPs(ctx context.Context, email string, purpose model.OTPPurpose) (int64, error)
}

const otpCollection = "otps"

type otpMongoRepository struct {
	db *mongo.Database
}

// NewOTPMongoRepository creates a new MongoDB repository for one-time codes.
func NewOTPMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) OTPRepository {
	collection := db.Collection(otpCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "purpose", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create otp indexes")
	}

	return &otpMongoRepository{db: db}
}

func (r *otpMongoRepository) CreateOTP(ctx context.Context, otp *model.OTP) (*model.OTP, error) {
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}

	result, err := r.db.Collection(otpCollection).InsertOne(ctx, otp)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		otp.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return otp, nil
}

func (r *otpMongoRepository) GetLatestOTP(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
) (*model.OTP, error) {
	filter := bson.M{"email": email, "purpose": purpose}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	var otp model.OTP
	if err := r.db.Collection(otpCollection).FindOne(ctx, filter, opts).Decode(&otp); err != nil {
		return nil, err
	}

	return &otp, nil
}

func (r *otpMongoRepository) DeleteOTP(ctx context.Context, id bson.ObjectID) (bool, error) {
	result, err := r.db.Collection(otpCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}

	return result.DeletedCount == 1, nil
}

func (r *otpMongoRepository) DeleteOTPs(ctx context.Context, email string, purpose model.OTPPurpose) (int64, error) {
	result, err := r.db.Collection(otpCollection).DeleteMany(ctx, bson.M{"email": email, "purpose": purpose})
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}
