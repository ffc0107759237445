package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
)

// FreelancerRepository defines the interface for the denormalized search records.
type FreelancerRepository interface {
	// UpsertFreelancer replaces the record of freelancer.UserID, creating it if needed.
	UpsertFreelancer(ctx context.Context, freelancer *model.Freelancer) error
	DeleteFreelancer(ctx context.Context, userID bson.ObjectID) error

	// SearchFreelancers returns one page of visible records and the total number of matches.
	SearchFreelancers(ctx context.Context, params SearchParams) ([]*model.Freelancer, int64, error)

	// DistinctValues returns the distinct values of field across visible records.
	DistinctValues(ctx context.Context, field string) ([]string, error)
}

// SearchParams defines the optional filters of a freelancer search. Empty fields are ignored.
type SearchParams struct {
	Query    string
	Skills   []string
	Category string
	Location string
	Skip     int64
	Limit    int64
}

// Fields accepted by DistinctValues.
const (
	FieldSkills          = "skills"
	FieldLocation        = "location"
	FieldProjectCategory = "projects.category"
)

const (
	freelancerCollection = "freelancers"
	freelancerTextIndex  = "freelancer_text"
)

type freelancerMongoRepository struct {
	db *mongo.Database
}

func NewFreelancerMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) FreelancerRepository {
	collection := db.Collection(freelancerCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "title", Value: "text"},
				{Key: "bio", Value: "text"},
				{Key: "skills", Value: "text"},
			},
			Options: options.Index().SetName(freelancerTextIndex),
		},
		{
			Keys: bson.D{
				{Key: "is_published", Value: 1},
				{Key: "is_public", Value: 1},
				{Key: "published_at", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create freelancer indexes")
	}

	return &freelancerMongoRepository{db: db}
}

func (r *freelancerMongoRepository) UpsertFreelancer(ctx context.Context, freelancer *model.Freelancer) error {
	freelancer.UpdatedAt = time.Now()

	_, err := r.db.Collection(freelancerCollection).ReplaceOne(
		ctx,
		bson.M{"user_id": freelancer.UserID},
		freelancer,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *freelancerMongoRepository) DeleteFreelancer(ctx context.Context, userID bson.ObjectID) error {
	_, err := r.db.Collection(freelancerCollection).DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

func (r *freelancerMongoRepository) SearchFreelancers(
	ctx context.Context,
	params SearchParams,
) ([]*model.Freelancer, int64, error) {
	collection := r.db.Collection(freelancerCollection)
	filter := buildSearchFilter(params)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(params.Skip).
		SetLimit(params.Limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	freelancers := make([]*model.Freelancer, 0, params.Limit)
	if err := cursor.All(ctx, &freelancers); err != nil {
		return nil, 0, err
	}

	return freelancers, total, nil
}

func (r *freelancerMongoRepository) DistinctValues(ctx context.Context, field string) ([]string, error) {
	var values []string
	err := r.db.Collection(freelancerCollection).Distinct(ctx, field, visibleFilter()).Decode(&values)
	if err != nil {
		return nil, err
	}

	return values, nil
}

func visibleFilter() bson.M {
	return bson.M{"is_published": true, "is_public": true}
}

// buildSearchFilter translates params into a query over visible records only.
// Skills match case-insensitively and exactly; location matches as a case-insensitive substring.
func buildSearchFilter(params SearchParams) bson.M {
	filter := visibleFilter()

	if query := strings.TrimSpace(params.Query); query != "" {
		filter["$text"] = bson.M{"$search": query}
	}

	skills := make([]any, 0, len(params.Skills))
	for _, skill := range params.Skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		skills = append(skills, bson.Regex{Pattern: "^" + regexp.QuoteMeta(skill) + "$", Options: "i"})
	}
	if len(skills) > 0 {
		filter["skills"] = bson.M{"$in": skills}
	}

	if category := strings.TrimSpace(params.Category); category != "" {
		filter["projects.category"] = category
	}

	if location := strings.TrimSpace(params.Location); location != "" {
		filter["location"] = bson.M{"$regex": regexp.QuoteMeta(location), "$options": "i"}
	}

	return filter
}
