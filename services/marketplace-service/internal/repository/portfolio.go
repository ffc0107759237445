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

// PortfolioRepository defines the interface for portfolio-related database operations.
// Every method is keyed by the owning user's ID.
type PortfolioRepository interface {
	GetPortfolioByUserID(ctx context.Context, userID bson.ObjectID) (*model.Portfolio, error)

	// UpsertPortfolio writes the profile fields of portfolio, creating the document on first save.
	// Projects are only overwritten when replaceProjects is set.
	UpsertPortfolio(ctx context.Context, portfolio *model.Portfolio, replaceProjects bool) (*model.Portfolio, error)

	// SetPublished flips the visibility flags. Publishing also makes every project public.
	SetPublished(ctx context.Context, userID bson.ObjectID, published bool, at time.Time) (*model.Portfolio, error)

	DeletePortfolio(ctx context.Context, userID bson.ObjectID) (bool, error)

	AddProject(ctx context.Context, userID bson.ObjectID, project *model.Project) (*model.Portfolio, error)
	UpdateProject(
		ctx context.Context,
		userID, projectID bson.ObjectID,
		params UpdateProjectParams,
	) (*model.Portfolio, error)
	DeleteProject(ctx context.Context, userID, projectID bson.ObjectID) (*model.Portfolio, error)
}

// UpdateProjectParams defines the optional parameters for updating an embedded project.
// Only the fields that are not nil will be updated.
type UpdateProjectParams struct {
	Title         *string
	Description   *string
	MediaURL      *string
	Technologies  *[]string
	Category      *model.ProjectCategory
	LiveURL       *string
	RepositoryURL *string
	IsPublic      *bool
}

const portfolioCollection = "portfolios"

type portfolioMongoRepository struct {
	db *mongo.Database
}

func NewPortfolioMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) PortfolioRepository {
	collection := db.Collection(portfolioCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create portfolio indexes")
	}

	return &portfolioMongoRepository{db: db}
}

func (r *portfolioMongoRepository) GetPortfolioByUserID(
	ctx context.Context,
	userID bson.ObjectID,
) (*model.Portfolio, error) {
	var portfolio model.Portfolio
	err := r.db.Collection(portfolioCollection).FindOne(ctx, bson.M{"user_id": userID}).Decode(&portfolio)
	if err != nil {
		return nil, err
	}

	return &portfolio, nil
}

func (r *portfolioMongoRepository) UpsertPortfolio(
	ctx context.Context,
	portfolio *model.Portfolio,
	replaceProjects bool,
) (*model.Portfolio, error) {
	now := time.Now()

	set := bson.M{
		"name":          portfolio.Name,
		"title":         portfolio.Title,
		"bio":           portfolio.Bio,
		"email":         portfolio.Email,
		"phone":         portfolio.Phone,
		"location":      portfolio.Location,
		"avatar":        portfolio.Avatar,
		"hourly_rate":   portfolio.HourlyRate,
		"experience":    portfolio.Experience,
		"skills":        portfolio.Skills,
		"social_links":  portfolio.SocialLinks,
		"last_saved_at": now,
		"updated_at":    now,
	}
	setOnInsert := bson.M{
		"created_at":   now,
		"is_published": false,
		"is_public":    false,
	}
	if replaceProjects {
		set["projects"] = portfolio.Projects
	} else {
		setOnInsert["projects"] = []model.Project{}
	}

	var saved model.Portfolio
	err := r.db.Collection(portfolioCollection).FindOneAndUpdate(
		ctx,
		bson.M{"user_id": portfolio.UserID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

func (r *portfolioMongoRepository) SetPublished(
	ctx context.Context,
	userID bson.ObjectID,
	published bool,
	at time.Time,
) (*model.Portfolio, error) {
	var update bson.M
	if published {
		update = bson.M{"$set": bson.M{
			"is_published":           true,
			"is_public":              true,
			"published_at":           at,
			"projects.$[].is_public": true,
			"updated_at":             at,
		}}
	} else {
		update = bson.M{
			"$set": bson.M{
				"is_published": false,
				"is_public":    false,
				"updated_at":   at,
			},
			"$unset": bson.M{"published_at": ""},
		}
	}

	return r.findOneAndUpdate(ctx, bson.M{"user_id": userID}, update)
}

func (r *portfolioMongoRepository) DeletePortfolio(ctx context.Context, userID bson.ObjectID) (bool, error) {
	result, err := r.db.Collection(portfolioCollection).DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, err
	}

	return result.DeletedCount == 1, nil
}

func (r *portfolioMongoRepository) AddProject(
	ctx context.Context,
	userID bson.ObjectID,
	project *model.Project,
) (*model.Portfolio, error) {
	now := time.Now()
	if project.ID.IsZero() {
		project.ID = bson.NewObjectID()
	}
	project.CreatedAt = now
	project.UpdatedAt = now

	update := bson.M{
		"$push": bson.M{"projects": project},
		"$set":  bson.M{"last_saved_at": now, "updated_at": now},
	}

	return r.findOneAndUpdate(ctx, bson.M{"user_id": userID}, update)
}

func (r *portfolioMongoRepository) UpdateProject(
	ctx context.Context,
	userID, projectID bson.ObjectID,
	params UpdateProjectParams,
) (*model.Portfolio, error) {
	now := time.Now()

	set := projectUpdateFields(params)
	set["projects.$.updated_at"] = now
	set["last_saved_at"] = now
	set["updated_at"] = now

	filter := bson.M{"user_id": userID, "projects._id": projectID}

	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

func (r *portfolioMongoRepository) DeleteProject(
	ctx context.Context,
	userID, projectID bson.ObjectID,
) (*model.Portfolio, error) {
	now := time.Now()

	filter := bson.M{"user_id": userID, "projects._id": projectID}
	update := bson.M{
		"$pull": bson.M{"projects": bson.M{"_id": projectID}},
		"$set":  bson.M{"last_saved_at": now, "updated_at": now},
	}

	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *portfolioMongoRepository) findOneAndUpdate(
	ctx context.Context,
	filter, update bson.M,
) (*model.Portfolio, error) {
	var portfolio model.Portfolio
	err := r.db.Collection(portfolioCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&portfolio)
	if err != nil {
		return nil, err
	}

	return &portfolio, nil
}

func projectUpdateFields(params UpdateProjectParams) bson.M {
	updateMap := bson.M{}
	if params.Title != nil {
		updateMap["projects.$.title"] = *params.Title
	}
	if params.Description != nil {
		updateMap["projects.$.description"] = *params.Description
	}
	if params.MediaURL != nil {
		updateMap["projects.$.media_url"] = *params.MediaURL
	}
	if params.Technologies != nil {
		updateMap["projects.$.technologies"] = *params.Technologies
	}
	if params.Category != nil {
		updateMap["projects.$.category"] = *params.Category
	}
	if params.LiveURL != nil {
		updateMap["projects.$.links.live"] = *params.LiveURL
	}
	if params.RepositoryURL != nil {
		updateMap["projects.$.links.repository"] = *params.RepositoryURL
	}
	if params.IsPublic != nil {
		updateMap["projects.$.is_public"] = *params.IsPublic
	}

	return updateMap
}
