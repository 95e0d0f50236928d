package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"restaurant-api/apperr"
	"restaurant-api/logger"
	"restaurant-api/models"
)

type restaurantDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Cuisine   string             `bson:"cuisine"`
	Address   string             `bson:"address"`
	City      string             `bson:"city"`
	Rating    float64            `bson:"rating"`
	Menu      []menuItemDoc      `bson:"menu"`
	Reviews   []reviewDoc        `bson:"reviews"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type menuItemDoc struct {
	Name        string  `bson:"name"`
	Price       float64 `bson:"price"`
	Description string  `bson:"description"`
	IsVeg       bool    `bson:"isVeg"`
}

type reviewDoc struct {
	User      string    `bson:"user"`
	Text      string    `bson:"text"`
	Rating    float64   `bson:"rating"`
	CreatedAt time.Time `bson:"createdAt"`
}

func toMenuDocs(items []models.MenuItem) []menuItemDoc {
	docs := make([]menuItemDoc, 0, len(items))
	for _, it := range items {
		docs = append(docs, menuItemDoc{Name: it.Name, Price: it.Price, Description: it.Description, IsVeg: it.IsVeg})
	}
	return docs
}

func toReviewDocs(reviews []models.Review) []reviewDoc {
	docs := make([]reviewDoc, 0, len(reviews))
	for _, rv := range reviews {
		docs = append(docs, toReviewDoc(rv))
	}
	return docs
}

func toReviewDoc(rv models.Review) reviewDoc {
	created := rv.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return reviewDoc{User: rv.UserID, Text: rv.Text, Rating: rv.Rating, CreatedAt: created}
}

func (d *restaurantDoc) model() *models.Restaurant {
	r := &models.Restaurant{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Cuisine:   d.Cuisine,
		Address:   d.Address,
		City:      d.City,
		Rating:    d.Rating,
		Menu:      make([]models.MenuItem, 0, len(d.Menu)),
		Reviews:   make([]models.Review, 0, len(d.Reviews)),
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for i, it := range d.Menu {
		r.Menu = append(r.Menu, models.MenuItem{
			Seq:          uint(i + 1),
			RestaurantID: r.ID,
			Name:         it.Name,
			Price:        it.Price,
			Description:  it.Description,
			IsVeg:        it.IsVeg,
		})
	}
	for i, rv := range d.Reviews {
		r.Reviews = append(r.Reviews, models.Review{
			Seq:          uint(i + 1),
			RestaurantID: r.ID,
			UserID:       rv.User,
			Text:         rv.Text,
			Rating:       rv.Rating,
			CreatedAt:    rv.CreatedAt,
		})
	}
	return r.Derive()
}

type mongoRestaurantStore struct {
	coll *mongo.Collection
	log  *logger.Logger
}

// NewMongoRestaurantStore stores one document per restaurant with the menu
// and reviews embedded. Appends use $push so concurrent writers never
// rewrite each other's arrays.
func NewMongoRestaurantStore(db *mongo.Database, baseLog *logger.Logger) RestaurantStore {
	return &mongoRestaurantStore{
		coll: db.Collection("restaurants"),
		log:  baseLog.With("store", "RestaurantStore", "backend", "mongo"),
	}
}

// EnsureMongoIndexes creates the lookup indexes used by the query
// operations and the unique email index of the user directory.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("restaurants").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "cuisine", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}}},
		{Keys: bson.D{{Key: "rating", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create restaurant indexes: %w", err)
	}
	_, err = db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func (s *mongoRestaurantStore) Create(ctx context.Context, r *models.Restaurant) (*models.Restaurant, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc := restaurantDoc{
		Name:      r.Name,
		Cuisine:   r.Cuisine,
		Address:   r.Address,
		City:      r.City,
		Rating:    r.Rating,
		Menu:      toMenuDocs(r.Menu),
		Reviews:   toReviewDocs(r.Reviews),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, translateMongo(err, "restaurant", "create")
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	s.log.Debug("restaurant created", "restaurant_id", doc.ID.Hex())
	return doc.model(), nil
}

func (s *mongoRestaurantStore) FindByName(ctx context.Context, name string) (*models.Restaurant, error) {
	return s.findOne(ctx, bson.M{"name": name})
}

func (s *mongoRestaurantStore) FindAll(ctx context.Context) ([]models.Restaurant, error) {
	return s.find(ctx, "retrieve", bson.M{})
}

func (s *mongoRestaurantStore) FindByID(ctx context.Context, id string) (*models.Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("restaurant not found")
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *mongoRestaurantStore) findOne(ctx context.Context, filter bson.M) (*models.Restaurant, error) {
	var doc restaurantDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongo(err, "restaurant", "retrieve")
	}
	return doc.model(), nil
}

func (s *mongoRestaurantStore) UpdateByID(ctx context.Context, id string, patch RestaurantPatch) (*models.Restaurant, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("restaurant not found")
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range patch.columns() {
		set[k] = v
	}
	if patch.Menu != nil {
		set["menu"] = toMenuDocs(*patch.Menu)
	}
	if patch.Reviews != nil {
		set["reviews"] = toReviewDocs(*patch.Reviews)
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	return s.findOneAndUpdate(ctx, bson.M{"_id": oid}, update, "update")
}

func (s *mongoRestaurantStore) findOneAndUpdate(ctx context.Context, filter, update bson.M, action string) (*models.Restaurant, error) {
	var doc restaurantDoc
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, afterUpdate()).Decode(&doc); err != nil {
		return nil, translateMongo(err, "restaurant", action)
	}
	return doc.model(), nil
}

func (s *mongoRestaurantStore) DeleteByID(ctx context.Context, id string) (*models.Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("restaurant not found")
	}
	var doc restaurantDoc
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongo(err, "restaurant", "delete")
	}
	s.log.Debug("restaurant deleted", "restaurant_id", id)
	return doc.model(), nil
}

func (s *mongoRestaurantStore) AppendMenuItem(ctx context.Context, id string, item models.MenuItem) (*models.Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("restaurant not found")
	}
	update := bson.M{
		"$push": bson.M{"menu": toMenuDocs([]models.MenuItem{item})[0]},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": oid}, update, "add a dish to")
}

func (s *mongoRestaurantStore) AppendReview(ctx context.Context, id string, review models.Review) (*models.Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("restaurant not found")
	}
	update := bson.M{
		"$push": bson.M{"reviews": toReviewDoc(review)},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return s.findOneAndUpdate(ctx, bson.M{"_id": oid}, update, "add a review to")
}

func (s *mongoRestaurantStore) RemoveMenuItems(ctx context.Context, id string, match func(models.MenuItem) bool) (*models.Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("restaurant not found")
	}
	for attempt := 1; attempt <= maxVersionRetries; attempt++ {
		var doc restaurantDoc
		if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
			return nil, translateMongo(err, "restaurant", "remove a dish from")
		}
		kept := make([]menuItemDoc, 0, len(doc.Menu))
		for _, it := range doc.Menu {
			if !match(models.MenuItem{Name: it.Name, Price: it.Price, Description: it.Description, IsVeg: it.IsVeg}) {
				kept = append(kept, it)
			}
		}
		filter := bson.M{"_id": oid, "version": doc.Version}
		update := bson.M{
			"$set": bson.M{"menu": kept, "updatedAt": time.Now().UTC()},
			"$inc": bson.M{"version": 1},
		}
		var updated restaurantDoc
		err := s.coll.FindOneAndUpdate(ctx, filter, update, afterUpdate()).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Debug("menu removal lost a version race, retrying", "restaurant_id", id, "attempt", attempt)
			if err := backoff(ctx, attempt); err != nil {
				return nil, translateMongo(err, "restaurant", "remove a dish from")
			}
			continue
		}
		if err != nil {
			return nil, translateMongo(err, "restaurant", "remove a dish from")
		}
		return updated.model(), nil
	}
	return nil, translateMongo(errVersionRace, "restaurant", "remove a dish from")
}

func (s *mongoRestaurantStore) FindByCuisine(ctx context.Context, cuisine string) ([]models.Restaurant, error) {
	return s.find(ctx, "filter", bson.M{"cuisine": cuisine})
}

func (s *mongoRestaurantStore) FindByCity(ctx context.Context, city string) ([]models.Restaurant, error) {
	return s.find(ctx, "search", bson.M{"city": city})
}

func (s *mongoRestaurantStore) FindByMinRating(ctx context.Context, min float64) ([]models.Restaurant, error) {
	return s.find(ctx, "filter", bson.M{"rating": bson.M{"$gte": min}})
}

func (s *mongoRestaurantStore) find(ctx context.Context, action string, filter bson.M) ([]models.Restaurant, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, translateMongo(err, "restaurants", action)
	}
	var docs []restaurantDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translateMongo(err, "restaurants", action)
	}
	out := make([]models.Restaurant, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].model())
	}
	return out, nil
}

func translateMongo(err error, entity, action string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound("%s not found", entity)
	case mongo.IsDuplicateKeyError(err):
		return apperr.Conflict("%s already exists", entity)
	case errors.Is(err, errVersionRace):
		return apperr.New(apperr.KindConflict, entity+" was modified concurrently, please retry", err)
	default:
		return apperr.Infra(err, fmt.Sprintf("failed to %s %s", action, entity))
	}
}
