package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"restaurant-api/apperr"
	"restaurant-api/logger"
	"restaurant-api/models"
)

type userDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Email             string             `bson:"email"`
	Password          string             `bson:"password"`
	Username          string             `bson:"username"`
	Nickname          string             `bson:"nickname"`
	ProfilePictureURL string             `bson:"profilePictureURL"`
	PhoneNumber       string             `bson:"phoneNumber"`
	Address           string             `bson:"address"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

func (d *userDoc) model() *models.User {
	return &models.User{
		ID:                d.ID.Hex(),
		Email:             d.Email,
		PasswordHash:      d.Password,
		Username:          d.Username,
		Nickname:          d.Nickname,
		ProfilePictureURL: d.ProfilePictureURL,
		PhoneNumber:       d.PhoneNumber,
		Address:           d.Address,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type mongoUserStore struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewMongoUserStore(db *mongo.Database, baseLog *logger.Logger) UserStore {
	return &mongoUserStore{
		coll: db.Collection("users"),
		log:  baseLog.With("store", "UserStore", "backend", "mongo"),
	}
}

func (s *mongoUserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	doc := userDoc{
		Email:             u.Email,
		Password:          u.PasswordHash,
		Username:          u.Username,
		Nickname:          u.Nickname,
		ProfilePictureURL: u.ProfilePictureURL,
		PhoneNumber:       u.PhoneNumber,
		Address:           u.Address,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, translateMongo(err, "user", "create")
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.model(), nil
}

func (s *mongoUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *mongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *mongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongo(err, "user", "retrieve")
	}
	return doc.model(), nil
}

// FindByIDs skips ids that are not valid ObjectIDs; they cannot match.
func (s *mongoUserStore) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	results := []models.User{}
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return results, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, translateMongo(err, "users", "retrieve")
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translateMongo(err, "users", "retrieve")
	}
	for i := range docs {
		results = append(results, *docs[i].model())
	}
	return results, nil
}

func (s *mongoUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, translateMongo(err, "user", "check")
	}
	return n > 0, nil
}
