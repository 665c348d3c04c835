package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

var _ repository.UserRepository = (*UserStore)(nil)

// userDoc is a document in the user collection.
type userDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Username    string             `bson:"username"`
	Password    string             `bson:"password"`
	Email       string             `bson:"email"`
	Description string             `bson:"desc"`
	ProfilePic  string             `bson:"profile_pic"`
	Helpful     []string           `bson:"helpful"`
	Cafes       []string           `bson:"cafes"`
}

func (d *userDoc) toModel() *model.User {
	u := &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.Password,
		Email:        d.Email,
		Description:  d.Description,
		ProfilePic:   d.ProfilePic,
		Helpful:      d.Helpful,
		Cafes:        d.Cafes,
	}
	if u.Helpful == nil {
		u.Helpful = []string{}
	}
	if u.Cafes == nil {
		u.Cafes = []string{}
	}
	return u
}

// UserStore is the MongoDB UserRepository.
type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	oid, ok := objectID(user.ID)
	if !ok {
		return fmt.Errorf("mongo: invalid user id %q", user.ID)
	}

	doc := userDoc{
		ID:          oid,
		Username:    user.Username,
		Password:    user.PasswordHash,
		Email:       user.Email,
		Description: user.Description,
		ProfilePic:  user.ProfilePic,
		Helpful:     nonNil(user.Helpful),
		Cafes:       nonNil(user.Cafes),
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("Username is already taken!")
		}
		return fmt.Errorf("mongo: inserting user %s: %w", user.Username, err)
	}

	user.ID = oid.Hex()
	return nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var doc userDoc
	err := s.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("mongo: getting user %s: %w", username, err)
	}
	return doc.toModel(), nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, username string, update repository.ProfileUpdate) error {
	set := bson.M{"desc": update.Description}
	if update.PasswordHash != "" {
		set["password"] = update.PasswordHash
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"username": username}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mongo: updating user %s: %w", username, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", username)
	}
	return nil
}

// AddVote uses $addToSet, which leaves the document unmodified when the
// review is already in the list.
func (s *UserStore) AddVote(ctx context.Context, username, reviewID string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$addToSet": bson.M{"helpful": reviewID}},
	)
	if err != nil {
		return false, fmt.Errorf("mongo: recording vote by %s: %w", username, err)
	}
	if res.MatchedCount == 0 {
		return false, apperror.NotFound("user", username)
	}
	return res.ModifiedCount == 1, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

func (s *UserStore) DeleteAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("mongo: deleting users: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
