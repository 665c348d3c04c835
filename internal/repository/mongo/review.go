package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

var _ repository.ReviewRepository = (*ReviewStore)(nil)

// reviewDoc is a document in the review collection.
type reviewDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Username      string             `bson:"username"`
	Cafe          string             `bson:"cafe"`
	CafeID        int                `bson:"cafe_id"`
	ImageSrc      string             `bson:"image_src"`
	Rating        int                `bson:"rating"`
	Comment       string             `bson:"comment"`
	Date          string             `bson:"date"`
	Helpful       int                `bson:"isHelpful"`
	Unhelpful     int                `bson:"isUnhelpful"`
	OwnerResponse string             `bson:"owner_response"`
	Edited        bool               `bson:"isEdited"`
}

func (d *reviewDoc) toModel() model.Review {
	return model.Review{
		ID:            d.ID.Hex(),
		Username:      d.Username,
		Cafe:          d.Cafe,
		CafeID:        d.CafeID,
		ImageSrc:      d.ImageSrc,
		Rating:        d.Rating,
		Comment:       d.Comment,
		Date:          d.Date,
		Helpful:       d.Helpful,
		Unhelpful:     d.Unhelpful,
		OwnerResponse: d.OwnerResponse,
		Edited:        d.Edited,
	}
}

// ReviewStore is the MongoDB ReviewRepository.
type ReviewStore struct {
	coll *mongo.Collection
}

func (s *ReviewStore) Create(ctx context.Context, review *model.Review) error {
	oid, ok := objectID(review.ID)
	if !ok {
		return fmt.Errorf("mongo: invalid review id %q", review.ID)
	}

	doc := reviewDoc{
		ID:            oid,
		Username:      review.Username,
		Cafe:          review.Cafe,
		CafeID:        review.CafeID,
		ImageSrc:      review.ImageSrc,
		Rating:        review.Rating,
		Comment:       review.Comment,
		Date:          review.Date,
		Helpful:       review.Helpful,
		Unhelpful:     review.Unhelpful,
		OwnerResponse: review.OwnerResponse,
		Edited:        review.Edited,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: inserting review: %w", err)
	}

	review.ID = oid.Hex()
	return nil
}

func (s *ReviewStore) GetByID(ctx context.Context, id string) (*model.Review, error) {
	oid, ok := objectID(id)
	if !ok || id == "" {
		return nil, apperror.NotFound("review", id)
	}

	var doc reviewDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("review", id)
		}
		return nil, fmt.Errorf("mongo: getting review %s: %w", id, err)
	}
	r := doc.toModel()
	return &r, nil
}

func (s *ReviewStore) ListByCafe(ctx context.Context, cafeName string) ([]model.Review, error) {
	return s.find(ctx, bson.M{"cafe": cafeName})
}

func (s *ReviewStore) ListByAuthor(ctx context.Context, username string) ([]model.Review, error) {
	return s.find(ctx, bson.M{"username": username})
}

// find returns matching reviews oldest first. ObjectIDs grow with creation
// time, so sorting on _id gives insertion order.
func (s *ReviewStore) find(ctx context.Context, filter bson.M) ([]model.Review, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing reviews: %w", err)
	}

	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding reviews: %w", err)
	}

	reviews := make([]model.Review, 0, len(docs))
	for i := range docs {
		reviews = append(reviews, docs[i].toModel())
	}
	return reviews, nil
}

func (s *ReviewStore) UpdateContent(ctx context.Context, id string, rating int, comment string) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{
		"rating":   rating,
		"comment":  comment,
		"isEdited": true,
	}})
}

func (s *ReviewStore) SetOwnerResponse(ctx context.Context, id, response string) error {
	return s.update(ctx, id, bson.M{"$set": bson.M{"owner_response": response}})
}

func (s *ReviewStore) IncrementVote(ctx context.Context, id string, helpful bool) error {
	field := "isUnhelpful"
	if helpful {
		field = "isHelpful"
	}
	return s.update(ctx, id, bson.M{"$inc": bson.M{field: 1}})
}

func (s *ReviewStore) Delete(ctx context.Context, id string) (*model.Review, error) {
	oid, ok := objectID(id)
	if !ok || id == "" {
		return nil, apperror.NotFound("review", id)
	}

	var doc reviewDoc
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("review", id)
		}
		return nil, fmt.Errorf("mongo: deleting review %s: %w", id, err)
	}
	r := doc.toModel()
	return &r, nil
}

func (s *ReviewStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

func (s *ReviewStore) DeleteAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("mongo: deleting reviews: %w", err)
	}
	return nil
}

func (s *ReviewStore) update(ctx context.Context, id string, update bson.M) error {
	oid, ok := objectID(id)
	if !ok || id == "" {
		return apperror.NotFound("review", id)
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("mongo: updating review %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("review", id)
	}
	return nil
}
