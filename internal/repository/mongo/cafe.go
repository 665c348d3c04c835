package mongo

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

var _ repository.CafeRepository = (*CafeStore)(nil)

// cafeDoc is a document in the shop collection.
type cafeDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	CafeID      int                `bson:"cafe_id"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Rating      float64            `bson:"rating"`
	Items       []string           `bson:"items"`
	Owner       string             `bson:"owner"`
	Address     string             `bson:"address"`
	PriceRange  string             `bson:"price_range"`
	ImageName   string             `bson:"image_name"`
}

func (d *cafeDoc) toModel() model.Cafe {
	return model.Cafe{
		ID:          d.ID.Hex(),
		CafeID:      d.CafeID,
		Name:        d.Name,
		Description: d.Description,
		Rating:      d.Rating,
		Items:       nonNil(d.Items),
		Owner:       d.Owner,
		Address:     d.Address,
		PriceRange:  d.PriceRange,
		ImageName:   d.ImageName,
	}
}

// CafeStore is the MongoDB CafeRepository.
type CafeStore struct {
	coll *mongo.Collection
}

func (s *CafeStore) Create(ctx context.Context, cafe *model.Cafe) error {
	oid, ok := objectID(cafe.ID)
	if !ok {
		return fmt.Errorf("mongo: invalid cafe id %q", cafe.ID)
	}

	doc := cafeDoc{
		ID:          oid,
		CafeID:      cafe.CafeID,
		Name:        cafe.Name,
		Description: cafe.Description,
		Rating:      cafe.Rating,
		Items:       nonNil(cafe.Items),
		Owner:       cafe.Owner,
		Address:     cafe.Address,
		PriceRange:  cafe.PriceRange,
		ImageName:   cafe.ImageName,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict(fmt.Sprintf("cafe %d already exists", cafe.CafeID))
		}
		return fmt.Errorf("mongo: inserting cafe %q: %w", cafe.Name, err)
	}

	cafe.ID = oid.Hex()
	return nil
}

func (s *CafeStore) GetByCafeID(ctx context.Context, cafeID int) (*model.Cafe, error) {
	return s.findOne(ctx, bson.M{"cafe_id": cafeID}, strconv.Itoa(cafeID))
}

func (s *CafeStore) GetByName(ctx context.Context, name string) (*model.Cafe, error) {
	return s.findOne(ctx, bson.M{"name": name}, name)
}

func (s *CafeStore) findOne(ctx context.Context, filter bson.M, key string) (*model.Cafe, error) {
	var doc cafeDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, apperror.NotFound("cafe", key)
		}
		return nil, fmt.Errorf("mongo: getting cafe %s: %w", key, err)
	}
	c := doc.toModel()
	return &c, nil
}

// List returns every café ordered by cafe_id.
func (s *CafeStore) List(ctx context.Context) ([]model.Cafe, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "cafe_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: listing cafes: %w", err)
	}

	var docs []cafeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding cafes: %w", err)
	}

	cafes := make([]model.Cafe, 0, len(docs))
	for i := range docs {
		cafes = append(cafes, docs[i].toModel())
	}
	return cafes, nil
}

func (s *CafeStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

func (s *CafeStore) DeleteAll(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("mongo: deleting cafes: %w", err)
	}
	return nil
}
