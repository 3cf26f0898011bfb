package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juniorjunco/blog-pro/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewsRepository stores one news edition in its own collection.
type NewsRepository struct {
	collection *mongo.Collection
}

func NewNewsRepository(db *mongo.Database, collectionName string) *NewsRepository {
	return &NewsRepository{collection: db.Collection(collectionName)}
}

type imageDocument struct {
	URL         string `bson:"url"`
	Key         string `bson:"key"`
	ContentType string `bson:"content_type"`
	Size        int64  `bson:"size"`
}

type newsDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Image       *imageDocument     `bson:"image,omitempty"`
	Date        time.Time          `bson:"date"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func toNewsDocument(n *domain.NewsItem) *newsDocument {
	doc := &newsDocument{
		Title:       n.Title,
		Description: n.Description,
		Date:        n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	if n.Image != nil {
		doc.Image = &imageDocument{
			URL:         n.Image.URL,
			Key:         n.Image.Key,
			ContentType: n.Image.ContentType,
			Size:        n.Image.Size,
		}
	}
	return doc
}

func (d *newsDocument) toEntity() *domain.NewsItem {
	item := &domain.NewsItem{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		CreatedAt:   d.Date,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Image != nil {
		item.Image = &domain.Image{
			URL:         d.Image.URL,
			Key:         d.Image.Key,
			ContentType: d.Image.ContentType,
			Size:        d.Image.Size,
		}
	}
	return item
}

func (r *NewsRepository) Create(ctx context.Context, item *domain.NewsItem) (string, error) {
	res, err := r.collection.InsertOne(ctx, toNewsDocument(item))
	if err != nil {
		return "", fmt.Errorf("failed to create news in mongo: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return id.Hex(), nil
}

func (r *NewsRepository) GetByID(ctx context.Context, id string) (*domain.NewsItem, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc newsDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get news by id from mongo: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *NewsRepository) Update(ctx context.Context, item *domain.NewsItem) error {
	objID, err := primitive.ObjectIDFromHex(item.ID)
	if err != nil {
		return domain.ErrNotFound
	}

	doc := toNewsDocument(item)
	update := bson.M{
		"$set": bson.M{
			"title":       doc.Title,
			"description": doc.Description,
			"updated_at":  doc.UpdatedAt,
		},
	}
	if doc.Image != nil {
		update["$set"].(bson.M)["image"] = doc.Image
	} else {
		update["$unset"] = bson.M{"image": ""}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to update news in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NewsRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete news from mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NewsRepository) List(ctx context.Context) ([]*domain.NewsItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list news from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []newsDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode news list from mongo: %w", err)
	}

	items := make([]*domain.NewsItem, len(docs))
	for i := range docs {
		items[i] = docs[i].toEntity()
	}
	return items, nil
}
