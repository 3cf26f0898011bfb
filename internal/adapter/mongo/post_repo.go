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

const postsCollectionName = "posts"

type PostRepository struct {
	collection *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{collection: db.Collection(postsCollectionName)}
}

type postDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	UserID    string             `bson:"user_id"`
	Likes     int64              `bson:"likes"`
	Dislikes  int64              `bson:"dislikes"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *postDocument) toEntity() *domain.Post {
	return &domain.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		OwnerID:   d.UserID,
		Likes:     d.Likes,
		Dislikes:  d.Dislikes,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (string, error) {
	doc := postDocument{
		Title:     post.Title,
		Content:   post.Content,
		UserID:    post.OwnerID,
		Likes:     0,
		Dislikes:  0,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create post in mongo: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return id.Hex(), nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	var doc postDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post by id from mongo: %w", err)
	}
	return doc.toEntity(), nil
}

// Update writes the mutable text fields only. Counters change through
// IncrementCounter.
func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	objID, err := primitive.ObjectIDFromHex(post.ID)
	if err != nil {
		return domain.ErrNotFound
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{
			"title":      post.Title,
			"content":    post.Content,
			"updated_at": post.UpdatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update post in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete post from mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all posts ordered by _id, which follows insertion order.
func (r *PostRepository) List(ctx context.Context) ([]*domain.Post, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode post list from mongo: %w", err)
	}

	posts := make([]*domain.Post, len(docs))
	for i := range docs {
		posts[i] = docs[i].toEntity()
	}
	return posts, nil
}

// IncrementCounter applies $inc in a single FindOneAndUpdate, so concurrent
// increments are never lost.
func (r *PostRepository) IncrementCounter(ctx context.Context, id string, counter domain.Counter) (*domain.Post, error) {
	if !counter.Valid() {
		return nil, domain.ErrValidation
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc postDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$inc": bson.M{string(counter): 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to increment %s in mongo: %w", counter, err)
	}
	return doc.toEntity(), nil
}
