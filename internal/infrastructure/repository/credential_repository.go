package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"supachat-woocommerce-layer/internal/domain"
	"supachat-woocommerce-layer/internal/infrastructure/repository/entity"
	"supachat-woocommerce-layer/internal/ports"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCredentialStore implements CredentialStore using MongoDB. Numeric key
// ids come from an auto-incrementing counter document so they behave like the
// sequential ids WooCommerce assigns to API keys.
type MongoCredentialStore struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoCredentialStore creates a new MongoDB credential store and ensures
// the unique index on key_id exists.
func NewMongoCredentialStore(db *mongo.Database, logger zerolog.Logger) ports.CredentialStore {
	store := &MongoCredentialStore{
		collection: db.Collection("api_keys"),
		counters:   db.Collection("counters"),
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "key_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := store.collection.Indexes().CreateOne(context.Background(), indexModel); err != nil {
		logger.Error().Err(err).Msg("failed to create key_id index on api_keys")
	}

	return store
}

// Create generates a ck_/cs_ key pair, stores the key hashed, and returns the
// credential with the plaintext pair populated exactly once.
func (r *MongoCredentialStore) Create(ctx context.Context, userID int64, description string, permissions domain.Permission) (*domain.Credential, error) {
	if !domain.ValidPermission(permissions) {
		return nil, domain.NewValidationError("permissions", "must be read, write or read_write")
	}

	consumerKey, err := randomToken("ck_")
	if err != nil {
		return nil, fmt.Errorf("failed to generate consumer key: %w", err)
	}
	consumerSecret, err := randomToken("cs_")
	if err != nil {
		return nil, fmt.Errorf("failed to generate consumer secret: %w", err)
	}

	keyID, err := r.nextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate key id: %w", err)
	}

	hash := sha256.Sum256([]byte(consumerKey))
	doc := &entity.MongoCredentialDoc{
		KeyID:           keyID,
		UserID:          userID,
		Description:     description,
		Permissions:     permissions,
		ConsumerKeyHash: hex.EncodeToString(hash[:]),
		ConsumerSecret:  consumerSecret,
		TruncatedKey:    consumerKey[len(consumerKey)-7:],
		CreatedAt:       time.Now(),
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	cred := doc.ToDomain()
	cred.ConsumerKey = consumerKey
	cred.ConsumerSecret = consumerSecret
	return cred, nil
}

// Get retrieves a credential by key id. Returns (nil, nil) when absent.
func (r *MongoCredentialStore) Get(ctx context.Context, id int64) (*domain.Credential, error) {
	var doc entity.MongoCredentialDoc
	err := r.collection.FindOne(ctx, bson.M{"key_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return doc.ToDomain(), nil
}

// Delete removes a credential by key id. Deleting a missing id is a no-op.
func (r *MongoCredentialStore) Delete(ctx context.Context, id int64) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"key_id": id}); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// ListByUser returns all credentials owned by the user.
func (r *MongoCredentialStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Credential, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// FindByDescription returns credentials whose description contains the given
// fragment.
func (r *MongoCredentialStore) FindByDescription(ctx context.Context, fragment string) ([]*domain.Credential, error) {
	filter := bson.M{"description": bson.M{"$regex": regexp.QuoteMeta(fragment)}}
	return r.find(ctx, filter)
}

func (r *MongoCredentialStore) find(ctx context.Context, filter bson.M) ([]*domain.Credential, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer cursor.Close(ctx)

	var creds []*domain.Credential
	for cursor.Next(ctx) {
		var doc entity.MongoCredentialDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode credential: %w", err)
		}
		creds = append(creds, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credentials: %w", err)
	}
	return creds, nil
}

// nextID atomically increments the api_keys counter and returns the new value.
func (r *MongoCredentialStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "api_keys"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

// randomToken returns prefix followed by 32 random hex characters, matching
// the WooCommerce consumer key format.
func randomToken(prefix string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(buf), nil
}
