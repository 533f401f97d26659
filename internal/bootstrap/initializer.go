package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cluster-provisioner/pkg/log"
)

const namespaceExistsCode = 48

// Initializer seeds a freshly provisioned cluster with baseline structure so
// the tenant sees collections and indexes on first login.
type Initializer interface {
	Initialize(ctx context.Context, connectionString, databaseName string) error
}

type MongoInitializer struct {
	connectTimeout time.Duration
	logger         zerolog.Logger
}

func NewMongoInitializer(connectTimeout time.Duration) *MongoInitializer {
	if connectTimeout == 0 {
		connectTimeout = 30 * time.Second
	}
	return &MongoInitializer{
		connectTimeout: connectTimeout,
		logger:         log.Logger.With().Str("component", "database_initializer").Logger(),
	}
}

type collectionSpec struct {
	name    string
	indexes []mongo.IndexModel
}

func baselineCollections() []collectionSpec {
	return []collectionSpec{
		{
			name: "workspaces",
			indexes: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "slug", Value: 1}},
					Options: options.Index().SetUnique(true),
				},
			},
		},
		{
			name: "members",
			indexes: []mongo.IndexModel{
				{
					Keys: bson.D{{Key: "email", Value: 1}},
				},
			},
		},
		{
			name: "activity",
			indexes: []mongo.IndexModel{
				{
					Keys:    bson.D{{Key: "created_at", Value: 1}},
					Options: options.Index().SetExpireAfterSeconds(int32((90 * 24 * time.Hour).Seconds())),
				},
			},
		},
	}
}

// Initialize connects with the assembled connection string, creates the
// baseline collections and indexes, and writes a bootstrap marker document.
// The connection string is used in memory only and never logged.
func (init *MongoInitializer) Initialize(ctx context.Context, connectionString, databaseName string) error {
	ctx, cancel := context.WithTimeout(ctx, init.connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return fmt.Errorf("failed to connect to provisioned cluster: %w", err)
	}
	defer func() {
		if disconnectErr := client.Disconnect(context.Background()); disconnectErr != nil {
			init.logger.Warn().Err(disconnectErr).Msg("Failed to disconnect from provisioned cluster")
		}
	}()

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping provisioned cluster: %w", err)
	}

	db := client.Database(databaseName)
	for _, spec := range baselineCollections() {
		if err := init.createCollection(ctx, db, spec); err != nil {
			return err
		}
	}

	if err := init.writeMarker(ctx, db); err != nil {
		return err
	}

	init.logger.Info().
		Str("database_name", databaseName).
		Int("collections", len(baselineCollections())).
		Msg("Bootstrapped baseline collections")
	return nil
}

func (init *MongoInitializer) createCollection(ctx context.Context, db *mongo.Database, spec collectionSpec) error {
	err := db.CreateCollection(ctx, spec.name)
	if err != nil {
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != namespaceExistsCode {
			return fmt.Errorf("failed to create collection %s: %w", spec.name, err)
		}
		init.logger.Debug().Str("collection", spec.name).Msg("Collection already exists")
	}

	if len(spec.indexes) > 0 {
		if _, err := db.Collection(spec.name).Indexes().CreateMany(ctx, spec.indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", spec.name, err)
		}
	}
	return nil
}

func (init *MongoInitializer) writeMarker(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("meta").UpdateOne(ctx,
		bson.M{"_id": "bootstrap"},
		bson.M{"$set": bson.M{"provisioned_at": time.Now().UTC(), "schema_version": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to write bootstrap marker: %w", err)
	}
	return nil
}
