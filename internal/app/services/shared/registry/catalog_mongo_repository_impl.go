package registry

import (
	"context"
	"screening-service/internal/app/contracts"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type artifactDocument struct {
	ArtifactID string `bson:"artifactId"`
	Kind       string `bson:"kind"`
	Content    string `bson:"content"`
}

type ArtifactMongoRepository struct {
	Collection *mongo.Collection
}

func NewArtifactMongoRepository(db *mongo.Client, dbName string) contracts.ArtifactCatalog {
	return &ArtifactMongoRepository{
		Collection: db.Database(dbName).Collection(constvars.MongoCollectionArtifacts),
	}
}

// FindArtifact returns (nil, nil) when the catalog has no matching document
// so the registry can decide whether the miss is recoverable.
func (repo *ArtifactMongoRepository) FindArtifact(ctx context.Context, kind, artifactID string) (json.RawMessage, error) {
	var doc artifactDocument
	err := repo.Collection.FindOne(ctx, bson.M{"artifactId": artifactID, "kind": kind}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, exceptions.ErrMongoDBFindDocument(err)
	}
	return json.RawMessage(doc.Content), nil
}
