// internal/repositories/readview_store.go
// Durable persistence for the last-computed dashboard payload per
// (tournament_id, view_name), using
// upsert-by-key Mongo idiom. A cache eviction or process restart falls
// back here before forcing a full Store recomputation.

package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReadViewStore persists the last-computed JSON-shaped read view for a
// tournament so dashboards can serve something on a cold cache.
type ReadViewStore struct {
	collection *mongo.Collection
}

func NewReadViewStore(db *mongo.Database) *ReadViewStore {
	return &ReadViewStore{collection: db.Collection("read_views")}
}

type readViewDocument struct {
	TournamentID string      `bson:"tournament_id"`
	ViewName     string      `bson:"view_name"`
	Payload      interface{} `bson:"payload"`
	ComputedAt   time.Time   `bson:"computed_at"`
}

// Put upserts the last-computed payload for a (tournamentID, viewName) pair.
func (r *ReadViewStore) Put(ctx context.Context, tournamentID, viewName string, payload interface{}) error {
	filter := bson.M{"tournament_id": tournamentID, "view_name": viewName}
	update := bson.M{"$set": readViewDocument{
		TournamentID: tournamentID,
		ViewName:     viewName,
		Payload:      payload,
		ComputedAt:   time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Get loads the last-computed payload into dest, reporting (false, nil)
// when nothing has ever been computed for this view.
func (r *ReadViewStore) Get(ctx context.Context, tournamentID, viewName string, dest interface{}) (bool, error) {
	var doc struct {
		Payload bson.Raw `bson:"payload"`
	}
	err := r.collection.FindOne(ctx, bson.M{"tournament_id": tournamentID, "view_name": viewName}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := bson.Unmarshal(doc.Payload, dest); err != nil {
		return false, err
	}
	return true, nil
}
