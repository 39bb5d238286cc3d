package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	sharedDomain "github.com/davicafu/eventshop/internal/shared/domain"
)

// OutboxRepoMongoDB implementa el registro de recuperación sobre MongoDB.
type OutboxRepoMongoDB struct {
	outboxColl *mongo.Collection
}

func NewOutboxRepoMongoDB(client *mongo.Client, dbName string) *OutboxRepoMongoDB {
	return &OutboxRepoMongoDB{outboxColl: client.Database(dbName).Collection("outbox")}
}

// mongoOutboxEvent mapea los documentos de la colección a un struct.
type mongoOutboxEvent struct {
	ID         uuid.UUID `bson:"_id"`
	Exchange   string    `bson:"exchange"`
	RoutingKey string    `bson:"routingKey"`
	Envelope   []byte    `bson:"envelope"`
	CreatedAt  time.Time `bson:"createdAt"`
	Processed  bool      `bson:"processed"`
}

func (r *OutboxRepoMongoDB) AppendOutbox(ctx context.Context, evt sharedDomain.OutboxEvent) error {
	doc := mongoOutboxEvent{
		ID:         evt.ID,
		Exchange:   evt.Exchange,
		RoutingKey: evt.RoutingKey,
		Envelope:   evt.Envelope,
		CreatedAt:  evt.CreatedAt,
		Processed:  false,
	}
	_, err := r.outboxColl.InsertOne(ctx, doc)
	return err
}

func (r *OutboxRepoMongoDB) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	filter := bson.M{"processed": false}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.outboxColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []sharedDomain.OutboxEvent
	for cursor.Next(ctx) {
		var mo mongoOutboxEvent
		if err := cursor.Decode(&mo); err != nil {
			return nil, err
		}
		events = append(events, sharedDomain.OutboxEvent{
			ID:         mo.ID,
			Exchange:   mo.Exchange,
			RoutingKey: mo.RoutingKey,
			Envelope:   mo.Envelope,
			CreatedAt:  mo.CreatedAt,
			Processed:  mo.Processed,
		})
	}
	return events, cursor.Err()
}

func (r *OutboxRepoMongoDB) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.outboxColl.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"processed": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

var _ sharedDomain.OutboxRepository = (*OutboxRepoMongoDB)(nil)
