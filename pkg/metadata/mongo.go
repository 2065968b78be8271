package metadata

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoDatabase is used when MongoOptions.Database is empty.
const DefaultMongoDatabase = "pangenomerge"

// MongoOptions configures NewMongo.
type MongoOptions struct {
	URI      string
	Database string
}

// Mongo stores nodes and edges as documents keyed by node id and edge key.
// Each batch runs inside a multi-document transaction, which requires a
// replica set or sharded deployment.
type Mongo struct {
	client *mongo.Client
	nodes  *mongo.Collection
	edges  *mongo.Collection
	runs   *mongo.Collection
}

var _ Store = (*Mongo)(nil)

// NewMongo connects to MongoDB and verifies the connection with a ping.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	name := opts.Database
	if name == "" {
		name = DefaultMongoDatabase
	}
	db := client.Database(name)
	return &Mongo{
		client: client,
		nodes:  db.Collection("nodes"),
		edges:  db.Collection("edges"),
		runs:   db.Collection("runs"),
	}, nil
}

func (m *Mongo) Commit(ctx context.Context, b *Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if err := deleteIDs(sc, m.nodes, b.RemovedNodes); err != nil {
			return nil, err
		}
		if err := deleteIDs(sc, m.edges, b.RemovedEdges); err != nil {
			return nil, err
		}

		nodeOps := make([]mongo.WriteModel, 0, len(b.Nodes))
		for _, n := range b.Nodes {
			nodeOps = append(nodeOps, replaceByID(n.ID, n))
		}
		if err := bulk(sc, m.nodes, nodeOps); err != nil {
			return nil, err
		}
		edgeOps := make([]mongo.WriteModel, 0, len(b.Edges))
		for _, e := range b.Edges {
			edgeOps = append(edgeOps, replaceByID(e.Key, e))
		}
		if err := bulk(sc, m.edges, edgeOps); err != nil {
			return nil, err
		}

		run := bson.D{{Key: "_id", Value: b.RunID}, {Key: "iteration", Value: b.Iteration}}
		_, err := m.runs.ReplaceOne(sc, bson.D{{Key: "_id", Value: b.RunID}}, run, options.Replace().SetUpsert(true))
		return nil, err
	})
	return err
}

func replaceByID(id string, doc any) mongo.WriteModel {
	return mongo.NewReplaceOneModel().
		SetFilter(bson.D{{Key: "_id", Value: id}}).
		SetReplacement(doc).
		SetUpsert(true)
}

func bulk(ctx context.Context, c *mongo.Collection, ops []mongo.WriteModel) error {
	if len(ops) == 0 {
		return nil
	}
	if _, err := c.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("bulk write %s: %w", c.Name(), err)
	}
	return nil
}

func deleteIDs(ctx context.Context, c *mongo.Collection, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	if _, err := c.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("delete from %s: %w", c.Name(), err)
	}
	return nil
}

// Node loads one node record; ok is false when absent.
func (m *Mongo) Node(ctx context.Context, id string) (NodeRecord, bool, error) {
	var rec NodeRecord
	err := m.nodes.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// Drop removes every collection the store writes.
func (m *Mongo) Drop(ctx context.Context) error {
	for _, c := range []*mongo.Collection{m.nodes, m.edges, m.runs} {
		if err := c.Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}
