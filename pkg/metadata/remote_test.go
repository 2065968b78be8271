package metadata

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Remote backends run only when a server address is provided:
//
//	PANGENOMERGE_TEST_REDIS=localhost:6379
//	PANGENOMERGE_TEST_MONGO=mongodb://localhost:27017/?replicaSet=rs0
func TestRedisCommit(t *testing.T) {
	addr := os.Getenv("PANGENOMERGE_TEST_REDIS")
	if addr == "" {
		t.Skip("PANGENOMERGE_TEST_REDIS not set")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, RedisOptions{Addr: addr, Prefix: "pgm-test-" + uuid.NewString() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	prev := sampleGraph(t)
	require.NoError(t, r.Commit(ctx, NewBatch("r", 1, prev, nil)))
	g := prev.Clone()
	require.NoError(t, g.Absorb("b", "c"))
	require.NoError(t, r.Commit(ctx, NewBatch("r", 2, g, prev)))

	nodes, edges, err := r.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, nodes)
	assert.EqualValues(t, 1, edges)

	_, ok, err := r.NodeField(ctx, "c", "name")
	require.NoError(t, err)
	assert.False(t, ok)
	it, ok, err := r.NodeField(ctx, "b", "last_iteration")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", it)
}

func TestMongoCommit(t *testing.T) {
	uri := os.Getenv("PANGENOMERGE_TEST_MONGO")
	if uri == "" {
		t.Skip("PANGENOMERGE_TEST_MONGO not set")
	}
	ctx := context.Background()
	m, err := NewMongo(ctx, MongoOptions{URI: uri, Database: "pgm_test_" + uuid.NewString()[:8]})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.Drop(context.Background())
		_ = m.Close()
	})

	prev := sampleGraph(t)
	require.NoError(t, m.Commit(ctx, NewBatch("r", 1, prev, nil)))
	g := prev.Clone()
	require.NoError(t, g.Absorb("b", "c"))
	require.NoError(t, m.Commit(ctx, NewBatch("r", 2, g, prev)))

	_, ok, err := m.Node(ctx, "c")
	require.NoError(t, err)
	assert.False(t, ok)
	b, ok, err := m.Node(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, b.LastIteration)
	assert.Len(t, b.SeqIDs, 2)
}
