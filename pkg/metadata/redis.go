package metadata

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key the Redis store writes.
const DefaultRedisPrefix = "pangenomerge:"

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Redis stores one hash per node and edge plus two index sets. A batch is
// written in a single MULTI/EXEC transaction; each record's hash is deleted
// before it is rewritten so stale fields never survive a replace.
//
// Layout:
//
//	<prefix>node:<id>     hash of node fields
//	<prefix>edge:<u>|<v>  hash of edge fields
//	<prefix>nodes         set of node ids
//	<prefix>edges         set of edge keys
//	<prefix>run           hash {run_id, iteration}
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) nodeKey(id string) string { return r.prefix + "node:" + id }
func (r *Redis) edgeKey(k string) string  { return r.prefix + "edge:" + k }

func (r *Redis) Commit(ctx context.Context, b *Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	nodesIdx, edgesIdx := r.prefix+"nodes", r.prefix+"edges"
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range b.RemovedNodes {
			p.Del(ctx, r.nodeKey(id))
			p.SRem(ctx, nodesIdx, id)
		}
		for _, k := range b.RemovedEdges {
			p.Del(ctx, r.edgeKey(k))
			p.SRem(ctx, edgesIdx, k)
		}
		for _, n := range b.Nodes {
			key := r.nodeKey(n.ID)
			p.Del(ctx, key)
			p.HSet(ctx, key, n.fields())
			p.SAdd(ctx, nodesIdx, n.ID)
		}
		for _, e := range b.Edges {
			key := r.edgeKey(e.Key)
			p.Del(ctx, key)
			p.HSet(ctx, key, e.fields())
			p.SAdd(ctx, edgesIdx, e.Key)
		}
		p.HSet(ctx, r.prefix+"run", "run_id", b.RunID, "iteration", b.Iteration)
		return nil
	})
	return err
}

// NodeField reads one field of a stored node; ok is false when absent.
func (r *Redis) NodeField(ctx context.Context, id, field string) (string, bool, error) {
	v, err := r.client.HGet(ctx, r.nodeKey(id), field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Counts returns the sizes of the node and edge index sets.
func (r *Redis) Counts(ctx context.Context) (nodes, edges int64, err error) {
	if nodes, err = r.client.SCard(ctx, r.prefix+"nodes").Result(); err != nil {
		return 0, 0, err
	}
	edges, err = r.client.SCard(ctx, r.prefix+"edges").Result()
	return nodes, edges, err
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (n NodeRecord) fields() map[string]any {
	return map[string]any{
		"name":             n.Name,
		"size":             n.Size,
		"degree":           n.Degree,
		"members":          strings.Join(n.Members, ";"),
		"seq_ids":          strings.Join(n.SeqIDs, ";"),
		"gene_ids":         strings.Join(n.GeneIDs, ";"),
		"genome_ids":       strings.Join(n.GenomeIDs, ";"),
		"centroids":        strings.Join(n.Centroids, ";"),
		"long_centroid_id": strings.Join(n.LongCentroidID, ";"),
		"lengths":          formatLengths(n.Lengths),
		"max_len_id":       n.MaxLenID,
		"annotation":       n.Annotation,
		"description":      n.Description,
		"dna":              n.DNA,
		"protein":          n.Protein,
		"has_end":          n.HasEnd,
		"paralog":          n.Paralog,
		"merged_dna":       n.MergedDNA,
		"last_iteration":   n.LastIteration,
		"run_id":           n.RunID,
	}
}

func (e EdgeRecord) fields() map[string]any {
	return map[string]any{
		"u":              e.U,
		"v":              e.V,
		"size":           e.Size,
		"members":        strings.Join(e.Members, ";"),
		"last_iteration": e.LastIteration,
		"run_id":         e.RunID,
	}
}

// formatLengths renders a histogram as "length:count" pairs joined by ';'.
func formatLengths(ls []LengthCount) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = strconv.Itoa(l.Length) + ":" + strconv.Itoa(l.Count)
	}
	return strings.Join(parts, ";")
}
