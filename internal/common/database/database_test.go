package database

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrichment-workers/internal/common/config"
)

func TestRedisClient_SetNXGetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	ok, err := c.SetNX(ctx, "mapping:1", []byte(`{"entries":[]}`), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "mapping:1", []byte(`other`), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := c.TTL(ctx, "mapping:1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	val, err := c.GetDel(ctx, "mapping:1")
	require.NoError(t, err)
	assert.Equal(t, `{"entries":[]}`, string(val))

	_, err = c.GetDel(ctx, "mapping:1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestElasticsearchClient_IndexDocument(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_index":"entity-stats","_id":"req-1","_version":1,"result":"created"}`))
	}))
	defer srv.Close()

	c, err := NewElasticsearch(config.ElasticsearchConfig{URL: srv.URL})
	require.NoError(t, err)

	version, err := c.IndexDocument(context.Background(), "entity-stats", "req-1", map[string]int{"EMAIL": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, "/entity-stats/_doc/req-1", gotPath)
	assert.JSONEq(t, `{"EMAIL":1}`, gotBody)
}

func TestElasticsearchClient_IndexError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	}))
	defer srv.Close()

	c, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	_, err = c.IndexDocument(context.Background(), "entity-stats", "req-1", map[string]int{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestNewPostgres_Lazy(t *testing.T) {
	c, err := NewPostgres(config.PostgresConfig{Host: "127.0.0.1", Port: 1, Database: "x", User: "u", SSLMode: "disable", MaxConnections: 2, MaxIdle: 1})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
