// internal/common/database/elasticsearch.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"enrichment-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchClient wraps the Elasticsearch client used for entity statistics.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.GetAddresses(),
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// IndexDocument stores doc under id in index and returns the resulting
// document version.
func (c *ElasticsearchClient) IndexDocument(ctx context.Context, index, id string, doc interface{}) (int64, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode document: %w", err)
	}

	res, err := c.Client.Index(
		index,
		bytes.NewReader(body),
		c.Client.Index.WithContext(ctx),
		c.Client.Index.WithDocumentID(id),
	)
	if err != nil {
		return 0, fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return 0, fmt.Errorf("index error: %s: %s", res.Status(), raw)
	}

	var ack struct {
		Version int64  `json:"_version"`
		Result  string `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&ack); err != nil {
		return 0, fmt.Errorf("decode index response: %w", err)
	}
	return ack.Version, nil
}
