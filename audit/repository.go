// audit/repository.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const auditIndex = "auth-audit"

type Repository interface {
	LogAccess(ctx context.Context, log AuditLog) error
	QueryLogs(ctx context.Context, from, to time.Time, principal string) ([]AuditLog, error)
}

// DiscardRepository is used when no audit backend is configured.
type DiscardRepository struct{}

func (DiscardRepository) LogAccess(context.Context, AuditLog) error { return nil }

func (DiscardRepository) QueryLogs(context.Context, time.Time, time.Time, string) ([]AuditLog, error) {
	return []AuditLog{}, nil
}

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
	index    string
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL string) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient, index: auditIndex}, nil
}

// LogAccess indexes an audit entry under its id.
func (r *ElasticsearchRepository) LogAccess(ctx context.Context, log AuditLog) error {
	data, err := json.Marshal(log)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: log.ID,
		Body:       bytes.NewReader(data),
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing audit entry: %s", res.String())
	}

	return nil
}

type searchQuery struct {
	Query struct {
		Bool struct {
			Must []map[string]any `json:"must"`
		} `json:"bool"`
	} `json:"query"`
	Sort []map[string]string `json:"sort"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source AuditLog `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildQuery(from, to time.Time, principal string) searchQuery {
	var q searchQuery
	q.Query.Bool.Must = append(q.Query.Bool.Must, map[string]any{
		"range": map[string]any{
			"timestamp": map[string]string{
				"gte": from.Format(time.RFC3339),
				"lte": to.Format(time.RFC3339),
			},
		},
	})
	if principal != "" {
		q.Query.Bool.Must = append(q.Query.Bool.Must, map[string]any{
			"term": map[string]string{"principal": principal},
		})
	}
	q.Sort = []map[string]string{{"timestamp": "desc"}}
	return q
}

// QueryLogs returns entries in [from, to], optionally for one principal.
func (r *ElasticsearchRepository) QueryLogs(ctx context.Context, from, to time.Time, principal string) ([]AuditLog, error) {
	body, err := json.Marshal(buildQuery(from, to, principal))
	if err != nil {
		return nil, err
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.index),
		r.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching audit entries: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	logs := make([]AuditLog, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		logs = append(logs, hit.Source)
	}
	return logs, nil
}
