// internal/store/knowledge.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"chat-engine/internal/common/logger"
	"chat-engine/internal/models"
)

// KnowledgeStore serves per-tenant knowledge snippets from an
// Elasticsearch index, in their stored order.
type KnowledgeStore struct {
	es        *elasticsearch.Client
	index     string
	fetchSize int
	logger    logger.Logger
}

func NewKnowledgeStore(es *elasticsearch.Client, index string, fetchSize int, log logger.Logger) *KnowledgeStore {
	if fetchSize <= 0 {
		fetchSize = 10
	}
	return &KnowledgeStore{
		es:        es,
		index:     index,
		fetchSize: fetchSize,
		logger:    log.WithFields(map[string]interface{}{"component": "knowledge-store"}),
	}
}

// GetKnowledge returns the tenant's snippets ordered by their position
// field.
func (s *KnowledgeStore) GetKnowledge(ctx context.Context, tenantID string) ([]models.KnowledgeSnippet, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"tenant_id": tenantID},
		},
		"sort": []interface{}{
			map[string]interface{}{"position": map[string]interface{}{"order": "asc"}},
		},
	}
	body, _ := json.Marshal(queryBody)

	size := s.fetchSize
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("knowledge search error: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source struct {
					Text string `json:"text"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("knowledge decode failed: %w", err)
	}

	snippets := make([]models.KnowledgeSnippet, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		snippets = append(snippets, models.KnowledgeSnippet{Text: hit.Source.Text})
	}

	return snippets, nil
}
