// Package search indexes task descriptions in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// TaskIndex keeps one document per task, keyed by task id.
type TaskIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewTaskIndex(es *elasticsearch.Client, index string) *TaskIndex {
	return &TaskIndex{es: es, index: index}
}

type taskDoc struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (x *TaskIndex) Index(ctx context.Context, t *entity.Task) error {
	b, err := json.Marshal(taskDoc{
		ID:          t.ID,
		Owner:       t.OwnerID,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: t.ID, Body: bytes.NewReader(b), Refresh: "false"}
	return x.do(ctx, req, false)
}

// Remove deletes one task document; a missing document is not an error.
func (x *TaskIndex) Remove(ctx context.Context, taskID string) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: taskID}
	return x.do(ctx, req, true)
}

// RemoveOwner deletes every document owned by ownerID.
func (x *TaskIndex) RemoveOwner(ctx context.Context, ownerID string) error {
	b, err := json.Marshal(ownerQuery(ownerID))
	if err != nil {
		return err
	}
	req := esapi.DeleteByQueryRequest{Index: []string{x.index}, Body: bytes.NewReader(b), Conflicts: "proceed"}
	return x.do(ctx, req, true)
}

// Search returns ids of ownerID's tasks whose description matches q, best first.
func (x *TaskIndex) Search(ctx context.Context, ownerID, q string, size int) ([]string, error) {
	b, err := json.Marshal(searchQuery(ownerID, q, size))
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, responseError(res)
	}
	return decodeHitIDs(res.Body)
}

func (x *TaskIndex) do(ctx context.Context, req esapi.Request, allowMissing bool) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if allowMissing && res.StatusCode == 404 {
		return nil
	}
	if res.IsError() {
		return responseError(res)
	}
	return nil
}

func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("elasticsearch: %s: %s", res.Status(), bytes.TrimSpace(body))
}

func ownerQuery(ownerID string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"term": map[string]any{"owner.keyword": ownerID},
		},
	}
}

func searchQuery(ownerID, q string, size int) map[string]any {
	return map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"owner.keyword": ownerID}},
				},
				"must": []any{
					map[string]any{"match": map[string]any{
						"description": map[string]any{"query": q, "fuzziness": "AUTO"},
					}},
				},
			},
		},
	}
}

func decodeHitIDs(r io.Reader) ([]string, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
