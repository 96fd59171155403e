package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/clinical-monitor/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// AccountIndex mirrors accounts into an Elasticsearch index for directory search.
type AccountIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewAccountIndex(es *elasticsearch.Client, index string) *AccountIndex {
	return &AccountIndex{es: es, index: index}
}

// accountsMapping keeps the filter fields exact and the searchable ones analyzed.
const accountsMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "username":     {"type": "search_as_you_type"},
      "email":        {"type": "search_as_you_type"},
      "first_name":   {"type": "text"},
      "last_name":    {"type": "text"},
      "account_type": {"type": "keyword"},
      "is_active":    {"type": "boolean"},
      "avatar_url":   {"type": "keyword", "index": false}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *AccountIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(c))
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("es exists %s: %s", x.index, res.Status())
	}

	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithContext(c),
		x.es.Indices.Create.WithBody(strings.NewReader(accountsMapping)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es create %s: %s", x.index, res.Status())
	}
	return nil
}

func (x *AccountIndex) Index(ctx context.Context, a *entity.Account) error {
	b, err := json.Marshal(a.Directory())
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: a.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", a.ID, res.Status())
	}
	return nil
}

// buildQuery matches q against username, email and names, optionally
// restricted to one account type.
func buildQuery(q string, accountType entity.AccountType, size int) map[string]any {
	must := []any{
		map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^3", "email^2", "first_name", "last_name"},
				"type":   "bool_prefix",
			},
		},
	}
	filter := []any{map[string]any{"term": map[string]any{"is_active": true}}}
	if accountType != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"account_type": string(accountType)}})
	}
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"must": must, "filter": filter},
		},
		"size": size,
	}
}

func (x *AccountIndex) Search(ctx context.Context, q string, accountType entity.AccountType, size int) ([]entity.DirectoryEntry, error) {
	b, err := json.Marshal(buildQuery(q, accountType, size))
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
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}
	return decodeHits(res.Body)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string                `json:"_id"`
			Source entity.DirectoryEntry `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeHits(r io.Reader) ([]entity.DirectoryEntry, error) {
	var parsed searchResponse
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]entity.DirectoryEntry, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		e := h.Source
		if e.ID == "" {
			e.ID = h.ID
		}
		out = append(out, e)
	}
	return out, nil
}
