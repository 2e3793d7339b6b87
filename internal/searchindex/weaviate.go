package searchindex

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/foodiary/foodiary-chat/internal/model"
)

const documentClass = "FoodDocument"

// hybridAlpha balances keyword and vector scoring for retrieval.
const hybridAlpha = 0.6

// weavIndex is an Index backed by Weaviate.
type weavIndex struct {
	client  *weaviate.Client
	baseURL string // host:port without scheme
}

// NewWeaviateIndex constructs an Index backed by Weaviate at baseURL.
// baseURL should be host:port (without scheme), e.g., "localhost:8081".
func NewWeaviateIndex(baseURL string) (Index, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &weavIndex{client: cl, baseURL: baseURL}, nil
}

// EnsureSchema creates the document class when absent. Vectors are supplied
// by the embedding provider, so the class carries no vectorizer.
func EnsureSchema(ctx context.Context, baseURL string) error {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	exists, err := cl.Schema().ClassExistenceChecker().WithClassName(documentClass).Do(cctx)
	if err != nil {
		return fmt.Errorf("check class %s: %w", documentClass, err)
	}
	if exists {
		return nil
	}

	doc := &models.Class{
		Class:      documentClass,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "filename", DataType: []string{"text"}},
		},
	}
	if err := cl.Schema().ClassCreator().WithClass(doc).Do(cctx); err != nil {
		return fmt.Errorf("create class %s: %w", documentClass, err)
	}
	return nil
}

func (w *weavIndex) Search(ctx context.Context, query string, vec []float32, topK int) ([]model.DocumentHit, error) {
	safeString := func(v interface{}) string {
		s, _ := v.(string)
		return s
	}

	hy := (&gql.HybridArgumentBuilder{}).
		WithQuery(query).
		WithVector(vec).
		WithAlpha(hybridAlpha).
		WithProperties([]string{"content"})

	req := w.client.GraphQL().Get().
		WithClassName(documentClass).
		WithHybrid(hy).
		WithLimit(topK).
		WithFields(
			gql.Field{Name: "content"},
			gql.Field{Name: "filename"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "score"}}},
		)

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			if e != nil {
				msgs = append(msgs, e.Message)
			}
		}
		return nil, fmt.Errorf("weaviate graphql: %s", strings.Join(msgs, "; "))
	}

	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	raw, ok := getData[documentClass].([]interface{})
	if !ok {
		return []model.DocumentHit{}, nil
	}

	out := make([]model.DocumentHit, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		var score float64
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			switch v := add["score"].(type) {
			case float64:
				score = v
			case string:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					score = f
				}
			}
		}
		out = append(out, model.DocumentHit{
			Content:  safeString(m["content"]),
			Filename: safeString(m["filename"]),
			Score:    score,
		})
	}
	return out, nil
}

func (w *weavIndex) UpsertDocument(ctx context.Context, id string, vec []float32, content, filename string) error {
	props := map[string]interface{}{
		"content":  content,
		"filename": filename,
	}
	_, err := w.client.Data().Creator().
		WithClassName(documentClass).
		WithID(id).
		WithProperties(props).
		WithVector(vec).
		Do(ctx)
	return err
}

func (w *weavIndex) HealthPing(ctx context.Context) error {
	if w == nil || w.baseURL == "" {
		return fmt.Errorf("weaviate baseURL missing")
	}
	url := w.baseURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/v1/meta", nil)
	if err != nil {
		return err
	}
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weaviate status %d", resp.StatusCode)
	}
	return nil
}
