package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/config"
	"example.com/gamestore/services/games/internal/models"
)

// ElasticProvider is the Elasticsearch-backed search provider
type ElasticProvider struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticProvider creates a new Elasticsearch search provider
func NewElasticProvider(cfg config.ElasticConfig) (*ElasticProvider, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticProvider{
		client: client,
		config: cfg,
	}, nil
}

func (p *ElasticProvider) indexName() string {
	return config.FormatIndex(p.config, p.config.Index)
}

// Index indexes a game document
func (p *ElasticProvider) Index(ctx context.Context, game *models.Game) error {
	docJSON, err := json.Marshal(game)
	if err != nil {
		return errors.Wrap(err, "failed to marshal game document")
	}

	req := esapi.IndexRequest{
		Index:      p.indexName(),
		DocumentID: game.ID.String(),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Info().Str("game_id", game.ID.String()).Msg("game indexed")
	return nil
}

// Delete removes a game document from the index
func (p *ElasticProvider) Delete(ctx context.Context, gameID uuid.UUID) error {
	req := esapi.DeleteRequest{
		Index:      p.indexName(),
		DocumentID: gameID.String(),
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	// A missing document is fine; the catalog and the index converge on the
	// next reindex pass.
	if res.IsError() && res.StatusCode != 404 {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch delete error: %v", e)
	}

	return nil
}

// Search executes a relevance-ranked multi-field query with optional filters
func (p *ElasticProvider) Search(ctx context.Context, query Query) ([]models.Game, error) {
	var must []map[string]interface{}

	if query.Text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query.Text,
				"fields":    []string{"title^3", "description", "tags^2", "platforms", "developer", "publisher"},
				"fuzziness": "AUTO",
			},
		})
	}
	if query.Category != nil {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"category": int(*query.Category)},
		})
	}
	if query.PriceMin != nil || query.PriceMax != nil {
		priceRange := map[string]interface{}{}
		if query.PriceMin != nil {
			priceRange["gte"] = *query.PriceMin
		}
		if query.PriceMax != nil {
			priceRange["lte"] = *query.PriceMax
		}
		must = append(must, map[string]interface{}{
			"range": map[string]interface{}{"price": priceRange},
		})
	}
	if len(query.Tags) > 0 {
		must = append(must, map[string]interface{}{
			"terms": map[string]interface{}{"tags": query.Tags},
		})
	}
	if must == nil {
		must = []map[string]interface{}{{"match_all": map[string]interface{}{}}}
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	body := map[string]interface{}{
		"from": (page - 1) * pageSize,
		"size": pageSize,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}

	return p.executeSearch(ctx, body)
}

// TopRated returns the highest rated games in the index
func (p *ElasticProvider) TopRated(ctx context.Context, limit int) ([]models.Game, error) {
	body := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{"average_rating": map[string]interface{}{"order": "desc"}},
		},
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
	}

	return p.executeSearch(ctx, body)
}

func (p *ElasticProvider) executeSearch(ctx context.Context, body map[string]interface{}) ([]models.Game, error) {
	queryJSON, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	req := esapi.SearchRequest{
		Index: []string{p.indexName()},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	games := make([]models.Game, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var game models.Game
		if err := json.Unmarshal(hit.Source, &game); err != nil {
			log.Warn().Err(err).Msg("skipping malformed search hit")
			continue
		}
		games = append(games, game)
	}

	return games, nil
}

// GetPopularMetrics aggregates the most frequent tags, platforms and
// categories across the whole index
func (p *ElasticProvider) GetPopularMetrics(ctx context.Context, top int) (*PopularMetrics, error) {
	if top < 1 {
		top = 10
	}

	body := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"top_tags":       map[string]interface{}{"terms": map[string]interface{}{"field": "tags", "size": top}},
			"top_platforms":  map[string]interface{}{"terms": map[string]interface{}{"field": "platforms", "size": top}},
			"top_categories": map[string]interface{}{"terms": map[string]interface{}{"field": "category", "size": top}},
		},
	}

	queryJSON, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal aggregation query")
	}

	req := esapi.SearchRequest{
		Index: []string{p.indexName()},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch aggregation request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch aggregation error: %v", e)
	}

	var result struct {
		Aggregations map[string]struct {
			Buckets []struct {
				Key interface{} `json:"key"`
			} `json:"buckets"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch aggregation response")
	}

	readBuckets := func(name string) []string {
		agg, ok := result.Aggregations[name]
		if !ok {
			return nil
		}
		keys := make([]string, 0, len(agg.Buckets))
		for _, b := range agg.Buckets {
			keys = append(keys, fmt.Sprintf("%v", b.Key))
		}
		return keys
	}

	return &PopularMetrics{
		TopTags:       readBuckets("top_tags"),
		TopPlatforms:  readBuckets("top_platforms"),
		TopCategories: readBuckets("top_categories"),
	}, nil
}
