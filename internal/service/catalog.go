package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/models"
	"github.com/glowsalon/booking-backend/internal/repo"
)

// CatalogService serves the bookable-services catalog: listing from the
// primary store, full-text search from elasticsearch. A nil ES client
// disables search.
type CatalogService struct {
	Repo  *repo.GormRepo
	ES    *elasticsearch.Client
	Index string
}

func NewCatalogService(r *repo.GormRepo, es *elasticsearch.Client, index string) *CatalogService {
	return &CatalogService{Repo: r, ES: es, Index: index}
}

func (s *CatalogService) List(ctx context.Context, limit, offset int) ([]models.Service, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListServices(ctx, limit, offset)
}

func (s *CatalogService) Create(ctx context.Context, svc *models.Service) error {
	if svc.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if svc.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}

	if err := s.Repo.CreateService(ctx, svc); err != nil {
		return err
	}

	if err := s.index(ctx, svc); err != nil {
		// the row is the source of truth; a missed index entry only
		// degrades search
		logging.FromContext(ctx).Error("index_service", "service_id", svc.ID, "error", err)
	}
	return nil
}

func (s *CatalogService) index(ctx context.Context, svc *models.Service) error {
	if s.ES == nil {
		return nil
	}

	doc, err := json.Marshal(svc)
	if err != nil {
		return fmt.Errorf("marshal service: %w", err)
	}

	res, err := s.ES.Index(
		s.Index,
		bytes.NewReader(doc),
		s.ES.Index.WithDocumentID(svc.ID.String()),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index service: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy multi-match over name and description.
func (s *CatalogService) Search(ctx context.Context, query string, from, size int) (int64, []models.Service, error) {
	if s.ES == nil {
		return 0, nil, fmt.Errorf("search is not configured")
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	if from < 0 {
		from = 0
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Service `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	services := make([]models.Service, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		services[i] = hit.Source
	}
	return r.Hits.Total.Value, services, nil
}
