package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront-api/internal/models"
	"storefront-api/internal/store"
	"storefront-api/internal/util"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	sectionCacheKey  = "catalog:sections"
	topPicksCacheKey = "catalog:toppicks"
	suggestCacheKey  = "catalog:suggest:%s"
	catalogCacheTTL  = 5 * time.Minute
	suggestCacheTTL  = time.Minute

	sectionSize       = 8
	topPicksSize      = 10
	suggestLimit      = 8
	recentSearchLimit = 7
)

// Cache is the read-through cache surface, backed by Redis in production.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// CatalogStore is the persistence surface the catalog needs.
type CatalogStore interface {
	ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, int, error)
	AllProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	ProductsByCategory(ctx context.Context, category string, limit int) ([]models.Product, error)
	TopPicks(ctx context.Context, limit int) ([]models.Product, error)
	SuggestTitles(ctx context.Context, term string, limit int) ([]string, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateRecentSearches(ctx context.Context, userID int64, terms []string) error
}

// CatalogService handles catalog browsing and admin product management
type CatalogService struct {
	store  CatalogStore
	cache  Cache
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(store CatalogStore, cache Cache) *CatalogService {
	return &CatalogService{store: store, cache: cache, logger: util.GetLogger()}
}

// ProductRequest is the admin create/update payload.
type ProductRequest struct {
	Title         string         `json:"title" binding:"required"`
	Description   string         `json:"description,omitempty"`
	Price         float64        `json:"price" binding:"required,gt=0"`
	Category      string         `json:"category" binding:"required"`
	SubCategory   string         `json:"subCategory,omitempty"`
	Images        []string       `json:"images,omitempty"`
	StockQuantity int            `json:"stockQuantity" binding:"min=0"`
	Attributes    models.AttrMap `json:"attributes,omitempty"`
}

// List returns a filtered catalog page.
func (s *CatalogService) List(ctx context.Context, f store.ProductFilter) ([]models.Product, int, error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	return s.store.ListProducts(ctx, f)
}

// All returns the whole catalog.
func (s *CatalogService) All(ctx context.Context) ([]models.Product, error) {
	return s.store.AllProducts(ctx)
}

// Get returns one product.
func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetProductByID(ctx, id)
}

// Section is a category with its newest products, for the home page.
type Section struct {
	Category string           `json:"category"`
	Products []models.Product `json:"products"`
}

// Sections groups the newest products per category. Cached.
func (s *CatalogService) Sections(ctx context.Context) ([]Section, error) {
	var sections []Section
	if s.cacheGet(ctx, sectionCacheKey, &sections) {
		return sections, nil
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, cat := range categories {
		products, err := s.store.ProductsByCategory(ctx, cat, sectionSize)
		if err != nil {
			return nil, err
		}
		sections = append(sections, Section{Category: cat, Products: products})
	}

	s.cacheSet(ctx, sectionCacheKey, sections, catalogCacheTTL)
	return sections, nil
}

// TopPicks returns the best sellers. Cached.
func (s *CatalogService) TopPicks(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if s.cacheGet(ctx, topPicksCacheKey, &products) {
		return products, nil
	}

	products, err := s.store.TopPicks(ctx, topPicksSize)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, topPicksCacheKey, products, catalogCacheTTL)
	return products, nil
}

// Suggest returns title suggestions for a search term and, for signed-in
// callers, records the term in their recent searches.
func (s *CatalogService) Suggest(ctx context.Context, term string, userID int64) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}, nil
	}

	if userID != 0 {
		if err := s.recordSearch(ctx, userID, term); err != nil {
			s.logger.Warn("Failed to record recent search", zap.Error(err))
		}
	}

	key := fmt.Sprintf(suggestCacheKey, strings.ToLower(term))
	var titles []string
	if s.cacheGet(ctx, key, &titles) {
		util.SuggestCacheHits.WithLabelValues("hit").Inc()
		return titles, nil
	}
	util.SuggestCacheHits.WithLabelValues("miss").Inc()

	titles, err := s.store.SuggestTitles(ctx, term, suggestLimit)
	if err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []string{}
	}

	s.cacheSet(ctx, key, titles, suggestCacheTTL)
	return titles, nil
}

// recordSearch keeps the most recent unique terms, case-insensitively, capped
// at recentSearchLimit with the newest first.
func (s *CatalogService) recordSearch(ctx context.Context, userID int64, term string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	terms := []string{term}
	for _, t := range user.RecentSearches {
		if strings.EqualFold(t, term) {
			continue
		}
		terms = append(terms, t)
		if len(terms) == recentSearchLimit {
			break
		}
	}
	return s.store.UpdateRecentSearches(ctx, userID, terms)
}

// Create adds a catalog entry (admin).
func (s *CatalogService) Create(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	product := productFromRequest(req)
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.invalidate(ctx)
	return product, nil
}

// Update rewrites a catalog entry (admin).
func (s *CatalogService) Update(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error) {
	existing, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product := productFromRequest(req)
	product.ID = id
	product.SoldCount = existing.SoldCount
	product.Rating = existing.Rating
	product.ReviewCount = existing.ReviewCount
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// Delete removes a catalog entry (admin).
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func productFromRequest(req *ProductRequest) *models.Product {
	attrs := req.Attributes
	if attrs == nil {
		attrs = models.AttrMap{}
	}
	return &models.Product{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		Category:      req.Category,
		SubCategory:   req.SubCategory,
		Images:        pq.StringArray(req.Images),
		StockQuantity: req.StockQuantity,
		Attributes:    attrs,
	}
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate drops the cached home listings after any catalog write.
func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sectionCacheKey, topPicksCacheKey); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
	if err := s.cache.DeletePattern(ctx, "catalog:suggest:*"); err != nil {
		s.logger.Warn("Suggest cache invalidation failed", zap.Error(err))
	}
}
