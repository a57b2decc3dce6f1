package db

import (
	"context"
	"errors"
	"log"

	"github.com/badhusha-dev/shopifygenie-services/internal/cache"
	"github.com/badhusha-dev/shopifygenie-services/internal/models"
)

// CachedProductRepository wraps ProductRepository with a Redis cache-aside
// layer for the read paths. Stock mutations bypass it; the consumer and the
// adjust-stock handler invalidate keys after writing.
type CachedProductRepository struct {
	repo  *ProductRepository
	cache *cache.RedisCache
}

func NewCachedProductRepository(repo *ProductRepository, cache *cache.RedisCache) *CachedProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: cache,
	}
}

// GetAll returns all active products (with caching)
func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	cacheKey := cache.AllProductsKey()

	var products []models.Product
	err := r.cache.Get(ctx, cacheKey, &products)
	if err == nil {
		log.Println("📦 Cache HIT: all products")
		return products, nil
	}

	log.Println("💾 Cache MISS: all products - fetching from DB")
	products, err = r.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, products); err != nil {
		log.Printf("⚠️ Failed to cache products: %v", err)
	}

	return products, nil
}

// GetByID returns a single product (with caching)
func (r *CachedProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	cacheKey := cache.ProductKey(id)

	var product models.Product
	err := r.cache.Get(ctx, cacheKey, &product)
	if err == nil {
		log.Printf("📦 Cache HIT: product %s", id)
		return &product, nil
	}

	if !errors.Is(err, cache.Nil) {
		log.Printf("⚠️ Cache error: %v", err)
	}

	log.Printf("💾 Cache MISS: product %s - fetching from DB", id)
	p, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, p); err != nil {
		log.Printf("⚠️ Failed to cache product: %v", err)
	}

	return p, nil
}

// Create inserts a new product and invalidates the listing cache.
func (r *CachedProductRepository) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	product, err := r.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Delete(ctx, cache.AllProductsKey()); err != nil {
		log.Printf("⚠️ Failed to invalidate cache: %v", err)
	}
	log.Println("🗑️ Cache invalidated: all products")

	return product, nil
}

// Deactivate soft-deletes a product and invalidates its caches.
func (r *CachedProductRepository) Deactivate(ctx context.Context, id string) error {
	if err := r.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	r.cache.Delete(ctx, cache.ProductKey(id))
	r.cache.Delete(ctx, cache.AllProductsKey())
	log.Printf("🗑️ Cache invalidated: product %s and all products", id)

	return nil
}
