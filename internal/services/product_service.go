package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/politologod/vibes-marketplace/internal/apperr"
	"github.com/politologod/vibes-marketplace/internal/config"
	"github.com/politologod/vibes-marketplace/internal/db"
	"github.com/politologod/vibes-marketplace/internal/models"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

// ProductUpdate carries the mutable listing fields for a partial update.
// Nil pointers leave the stored value untouched.
type ProductUpdate struct {
	Nombre           *string                  `json:"nombre"`
	Descripcion      *string                  `json:"descripcion"`
	Precio           *float64                 `json:"precio"`
	Categoria        *string                  `json:"categoria"`
	Subcategoria     *string                  `json:"subcategoria"`
	Stock            *int                     `json:"stock"`
	Estado           *string                  `json:"estado"`
	Condicion        *string                  `json:"condicion"`
	Especificaciones *models.Especificaciones `json:"especificaciones"`
	Etiquetas        *[]string                `json:"etiquetas"`
	Descuento        *models.Descuento        `json:"descuento"`
}

// IProductService defines the interface for product-related operations.
type IProductService interface {
	CreateProduct(ctx context.Context, vendedorID utils.SixID, product *models.Product) (*models.Product, error)
	FindProductByID(ctx context.Context, productID utils.SixID) (*models.Product, error)
	ListProducts(ctx context.Context, params ListParams) ([]models.Product, Pagination, error)
	UpdateProduct(ctx context.Context, productID, vendedorID utils.SixID, update ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID, vendedorID utils.SixID) error
	SearchProducts(ctx context.Context, params SearchParams) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	AddImagesToProduct(ctx context.Context, productID utils.SixID, urls []string) (*models.Product, error)
	TouchProduct(ctx context.Context, productID utils.SixID) error
}

const productsCollection = "products"

const categoriesCacheKey = "products:categorias"

// productService implements IProductService.
type productService struct {
	db  *mongo.Database
	cfg *config.Config
	rdb *redis.Client // optional read cache, may be nil
}

// NewProductService creates a new ProductService.
func NewProductService(db *mongo.Database, cfg *config.Config, rdb *redis.Client) IProductService {
	return &productService{db: db, cfg: cfg, rdb: rdb}
}

// CreateProduct persists a new listing for the given seller. The image list
// starts empty; uploads attach URLs later.
func (s *productService) CreateProduct(ctx context.Context, vendedorID utils.SixID, product *models.Product) (*models.Product, error) {
	now := time.Now().UTC()
	product.VendedorID = vendedorID
	product.Imagenes = []string{}
	product.Valoraciones = models.Valoraciones{}
	product.FechaCreacion = now
	product.FechaActualizacion = now
	product.Normalize()
	product.ApplyStockStatus()

	if err := product.Validate(); err != nil {
		return nil, err
	}

	collection := s.db.Collection(productsCollection)
	operation := func() error {
		product.ID = utils.NewSixID()
		_, insertErr := collection.InsertOne(ctx, product)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert new product for seller %s after multiple retries: %w",
			vendedorID.String(), err)
	}

	s.invalidateCategories(ctx)
	return product, nil
}

// FindProductByID finds a product by its ID.
// Returns mongo.ErrNoDocuments when the ID does not resolve.
func (s *productService) FindProductByID(ctx context.Context, productID utils.SixID) (*models.Product, error) {
	var product models.Product
	collection := s.db.Collection(productsCollection)

	err := collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding product by ID %s: %w", productID.String(), err)
	}
	return &product, nil
}

// ListProducts runs the filter/sort/page query and returns the matching slice
// plus pagination metadata computed from the total count.
func (s *productService) ListProducts(ctx context.Context, params ListParams) ([]models.Product, Pagination, error) {
	params.ApplyDefaults(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	collection := s.db.Collection(productsCollection)
	filter := params.Filter()

	opts := options.Find().
		SetSort(params.SortDoc()).
		SetSkip(params.Skip()).
		SetLimit(int64(params.Limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to execute product list query: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.Product{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to decode product list results: %w", err)
	}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("failed to count products: %w", err)
	}

	return results, NewPagination(params, total), nil
}

// UpdateProduct merges the provided fields onto the stored listing, re-runs
// the field validators and persists. Only the owning seller may update.
func (s *productService) UpdateProduct(ctx context.Context, productID, vendedorID utils.SixID, update ProductUpdate) (*models.Product, error) {
	collection := s.db.Collection(productsCollection)

	var product models.Product
	if err := collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding product %s for update: %w", productID.String(), err)
	}
	if product.VendedorID != vendedorID {
		return nil, apperr.New(apperr.Forbidden, "No tienes permiso para modificar este producto")
	}

	if update.Nombre != nil {
		product.Nombre = *update.Nombre
	}
	if update.Descripcion != nil {
		product.Descripcion = *update.Descripcion
	}
	if update.Precio != nil {
		product.Precio = *update.Precio
	}
	if update.Categoria != nil {
		product.Categoria = *update.Categoria
	}
	if update.Subcategoria != nil {
		product.Subcategoria = *update.Subcategoria
	}
	if update.Stock != nil {
		product.Stock = *update.Stock
	}
	if update.Estado != nil {
		product.Estado = *update.Estado
	}
	if update.Condicion != nil {
		product.Condicion = *update.Condicion
	}
	if update.Especificaciones != nil {
		product.Especificaciones = update.Especificaciones
	}
	if update.Etiquetas != nil {
		product.Etiquetas = *update.Etiquetas
	}
	if update.Descuento != nil {
		product.Descuento = update.Descuento
	}

	product.FechaActualizacion = time.Now().UTC()
	product.Normalize()
	// Zero stock forces agotado regardless of the submitted state.
	product.ApplyStockStatus()

	if err := product.Validate(); err != nil {
		return nil, err
	}

	result, err := collection.ReplaceOne(ctx, bson.M{"_id": productID, "vendedorId": vendedorID}, &product)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", productID.String(), err)
	}
	if result.MatchedCount == 0 {
		// Deleted between read and write; treat as not found.
		return nil, mongo.ErrNoDocuments
	}

	s.invalidateCategories(ctx)
	return &product, nil
}

// DeleteProduct removes the listing. Only the owning seller may delete.
func (s *productService) DeleteProduct(ctx context.Context, productID, vendedorID utils.SixID) error {
	collection := s.db.Collection(productsCollection)

	var product models.Product
	if err := collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return mongo.ErrNoDocuments
		}
		return fmt.Errorf("error finding product %s for delete: %w", productID.String(), err)
	}
	if product.VendedorID != vendedorID {
		return apperr.New(apperr.Forbidden, "No tienes permiso para eliminar este producto")
	}

	result, err := collection.DeleteOne(ctx, bson.M{"_id": productID, "vendedorId": vendedorID})
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", productID.String(), err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	s.invalidateCategories(ctx)
	return nil
}

// SearchProducts performs the relevance-ranked text search, ordered by
// descending text score and capped at the params limit.
func (s *productService) SearchProducts(ctx context.Context, params SearchParams) ([]models.Product, error) {
	if params.Limit < 1 {
		params.Limit = s.cfg.DefaultSearchLimit
	}
	collection := s.db.Collection(productsCollection)

	scoreMeta := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.D{{Key: "score", Value: scoreMeta}}).
		SetSort(bson.D{{Key: "score", Value: scoreMeta}}).
		SetLimit(int64(params.Limit))

	cursor, err := collection.Find(ctx, params.Filter(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute product text search: %w", err)
	}
	defer cursor.Close(ctx)

	results := []models.Product{}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode product search results: %w", err)
	}
	return results, nil
}

// Categories returns the distinct categories among active listings, cached in
// Redis for a short TTL when a client is configured.
func (s *productService) Categories(ctx context.Context) ([]string, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, categoriesCacheKey).Result()
		if err == nil {
			var categories []string
			if jsonErr := json.Unmarshal([]byte(cached), &categories); jsonErr == nil {
				return categories, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("Categories cache read failed: %v", err)
		}
	}

	collection := s.db.Collection(productsCollection)
	values, err := collection.Distinct(ctx, "categoria", bson.M{"estado": models.EstadoActivo})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch distinct categories: %w", err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}

	if s.rdb != nil {
		if encoded, err := json.Marshal(categories); err == nil {
			if err := s.rdb.Set(ctx, categoriesCacheKey, encoded, s.cfg.CategoriesCacheTTL).Err(); err != nil {
				log.Printf("Categories cache write failed: %v", err)
			}
		}
	}

	return categories, nil
}

// AddImagesToProduct appends hosted image URLs to the listing's image list.
func (s *productService) AddImagesToProduct(ctx context.Context, productID utils.SixID, urls []string) (*models.Product, error) {
	collection := s.db.Collection(productsCollection)

	update := bson.M{
		"$push": bson.M{"imagenes": bson.M{"$each": urls}},
		"$set":  bson.M{"fechaActualizacion": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err := collection.FindOneAndUpdate(ctx, bson.M{"_id": productID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to add images to product %s: %w", productID.String(), err)
	}
	return &updated, nil
}

// TouchProduct bumps fechaActualizacion without changing anything else, so
// clients re-fetch after an image is rewritten in place.
func (s *productService) TouchProduct(ctx context.Context, productID utils.SixID) error {
	collection := s.db.Collection(productsCollection)

	result, err := collection.UpdateOne(ctx, bson.M{"_id": productID},
		bson.M{"$set": bson.M{"fechaActualizacion": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to touch product %s: %w", productID.String(), err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// invalidateCategories drops the cached category list after a write. Best
// effort; the TTL bounds staleness anyway.
func (s *productService) invalidateCategories(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, categoriesCacheKey).Err(); err != nil {
		log.Printf("Categories cache invalidation failed: %v", err)
	}
}
