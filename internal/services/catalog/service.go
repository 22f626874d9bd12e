package catalog

import (
	"context"
	"fmt"

	"foodflow/internal/access"
	"foodflow/internal/database"
	"foodflow/internal/logger"
	"foodflow/internal/models"
)

// Service serves the waiter's floor and menu views and the superuser's
// catalog administration.
type Service struct {
	store  database.Store
	logger *logger.Logger
}

// NewService creates a new catalog service
func NewService(store database.Store, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log,
	}
}

// ListTables returns every table with its current status, by number
func (s *Service) ListTables(ctx context.Context, caller access.Caller) ([]models.Table, error) {
	if err := access.Require(caller, access.RoleWaiter); err != nil {
		return nil, err
	}
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Menu returns every category with its orderable products
func (s *Service) Menu(ctx context.Context, caller access.Caller) ([]models.Category, error) {
	if err := access.Require(caller, access.RoleWaiter); err != nil {
		return nil, err
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	products, err := s.store.ListProducts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	index := make(map[int64]int, len(categories))
	for i := range categories {
		categories[i].Products = []models.Product{}
		index[categories[i].ID] = i
	}
	for _, p := range products {
		if i, ok := index[p.CategoryID]; ok {
			categories[i].Products = append(categories[i].Products, p)
		}
	}
	return categories, nil
}

// CreateTable registers a free table. Duplicate numbers are a conflict.
func (s *Service) CreateTable(ctx context.Context, caller access.Caller, req *models.CreateTableRequest, requestID string) (*models.Table, error) {
	if err := access.Require(caller, access.RoleSuperuser); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	table := &models.Table{Number: req.Number, Status: models.TableFree}
	if err := s.store.InsertTable(ctx, table); err != nil {
		return nil, fmt.Errorf("create table %d: %w", req.Number, err)
	}

	s.logger.Info("table_created", fmt.Sprintf("Table %d created", table.Number), requestID, map[string]interface{}{
		"table_id":   table.ID,
		"created_by": caller.Name(),
	})
	return table, nil
}

// CreateCategory adds a menu category
func (s *Service) CreateCategory(ctx context.Context, caller access.Caller, req *models.CreateCategoryRequest, requestID string) (*models.Category, error) {
	if err := access.Require(caller, access.RoleSuperuser); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	category := &models.Category{Name: req.Name, Products: []models.Product{}}
	if err := s.store.InsertCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category %q: %w", req.Name, err)
	}

	s.logger.Info("category_created", fmt.Sprintf("Category %q created", category.Name), requestID, map[string]interface{}{
		"category_id": category.ID,
		"created_by":  caller.Name(),
	})
	return category, nil
}

// CreateProduct adds a product to an existing category
func (s *Service) CreateProduct(ctx context.Context, caller access.Caller, req *models.CreateProductRequest, requestID string) (*models.Product, error) {
	if err := access.Require(caller, access.RoleSuperuser); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Price:       req.Price,
		Active:      req.IsActive(),
		Description: req.Description,
		ImageRef:    req.ImageRef,
	}
	if err := s.store.InsertProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product %q: %w", req.Name, err)
	}

	s.logger.Info("product_created", fmt.Sprintf("Product %q created", product.Name), requestID, map[string]interface{}{
		"product_id":  product.ID,
		"category_id": product.CategoryID,
		"price":       product.Price.StringFixed(2),
		"created_by":  caller.Name(),
	})
	return product, nil
}

// SetProductActive enables or withdraws a product from new orders.
// Existing order lines keep referencing it either way.
func (s *Service) SetProductActive(ctx context.Context, caller access.Caller, productID int64, req *models.SetProductActiveRequest, requestID string) (*models.Product, error) {
	if err := access.Require(caller, access.RoleSuperuser); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := s.store.SetProductActive(ctx, productID, *req.Active)
	if err != nil {
		return nil, fmt.Errorf("set product %d active: %w", productID, err)
	}

	s.logger.Info("product_updated", fmt.Sprintf("Product %q active=%t", product.Name, product.Active), requestID, map[string]interface{}{
		"product_id": product.ID,
		"changed_by": caller.Name(),
	})
	return product, nil
}
