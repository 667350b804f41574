package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storefront-api/internal/models"
)

// ProductFilter narrows and orders catalog listings.
type ProductFilter struct {
	Category    string
	SubCategory string
	Search      string
	MinPrice    *float64
	MaxPrice    *float64
	InStock     bool
	Sort        string // price_asc, price_desc, rating, newest, bestselling
	Page        int
	Limit       int
}

// ListProducts returns a filtered catalog page and the total match count.
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	add := func(cond string, val interface{}) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.SubCategory != "" {
		add("sub_category = $%d", f.SubCategory)
	}
	if f.Search != "" {
		add("title ILIKE $%d", "%"+f.Search+"%")
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}
	if f.InStock {
		where = append(where, "stock_quantity > 0")
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM products WHERE " + whereClause
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	switch f.Sort {
	case "price_asc":
		order = "price ASC"
	case "price_desc":
		order = "price DESC"
	case "rating":
		order = "rating DESC"
	case "bestselling":
		order = "sold_count DESC"
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf("SELECT * FROM products WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		whereClause, order, len(args)-1, len(args))

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// AllProducts returns the full catalog, newest first.
func (s *Store) AllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, "SELECT * FROM products ORDER BY created_at DESC")
	return products, err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCategories returns the distinct product categories.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.SelectContext(ctx, &categories,
		"SELECT DISTINCT category FROM products ORDER BY category")
	return categories, err
}

// ProductsByCategory returns up to limit products from one category, newest
// first. Used for the sectioned home listing.
func (s *Store) ProductsByCategory(ctx context.Context, category string, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE category = $1 ORDER BY created_at DESC LIMIT $2",
		category, limit)
	return products, err
}

// TopPicks returns the best-selling products.
func (s *Store) TopPicks(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products ORDER BY sold_count DESC, rating DESC LIMIT $1", limit)
	return products, err
}

// SuggestTitles returns product titles matching a search term, prefix matches
// first.
func (s *Store) SuggestTitles(ctx context.Context, term string, limit int) ([]string, error) {
	var titles []string
	err := s.db.SelectContext(ctx, &titles, `
		SELECT title FROM products
		WHERE title ILIKE $1
		ORDER BY (title ILIKE $2) DESC, sold_count DESC
		LIMIT $3`,
		"%"+term+"%", term+"%", limit)
	return titles, err
}

// CreateProduct inserts a new catalog entry.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (title, description, price, category, sub_category, images, stock_quantity, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, sold_count, rating, review_count, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		p.Title, p.Description, p.Price, p.Category, p.SubCategory,
		p.Images, p.StockQuantity, p.Attributes,
	).Scan(&p.ID, &p.SoldCount, &p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt)
}

// UpdateProduct replaces the mutable catalog fields. Rating, review count and
// sold count stay under the control of the review and order workflows.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET title = $1, description = $2, price = $3, category = $4, sub_category = $5,
		    images = $6, stock_quantity = $7, attributes = $8, updated_at = NOW()
		WHERE id = $9`,
		p.Title, p.Description, p.Price, p.Category, p.SubCategory,
		p.Images, p.StockQuantity, p.Attributes, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a catalog entry and its reviews.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE product_id = $1", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return tx.Commit()
}
