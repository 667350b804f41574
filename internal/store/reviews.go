package store

import (
	"context"
	"database/sql"

	"storefront-api/internal/models"

	"github.com/jmoiron/sqlx"
)

// refreshProductRating recomputes the cached rating (mean, rounded to two
// decimals) and review count from the full review set. Runs inside the same
// transaction as the review write.
func refreshProductRating(ctx context.Context, tx *sqlx.Tx, productID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE products p
		SET rating = COALESCE((
		        SELECT ROUND(AVG(r.rating)::numeric, 2)::float8
		        FROM reviews r WHERE r.product_id = p.id), 0),
		    review_count = (SELECT COUNT(*) FROM reviews r WHERE r.product_id = p.id),
		    updated_at = NOW()
		WHERE p.id = $1`, productID)
	return err
}

// ListReviews returns all reviews for a product, newest first.
func (s *Store) ListReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews,
		"SELECT * FROM reviews WHERE product_id = $1 ORDER BY created_at DESC", productID)
	return reviews, err
}

// GetReviewByID retrieves a review by ID
func (s *Store) GetReviewByID(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	err := s.db.GetContext(ctx, &review, "SELECT * FROM reviews WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UpsertOwnReview inserts the caller's review for a product, or overwrites
// their existing one. One review per (product, user). The product aggregate
// is refreshed in the same transaction.
func (s *Store) UpsertOwnReview(ctx context.Context, review *models.Review) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)", review.ProductID)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrNotFound
	}

	var existingID int64
	err = tx.GetContext(ctx, &existingID,
		"SELECT id FROM reviews WHERE product_id = $1 AND user_id = $2",
		review.ProductID, review.UserID)
	switch err {
	case nil:
		review.ID = existingID
		err = tx.QueryRowxContext(ctx, `
			UPDATE reviews
			SET rating = $1, title = $2, comment = $3, display_name = $4, updated_at = NOW()
			WHERE id = $5
			RETURNING created_at, updated_at`,
			review.Rating, review.Title, review.Comment, review.DisplayName, existingID,
		).Scan(&review.CreatedAt, &review.UpdatedAt)
	case sql.ErrNoRows:
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO reviews (product_id, user_id, display_name, rating, title, comment)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			review.ProductID, review.UserID, review.DisplayName,
			review.Rating, review.Title, review.Comment,
		).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	default:
		return err
	}
	if err != nil {
		return err
	}

	if err := refreshProductRating(ctx, tx, review.ProductID); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateReview rewrites an existing review by ID and refreshes the product
// aggregate.
func (s *Store) UpdateReview(ctx context.Context, review *models.Review) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE reviews SET rating = $1, title = $2, comment = $3, updated_at = NOW()
		WHERE id = $4`,
		review.Rating, review.Title, review.Comment, review.ID)
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

	if err := refreshProductRating(ctx, tx, review.ProductID); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteReview removes a review and refreshes the product aggregate. Deleting
// the last review resets the cached rating to 0.
func (s *Store) DeleteReview(ctx context.Context, reviewID, productID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", reviewID)
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

	if err := refreshProductRating(ctx, tx, productID); err != nil {
		return err
	}
	return tx.Commit()
}
