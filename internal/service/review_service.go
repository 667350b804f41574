package service

import (
	"context"

	"storefront-api/internal/models"
	"storefront-api/internal/util"

	"go.uber.org/zap"
)

// ReviewStore is the persistence surface reviews need. Every mutation
// refreshes the product's cached rating/count inside the same transaction.
type ReviewStore interface {
	ListReviews(ctx context.Context, productID int64) ([]models.Review, error)
	GetReviewByID(ctx context.Context, id int64) (*models.Review, error)
	UpsertOwnReview(ctx context.Context, review *models.Review) error
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, reviewID, productID int64) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ReviewService handles product reviews
type ReviewService struct {
	store  ReviewStore
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store ReviewStore) *ReviewService {
	return &ReviewService{store: store, logger: util.GetLogger()}
}

// ReviewRequest is the submit/update payload.
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// List returns a product's reviews.
func (s *ReviewService) List(ctx context.Context, productID int64) ([]models.Review, error) {
	return s.store.ListReviews(ctx, productID)
}

// Submit writes the caller's review for a product. A second submit for the
// same product overwrites the first; one review per (product, user).
func (s *ReviewService) Submit(ctx context.Context, productID, userID int64, req *ReviewRequest) (*models.Review, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		ProductID:   productID,
		UserID:      userID,
		DisplayName: user.FirstName + " " + user.LastName,
		Rating:      req.Rating,
		Title:       req.Title,
		Comment:     req.Comment,
	}
	if err := s.store.UpsertOwnReview(ctx, review); err != nil {
		return nil, err
	}

	util.ReviewWritesTotal.WithLabelValues("submit").Inc()
	return review, nil
}

// Update rewrites a review by ID. Only the owner or an admin may do this.
func (s *ReviewService) Update(ctx context.Context, reviewID, callerID int64, isAdmin bool, req *ReviewRequest) (*models.Review, error) {
	review, err := s.store.GetReviewByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != callerID && !isAdmin {
		return nil, models.ErrForbidden
	}

	review.Rating = req.Rating
	review.Title = req.Title
	review.Comment = req.Comment
	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, err
	}

	util.ReviewWritesTotal.WithLabelValues("update").Inc()
	return review, nil
}

// Delete removes a review by ID. Only the owner or an admin may do this.
func (s *ReviewService) Delete(ctx context.Context, reviewID, callerID int64, isAdmin bool) error {
	review, err := s.store.GetReviewByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != callerID && !isAdmin {
		return models.ErrForbidden
	}

	if err := s.store.DeleteReview(ctx, reviewID, review.ProductID); err != nil {
		return err
	}

	util.ReviewWritesTotal.WithLabelValues("delete").Inc()
	return nil
}
