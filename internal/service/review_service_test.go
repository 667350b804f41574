package service

import (
	"context"
	"testing"

	"storefront-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviewStore struct {
	reviews map[int64]*models.Review
	users   map[int64]*models.User
	nextID  int64
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{
		reviews: make(map[int64]*models.Review),
		users:   map[int64]*models.User{1: {ID: 1, FirstName: "Asha", LastName: "Rao"}},
	}
}

func (f *fakeReviewStore) ListReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) GetReviewByID(ctx context.Context, id int64) (*models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviewStore) UpsertOwnReview(ctx context.Context, review *models.Review) error {
	// One review per (product, user), like the SQL store's upsert.
	for _, r := range f.reviews {
		if r.ProductID == review.ProductID && r.UserID == review.UserID {
			r.Rating = review.Rating
			r.Title = review.Title
			r.Comment = review.Comment
			*review = *r
			return nil
		}
	}
	f.nextID++
	review.ID = f.nextID
	cp := *review
	f.reviews[review.ID] = &cp
	return nil
}

func (f *fakeReviewStore) UpdateReview(ctx context.Context, review *models.Review) error {
	if _, ok := f.reviews[review.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *review
	f.reviews[review.ID] = &cp
	return nil
}

func (f *fakeReviewStore) DeleteReview(ctx context.Context, reviewID, productID int64) error {
	if _, ok := f.reviews[reviewID]; !ok {
		return models.ErrNotFound
	}
	delete(f.reviews, reviewID)
	return nil
}

func (f *fakeReviewStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func TestSubmitReviewSetsDisplayName(t *testing.T) {
	fs := newFakeReviewStore()
	svc := NewReviewService(fs)

	review, err := svc.Submit(context.Background(), 10, 1, &ReviewRequest{Rating: 4, Comment: "Good fit"})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", review.DisplayName)
	assert.Equal(t, 4, review.Rating)
}

func TestSubmitReviewTwiceOverwrites(t *testing.T) {
	fs := newFakeReviewStore()
	svc := NewReviewService(fs)
	ctx := context.Background()

	first, err := svc.Submit(ctx, 10, 1, &ReviewRequest{Rating: 2})
	require.NoError(t, err)
	second, err := svc.Submit(ctx, 10, 1, &ReviewRequest{Rating: 5, Title: "Changed my mind"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	reviews, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestUpdateReviewOwnership(t *testing.T) {
	fs := newFakeReviewStore()
	svc := NewReviewService(fs)
	ctx := context.Background()

	review, err := svc.Submit(ctx, 10, 1, &ReviewRequest{Rating: 3})
	require.NoError(t, err)

	_, err = svc.Update(ctx, review.ID, 99, false, &ReviewRequest{Rating: 1})
	assert.ErrorIs(t, err, models.ErrForbidden)

	updated, err := svc.Update(ctx, review.ID, 99, true, &ReviewRequest{Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Rating)
}

func TestDeleteReviewOwnership(t *testing.T) {
	fs := newFakeReviewStore()
	svc := NewReviewService(fs)
	ctx := context.Background()

	review, err := svc.Submit(ctx, 10, 1, &ReviewRequest{Rating: 3})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, review.ID, 99, false), models.ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, review.ID, 1, false))
	assert.ErrorIs(t, svc.Delete(ctx, review.ID, 1, false), models.ErrNotFound)
}
