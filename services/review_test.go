package services

import (
	"sync"
	"testing"

	"food-delivery-backend/events"
	"food-delivery-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateOrder(t *testing.T) {
	w := newWorld(t)
	order := w.delivered()

	got, err := w.reviews.RateOrder(w.ctx, w.customer, order.ID, 4, "hot and fast")
	require.NoError(t, err)
	require.NotNil(t, got.CustomerRating)
	assert.Equal(t, 4, *got.CustomerRating)
	require.NotNil(t, got.CustomerReview)
	assert.Equal(t, "hot and fast", *got.CustomerReview)
	assert.Equal(t, events.TypeOrderRated, w.pub.last().Type)
	assert.Equal(t, 4, w.pub.last().Rating)
}

func TestRateOrderOnlyOnce(t *testing.T) {
	w := newWorld(t)
	order := w.delivered()

	_, err := w.reviews.RateOrder(w.ctx, w.customer, order.ID, 4, "")
	require.NoError(t, err)

	_, err = w.reviews.RateOrder(w.ctx, w.customer, order.ID, 1, "changed my mind")
	assert.ErrorIs(t, err, models.ErrAlreadyRated)

	stored := w.reload(order.ID)
	assert.Equal(t, 4, *stored.CustomerRating)
}

func TestRateOrderNotDelivered(t *testing.T) {
	w := newWorld(t)
	order := w.ready()

	for _, rating := range []int{0, 3, 6} {
		_, err := w.reviews.RateOrder(w.ctx, w.customer, order.ID, rating, "")
		assert.ErrorIs(t, err, models.ErrOrderNotEligible, "rating %d", rating)
	}
	assert.Nil(t, w.reload(order.ID).CustomerRating)
}

func TestRateOrderRange(t *testing.T) {
	w := newWorld(t)
	order := w.delivered()

	for _, rating := range []int{0, -1, 6} {
		_, err := w.reviews.RateOrder(w.ctx, w.customer, order.ID, rating, "")
		assert.ErrorIs(t, err, models.ErrValidation, "rating %d", rating)
	}
	assert.Nil(t, w.reload(order.ID).CustomerRating)

	_, err := w.reviews.RateOrder(w.ctx, w.customer, order.ID, 5, "")
	assert.NoError(t, err)
}

func TestRateOrderOtherCustomer(t *testing.T) {
	w := newWorld(t)
	order := w.delivered()

	_, err := w.reviews.RateOrder(w.ctx, w.other, order.ID, 3, "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = w.reviews.RateOrder(w.ctx, w.admin, order.ID, 3, "")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestRateCourier(t *testing.T) {
	w := newWorld(t)
	order := w.delivered()

	review, err := w.reviews.RateCourier(w.ctx, w.customer, order.ID, nil, 5, "friendly")
	require.NoError(t, err)
	assert.Equal(t, *w.courier.CourierID, review.CourierID)
	assert.Equal(t, 5, review.Rating)

	stored := w.reload(order.ID)
	require.NotNil(t, stored.CourierRating)
	assert.Equal(t, 5, *stored.CourierRating)
	// independent of the order rating
	assert.Nil(t, stored.CustomerRating)

	_, err = w.reviews.RateCourier(w.ctx, w.customer, order.ID, w.courier.CourierID, 2, "")
	assert.ErrorIs(t, err, models.ErrAlreadyRated)

	got, err := w.reviews.CheckCourierReview(w.ctx, w.customer, order.ID, *w.courier.CourierID)
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)
	assert.Equal(t, "friendly", got.ReviewText)
}

func TestRateCourierWrongCourier(t *testing.T) {
	w := newWorld(t)
	order := w.delivered()

	_, err := w.reviews.RateCourier(w.ctx, w.customer, order.ID, w.courier2.CourierID, 5, "")
	assert.ErrorIs(t, err, models.ErrOrderNotEligible)
	assert.Nil(t, w.reload(order.ID).CourierRating)
}

func TestRateCourierNotDelivered(t *testing.T) {
	w := newWorld(t)
	order := w.ready()
	_, err := w.assignment.AssignCourier(w.ctx, w.admin, order.ID, *w.courier.CourierID)
	require.NoError(t, err)

	_, err = w.reviews.RateCourier(w.ctx, w.customer, order.ID, nil, 5, "")
	assert.ErrorIs(t, err, models.ErrOrderNotEligible)
}

func TestCheckCourierReviewMissing(t *testing.T) {
	w := newWorld(t)
	order := w.delivered()

	_, err := w.reviews.CheckCourierReview(w.ctx, w.customer, order.ID, *w.courier.CourierID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	var n int64
	require.NoError(t, w.db.Model(&models.CourierReview{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAverageRating(t *testing.T) {
	w := newWorld(t)

	avg, err := AverageRating(w.ctx, w.db, *w.courier.CourierID)
	require.NoError(t, err)
	assert.Zero(t, avg)

	for _, rating := range []int{5, 2} {
		order := w.delivered()
		_, err := w.reviews.RateCourier(w.ctx, w.customer, order.ID, nil, rating, "")
		require.NoError(t, err)
	}

	avg, err = AverageRating(w.ctx, w.db, *w.courier.CourierID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, avg, 0.001)
}

// rateConcurrently runs n rating calls at once; call i rates i%5+1.
func rateConcurrently(n int, rate func(rating int) error) []error {
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = rate(i%maxRating + 1)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func TestRateOrderConcurrent(t *testing.T) {
	w := newWorld(t)
	order := w.delivered()

	errs := rateConcurrently(8, func(rating int) error {
		_, err := w.reviews.RateOrder(w.ctx, w.customer, order.ID, rating, "")
		return err
	})

	winner := -1
	for i, err := range errs {
		if err == nil {
			assert.Equal(t, -1, winner, "more than one rating succeeded")
			winner = i
			continue
		}
		assert.ErrorIs(t, err, models.ErrAlreadyRated)
	}
	require.NotEqual(t, -1, winner)

	stored := w.reload(order.ID)
	require.NotNil(t, stored.CustomerRating)
	assert.Equal(t, winner%maxRating+1, *stored.CustomerRating)
}

func TestRateCourierConcurrent(t *testing.T) {
	w := newWorld(t)
	order := w.delivered()

	errs := rateConcurrently(8, func(rating int) error {
		_, err := w.reviews.RateCourier(w.ctx, w.customer, order.ID, nil, rating, "")
		return err
	})

	winner := -1
	for i, err := range errs {
		if err == nil {
			assert.Equal(t, -1, winner, "more than one rating succeeded")
			winner = i
			continue
		}
		assert.ErrorIs(t, err, models.ErrAlreadyRated)
	}
	require.NotEqual(t, -1, winner)

	var n int64
	require.NoError(t, w.db.Model(&models.CourierReview{}).Where("order_id = ?", order.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	stored := w.reload(order.ID)
	require.NotNil(t, stored.CourierRating)
	assert.Equal(t, winner%maxRating+1, *stored.CourierRating)

	review, err := w.reviews.CheckCourierReview(w.ctx, w.customer, order.ID, *w.courier.CourierID)
	require.NoError(t, err)
	assert.Equal(t, winner%maxRating+1, review.Rating)
}
