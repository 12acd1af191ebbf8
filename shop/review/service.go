// Package review collects a rating, optional text and photos for a product or
// an order and enforces one review per user and target.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/session"
)

// Store persists reviews. Exists checks ignore hidden reviews.
type Store interface {
	ExistsForOrderProduct(ctx context.Context, userID, orderID, productID int64) (bool, error)
	ExistsForOrder(ctx context.Context, userID, orderID int64) (bool, error)
	ExistsForProduct(ctx context.Context, userID, productID int64) (bool, error)
	Create(ctx context.Context, r domain.Review) (domain.Review, error)
}

// Service runs the review sub-flow:
//
//	none -> rating_selected -> collecting -> saved
type Service struct {
	drafts session.Table[session.PendingReview]
	store  Store
	now    func() time.Time
}

// NewService builds a review service over the per-user draft table.
func NewService(drafts session.Table[session.PendingReview], store Store) *Service {
	return &Service{drafts: drafts, store: store, now: time.Now}
}

// Check reports a *ConflictError when the user already reviewed target.
func (s *Service) Check(ctx context.Context, userID int64, t Target) error {
	var (
		exists bool
		err    error
	)
	switch t.Rule() {
	case RuleOrder:
		exists, err = s.store.ExistsForOrder(ctx, userID, t.ID)
	case RuleOrderProduct:
		exists, err = s.store.ExistsForOrderProduct(ctx, userID, *t.OrderID, t.ID)
	default:
		exists, err = s.store.ExistsForProduct(ctx, userID, t.ID)
	}
	if err != nil {
		return fmt.Errorf("review: duplicate check: %w", err)
	}
	if exists {
		return &ConflictError{Rule: t.Rule()}
	}
	return nil
}

// SelectRating starts a draft for target, replacing any draft the user had.
func (s *Service) SelectRating(ctx context.Context, userID int64, t Target, rating int) (session.PendingReview, error) {
	if err := validRating(rating); err != nil {
		return session.PendingReview{}, fmt.Errorf("review: rating: %w", err)
	}
	if err := validTarget(t); err != nil {
		return session.PendingReview{}, fmt.Errorf("review: target: %w", err)
	}
	p := session.PendingReview{
		UserID:    userID,
		Kind:      t.Kind,
		TargetID:  t.ID,
		OrderID:   t.OrderID,
		Rating:    rating,
		UpdatedAt: s.now(),
	}
	if err := s.drafts.Put(ctx, userID, p); err != nil {
		return session.PendingReview{}, err
	}
	logger.Debug(ctx, "shop.review", "review.rating",
		slog.String("kind", string(t.Kind)),
		slog.Int64("target_id", t.ID),
		slog.Int("rating", rating),
	)
	return p, nil
}

// Active returns the user's draft.
func (s *Service) Active(ctx context.Context, userID int64) (session.PendingReview, bool) {
	p, ok, err := s.drafts.Get(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "shop.review", "draft.load", logger.Err(err))
		return session.PendingReview{}, false
	}
	return p, ok
}

// AddPhoto appends a photo file id to the draft.
func (s *Service) AddPhoto(ctx context.Context, userID int64, fileID string) (session.PendingReview, error) {
	p, err := s.drafts.Update(ctx, userID, func(p session.PendingReview) (session.PendingReview, error) {
		if len(p.Photos) >= MaxPhotos {
			return p, ErrTooManyPhotos
		}
		p.Photos = append(append([]string(nil), p.Photos...), fileID)
		p.UpdatedAt = s.now()
		return p, nil
	})
	if errors.Is(err, session.ErrMissing) {
		return session.PendingReview{}, ErrNoDraft
	}
	return p, err
}

// Finalize saves the draft with text. The draft is consumed up front, so a
// duplicate submission finds no draft. A conflict discards the draft; a store
// failure puts it back for another attempt.
func (s *Service) Finalize(ctx context.Context, userID int64, text string) (domain.Review, error) {
	p, err := s.drafts.Take(ctx, userID, nil)
	if errors.Is(err, session.ErrMissing) {
		return domain.Review{}, ErrNoDraft
	}
	if err != nil {
		return domain.Review{}, err
	}

	d := Draft{Target: targetOf(p), Rating: p.Rating, Text: cleanText(text), Photos: p.Photos}
	if err := d.Validate(); err != nil {
		s.restore(ctx, p)
		return domain.Review{}, fmt.Errorf("review: invalid draft: %w", err)
	}
	if err := s.Check(ctx, userID, d.Target); err != nil {
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			s.restore(ctx, p)
		}
		return domain.Review{}, err
	}

	r := domain.Review{
		UserID:    userID,
		ProductID: d.Target.ProductID(),
		OrderID:   d.Target.Order(),
		Rating:    d.Rating,
		Photos:    domain.Photos(d.Photos),
	}
	if d.Text != "" {
		r.Text = &d.Text
	}
	saved, err := s.store.Create(ctx, r)
	if errors.Is(err, ErrDuplicate) {
		return domain.Review{}, &ConflictError{Rule: d.Target.Rule()}
	}
	if err != nil {
		s.restore(ctx, p)
		return domain.Review{}, fmt.Errorf("review: save: %w", err)
	}
	logger.Info(ctx, "shop.review", "review.save",
		slog.Int64("review_id", saved.ID),
		slog.String("kind", string(p.Kind)),
		slog.Int("rating", saved.Rating),
		slog.Int("photos", len(saved.Photos)),
	)
	return saved, nil
}

// Discard drops the user's draft.
func (s *Service) Discard(ctx context.Context, userID int64) error {
	return s.drafts.Delete(ctx, userID)
}

func (s *Service) restore(ctx context.Context, p session.PendingReview) {
	if _, err := s.drafts.PutIfAbsent(ctx, p.UserID, p); err != nil {
		logger.Warn(ctx, "shop.review", "draft.restore", logger.Err(err))
	}
}
