package bot

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/m3rciful/grocerybot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/grocerybot/core/telegram/helpers"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/review"
	"github.com/m3rciful/grocerybot/shop/session"

	tele "gopkg.in/telebot.v4"
)

// parseTarget reads "kind:target:order" from the front of a payload.
func parseTarget(parts []string) (review.Target, bool) {
	if len(parts) < 3 {
		return review.Target{}, false
	}
	kind := session.ReviewKind(parts[0])
	targetID, err1 := strconv.ParseInt(parts[1], 10, 64)
	orderID, err2 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil || targetID <= 0 {
		return review.Target{}, false
	}
	t := review.Target{Kind: kind, ID: targetID}
	switch kind {
	case session.ReviewOrder:
	case session.ReviewProduct:
		if orderID > 0 {
			t.OrderID = &orderID
		}
	default:
		return review.Target{}, false
	}
	return t, true
}

// checkTarget verifies that the order behind t belongs to u and holds the product.
func (h *Handlers) checkTarget(c tele.Context, u domain.User, t review.Target) (bool, error) {
	orderID := t.Order()
	if orderID == nil {
		return true, nil
	}
	o, found, err := h.ownOrder(c, u, *orderID)
	if !found {
		return false, err
	}
	if t.Kind == session.ReviewProduct && !slices.ContainsFunc(o.Lines, func(l domain.OrderLine) bool {
		return l.ProductID == t.ID
	}) {
		return false, toast(c, missingText, true)
	}
	return true, nil
}

// OnReviewPick opens the rating keyboard for a product or an order.
func (h *Handlers) OnReviewPick(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	parts, _ := callbacks.PayloadParts(c, 3)
	t, valid := parseTarget(parts)
	if !valid {
		return toast(c, missingText, false)
	}
	if ok, err := h.checkTarget(c, u, t); !ok {
		return err
	}
	if err := h.svc.Reviews.Check(ctxOf(c), u.ID, t); err != nil {
		return h.reviewError(c, err)
	}
	text, markup := RatingView(t)
	return tghelpers.SendMD(c, text, markup)
}

// OnReviewStar stores the selected rating and waits for text or photos.
func (h *Handlers) OnReviewStar(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	parts, _ := callbacks.PayloadParts(c, 4)
	t, valid := parseTarget(parts)
	if !valid {
		return toast(c, missingText, false)
	}
	rating, err := strconv.Atoi(parts[3])
	if err != nil {
		return toast(c, missingText, false)
	}
	if ok, err := h.checkTarget(c, u, t); !ok {
		return err
	}
	p, err := h.svc.Reviews.SelectRating(ctxOf(c), u.ID, t, rating)
	if err != nil {
		return h.reviewError(c, err)
	}
	text, markup := CollectingView(p)
	return show(c, text, markup)
}

// OnReviewSave saves the draft without text.
func (h *Handlers) OnReviewSave(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	return h.finalizeReview(c, u, "")
}

// OnReviewCancel drops the draft.
func (h *Handlers) OnReviewCancel(c tele.Context) error {
	u, ok, err := h.customer(c)
	if !ok {
		return err
	}
	if err := h.svc.Reviews.Discard(ctxOf(c), u.ID); err != nil {
		return h.failed(c, "review.discard", err)
	}
	_ = toast(c, "Отзыв отменен", false)
	return h.showMenu(c, u)
}

// reviewInput consumes text or a photo sent while a draft is active.
// A photo with a caption finalizes the draft like text does.
func (h *Handlers) reviewInput(c tele.Context, u domain.User) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	if msg.Photo == nil {
		return h.finalizeReview(c, u, c.Text())
	}
	caption := strings.TrimSpace(msg.Caption)
	p, err := h.svc.Reviews.AddPhoto(ctxOf(c), u.ID, msg.Photo.FileID)
	if errors.Is(err, review.ErrTooManyPhotos) && caption != "" {
		return h.finalizeReview(c, u, caption)
	}
	if err != nil {
		return h.reviewError(c, err)
	}
	if caption != "" {
		return h.finalizeReview(c, u, caption)
	}
	text, markup := CollectingView(p)
	return tghelpers.SendMD(c, text, markup)
}

func (h *Handlers) finalizeReview(c tele.Context, u domain.User, text string) error {
	saved, err := h.svc.Reviews.Finalize(ctxOf(c), u.ID, text)
	if err != nil {
		return h.reviewError(c, err)
	}
	_ = toast(c, "✅ Отзыв сохранен", false)
	reply, markup := ReviewSavedView(saved)
	return show(c, reply, markup)
}

func (h *Handlers) reviewError(c tele.Context, err error) error {
	var (
		conflict *review.ConflictError
		invalid  validation.Errors
	)
	switch {
	case errors.As(err, &conflict):
		return h.notice(c, ConflictText(conflict.Rule))
	case errors.Is(err, review.ErrNoDraft):
		return h.notice(c, "⭐ Сначала выберите оценку.")
	case errors.As(err, &invalid):
		return h.notice(c, "❌ Текст отзыва должен быть не длиннее "+strconv.Itoa(review.MaxTextLen)+" символов.")
	case errors.Is(err, review.ErrTooManyPhotos):
		return h.notice(c, "❌ Можно прикрепить не больше "+strconv.Itoa(review.MaxPhotos)+" фото. Напишите текст отзыва или сохраните его.")
	}
	return h.failed(c, "review", err)
}
