package bot

import (
	"cmp"
	"errors"
	"slices"

	"github.com/m3rciful/grocerybot/core/logger"
	"github.com/m3rciful/grocerybot/core/telegram/callbacks"
	"github.com/m3rciful/grocerybot/shop/domain"

	tele "gopkg.in/telebot.v4"
)

const missingText = "❌ Не найдено. Возможно, раздел был удален."

// OnCatalog lists the categories.
func (h *Handlers) OnCatalog(c tele.Context) error {
	cats, err := h.svc.Store.Categories(ctxOf(c))
	if err != nil {
		return h.failed(c, "catalog.load", err)
	}
	text, markup := CatalogView(cats)
	return show(c, text, markup)
}

// OnCategory shows a category with its subcategories and loose products.
func (h *Handlers) OnCategory(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return toast(c, missingText, false)
	}
	ctx := ctxOf(c)
	cat, err := h.svc.Store.Category(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return toast(c, missingText, false)
	}
	if err != nil {
		return h.failed(c, "catalog.category", err)
	}
	subs, err := h.svc.Store.Subcategories(ctx, id)
	if err != nil {
		return h.failed(c, "catalog.subcategories", err)
	}
	products, err := h.svc.Store.ProductsByCategory(ctx, id)
	if err != nil {
		return h.failed(c, "catalog.products", err)
	}
	text, markup := CategoryView(cat, subs, byName(products))
	return show(c, text, markup)
}

// OnSubcategory lists the products of a subcategory.
func (h *Handlers) OnSubcategory(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return toast(c, missingText, false)
	}
	ctx := ctxOf(c)
	sub, err := h.svc.Store.Subcategory(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return toast(c, missingText, false)
	}
	if err != nil {
		return h.failed(c, "catalog.subcategory", err)
	}
	products, err := h.svc.Store.ProductsBySubcategory(ctx, id)
	if err != nil {
		return h.failed(c, "catalog.products", err)
	}
	text, markup := SubcategoryView(sub, byName(products))
	return show(c, text, markup)
}

// OnProduct shows a product card.
func (h *Handlers) OnProduct(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return toast(c, missingText, false)
	}
	ctx := ctxOf(c)
	p, err := h.svc.Store.Product(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return toast(c, missingText, false)
	}
	if err != nil {
		return h.failed(c, "catalog.product", err)
	}
	stats, err := h.svc.Store.ProductStats(ctx, id)
	if err != nil {
		logger.Warn(ctx, "shop.bot", "review.stats", logger.Err(err))
	}
	text, markup := ProductView(p, stats)
	return show(c, text, markup)
}

func byName(products []domain.Product) []domain.Product {
	out := slices.Clone(products)
	slices.SortFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
