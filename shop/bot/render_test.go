package bot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/grocerybot/shop/cart"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/review"
	"github.com/m3rciful/grocerybot/shop/session"
)

func cartOf(minOrder int64, lines ...domain.CartLine) cart.View {
	v := cart.View{Lines: lines, MinOrder: decimal.NewFromInt(minOrder), Total: decimal.Zero}
	for _, l := range lines {
		v.Total = v.Total.Add(l.Subtotal())
		v.Count += l.Quantity
	}
	return v
}

func TestCartViewControls(t *testing.T) {
	line := domain.CartLine{ID: 7, Quantity: 3, Product: domain.Product{
		Name: "Огурцы", Price: decimal.NewFromInt(600), Unit: "кг",
	}}

	text, markup := CartView(cartOf(1500, line), "")
	containsAll(t, text, "Огурцы", "600 ₽ × 3 кг = 1800 ₽", "Итого: 1800 ₽")
	assert.NotContains(t, text, "Не хватает")
	for _, unique := range []string{cbCartDec, cbCartQty, cbCartInc, cbCartRm, cbCheckout, cbCartClear} {
		btn, ok := findButton(markup, unique)
		require.True(t, ok, unique)
		if unique != cbCheckout && unique != cbCartClear {
			assert.Equal(t, "7", btn.Data)
		}
	}
	_, ok := findButton(markup, cbCheckoutZone)
	assert.False(t, ok)
}

func TestCartViewBelowMinimum(t *testing.T) {
	line := domain.CartLine{ID: 1, Quantity: 1, Product: domain.Product{Name: "Хлеб", Price: decimal.NewFromInt(60)}}

	text, markup := CartView(cartOf(1500, line), "Пригород")
	assert.Contains(t, text, "Заказ доступен от 1500 ₽. Не хватает: 1440 ₽")
	_, ok := findButton(markup, cbCheckout)
	assert.False(t, ok)
	_, ok = findButton(markup, cbCheckoutZone)
	assert.True(t, ok)
}

func TestEmptyCartView(t *testing.T) {
	text, markup := CartView(cartOf(1500), "Пригород")
	assert.Contains(t, text, "корзина пуста")
	_, ok := findButton(markup, cbCheckoutZone)
	assert.False(t, ok)
}

func TestRatingViewPayloads(t *testing.T) {
	orderID := int64(12)
	_, markup := RatingView(review.Target{Kind: session.ReviewProduct, ID: 4, OrderID: &orderID})

	var payloads []string
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.Unique == cbReviewStar {
				payloads = append(payloads, b.Data)
			}
		}
	}
	assert.Equal(t, []string{
		"product:4:12:1", "product:4:12:2", "product:4:12:3", "product:4:12:4", "product:4:12:5",
	}, payloads)

	parts := []string{"product", "4", "12"}
	target, ok := parseTarget(parts)
	require.True(t, ok)
	require.NotNil(t, target.OrderID)
	assert.Equal(t, int64(12), *target.OrderID)

	_, ok = parseTarget([]string{"shop", "4", "0"})
	assert.False(t, ok)
	_, ok = parseTarget([]string{"order", "0", "0"})
	assert.False(t, ok)
}

func TestPlural(t *testing.T) {
	forms := func(n int) string { return plural(n, "отзыв", "отзыва", "отзывов") }
	assert.Equal(t, "отзыв", forms(1))
	assert.Equal(t, "отзыва", forms(3))
	assert.Equal(t, "отзывов", forms(5))
	assert.Equal(t, "отзывов", forms(11))
	assert.Equal(t, "отзыв", forms(21))
	assert.Equal(t, "отзывов", forms(112))
}

func TestProductViewHidesAddWhenUnavailable(t *testing.T) {
	p := domain.Product{ID: 3, Name: "Мед", Price: decimal.NewFromInt(900), IsAvailable: false}
	text, markup := ProductView(p, domain.RatingStats{Average: decimal.RequireFromString("4.5"), Count: 2})
	containsAll(t, text, "Рейтинг: 4.5 (2 отзыва)", "Доступен: ❌ Нет")
	_, ok := findButton(markup, cbAdd)
	assert.False(t, ok)
	btn, ok := findButton(markup, cbReviewPick)
	require.True(t, ok)
	assert.Equal(t, "product:3:0", btn.Data)
}
