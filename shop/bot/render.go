package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/grocerybot/core/telegram/callbacks"
	"github.com/m3rciful/grocerybot/core/telegram/format"
	"github.com/m3rciful/grocerybot/core/telegram/keyboard"
	"github.com/m3rciful/grocerybot/shop/cart"
	"github.com/m3rciful/grocerybot/shop/checkout"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/review"
	"github.com/m3rciful/grocerybot/shop/session"

	tele "gopkg.in/telebot.v4"
)

const (
	sharePhoneLabel = "📱 Поделиться номером телефона"
	blockedText     = "❌ Ваш аккаунт заблокирован. Обратитесь к администратору."
	restartText     = "❌ Произошла ошибка. Попробуйте оформить заказ заново."
	placeFailedText = "❌ Ошибка при создании заказа. Попробуйте еще раз."
	genericFailText = "❌ Произошла ошибка. Попробуйте еще раз."
	notRegistered   = "👋 Похоже, мы еще не знакомы. Напишите /start, чтобы начать."
	dateLayout      = "02.01.2006"
)

var (
	btnMenu    = keyboard.Btn("🏠 Главное меню", cbMenu)
	btnBack    = keyboard.Btn("🔙 Назад в меню", cbMenu)
	btnCatalog = keyboard.Btn("🛒 Перейти в каталог", cbCatalog)
	btnOrders  = keyboard.Btn("📋 Мои заказы", cbOrders)
)

// MainMenuText greets a registered customer.
func MainMenuText(u domain.User) string {
	return fmt.Sprintf("🎉 Отлично, %s!\n\nДобро пожаловать в наш магазин продуктов! 🛒\n\nВыберите действие:",
		format.MD(u.FirstName))
}

// MainMenuKeyboard shows the storefront sections; count is the number of items in the cart.
func MainMenuKeyboard(count int) *tele.ReplyMarkup {
	cartLabel := "🛍 Корзина"
	if count > 0 {
		cartLabel = fmt.Sprintf("🛍 Корзина (%d)", count)
	}
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		keyboard.Btn("🛒 Каталог товаров", cbCatalog),
		keyboard.Btn(cartLabel, cbCart),
		btnOrders,
		keyboard.Btn("ℹ️ О нас", cbAbout),
		keyboard.Btn("📞 Поддержка", cbSupport),
	})
}

// WelcomeText asks a customer without a phone to share it.
func WelcomeText(name string, returning bool) string {
	greet := "👋 Привет"
	if returning {
		greet = "👋 Снова привет"
	}
	return fmt.Sprintf("%s, %s!\n\nДля продолжения работы мне нужен ваш номер телефона.\n"+
		"Пожалуйста, нажмите кнопку ниже и поделитесь номером телефона.", greet, format.MD(name))
}

// CatalogView lists active categories.
func CatalogView(cats []domain.Category) (string, *tele.ReplyMarkup) {
	if len(cats) == 0 {
		return "📦 Каталог пуст. Товары скоро появятся!", keyboard.InlineButtons([]keyboard.InlineBtn{btnBack})
	}
	btns := make([]keyboard.InlineBtn, 0, len(cats)+1)
	for _, c := range cats {
		btns = append(btns, keyboard.Btn(c.Title(), cbCat, id(c.ID)))
	}
	btns = append(btns, btnBack)
	return "*🛍 Каталог товаров*\n\nВыберите категорию:", keyboard.InlineButtons(btns)
}

// CategoryView shows subcategories and the loose products of a category, two products per row.
func CategoryView(c domain.Category, subs []domain.Subcategory, products []domain.Product) (string, *tele.ReplyMarkup) {
	var b strings.Builder
	b.WriteString("*" + format.MD(c.Title()) + "*\n\n")
	var rows [][]keyboard.InlineBtn
	if len(subs) > 0 {
		b.WriteString("Подкатегории:\n")
		for _, s := range subs {
			rows = append(rows, keyboard.Row(keyboard.Btn("📁 "+s.Name, cbSub, id(s.ID))))
		}
	}
	if len(products) > 0 {
		if len(subs) > 0 {
			b.WriteString("\nТовары в категории:\n")
		}
		rows = append(rows, keyboard.Chunk(productButtons(products), 2)...)
	}
	if len(subs) == 0 && len(products) == 0 {
		b.WriteString("В этой категории пока нет товаров.")
	}
	rows = append(rows, keyboard.Row(keyboard.Btn("🔙 Назад в каталог", cbCatalog)))
	return b.String(), keyboard.InlineButtonsRows(rows...)
}

// SubcategoryView lists the products of a subcategory.
func SubcategoryView(s domain.Subcategory, products []domain.Product) (string, *tele.ReplyMarkup) {
	back := keyboard.Btn("🔙 Назад к категории", cbCat, id(s.CategoryID))
	if len(products) == 0 {
		return fmt.Sprintf("📁 %s\n\nВ этой подкатегории пока нет товаров.", format.MD(s.Name)),
			keyboard.InlineButtonsRows(keyboard.Row(back), keyboard.Row(btnMenu))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*🛒 %s*\n\n", format.MD(s.Name))
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s\n   💰 %s / %s\n", i+1, format.MD(p.Name), domain.FormatMoney(p.Price), format.MD(p.UnitLabel()))
	}
	rows := keyboard.Chunk(productButtons(products), 2)
	rows = append(rows, keyboard.Row(back), keyboard.Row(btnMenu))
	return b.String(), keyboard.InlineButtonsRows(rows...)
}

func productButtons(products []domain.Product) []keyboard.InlineBtn {
	btns := make([]keyboard.InlineBtn, 0, len(products))
	for _, p := range products {
		btns = append(btns, keyboard.Btn("🛒 "+p.Name, cbProduct, id(p.ID)))
	}
	return btns
}

// ProductView renders a product card with its rating.
func ProductView(p domain.Product, stats domain.RatingStats) (string, *tele.ReplyMarkup) {
	var b strings.Builder
	fmt.Fprintf(&b, "*🛍 %s*\n\n", format.MD(p.Name))
	fmt.Fprintf(&b, "💰 Цена: %s / %s\n", domain.FormatMoney(p.Price), format.MD(p.UnitLabel()))
	if p.QuantityStep() > 1 || p.MinimumQuantity() > 1 {
		fmt.Fprintf(&b, "📏 Шаг: %d %s, минимум: %d %s\n",
			p.QuantityStep(), format.MD(p.UnitLabel()), p.MinimumQuantity(), format.MD(p.UnitLabel()))
	}
	if p.Description != nil && *p.Description != "" {
		fmt.Fprintf(&b, "\n📝 Описание:\n%s\n", format.MD(*p.Description))
	}
	if stats.Count > 0 {
		fmt.Fprintf(&b, "\n⭐ Рейтинг: %s (%d %s)\n", stats.Average.StringFixed(1), stats.Count, plural(stats.Count, "отзыв", "отзыва", "отзывов"))
	}
	avail := "✅ Да"
	if !p.IsAvailable {
		avail = "❌ Нет"
	}
	fmt.Fprintf(&b, "\n📦 Доступен: %s", avail)

	back := keyboard.Btn("🔙 Назад к товарам", cbCat, id(p.CategoryID))
	if p.SubcategoryID != nil {
		back = keyboard.Btn("🔙 Назад к товарам", cbSub, id(*p.SubcategoryID))
	}
	var rows [][]keyboard.InlineBtn
	if p.IsAvailable {
		rows = append(rows, keyboard.Row(keyboard.Btn("🛒 Добавить в корзину", cbAdd, id(p.ID))))
	}
	rows = append(rows,
		keyboard.Row(keyboard.Btn("⭐ Оставить отзыв", cbReviewPick, reviewPayload(session.ReviewProduct, p.ID, 0))),
		keyboard.Row(back),
		keyboard.Row(btnMenu),
	)
	return b.String(), keyboard.InlineButtonsRows(rows...)
}

// CartView renders the cart with per-line controls and the checkout entry points.
// bypassZone adds the minimum-waiving entry point when set.
func CartView(v cart.View, bypassZone string) (string, *tele.ReplyMarkup) {
	if v.Empty() {
		return "🛒 Ваша корзина пуста\n\nДобавьте товары из каталога!",
			keyboard.InlineButtonsRows(keyboard.Row(btnCatalog), keyboard.Row(btnMenu))
	}
	var b strings.Builder
	b.WriteString("*🛍 Ваша корзина:*\n\n")
	for i, l := range v.Lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, format.MD(l.Product.Name))
		fmt.Fprintf(&b, "   💰 %s × %d %s = %s\n", domain.FormatMoney(l.Product.Price), l.Quantity,
			format.MD(l.Product.UnitLabel()), domain.FormatMoney(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\n💳 Итого: %s", domain.FormatMoney(v.Total))
	if !v.CanCheckout() {
		fmt.Fprintf(&b, "\n\n⚠️ Заказ доступен от %s. Не хватает: %s",
			domain.FormatMoney(v.MinOrder), domain.FormatMoney(v.Shortfall()))
	}

	rows := make([][]keyboard.InlineBtn, 0, 2*len(v.Lines)+4)
	for _, l := range v.Lines {
		line := id(l.ID)
		rows = append(rows,
			keyboard.Row(
				keyboard.Btn("−", cbCartDec, line),
				keyboard.Btn(strconv.Itoa(l.Quantity), cbCartQty, line),
				keyboard.Btn("+", cbCartInc, line),
			),
			keyboard.Row(keyboard.Btn("🗑 "+l.Product.Name, cbCartRm, line)),
		)
	}
	clear := keyboard.Btn("🗑 Очистить корзину", cbCartClear)
	if v.CanCheckout() {
		rows = append(rows, keyboard.Row(keyboard.Btn("✅ Оформить заказ", cbCheckout), clear))
	} else {
		rows = append(rows, keyboard.Row(clear))
	}
	if bypassZone != "" {
		rows = append(rows, keyboard.Row(keyboard.Btn("🚚 Оформить для зоны «"+bypassZone+"»", cbCheckoutZone)))
	}
	rows = append(rows, keyboard.Row(keyboard.Btn("🛒 Продолжить покупки", cbCatalog), btnMenu))
	return b.String(), keyboard.InlineButtonsRows(rows...)
}

// ShortfallView explains that the cart total is under the minimum order amount.
func ShortfallView(e *checkout.ShortfallError) (string, *tele.ReplyMarkup) {
	return fmt.Sprintf("❌ Заказ доступен от %s\n\nВаша сумма: %s\nНе хватает: %s",
		domain.FormatMoney(e.Minimum), domain.FormatMoney(e.Total), domain.FormatMoney(e.Shortfall())),
		keyboard.InlineButtonsRows(
			keyboard.Row(btnCatalog),
			keyboard.Row(keyboard.Btn("🛍 Моя корзина", cbCart)),
		)
}

func writeLines(b *strings.Builder, lines []session.Line) {
	for i, l := range lines {
		fmt.Fprintf(b, "%d. %s\n", i+1, format.MD(l.Name))
		fmt.Fprintf(b, "   💰 %s × %d %s = %s\n\n", domain.FormatMoney(l.Price), l.Quantity, format.MD(l.Unit), domain.FormatMoney(l.Total()))
	}
}

// AddressPrompt asks for the delivery address of a fresh checkout session.
func AddressPrompt(s session.Checkout, u domain.User) (string, *tele.ReplyMarkup) {
	var b strings.Builder
	b.WriteString("*🏠 Введите адрес доставки*\n\n")
	if s.Zone != "" {
		fmt.Fprintf(&b, "🚚 Зона доставки: %s\n", format.MD(s.Zone))
	}
	fmt.Fprintf(&b, "📞 Телефон: %s\n\n🛍 Ваш заказ:\n\n", domain.FormatUserPhone(u))
	writeLines(&b, s.Lines)
	fmt.Fprintf(&b, "💳 Итого: %s\n\n", domain.FormatMoney(s.Total))
	b.WriteString("📍 Пожалуйста, введите адрес доставки в следующем сообщении:")
	return b.String(), keyboard.InlineButtonsRows(
		keyboard.Row(keyboard.Btn("🔙 Вернуться в корзину", cbCancel)),
		keyboard.Row(btnMenu),
	)
}

// ConfirmationView itemizes the order for confirmation. The confirm button carries the session generation.
func ConfirmationView(s session.Checkout, u domain.User) (string, *tele.ReplyMarkup) {
	var b strings.Builder
	b.WriteString("*✅ Подтверждение заказа*\n\n")
	fmt.Fprintf(&b, "📞 Телефон: %s\n", domain.FormatUserPhone(u))
	fmt.Fprintf(&b, "📍 Адрес: %s\n", format.MD(s.Address))
	if s.Zone != "" {
		fmt.Fprintf(&b, "🚚 Зона доставки: %s\n", format.MD(s.Zone))
	}
	b.WriteString("\n🛍 Ваш заказ:\n\n")
	writeLines(&b, s.Lines)
	fmt.Fprintf(&b, "💳 Итого: %s\n\n", domain.FormatMoney(s.Total))
	b.WriteString("Подтвердите заказ или вернитесь для изменений.")
	return b.String(), keyboard.InlineButtonsRows(
		keyboard.Row(keyboard.Btn("✅ Подтвердить заказ", cbConfirm, s.Generation.String())),
		keyboard.Row(keyboard.Btn("✏️ Изменить адрес", cbEditAddress)),
		keyboard.Row(keyboard.Btn("❌ Отменить", cbCancel)),
	)
}

// OrderPlacedText is the customer's order message. It is later kept in sync with the order status.
func OrderPlacedText(o domain.Order, u domain.User) string {
	var b strings.Builder
	b.WriteString("*🎉 Заказ успешно оформлен!*\n\n")
	fmt.Fprintf(&b, "📋 Номер заказа: #%d\n", o.ID)
	fmt.Fprintf(&b, "💰 Сумма: %s\n", domain.FormatMoney(o.TotalPrice))
	fmt.Fprintf(&b, "📞 Телефон: %s\n", domain.FormatUserPhone(u))
	fmt.Fprintf(&b, "📍 Адрес: %s\n\n", format.MD(o.Address))
	fmt.Fprintf(&b, "⏳ Статус: %s\n\n", o.Status.Label())
	b.WriteString("Мы свяжемся с вами для подтверждения заказа.")
	return b.String()
}

// StatusText renders the synced status message of an order.
func StatusText(o domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*📦 Заказ #%d*\n\n", o.ID)
	fmt.Fprintf(&b, "💰 Сумма: %s\n", domain.FormatMoney(o.TotalPrice))
	fmt.Fprintf(&b, "📍 Адрес: %s\n\n", format.MD(o.Address))
	fmt.Fprintf(&b, "📊 Статус: %s", o.Status.Label())
	return b.String()
}

func statusKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(keyboard.Row(btnOrders), keyboard.Row(btnMenu))
}

// OrderPlacedKeyboard follows the order message.
func OrderPlacedKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		keyboard.Row(btnOrders),
		keyboard.Row(keyboard.Btn("🛒 Продолжить покупки", cbCatalog)),
		keyboard.Row(btnMenu),
	)
}

// AdminOrderText is the operator notice about a new order.
func AdminOrderText(o domain.Order, customer domain.User) string {
	var b strings.Builder
	b.WriteString("*🆕 Новый заказ!*\n\n")
	fmt.Fprintf(&b, "📋 Заказ #%d\n", o.ID)
	fmt.Fprintf(&b, "👤 Пользователь: %s\n", format.MD(customer.DisplayName()))
	fmt.Fprintf(&b, "📱 Телефон: %s\n", domain.FormatUserPhone(customer))
	fmt.Fprintf(&b, "💰 Сумма: %s\n", domain.FormatMoney(o.TotalPrice))
	fmt.Fprintf(&b, "📍 Адрес: %s\n\n", format.MD(o.Address))
	b.WriteString("Проверьте админку для подробностей.")
	return b.String()
}

// OrdersView lists the customer's orders.
func OrdersView(orders []domain.Order, loc *time.Location) (string, *tele.ReplyMarkup) {
	if len(orders) == 0 {
		return "*📋 Ваши заказы*\n\nУ вас пока нет заказов.\nНачните покупки прямо сейчас!",
			keyboard.InlineButtonsRows(keyboard.Row(btnCatalog), keyboard.Row(btnBack))
	}
	var b strings.Builder
	b.WriteString("*📋 Ваши заказы*\n\n")
	btns := make([]keyboard.InlineBtn, 0, len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "📦 Заказ #%d от %s\n", o.ID, o.CreatedAt.In(loc).Format(dateLayout))
		fmt.Fprintf(&b, "💰 Сумма: %s\n📊 Статус: %s\n\n", domain.FormatMoney(o.TotalPrice), o.Status.Label())
		btns = append(btns, keyboard.Btn(fmt.Sprintf("📦 #%d", o.ID), cbOrder, id(o.ID)))
	}
	rows := keyboard.Chunk(btns, 3)
	rows = append(rows, keyboard.Row(btnCatalog), keyboard.Row(btnBack))
	return b.String(), keyboard.InlineButtonsRows(rows...)
}

// OrderView shows one order with review entry points for the order and every product in it.
func OrderView(o domain.Order, loc *time.Location) (string, *tele.ReplyMarkup) {
	var b strings.Builder
	fmt.Fprintf(&b, "*📦 Заказ #%d*\n\n", o.ID)
	fmt.Fprintf(&b, "📅 Дата: %s\n", o.CreatedAt.In(loc).Format(dateLayout))
	fmt.Fprintf(&b, "📍 Адрес: %s\n", format.MD(o.Address))
	fmt.Fprintf(&b, "📊 Статус: %s\n\n", o.Status.Label())
	rows := make([][]keyboard.InlineBtn, 0, len(o.Lines)+3)
	if len(o.Lines) > 0 {
		b.WriteString("🛍 Товары:\n")
	}
	for i, l := range o.Lines {
		fmt.Fprintf(&b, "  %d. %s × %d = %s\n", i+1, format.MD(l.ProductName), l.Quantity, domain.FormatMoney(l.Total()))
		rows = append(rows, keyboard.Row(keyboard.Btn("⭐ "+l.ProductName, cbReviewPick,
			reviewPayload(session.ReviewProduct, l.ProductID, o.ID))))
	}
	fmt.Fprintf(&b, "\n💳 Итого: %s", domain.FormatMoney(o.TotalPrice))
	rows = append(rows,
		keyboard.Row(keyboard.Btn("⭐ Оценить заказ", cbReviewPick, reviewPayload(session.ReviewOrder, o.ID, 0))),
		keyboard.Row(keyboard.Btn("🔙 К заказам", cbOrders)),
		keyboard.Row(btnMenu),
	)
	return b.String(), keyboard.InlineButtonsRows(rows...)
}

// AdminOrdersText lists orders for operators.
func AdminOrdersText(title string, orders []domain.Order, loc *time.Location) string {
	if len(orders) == 0 {
		return title + "\n\nЗаказов нет."
	}
	var b strings.Builder
	b.WriteString(title + "\n\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "#%d · %s · %s · %s\n", o.ID, o.CreatedAt.In(loc).Format("02.01 15:04"),
			domain.FormatMoney(o.TotalPrice), o.Status.Label())
	}
	return b.String()
}

// RatingView asks for 1..5 stars.
func RatingView(t review.Target) (string, *tele.ReplyMarkup) {
	btns := make([]keyboard.InlineBtn, 0, 5)
	for r := 1; r <= 5; r++ {
		btns = append(btns, keyboard.Btn(strings.Repeat("⭐", r), cbReviewStar,
			reviewPayload(t.Kind, t.ID, format.Deref(t.OrderID, 0))+callbacks.Sep+strconv.Itoa(r)))
	}
	title := "товар"
	if t.Kind == session.ReviewOrder {
		title = "заказ"
	}
	rows := keyboard.Chunk(btns, 1)
	rows = append(rows, keyboard.Row(keyboard.Btn("❌ Отмена", cbReviewCancel)))
	return fmt.Sprintf("⭐ Оцените %s от 1 до 5:", title), keyboard.InlineButtonsRows(rows...)
}

// CollectingView follows a rating or a photo: the draft waits for text, photos or an explicit save.
func CollectingView(p session.PendingReview) (string, *tele.ReplyMarkup) {
	text := fmt.Sprintf("Ваша оценка: %s\n\n✍️ Напишите текст отзыва или отправьте фото (до %d).",
		strings.Repeat("⭐", p.Rating), review.MaxPhotos)
	if n := len(p.Photos); n > 0 {
		text += fmt.Sprintf("\n📷 Фото добавлено: %d/%d", n, review.MaxPhotos)
	}
	return text, keyboard.InlineButtonsRows(
		keyboard.Row(keyboard.Btn("💾 Сохранить без текста", cbReviewSave)),
		keyboard.Row(keyboard.Btn("❌ Отмена", cbReviewCancel)),
	)
}

// ReviewSavedView confirms a saved review and links back to where it came from.
func ReviewSavedView(r domain.Review) (string, *tele.ReplyMarkup) {
	back := keyboard.Btn("🔙 К заказам", cbOrders)
	switch {
	case r.OrderID != nil:
		back = keyboard.Btn("🔙 К заказу", cbOrder, id(*r.OrderID))
	case r.ProductID != nil:
		back = keyboard.Btn("🔙 К товару", cbProduct, id(*r.ProductID))
	}
	return "✅ Спасибо! Ваш отзыв сохранен.", keyboard.InlineButtonsRows(keyboard.Row(back), keyboard.Row(btnMenu))
}

// ConflictText explains which review already exists.
func ConflictText(rule review.Rule) string {
	switch rule {
	case review.RuleOrder:
		return "ℹ️ Вы уже оценили этот заказ."
	case review.RuleOrderProduct:
		return "ℹ️ Вы уже оставили отзыв на этот товар в этом заказе."
	default:
		return "ℹ️ Вы уже оставили отзыв на этот товар."
	}
}

func reviewPayload(kind session.ReviewKind, targetID, orderID int64) string {
	return string(kind) + callbacks.Sep + callbacks.Join(targetID, orderID)
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func plural(n int, one, few, many string) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return many
	}
	switch n % 10 {
	case 1:
		return one
	case 2, 3, 4:
		return few
	}
	return many
}
