package bot

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/review"
	"github.com/m3rciful/grocerybot/shop/session"

	tele "gopkg.in/telebot.v4"
)

func TestStartRegistersAndAsksForPhone(t *testing.T) {
	e := newEnv(t, testShop())
	c := message(100, "/start")

	require.NoError(t, e.h.OnStart(c))

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0].text, "номер телефона")
	require.NotNil(t, c.sent[0].markup)
	assert.NotEmpty(t, c.sent[0].markup.ReplyKeyboard)

	u, err := e.store.ByTelegramID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
}

func TestStartAssignsConfiguredRoles(t *testing.T) {
	e := newEnv(t, testShop())
	e.customer(ownerTelegramID)

	require.NoError(t, e.h.OnStart(message(ownerTelegramID, "/start")))
	require.NoError(t, e.h.OnStart(message(2, "/start")))

	owner, err := e.store.ByTelegramID(context.Background(), ownerTelegramID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, owner.Role)
	admin, err := e.store.ByTelegramID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestStartRefusesBlockedUser(t *testing.T) {
	e := newEnv(t, testShop())
	e.store.PutUser(domain.User{TelegramID: 100, FirstName: "Анна", IsActive: false, Role: domain.RoleUser})
	c := message(100, "/start")

	require.NoError(t, e.h.OnStart(c))
	assert.Equal(t, blockedText, c.last().text)
}

func TestContactStoresNormalizedPhone(t *testing.T) {
	e := newEnv(t, testShop())
	require.NoError(t, e.h.OnStart(message(100, "/start")))

	c := message(100, "")
	c.msg.Contact = &tele.Contact{PhoneNumber: "+8 912 345 67 89", UserID: 100}
	require.NoError(t, e.h.OnContact(c))

	u, err := e.store.ByTelegramID(context.Background(), 100)
	require.NoError(t, err)
	require.NotNil(t, u.Phone)
	assert.Equal(t, "79123456789", *u.Phone)
	require.Len(t, c.sent, 2)
	assert.Contains(t, c.sent[0].text, "+7 (912) 345-67-89")
	assert.Contains(t, c.sent[1].text, "Отлично")
}

func TestContactOfSomeoneElseIsRejected(t *testing.T) {
	e := newEnv(t, testShop())
	require.NoError(t, e.h.OnStart(message(100, "/start")))

	c := message(100, "")
	c.msg.Contact = &tele.Contact{PhoneNumber: "79000000000", UserID: 555}
	require.NoError(t, e.h.OnContact(c))

	u, err := e.store.ByTelegramID(context.Background(), 100)
	require.NoError(t, err)
	assert.False(t, u.HasPhone())
}

func TestBlockedUserCannotOpenCart(t *testing.T) {
	e := newEnv(t, testShop())
	e.store.PutUser(domain.User{TelegramID: 100, FirstName: "Анна", IsActive: false, Role: domain.RoleUser})
	c := press(100, cbCart, "")

	require.NoError(t, answered(e.h.OnCart)(c))

	require.Len(t, c.responses, 1)
	assert.Equal(t, blockedText, c.responses[0].Text)
	assert.True(t, c.responses[0].ShowAlert)
	assert.Empty(t, c.edits)
}

func TestCartButtonsFollowStepAndMinimum(t *testing.T) {
	e := newEnv(t, testShop())
	u := e.customer(100)
	p := e.product("Черешня", 500, 2, 4)
	ctx := context.Background()

	c := press(100, cbAdd, id64(p.ID))
	require.NoError(t, e.h.OnAdd(c))
	containsAll(t, c.last().text, "Черешня", "× 4 кг", "Итого: 2000 ₽")

	line, found, err := e.store.LineByProduct(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.True(t, found)

	c = press(100, cbCartInc, id64(line.ID))
	require.NoError(t, e.h.OnCartInc(c))
	assert.Contains(t, c.last().text, "× 6 кг")

	c = press(100, cbCartDec, id64(line.ID))
	require.NoError(t, e.h.OnCartDec(c))
	assert.Contains(t, c.last().text, "× 4 кг")

	c = press(100, cbCartDec, id64(line.ID))
	require.NoError(t, e.h.OnCartDec(c))
	assert.Equal(t, "❌ Минимальное количество: 4 кг", c.toast())
	assert.Empty(t, c.edits)

	line, err = e.store.Line(ctx, u.ID, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, line.Quantity)

	c = press(100, cbCartRm, id64(line.ID))
	require.NoError(t, e.h.OnCartRemove(c))
	assert.Contains(t, c.last().text, "корзина пуста")

	c = press(100, cbCartDec, id64(line.ID))
	require.NoError(t, e.h.OnCartDec(c))
	assert.Equal(t, "Товар уже удален из корзины", c.toast())
}

func TestCartViewWarnsBelowMinimum(t *testing.T) {
	e := newEnv(t, testShop())
	e.customer(100)
	p := e.product("Укроп", 100, 1, 1)

	c := press(100, cbAdd, id64(p.ID))
	require.NoError(t, e.h.OnAdd(c))

	view := c.last()
	assert.Contains(t, view.text, "Заказ доступен от 1500 ₽")
	_, ok := findButton(view.markup, cbCheckout)
	assert.False(t, ok)
	_, ok = findButton(view.markup, cbCheckoutZone)
	assert.False(t, ok)
}

func TestCheckoutPlacesOrderAndSyncsStatus(t *testing.T) {
	e := newEnv(t, testShop())
	ctx := context.Background()
	u := e.customer(100)
	e.store.PutUser(domain.User{TelegramID: 2, FirstName: "Админ", Role: domain.RoleAdmin, IsActive: true})
	p := e.product("Яблоки", 1000, 1, 1)

	require.NoError(t, e.h.OnAdd(press(100, cbAdd, id64(p.ID))))
	require.NoError(t, e.h.OnAdd(press(100, cbAdd, id64(p.ID))))

	c := press(100, cbCheckout, "")
	require.NoError(t, e.h.OnCheckout(c))
	containsAll(t, c.last().text, "Введите адрес доставки", "+7 (912) 345-67-89", "2000 ₽")
	assert.True(t, e.dialog.InProgress(ctx, 100))

	c = message(100, "ул. Ленина, 1")
	require.NoError(t, e.dialog.ManagerHandler(c))
	confirm := c.last()
	containsAll(t, confirm.text, "Подтверждение заказа", "ул. Ленина, 1", "Итого: 2000 ₽")
	assert.False(t, e.dialog.InProgress(ctx, 100))

	btn, ok := findButton(confirm.markup, cbConfirm)
	require.True(t, ok)

	c = press(100, cbConfirm, btn.Data)
	require.NoError(t, e.h.OnConfirm(c))
	containsAll(t, c.last().text, "Заказ успешно оформлен", "Ожидает подтверждения")

	orders, err := e.store.OrdersForUser(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	order := orders[0]
	assert.Equal(t, "2000", order.TotalPrice.String())

	lines, err := e.store.Lines(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	ref, linked, err := e.sessions.Links.Get(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, linked)
	assert.Equal(t, session.MessageRef{ChatID: 100, MessageID: 77}, ref)

	require.Eventually(t, func() bool { return len(e.api.sentTo(2)) == 1 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, e.api.sentTo(2)[0].text, "Новый заказ")

	// The same confirm button again finds no session.
	c = press(100, cbConfirm, btn.Data)
	require.NoError(t, e.h.OnConfirm(c))
	assert.Equal(t, restartText, c.last().text)
	orders, err = e.store.OrdersForUser(ctx, u.ID, 0)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	admin := message(2, "/status")
	admin.msg.Payload = id64(order.ID) + " confirmed"
	require.NoError(t, e.h.OnStatus(admin))
	assert.Contains(t, admin.last().text, "сообщение клиента обновлено")

	e.api.mu.Lock()
	defer e.api.mu.Unlock()
	require.Len(t, e.api.edits, 1)
	assert.Equal(t, "100/77", e.api.edits[0].chat)
	assert.Contains(t, e.api.edits[0].text, "Подтвержден")
}

func TestCheckoutRetriesAfterFailedOrder(t *testing.T) {
	e := newEnv(t, testShop())
	ctx := context.Background()
	u := e.customer(100)
	p := e.product("Груши", 2000, 1, 1)
	require.NoError(t, e.h.OnAdd(press(100, cbAdd, id64(p.ID))))
	require.NoError(t, e.h.OnCheckout(press(100, cbCheckout, "")))
	c := message(100, "пр. Мира, 10")
	require.NoError(t, e.dialog.ManagerHandler(c))
	btn, ok := findButton(c.last().markup, cbConfirm)
	require.True(t, ok)

	e.store.FailPlaceOrder = assert.AnError
	c = press(100, cbConfirm, btn.Data)
	require.NoError(t, e.h.OnConfirm(c))
	assert.Equal(t, placeFailedText, c.toast())

	lines, err := e.store.Lines(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	e.store.FailPlaceOrder = nil
	c = press(100, cbConfirm, btn.Data)
	require.NoError(t, e.h.OnConfirm(c))
	assert.Contains(t, c.last().text, "Заказ успешно оформлен")
}

func TestCheckoutBelowMinimumShowsShortfall(t *testing.T) {
	e := newEnv(t, testShop())
	e.customer(100)
	p := e.product("Лук", 200, 1, 1)
	require.NoError(t, e.h.OnAdd(press(100, cbAdd, id64(p.ID))))

	c := press(100, cbCheckout, "")
	require.NoError(t, e.h.OnCheckout(c))
	containsAll(t, c.last().text, "Заказ доступен от 1500 ₽", "Ваша сумма: 200 ₽", "Не хватает: 1300 ₽")
	assert.False(t, e.dialog.InProgress(context.Background(), 100))
}

func TestCheckoutZoneWaivesMinimum(t *testing.T) {
	shop := testShop()
	shop.BypassZone = "Центр"
	e := newEnv(t, shop)
	e.customer(100)
	p := e.product("Лук", 200, 1, 1)

	c := press(100, cbAdd, id64(p.ID))
	require.NoError(t, e.h.OnAdd(c))
	_, ok := findButton(c.last().markup, cbCheckoutZone)
	require.True(t, ok)

	c = press(100, cbCheckoutZone, "")
	require.NoError(t, e.h.OnCheckoutZone(c))
	containsAll(t, c.last().text, "Введите адрес доставки", "Зона доставки: Центр")
	assert.True(t, e.dialog.InProgress(context.Background(), 100))
}

func TestInvalidAddressKeepsAskingForIt(t *testing.T) {
	e := newEnv(t, testShop())
	e.customer(100)
	p := e.product("Арбуз", 3000, 1, 1)
	require.NoError(t, e.h.OnAdd(press(100, cbAdd, id64(p.ID))))
	require.NoError(t, e.h.OnCheckout(press(100, cbCheckout, "")))

	c := message(100, "ab")
	require.NoError(t, e.dialog.ManagerHandler(c))
	assert.Contains(t, c.last().text, "от 5 до 500 символов")
	assert.True(t, e.dialog.InProgress(context.Background(), 100))
}

func TestEditAddressAndCancel(t *testing.T) {
	e := newEnv(t, testShop())
	ctx := context.Background()
	u := e.customer(100)
	p := e.product("Арбуз", 3000, 1, 1)
	require.NoError(t, e.h.OnAdd(press(100, cbAdd, id64(p.ID))))
	require.NoError(t, e.h.OnCheckout(press(100, cbCheckout, "")))
	require.NoError(t, e.dialog.ManagerHandler(message(100, "ул. Садовая, 5")))

	c := press(100, cbEditAddress, "")
	require.NoError(t, e.h.OnEditAddress(c))
	assert.Contains(t, c.last().text, "Введите адрес доставки")
	assert.True(t, e.dialog.InProgress(ctx, 100))

	c = press(100, cbCancel, "")
	require.NoError(t, e.h.OnCancelCheckout(c))
	assert.Contains(t, c.last().text, "Ваша корзина")
	assert.False(t, e.dialog.InProgress(ctx, 100))
	_, open, err := e.svc.Checkouts.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, open)

	c = press(100, cbEditAddress, "")
	require.NoError(t, e.h.OnEditAddress(c))
	assert.Equal(t, restartText, c.last().text)
}

func placeOrder(t *testing.T, e *testEnv, u domain.User, p domain.Product) domain.Order {
	t.Helper()
	o, err := e.store.PlaceOrder(context.Background(), domain.NewOrder{
		UserID:  u.ID,
		Address: "ул. Ленина, 1",
		Lines: []domain.OrderLine{{
			ProductID: p.ID, ProductName: p.Name, Quantity: 1, Price: p.Price,
		}},
	})
	require.NoError(t, err)
	return o
}

func TestReviewWithPhotoAndText(t *testing.T) {
	e := newEnv(t, testShop())
	ctx := context.Background()
	u := e.customer(100)
	p := e.product("Малина", 800, 1, 1)
	o := placeOrder(t, e, u, p)
	target := "product:" + id64(p.ID) + ":" + id64(o.ID)

	c := press(100, cbReviewPick, target)
	require.NoError(t, e.h.OnReviewPick(c))
	star, ok := findButton(c.last().markup, cbReviewStar)
	require.True(t, ok)
	assert.Equal(t, target+":1", star.Data)

	c = press(100, cbReviewStar, target+":5")
	require.NoError(t, e.h.OnReviewStar(c))
	assert.Contains(t, c.last().text, "⭐⭐⭐⭐⭐")
	assert.True(t, e.dialog.InProgress(ctx, 100))

	photo := message(100, "")
	photo.msg.Photo = &tele.Photo{File: tele.File{FileID: "photo-1"}}
	require.NoError(t, e.dialog.ManagerHandler(photo))
	assert.Contains(t, photo.last().text, "1/10")

	c = message(100, "Очень сладкая")
	require.NoError(t, e.dialog.ManagerHandler(c))
	assert.Contains(t, c.last().text, "Ваш отзыв сохранен")
	back, ok := findButton(c.last().markup, cbOrder)
	require.True(t, ok)
	assert.Equal(t, id64(o.ID), back.Data)
	assert.False(t, e.dialog.InProgress(ctx, 100))

	exists, err := e.store.ExistsForOrderProduct(ctx, u.ID, o.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	c = press(100, cbReviewPick, target)
	require.NoError(t, e.h.OnReviewPick(c))
	assert.Equal(t, "ℹ️ Вы уже оставили отзыв на этот товар в этом заказе.", c.toast())

	// An order-level review is not blocked by the product review.
	c = press(100, cbReviewPick, "order:"+id64(o.ID)+":0")
	require.NoError(t, e.h.OnReviewPick(c))
	assert.Empty(t, c.toast())
	assert.Contains(t, c.last().text, "Оцените заказ")
}

func TestReviewCaptionFinalizes(t *testing.T) {
	e := newEnv(t, testShop())
	ctx := context.Background()
	u := e.customer(100)
	p := e.product("Малина", 800, 1, 1)
	require.NoError(t, e.h.OnReviewStar(press(100, cbReviewStar, "product:"+id64(p.ID)+":0:4")))

	c := message(100, "")
	c.msg.Photo = &tele.Photo{File: tele.File{FileID: "photo-1"}}
	c.msg.Caption = "Свежая"
	require.NoError(t, e.dialog.ManagerHandler(c))
	assert.Contains(t, c.last().text, "Ваш отзыв сохранен")

	exists, err := e.store.ExistsForProduct(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReviewCaptionFinalizesAtPhotoLimit(t *testing.T) {
	e := newEnv(t, testShop())
	ctx := context.Background()
	u := e.customer(100)
	p := e.product("Малина", 800, 1, 1)
	require.NoError(t, e.h.OnReviewStar(press(100, cbReviewStar, "product:"+id64(p.ID)+":0:4")))

	for i := range review.MaxPhotos {
		c := message(100, "")
		c.msg.Photo = &tele.Photo{File: tele.File{FileID: "photo-" + strconv.Itoa(i)}}
		require.NoError(t, e.dialog.ManagerHandler(c))
	}

	c := message(100, "")
	c.msg.Photo = &tele.Photo{File: tele.File{FileID: "photo-extra"}}
	c.msg.Caption = "Свежая"
	require.NoError(t, e.dialog.ManagerHandler(c))
	assert.Contains(t, c.last().text, "Ваш отзыв сохранен")

	exists, err := e.store.ExistsForProduct(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReviewSaveWithoutText(t *testing.T) {
	e := newEnv(t, testShop())
	e.customer(100)
	p := e.product("Малина", 800, 1, 1)

	c := press(100, cbReviewSave, "")
	require.NoError(t, e.h.OnReviewSave(c))
	assert.Equal(t, "⭐ Сначала выберите оценку.", c.toast())

	require.NoError(t, e.h.OnReviewStar(press(100, cbReviewStar, "product:"+id64(p.ID)+":0:3")))
	c = press(100, cbReviewSave, "")
	require.NoError(t, e.h.OnReviewSave(c))
	assert.Contains(t, c.last().text, "Ваш отзыв сохранен")
}

func TestReviewOfForeignOrderIsRejected(t *testing.T) {
	e := newEnv(t, testShop())
	e.customer(100)
	other := e.customer(200)
	p := e.product("Малина", 800, 1, 1)
	o := placeOrder(t, e, other, p)

	c := press(100, cbReviewPick, "order:"+id64(o.ID)+":0")
	require.NoError(t, e.h.OnReviewPick(c))
	assert.Equal(t, "❌ Заказ не найден", c.toast())
	assert.Empty(t, c.sent)
}

func TestDialogPrefersMostRecentlyTouched(t *testing.T) {
	e := newEnv(t, testShop())
	ctx := context.Background()
	u := e.customer(100)
	p := e.product("Арбуз", 3000, 1, 1)
	require.NoError(t, e.h.OnAdd(press(100, cbAdd, id64(p.ID))))
	require.NoError(t, e.h.OnCheckout(press(100, cbCheckout, "")))
	assert.Equal(t, dialogAddress, e.dialog.active(ctx, u.ID))

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, e.h.OnReviewStar(press(100, cbReviewStar, "product:"+id64(p.ID)+":0:5")))
	assert.Equal(t, dialogReview, e.dialog.active(ctx, u.ID))
}

func TestOrdersListAndDetail(t *testing.T) {
	e := newEnv(t, testShop())
	u := e.customer(100)
	p := e.product("Малина", 800, 1, 1)
	o := placeOrder(t, e, u, p)

	c := press(100, cbOrders, "")
	require.NoError(t, e.h.OnOrders(c))
	containsAll(t, c.last().text, "Ваши заказы", "Заказ #"+id64(o.ID), "Ожидает подтверждения")

	c = press(100, cbOrder, id64(o.ID))
	require.NoError(t, e.h.OnOrder(c))
	containsAll(t, c.last().text, "Малина × 1 = 800 ₽", "ул. Ленина, 1")
	_, ok := findButton(c.last().markup, cbReviewPick)
	assert.True(t, ok)

	e.customer(200)
	c = press(200, cbOrder, id64(o.ID))
	require.NoError(t, e.h.OnOrder(c))
	assert.Equal(t, "❌ Заказ не найден", c.toast())
}

func TestAdminCommands(t *testing.T) {
	e := newEnv(t, testShop())
	ctx := context.Background()
	u := e.customer(100)
	p := e.product("Малина", 800, 1, 1)
	o := placeOrder(t, e, u, p)

	c := message(2, "/status")
	c.msg.Payload = "oops"
	require.NoError(t, e.h.OnStatus(c))
	assert.Contains(t, c.last().text, "Использование: /status")

	c = message(2, "/status")
	c.msg.Payload = "#" + id64(o.ID) + " ready"
	require.NoError(t, e.h.OnStatus(c))
	assert.Contains(t, c.last().text, "сообщение клиента не найдено")
	got, err := e.store.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status)

	c = message(2, "/orders_admin")
	require.NoError(t, e.h.OnOrdersAdmin(c))
	assert.Contains(t, c.last().text, "#"+id64(o.ID))

	c = message(2, "/orders_admin")
	c.msg.Payload = "01.01.2001"
	require.NoError(t, e.h.OnOrdersAdmin(c))
	assert.Contains(t, c.last().text, "Заказов нет")

	require.NoError(t, e.h.OnReviewStar(press(100, cbReviewStar, "product:"+id64(p.ID)+":0:1")))
	require.NoError(t, e.h.OnReviewSave(press(100, cbReviewSave, "")))
	exists, err := e.store.ExistsForProduct(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.True(t, exists)

	stats, err := e.store.ProductStats(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Count)

	c = message(2, "/hide_review")
	c.msg.Payload = "999"
	require.NoError(t, e.h.OnHideReview(c))
	assert.Contains(t, c.last().text, "не найден")
}

func TestCallbackTableAnswersEveryPress(t *testing.T) {
	e := newEnv(t, testShop())
	e.customer(100)
	table := e.h.Callbacks()
	assert.Len(t, table, 25)

	c := press(100, cbMenu, "")
	require.NoError(t, table[cbMenu](c))
	require.Len(t, c.responses, 1)
	assert.Empty(t, c.responses[0].Text)
	assert.True(t, strings.HasPrefix(c.last().text, "🎉 Отлично"))

	c = press(100, cbOrder, "not-a-number")
	require.NoError(t, table[cbOrder](c))
	require.Len(t, c.responses, 1)
	assert.Equal(t, missingText, c.responses[0].Text)
}

func TestUnknownTextPointsToMenu(t *testing.T) {
	e := newEnv(t, testShop())
	c := message(100, "привет")
	require.NoError(t, e.h.UnknownText()(c))
	assert.Equal(t, notRegistered, c.last().text)

	e.customer(100)
	c = message(100, "привет")
	require.NoError(t, e.h.UnknownText()(c))
	assert.Contains(t, c.last().text, "Не понимаю")
	_, ok := findButton(c.last().markup, cbCatalog)
	assert.True(t, ok)
}
