// Package bot is the Telegram surface of the storefront: routes, callbacks,
// dialog routing, rendering and the outbound transport.
package bot

import (
	"context"
	"time"

	"github.com/m3rciful/grocerybot/shop/cart"
	"github.com/m3rciful/grocerybot/shop/checkout"
	"github.com/m3rciful/grocerybot/shop/config"
	"github.com/m3rciful/grocerybot/shop/domain"
	"github.com/m3rciful/grocerybot/shop/review"
	"github.com/m3rciful/grocerybot/shop/session"
	"github.com/m3rciful/grocerybot/shop/status"
)

// UserStore registers and looks up customers.
type UserStore interface {
	ByTelegramID(ctx context.Context, telegramID int64) (domain.User, error)
	FindOrCreate(ctx context.Context, p domain.Profile, role domain.Role) (domain.User, bool, error)
	UpdatePhone(ctx context.Context, userID int64, phone string) error
	SetRole(ctx context.Context, telegramID int64, role domain.Role) error
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
	ByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error)
}

// CatalogStore reads the product catalog.
type CatalogStore interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Category(ctx context.Context, id int64) (domain.Category, error)
	Subcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error)
	Subcategory(ctx context.Context, id int64) (domain.Subcategory, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
	ProductsBySubcategory(ctx context.Context, subcategoryID int64) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (domain.Product, error)
}

// OrderReader lists placed orders.
type OrderReader interface {
	Order(ctx context.Context, id int64) (domain.Order, error)
	OrdersForUser(ctx context.Context, userID int64, limit int) ([]domain.Order, error)
	OrdersBetween(ctx context.Context, from, to time.Time, limit int) ([]domain.Order, error)
}

// ReviewModeration reads rating stats and hides reviews.
type ReviewModeration interface {
	ProductStats(ctx context.Context, productID int64) (domain.RatingStats, error)
	Hide(ctx context.Context, id int64) error
}

// Store is everything the bot needs from persistence.
type Store interface {
	UserStore
	CatalogStore
	OrderReader
	ReviewModeration
	cart.Store
	checkout.OrderStore
	review.Store
	status.OrderStore
}

// Services wires the storefront services over one store and one session store.
type Services struct {
	Store     Store
	Sessions  *session.Store
	Checkouts *session.Checkouts
	Transport *Transport

	Cart     *cart.Service
	Checkout *checkout.Controller
	Reviews  *review.Service
	Linker   *status.Linker
	Status   *status.Service
}

// NewServices builds the storefront services.
func NewServices(store Store, sessions *session.Store, transport *Transport, shop config.ShopConfig) *Services {
	checkouts := session.NewCheckouts(sessions.Checkouts)
	linker := status.NewLinker(sessions.Links, transport, StatusText)
	return &Services{
		Store:     store,
		Sessions:  sessions,
		Checkouts: checkouts,
		Transport: transport,
		Cart:      cart.NewService(store, store, shop.MinOrderAmount),
		Checkout: checkout.NewController(checkout.Deps{
			Sessions: checkouts,
			Carts:    store,
			Orders:   store,
			Admins:   store,
			Notifier: transport,
			Linker:   linker,
		}, checkout.Config{
			MinOrder:   shop.MinOrderAmount,
			BypassZone: shop.BypassZone,
			Notes:      shop.OrderNotes,
		}),
		Reviews: review.NewService(sessions.Reviews, store),
		Linker:  linker,
		Status:  status.NewService(store, linker),
	}
}
