// Package memory implements the shop stores in process memory. Service and
// handler tests run against it.
package memory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/grocerybot/shop/domain"
)

// Store holds every shop table.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int64

	users         map[int64]domain.User
	categories    map[int64]domain.Category
	subcategories map[int64]domain.Subcategory
	products      map[int64]domain.Product
	cart          map[int64]domain.CartLine
	orders        map[int64]domain.Order
	reviews       []domain.Review

	// FailPlaceOrder, when set, makes PlaceOrder fail without writing anything.
	FailPlaceOrder error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[int64]domain.User),
		categories:    make(map[int64]domain.Category),
		subcategories: make(map[int64]domain.Subcategory),
		products:      make(map[int64]domain.Product),
		cart:          make(map[int64]domain.CartLine),
		orders:        make(map[int64]domain.Order),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// PutCategory inserts or replaces a category; a zero id is assigned.
func (s *Store) PutCategory(c domain.Category) domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextID()
	}
	s.categories[c.ID] = c
	return c
}

// PutSubcategory inserts or replaces a subcategory; a zero id is assigned.
func (s *Store) PutSubcategory(c domain.Subcategory) domain.Subcategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextID()
	}
	s.subcategories[c.ID] = c
	return c
}

// PutProduct inserts or replaces a product; a zero id is assigned.
func (s *Store) PutProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextID()
	}
	s.products[p.ID] = p
	return p
}

// PutUser inserts or replaces a user; a zero id is assigned.
func (s *Store) PutUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID()
	}
	s.users[u.ID] = u
	return u
}

// EnsureProduct inserts the seed's category, subcategory and product unless they exist.
func (s *Store) EnsureProduct(_ context.Context, seed domain.NewProductSeed) (bool, error) {
	if err := seed.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var cat domain.Category
	for _, c := range s.categories {
		if c.Name == seed.Category {
			cat = c
		}
	}
	if cat.ID == 0 {
		cat = domain.Category{ID: s.nextID(), Name: seed.Category, IsActive: true}
		s.categories[cat.ID] = cat
	}
	var subID *int64
	if seed.Subcategory != "" {
		var sub domain.Subcategory
		for _, c := range s.subcategories {
			if c.CategoryID == cat.ID && c.Name == seed.Subcategory {
				sub = c
			}
		}
		if sub.ID == 0 {
			sub = domain.Subcategory{ID: s.nextID(), CategoryID: cat.ID, Name: seed.Subcategory, IsActive: true}
			s.subcategories[sub.ID] = sub
		}
		subID = &sub.ID
	}
	for _, p := range s.products {
		if p.CategoryID == cat.ID && p.Name == seed.Name {
			return false, nil
		}
	}
	p := domain.Product{
		ID:            s.nextID(),
		CategoryID:    cat.ID,
		SubcategoryID: subID,
		Name:          seed.Name,
		Price:         seed.Price,
		Unit:          seed.Unit,
		Step:          max(seed.Step, 1),
		MinQuantity:   max(seed.MinQuantity, 1),
		IsAvailable:   true,
		CreatedAt:     s.now(),
	}
	if seed.Description != "" {
		desc := seed.Description
		p.Description = &desc
	}
	s.products[p.ID] = p
	return true, nil
}

// Catalog

func (s *Store) Categories(context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Category
	for _, c := range s.categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Category) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) Category(_ context.Context, id int64) (domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok || !c.IsActive {
		return domain.Category{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *Store) Subcategories(_ context.Context, categoryID int64) ([]domain.Subcategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Subcategory
	for _, c := range s.subcategories {
		if c.CategoryID == categoryID && c.IsActive {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Subcategory) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) Subcategory(_ context.Context, id int64) (domain.Subcategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.subcategories[id]
	if !ok || !c.IsActive {
		return domain.Subcategory{}, domain.ErrNotFound
	}
	return c, nil
}

// ProductsByCategory returns products of a category that sit outside any subcategory.
func (s *Store) ProductsByCategory(_ context.Context, categoryID int64) ([]domain.Product, error) {
	return s.filterProducts(func(p domain.Product) bool {
		return p.CategoryID == categoryID && p.SubcategoryID == nil
	}), nil
}

func (s *Store) ProductsBySubcategory(_ context.Context, subcategoryID int64) ([]domain.Product, error) {
	return s.filterProducts(func(p domain.Product) bool {
		return p.SubcategoryID != nil && *p.SubcategoryID == subcategoryID
	}), nil
}

func (s *Store) filterProducts(keep func(domain.Product) bool) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Product
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

func (s *Store) Product(_ context.Context, id int64) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

// Cart

func (s *Store) Lines(_ context.Context, userID int64) ([]domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CartLine
	for _, l := range s.cart {
		if l.UserID == userID {
			l.Product = s.products[l.ProductID]
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b domain.CartLine) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) Line(_ context.Context, userID, lineID int64) (domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.cart[lineID]
	if !ok || l.UserID != userID {
		return domain.CartLine{}, domain.ErrNotFound
	}
	l.Product = s.products[l.ProductID]
	return l, nil
}

func (s *Store) LineByProduct(_ context.Context, userID, productID int64) (domain.CartLine, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.cart {
		if l.UserID == userID && l.ProductID == productID {
			l.Product = s.products[l.ProductID]
			return l, true, nil
		}
	}
	return domain.CartLine{}, false, nil
}

func (s *Store) AddItem(_ context.Context, userID, productID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range s.cart {
		if l.UserID == userID && l.ProductID == productID {
			l.Quantity += qty
			s.cart[id] = l
			return nil
		}
	}
	id := s.nextID()
	s.cart[id] = domain.CartLine{ID: id, UserID: userID, ProductID: productID, Quantity: qty}
	return nil
}

func (s *Store) SetQuantity(_ context.Context, userID, lineID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.cart[lineID]
	if !ok || l.UserID != userID {
		return domain.ErrNotFound
	}
	l.Quantity = qty
	s.cart[lineID] = l
	return nil
}

func (s *Store) RemoveItem(_ context.Context, userID, lineID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.cart[lineID]; ok && l.UserID == userID {
		delete(s.cart, lineID)
	}
	return nil
}

func (s *Store) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range s.cart {
		if l.UserID == userID {
			delete(s.cart, id)
		}
	}
	return nil
}

// Orders

// PlaceOrder writes the order and its lines atomically.
func (s *Store) PlaceOrder(_ context.Context, o domain.NewOrder) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPlaceOrder != nil {
		return domain.Order{}, s.FailPlaceOrder
	}
	now := s.now()
	order := domain.Order{
		ID:         s.nextID(),
		UserID:     o.UserID,
		Status:     domain.StatusPending,
		TotalPrice: o.Total(),
		Address:    o.Address,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if o.Notes != "" {
		notes := o.Notes
		order.Notes = &notes
	}
	for _, l := range o.Lines {
		l.ID = s.nextID()
		l.OrderID = order.ID
		order.Lines = append(order.Lines, l)
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *Store) Order(_ context.Context, id int64) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

// OrdersForUser returns the user's orders, newest first.
func (s *Store) OrdersForUser(_ context.Context, userID int64, limit int) ([]domain.Order, error) {
	return s.listOrders(func(o domain.Order) bool { return o.UserID == userID }, limit), nil
}

// OrdersBetween returns orders created in [from, to), newest first.
func (s *Store) OrdersBetween(_ context.Context, from, to time.Time, limit int) ([]domain.Order, error) {
	return s.listOrders(func(o domain.Order) bool {
		return !o.CreatedAt.Before(from) && o.CreatedAt.Before(to)
	}, limit), nil
}

func (s *Store) listOrders(keep func(domain.Order) bool, limit int) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return cmp.Compare(b.ID, a.ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) UpdateStatus(_ context.Context, orderID int64, status domain.OrderStatus) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = s.now()
	s.orders[orderID] = o
	return o, nil
}

// Reviews

func (s *Store) countReviews(match func(domain.Review) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reviews {
		if !r.Hidden && match(r) {
			return true
		}
	}
	return false
}

func eq(p *int64, v int64) bool { return p != nil && *p == v }

func (s *Store) ExistsForOrderProduct(_ context.Context, userID, orderID, productID int64) (bool, error) {
	return s.countReviews(func(r domain.Review) bool {
		return r.UserID == userID && eq(r.OrderID, orderID) && eq(r.ProductID, productID)
	}), nil
}

func (s *Store) ExistsForOrder(_ context.Context, userID, orderID int64) (bool, error) {
	return s.countReviews(func(r domain.Review) bool {
		return r.UserID == userID && eq(r.OrderID, orderID) && r.ProductID == nil
	}), nil
}

func (s *Store) ExistsForProduct(_ context.Context, userID, productID int64) (bool, error) {
	return s.countReviews(func(r domain.Review) bool {
		return r.UserID == userID && eq(r.ProductID, productID)
	}), nil
}

func (s *Store) Create(_ context.Context, r domain.Review) (domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID()
	r.CreatedAt = s.now()
	s.reviews = append(s.reviews, r)
	return r, nil
}

// Hide marks a review hidden so it stops counting.
func (s *Store) Hide(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reviews {
		if s.reviews[i].ID == id {
			s.reviews[i].Hidden = true
			return nil
		}
	}
	return domain.ErrNotFound
}

// ProductStats averages visible ratings of a product.
func (s *Store) ProductStats(_ context.Context, productID int64) (domain.RatingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats domain.RatingStats
	sum := 0
	for _, r := range s.reviews {
		if !r.Hidden && eq(r.ProductID, productID) {
			sum += r.Rating
			stats.Count++
		}
	}
	if stats.Count > 0 {
		stats.Average = decimal.NewFromInt(int64(sum)).DivRound(decimal.NewFromInt(int64(stats.Count)), 2)
	}
	return stats, nil
}

// Users

func (s *Store) ByTelegramID(_ context.Context, telegramID int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// FindOrCreate returns the user with profile's Telegram id, registering it with role when absent.
func (s *Store) FindOrCreate(_ context.Context, p domain.Profile, role domain.Role) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TelegramID == p.TelegramID {
			return u, false, nil
		}
	}
	now := s.now()
	u := domain.User{
		ID:         s.nextID(),
		TelegramID: p.TelegramID,
		FirstName:  p.FirstName,
		Role:       role,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.LastName != "" {
		u.LastName = &p.LastName
	}
	if p.Username != "" {
		u.Username = &p.Username
	}
	s.users[u.ID] = u
	return u, true, nil
}

func (s *Store) UpdatePhone(_ context.Context, userID int64, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Phone = &phone
	s.users[userID] = u
	return nil
}

func (s *Store) SetRole(_ context.Context, telegramID int64, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.TelegramID == telegramID {
			u.Role = role
			u.UpdatedAt = s.now()
			s.users[id] = u
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) ByRoles(_ context.Context, roles ...domain.Role) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.User
	for _, u := range s.users {
		if slices.Contains(roles, u.Role) && u.IsActive {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b domain.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	u, err := s.ByTelegramID(ctx, telegramID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsActive && u.Role.Elevated(), nil
}
