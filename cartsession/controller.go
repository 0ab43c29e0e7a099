package cartsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"storefront/checkout"
	"storefront/models"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrMergeFailed     = errors.New("could not merge guest cart")
)

type Item struct {
	ID            uint     `json:"id"`
	ProductID     uint     `json:"productId"`
	Title         string   `json:"title"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Image         string   `json:"image"`
	Quantity      int      `json:"quantity"`
}

// CartView is the server's answer to GET /api/cart.
type CartView struct {
	Items     []Item  `json:"items"`
	CartCount int     `json:"cartCount"`
	Subtotal  float64 `json:"subtotal"`
	Shipping  float64 `json:"shipping"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
}

// Backend is the cart API as seen from the client.
type Backend interface {
	Fetch(ctx context.Context) (*CartView, error)
	Add(ctx context.Context, productID uint, quantity int) error
	Update(ctx context.Context, itemID uint, quantity int) error
	Remove(ctx context.Context, itemID uint) error
	Clear(ctx context.Context) error
	Merge(ctx context.Context, sessionID string) (int, error)
}

type MutationState int

const (
	Idle MutationState = iota
	OptimisticallyApplied
	Confirmed
	RolledBack
)

func (m MutationState) String() string {
	switch m {
	case OptimisticallyApplied:
		return "optimistically_applied"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

type State struct {
	Items         []Item
	Count         int
	Totals        checkout.Totals
	Authenticated bool
	Mutation      MutationState
	// LastMutation names the most recent mutation, e.g. "update".
	LastMutation string
}

func (s State) clone() State {
	out := s
	out.Items = append([]Item(nil), s.Items...)
	return out
}

func (s *State) retotal() {
	lines := make([]checkout.Line, len(s.Items))
	for i, it := range s.Items {
		lines[i] = checkout.Line{Price: it.Price, Quantity: it.Quantity}
	}
	s.Totals = checkout.ComputeTotals(lines)
}

func (s *State) indexOf(itemID uint) int {
	for i, it := range s.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// command is one optimistic mutation. forward runs before the request,
// inverse only if the request fails.
type command struct {
	name    string
	forward func(*State) error
	inverse func(*State)
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// StartAuthenticated is for clients that are already signed in when the
// controller is built. No merge happens for them.
func StartAuthenticated() Option {
	return func(c *Controller) {
		c.state.Authenticated = true
		c.merged = true
	}
}

// Controller owns the client's view of the cart. Mutations are applied
// locally first, then sent to the backend, then kept or undone.
type Controller struct {
	backend  Backend
	sessions SessionStore
	log      *slog.Logger

	mu           sync.Mutex
	state        State
	merged       bool
	listeners    map[int]func(State)
	nextListener int
}

func New(backend Backend, sessions SessionStore, opts ...Option) *Controller {
	c := &Controller{
		backend:   backend,
		sessions:  sessions,
		log:       slog.Default(),
		listeners: map[int]func(State){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func unregisters it.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	snap := c.state.clone()
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Refresh replaces local state with the server's cart.
func (c *Controller) Refresh(ctx context.Context) error {
	view, err := c.backend.Fetch(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state.Items = append([]Item(nil), view.Items...)
	c.state.Count = view.CartCount
	c.state.Totals = checkout.Totals{
		Subtotal: view.Subtotal,
		Shipping: view.Shipping,
		Tax:      view.Tax,
		Total:    view.Total,
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Controller) apply(ctx context.Context, cmd command, call func(context.Context) error) error {
	c.mu.Lock()
	if err := cmd.forward(&c.state); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.retotalIfItemsChanged(cmd.name)
	c.state.Mutation = OptimisticallyApplied
	c.state.LastMutation = cmd.name
	c.mu.Unlock()
	c.notify()

	err := call(ctx)

	c.mu.Lock()
	if err != nil {
		cmd.inverse(&c.state)
		c.state.retotalIfItemsChanged(cmd.name)
		c.state.Mutation = RolledBack
	} else {
		c.state.Mutation = Confirmed
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.log.WarnContext(ctx, "cart mutation rolled back", "mutation", cmd.name, "error", err)
	}
	return err
}

// retotalIfItemsChanged recomputes totals from items. Adds only move the
// count until the refetch brings the real line back.
func (s *State) retotalIfItemsChanged(name string) {
	if name != "add" && name != "clear" {
		s.retotal()
	}
}

func (c *Controller) ensureSession() error {
	c.mu.Lock()
	authed := c.state.Authenticated
	c.mu.Unlock()
	if authed || c.sessions == nil {
		return nil
	}
	_, err := EnsureSessionID(c.sessions)
	return err
}

func (c *Controller) AddItem(ctx context.Context, productID uint, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := c.ensureSession(); err != nil {
		return err
	}

	cmd := command{
		name:    "add",
		forward: func(s *State) error { s.Count += quantity; return nil },
		inverse: func(s *State) { s.Count -= quantity },
	}
	err := c.apply(ctx, cmd, func(ctx context.Context) error {
		return c.backend.Add(ctx, productID, quantity)
	})
	if err != nil {
		return err
	}
	// the server may have merged into an existing line, so only it knows the result
	return c.Refresh(ctx)
}

func (c *Controller) UpdateQuantity(ctx context.Context, itemID uint, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	var previous, delta int
	cmd := command{
		name: "update",
		forward: func(s *State) error {
			i := s.indexOf(itemID)
			if i < 0 {
				return ErrItemNotFound
			}
			previous = s.Items[i].Quantity
			delta = quantity - previous
			s.Items[i].Quantity = quantity
			s.Count += delta
			return nil
		},
		inverse: func(s *State) {
			if i := s.indexOf(itemID); i >= 0 {
				s.Items[i].Quantity = previous
			}
			s.Count -= delta
		},
	}
	return c.apply(ctx, cmd, func(ctx context.Context) error {
		return c.backend.Update(ctx, itemID, quantity)
	})
}

func (c *Controller) RemoveItem(ctx context.Context, itemID uint) error {
	var removed Item
	var at int
	cmd := command{
		name: "remove",
		forward: func(s *State) error {
			at = s.indexOf(itemID)
			if at < 0 {
				return ErrItemNotFound
			}
			removed = s.Items[at]
			s.Items = append(s.Items[:at:at], s.Items[at+1:]...)
			s.Count -= removed.Quantity
			return nil
		},
		inverse: func(s *State) {
			pos := at
			if pos > len(s.Items) {
				pos = len(s.Items)
			}
			s.Items = append(s.Items[:pos:pos], append([]Item{removed}, s.Items[pos:]...)...)
			s.Count += removed.Quantity
		},
	}
	return c.apply(ctx, cmd, func(ctx context.Context) error {
		return c.backend.Remove(ctx, itemID)
	})
}

func (c *Controller) ClearCart(ctx context.Context) error {
	var saved State
	cmd := command{
		name: "clear",
		forward: func(s *State) error {
			saved = s.clone()
			s.Items = nil
			s.Count = 0
			s.Totals = checkout.Totals{}
			return nil
		},
		inverse: func(s *State) {
			s.Items = saved.Items
			s.Count = saved.Count
			s.Totals = saved.Totals
		},
	}
	return c.apply(ctx, cmd, c.backend.Clear)
}

// DiscardLocal empties the local cart without telling the backend and
// without any rollback. Checkout uses it when the server cart could not be
// cleared after a confirmed payment.
func (c *Controller) DiscardLocal() {
	c.mu.Lock()
	c.state.Items = nil
	c.state.Count = 0
	c.state.Totals = checkout.Totals{}
	c.state.Mutation = Confirmed
	c.state.LastMutation = "discard"
	c.mu.Unlock()
	c.notify()
}

// SetIdentity reports the current sign-in state. The first transition from
// anonymous to authenticated merges the guest cart; any transition refetches.
// A failed merge is returned wrapped in ErrMergeFailed but the cart stays
// usable.
func (c *Controller) SetIdentity(ctx context.Context, authenticated bool) error {
	c.mu.Lock()
	was := c.state.Authenticated
	c.state.Authenticated = authenticated
	shouldMerge := authenticated && !was && !c.merged
	if shouldMerge {
		c.merged = true
	}
	if !authenticated {
		c.merged = false
	}
	c.mu.Unlock()

	if was == authenticated {
		return nil
	}

	var mergeErr error
	if shouldMerge {
		mergeErr = c.mergeGuestCart(ctx)
	}

	if err := c.Refresh(ctx); err != nil {
		c.log.WarnContext(ctx, "refetching cart after sign-in change failed", "error", err)
		if mergeErr == nil {
			return err
		}
	}
	return mergeErr
}

func (c *Controller) mergeGuestCart(ctx context.Context) error {
	if c.sessions == nil {
		return nil
	}
	sessionID, ok, err := c.sessions.Load()
	if err != nil {
		c.log.WarnContext(ctx, "reading guest session failed", "error", err)
		return fmt.Errorf("%w: %w", ErrMergeFailed, err)
	}
	if !ok {
		return nil
	}

	n, err := c.backend.Merge(ctx, sessionID)
	if err != nil {
		c.log.ErrorContext(ctx, "guest cart merge failed", "error", err)
		return fmt.Errorf("%w: %w", ErrMergeFailed, err)
	}
	if err := c.sessions.Clear(); err != nil {
		c.log.WarnContext(ctx, "clearing guest session failed", "error", err)
	}
	c.log.InfoContext(ctx, "guest cart merged", "items", n)
	return nil
}

// OrderLines snapshots the cart for order creation.
func (c *Controller) OrderLines() []models.OrderItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]models.OrderItem, len(c.state.Items))
	for i, it := range c.state.Items {
		lines[i] = models.OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
			ImageURL:  it.Image,
		}
	}
	return lines
}
