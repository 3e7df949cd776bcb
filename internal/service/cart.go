package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ndanilko/storefront/internal/models"
)

var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("not enough stock")
)

// CartRepo is the slice of the store the cart flow touches. Every method is
// an independent statement; nothing here spans a transaction.
type CartRepo interface {
	CartLines(ctx context.Context, userID uint) ([]models.CartLine, error)
	CartLine(ctx context.Context, id, userID uint) (models.CartItem, error)
	CreateCartLine(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, id, quantity uint) error
	DeleteCartLine(ctx context.Context, id, userID uint) error
	ClearCart(ctx context.Context, userID uint) error
	ProductByID(ctx context.Context, id uint) (models.Product, error)
	UpdateStock(ctx context.Context, productID, stock uint) error
}

type CartService struct {
	Repo CartRepo
}

func (s *CartService) List(ctx context.Context, userID uint) ([]models.CartLine, error) {
	return s.Repo.CartLines(ctx, userID)
}

// Add validates the product and inserts a fresh row. Repeated adds of the
// same product are not merged: each add is its own cart line. Stock is
// checked only here; it is not re-validated by later quantity changes.
func (s *CartService) Add(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fmt.Errorf("product_id is required: %w", ErrValidation)
	}
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.Repo.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, err
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("product %d has %d in stock: %w", productID, product.Stock, ErrInsufficientStock)
	}

	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.Repo.CreateCartLine(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// QuantityChange carries either a step direction or an explicit value.
// NewQuantity wins when both are set.
type QuantityChange struct {
	CartID      uint
	Increase    *bool
	NewQuantity *uint
}

// ChangeQuantity reads the current quantity, computes the next one and
// writes it back. Decrement clamps at 1, so this path can never empty a
// line. An explicit NewQuantity is written verbatim, with no clamp and no
// stock re-check. The read and the write are separate statements; two
// concurrent changes on the same line race and the last write wins.
func (s *CartService) ChangeQuantity(ctx context.Context, userID uint, change QuantityChange) (uint, error) {
	if change.CartID == 0 {
		return 0, fmt.Errorf("cart_id is required: %w", ErrValidation)
	}
	if change.Increase == nil && change.NewQuantity == nil {
		return 0, fmt.Errorf("increase or new_quantity is required: %w", ErrValidation)
	}

	item, err := s.Repo.CartLine(ctx, change.CartID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("cart line %d: %w", change.CartID, ErrNotFound)
		}
		return 0, err
	}

	var next uint
	switch {
	case change.NewQuantity != nil:
		next = *change.NewQuantity
	case *change.Increase:
		next = item.Quantity + 1
	default:
		next = item.Quantity - 1
		if next < 1 {
			next = 1
		}
	}

	if err := s.Repo.UpdateQuantity(ctx, change.CartID, next); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("cart line %d: %w", change.CartID, ErrNotFound)
		}
		return 0, err
	}
	return next, nil
}

func (s *CartService) Remove(ctx context.Context, userID, cartID uint) error {
	if cartID == 0 {
		return fmt.Errorf("cart_id is required: %w", ErrValidation)
	}
	if err := s.Repo.DeleteCartLine(ctx, cartID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart line %d: %w", cartID, ErrNotFound)
		}
		return err
	}
	return nil
}

// Checkout decrements stock for every line and clears the cart. The per-line
// updates are dispatched concurrently and awaited together; a plain
// errgroup.Group is used (no shared cancel context) so every update is
// attempted even when a sibling fails. There is no rollback: decrements that
// already landed stay applied, and the cart is cleared only when all of them
// succeeded.
func (s *CartService) Checkout(ctx context.Context, userID uint) error {
	lines, err := s.Repo.CartLines(ctx, userID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return ErrEmptyCart
	}

	var g errgroup.Group
	for _, line := range lines {
		line := line
		g.Go(func() error {
			next := uint(0)
			if line.Product.Stock > line.Quantity {
				next = line.Product.Stock - line.Quantity
			}
			if err := s.Repo.UpdateStock(ctx, line.ProductID, next); err != nil {
				return fmt.Errorf("product %d stock update: %w", line.ProductID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return s.Repo.ClearCart(ctx, userID)
}
