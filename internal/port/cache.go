package port

import (
	"context"

	"matchbook/internal/domain"
)

// Cache holds the latest book snapshot per instrument for the read path.
type Cache interface {
	SetBook(ctx context.Context, instrument string, snap *domain.BookSnapshot) error
	GetBook(ctx context.Context, instrument string) (*domain.BookSnapshot, error)
}
