package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/digimartng/digimart-backend/pkg/db/models"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/pagination"
)

// Service exposes purchase history reads for buyers.
type Service interface {
	ListPurchases(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Sale, *pagination.Cursor, error)
}

type service struct {
	repo Repository
}

// NewService wires a sales service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListPurchases(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Sale, *pagination.Cursor, error) {
	if buyerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, next, err := s.repo.ListByBuyer(ctx, ListParams{
		BuyerID: buyerID,
		Limit:   params.Limit,
		Cursor:  cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return rows, next, nil
}
