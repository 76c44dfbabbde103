package downloads

import (
	"context"
	"fmt"
	"time"

	"github.com/digimartng/digimart-backend/internal/products"
	"github.com/digimartng/digimart-backend/pkg/config"
	"github.com/digimartng/digimart-backend/pkg/db/models"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes download entitlement operations for buyers.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Download, error)
	GenerateLink(ctx context.Context, input GenerateLinkInput) (*DownloadLink, error)
}

// GenerateLinkInput identifies the entitlement a caller wants to exercise.
// Either UserID or Email must be set; Email serves guest buyers.
type GenerateLinkInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	Email     string
}

// DownloadLink is a short-lived pointer at the purchased file.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ServiceParams wire the download service dependencies.
type ServiceParams struct {
	Repo     Repository
	Products products.Repository
	Config   config.DownloadsConfig
}

type service struct {
	repo     Repository
	products products.Repository
	cfg      config.DownloadsConfig
	now      func() time.Time
}

// NewService builds a download service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("downloads repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		cfg:      params.Config,
		now:      time.Now,
	}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Download, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list downloads")
	}
	return rows, nil
}

// GenerateLink checks the caller's entitlement and hands back the file URL
// with a validity window. Each issued link counts one authorized fetch.
func (s *service) GenerateLink(ctx context.Context, input GenerateLinkInput) (*DownloadLink, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.UserID == uuid.Nil && input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id or email required")
	}

	download, err := s.findEntitlement(ctx, input)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if download.ExpiresAt != nil && !download.ExpiresAt.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "download entitlement has expired")
	}

	product, err := s.products.FindActiveByID(ctx, download.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is no longer available")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.FileURL == nil || *product.FileURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product has no file attached")
	}

	if err := s.repo.IncrementCount(ctx, download.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record download")
	}

	return &DownloadLink{
		URL:       *product.FileURL,
		ExpiresAt: now.Add(s.cfg.LinkTTL),
	}, nil
}

func (s *service) findEntitlement(ctx context.Context, input GenerateLinkInput) (*models.Download, error) {
	if input.UserID != uuid.Nil {
		download, err := s.repo.FindForUser(ctx, input.UserID, input.ProductID)
		if err == nil {
			return download, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load download entitlement")
		}
	}
	if input.Email != "" {
		download, err := s.repo.FindForEmail(ctx, input.Email, input.ProductID)
		if err == nil {
			return download, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load download entitlement")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no download entitlement for product")
}
