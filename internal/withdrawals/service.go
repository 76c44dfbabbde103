package withdrawals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/digimartng/digimart-backend/internal/profiles"
	"github.com/digimartng/digimart-backend/internal/wallets"
	"github.com/digimartng/digimart-backend/pkg/config"
	"github.com/digimartng/digimart-backend/pkg/db/models"
	"github.com/digimartng/digimart-backend/pkg/enums"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
	"github.com/digimartng/digimart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the payout lifecycle. The wallet is debited the moment a
// request is accepted, so a user can never queue more payouts than they have
// earned; a failed payout refunds the hold.
type Service interface {
	CreateRequest(ctx context.Context, input CreateRequestInput) (*models.WithdrawalRequest, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WithdrawalRequest, *pagination.Cursor, error)
	Complete(ctx context.Context, requestID uuid.UUID, notes *string) error
	Fail(ctx context.Context, requestID uuid.UUID, notes *string) error
}

// CreateRequestInput carries a user's payout instruction.
type CreateRequestInput struct {
	UserID uuid.UUID
	Amount decimal.Decimal
}

// ServiceParams wire the withdrawal service dependencies.
type ServiceParams struct {
	Logger   *logger.Logger
	Tx       txRunner
	Repo     Repository
	Wallets  wallets.Repository
	Profiles profiles.Repository
	Config   config.WithdrawalConfig
}

type service struct {
	logg     *logger.Logger
	tx       txRunner
	repo     Repository
	wallets  wallets.Repository
	profiles profiles.Repository
	cfg      config.WithdrawalConfig
	now      func() time.Time
}

// NewService builds a withdrawal service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("withdrawals repository required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallets repository required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	return &service{
		logg:     params.Logger,
		tx:       params.Tx,
		repo:     params.Repo,
		wallets:  params.Wallets,
		profiles: params.Profiles,
		cfg:      params.Config,
		now:      time.Now,
	}, nil
}

func (s *service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.WithdrawalRequest, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	netAmount := input.Amount.Sub(s.cfg.ProcessingFee)
	if !netAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must exceed the processing fee")
	}

	profile, err := s.profiles.FindByUserID(ctx, input.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if profile.AccountName == nil || profile.AccountNumber == nil || profile.BankName == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "bank details are not on file")
	}

	var request *models.WithdrawalRequest
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		debited, err := s.wallets.WithTx(tx).Debit(ctx, input.UserID, input.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
		}
		if !debited {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient wallet balance")
		}

		request = &models.WithdrawalRequest{
			UserID:        input.UserID,
			Amount:        input.Amount,
			NetAmount:     netAmount,
			ProcessingFee: s.cfg.ProcessingFee,
			AccountName:   *profile.AccountName,
			AccountNumber: *profile.AccountNumber,
			BankName:      *profile.BankName,
			Status:        enums.WithdrawalStatusPending,
		}
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user":   input.UserID.String(),
		"amount": input.Amount.String(),
	})
	s.logg.Info(logCtx, "withdrawal request accepted")
	return request, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WithdrawalRequest, *pagination.Cursor, error) {
	if userID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, next, err := s.repo.ListByUser(ctx, ListParams{
		UserID: userID,
		Limit:  params.Limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}
	return rows, next, nil
}

// Complete records a paid-out request and moves the hold into the lifetime
// withdrawn total.
func (s *service) Complete(ctx context.Context, requestID uuid.UUID, notes *string) error {
	return s.resolve(ctx, requestID, enums.WithdrawalStatusCompleted, notes)
}

// Fail rejects a pending request and refunds the hold to the wallet.
func (s *service) Fail(ctx context.Context, requestID uuid.UUID, notes *string) error {
	return s.resolve(ctx, requestID, enums.WithdrawalStatusFailed, notes)
}

func (s *service) resolve(ctx context.Context, requestID uuid.UUID, status enums.WithdrawalStatus, notes *string) error {
	if requestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindByID(ctx, requestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
		}

		updated, err := repo.MarkProcessed(ctx, request.ID, status, notes, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal request")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal request already resolved")
		}

		walletsRepo := s.wallets.WithTx(tx)
		switch status {
		case enums.WithdrawalStatusCompleted:
			if err := walletsRepo.RecordWithdrawn(ctx, request.UserID, request.Amount); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record withdrawn total")
			}
		case enums.WithdrawalStatusFailed:
			if err := walletsRepo.Refund(ctx, request.UserID, request.Amount); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund wallet hold")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "unsupported resolution status")
		}
		return nil
	})
}
