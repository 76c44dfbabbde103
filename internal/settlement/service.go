package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/digimartng/digimart-backend/internal/downloads"
	"github.com/digimartng/digimart-backend/internal/products"
	"github.com/digimartng/digimart-backend/internal/profiles"
	"github.com/digimartng/digimart-backend/internal/referrals"
	"github.com/digimartng/digimart-backend/internal/sales"
	"github.com/digimartng/digimart-backend/internal/subscriptions"
	"github.com/digimartng/digimart-backend/internal/wallets"
	"github.com/digimartng/digimart-backend/pkg/config"
	dbpkg "github.com/digimartng/digimart-backend/pkg/db"
	"github.com/digimartng/digimart-backend/pkg/db/models"
	"github.com/digimartng/digimart-backend/pkg/enums"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
	"github.com/digimartng/digimart-backend/pkg/metrics"
	"github.com/digimartng/digimart-backend/pkg/paystack"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Kind labels which purchase path a charge settled through.
type Kind string

const (
	KindProduct      Kind = "product"
	KindSubscription Kind = "subscription"
)

// Result reports what a settlement run did. Duplicate means the charge was
// already settled and nothing changed.
type Result struct {
	Kind           Kind
	Reference      string
	Duplicate      bool
	SaleID         *uuid.UUID
	SubscriptionID *uuid.UUID
}

// Service turns verified gateway charges into sales, wallet credits,
// referral commissions and download grants.
type Service interface {
	Settle(ctx context.Context, event paystack.WebhookEvent) (*Result, error)
}

// ServiceParams wire the settlement service dependencies.
type ServiceParams struct {
	Logger        *logger.Logger
	Tx            txRunner
	Sales         sales.Repository
	Products      products.Repository
	Profiles      profiles.Repository
	Wallets       wallets.Repository
	Subscriptions subscriptions.Repository
	Referrals     referrals.Repository
	Downloads     downloads.Repository
	Commission    config.CommissionConfig
	DownloadsCfg  config.DownloadsConfig
	Metrics       *metrics.WebhookMetrics
}

type service struct {
	logg          *logger.Logger
	tx            txRunner
	sales         sales.Repository
	products      products.Repository
	profiles      profiles.Repository
	wallets       wallets.Repository
	subscriptions subscriptions.Repository
	referrals     referrals.Repository
	downloads     downloads.Repository
	commission    config.CommissionConfig
	downloadsCfg  config.DownloadsConfig
	metrics       *metrics.WebhookMetrics
	now           func() time.Time
}

// NewService builds the settlement service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Sales == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallets repository required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Referrals == nil {
		return nil, fmt.Errorf("referrals repository required")
	}
	if params.Downloads == nil {
		return nil, fmt.Errorf("downloads repository required")
	}
	return &service{
		logg:          params.Logger,
		tx:            params.Tx,
		sales:         params.Sales,
		products:      params.Products,
		profiles:      params.Profiles,
		wallets:       params.Wallets,
		subscriptions: params.Subscriptions,
		referrals:     params.Referrals,
		downloads:     params.Downloads,
		commission:    params.Commission,
		downloadsCfg:  params.DownloadsCfg,
		metrics:       params.Metrics,
		now:           time.Now,
	}, nil
}

// Settle applies one verified charge.success notification. The run is
// idempotent: replays of an already-settled reference report Duplicate and
// leave every balance untouched.
func (s *service) Settle(ctx context.Context, event paystack.WebhookEvent) (*Result, error) {
	start := s.now()

	result, err := s.settle(ctx, event)
	kind := ""
	if result != nil {
		kind = string(result.Kind)
	}
	switch {
	case err != nil:
		s.metrics.ObserveSettlement(kind, "failed", s.now().Sub(start))
	case result.Duplicate:
		s.metrics.ObserveSettlement(kind, "duplicate", s.now().Sub(start))
	default:
		s.metrics.ObserveSettlement(kind, "completed", s.now().Sub(start))
	}
	return result, err
}

func (s *service) settle(ctx context.Context, event paystack.WebhookEvent) (*Result, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if event.Event != paystack.EventChargeSuccess {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported event type")
	}

	productID := strings.TrimSpace(event.Data.Metadata.ProductID)
	planID := strings.TrimSpace(event.Data.Metadata.PlanID)
	if productID == "" && planID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge metadata names no product or plan")
	}
	if productID != "" && planID != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge metadata names both product and plan")
	}

	// Kobo to naira happens exactly once, here.
	amount := decimal.New(event.Data.Amount, -2)

	if productID != "" {
		id, err := uuid.Parse(productID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id in metadata")
		}
		return s.settleProduct(ctx, event, id, amount)
	}

	id, err := uuid.Parse(planID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid plan id in metadata")
	}
	return s.settleSubscription(ctx, event, id, amount)
}

func (s *service) settleProduct(ctx context.Context, event paystack.WebhookEvent, productID uuid.UUID, amount decimal.Decimal) (*Result, error) {
	reference := event.Data.Reference
	result := &Result{Kind: KindProduct, Reference: reference}

	if existing, err := s.sales.FindByTransactionID(ctx, reference); err == nil {
		result.Duplicate = true
		result.SaleID = &existing.ID
		return result, nil
	} else if err != gorm.ErrRecordNotFound {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing sale")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		salesRepo := s.sales.WithTx(tx)
		productsRepo := s.products.WithTx(tx)
		walletsRepo := s.wallets.WithTx(tx)
		downloadsRepo := s.downloads.WithTx(tx)

		product, err := productsRepo.FindActiveByID(ctx, productID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found or inactive")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		buyer := s.lookupProfileByEmail(ctx, tx, event.Data.Customer.Email)

		rate, err := s.resolveCommissionRate(ctx, tx, buyer)
		if err != nil {
			return err
		}
		commission := amount.Mul(rate).Round(2)
		adminShare := amount.Sub(commission)

		referrer := s.resolveReferrer(ctx, tx, event.Data.Metadata.ReferralCode, buyer)
		referralCut := decimal.Zero
		if referrer != nil {
			referralCut = commission.Mul(s.commission.ProductReferralShare).Round(2)
		}
		buyerCredit := commission.Sub(referralCut)

		now := s.now().UTC()
		sale := &models.Sale{
			ProductID:        product.ID,
			BuyerEmail:       event.Data.Customer.Email,
			SaleAmount:       amount,
			CommissionAmount: commission,
			AdminAmount:      adminShare,
			TransactionID:    reference,
			Status:           enums.SaleStatusCompleted,
		}
		if buyer != nil {
			sale.BuyerID = &buyer.UserID
		}
		if code := strings.TrimSpace(event.Data.Metadata.ReferralCode); code != "" {
			sale.ReferralLink = &code
		}
		if err := salesRepo.Create(ctx, sale); err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_sales_transaction_id") {
				result.Duplicate = true
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
		}
		result.SaleID = &sale.ID

		if buyer != nil && buyerCredit.IsPositive() {
			if err := walletsRepo.Credit(ctx, buyer.UserID, buyerCredit); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit buyer wallet")
			}
		}

		if referrer != nil && referralCut.IsPositive() {
			commissionRow := &models.ReferralCommission{
				ReferrerID:       referrer.UserID,
				ReferredUserID:   buyer.UserID,
				ProductID:        &product.ID,
				SaleID:           &sale.ID,
				CommissionAmount: referralCut,
				CommissionRate:   s.commission.ProductReferralShare,
				Status:           enums.CommissionStatusCompleted,
			}
			if err := s.referrals.WithTx(tx).Create(ctx, commissionRow); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record referral commission")
			}
			if err := walletsRepo.Credit(ctx, referrer.UserID, referralCut); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit referrer wallet")
			}
		}

		if err := productsRepo.IncrementDownloadCount(ctx, product.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump product download count")
		}

		grant := &models.Download{
			ProductID:  product.ID,
			BuyerEmail: event.Data.Customer.Email,
			SaleID:     &sale.ID,
		}
		if buyer != nil {
			grant.UserID = &buyer.UserID
		} else if s.downloadsCfg.GuestGrantTTL > 0 {
			expiry := now.Add(s.downloadsCfg.GuestGrantTTL)
			grant.ExpiresAt = &expiry
		}
		if err := downloadsRepo.Create(ctx, grant); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant download")
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"reference": reference,
		"product":   productID.String(),
		"duplicate": result.Duplicate,
	})
	s.logg.Info(logCtx, "product charge settled")
	return result, nil
}

func (s *service) settleSubscription(ctx context.Context, event paystack.WebhookEvent, planID uuid.UUID, amount decimal.Decimal) (*Result, error) {
	reference := event.Data.Reference
	result := &Result{Kind: KindSubscription, Reference: reference}

	if existing, err := s.subscriptions.FindByPaymentReference(ctx, reference); err == nil {
		result.Duplicate = true
		result.SubscriptionID = &existing.ID
		return result, nil
	} else if err != gorm.ErrRecordNotFound {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing subscription")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		subsRepo := s.subscriptions.WithTx(tx)
		walletsRepo := s.wallets.WithTx(tx)

		plan, err := subsRepo.FindPlanByID(ctx, planID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "subscription plan not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
		}

		buyer := s.lookupProfileByEmail(ctx, tx, event.Data.Customer.Email)
		if buyer == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no profile for paying customer")
		}

		if err := subsRepo.ExpireActiveForUser(ctx, buyer.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire previous subscription")
		}

		now := s.now().UTC()
		subscription := &models.UserSubscription{
			UserID:           buyer.UserID,
			PlanID:           plan.ID,
			Status:           enums.SubscriptionStatusActive,
			PaymentReference: &reference,
			StartDate:        now,
			EndDate:          now.AddDate(0, plan.DurationMonths, 0),
		}
		if err := subsRepo.Create(ctx, subscription); err != nil {
			if dbpkg.IsUniqueViolation(err, "uq_user_subscriptions_payment_reference") {
				result.Duplicate = true
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}
		result.SubscriptionID = &subscription.ID

		referrer := s.resolveSubscriptionReferrer(ctx, tx, event.Data.Metadata.ReferralCode, buyer)
		if referrer != nil {
			cut := amount.Mul(s.commission.SubscriptionReferralShare).Round(2)
			if cut.IsPositive() {
				commissionRow := &models.ReferralCommission{
					ReferrerID:       referrer.UserID,
					ReferredUserID:   buyer.UserID,
					CommissionAmount: cut,
					CommissionRate:   s.commission.SubscriptionReferralShare,
					Status:           enums.CommissionStatusCompleted,
				}
				if err := s.referrals.WithTx(tx).Create(ctx, commissionRow); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record referral commission")
				}
				if err := walletsRepo.Credit(ctx, referrer.UserID, cut); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit referrer wallet")
				}
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"reference": reference,
		"plan":      planID.String(),
		"duplicate": result.Duplicate,
	})
	s.logg.Info(logCtx, "subscription charge settled")
	return result, nil
}

// resolveCommissionRate prefers the buyer's plan rate while their membership
// is in force; everyone else earns the default rate. Guests have no wallet,
// but their rate still shapes the admin split.
func (s *service) resolveCommissionRate(ctx context.Context, tx *gorm.DB, buyer *models.Profile) (decimal.Decimal, error) {
	if buyer == nil {
		return s.commission.DefaultRate, nil
	}

	subsRepo := s.subscriptions.WithTx(tx)
	subscription, err := subsRepo.FindActiveByUser(ctx, buyer.UserID, s.now().UTC())
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return s.commission.DefaultRate, nil
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer subscription")
	}

	plan, err := subsRepo.FindPlanByID(ctx, subscription.PlanID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer plan")
	}
	return plan.CommissionRate, nil
}

func (s *service) lookupProfileByEmail(ctx context.Context, tx *gorm.DB, email string) *models.Profile {
	profile, err := s.profiles.WithTx(tx).FindByEmail(ctx, email)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "profile lookup by email failed")
		}
		return nil
	}
	return profile
}

// resolveReferrer maps a share code to the earning profile. Referrals only
// pay when the buyer has a profile; guest checkouts, unknown codes and
// self-referrals settle the sale without a referral cut rather than failing
// the charge.
func (s *service) resolveReferrer(ctx context.Context, tx *gorm.DB, code string, buyer *models.Profile) *models.Profile {
	if buyer == nil {
		return nil
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	referrer, err := s.profiles.WithTx(tx).FindByReferralCode(ctx, code)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "referral code lookup failed")
		}
		return nil
	}
	if buyer != nil && referrer.UserID == buyer.UserID {
		return nil
	}
	return referrer
}

// resolveSubscriptionReferrer falls back to the signup-time referrer when the
// checkout carried no share code.
func (s *service) resolveSubscriptionReferrer(ctx context.Context, tx *gorm.DB, code string, buyer *models.Profile) *models.Profile {
	if referrer := s.resolveReferrer(ctx, tx, code, buyer); referrer != nil {
		return referrer
	}
	if buyer.ReferredBy == nil || *buyer.ReferredBy == buyer.UserID {
		return nil
	}
	referrer, err := s.profiles.WithTx(tx).FindByUserID(ctx, *buyer.ReferredBy)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "signup referrer lookup failed")
		}
		return nil
	}
	return referrer
}
