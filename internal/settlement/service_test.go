package settlement

import (
	"context"
	"strings"
	"testing"
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
	"github.com/digimartng/digimart-backend/pkg/db/models"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
	"github.com/digimartng/digimart-backend/pkg/pagination"
	"github.com/digimartng/digimart-backend/pkg/paystack"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeSalesRepo struct {
	byTransactionID map[string]*models.Sale
	created         []*models.Sale
	createErr       error
}

func (f *fakeSalesRepo) WithTx(tx *gorm.DB) sales.Repository { return f }

func (f *fakeSalesRepo) Create(ctx context.Context, sale *models.Sale) error {
	if f.createErr != nil {
		return f.createErr
	}
	sale.ID = uuid.New()
	f.created = append(f.created, sale)
	return nil
}

func (f *fakeSalesRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.Sale, error) {
	if sale, ok := f.byTransactionID[transactionID]; ok {
		return sale, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSalesRepo) ListByBuyer(ctx context.Context, params sales.ListParams) ([]models.Sale, *pagination.Cursor, error) {
	return nil, nil, nil
}

type fakeProductsRepo struct {
	product    *models.Product
	increments int
}

func (f *fakeProductsRepo) WithTx(tx *gorm.DB) products.Repository { return f }

func (f *fakeProductsRepo) FindByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return f.FindActiveByID(ctx, productID)
}

func (f *fakeProductsRepo) FindActiveByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if f.product == nil || f.product.ID != productID || !f.product.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return f.product, nil
}

func (f *fakeProductsRepo) IncrementDownloadCount(ctx context.Context, productID uuid.UUID) error {
	f.increments++
	return nil
}

type fakeProfilesRepo struct {
	byEmail map[string]*models.Profile
	byCode  map[string]*models.Profile
	byUser  map[uuid.UUID]*models.Profile
}

func (f *fakeProfilesRepo) WithTx(tx *gorm.DB) profiles.Repository { return f }

func (f *fakeProfilesRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if profile, ok := f.byUser[userID]; ok {
		return profile, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProfilesRepo) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	if profile, ok := f.byEmail[strings.ToLower(email)]; ok {
		return profile, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProfilesRepo) FindByReferralCode(ctx context.Context, code string) (*models.Profile, error) {
	if profile, ok := f.byCode[code]; ok {
		return profile, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProfilesRepo) UpdateBankDetails(ctx context.Context, userID uuid.UUID, accountName, accountNumber, bankName string) error {
	return nil
}

type fakeWalletsRepo struct {
	credits map[uuid.UUID]decimal.Decimal
}

func (f *fakeWalletsRepo) WithTx(tx *gorm.DB) wallets.Repository { return f }

func (f *fakeWalletsRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWalletsRepo) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if f.credits == nil {
		f.credits = map[uuid.UUID]decimal.Decimal{}
	}
	f.credits[userID] = f.credits[userID].Add(amount)
	return nil
}

func (f *fakeWalletsRepo) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	return false, nil
}

func (f *fakeWalletsRepo) Refund(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return nil
}

func (f *fakeWalletsRepo) RecordWithdrawn(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	return nil
}

type fakeSubscriptionsRepo struct {
	plans       map[uuid.UUID]*models.SubscriptionPlan
	active      map[uuid.UUID]*models.UserSubscription
	byReference map[string]*models.UserSubscription
	created     []*models.UserSubscription
	expiredFor  []uuid.UUID
}

func (f *fakeSubscriptionsRepo) WithTx(tx *gorm.DB) subscriptions.Repository { return f }

func (f *fakeSubscriptionsRepo) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return nil, nil
}

func (f *fakeSubscriptionsRepo) FindPlanByID(ctx context.Context, planID uuid.UUID) (*models.SubscriptionPlan, error) {
	if plan, ok := f.plans[planID]; ok {
		return plan, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptionsRepo) FindFreePlan(ctx context.Context) (*models.SubscriptionPlan, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptionsRepo) Create(ctx context.Context, subscription *models.UserSubscription) error {
	subscription.ID = uuid.New()
	f.created = append(f.created, subscription)
	return nil
}

func (f *fakeSubscriptionsRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*models.UserSubscription, error) {
	if subscription, ok := f.active[userID]; ok && subscription.EndDate.After(now) {
		return subscription, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptionsRepo) FindByPaymentReference(ctx context.Context, reference string) (*models.UserSubscription, error) {
	if subscription, ok := f.byReference[reference]; ok {
		return subscription, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptionsRepo) ExpireActiveForUser(ctx context.Context, userID uuid.UUID) error {
	f.expiredFor = append(f.expiredFor, userID)
	return nil
}

func (f *fakeSubscriptionsRepo) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeReferralsRepo struct {
	created []*models.ReferralCommission
}

func (f *fakeReferralsRepo) WithTx(tx *gorm.DB) referrals.Repository { return f }

func (f *fakeReferralsRepo) Create(ctx context.Context, commission *models.ReferralCommission) error {
	commission.ID = uuid.New()
	f.created = append(f.created, commission)
	return nil
}

func (f *fakeReferralsRepo) ListByReferrer(ctx context.Context, params referrals.ListParams) ([]models.ReferralCommission, *pagination.Cursor, error) {
	return nil, nil, nil
}

type fakeDownloadsRepo struct {
	created []*models.Download
}

func (f *fakeDownloadsRepo) WithTx(tx *gorm.DB) downloads.Repository { return f }

func (f *fakeDownloadsRepo) Create(ctx context.Context, download *models.Download) error {
	download.ID = uuid.New()
	f.created = append(f.created, download)
	return nil
}

func (f *fakeDownloadsRepo) FindByID(ctx context.Context, downloadID uuid.UUID) (*models.Download, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDownloadsRepo) FindForUser(ctx context.Context, userID, productID uuid.UUID) (*models.Download, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDownloadsRepo) FindForEmail(ctx context.Context, email string, productID uuid.UUID) (*models.Download, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDownloadsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Download, error) {
	return nil, nil
}

func (f *fakeDownloadsRepo) IncrementCount(ctx context.Context, downloadID uuid.UUID) error {
	return nil
}

func (f *fakeDownloadsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type settlementFixture struct {
	service       Service
	sales         *fakeSalesRepo
	products      *fakeProductsRepo
	profiles      *fakeProfilesRepo
	wallets       *fakeWalletsRepo
	subscriptions *fakeSubscriptionsRepo
	referrals     *fakeReferralsRepo
	downloads     *fakeDownloadsRepo
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	fixture := &settlementFixture{
		sales:         &fakeSalesRepo{byTransactionID: map[string]*models.Sale{}},
		products:      &fakeProductsRepo{},
		profiles:      &fakeProfilesRepo{byEmail: map[string]*models.Profile{}, byCode: map[string]*models.Profile{}, byUser: map[uuid.UUID]*models.Profile{}},
		wallets:       &fakeWalletsRepo{credits: map[uuid.UUID]decimal.Decimal{}},
		subscriptions: &fakeSubscriptionsRepo{plans: map[uuid.UUID]*models.SubscriptionPlan{}, active: map[uuid.UUID]*models.UserSubscription{}, byReference: map[string]*models.UserSubscription{}},
		referrals:     &fakeReferralsRepo{},
		downloads:     &fakeDownloadsRepo{},
	}

	svc, err := NewService(ServiceParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Tx:            fakeTxRunner{},
		Sales:         fixture.sales,
		Products:      fixture.products,
		Profiles:      fixture.profiles,
		Wallets:       fixture.wallets,
		Subscriptions: fixture.subscriptions,
		Referrals:     fixture.referrals,
		Downloads:     fixture.downloads,
		Commission: config.CommissionConfig{
			DefaultRate:               decimal.RequireFromString("0.20"),
			ProductReferralShare:      decimal.RequireFromString("0.10"),
			SubscriptionReferralShare: decimal.RequireFromString("0.25"),
		},
		DownloadsCfg: config.DownloadsConfig{GuestGrantTTL: 720 * time.Hour},
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	fixture.service = svc
	return fixture
}

func productChargeEvent(productID uuid.UUID, amountKobo int64, email, reference, referralCode string) paystack.WebhookEvent {
	return paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.WebhookData{
			Reference: reference,
			Amount:    amountKobo,
			Customer:  paystack.WebhookCustomer{Email: email},
			Metadata: paystack.WebhookMetadata{
				ProductID:    productID.String(),
				ReferralCode: referralCode,
			},
		},
	}
}

func TestSettle_ProductChargeDefaultRate(t *testing.T) {
	fixture := newSettlementFixture(t)

	productID := uuid.New()
	fixture.products.product = &models.Product{ID: productID, IsActive: true, Price: decimal.RequireFromString("5000")}

	buyerUserID := uuid.New()
	fixture.profiles.byEmail["buyer@example.com"] = &models.Profile{UserID: buyerUserID, Email: "buyer@example.com"}

	// 5000 naira arrives as 500000 kobo.
	event := productChargeEvent(productID, 500000, "buyer@example.com", "ref-001", "")

	result, err := fixture.service.Settle(context.Background(), event)
	if err != nil {
		t.Fatalf("Settle error: %v", err)
	}
	if result.Kind != KindProduct || result.Duplicate {
		t.Fatalf("unexpected result: %+v", result)
	}

	if len(fixture.sales.created) != 1 {
		t.Fatalf("expected one sale, got %d", len(fixture.sales.created))
	}
	sale := fixture.sales.created[0]
	if !sale.SaleAmount.Equal(decimal.RequireFromString("5000")) {
		t.Fatalf("sale amount = %s, want 5000", sale.SaleAmount)
	}
	if !sale.CommissionAmount.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("commission = %s, want 1000", sale.CommissionAmount)
	}
	if !sale.AdminAmount.Equal(decimal.RequireFromString("4000")) {
		t.Fatalf("admin share = %s, want 4000", sale.AdminAmount)
	}
	if sale.BuyerID == nil || *sale.BuyerID != buyerUserID {
		t.Fatalf("sale buyer = %v, want %s", sale.BuyerID, buyerUserID)
	}

	if got := fixture.wallets.credits[buyerUserID]; !got.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("buyer credit = %s, want 1000", got)
	}
	if fixture.products.increments != 1 {
		t.Fatalf("download count increments = %d, want 1", fixture.products.increments)
	}
	if len(fixture.downloads.created) != 1 {
		t.Fatalf("expected one download grant, got %d", len(fixture.downloads.created))
	}
	if grant := fixture.downloads.created[0]; grant.UserID == nil || *grant.UserID != buyerUserID || grant.ExpiresAt != nil {
		t.Fatalf("unexpected grant for account holder: %+v", grant)
	}
}

func TestSettle_ProductChargeSubscriberRate(t *testing.T) {
	fixture := newSettlementFixture(t)

	productID := uuid.New()
	fixture.products.product = &models.Product{ID: productID, IsActive: true}

	buyerUserID := uuid.New()
	fixture.profiles.byEmail["pro@example.com"] = &models.Profile{UserID: buyerUserID, Email: "pro@example.com"}

	planID := uuid.New()
	fixture.subscriptions.plans[planID] = &models.SubscriptionPlan{ID: planID, CommissionRate: decimal.RequireFromString("0.50")}
	fixture.subscriptions.active[buyerUserID] = &models.UserSubscription{
		UserID:  buyerUserID,
		PlanID:  planID,
		EndDate: time.Now().Add(24 * time.Hour),
	}

	event := productChargeEvent(productID, 100000, "pro@example.com", "ref-002", "")

	if _, err := fixture.service.Settle(context.Background(), event); err != nil {
		t.Fatalf("Settle error: %v", err)
	}

	sale := fixture.sales.created[0]
	if !sale.CommissionAmount.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("commission = %s, want 500 at plan rate", sale.CommissionAmount)
	}
	if got := fixture.wallets.credits[buyerUserID]; !got.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("buyer credit = %s, want 500", got)
	}
}

func TestSettle_ProductChargeWithReferral(t *testing.T) {
	fixture := newSettlementFixture(t)

	productID := uuid.New()
	fixture.products.product = &models.Product{ID: productID, IsActive: true}

	buyerUserID := uuid.New()
	referrerUserID := uuid.New()
	fixture.profiles.byEmail["buyer@example.com"] = &models.Profile{UserID: buyerUserID, Email: "buyer@example.com"}
	fixture.profiles.byCode["FRIEND10"] = &models.Profile{UserID: referrerUserID}

	event := productChargeEvent(productID, 500000, "buyer@example.com", "ref-003", "FRIEND10")

	if _, err := fixture.service.Settle(context.Background(), event); err != nil {
		t.Fatalf("Settle error: %v", err)
	}

	// Commission 1000 splits 10% to the referrer, remainder to the buyer.
	if got := fixture.wallets.credits[referrerUserID]; !got.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("referrer credit = %s, want 100", got)
	}
	if got := fixture.wallets.credits[buyerUserID]; !got.Equal(decimal.RequireFromString("900")) {
		t.Fatalf("buyer credit = %s, want 900", got)
	}

	if len(fixture.referrals.created) != 1 {
		t.Fatalf("expected one referral commission, got %d", len(fixture.referrals.created))
	}
	row := fixture.referrals.created[0]
	if row.ReferrerID != referrerUserID || row.ReferredUserID != buyerUserID {
		t.Fatalf("unexpected referral parties: %+v", row)
	}
	if row.ProductID == nil || *row.ProductID != productID || row.SaleID == nil {
		t.Fatalf("referral commission missing sale linkage: %+v", row)
	}

	sale := fixture.sales.created[0]
	total := fixture.wallets.credits[buyerUserID].
		Add(fixture.wallets.credits[referrerUserID]).
		Add(sale.AdminAmount)
	if !total.Equal(sale.SaleAmount) {
		t.Fatalf("split does not conserve sale amount: %s != %s", total, sale.SaleAmount)
	}
}

func TestSettle_SelfReferralSkipped(t *testing.T) {
	fixture := newSettlementFixture(t)

	productID := uuid.New()
	fixture.products.product = &models.Product{ID: productID, IsActive: true}

	buyerUserID := uuid.New()
	buyer := &models.Profile{UserID: buyerUserID, Email: "buyer@example.com"}
	fixture.profiles.byEmail["buyer@example.com"] = buyer
	fixture.profiles.byCode["MYOWNCODE"] = buyer

	event := productChargeEvent(productID, 500000, "buyer@example.com", "ref-004", "MYOWNCODE")

	if _, err := fixture.service.Settle(context.Background(), event); err != nil {
		t.Fatalf("Settle error: %v", err)
	}

	if len(fixture.referrals.created) != 0 {
		t.Fatalf("self-referral must not create a commission, got %d", len(fixture.referrals.created))
	}
	if got := fixture.wallets.credits[buyerUserID]; !got.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("buyer keeps full commission on self-referral, got %s", got)
	}
}

func TestSettle_GuestPurchase(t *testing.T) {
	fixture := newSettlementFixture(t)

	productID := uuid.New()
	fixture.products.product = &models.Product{ID: productID, IsActive: true}

	event := productChargeEvent(productID, 250000, "guest@example.com", "ref-005", "")

	result, err := fixture.service.Settle(context.Background(), event)
	if err != nil {
		t.Fatalf("Settle error: %v", err)
	}
	if result.Duplicate {
		t.Fatal("guest purchase flagged duplicate")
	}

	if len(fixture.wallets.credits) != 0 {
		t.Fatalf("guest purchase must not credit any wallet: %v", fixture.wallets.credits)
	}
	sale := fixture.sales.created[0]
	if sale.BuyerID != nil {
		t.Fatalf("guest sale carries buyer id: %v", sale.BuyerID)
	}
	grant := fixture.downloads.created[0]
	if grant.UserID != nil || grant.ExpiresAt == nil {
		t.Fatalf("guest grant should be email-bound and expiring: %+v", grant)
	}
	if grant.BuyerEmail != "guest@example.com" {
		t.Fatalf("grant email = %s", grant.BuyerEmail)
	}
}

func TestSettle_GuestPurchaseIgnoresReferralCode(t *testing.T) {
	fixture := newSettlementFixture(t)

	productID := uuid.New()
	fixture.products.product = &models.Product{ID: productID, IsActive: true}

	referrerUserID := uuid.New()
	fixture.profiles.byCode["FRIEND10"] = &models.Profile{UserID: referrerUserID}

	event := productChargeEvent(productID, 250000, "guest@example.com", "ref-011", "FRIEND10")

	if _, err := fixture.service.Settle(context.Background(), event); err != nil {
		t.Fatalf("Settle error: %v", err)
	}

	// Referrals only pay on profiled buyers; a guest checkout carrying a
	// valid code settles without a commission row or referrer credit.
	if len(fixture.referrals.created) != 0 {
		t.Fatalf("guest purchase must not record a referral commission, got %d", len(fixture.referrals.created))
	}
	if len(fixture.wallets.credits) != 0 {
		t.Fatalf("guest purchase must not credit any wallet: %v", fixture.wallets.credits)
	}

	sale := fixture.sales.created[0]
	if !sale.CommissionAmount.Add(sale.AdminAmount).Equal(sale.SaleAmount) {
		t.Fatalf("split does not conserve sale amount: %s + %s != %s",
			sale.CommissionAmount, sale.AdminAmount, sale.SaleAmount)
	}
}

func TestSettle_DuplicateReference(t *testing.T) {
	fixture := newSettlementFixture(t)

	productID := uuid.New()
	fixture.products.product = &models.Product{ID: productID, IsActive: true}

	existing := &models.Sale{ID: uuid.New(), TransactionID: "ref-006"}
	fixture.sales.byTransactionID["ref-006"] = existing

	event := productChargeEvent(productID, 500000, "buyer@example.com", "ref-006", "")

	result, err := fixture.service.Settle(context.Background(), event)
	if err != nil {
		t.Fatalf("Settle error: %v", err)
	}
	if !result.Duplicate {
		t.Fatal("expected duplicate result for replayed reference")
	}
	if result.SaleID == nil || *result.SaleID != existing.ID {
		t.Fatalf("duplicate result should point at the existing sale: %+v", result)
	}
	if len(fixture.sales.created) != 0 || len(fixture.downloads.created) != 0 || len(fixture.wallets.credits) != 0 {
		t.Fatal("duplicate settlement must not touch any balance")
	}
}

func TestSettle_InactiveProductRejected(t *testing.T) {
	fixture := newSettlementFixture(t)

	productID := uuid.New()
	fixture.products.product = &models.Product{ID: productID, IsActive: false}

	event := productChargeEvent(productID, 500000, "buyer@example.com", "ref-007", "")

	_, err := fixture.service.Settle(context.Background(), event)
	if err == nil {
		t.Fatal("expected error for inactive product")
	}
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found domain error, got %v", err)
	}
}

func TestSettle_SubscriptionCharge(t *testing.T) {
	fixture := newSettlementFixture(t)

	buyerUserID := uuid.New()
	fixture.profiles.byEmail["member@example.com"] = &models.Profile{UserID: buyerUserID, Email: "member@example.com"}

	planID := uuid.New()
	fixture.subscriptions.plans[planID] = &models.SubscriptionPlan{ID: planID, DurationMonths: 3}

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.WebhookData{
			Reference: "sub-001",
			Amount:    600000,
			Customer:  paystack.WebhookCustomer{Email: "member@example.com"},
			Metadata:  paystack.WebhookMetadata{PlanID: planID.String()},
		},
	}

	result, err := fixture.service.Settle(context.Background(), event)
	if err != nil {
		t.Fatalf("Settle error: %v", err)
	}
	if result.Kind != KindSubscription || result.Duplicate {
		t.Fatalf("unexpected result: %+v", result)
	}

	if len(fixture.subscriptions.created) != 1 {
		t.Fatalf("expected one subscription, got %d", len(fixture.subscriptions.created))
	}
	subscription := fixture.subscriptions.created[0]
	if subscription.UserID != buyerUserID || subscription.PlanID != planID {
		t.Fatalf("unexpected subscription: %+v", subscription)
	}
	if subscription.PaymentReference == nil || *subscription.PaymentReference != "sub-001" {
		t.Fatalf("payment reference not recorded: %+v", subscription)
	}
	if months := subscription.EndDate.Sub(subscription.StartDate); months < 80*24*time.Hour {
		t.Fatalf("end date should be three months out: %v", months)
	}
	if len(fixture.subscriptions.expiredFor) != 1 || fixture.subscriptions.expiredFor[0] != buyerUserID {
		t.Fatalf("previous subscription not retired: %v", fixture.subscriptions.expiredFor)
	}
}

func TestSettle_SubscriptionReferralFromSignup(t *testing.T) {
	fixture := newSettlementFixture(t)

	referrerUserID := uuid.New()
	buyerUserID := uuid.New()
	fixture.profiles.byUser[referrerUserID] = &models.Profile{UserID: referrerUserID}
	fixture.profiles.byEmail["member@example.com"] = &models.Profile{
		UserID:     buyerUserID,
		Email:      "member@example.com",
		ReferredBy: &referrerUserID,
	}

	planID := uuid.New()
	fixture.subscriptions.plans[planID] = &models.SubscriptionPlan{ID: planID, DurationMonths: 1}

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.WebhookData{
			Reference: "sub-002",
			Amount:    1000000,
			Customer:  paystack.WebhookCustomer{Email: "member@example.com"},
			Metadata:  paystack.WebhookMetadata{PlanID: planID.String()},
		},
	}

	if _, err := fixture.service.Settle(context.Background(), event); err != nil {
		t.Fatalf("Settle error: %v", err)
	}

	// 25% of the 10000 naira plan price.
	if got := fixture.wallets.credits[referrerUserID]; !got.Equal(decimal.RequireFromString("2500")) {
		t.Fatalf("referrer credit = %s, want 2500", got)
	}
	if len(fixture.referrals.created) != 1 {
		t.Fatalf("expected one referral commission, got %d", len(fixture.referrals.created))
	}
	row := fixture.referrals.created[0]
	if row.ProductID != nil || row.SaleID != nil {
		t.Fatalf("subscription commission must not link a sale: %+v", row)
	}
}

func TestSettle_SubscriptionDuplicateReference(t *testing.T) {
	fixture := newSettlementFixture(t)

	existing := &models.UserSubscription{ID: uuid.New()}
	fixture.subscriptions.byReference["sub-003"] = existing

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.WebhookData{
			Reference: "sub-003",
			Amount:    600000,
			Customer:  paystack.WebhookCustomer{Email: "member@example.com"},
			Metadata:  paystack.WebhookMetadata{PlanID: uuid.New().String()},
		},
	}

	result, err := fixture.service.Settle(context.Background(), event)
	if err != nil {
		t.Fatalf("Settle error: %v", err)
	}
	if !result.Duplicate || result.SubscriptionID == nil || *result.SubscriptionID != existing.ID {
		t.Fatalf("expected duplicate pointing at existing subscription: %+v", result)
	}
	if len(fixture.subscriptions.created) != 0 {
		t.Fatal("duplicate must not create a subscription")
	}
}

func TestSettle_RejectsAmbiguousMetadata(t *testing.T) {
	fixture := newSettlementFixture(t)

	event := paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data: paystack.WebhookData{
			Reference: "ref-008",
			Amount:    1000,
			Customer:  paystack.WebhookCustomer{Email: "buyer@example.com"},
			Metadata: paystack.WebhookMetadata{
				ProductID: uuid.New().String(),
				PlanID:    uuid.New().String(),
			},
		},
	}

	if _, err := fixture.service.Settle(context.Background(), event); err == nil {
		t.Fatal("expected validation error for ambiguous metadata")
	}

	event.Data.Metadata = paystack.WebhookMetadata{}
	if _, err := fixture.service.Settle(context.Background(), event); err == nil {
		t.Fatal("expected validation error for empty metadata")
	}
}
