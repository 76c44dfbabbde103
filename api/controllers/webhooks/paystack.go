package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/digimartng/digimart-backend/api/responses"
	"github.com/digimartng/digimart-backend/internal/settlement"
	pkgerrors "github.com/digimartng/digimart-backend/pkg/errors"
	"github.com/digimartng/digimart-backend/pkg/logger"
	"github.com/digimartng/digimart-backend/pkg/metrics"
	"github.com/digimartng/digimart-backend/pkg/paystack"
)

type paystackSettler interface {
	Settle(ctx context.Context, event paystack.WebhookEvent) (*settlement.Result, error)
}

type paystackWebhookGuard interface {
	CheckAndMark(ctx context.Context, reference string) (bool, error)
	Delete(ctx context.Context, reference string) error
}

type paystackSecretSource interface {
	SecretKey() string
}

// PaystackWebhook ingests gateway charge notifications. The signature gate
// runs before anything else; an unsigned or mis-signed body never reaches
// settlement.
func PaystackWebhook(svc paystackSettler, client paystackSecretSource, guard paystackWebhookGuard, webhookMetrics *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paystack client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(paystack.SignatureHeader)
		if !paystack.VerifySignature(payload, signature, client.SecretKey()) {
			webhookMetrics.IncSignatureRejection()
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var event paystack.WebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload"))
			return
		}
		if err := event.Validate(); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// Everything except successful charges is acknowledged and dropped
		// so the gateway stops redelivering.
		if event.Event != paystack.EventChargeSuccess {
			responses.WriteSuccess(w, nil)
			return
		}

		ctx = logg.WithReference(ctx, event.Data.Reference)

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.Data.Reference)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]any{"duplicate": true})
			return
		}

		result, err := svc.Settle(ctx, event)
		if err != nil {
			// Release the mark so the gateway retry can settle the charge.
			_ = guard.Delete(ctx, event.Data.Reference)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logg.Info(ctx, "paystack charge settled")
		responses.WriteSuccess(w, map[string]any{
			"kind":      string(result.Kind),
			"duplicate": result.Duplicate,
		})
	}
}
