package service

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/radu9120/ZeroDue-sub000/internal/domain/credit"
	ierr "github.com/radu9120/ZeroDue-sub000/internal/errors"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PaymentService applies payment provider events: paid credit checkouts top
// up the balance and subscription changes move the business between plans
type PaymentService interface {
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	ServiceParams
	credits    CreditService
	businesses BusinessService
}

func NewPaymentService(params ServiceParams, credits CreditService, businesses BusinessService) PaymentService {
	return &paymentService{
		ServiceParams: params,
		credits:       credits,
		businesses:    businesses,
	}
}

func (s *paymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.parseEvent(payload, signature)
	if err != nil {
		return err
	}

	s.Logger.Infow("received stripe webhook",
		"event_id", event.ID,
		"event_type", event.Type,
	)

	// payment provider events act on behalf of the system, not a user
	ctx = types.SetAdmin(ctx)

	switch string(event.Type) {
	case types.StripeEventCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case types.StripeEventSubscriptionCreated, types.StripeEventSubscriptionUpdated:
		return s.handleSubscriptionChanged(ctx, event)
	case types.StripeEventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		s.Logger.Debugw("ignoring stripe event", "event_type", event.Type)
		return nil
	}
}

// parseEvent verifies the signature against the configured webhook secret.
// Unsigned payloads are accepted only in local mode without a secret.
func (s *paymentService) parseEvent(payload []byte, signature string) (*stripe.Event, error) {
	secret := s.Config.Stripe.WebhookSecret
	if secret == "" {
		if s.Config.Deployment.Mode != types.ModeLocal {
			s.Logger.Errorw("rejecting stripe webhook, no webhook secret configured",
				"mode", s.Config.Deployment.Mode,
			)
			return nil, ierr.NewError("webhook secret not configured").
				WithHint("Webhook signature could not be verified").
				Mark(ierr.ErrUnauthorized)
		}
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Invalid webhook payload").
				Mark(ierr.ErrValidation)
		}
		return &event, nil
	}

	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, options)
	if err != nil {
		s.Logger.Errorw("stripe webhook verification failed", "error", err)
		return nil, ierr.NewError("failed to verify webhook signature").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrUnauthorized)
	}
	return &event, nil
}

func (s *paymentService) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	raw, err := eventObject(event)
	if err != nil {
		return err
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid checkout session data in webhook").
			Mark(ierr.ErrValidation)
	}

	if session.Metadata[types.MetadataPurpose] != types.PurposeInvoiceCredits {
		s.Logger.Debugw("ignoring checkout session for another purpose",
			"session_id", session.ID,
			"purpose", session.Metadata[types.MetadataPurpose],
		)
		return nil
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		s.Logger.Infow("checkout session not paid yet, waiting for confirmation",
			"session_id", session.ID,
			"payment_status", session.PaymentStatus,
		)
		return nil
	}

	businessID := session.Metadata[types.MetadataBusinessID]
	quantity, err := strconv.Atoi(session.Metadata[types.MetadataQuantity])
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Checkout session %s carries an invalid credit quantity", session.ID).
			Mark(ierr.ErrInvalidQuantity)
	}

	purchase := credit.NewPurchase(ctx, businessID, quantity, session.ID)
	purchase.Amount = decimal.New(session.AmountTotal, -2)
	purchase.Currency = string(session.Currency)

	result, err := s.credits.AddPurchasedCredits(ctx, purchase)
	if err != nil {
		return err
	}

	s.Logger.Infow("applied purchased invoice credits",
		"business_id", businessID,
		"session_id", session.ID,
		"quantity", quantity,
		"balance", result.Balance,
		"applied", result.Applied,
	)
	return nil
}

func (s *paymentService) handleSubscriptionChanged(ctx context.Context, event *stripe.Event) error {
	sub, err := parseSubscription(event)
	if err != nil {
		return err
	}

	businessID := sub.Metadata[types.MetadataBusinessID]
	if businessID == "" {
		s.Logger.Warnw("subscription without business id", "subscription_id", sub.ID)
		return nil
	}

	plan := types.PlanFree
	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		var ok bool
		if plan, ok = s.planForSubscription(sub); !ok {
			s.Logger.Warnw("subscription price is not mapped to a plan",
				"subscription_id", sub.ID,
				"business_id", businessID,
			)
			return nil
		}
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusIncomplete:
		// keep the current plan until the provider settles the payment
		return nil
	}

	_, err = s.businesses.UpdatePlan(ctx, businessID, plan)
	return err
}

func (s *paymentService) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	sub, err := parseSubscription(event)
	if err != nil {
		return err
	}

	businessID := sub.Metadata[types.MetadataBusinessID]
	if businessID == "" {
		return nil
	}

	_, err = s.businesses.UpdatePlan(ctx, businessID, types.PlanFree)
	if ierr.IsNotFound(err) {
		// the business was deleted before the subscription
		return nil
	}
	return err
}

func (s *paymentService) planForSubscription(sub *stripe.Subscription) (types.PlanTier, bool) {
	if sub.Items == nil {
		return "", false
	}
	for _, item := range sub.Items.Data {
		if item == nil || item.Price == nil {
			continue
		}
		if plan, ok := s.Config.Stripe.PlanForPrice(item.Price.ID); ok {
			return plan, true
		}
	}
	return "", false
}

func parseSubscription(event *stripe.Event) (*stripe.Subscription, error) {
	raw, err := eventObject(event)
	if err != nil {
		return nil, err
	}
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid subscription data in webhook").
			Mark(ierr.ErrValidation)
	}
	return &sub, nil
}

func eventObject(event *stripe.Event) (json.RawMessage, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, ierr.NewError("webhook event has no data").
			WithHintf("Event %s carries no object", event.ID).
			Mark(ierr.ErrValidation)
	}
	return event.Data.Raw, nil
}
