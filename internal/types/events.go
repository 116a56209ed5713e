package types

// DomainEventName names an event published after a state change commits
type DomainEventName string

const (
	EventInvoiceCreated DomainEventName = "invoice.created"
	EventCreditsAdded   DomainEventName = "credits.added"
	EventPlanChanged    DomainEventName = "plan.changed"
)

// Stripe event types handled by the payment webhook
const (
	StripeEventCheckoutSessionCompleted = "checkout.session.completed"
	StripeEventSubscriptionCreated      = "customer.subscription.created"
	StripeEventSubscriptionUpdated      = "customer.subscription.updated"
	StripeEventSubscriptionDeleted      = "customer.subscription.deleted"
)

// Checkout session metadata keys set by the credit purchase flow
const (
	MetadataBusinessID = "business_id"
	MetadataPurpose    = "purpose"
	MetadataQuantity   = "quantity"

	PurposeInvoiceCredits = "invoice_credits"
)
