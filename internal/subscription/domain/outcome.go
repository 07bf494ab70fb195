package domain

type OutcomeKind string

const (
	OutcomeSuccess          OutcomeKind = "success"
	OutcomeCurrencyMismatch OutcomeKind = "currency_mismatch"
	OutcomeFailure          OutcomeKind = "failure"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Outcome is the tagged result of one submission. Only the fields of
// the active Kind are meaningful.
type Outcome struct {
	Kind           OutcomeKind `json:"kind"`
	SubscriptionID string      `json:"subscription_id,omitempty"`
	Action         Action      `json:"action,omitempty"`
	Message        string      `json:"message,omitempty"`

	// RefreshCustomer names the customer whose subscription list is stale.
	RefreshCustomer string `json:"refresh_customer,omitempty"`
	// Transport marks a Failure where the upsert call itself did not complete.
	Transport bool `json:"transport,omitempty"`
}

func Success(subscriptionID string, action Action) Outcome {
	return Outcome{Kind: OutcomeSuccess, SubscriptionID: subscriptionID, Action: action}
}

func CurrencyMismatch() Outcome {
	return Outcome{Kind: OutcomeCurrencyMismatch}
}

func Failure(message string) Outcome {
	return Outcome{Kind: OutcomeFailure, Message: message}
}

// Confirm reports whether the caller should show a positive confirmation.
func (o Outcome) Confirm() bool {
	return o.Kind == OutcomeSuccess
}

// ReportGlobally is false for the currency mismatch, which the form
// handles inline instead of through the generic error channel.
func (o Outcome) ReportGlobally() bool {
	return o.Kind == OutcomeFailure
}

// Recoverable outcomes keep the form open for the user to adjust.
func (o Outcome) Recoverable() bool {
	return o.Kind == OutcomeCurrencyMismatch
}
