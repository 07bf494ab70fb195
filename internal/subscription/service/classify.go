package service

import (
	"errors"
	"strings"

	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
)

const (
	genericFailureMessage   = "subscription could not be saved"
	genericTransportMessage = "unable to reach subscription service"
)

// Classify maps the errors of a rejected submission to an Outcome. Only
// the first entry is inspected.
func Classify(entries []subscriptiondomain.ErrorEntry) subscriptiondomain.Outcome {
	if len(entries) == 0 {
		return subscriptiondomain.Failure(genericFailureMessage)
	}

	first := entries[0]
	if strings.TrimSpace(first.Code) == subscriptiondomain.CodeCurrenciesDoesNotMatch {
		return subscriptiondomain.CurrencyMismatch()
	}

	if message := strings.TrimSpace(first.Message); message != "" {
		return subscriptiondomain.Failure(message)
	}
	if code := strings.TrimSpace(first.Code); code != "" {
		return subscriptiondomain.Failure(code)
	}
	return subscriptiondomain.Failure(genericFailureMessage)
}

// ClassifyTransport maps a failed call to a Failure flagged as transport.
func ClassifyTransport(err error) subscriptiondomain.Outcome {
	outcome := subscriptiondomain.Failure(genericTransportMessage)
	var transportErr *subscriptiondomain.TransportError
	if errors.As(err, &transportErr) {
		if message := strings.TrimSpace(transportErr.Message); message != "" {
			outcome.Message = message
		}
	}
	outcome.Transport = true
	return outcome
}
