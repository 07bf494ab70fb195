package lago

import (
	"context"
	"strings"
	"time"

	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"go.uber.org/zap"
)

const getPlansQuery = `query getPlans($page: Int, $limit: Int) {
  plans(page: $page, limit: $limit) {
    collection { id name code interval amountCents amountCurrency }
    metadata { currentPage totalPages }
  }
}`

const createSubscriptionMutation = `mutation createSubscription($input: CreateSubscriptionInput!) {
  createSubscription(input: $input) { id }
}`

type plansData struct {
	Plans struct {
		Collection []struct {
			ID             string  `json:"id"`
			Name           string  `json:"name"`
			Code           string  `json:"code"`
			Interval       string  `json:"interval"`
			AmountCents    flexInt `json:"amountCents"`
			AmountCurrency string  `json:"amountCurrency"`
		} `json:"collection"`
		Metadata struct {
			CurrentPage int `json:"currentPage"`
			TotalPages  int `json:"totalPages"`
		} `json:"metadata"`
	} `json:"plans"`
}

func (c *Client) FetchPlans(ctx context.Context, page, limit int) (plandomain.Page, error) {
	var data plansData
	gqlErrors, err := c.do(ctx, graphqlRequest{
		OperationName: "getPlans",
		Query:         getPlansQuery,
		Variables:     map[string]any{"page": page, "limit": limit},
	}, &data)
	if err != nil {
		return plandomain.Page{}, err
	}
	if len(gqlErrors) > 0 {
		return plandomain.Page{}, &subscriptiondomain.TransportError{Message: gqlErrors[0].Message}
	}

	out := plandomain.Page{
		Collection:  make([]plandomain.Plan, 0, len(data.Plans.Collection)),
		CurrentPage: data.Plans.Metadata.CurrentPage,
		TotalPages:  data.Plans.Metadata.TotalPages,
	}
	for _, item := range data.Plans.Collection {
		interval, err := plandomain.ParseInterval(item.Interval)
		if err != nil {
			// Unknown intervals stay on the plan; anchor computation
			// falls back to weekly for them.
			c.log.Warn("plan has unsupported interval",
				zap.String("plan_id", item.ID),
				zap.String("interval", item.Interval),
			)
			interval = plandomain.Interval(strings.ToLower(item.Interval))
		}
		out.Collection = append(out.Collection, plandomain.Plan{
			ID:             item.ID,
			Name:           item.Name,
			Code:           item.Code,
			Interval:       interval,
			AmountCents:    int64(item.AmountCents),
			AmountCurrency: item.AmountCurrency,
		})
	}
	return out, nil
}

type createSubscriptionData struct {
	CreateSubscription *struct {
		ID string `json:"id"`
	} `json:"createSubscription"`
}

func (c *Client) Upsert(ctx context.Context, req subscriptiondomain.SubmissionRequest) (subscriptiondomain.UpsertResult, error) {
	input := map[string]any{
		"customerId":  req.CustomerID,
		"planId":      req.PlanID,
		"billingTime": string(req.BillingTimeMode),
	}
	if req.ExistingSubscriptionID != "" {
		input["subscriptionId"] = req.ExistingSubscriptionID
	}
	if req.Name != "" {
		input["name"] = req.Name
	}
	if req.ExternalID != "" {
		input["externalId"] = req.ExternalID
	}
	if req.SubscriptionAt != nil {
		input["subscriptionAt"] = req.SubscriptionAt.UTC().Format(time.RFC3339)
	}
	if req.IdempotencyKey != "" {
		input["clientMutationId"] = req.IdempotencyKey
	}

	var data createSubscriptionData
	gqlErrors, err := c.do(ctx, graphqlRequest{
		OperationName: "createSubscription",
		Query:         createSubscriptionMutation,
		Variables:     map[string]any{"input": input},
	}, &data)
	if err != nil {
		return subscriptiondomain.UpsertResult{}, err
	}

	if len(gqlErrors) > 0 {
		entries := make([]subscriptiondomain.ErrorEntry, 0, len(gqlErrors))
		for _, gqlErr := range gqlErrors {
			entries = append(entries, subscriptiondomain.ErrorEntry{
				Code:    gqlErr.errorCode(subscriptiondomain.CodeCurrenciesDoesNotMatch),
				Message: gqlErr.Message,
			})
		}
		return subscriptiondomain.UpsertResult{Errors: entries}, nil
	}

	var result subscriptiondomain.UpsertResult
	if data.CreateSubscription != nil {
		result.SubscriptionID = data.CreateSubscription.ID
	}
	return result, nil
}
