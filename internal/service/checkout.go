package service

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/boddenberg/finance-tracker-go/internal/port"
)

// CheckoutBaseURL is the payment provider's subscription page.
const CheckoutBaseURL = "https://www.paypal.com/webapps/billing/plans/subscribe"

// Billing intervals offered by the plan page.
const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

// Plans maps billing intervals to the provider's plan ids.
type Plans struct {
	Monthly string
	Yearly  string
}

// Checkout builds the provider hand-off URL for the signed-in user.
// Provisioning happens on the provider and the backend; the client only
// links out.
type Checkout struct {
	plans   Plans
	session port.SessionSource
}

func NewCheckout(plans Plans, session port.SessionSource) *Checkout {
	return &Checkout{plans: plans, session: session}
}

// URL returns the checkout URL for interval, tagged with the user id.
func (c *Checkout) URL(interval string) (string, error) {
	var planID string
	switch interval {
	case IntervalMonthly:
		planID = c.plans.Monthly
	case IntervalYearly:
		planID = c.plans.Yearly
	default:
		return "", fmt.Errorf("unknown billing interval %q", interval)
	}
	if planID == "" {
		return "", fmt.Errorf("no plan id configured for %s billing", interval)
	}

	sess := c.session.Current()
	if !sess.Authenticated() {
		return "", errors.New("log in before upgrading")
	}

	return CheckoutBaseURL +
		"?plan_id=" + url.QueryEscape(planID) +
		"&custom_id=" + url.QueryEscape(string(sess.User.ID)), nil
}
