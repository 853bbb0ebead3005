package invoicing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

// TermsConfig describes one net-terms option.
type TermsConfig struct {
	Days               int
	MinimumOrderAmount decimal.Decimal
	CreditRequired     bool
}

// TermsTable maps net-terms options to their configuration. Loaded once
// and treated as read-only.
type TermsTable map[enums.NetTerms]TermsConfig

// DefaultTermsTable returns the standard net-terms configuration.
func DefaultTermsTable() TermsTable {
	return TermsTable{
		enums.NetTerms15: {Days: 15, MinimumOrderAmount: decimal.NewFromInt(250), CreditRequired: false},
		enums.NetTerms30: {Days: 30, MinimumOrderAmount: decimal.NewFromInt(500), CreditRequired: true},
		enums.NetTerms45: {Days: 45, MinimumOrderAmount: decimal.NewFromInt(1000), CreditRequired: true},
		enums.NetTerms60: {Days: 60, MinimumOrderAmount: decimal.NewFromInt(2500), CreditRequired: true},
	}
}

// Config returns the configuration for a terms option.
func (t TermsTable) Config(terms enums.NetTerms) (TermsConfig, error) {
	cfg, ok := t[terms]
	if !ok {
		return TermsConfig{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown net terms %q", terms))
	}
	return cfg, nil
}

// NetTermsDecision is the outcome of a net-terms eligibility check.
type NetTermsDecision struct {
	Allowed bool
	Reason  string
}

// CanApplyNetTerms gates a net-terms request on two independent checks:
// the term's minimum order amount, and available credit when the term
// requires it. Either failing blocks approval with a specific reason.
func (t TermsTable) CanApplyNetTerms(terms enums.NetTerms, orderTotal, creditLimit, creditUsed decimal.Decimal) (NetTermsDecision, error) {
	cfg, err := t.Config(terms)
	if err != nil {
		return NetTermsDecision{}, err
	}

	if orderTotal.LessThan(cfg.MinimumOrderAmount) {
		return NetTermsDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("order total %s is below the %s minimum of %s", orderTotal.StringFixed(2), terms, cfg.MinimumOrderAmount.StringFixed(2)),
		}, nil
	}

	if cfg.CreditRequired {
		available := creditLimit.Sub(creditUsed)
		if available.LessThan(orderTotal) {
			return NetTermsDecision{
				Allowed: false,
				Reason:  fmt.Sprintf("available credit %s is insufficient for order total %s", available.StringFixed(2), orderTotal.StringFixed(2)),
			}, nil
		}
	}

	return NetTermsDecision{Allowed: true}, nil
}
