package analytics

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	internalanalytics "github.com/calebmoran/printworks-backend/internal/analytics"
	"github.com/calebmoran/printworks-backend/internal/analytics/types"
	"github.com/calebmoran/printworks-backend/internal/ledger"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
)

// AdminSummary aggregates storefront KPIs over a date range. The range
// defaults to the trailing 30 days when start and end are omitted.
func AdminSummary(svc internalanalytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		now := time.Now().UTC()
		req := types.SummaryRequest{Start: now.AddDate(0, 0, -30), End: now}

		if raw := strings.TrimSpace(r.URL.Query().Get("start")); raw != "" {
			start, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "start must be RFC3339"))
				return
			}
			req.Start = start
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("end")); raw != "" {
			end, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "end must be RFC3339"))
				return
			}
			req.End = end
		}
		if !req.End.After(req.Start) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start"))
			return
		}

		summary, err := svc.Summary(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// AdminCustomerLedger returns the recent balance-affecting events for a
// customer, newest first.
func AdminCustomerLedger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "customerId"))
		customerID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		events, err := svc.ListByCustomer(r.Context(), customerID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}
