package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/grocery-backend/api/responses"
	"github.com/angelmondragon/grocery-backend/api/validators"
	"github.com/angelmondragon/grocery-backend/internal/orders"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

const exportContentType = "text/csv; charset=utf-8"

// AdminOrdersList returns a filtered, sorted page of all orders.
func AdminOrdersList(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		filters, err := parseAdminOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.Page = pagination.Page{Page: page, Limit: limit}

		list, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminOrdersDetail returns any order with its customer and address.
func AdminOrdersDetail(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type orderStatusRequest struct {
	Status        string  `json:"status" validate:"required"`
	PaymentStatus *string `json:"payment_status"`
}

// AdminOrdersUpdateStatus moves an order to a new status and optionally a new payment status.
func AdminOrdersUpdateStatus(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		actorID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParsePathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(normalizeEnum(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
				WithDetails(map[string]any{"field": "status"}))
			return
		}
		input := orders.StatusUpdateInput{
			OrderID:     orderID,
			Status:      status,
			ActorUserID: actorID,
		}
		if payload.PaymentStatus != nil {
			paymentStatus, err := enums.ParsePaymentStatus(normalizeEnum(*payload.PaymentStatus))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status").
					WithDetails(map[string]any{"field": "payment_status"}))
				return
			}
			input.PaymentStatus = &paymentStatus
		}

		detail, err := svc.UpdateStatus(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// AdminOrdersStats returns the aggregate summary for the requested window.
func AdminOrdersStats(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		query, err := parseDateQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// AdminOrdersDailyStats returns per-day order counts and paid revenue.
func AdminOrdersDailyStats(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		query, err := parseDateQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := svc.Daily(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, days)
	}
}

// AdminOrdersExport downloads the filtered orders as CSV.
func AdminOrdersExport(svc orders.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		filters, err := parseAdminOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body, err := svc.Export(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteAttachment(w, exportContentType, "orders.csv", body)
	}
}

func parseAdminOrderFilters(r *http.Request) (orders.AdminListFilters, error) {
	var filters orders.AdminListFilters
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(normalizeEnum(raw))
		if err != nil {
			return filters, invalidQuery("status", err)
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("payment_status")); raw != "" {
		status, err := enums.ParsePaymentStatus(normalizeEnum(raw))
		if err != nil {
			return filters, invalidQuery("payment_status", err)
		}
		filters.PaymentStatus = &status
	}
	if raw := strings.TrimSpace(q.Get("payment_method")); raw != "" {
		method, err := enums.ParsePaymentMethod(normalizeEnum(raw))
		if err != nil {
			return filters, invalidQuery("payment_method", err)
		}
		filters.PaymentMethod = &method
	}
	userID, err := validators.ParseQueryUUID(r, "user_id")
	if err != nil {
		return filters, err
	}
	filters.UserID = userID
	filters.Search = q.Get("search")

	date, err := parseDateQuery(r)
	if err != nil {
		return filters, err
	}
	filters.Date = date

	if raw := strings.TrimSpace(q.Get("sort_by")); raw != "" {
		filters.SortBy = orders.SortField(strings.ToLower(raw))
		filters.SortDesc = true
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("sort_order"))) {
	case "":
	case "asc":
		filters.SortDesc = false
	case "desc":
		filters.SortDesc = true
	default:
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "sort_order must be asc or desc").
			WithDetails(map[string]any{"field": "sort_order"})
	}
	return filters, nil
}

func parseDateQuery(r *http.Request) (orders.DateQuery, error) {
	query := orders.DateQuery{
		Filter: orders.DateFilter(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("date_filter")))),
	}
	if !query.Filter.IsValid() {
		return query, pkgerrors.New(pkgerrors.CodeValidation, "invalid date filter").
			WithDetails(map[string]any{"field": "date_filter"})
	}
	start, err := validators.ParseQueryTime(r, "start_date")
	if err != nil {
		return query, err
	}
	end, err := validators.ParseQueryTime(r, "end_date")
	if err != nil {
		return query, err
	}
	query.Start = start
	query.End = end
	return query, nil
}

func normalizeEnum(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func invalidQuery(field string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
		WithDetails(map[string]any{"field": field})
}
