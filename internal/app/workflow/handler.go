package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"comanda/internal/domain/orders"
	"comanda/internal/ports"
	"comanda/internal/shared/logger"
)

// HTTPHandler adapts HTTP requests to the workflow Service. It stays thin:
// decode, call, render.
type HTTPHandler struct {
	svc    *Service
	logger *logger.Logger
}

// NewHTTPHandler wires an HTTP handler around the workflow Service.
func NewHTTPHandler(svc *Service, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: log}
}

// Register mounts the workflow routes on the provided mux.
func (handler *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", handler.handleCreateOrder)
	mux.HandleFunc("POST /orders/{id}/items", handler.handleAddLineItem)
	mux.HandleFunc("POST /orders/{id}/cook", handler.handleStartCooking)
	mux.HandleFunc("POST /orders/{id}/finish", handler.handleFinishOrder)
	mux.HandleFunc("POST /orders/{id}/pay", handler.handleMarkPaid)
	mux.HandleFunc("POST /orders/{id}/dispatch", handler.handleDispatch)
	mux.HandleFunc("POST /recipients", handler.handleRegisterRecipient)
	mux.HandleFunc("GET /history", handler.handleListHistory)
	mux.HandleFunc("GET /orders/{id}/history", handler.handleOrderHistory)
}

// --- Request/Response DTOs (HTTP boundary) ---

type createOrderRequest struct {
	CustomerName string `json:"customer_name"`
}

type addLineItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type dispatchRequest struct {
	Role    string `json:"role,omitempty"`
	StaffID *int64 `json:"staff_id,omitempty"`
}

type registerRecipientRequest struct {
	Name string `json:"name"`
}

type lineItemView struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type orderView struct {
	ID           int64          `json:"id"`
	CustomerName string         `json:"customer_name"`
	CreatedAt    time.Time      `json:"created_at"`
	Paid         bool           `json:"paid"`
	Status       string         `json:"status"`
	Total        float64        `json:"total"`
	Items        []lineItemView `json:"items"`
}

type snapshotView struct {
	OrderID      int64     `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	CreatedAt    time.Time `json:"created_at"`
	Paid         bool      `json:"paid"`
	ItemCount    int       `json:"item_count"`
	Total        float64   `json:"total"`
	Status       string    `json:"status"`
	TakenAt      time.Time `json:"taken_at"`
}

func toOrderView(order *orders.Order) orderView {
	items := make([]lineItemView, len(order.Items))
	for i, it := range order.Items {
		items[i] = lineItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.Float(),
			Subtotal:  it.Subtotal().Float(),
		}
	}
	return orderView{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		CreatedAt:    order.CreatedAt,
		Paid:         order.Paid,
		Status:       order.Status.String(),
		Total:        order.Total().Float(),
		Items:        items,
	}
}

func toSnapshotView(snap orders.Snapshot) snapshotView {
	return snapshotView{
		OrderID:      snap.OrderID,
		CustomerName: snap.CustomerName,
		CreatedAt:    snap.CreatedAt,
		Paid:         snap.Paid,
		ItemCount:    snap.ItemCount,
		Total:        snap.Total.Float(),
		Status:       snap.Status.String(),
		TakenAt:      snap.TakenAt,
	}
}

// --- Handlers ---

func (handler *HTTPHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r)

	var req createOrderRequest
	if !handler.decode(ctx, w, r, &req) {
		return
	}

	order, err := handler.svc.CreateOrder(ctx, req.CustomerName)
	if err != nil {
		handler.respondError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusCreated, toOrderView(order))
}

func (handler *HTTPHandler) handleAddLineItem(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r)

	orderID, ok := handler.pathID(ctx, w, r)
	if !ok {
		return
	}

	var req addLineItemRequest
	if !handler.decode(ctx, w, r, &req) {
		return
	}

	order, err := handler.svc.AddLineItem(ctx, orderID, req.ProductID, req.Quantity)
	if err != nil {
		handler.respondError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, toOrderView(order))
}

func (handler *HTTPHandler) handleStartCooking(w http.ResponseWriter, r *http.Request) {
	handler.handleTransition(w, r, handler.svc.StartCooking)
}

func (handler *HTTPHandler) handleFinishOrder(w http.ResponseWriter, r *http.Request) {
	handler.handleTransition(w, r, handler.svc.FinishOrder)
}

func (handler *HTTPHandler) handleTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (*orders.Order, error)) {
	ctx := handler.withReqID(r)

	orderID, ok := handler.pathID(ctx, w, r)
	if !ok {
		return
	}

	order, err := op(ctx, orderID)
	if err != nil {
		handler.respondError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, toOrderView(order))
}

func (handler *HTTPHandler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r)

	orderID, ok := handler.pathID(ctx, w, r)
	if !ok {
		return
	}

	order, err := handler.svc.MarkPaid(ctx, orderID)
	if err != nil {
		handler.respondError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, toOrderView(order))
}

func (handler *HTTPHandler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r)

	orderID, ok := handler.pathID(ctx, w, r)
	if !ok {
		return
	}

	var req dispatchRequest
	if !handler.decode(ctx, w, r, &req) {
		return
	}

	var outcome Outcome
	var err error
	switch {
	case req.StaffID != nil:
		outcome, err = handler.svc.DispatchByStaff(ctx, orderID, *req.StaffID)
	case strings.TrimSpace(req.Role) != "":
		outcome, err = handler.svc.DispatchByRole(ctx, orderID, req.Role)
	default:
		handler.httpError(ctx, w, http.StatusBadRequest, "either role or staff_id is required", errors.New("empty dispatch request"))
		return
	}
	if err != nil {
		handler.respondError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, outcome)
}

func (handler *HTTPHandler) handleRegisterRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r)

	var req registerRecipientRequest
	if !handler.decode(ctx, w, r, &req) {
		return
	}

	if err := handler.svc.RegisterRecipient(ctx, req.Name); err != nil {
		handler.respondError(ctx, w, err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusNoContent, nil)
}

func (handler *HTTPHandler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r)

	entries := handler.svc.ListHistory()
	views := make([]snapshotView, len(entries))
	for i, snap := range entries {
		views[i] = toSnapshotView(snap)
	}
	handler.jsonResponse(ctx, w, http.StatusOK, views)
}

func (handler *HTTPHandler) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r)

	orderID, ok := handler.pathID(ctx, w, r)
	if !ok {
		return
	}

	snap, found := handler.svc.LatestSnapshot(orderID)
	if !found {
		handler.httpError(ctx, w, http.StatusNotFound, "no history for order", ports.ErrNotFound)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusOK, toSnapshotView(snap))
}

// --- Helpers ---

// decode strictly parses the JSON body into dst.
func (handler *HTTPHandler) decode(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errors.New("unsupported content type: "+ct))
		return false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return false
	}
	return true
}

// pathID parses the {id} path segment.
func (handler *HTTPHandler) pathID(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		handler.httpError(ctx, w, http.StatusBadRequest, "order id must be a positive integer", err)
		return 0, false
	}
	return id, true
}

// respondError maps service errors to HTTP statuses.
func (handler *HTTPHandler) respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var invalid *orders.InvalidTransitionError
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &invalid):
		handler.httpError(ctx, w, http.StatusConflict, invalid.Error(), err)
	case errors.Is(err, ports.ErrNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, "not found", err)
	case errors.Is(err, ports.ErrStaffNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, "staff not found", err)
	case errors.As(err, &pgErr):
		handler.httpError(ctx, w, http.StatusInternalServerError, "database error", err)
	default:
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	}
}

// httpError sends a JSON error response with a message.
func (handler *HTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	switch {
	case status >= 500:
		action = "http_internal_error"
	case status == http.StatusBadRequest:
		action = "validation_failed"
	case status == http.StatusNotFound:
		action = "resource_not_found"
	case status == http.StatusConflict:
		action = "invalid_transition"
	}
	handler.logger.Error(ctx, action, msg, err)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// jsonResponse encodes data and writes it with the given status.
func (handler *HTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	// encode to buffer first so we can control status on failure
	buf, err := json.Marshal(data)
	if err != nil {
		handler.logger.Error(ctx, "response_encode_failed", "failed to encode response", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *HTTPHandler) withReqID(r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	return handler.logger.WithRequestID(r.Context(), reqID)
}
