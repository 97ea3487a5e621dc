package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/audit"
	"github.com/husainf4l/gixat2-sub001/internal/filter"
	"github.com/husainf4l/gixat2-sub001/internal/observability/logger"
	"github.com/husainf4l/gixat2-sub001/internal/resolve"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
	"github.com/husainf4l/gixat2-sub001/internal/workshop"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	orgs        *tenant.Service
	repo        *workshop.Repository
	resolver    *resolve.Resolver
	registry    *filter.Registry
	auditLogger audit.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orgs *tenant.Service,
	repo *workshop.Repository,
	registry *filter.Registry,
	auditLogger audit.Logger,
) *Handler {
	return &Handler{
		orgs:        orgs,
		repo:        repo,
		resolver:    resolve.New(repo),
		registry:    registry,
		auditLogger: auditLogger,
	}
}

// RouterConfig carries the cross-cutting settings of the router.
type RouterConfig struct {
	Authenticator  *Authenticator
	RateLimiter    *RateLimiter
	Loaders        LoaderFactory
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.RateLimiter != nil {
		r.Use(RateLimitMiddleware(cfg.RateLimiter))
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Authenticator.Middleware)
		r.Use(TenantMiddleware(tenant.ClaimsResolver{}))
		r.Use(LoadersMiddleware(cfg.Loaders))

		r.Get("/organization", h.GetOrganization)

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/{id}", h.GetCustomer)
			r.Patch("/{id}/contact", h.UpdateCustomerContact)
		})

		r.Route("/jobcards", func(r chi.Router) {
			r.Get("/", h.ListJobCards)
			r.Get("/{id}", h.GetJobCard)
			r.Get("/{id}/comments", h.ListComments)
			r.Post("/{id}/comments", h.AddComment)
		})

		r.Delete("/comments/{id}", h.DeleteComment)
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "gixat",
	})
}

// GetOrganization returns the caller's organization.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.Current(r.Context(), GetTenant(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, org)
}

// ListCustomers returns a page of customers with their overview graphs.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := workshop.CustomerFilter{
		ListOptions: listOptions(r),
		Search:      strings.TrimSpace(r.URL.Query().Get("search")),
	}

	customers, err := h.repo.ListCustomers(ctx, h.scope(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	overviews, err := h.resolver.Customers(ctx, customers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"customers": overviews,
		"count":     len(overviews),
	})
}

// CreateCustomerRequest represents a new customer
type CreateCustomerRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       *string `json:"email"`
	PhoneNumber string  `json:"phone_number"`
}

// CreateCustomer creates a customer in the caller's organization.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := &workshop.Customer{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.repo.CreateCustomer(r.Context(), h.scope(r), c); err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, workshop.TableCustomers, c.ID, audit.TypeEntityCreated)
	respondJSON(w, http.StatusCreated, c)
}

// GetCustomer returns one customer with its overview graph.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	overview, err := h.resolver.Customer(r.Context(), h.scope(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// UpdateContactRequest represents new contact details
type UpdateContactRequest struct {
	Email       *string `json:"email"`
	PhoneNumber string  `json:"phone_number"`
}

// UpdateCustomerContact replaces a customer's contact details.
func (h *Handler) UpdateCustomerContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.repo.UpdateCustomerContact(r.Context(), h.scope(r), id, req.Email, req.PhoneNumber); err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, workshop.TableCustomers, id, audit.TypeEntityUpdated)
	w.WriteHeader(http.StatusNoContent)
}

// ListJobCards returns a page of job cards.
func (h *Handler) ListJobCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.repo.ListJobCards(r.Context(), h.scope(r), listOptions(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"job_cards": cards,
		"count":     len(cards),
	})
}

// GetJobCard returns a job card with its items, parts and labor.
func (h *Handler) GetJobCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	tree, err := h.resolver.JobCard(r.Context(), h.scope(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tree)
}

// ListComments returns the comment thread of a job card.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	depth := -1
	if raw := r.URL.Query().Get("depth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid depth")
			return
		}
		depth = n
	}

	thread, err := h.resolver.CommentThread(r.Context(), h.scope(r), id, depth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"comments": thread})
}

// AddCommentRequest represents a new comment
type AddCommentRequest struct {
	Content         string     `json:"content"`
	JobItemID       *uuid.UUID `json:"job_item_id"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id"`
}

// AddComment posts a comment on a job card as the authenticated user.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	author, ok := GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusForbidden, "token has no user")
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := &workshop.Comment{
		JobCardID:       id,
		AuthorID:        author,
		Content:         req.Content,
		JobItemID:       nullUUID(req.JobItemID),
		ParentCommentID: nullUUID(req.ParentCommentID),
	}
	if err := h.repo.AddComment(r.Context(), h.scope(r), c); err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, workshop.TableComments, c.ID, audit.TypeEntityCreated)
	respondJSON(w, http.StatusCreated, c)
}

// DeleteComment soft-deletes a comment.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.SoftDeleteComment(r.Context(), h.scope(r), id); err != nil {
		writeError(w, r, err)
		return
	}

	h.audit(r, workshop.TableComments, id, audit.TypeEntityDeleted)
	w.WriteHeader(http.StatusNoContent)
}

// scope returns the tenant filter of the request's operation.
func (h *Handler) scope(r *http.Request) filter.Scope {
	return h.registry.For(GetTenant(r.Context()))
}

func (h *Handler) audit(r *http.Request, table string, id uuid.UUID, eventType string) {
	actor := ""
	if uid, ok := GetUserID(r.Context()); ok {
		actor = uid.String()
	}
	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      eventType,
		TenantID:  GetTenant(r.Context()).String(),
		ActorID:   actor,
		Resource:  table,
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
		Metadata:  map[string]any{"id": id.String()},
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func listOptions(r *http.Request) workshop.ListOptions {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return workshop.ListOptions{Limit: limit, Offset: offset}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// writeError maps domain errors to status codes. Rows of other tenants are
// reported exactly like rows that do not exist.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, tenant.ErrOrganizationNotFound),
		errors.Is(err, tenant.ErrNoTenant):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, store.ErrNoTenant):
		respondError(w, http.StatusForbidden, "operation has no tenant")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
