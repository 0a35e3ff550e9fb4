// Package http onboarding application routes
package http

import (
	"encoding/json"
	"mime/multipart"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	authdomain "github.com/wyfcoding/distributorhub/internal/auth/domain"
	distributordomain "github.com/wyfcoding/distributorhub/internal/distributor/domain"
	"github.com/wyfcoding/distributorhub/internal/onboarding/application"
	"github.com/wyfcoding/distributorhub/internal/onboarding/domain"
	"github.com/wyfcoding/distributorhub/pkg/apperr"
	"github.com/wyfcoding/distributorhub/pkg/response"
	"github.com/wyfcoding/distributorhub/pkg/utils"
)

// DataField multipart field carrying the JSON payload
const DataField = "data"

type Handler struct {
	intake *application.IntakeService
	review *application.ReviewService
	query  *application.QueryService
}

func NewHandler(intake *application.IntakeService, review *application.ReviewService, query *application.QueryService) *Handler {
	return &Handler{intake: intake, review: review, query: query}
}

// Routes middleware the handler is mounted with
type Routes struct {
	// Require enforces an operation on an authenticated caller.
	Require func(op authdomain.Operation) gin.HandlerFunc
	// Optional attaches the caller when a valid token is present.
	Optional gin.HandlerFunc
	// SubmitLimit throttles public submissions.
	SubmitLimit gin.HandlerFunc
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, m Routes) {
	g := r.Group("/applications")
	g.POST("/submit", m.SubmitLimit, m.Optional, h.Submit)
	g.GET("", m.Require(authdomain.OpListApplications), h.List)
	g.GET("/stats", m.Require(authdomain.OpViewApplicationStats), h.Stats)
	g.GET("/:id", m.Require(authdomain.OpViewApplication), h.Get)
	g.PUT("/:id/status", m.Require(authdomain.OpTransitionApplication), h.Transition)
	g.DELETE("/:id", m.Require(authdomain.OpCancelApplication), h.Cancel)
}

// ParseSubmitRequest decodes and validates a JSON application payload.
func ParseSubmitRequest(raw []byte) (*application.SubmitRequest, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, apperr.Validation("application payload is required").WithField(DataField, "is required")
	}
	var req application.SubmitRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "malformed application payload", err).WithField(DataField, "must be valid JSON")
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (h *Handler) Submit(c *gin.Context) {
	var (
		req     *application.SubmitRequest
		uploads []domain.Upload
		err     error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, ferr := c.MultipartForm()
		if ferr != nil {
			_ = c.Error(apperr.Wrap(apperr.CodeValidation, "malformed multipart form", ferr))
			return
		}
		var raw string
		if values := form.Value[DataField]; len(values) > 0 {
			raw = values[0]
		}
		if req, err = ParseSubmitRequest([]byte(raw)); err != nil {
			_ = c.Error(err)
			return
		}
		files, oerr := openUploads(form)
		defer closeAll(files)
		if oerr != nil {
			_ = c.Error(oerr)
			return
		}
		for _, f := range files {
			uploads = append(uploads, f.upload)
		}
	} else {
		raw, rerr := c.GetRawData()
		if rerr != nil {
			_ = c.Error(apperr.Wrap(apperr.CodeValidation, "unreadable request body", rerr))
			return
		}
		if req, err = ParseSubmitRequest(raw); err != nil {
			_ = c.Error(err)
			return
		}
	}

	var createdBy *string
	if p := authdomain.PrincipalFrom(c.Request.Context()); p != nil && p.Role.IsStaff() {
		createdBy = utils.StringPtr(p.UserID)
	}

	app, err := h.intake.Submit(c.Request.Context(), application.SubmitCommand{
		Request:   *req,
		Uploads:   uploads,
		CreatedBy: createdBy,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Created(c, "application submitted", app)
}

type openFile struct {
	upload domain.Upload
	file   multipart.File
}

// openUploads opens every file part; the part's field name is the document kind.
func openUploads(form *multipart.Form) ([]openFile, error) {
	kinds := make([]string, 0, len(form.File))
	for kind := range form.File {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	var out []openFile
	for _, kind := range kinds {
		for _, fh := range form.File[kind] {
			f, err := fh.Open()
			if err != nil {
				return out, apperr.Wrap(apperr.CodeValidation, "unreadable upload", err).WithField(kind, "could not be read")
			}
			out = append(out, openFile{
				upload: domain.Upload{Kind: kind, Filename: fh.Filename, Content: f},
				file:   f,
			})
		}
	}
	return out, nil
}

func closeAll(files []openFile) {
	for _, f := range files {
		_ = f.file.Close()
	}
}

type listQuery struct {
	Status     string `form:"status"`
	From       string `form:"from"`
	To         string `form:"to"`
	Search     string `form:"search"`
	ReviewerID string `form:"reviewerId"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// parseDate accepts YYYY-MM-DD or RFC 3339. A bare date used as an upper bound covers
// the whole day.
func parseDate(field, raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Validation("invalid filter").WithField(field, "must be YYYY-MM-DD or RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(err)
		return
	}
	from, err := parseDate("from", q.From, false)
	if err != nil {
		_ = c.Error(err)
		return
	}
	to, err := parseDate("to", q.To, true)
	if err != nil {
		_ = c.Error(err)
		return
	}
	filter := domain.ListFilter{
		From:       from,
		To:         to,
		Search:     q.Search,
		ReviewerID: q.ReviewerID,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if q.Status != "" {
		status, ok := domain.ParseStatus(q.Status)
		if !ok {
			_ = c.Error(apperr.Validation("invalid filter").WithField("status", "unknown status "+q.Status))
			return
		}
		filter.Status = status
	}

	ctx := c.Request.Context()
	apps, total, err := h.query.List(ctx, authdomain.PrincipalFrom(ctx), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Paged(c, "applications retrieved", apps, utils.NewPagination(q.Page, q.Limit, total))
}

func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	app, err := h.query.Get(ctx, authdomain.PrincipalFrom(ctx), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "application retrieved", app)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.query.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "application stats retrieved", stats)
}

type transitionRequest struct {
	Status      string `json:"status" binding:"required"`
	ReviewNotes string `json:"reviewNotes" binding:"max=5000"`
}

// Credentials plaintext login pair, shown once
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountSummary account linked to an approved application
type AccountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Created  bool   `json:"created"`
}

type transitionResponse struct {
	*domain.Application
	Account     *AccountSummary `json:"account,omitempty"`
	Credentials *Credentials    `json:"credentials,omitempty"`
}

func summarize(account *distributordomain.Account, created bool) *AccountSummary {
	if account == nil {
		return nil
	}
	return &AccountSummary{ID: account.ID, Username: account.Username, Email: account.Email, Created: created}
}

func (h *Handler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	ctx := c.Request.Context()
	reviewer := ""
	if p := authdomain.PrincipalFrom(ctx); p != nil {
		reviewer = p.UserID
	}

	result, err := h.review.Transition(ctx, application.TransitionCommand{
		ApplicationID: c.Param("id"),
		Status:        req.Status,
		Notes:         strings.TrimSpace(req.ReviewNotes),
		Reviewer:      reviewer,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := transitionResponse{Application: result.Application, Account: summarize(result.Account, result.Created)}
	if result.Created {
		out.Credentials = &Credentials{Username: result.Account.Username, Password: result.Password}
	}
	response.OK(c, "application status updated", out)
}

func (h *Handler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()
	actor := ""
	if p := authdomain.PrincipalFrom(ctx); p != nil {
		actor = p.UserID
	}
	app, err := h.review.Cancel(ctx, c.Param("id"), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, "application cancelled", app)
}
