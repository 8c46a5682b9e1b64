package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Multipart field names of a provisioning request with a document
const (
	FormFieldPayload  = "payload"
	FormFieldDocument = "document"
)

// DefaultMaxDocumentSize applies when the handler is built without a limit
const DefaultMaxDocumentSize int64 = 10 << 20

// LeaseHandler handles lease provisioning and lease lifecycle endpoints
type LeaseHandler struct {
	BaseHandler
	leases          *appleasing.LeaseService
	maxDocumentSize int64
}

// NewLeaseHandler creates a new LeaseHandler
func NewLeaseHandler(leases *appleasing.LeaseService, maxDocumentSize int64) *LeaseHandler {
	if maxDocumentSize <= 0 {
		maxDocumentSize = DefaultMaxDocumentSize
	}
	return &LeaseHandler{leases: leases, maxDocumentSize: maxDocumentSize}
}

// Provision creates a tenant and their lease in one request.
// A JSON body provisions without a document. A multipart body carries the
// same JSON in the "payload" field and the lease document in "document".
//
//	POST /leases
func (h *LeaseHandler) Provision(c *gin.Context) {
	var req ProvisionLeaseRequest
	var document []byte
	var documentName string

	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		if !h.bindMultipart(c, &req, &document, &documentName) {
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.leases.Provision(c.Request.Context(), appleasing.ProvisionRequest{
		Tenant:       req.Tenant.draft(),
		Lease:        req.Lease.draft(),
		Document:     document,
		DocumentName: documentName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProvisionResponse(result))
}

func (h *LeaseHandler) bindMultipart(c *gin.Context, req *ProvisionLeaseRequest, document *[]byte, name *string) bool {
	form, err := c.MultipartForm()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.BindError(c, err)
			return false
		}
		h.BadRequest(c, "Invalid multipart body")
		return false
	}
	var payload string
	if values := form.Value[FormFieldPayload]; len(values) > 0 {
		payload = values[0]
	}
	if payload == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "Multipart field \""+FormFieldPayload+"\" is required")
		return false
	}
	if err := binding.JSON.BindBody([]byte(payload), req); err != nil {
		h.BindError(c, err)
		return false
	}

	fh, err := c.FormFile(FormFieldDocument)
	if errors.Is(err, http.ErrMissingFile) {
		return true
	}
	if err != nil {
		h.BadRequest(c, "Invalid document upload")
		return false
	}
	if fh.Size > h.maxDocumentSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Document exceeds maximum allowed size")
		return false
	}

	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Invalid document upload")
		return false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxDocumentSize+1))
	if err != nil {
		h.BadRequest(c, "Invalid document upload")
		return false
	}
	if int64(len(data)) > h.maxDocumentSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Document exceeds maximum allowed size")
		return false
	}
	*document = data
	*name = fh.Filename
	return true
}

// Get returns a lease
//
//	GET /leases/:id
func (h *LeaseHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.leases.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toContractResponse(contract))
}

// ListByTenant returns the leases of a tenant
//
//	GET /tenants/:id/leases
func (h *LeaseHandler) ListByTenant(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	contracts, err := h.leases.ListByTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(toContractResponses(contracts)))
}

// Activate makes a lease the Active lease of its property
//
//	POST /leases/:id/activate
func (h *LeaseHandler) Activate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.leases.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toContractResponse(contract))
}

// Deactivate moves a lease to inactive or archived
//
//	POST /leases/:id/deactivate
func (h *LeaseHandler) Deactivate(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req DeactivateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	contract, err := h.leases.Deactivate(c.Request.Context(), id, leasing.ContractStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toContractResponse(contract))
}

// UpdateDates reschedules a lease
//
//	PUT /leases/:id/dates
func (h *LeaseHandler) UpdateDates(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateLeaseDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	contract, err := h.leases.UpdateDates(c.Request.Context(), id, parseDate(req.StartDate), parseDate(req.EndDate))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toContractResponse(contract))
}
