package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/andisari/loan-engine/internal/domain"
	"github.com/andisari/loan-engine/internal/service"
	"github.com/andisari/loan-engine/pkg/response"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// PreviewLoan returns the upfront charges and schedule for a prospective
// loan without creating anything.
func (h *LoanHandler) PreviewLoan(w http.ResponseWriter, r *http.Request) {
	productCode := r.URL.Query().Get("product")
	principalRaw := r.URL.Query().Get("principal")
	if productCode == "" || principalRaw == "" {
		response.BadRequest(w, "product and principal query parameters are required", nil)
		return
	}
	principal, err := decimal.NewFromString(principalRaw)
	if err != nil {
		response.BadRequest(w, "principal must be a valid decimal", err)
		return
	}

	preview, err := h.service.PreviewLoan(r.Context(), productCode, principal, time.Now())
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, preview)
}

func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}
	if !request.Principal.IsPositive() {
		response.BadRequest(w, "principal must be positive", nil)
		return
	}

	resp, err := h.service.CreateLoan(r.Context(), &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Created(w, resp)
}

func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	resp, err := h.service.GetSchedule(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, resp)
}

func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	resp, err := h.service.GetOutstanding(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, resp)
}

func (h *LoanHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	resp, err := h.service.ListPayments(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, resp)
}

func (h *LoanHandler) ListCharges(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	resp, err := h.service.ListCharges(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, resp)
}

func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var request domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	resp, err := h.service.RecordPayment(r.Context(), loanID, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, resp)
}

func (h *LoanHandler) ApplyCharge(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var request domain.ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	resp, err := h.service.ApplyCharge(r.Context(), loanID, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, resp)
}

func (h *LoanHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var request domain.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	loan, err := h.service.TopUp(r.Context(), loanID, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}
	response.Success(w, loan)
}
