package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/thandalhq/thandal-engine/internal/domain"
	"github.com/thandalhq/thandal-engine/internal/service"
	customError "github.com/thandalhq/thandal-engine/pkg/errors"
	"github.com/thandalhq/thandal-engine/pkg/response"
)

// LenderHeader carries the acting lender's identity. Authentication lives
// outside this service; the header stands in for the session it provides.
const LenderHeader = "X-Lender-ID"

type LedgerHandler struct {
	service   *service.LedgerService
	validator *validator.Validate
}

func NewLedgerHandler(svc *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		service:   svc,
		validator: validator.New(),
	}
}

func (h *LedgerHandler) CreateBorrower(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	var request struct {
		Name string `json:"name" validate:"required"`
	}
	if !h.decode(w, r, &request) {
		return
	}

	borrower, err := h.service.CreateBorrower(r.Context(), lenderID, request.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, borrower)
}

func (h *LedgerHandler) IssueLoan(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	var request domain.IssueLoanRequest
	if !h.decode(w, r, &request) {
		return
	}

	result, err := h.service.IssueLoan(r.Context(), lenderID, &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, result)
}

func (h *LedgerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "invalid loan id", err)
		return
	}

	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	request.LoanID = loanID

	repayment, err := h.service.RecordPayment(r.Context(), lenderID, &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, repayment)
}

func (h *LedgerHandler) GetTodayDue(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	items, err := h.service.GetTodayDue(r.Context(), lenderID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, items)
}

func (h *LedgerHandler) CloseDay(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	result, err := h.service.CloseDay(r.Context(), lenderID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *LedgerHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	filter := &domain.HistoryFilter{
		LenderID: lenderID,
		Type:     r.URL.Query().Get("filter_type"),
	}

	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(w, "start_date must be YYYY-MM-DD", err)
			return
		}
		filter.StartDate = &t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(w, "end_date must be YYYY-MM-DD", err)
			return
		}
		filter.EndDate = &t
	}
	if v := r.URL.Query().Get("min_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			response.BadRequest(w, "min_amount must be a decimal", err)
			return
		}
		filter.MinAmount = &d
	}
	if v := r.URL.Query().Get("max_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			response.BadRequest(w, "max_amount must be a decimal", err)
			return
		}
		filter.MaxAmount = &d
	}

	history, err := h.service.GetRepaymentHistory(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, history)
}

func (h *LedgerHandler) GetLoanDetails(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "invalid loan id", err)
		return
	}

	details, err := h.service.GetLoanDetails(r.Context(), lenderID, loanID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, details)
}

func (h *LedgerHandler) GetCapital(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.GetCapital(r.Context(), lenderID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, snapshot)
}

func (h *LedgerHandler) InitializeCapital(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	var request domain.InitializeCapitalRequest
	if !h.decode(w, r, &request) {
		return
	}

	snapshot, err := h.service.InitializeCapital(r.Context(), lenderID, request.IdleCapital)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, snapshot)
}

func (h *LedgerHandler) AdjustCapital(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	var request domain.AdjustCapitalRequest
	if !h.decode(w, r, &request) {
		return
	}

	snapshot, err := h.service.AdjustCapital(r.Context(), lenderID, request.Delta)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, snapshot)
}

func (h *LedgerHandler) GetRiskAssessment(w http.ResponseWriter, r *http.Request) {
	lenderID, ok := lenderFrom(w, r)
	if !ok {
		return
	}

	borrowerID, err := uuid.Parse(mux.Vars(r)["borrowerId"])
	if err != nil {
		response.BadRequest(w, "invalid borrower id", err)
		return
	}

	assessment, err := h.service.GetRiskAssessment(r.Context(), lenderID, borrowerID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, assessment)
}

func (h *LedgerHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, "request validation failed", err)
		return false
	}
	return true
}

func lenderFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	lenderID := r.Header.Get(LenderHeader)
	if lenderID == "" {
		response.Unauthorized(w, "missing "+LenderHeader+" header")
		return "", false
	}
	return lenderID, true
}

// writeError maps the business error taxonomy onto HTTP semantics:
// validation to 400, missing aggregates to 404, state conflicts to 409,
// everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		response.InternalServerError(w, "internal error", err)
		return
	}

	switch be.Code {
	case customError.ErrCodeValidation:
		response.ErrorWithCode(w, http.StatusBadRequest, be.Code, be.Message, be.Err)
	case customError.ErrCodeLoanNotFound, customError.ErrCodeBorrowerNotFound, customError.ErrCodeCapitalNotInitialized:
		response.ErrorWithCode(w, http.StatusNotFound, be.Code, be.Message, be.Err)
	case customError.ErrCodeAlreadyResolved, customError.ErrCodeNoOutstanding, customError.ErrCodeLoanNotActive, customError.ErrCodeDuplicatePayment:
		response.ErrorWithCode(w, http.StatusConflict, be.Code, be.Message, be.Err)
	default:
		response.ErrorWithCode(w, http.StatusInternalServerError, be.Code, be.Message, be.Err)
	}
}
