package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/service"
)

type createFeeTypeRequest struct {
	ClubID      int64           `json:"club_id" validate:"required,gt=0"`
	Name        string          `json:"name" validate:"required,max=100"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type createFeeRequest struct {
	ClubID   int64           `json:"club_id" validate:"required,gt=0"`
	MemberID int64           `json:"member_id" validate:"required,gt=0"`
	FeeType  string          `json:"fee_type" validate:"max=100"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  string          `json:"due_date" validate:"required,datetime=2006-01-02"`
	Notes    string          `json:"notes"`
}

type generateFeesRequest struct {
	ClubID int64 `json:"club_id" validate:"required,gt=0"`
}

type markPaidRequest struct {
	PaidDate      string `json:"paid_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod string `json:"payment_method" validate:"max=50"`
}

type waiveRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (s *Server) handleGetFeeTypes(w http.ResponseWriter, r *http.Request) {
	clubID, ok := s.requireClubID(w, r)
	if !ok {
		return
	}

	feeTypes, err := s.svc.ListFeeTypes(r.Context(), clubID)
	if err != nil {
		s.respondServiceError(w, err, "get fee types")
		return
	}
	if feeTypes == nil {
		feeTypes = []*models.FeeType{}
	}

	s.respondJSON(w, http.StatusOK, feeTypes)
}

func (s *Server) handleCreateFeeType(w http.ResponseWriter, r *http.Request) {
	var req createFeeTypeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	created, err := s.svc.CreateFeeType(r.Context(), &models.FeeType{
		ClubID:      req.ClubID,
		Name:        req.Name,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		s.respondServiceError(w, err, "create fee type")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteFeeType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid fee type id")
		return
	}

	if err := s.svc.DeleteFeeType(r.Context(), id); err != nil {
		s.respondServiceError(w, err, "delete fee type")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleGetFees(w http.ResponseWriter, r *http.Request) {
	clubID, ok := s.requireClubID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var memberID *int64
	if raw := q.Get("member_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "member_id must be an integer")
			return
		}
		memberID = &id
	}
	var status *models.FeeStatus
	if raw := q.Get("status"); raw != "" {
		st := models.FeeStatus(raw)
		status = &st
	}

	views, err := s.svc.ListFees(r.Context(), clubID, memberID, status)
	if err != nil {
		s.respondServiceError(w, err, "get fees")
		return
	}

	s.respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateFee(w http.ResponseWriter, r *http.Request) {
	var req createFeeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.svc.CreateFee(r.Context(), &models.FeeObligation{
		ClubID:   req.ClubID,
		MemberID: req.MemberID,
		FeeType:  req.FeeType,
		Amount:   req.Amount,
		DueDate:  due,
		Notes:    req.Notes,
	})
	if err != nil {
		s.respondServiceError(w, err, "create fee")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGenerateFees(w http.ResponseWriter, r *http.Request) {
	if !s.generateLimiter.Allow() {
		s.respondError(w, http.StatusTooManyRequests, "fee generation rate limit exceeded")
		return
	}

	var req generateFeesRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	summary, err := s.svc.GenerateAnnualFees(r.Context(), req.ClubID)
	if err != nil {
		s.respondServiceError(w, err, "generate annual fees")
		return
	}

	status := http.StatusOK
	if summary.Created > 0 {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, summary)
}

func (s *Server) handleFeeSummary(w http.ResponseWriter, r *http.Request) {
	clubID, ok := s.requireClubID(w, r)
	if !ok {
		return
	}

	summary, err := s.svc.FeeSummary(r.Context(), clubID)
	if err != nil {
		s.respondServiceError(w, err, "get fee summary")
		return
	}

	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMarkFeePaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid fee id")
		return
	}

	var req markPaidRequest
	if r.ContentLength != 0 && !s.decodeJSON(w, r, &req) {
		return
	}
	paidDate, err := parseDate("paid_date", req.PaidDate)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.svc.MarkFeePaid(r.Context(), id, paidDate, req.PaymentMethod)
	if err != nil {
		s.respondServiceError(w, err, "mark fee paid")
		return
	}

	s.respondJSON(w, http.StatusOK, toView(updated))
}

func (s *Server) handleWaiveFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid fee id")
		return
	}

	var req waiveRequest
	if r.ContentLength != 0 && !s.decodeJSON(w, r, &req) {
		return
	}

	updated, err := s.svc.WaiveFee(r.Context(), id, req.Reason)
	if err != nil {
		s.respondServiceError(w, err, "waive fee")
		return
	}

	s.respondJSON(w, http.StatusOK, toView(updated))
}

// toView wraps a closed obligation, whose display status is its stored one.
func toView(ob *models.FeeObligation) service.FeeView {
	return service.FeeView{FeeObligation: ob, DisplayStatus: ob.Status}
}
