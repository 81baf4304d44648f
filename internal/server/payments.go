package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/payline/internal/payment/domain"
)

type createPaymentRequest struct {
	PayerID       string          `json:"payerId"`
	PaymentSource string          `json:"paymentSource"`
	Amount        decimal.Decimal `json:"amount"`
	Metadata      map[string]any  `json:"metadata"`
}

type updatePaymentRequest struct {
	Status string `json:"status"`
}

func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if strings.TrimSpace(req.PayerID) == "" {
		AbortWithError(c, newValidationError("payerId", "required", "payer ID is required"))
		return
	}
	if strings.TrimSpace(req.PaymentSource) == "" {
		AbortWithError(c, newValidationError("paymentSource", "required", "payment source is required"))
		return
	}

	resp, err := s.paymentSvc.Create(c.Request.Context(), paymentdomain.CreatePaymentRequest{
		PayerID:  strings.TrimSpace(req.PayerID),
		Source:   strings.TrimSpace(req.PaymentSource),
		Amount:   req.Amount,
		Metadata: req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	resp, err := s.paymentSvc.GetByID(c.Request.Context(), paymentdomain.GetPaymentRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	resp, err := s.paymentSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPaymentsByPayer(c *gin.Context) {
	resp, err := s.paymentSvc.ListByPayer(c.Request.Context(), paymentdomain.ListByPayerRequest{
		PayerID: strings.TrimSpace(c.Param("payerId")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePaymentStatus(c *gin.Context) {
	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if strings.TrimSpace(req.Status) == "" {
		AbortWithError(c, newValidationError("status", "required", "status is required"))
		return
	}

	resp, err := s.paymentSvc.UpdateStatus(c.Request.Context(), paymentdomain.UpdatePaymentRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Status: strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isPaymentValidationError(err error) bool {
	switch err {
	case paymentdomain.ErrInvalidPayer,
		paymentdomain.ErrInvalidSource,
		paymentdomain.ErrInvalidAmount,
		paymentdomain.ErrInvalidStatus,
		paymentdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
