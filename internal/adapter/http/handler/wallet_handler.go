package handler

import (
	"prepaid-wallet-service/internal/adapter/http/dto"
	"prepaid-wallet-service/internal/core/ports"
	"prepaid-wallet-service/pkg/apperror"
	"prepaid-wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey lets a caller make confirm-payment retriable: two
// requests carrying the same key replay one result. Absent header means
// every confirm executes.
const HeaderIdempotencyKey = "X-Idempotency-Key"

// WalletHandler handles all wallet endpoints.
type WalletHandler struct {
	clientSvc  ports.ClientService
	ledgerSvc  ports.LedgerService
	paymentSvc ports.PaymentService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(clientSvc ports.ClientService, ledgerSvc ports.LedgerService, paymentSvc ports.PaymentService) *WalletHandler {
	return &WalletHandler{
		clientSvc:  clientSvc,
		ledgerSvc:  ledgerSvc,
		paymentSvc: paymentSvc,
	}
}

// Register handles POST /api/v1/wallet/register.
func (h *WalletHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	client, err := h.clientSvc.Register(c.Request.Context(), ports.RegisterRequest{
		Document: req.Document,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Client registered successfully", dto.RegisterResponse{
		ClientID: client.ID.String(),
		Document: client.Document,
		Name:     client.Name,
		Email:    client.Email,
		Phone:    client.Phone,
	})
}

// Recharge handles POST /api/v1/wallet/recharge.
func (h *WalletHandler) Recharge(c *gin.Context) {
	var req dto.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	balance, err := h.ledgerSvc.Recharge(c.Request.Context(), req.Document, req.Phone, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Wallet recharged successfully", dto.BalanceResponse{Balance: balance})
}

// InitiatePayment handles POST /api/v1/wallet/payment.
func (h *WalletHandler) InitiatePayment(c *gin.Context) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.paymentSvc.Initiate(c.Request.Context(), ports.InitiateRequest{
		Document: req.Document,
		Phone:    req.Phone,
		Amount:   req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment session created, token sent to registered email", dto.PaymentResponse{
		SessionID: result.SessionID,
	})
}

// ConfirmPayment handles POST /api/v1/wallet/confirm-payment.
func (h *WalletHandler) ConfirmPayment(c *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.paymentSvc.Confirm(c.Request.Context(), ports.ConfirmRequest{
		SessionID:      req.SessionID,
		Token:          req.Token,
		Amount:         req.Amount,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment confirmed successfully", dto.ConfirmPaymentResponse{
		NewBalance: result.NewBalance,
	})
}

// GetBalance handles GET /api/v1/wallet/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	var q dto.BalanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	balance, err := h.ledgerSvc.GetBalance(c.Request.Context(), q.Document, q.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Balance retrieved successfully", dto.BalanceResponse{Balance: balance})
}
