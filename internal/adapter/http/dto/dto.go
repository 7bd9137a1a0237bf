package dto

// RegisterRequest is the request body for client registration.
type RegisterRequest struct {
	Document string `json:"document" binding:"required,safe_id,max=50"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Phone    string `json:"phone" binding:"required,min=5,max=20"`
}

// RechargeRequest is the request body for wallet recharge.
type RechargeRequest struct {
	Document string `json:"document" binding:"required,safe_id,max=50"`
	Phone    string `json:"phone" binding:"required,min=5,max=20"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

// PaymentRequest is the request body for payment initiation.
type PaymentRequest struct {
	Document string `json:"document" binding:"required,safe_id,max=50"`
	Phone    string `json:"phone" binding:"required,min=5,max=20"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

// ConfirmPaymentRequest is the request body for payment confirmation.
// Token is the 6-digit code delivered by email at initiation.
type ConfirmPaymentRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid4"`
	Token     string `json:"token" binding:"required,len=6,numeric"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
}

// BalanceQuery carries the ownership pair for a balance read.
type BalanceQuery struct {
	Document string `form:"document" binding:"required,safe_id,max=50"`
	Phone    string `form:"phone" binding:"required,min=5,max=20"`
}

// RegisterResponse is the response body for successful registration.
// It never includes the wallet balance; that is a separate authorized read.
type RegisterResponse struct {
	ClientID string `json:"clientId"`
	Document string `json:"document"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// BalanceResponse is the response body for recharge and balance queries.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// PaymentResponse is the response body for payment initiation. The token
// travels by email only and is deliberately absent here.
type PaymentResponse struct {
	SessionID string `json:"sessionId"`
}

// ConfirmPaymentResponse is the response body for a confirmed payment.
type ConfirmPaymentResponse struct {
	NewBalance int64 `json:"newBalance"`
}
