package dto

import "time"

type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int32  `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	CustomerName  string             `json:"customerName" validate:"required"`
	CustomerPhone string             `json:"customerPhone" validate:"required"`
	CustomerEmail string             `json:"customerEmail" validate:"omitempty,email"`
	PickupSlotID  string             `json:"pickupSlotId" validate:"required"`
	PaymentMethod string             `json:"paymentMethod" validate:"required,oneof=momo cash"`
	Notes         string             `json:"notes"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderItemResponse struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int32  `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	Status          string              `json:"status"`
	CustomerName    string              `json:"customerName"`
	CustomerPhone   string              `json:"customerPhone"`
	CustomerEmail   string              `json:"customerEmail,omitempty"`
	PickupSlotID    string              `json:"pickupSlotId"`
	PaymentMethod   string              `json:"paymentMethod"`
	Notes           string              `json:"notes,omitempty"`
	Amount          string              `json:"amount"`
	Currency        string              `json:"currency"`
	TempPickupCode  string              `json:"tempPickupCode"`
	ExpiresAt       time.Time           `json:"expiresAt"`
	CodeValidatedAt *time.Time          `json:"codeValidatedAt,omitempty"`
	PickedUpAt      *time.Time          `json:"pickedUpAt,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	Items           []OrderItemResponse `json:"items"`
}

type PickupSlotResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	TimeFrom  string `json:"timeFrom"`
	TimeTo    string `json:"timeTo"`
	Remaining int32  `json:"remaining"`
}

type InitiatePaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Method  string `json:"method" validate:"required,oneof=momo"`
}

type InitiatePaymentResponse struct {
	PaymentURL    string `json:"paymentUrl"`
	Provider      string `json:"provider"`
	TransactionID string `json:"transactionId"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type StaffResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	Token string        `json:"token"`
	Staff StaffResponse `json:"staff"`
}

type ValidateCodeRequest struct {
	OrderID       string `json:"orderId" validate:"required"`
	TemporaryCode string `json:"temporaryCode" validate:"required"`
}

type ValidateCodeResponse struct {
	FinalCode string `json:"finalCode"`
}

type VerifyFinalCodeRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	FinalCode string `json:"finalCode" validate:"required"`
}
