package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"storefront-backend/internal/interfaces"
	"storefront-backend/internal/models"
)

// InstallmentHandler handles financing option HTTP requests
type InstallmentHandler struct {
	installments interfaces.InstallmentService
}

// NewInstallmentHandler creates a new installment handler
func NewInstallmentHandler(installments interfaces.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{installments: installments}
}

// InstallmentOptionsResponse represents the financing options response
type InstallmentOptionsResponse struct {
	Amount  float64                    `json:"amount"`
	Options []models.InstallmentOption `json:"options"`
}

// HandleInstallmentOptions processes GET /installment-options requests
func (ih *InstallmentHandler) HandleInstallmentOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	amountParam := r.URL.Query().Get("amount")
	if amountParam == "" {
		ih.sendErrorResponse(w, http.StatusBadRequest, "amount is required")
		return
	}

	amount, err := strconv.ParseFloat(amountParam, 64)
	if err != nil {
		ih.sendErrorResponse(w, http.StatusBadRequest, "amount must be a number")
		return
	}

	options, err := ih.installments.ComputeSchedule(amount)
	if err != nil {
		ih.sendErrorResponse(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(InstallmentOptionsResponse{
		Amount:  amount,
		Options: options,
	})
}

// sendErrorResponse sends a standardized error response
func (ih *InstallmentHandler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{Success: false, Error: message})
}
