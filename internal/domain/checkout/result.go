package checkout

import (
	"strings"
)

type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

const DefaultDeclineMessage = "Payment declined"

type PurchaseResult struct {
	Status        ResultStatus `json:"status"`
	TransactionID string       `json:"transactionId,omitempty"`
	Message       string       `json:"message"`
	RequestID     string       `json:"requestId,omitempty"`
}

func (r PurchaseResult) Succeeded() bool {
	return r.Status == ResultSuccess
}

var successStatuses = map[string]struct{}{
	"SUCCESS":  {},
	"PAID":     {},
	"APPROVED": {},
}

// MapPaymentStatus fails closed: only a recognized success status is success.
func MapPaymentStatus(status, message, transactionID, requestID string) PurchaseResult {
	result := PurchaseResult{
		TransactionID: transactionID,
		RequestID:     requestID,
		Message:       message,
	}
	if _, ok := successStatuses[strings.ToUpper(strings.TrimSpace(status))]; ok {
		result.Status = ResultSuccess
		if result.Message == "" {
			result.Message = "Payment approved"
		}
		return result
	}

	result.Status = ResultError
	if result.Message == "" {
		result.Message = DefaultDeclineMessage
	}
	return result
}
