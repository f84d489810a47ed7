package webhook

import (
	"net/http"

	"hacktaika/internal/notifier"
)

// OutcomeKind classifies how a webhook call ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeAuthError
	OutcomeMalformedPayload
	// OutcomeDeliveryFailure means the payload was accepted but the admin
	// message was not delivered. The caller still sees success.
	OutcomeDeliveryFailure
	OutcomeInternalError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeAuthError:
		return "auth_error"
	case OutcomeMalformedPayload:
		return "malformed_payload"
	case OutcomeDeliveryFailure:
		return "delivery_failure"
	case OutcomeInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

type Outcome struct {
	Kind       OutcomeKind
	Err        error
	DeliveryID string
}

type successBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorBody struct {
	Error string `json:"error"`
}

// outcomeFromResult maps a notifier attempt onto an outcome.
func outcomeFromResult(res notifier.Result) Outcome {
	if res.Err != nil || !res.Delivered {
		return Outcome{Kind: OutcomeDeliveryFailure, Err: res.Err, DeliveryID: res.DeliveryID}
	}
	return Outcome{Kind: OutcomeSuccess, DeliveryID: res.DeliveryID}
}

// Response is the single place outcomes become HTTP status codes and bodies.
func (o Outcome) Response() (int, any) {
	switch o.Kind {
	case OutcomeSuccess, OutcomeDeliveryFailure:
		return http.StatusOK, successBody{Success: true, Message: "Notification sent"}
	case OutcomeAuthError:
		return http.StatusUnauthorized, errorBody{Error: "Unauthorized"}
	default:
		msg := "internal error"
		if o.Err != nil && o.Err.Error() != "" {
			msg = o.Err.Error()
		}
		return http.StatusInternalServerError, errorBody{Error: msg}
	}
}
