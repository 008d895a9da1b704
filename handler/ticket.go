package handler

import (
	"errors"
	"eventhub-backend/factory"
	"eventhub-backend/logger"
	"eventhub-backend/response"
	"eventhub-backend/ticket"
	"net/http"
)

// Checkout is the ticket-request endpoint. Free events issue a ticket on
// the spot; paid events answer with a checkout redirect and the order is
// created later by the payment webhook.
func Checkout(service *ticket.Service, f factory.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := resolveCaller(r, f)
		if err != nil {
			response.Unauthorized().Send(ctx, w)
			return
		}

		eventID, ok := eventIDFromPath(w, r)
		if !ok {
			return
		}

		outcome, err := service.Request(ctx, eventID, caller.User)
		if err != nil {
			switch {
			case errors.Is(err, ticket.ErrEventNotFound):
				response.ResourceNotFound("The requested event was not found", "").Send(ctx, w)
			case errors.Is(err, ticket.ErrEventClosed):
				response.EventUnavailable().Send(ctx, w)
			case errors.Is(err, ticket.ErrInvalidPrice):
				response.InvalidData("checkout: the event has an invalid price").Send(ctx, w)
			case errors.Is(err, ticket.ErrPaymentSetup):
				logger.Errorf(ctx, "checkout: payment setup failed: %+v", err)
				response.PaymentSetupFailed().Send(ctx, w)
			default:
				logger.Errorf(ctx, "checkout: unable to request ticket: %+v", err)
				response.SomethingWrong().Send(ctx, w)
			}
			return
		}

		statusCode := http.StatusOK
		if outcome.Status == ticket.FreeTicketIssued {
			statusCode = http.StatusCreated
		}

		response.SuccessResponse{
			Data:       outcome,
			StatusCode: statusCode,
		}.Send(w)
	}
}
