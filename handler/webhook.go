package handler

import (
	"encoding/json"
	"errors"
	"eventhub-backend/config"
	"eventhub-backend/event"
	"eventhub-backend/logger"
	"eventhub-backend/moderation"
	"eventhub-backend/payment"
	"eventhub-backend/response"
	"eventhub-backend/ticket"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/spf13/viper"
)

// PaymentWebhook consumes signed confirmation events from the payment
// collaborator. Verified, completed checkouts finalize the paid order;
// everything else is acknowledged and dropped so the collaborator does
// not retry forever.
func PaymentWebhook(service *ticket.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload, err := ioutil.ReadAll(r.Body)
		if err != nil {
			response.BadRequest("unable to read payload", fmt.Sprintf("paymentWebhook: error reading body: %+v", err)).Send(ctx, w)
			return
		}

		secret := viper.GetString(config.PaymentWebhookSecret)
		if err := payment.VerifySignature(payload, r.Header.Get("Stripe-Signature"), secret); err != nil {
			response.Unauthorized().Send(ctx, w)
			return
		}

		conf, completed, err := payment.ParseConfirmation(payload)
		if err != nil {
			response.BadRequest("invalid payload", fmt.Sprintf("paymentWebhook: error parsing confirmation: %+v", err)).Send(ctx, w)
			return
		}
		if !completed {
			response.SuccessResponse{
				Data:       map[string]bool{"received": true},
				StatusCode: http.StatusOK,
			}.Send(w)
			return
		}

		order, err := service.ConfirmPayment(ctx, conf)
		if err != nil {
			if errors.Is(err, ticket.ErrBuyerNotFound) || errors.Is(err, ticket.ErrEventNotFound) {
				response.ResourceNotFound("Unknown event or buyer for this payment", "").Send(ctx, w)
				return
			}
			logger.Errorf(ctx, "paymentWebhook: unable to confirm payment for session %s: %+v", conf.SessionID, err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       order,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

// ModerationWebhook receives the collaborator's advisory scoring for a
// previously submitted event.
func ModerationWebhook(service *event.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if pass := viper.GetString(config.ModerationAccessPass); pass != "" && r.Header.Get("X-Access-Pass") != pass {
			response.Unauthorized().Send(ctx, w)
			return
		}

		var result moderation.Result
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			response.BadRequest("invalid request body", fmt.Sprintf("moderationWebhook: error unmarshalling body: %+v", err)).Send(ctx, w)
			return
		}
		if result.EventID == "" {
			response.InvalidData("moderationWebhook: event_id is required").Send(ctx, w)
			return
		}

		if err := service.ApplyModeration(ctx, &result); err != nil {
			if errors.Is(err, event.ErrNotFound) {
				response.ResourceNotFound("The scored event was not found", "").Send(ctx, w)
				return
			}
			logger.Errorf(ctx, "moderationWebhook: unable to apply moderation for %s: %+v", result.EventID, err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       map[string]bool{"success": true},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}
