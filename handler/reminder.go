package handler

import (
	"eventhub-backend/config"
	"eventhub-backend/logger"
	"eventhub-backend/reminder"
	"eventhub-backend/response"
	"net/http"

	"github.com/spf13/viper"
)

// SweepReminders is hit by a scheduler; it notifies ticket holders of
// events starting tomorrow.
func SweepReminders(service *reminder.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if pass := viper.GetString(config.NotifyAccessPass); pass != "" && r.Header.Get("X-Access-Pass") != pass {
			response.Unauthorized().Send(ctx, w)
			return
		}

		sent, err := service.Sweep(ctx)
		if err != nil {
			logger.Errorf(ctx, "sweepReminders: sweep failed: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       map[string]int{"sent": sent},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}
