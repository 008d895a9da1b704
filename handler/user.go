package handler

import (
	"encoding/json"
	"errors"
	"eventhub-backend/factory"
	"eventhub-backend/logger"
	"eventhub-backend/model"
	"eventhub-backend/response"
	"eventhub-backend/user"
	"fmt"
	"net/http"
)

// Me returns the caller's profile, provisioning the local record on first
// authenticated contact.
func Me(f factory.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := resolveCaller(r, f)
		if err != nil {
			response.Unauthorized().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       caller.User,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func UpdateMe(service *user.Service, f factory.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := resolveCaller(r, f)
		if err != nil {
			response.Unauthorized().Send(ctx, w)
			return
		}

		var req model.User
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest("invalid request body", fmt.Sprintf("updateMe: error unmarshalling request body: %+v", err)).Send(ctx, w)
			return
		}

		updated, err := service.UpdateProfile(ctx, caller.User.ID, &req)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				response.ResourceNotFound("The requested user was not found", "").Send(ctx, w)
				return
			}
			logger.Errorf(ctx, "updateMe: unable to update profile: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       updated,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func MyTickets(service *user.Service, f factory.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := resolveCallerOffline(r, f)
		if err != nil {
			response.Unauthorized().Send(ctx, w)
			return
		}

		page, limit := pagination(r, 10)
		tickets, err := service.Tickets(ctx, caller.User.ID, page, limit)
		if err != nil {
			logger.Errorf(ctx, "myTickets: unable to list tickets: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       tickets,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}
