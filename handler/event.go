package handler

import (
	"context"
	"encoding/json"
	"errors"
	"eventhub-backend/event"
	"eventhub-backend/factory"
	"eventhub-backend/logger"
	"eventhub-backend/model"
	"eventhub-backend/response"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func CreateEvent(service *event.Service, f factory.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := resolveCaller(r, f)
		if err != nil {
			response.Unauthorized().Send(ctx, w)
			return
		}

		var req model.Event
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest("invalid request body", fmt.Sprintf("createEvent: error unmarshalling request body: %+v", err)).Send(ctx, w)
			return
		}

		created, err := service.Create(ctx, caller, &req)
		if err != nil {
			if errors.Is(err, event.ErrInvalidEvent) {
				response.InvalidData(fmt.Sprintf("createEvent: %v", err)).Send(ctx, w)
				return
			}
			logger.Errorf(ctx, "createEvent: unable to create event: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       created,
			StatusCode: http.StatusCreated,
		}.Send(w)
	}
}

func GetEvent(service *event.Service, f factory.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, ok := eventIDFromPath(w, r)
		if !ok {
			return
		}

		found, err := service.Get(ctx, optionalCaller(r, f), eventID)
		if err != nil {
			if errors.Is(err, event.ErrNotFound) {
				response.ResourceNotFound("The requested event was not found", "").Send(ctx, w)
				return
			}
			logger.Errorf(ctx, "getEvent: unable to get event: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       found,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func UpdateEvent(service *event.Service, f factory.Factory) http.HandlerFunc {
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

		var req model.Event
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest("invalid request body", fmt.Sprintf("updateEvent: error unmarshalling request body: %+v", err)).Send(ctx, w)
			return
		}
		req.ID = eventID

		updated, err := service.Update(ctx, caller, &req)
		if err != nil {
			sendEventError(ctx, w, "updateEvent", err)
			return
		}

		response.SuccessResponse{
			Data:       updated,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func DeleteEvent(service *event.Service, f factory.Factory) http.HandlerFunc {
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

		if err := service.Delete(ctx, caller, eventID); err != nil {
			sendEventError(ctx, w, "deleteEvent", err)
			return
		}

		response.SuccessResponse{
			Data:       map[string]bool{"deleted": true},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

// SearchEvents is the public discovery listing: approved events only.
func SearchEvents(service *event.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page, limit := pagination(r, 6)
		result, err := service.Search(ctx, r.URL.Query().Get("query"), r.URL.Query().Get("category"), page, limit)
		if err != nil {
			logger.Errorf(ctx, "searchEvents: unable to list events: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       result,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func RelatedEvents(service *event.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		eventID, ok := eventIDFromPath(w, r)
		if !ok {
			return
		}

		page, limit := pagination(r, 3)
		result, err := service.Related(ctx, r.URL.Query().Get("category"), eventID, page, limit)
		if err != nil {
			logger.Errorf(ctx, "relatedEvents: unable to list events: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       result,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func EventsByOrganizer(service *event.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		vars := mux.Vars(r)

		organizerID, err := primitive.ObjectIDFromHex(vars["userID"])
		if err != nil {
			response.InvalidData(fmt.Sprintf("eventsByOrganizer: invalid user id: %v", vars["userID"])).Send(ctx, w)
			return
		}

		page, limit := pagination(r, 6)
		result, err := service.ByOrganizer(ctx, organizerID, page, limit)
		if err != nil {
			logger.Errorf(ctx, "eventsByOrganizer: unable to list events: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       result,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func PendingEvents(service *event.Service, f factory.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := resolveCaller(r, f)
		if err != nil {
			response.Unauthorized().Send(ctx, w)
			return
		}
		if !caller.Admin {
			response.Forbidden().Send(ctx, w)
			return
		}

		events, err := service.Pending(ctx)
		if err != nil {
			logger.Errorf(ctx, "pendingEvents: unable to list events: %+v", err)
			response.SomethingWrong().Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       events,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func SetEventStatus(service *event.Service, f factory.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		caller, err := resolveCaller(r, f)
		if err != nil {
			response.Unauthorized().Send(ctx, w)
			return
		}
		if !caller.Admin {
			response.Forbidden().Send(ctx, w)
			return
		}

		eventID, ok := eventIDFromPath(w, r)
		if !ok {
			return
		}

		var req model.StatusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest("invalid request body", fmt.Sprintf("setEventStatus: error unmarshalling request body: %+v", err)).Send(ctx, w)
			return
		}

		updated, err := service.SetStatus(ctx, eventID, req.Status)
		if err != nil {
			if errors.Is(err, event.ErrInvalidStatus) {
				response.InvalidData(fmt.Sprintf("setEventStatus: %v", err)).Send(ctx, w)
				return
			}
			sendEventError(ctx, w, "setEventStatus", err)
			return
		}

		response.SuccessResponse{
			Data:       updated,
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

func eventIDFromPath(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	vars := mux.Vars(r)
	eventID, err := primitive.ObjectIDFromHex(vars["eventID"])
	if err != nil {
		response.InvalidData(fmt.Sprintf("invalid event id: %v", vars["eventID"])).Send(r.Context(), w)
		return primitive.NilObjectID, false
	}
	return eventID, true
}

func sendEventError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, event.ErrNotFound):
		response.ResourceNotFound("The requested event was not found", "").Send(ctx, w)
	case errors.Is(err, event.ErrNotOrganizer):
		response.Forbidden().Send(ctx, w)
	case errors.Is(err, event.ErrInvalidEvent):
		response.InvalidData(fmt.Sprintf("%s: %v", op, err)).Send(ctx, w)
	default:
		logger.Errorf(ctx, "%s: %+v", op, err)
		response.SomethingWrong().Send(ctx, w)
	}
}
