package model

type StatusUpdateRequest struct {
	Status EventStatus `json:"status"`
}
