package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	roomservice "github.com/shba007/ntertainer/internal/service/room"
	"github.com/shba007/ntertainer/pkg/rest"
)

type validateCreateRoomInput struct {
	DisplayName string `json:"display_name" validate:"required,max=32"`
	EpisodeRef  string `json:"episode_ref" validate:"required"`
}

type validateCreateRoomResponse struct {
	ConnectToken string `json:"connect_token"`
	RoomId       string `json:"room_id"`
}

func (c controller) validateCreateRoom(w http.ResponseWriter, r *http.Request) {
	var input validateCreateRoomInput

	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.roomService.CreateRoomSession(r.Context(), &roomservice.CreateRoomSessionParams{
		DisplayName: input.DisplayName,
		EpisodeRef:  input.EpisodeRef,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to create room session", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": validateCreateRoomResponse{
		ConnectToken: resp.ConnectToken,
		RoomId:       resp.RoomId,
	}})
}

type validateJoinRoomInput struct {
	DisplayName string `json:"display_name" validate:"required,max=32"`
}

type validateJoinRoomResponse struct {
	ConnectToken string `json:"connect_token"`
}

func (c controller) validateJoinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	var input validateJoinRoomInput

	if err := rest.ReadJSON(r, &input); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.roomService.JoinRoomSession(r.Context(), &roomservice.JoinRoomSessionParams{
		DisplayName: input.DisplayName,
		RoomId:      roomId,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to create join session", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": validateJoinRoomResponse{
		ConnectToken: resp.ConnectToken,
	}})
}
