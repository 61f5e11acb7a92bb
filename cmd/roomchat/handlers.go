package main

import (
	"encoding/json"
	"net/http"

	"roomchat/internal/constants"
	apperrors "roomchat/internal/errors"
	"roomchat/internal/validation"

	"github.com/gorilla/mux"
)

type enterRoomRequest struct {
	RoomID string `json:"roomId"`
}

type sendTextRequest struct {
	Body string `json:"body"`
}

type editMessageRequest struct {
	Body string `json:"body"`
}

type typingRequest struct {
	NonEmpty bool `json:"nonEmpty"`
}

type scrollRequest struct {
	DistanceFromBottom int `json:"distanceFromBottom"`
}

type addFilesRequest struct {
	Paths []string `json:"paths"`
}

type setTabRequest struct {
	Tab string `json:"tab"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := validation.ValidateHTTPRequestSize(r, constants.MaxRequestBodyBytes); err != nil {
		s.writeError(w, err)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeError(w, apperrors.NewValidationError("body", "invalid JSON request body"))
		return false
	}
	return true
}

func (s *Server) handleSnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.engine.Session.Snapshot())
	}
}

func (s *Server) handleEnterRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enterRoomRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.engine.Session.EnterRoom(r.Context(), req.RoomID); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.engine.Session.Snapshot())
	}
}

func (s *Server) handleLeaveRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.engine.Session.LeaveRoom()
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleScroll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scrollRequest
		if !s.decode(w, r, &req) {
			return
		}
		s.engine.Session.ObserveScroll(req.DistanceFromBottom)
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleLoadOlder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.Session.LoadOlder(r.Context()); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.engine.Session.Snapshot())
	}
}

func (s *Server) handleSendText() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendTextRequest
		if !s.decode(w, r, &req) {
			return
		}
		pending, err := s.engine.Session.SendText(req.Body)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, pending)
	}
}

func (s *Server) handleEditMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editMessageRequest
		if !s.decode(w, r, &req) {
			return
		}
		messageID := mux.Vars(r)["id"]
		if err := s.engine.Session.EditMessage(r.Context(), messageID, req.Body); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleDeleteMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID := mux.Vars(r)["id"]
		if err := s.engine.Session.DeleteMessage(r.Context(), messageID); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleRetry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tempID := mux.Vars(r)["tempId"]
		if err := s.engine.Session.RetrySend(tempID); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, nil)
	}
}

func (s *Server) handleDismiss() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tempID := mux.Vars(r)["tempId"]
		if err := s.engine.Session.DismissFailed(tempID); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleTyping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req typingRequest
		if !s.decode(w, r, &req) {
			return
		}
		s.engine.Session.TypingInput(req.NonEmpty)
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleVoiceStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.Session.StartVoice(r.Context()); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleVoiceStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.Session.StopVoice(); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleVoiceCancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.engine.Session.CancelVoice()
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleVoiceSend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := s.engine.Session.SendVoice()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, pending)
	}
}

func (s *Server) handleAddFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addFilesRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.engine.Session.AddFiles(req.Paths...); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.engine.Session.Snapshot().QueuedFiles)
	}
}

func (s *Server) handleClearFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.engine.Session.ClearFiles()
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleDispatchFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pendings, err := s.engine.Session.DispatchFiles()
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusAccepted, pendings)
	}
}

func (s *Server) handleSetTab() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setTabRequest
		if !s.decode(w, r, &req) {
			return
		}
		roomID := mux.Vars(r)["id"]
		if err := s.engine.SetActiveTab(r.Context(), roomID, req.Tab); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) handleGetTab() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["id"]
		tab, err := s.engine.ActiveTab(r.Context(), roomID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"tab": tab})
	}
}
