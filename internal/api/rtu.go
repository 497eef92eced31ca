package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/iris/internal/rtu"
)

// handleGenerateRTU returns an RTU freshly generated from the config file.
// Nothing is applied to the store or hardware.
func (s *Server) handleGenerateRTU(w http.ResponseWriter, _ *http.Request) {
	r, err := s.hub.Generate()
	if err != nil {
		s.logger.Error("rtu generate failed", "error", err)
		writeHardwareError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, r)
}

// handleUpdateRTU refreshes the store from hardware and returns the snapshot.
// A client hanging up does not stop the refresh part-way.
func (s *Server) handleUpdateRTU(w http.ResponseWriter, r *http.Request) {
	snap, err := s.hub.Refresh(context.WithoutCancel(r.Context()))
	if err != nil {
		s.logger.Warn("rtu update failed", "error", err)
		writeHardwareError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleEnactRTU writes the devices of the posted RTU that differ from the
// store, aborting on the first hardware failure. Once started, the writes
// run to completion even if the client goes away.
func (s *Server) handleEnactRTU(w http.ResponseWriter, r *http.Request) {
	var incoming rtu.RTU
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	writes, err := s.hub.ApplySnapshot(context.WithoutCancel(r.Context()), &incoming)
	if err != nil {
		if errors.Is(err, rtu.ErrInvalidTopology) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		s.logger.Error("rtu enact failed", "writes", writes, "error", err)
		writeHardwareError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
