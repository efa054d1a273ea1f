package server

import (
	"encoding/json"
	"net/http"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusCode maps an error code to an HTTP status.
func statusCode(err error) int {
	switch {
	case errs.IsInvalid(err):
		return http.StatusBadRequest
	case errs.Is(err, errs.ErrCodeNotFound), errs.Is(err, errs.ErrCodeFileNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrCodeDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusCode(err)
	resp := errorResponse{
		Error:   string(errs.GetCode(err)),
		Message: errs.UserMessage(err),
	}
	if status == http.StatusInternalServerError {
		s.requestLog(r).Error("request failed", "error", err)
		if resp.Error == "" {
			resp.Error = string(errs.ErrCodeInternal)
		}
		resp.Message = "internal error"
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
