package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"pcred/internal/domain"
	"pcred/internal/infra/logging"
)

// Default rewards applied when the caller omits the field.
const (
	defaultGenerateReward = 1000
	defaultCreateReward   = 350
)

type codeRequest struct {
	Code      string `json:"code"`
	DiscordID string `json:"discord_id"`
	Reward    *int64 `json:"reward"`
}

func errorResponse(msg string) map[string]interface{} {
	return map[string]interface{}{"status": "error", "msg": msg}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(r *http.Request, into *codeRequest) bool {
	return json.NewDecoder(r.Body).Decode(into) == nil
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("PCRED API IS LIVE"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeBody(r, &req) || req.Code == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "invalid"})
		return
	}

	reward, err := s.uc.Check(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"status": "invalid"})
			return
		}
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "reward": reward})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeBody(r, &req) || req.DiscordID == "" {
		writeJSON(w, http.StatusOK, errorResponse("Missing discord_id"))
		return
	}
	reward := int64(defaultGenerateReward)
	if req.Reward != nil {
		reward = *req.Reward
	}

	rec, err := s.uc.Generate(r.Context(), req.DiscordID, reward)
	if err != nil {
		s.businessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "code": rec.Code, "reward": rec.Reward})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeBody(r, &req) || req.Code == "" || req.DiscordID == "" {
		writeJSON(w, http.StatusOK, errorResponse("Missing code or discord_id"))
		return
	}
	reward := int64(defaultCreateReward)
	if req.Reward != nil {
		reward = *req.Reward
	}

	if _, err := s.uc.Create(r.Context(), req.Code, req.DiscordID, reward); err != nil {
		s.businessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeBody(r, &req) || req.Code == "" || req.DiscordID == "" {
		writeJSON(w, http.StatusOK, errorResponse("Missing code or discord_id"))
		return
	}

	balance, err := s.uc.Redeem(r.Context(), req.Code, req.DiscordID)
	if err != nil {
		s.businessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "balance": balance})
}

// businessError maps recoverable rejections onto the structured error
// contract; everything else is a server-side failure.
func (s *Server) businessError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRedeemRejected):
		writeJSON(w, http.StatusOK, errorResponse("Invalid or already used code"))
	case errors.Is(err, domain.ErrDuplicateCode):
		writeJSON(w, http.StatusOK, errorResponse("Code already exists"))
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusOK, errorResponse("Missing or invalid field"))
	default:
		s.serverError(w, r, err)
	}
}

// serverError surfaces storage failures distinctly instead of masking them as
// invalid codes.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
	if errors.Is(err, domain.ErrStorageUnavailable) {
		writeJSON(w, http.StatusInternalServerError, errorResponse("storage unavailable"))
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse("internal error"))
}
