package controllers

import (
	"errors"
	"net/http"

	"esn-monitor/backend/app/dto"
	jwtutil "esn-monitor/backend/app/jwt"
	"esn-monitor/backend/app/services"

	"github.com/rs/zerolog"
)

type AuthController struct {
	Users  *services.UserService
	Signer *jwtutil.Signer
	Log    zerolog.Logger
}

func NewAuthController(users *services.UserService, signer *jwtutil.Signer, log zerolog.Logger) *AuthController {
	return &AuthController{Users: users, Signer: signer, Log: log}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	_ = decode(r, &req)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}
	u, err := c.Users.ValidateCredentials(r.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeServiceError(w, c.Log, err)
		return
	}
	token, err := c.Signer.Sign(u.ID, u.Username, u.Role)
	if err != nil {
		c.Log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "token error")
		return
	}
	writeJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: token, TokenType: "bearer"})
}
