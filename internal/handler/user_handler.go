package handler

import (
	"encoding/json"
	"net/http"

	"github.com/juniorjunco/blog-pro/internal/usecase"
	"go.uber.org/zap"
)

type UserHandler struct {
	users  *usecase.UserUseCase
	logger *zap.Logger
}

func NewUserHandler(users *usecase.UserUseCase, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.Named("UserHTTPHandler"),
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signUpResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *UserHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Failed to decode request body for SignUp", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.SignUp(r.Context(), usecase.SignUpInput{Username: req.Username, Password: req.Password})
	if err != nil {
		writeError(w, h.logger, "Failed to sign up user", err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, signUpResponse{Message: "User created successfully", ID: user.ID})
}

func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Failed to decode request body for Login", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.users.Login(r.Context(), usecase.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		writeError(w, h.logger, "Failed to log in user", err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, loginResponse{Token: token})
}
