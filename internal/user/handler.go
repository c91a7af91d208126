package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"kirana-be/internal/logger"
	"kirana-be/internal/otp"
	"kirana-be/internal/utils"

	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/send-otp", h.sendOTP)
	mux.HandleFunc("POST /api/auth/verify-otp", h.verifyOTP)
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("GET /api/auth/profile", h.profile)
	mux.HandleFunc("PUT /api/auth/profile", h.updateProfile)
}

type userResponse struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	IsAdmin bool    `json:"isAdmin"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Balance float64 `json:"loyaltyBalance"`
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.Role == RoleAdmin,
		Address: u.Address,
		Phone:   u.Phone,
		Balance: u.LoyaltyBalance,
	}
}

func (h *Handler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		utils.WriteJSONError(w, "Email is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.SendOTP(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrEmailExists) {
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.FromCtx(r.Context()).Error("send otp failed", zap.Error(err))
		utils.WriteJSONError(w, "Failed to send OTP", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"msg": "OTP sent to your email"})
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.OTP == "" {
		utils.WriteJSONError(w, "Email and OTP are required", http.StatusBadRequest)
		return
	}

	if err := h.svc.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		if errors.Is(err, otp.ErrNotFound) || errors.Is(err, otp.ErrMismatch) {
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		utils.WriteJSONError(w, "Verification failed", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"msg": "OTP verified successfully", "valid": true})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Name == "" || req.Email == "" || req.Password == "" {
		utils.WriteJSONError(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}

	token, u, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailNotVerified), errors.Is(err, ErrEmailExists):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.FromCtx(r.Context()).Error("register failed", zap.Error(err))
			utils.WriteJSONError(w, "Registration failed", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  toUserResponse(u),
		"msg":   "User registered successfully",
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		utils.WriteJSONError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	token, u, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteJSONError(w, ErrInvalidCredentials.Error(), http.StatusBadRequest)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserResponse(u),
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok || id == 0 {
		utils.WriteJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.svc.Profile(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "Server Error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok || id == 0 {
		utils.WriteJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name    *string `json:"name"`
		Address *string `json:"address"`
		Phone   *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), id, UpdateProfileParams{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "Server Error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
