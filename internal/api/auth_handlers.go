package api

import (
	"net/http"
	"strconv"

	"storefront-api/internal/models"
	"storefront-api/internal/service"

	"github.com/gin-gonic/gin"
)

// register handles user registration
func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "registration successful", user)
}

// login handles user login
func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token, user, err := h.accounts.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "login successful", gin.H{
		"user":  user,
		"token": token,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// forgotPassword issues a password reset OTP
func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userReset.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "if the account exists, an OTP has been sent", nil)
}

// verifyOTP checks a password reset OTP without consuming it
func (h *Handler) verifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userReset.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "OTP verified", nil)
}

// resetPassword sets a new password after OTP verification
func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userReset.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "password reset successful", nil)
}

// getProfile returns the authenticated user's profile
func (h *Handler) getProfile(c *gin.Context) {
	user, err := h.accounts.Profile(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "profile retrieved", user)
}

// updateProfile updates the authenticated user's profile
func (h *Handler) updateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), callerID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "profile updated", user)
}

// listAddresses returns the user's saved addresses
func (h *Handler) listAddresses(c *gin.Context) {
	addresses, err := h.accounts.Addresses(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "addresses retrieved", addresses)
}

// addAddress appends a new address to the user's address book
func (h *Handler) addAddress(c *gin.Context) {
	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	addresses, err := h.accounts.AddAddress(c.Request.Context(), callerID(c), addr)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "address added", addresses)
}

// updateAddress replaces the address at the given index
func (h *Handler) updateAddress(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid address index")
		return
	}

	var addr models.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	addresses, err := h.accounts.UpdateAddress(c.Request.Context(), callerID(c), index, addr)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "address updated", addresses)
}

// removeAddress deletes the address at the given index
func (h *Handler) removeAddress(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "invalid address index")
		return
	}

	addresses, err := h.accounts.RemoveAddress(c.Request.Context(), callerID(c), index)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "address removed", addresses)
}
