package api

import (
	"net/http"

	"storefront-api/internal/service"

	"github.com/gin-gonic/gin"
)

// adminLogin handles admin login
func (h *Handler) adminLogin(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token, admin, err := h.admins.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "login successful", gin.H{
		"admin": admin,
		"token": token,
	})
}

// adminForgotPassword issues a password reset OTP for an admin account
func (h *Handler) adminForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.adminReset.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "if the account exists, an OTP has been sent", nil)
}

// adminVerifyOTP checks an admin password reset OTP
func (h *Handler) adminVerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.adminReset.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "OTP verified", nil)
}

// adminResetPassword sets a new admin password after OTP verification
func (h *Handler) adminResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.adminReset.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "password reset successful", nil)
}

// adminChangePassword lets an authenticated admin rotate their password
func (h *Handler) adminChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.admins.ChangePassword(c.Request.Context(), callerID(c), &req); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "password changed", nil)
}
