package handlers

import (
	"net/http"

	"bugtrack/middleware"
	"bugtrack/models"
	"bugtrack/service"

	"github.com/gin-gonic/gin"
)

func Signup(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := svc.Signup(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, resp)
	}
}

func Login(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := svc.Login(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func Profile(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Profile(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

func ChangePassword(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := svc.ChangePassword(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
