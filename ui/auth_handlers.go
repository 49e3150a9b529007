package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// handleLogin issues a token pair for valid credentials.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	pair, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// handleSignup registers a new account and returns its first token pair.
func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	pair, err := s.auth.Signup(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pair)
}

// handleRefresh exchanges a refresh token for a new access token. Any
// failure is a 401; the client decides what to do with its stored pair.
func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token is required"})
		return
	}

	access, err := s.auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}

// handleLogout acknowledges the logout. Tokens are stateless on the server
// side; the client deletes its persisted credentials.
func (s *Server) handleLogout(c *gin.Context) {
	caller := identityFrom(c)
	s.log.Info("user %s logged out", caller.Username)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
