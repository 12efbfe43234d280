package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "SpeakSEA API"
	ServiceVersion = "1.0.0"
)

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": ServiceName + " is running!",
		"version": ServiceVersion,
	})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": ServiceName})
}
