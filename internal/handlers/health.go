package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// GET /health
func Health(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		mongoUp := ensureDBConnection(c.Request.Context(), db) == nil
		c.JSON(http.StatusOK, gin.H{"ok": true, "mongo": mongoUp})
	}
}
