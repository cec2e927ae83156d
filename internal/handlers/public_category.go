package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// storeCategories is the fixed solar-equipment taxonomy. Category pages and
// the sitemap are generated from the same list.
var storeCategories = []string{
	"inverters",
	"batteries",
	"panels",
	"kits",
	"combos",
	"controllers",
	"street-lights",
	"cctv",
	"gadgets",
}

// GET /categories
func GetCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": storeCategories})
	}
}
