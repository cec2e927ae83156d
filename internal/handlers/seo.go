package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}

type sitemapProduct struct {
	ID        primitive.ObjectID `bson:"_id"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// GET /sitemap.xml
// Static pages, category pages and every active product URL.
func Sitemap(db *mongo.Database, siteURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /sitemap.xml"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		findOptions := options.Find().
			SetProjection(bson.M{"_id": 1, "updatedAt": 1}).
			SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
			SetLimit(10000)

		cursor, err := db.Collection("products").Find(ctx, bson.M{
			"isActive":  bson.M{"$ne": false},
			"isDeleted": bson.M{"$ne": true},
		}, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var products []sitemapProduct
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		now := time.Now().UTC().Format(time.RFC3339)

		type entry struct{ loc, lastmod string }
		urls := []entry{
			{siteURL + "/", now},
			{siteURL + "/products", now},
			{siteURL + "/contact", now},
			{siteURL + "/about", now},
		}
		for _, category := range storeCategories {
			urls = append(urls, entry{siteURL + "/products/" + category, now})
		}
		for _, p := range products {
			lastmod := now
			if !p.UpdatedAt.IsZero() {
				lastmod = p.UpdatedAt.UTC().Format(time.RFC3339)
			}
			urls = append(urls, entry{siteURL + "/product/" + p.ID.Hex(), lastmod})
		}

		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
		b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
		for _, u := range urls {
			b.WriteString("  <url>\n")
			fmt.Fprintf(&b, "    <loc>%s</loc>\n", escapeXML(u.loc))
			fmt.Fprintf(&b, "    <lastmod>%s</lastmod>\n", escapeXML(u.lastmod))
			b.WriteString("  </url>\n")
		}
		b.WriteString("</urlset>")

		c.Header("Cache-Control", "public, max-age=0, s-maxage=3600, stale-while-revalidate=59")
		c.Data(http.StatusOK, "application/xml", []byte(b.String()))
	}
}

var newlines = regexp.MustCompile(`\s+`)

// truncateDescription caps s at max bytes without splitting a
// multi-byte rune, which would leave invalid UTF-8 in the meta tags.
func truncateDescription(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// GET /product/:id/preview
// A social-preview page: og/twitter meta for link unfurling, with a redirect
// to the real product page for anyone who is not a crawler.
func ProductPreview(db *mongo.Database, siteURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/:id/preview"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := findProduct(ctx, db, productID)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		imageURL := product.Image
		if imageURL != "" && !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
			imageURL = siteURL + "/" + strings.TrimPrefix(imageURL, "/")
		}

		title := product.Name
		if title == "" {
			title = "SolarNaija Product"
		}
		description := truncateDescription(newlines.ReplaceAllString(product.Description, " "), 300)
		pageURL := siteURL + "/product/" + productID.Hex()

		html := fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>%[1]s</title>
    <meta name="description" content="%[2]s" />
    <meta property="og:type" content="product" />
    <meta property="og:title" content="%[1]s" />
    <meta property="og:description" content="%[2]s" />
    <meta property="og:url" content="%[3]s" />
    <meta property="og:image" content="%[4]s" />
    <meta name="twitter:card" content="summary_large_image" />
    <meta name="twitter:title" content="%[1]s" />
    <meta name="twitter:description" content="%[2]s" />
    <meta name="twitter:image" content="%[4]s" />
    <link rel="canonical" href="%[3]s" />
    <script>
      try{ if (!/facebookexternalhit|Twitterbot|Slackbot|Discordbot|WhatsApp|Facebot|LinkedInBot|Pinterest/i.test(navigator.userAgent)) { window.location.replace('%[3]s'); } } catch(e){}
    </script>
  </head>
  <body>
    <p>Redirecting to product page…</p>
    <script>setTimeout(function(){ window.location.href='%[3]s'; },700);</script>
  </body>
</html>`,
			escapeXML(title), escapeXML(description), escapeXML(pageURL), escapeXML(imageURL))

		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}
}
