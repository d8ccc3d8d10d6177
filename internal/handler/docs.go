package handler

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Swagger UI shell; assets come from a CDN.
//
//go:embed swagger.html
var swaggerHTML string

//go:embed openapi.yaml
var openAPIDoc []byte

// RegisterDocs mounts documentation endpoints at the root:
//   - GET /openapi.yaml: the embedded API description
//   - GET /docs: Swagger UI pointed at it
func RegisterDocs(r *gin.Engine) {
	r.GET("/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", openAPIDoc)
	})
	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})
}
