package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// serveFrontend serves the prebuilt static bundle for unmatched GET requests.
// "/" and directories resolve to index.html.
func (h *Handler) serveFrontend(c *gin.Context) {
	method := c.Request.Method
	urlPath := c.Request.URL.Path
	if h.frontendDir == "" || (method != http.MethodGet && method != http.MethodHead) ||
		strings.HasPrefix(urlPath, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	full := filepath.Join(h.frontendDir, filepath.FromSlash(path.Clean("/"+urlPath)))
	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	c.File(full)
}
