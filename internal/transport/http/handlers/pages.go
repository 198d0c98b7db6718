package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const placeholderPage = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Admin Console</title></head>
<body><div id="root"></div><noscript>Admin Console requires JavaScript.</noscript></body>
</html>
`

// PageHandler serves the admin single-page app. Unknown paths fall back to
// index.html so client-side routes survive a reload. Without a static
// directory it serves a bare shell page.
type PageHandler struct {
	dir   string
	files http.Handler
}

func NewPageHandler(staticDir string) *PageHandler {
	h := &PageHandler{dir: staticDir}
	if staticDir != "" {
		h.files = http.FileServer(http.Dir(staticDir))
	}
	return h
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Cache-Control", "no-store")

	if h.files == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(placeholderPage))
		return
	}

	if h.isFile(r.URL.Path) {
		h.files.ServeHTTP(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}

func (h *PageHandler) isFile(urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	if clean == "/" || strings.HasSuffix(clean, "/index.html") {
		return false
	}
	fi, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(clean)))
	return err == nil && !fi.IsDir()
}
