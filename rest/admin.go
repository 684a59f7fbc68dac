package rest

import (
	"compress/gzip"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nvkalinin/meal-planner/log"
)

func (s *Server) adminRoutes(r chi.Router) {
	if s.Opts.AdminPasswd == "" {
		r.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
			sendErrorJson(w, http.StatusForbidden, "admin api is disabled")
		})
		return
	}

	r.Use(middleware.BasicAuth("meal-planner", map[string]string{"admin": s.Opts.AdminPasswd}))
	r.Post("/sync", s.syncCtrl)
	r.Get("/backup", s.backupCtrl)
}

func (s *Server) syncCtrl(w http.ResponseWriter, r *http.Request) {
	if s.Syncer == nil {
		sendErrorJson(w, http.StatusNotImplemented, "sync is not configured")
		return
	}

	n, err := s.Syncer.UpdateCatalog()
	if err != nil {
		log.Printf("[ERROR] rest sync: %v", err)
		sendErrorJson(w, http.StatusInternalServerError, err.Error())
		return
	}

	sendJsonResponse(w, map[string]int{"recipes": n})
}

// backupCtrl отдает снимок bolt, сжатый gzip.
func (s *Server) backupCtrl(w http.ResponseWriter, r *http.Request) {
	if s.Backup == nil {
		sendErrorJson(w, http.StatusNotImplemented, "backup is supported only by bolt engine")
		return
	}

	fname := fmt.Sprintf("meals_%s.bolt.gz", s.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fname))

	gz := gzip.NewWriter(w)
	if err := s.Backup.Backup(gz); err != nil {
		// Заголовки уже отправлены, остается только оборвать ответ.
		log.Printf("[ERROR] rest backup: %v", err)
		panic(http.ErrAbortHandler)
	}
	if err := gz.Close(); err != nil {
		log.Printf("[WARN] rest backup, cannot close gzip: %v", err)
	}
}
