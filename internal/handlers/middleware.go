package handlers

import (
	"compress/gzip"
	"errors"
	"net/http"
	"strings"
	"time"

	models "relocate/internal/domain/models/json"
	"relocate/internal/user"
)

// LoggingMiddleware записывает в лог метод, адрес, статус, размер ответа и
// время обработки запроса.
func (con *Controller) LoggingMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		start := time.Now()
		responseData := &responseData{}
		lw := loggingResponseWriter{
			ResponseWriter: res,
			responseData:   responseData,
		}
		h.ServeHTTP(&lw, req)

		con.sugar.Infoln(
			"uri", req.RequestURI,
			"method", req.Method,
			"status", responseData.status,
			"size", responseData.size,
			"duration", time.Since(start),
		)
	})
}

// PanicRecoveryMiddleware перехватывает панику обработчика и отвечает 500.
func (con *Controller) PanicRecoveryMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				con.sugar.Errorf("panic serving %s: %v", req.URL.Path, err)
				http.Error(res, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		h.ServeHTTP(res, req)
	})
}

// GzipEncodeMiddleware сжимает ответ, если клиент принимает gzip.
func (con *Controller) GzipEncodeMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if !strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(res, req)
			return
		}

		gz, err := gzip.NewWriterLevel(res, gzip.BestSpeed)
		if err != nil {
			h.ServeHTTP(res, req)
			return
		}
		defer func() {
			if err := gz.Close(); err != nil {
				con.sugar.Errorf("gzip close: %v", err)
			}
		}()

		res.Header().Set("Content-Encoding", "gzip")
		res.Header().Add("Vary", "Accept-Encoding")
		h.ServeHTTP(gzipWriter{ResponseWriter: res, Writer: gz}, req)
	})
}

// GzipDecodeMiddleware распаковывает тело запроса, сжатое gzip.
func (con *Controller) GzipDecodeMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if !strings.Contains(req.Header.Get("Content-Encoding"), "gzip") {
			h.ServeHTTP(res, req)
			return
		}

		gz, err := gzip.NewReader(req.Body)
		if err != nil {
			http.Error(res, "Bad Request", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := gz.Close(); err != nil {
				con.sugar.Errorf("gzip close: %v", err)
			}
		}()

		req.Body = gz
		req.Header.Del("Content-Encoding")
		h.ServeHTTP(res, req)
	})
}

// Authorize пропускает только пользователей с правом manage_options. В
// режиме RELOCATE проверка отключена.
func (con *Controller) Authorize(h http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if con.conf.RelocateMode {
			h.ServeHTTP(res, req)
			return
		}

		s, err := con.userService.GetSession(req)
		switch {
		case errors.Is(err, user.ErrNotLoggedIn):
			con.deny(res, req, http.StatusUnauthorized, msgNotLoggedIn)
			return
		case err != nil:
			con.sugar.Errorf("reading session: %v", err)
			http.Error(res, "Internal Server Error", http.StatusInternalServerError)
			return
		case !s.Can(user.CapManageOptions):
			con.sugar.Infow("relocation refused", "user", s.User)
			con.deny(res, req, http.StatusForbidden, msgNoPermission)
			return
		}
		h.ServeHTTP(res, req)
	})
}

func (con *Controller) deny(res http.ResponseWriter, req *http.Request, status int, msg string) {
	if strings.HasPrefix(req.URL.Path, "/api/") {
		con.writeJSON(res, status, models.ErrorResponse{Error: msg})
		return
	}
	con.render(res, status, "message", messagePage{
		Title:   "Not Allowed",
		Message: msg,
		Login:   status == http.StatusUnauthorized,
	})
}
