package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"
)

type (
	responseData struct {
		status int
		size   int
	}

	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}
)

// Write перезаписывает метод Write интерфейса http.ResponseWriter.
// Функция записывает данные в ответ HTTP и обновляет размер записанных
// данных в структуре responseData для последующего логирования.
func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

// WriteHeader перезаписывает метод WriteHeader интерфейса http.ResponseWriter.
//
// Функция записывает статусный код в ответ HTTP и обновляет его
// в структуре responseData для последующего логирования.
func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.responseData.status = statusCode
}

// gzipWriter обёртывает http.ResponseWriter для поддержки сжатия данных с помощью gzip.
type gzipWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

// Write записывает сжатые данные в ответ HTTP.
func (w gzipWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// WriteHeader убирает Content-Length, который не совпадёт с длиной сжатых данных.
func (w gzipWriter) WriteHeader(statusCode int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(statusCode)
}

// phpFormValues переводит имена полей вида do_replace[options] в
// do_replace.options, понятные gorilla/schema.
func phpFormValues(form url.Values) url.Values {
	out := make(url.Values, len(form))
	for key, values := range form {
		if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
			key = key[:i] + "." + strings.Join(strings.Split(key[i+1:len(key)-1], "]["), ".")
		}
		out[key] = append(out[key], values...)
	}
	return out
}
