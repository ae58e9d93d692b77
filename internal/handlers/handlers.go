// Package handlers serves the relocation form, its JSON API and the login
// endpoints.
package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"relocate/internal/config"
	models "relocate/internal/domain/models/json"
	"relocate/internal/phpserial"
	"relocate/internal/services"
	"relocate/internal/user"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Messages shown to the user.
const (
	msgMissingNewURL     = "You must provide a new site URL."
	msgInvalidOldSiteURL = "The old site URL provided cannot be used in the replacement process."
	msgInvalidNewSiteURL = "The new site URL provided cannot be used as a site URL."
	msgNotLoggedIn       = "You must be logged in to use the Relocate tool."
	msgNoPermission      = "Your account does not have permission to use the Relocate tool."
	msgBadCredentials    = "Unknown username or incorrect token."
)

// Controller - обработчики HTTP-запросов инструмента переноса.
type Controller struct {
	conf            *config.Config
	relocateService services.RelocateService
	userService     user.UserService
	decoder         *schema.Decoder
	sugar           *zap.SugaredLogger
}

// NewController создаёт контроллер поверх набора сервисов.
func NewController(srv *services.CompositeService, sugar *zap.SugaredLogger, conf *config.Config) *Controller {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Controller{
		conf:            conf,
		relocateService: srv.RelocateService,
		userService:     srv.UserService,
		decoder:         decoder,
		sugar:           sugar,
	}
}

// relocateForm - поля формы переноса. DoReplace равен nil, если не отмечен
// ни один флажок: тогда обрабатываются все группы.
type relocateForm struct {
	OldSite   string        `schema:"old_site"`
	NewSite   string        `schema:"new_site"`
	DoReplace *replaceParts `schema:"do_replace"`
	DryRun    bool          `schema:"dry_run"`
}

type replaceParts struct {
	Options     bool `schema:"options"`
	Attachments bool `schema:"attachments"`
	Content     bool `schema:"content"`
}

type formPage struct {
	Error       string
	OldURL      string
	NewURL      string
	OldEditable bool
	Options     bool
	Attachments bool
	Content     bool
	DryRun      bool
}

type messagePage struct {
	Title   string
	Message string
	Login   bool
}

// RelocateForm выводит форму переноса.
func (con *Controller) RelocateForm() http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		oldURL, err := con.relocateService.CurrentSiteURL(req.Context())
		if err != nil {
			con.sugar.Errorf("reading site URL: %v", err)
			http.Error(res, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		con.render(res, http.StatusOK, "form", formPage{
			OldURL:      oldURL,
			OldEditable: con.conf.RelocateMode,
			Options:     true,
			Attachments: true,
			Content:     true,
		})
	}
}

// Relocate обрабатывает отправленную форму и выводит итог переноса.
func (con *Controller) Relocate() http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		var form relocateForm
		if err := req.ParseForm(); err != nil {
			http.Error(res, "Bad Request", http.StatusBadRequest)
			return
		}
		if err := con.decoder.Decode(&form, phpFormValues(req.PostForm)); err != nil {
			http.Error(res, "Bad Request", http.StatusBadRequest)
			return
		}

		r := services.RelocateRequest{
			NewURL:      form.NewSite,
			Options:     true,
			Attachments: true,
			Content:     true,
			DryRun:      form.DryRun,
		}
		if con.conf.RelocateMode {
			r.OldURL = form.OldSite
		}
		if form.DoReplace != nil {
			r.Options = form.DoReplace.Options
			r.Attachments = form.DoReplace.Attachments
			r.Content = form.DoReplace.Content
		}

		prepared, err := con.relocateService.Prepare(req.Context(), r)
		if msg := validationMessage(err); msg != "" {
			con.render(res, http.StatusBadRequest, "form", formPage{
				Error:       msg,
				OldURL:      prepared.OldURL,
				NewURL:      prepared.NewURL,
				OldEditable: con.conf.RelocateMode,
				Options:     r.Options,
				Attachments: r.Attachments,
				Content:     r.Content,
				DryRun:      r.DryRun,
			})
			return
		}
		if err != nil {
			con.sugar.Errorf("preparing relocation: %v", err)
			http.Error(res, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		report, err := con.relocateService.Relocate(req.Context(), prepared)
		page := struct {
			services.Report
			Error string
		}{Report: report}
		status := http.StatusOK
		if err != nil {
			con.sugar.Errorf("relocation: %v", err)
			page.Error = err.Error()
			status = http.StatusInternalServerError
		}
		con.render(res, status, "success", page)
	}
}

// APIRelocate - JSON-вариант Relocate.
func (con *Controller) APIRelocate() http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		var body models.RelocateRequest
		dec := json.NewDecoder(req.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			con.writeJSON(res, http.StatusBadRequest, models.ErrorResponse{Error: "invalid JSON body"})
			return
		}

		r, err := toRelocateRequest(body)
		if err != nil {
			con.writeJSON(res, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		if !con.conf.RelocateMode {
			r.OldURL = ""
		}

		report, err := con.relocateService.Relocate(req.Context(), r)
		if msg := validationMessage(err); msg != "" {
			con.writeJSON(res, http.StatusBadRequest, models.ErrorResponse{Error: msg})
			return
		}

		resp := toRelocateResponse(report, len(r.OptionValues) > 0)
		status := http.StatusOK
		if err != nil {
			con.sugar.Errorf("relocation: %v", err)
			resp.Error = err.Error()
			status = http.StatusInternalServerError
		}
		con.writeJSON(res, status, resp)
	}
}

// PingHandler проверяет соединение с базой данных.
func (con *Controller) PingHandler() http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		if err := con.relocateService.Ping(req.Context()); err != nil {
			con.sugar.Errorf("ping: %v", err)
			con.writeJSON(res, http.StatusInternalServerError, models.ErrorResponse{Error: "database unavailable"})
			return
		}
		con.writeJSON(res, http.StatusOK, models.PingResponse{Status: "ok"})
	}
}

// Login открывает сессию по имени и токену из формы.
func (con *Controller) Login() http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			http.Error(res, "Bad Request", http.StatusBadRequest)
			return
		}

		s, err := con.userService.Login(req.PostForm.Get("log"), req.PostForm.Get("pwd"))
		if errors.Is(err, user.ErrBadCredentials) {
			con.render(res, http.StatusUnauthorized, "message", messagePage{
				Title: "Not Allowed", Message: msgBadCredentials, Login: true,
			})
			return
		}
		if err == nil {
			err = con.userService.SetSessionCookie(res, s)
		}
		if err != nil {
			con.sugar.Errorf("login: %v", err)
			http.Error(res, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		con.sugar.Infow("logged in", "user", s.User)
		http.Redirect(res, req, "/", http.StatusSeeOther)
	}
}

// Logout закрывает сессию.
func (con *Controller) Logout() http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		con.userService.Logout(res, req)
		http.Redirect(res, req, "/", http.StatusSeeOther)
	}
}

func (con *Controller) render(res http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		con.sugar.Errorf("rendering %s: %v", name, err)
		http.Error(res, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.Header().Set("Cache-Control", "no-cache, must-revalidate, max-age=0")
	res.WriteHeader(status)
	if _, err := res.Write(buf.Bytes()); err != nil {
		con.sugar.Errorf("writing %s: %v", name, err)
	}
}

func (con *Controller) writeJSON(res http.ResponseWriter, status int, v any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(v); err != nil {
		con.sugar.Errorf("writing JSON response: %v", err)
	}
}

// validationMessage returns the user-facing text of a rejected request, or ""
// when err is not a validation error.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrMissingNewURL):
		return msgMissingNewURL
	case errors.Is(err, services.ErrInvalidOldSiteURL):
		return msgInvalidOldSiteURL
	case errors.Is(err, services.ErrInvalidNewSiteURL):
		return msgInvalidNewSiteURL
	}
	return ""
}

func toRelocateRequest(body models.RelocateRequest) (services.RelocateRequest, error) {
	r := services.RelocateRequest{
		OldURL:        body.OldURL,
		NewURL:        body.NewURL,
		Options:       models.Flag(body.Options),
		Attachments:   models.Flag(body.Attachments),
		Content:       models.Flag(body.Content),
		PostIDs:       body.PostIDs,
		AttachmentIDs: body.AttachmentIDs,
		OptionNames:   body.OptionNames,
		DryRun:        body.DryRun,
	}
	if len(body.OptionValues) > 0 {
		r.OptionValues = make(map[string]phpserial.Value, len(body.OptionValues))
		for name, raw := range body.OptionValues {
			v, err := phpserial.FromGo(raw)
			if err != nil {
				return r, err
			}
			r.OptionValues[name] = v
		}
	}
	return r, nil
}

func toRelocateResponse(report services.Report, withOptions bool) models.RelocateResponse {
	resp := models.RelocateResponse{
		RunID:                report.RunID,
		OldURL:               report.OldURL,
		NewURL:               report.NewURL,
		DryRun:               report.DryRun,
		OptionsProcessed:     report.OptionsProcessed,
		AttachmentsProcessed: report.AttachmentsProcessed,
		PostsProcessed:       report.PostsProcessed,
		Skipped:              report.Skipped,
		Failures:             toFailures(report.Failures),
		Warnings:             toFailures(report.Warnings),
		LoginURL:             report.LoginURL(),
	}
	if o := report.Summary.Options; withOptions && o != nil {
		resp.Options = make(map[string]any, len(o.Updated))
		for name, v := range o.Updated {
			resp.Options[name] = phpserial.ToGo(v)
		}
	}
	return resp
}

func toFailures(in []services.Failure) []models.Failure {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Failure, len(in))
	for i, f := range in {
		out[i] = models.Failure{Kind: f.Kind, Key: f.Key, Error: f.Error}
	}
	return out
}
