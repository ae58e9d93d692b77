package handlers

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relocate/internal/config"
	models "relocate/internal/domain/models/json"
	"relocate/internal/logger"
	"relocate/internal/mocks"
	"relocate/internal/phpserial"
	"relocate/internal/relocate"
	"relocate/internal/services"
	srvmocks "relocate/internal/services/mocks"
	"relocate/internal/user"
)

func prepare_(t *testing.T, conf *config.Config) (*srvmocks.MockRelocateService, *mocks.MockUserService, *Controller) {
	ctrl := gomock.NewController(t)

	sugarLogger, _ := logger.NewLogger("error")
	if conf == nil {
		conf = config.NewConfig()
	}
	mockRelocateService := srvmocks.NewMockRelocateService(ctrl)
	mockUserService := mocks.NewMockUserService(ctrl)

	composite := services.NewCompositeService(mockRelocateService, mockUserService, nil)
	controller := NewController(composite, sugarLogger, conf)

	return mockRelocateService, mockUserService, controller
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestRelocateForm(t *testing.T) {
	tests := []struct {
		name           string
		relocateMode   bool
		siteURL        string
		siteErr        error
		expectedStatus int
		contains       []string
		notContains    []string
	}{
		{
			name:           "RelocateForm ok",
			siteURL:        "http://old.example",
			expectedStatus: http.StatusOK,
			contains:       []string{`value="http://old.example"`, `disabled="disabled"`, `name="do_replace[content]" value="1" checked="checked"`},
		},
		{
			name:           "RelocateForm old URL editable",
			relocateMode:   true,
			siteURL:        "http://old.example",
			expectedStatus: http.StatusOK,
			notContains:    []string{`disabled="disabled"`},
		},
		{
			name:           "RelocateForm store error",
			siteErr:        errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.NewConfig()
			conf.RelocateMode = tt.relocateMode
			relSrv, _, controller := prepare_(t, conf)
			relSrv.EXPECT().CurrentSiteURL(gomock.Any()).Return(tt.siteURL, tt.siteErr)

			w := httptest.NewRecorder()
			controller.RelocateForm().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			resp := w.Result()
			defer func() {
				if err := resp.Body.Close(); err != nil {
					controller.sugar.Errorf("resp.Body.Close() error")
				}
			}()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			for _, s := range tt.contains {
				assert.Contains(t, string(body), s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, string(body), s)
			}
		})
	}
}

func TestRelocate(t *testing.T) {
	tests := []struct {
		name           string
		relocateMode   bool
		form           url.Values
		mockSetup      func(relSrv *srvmocks.MockRelocateService)
		expectedStatus int
		contains       []string
	}{
		{
			name: "Relocate all groups by default",
			form: url.Values{"new_site": {"https://new.example/"}, "old_site": {"http://ignored.example"}},
			mockSetup: func(relSrv *srvmocks.MockRelocateService) {
				want := services.RelocateRequest{NewURL: "https://new.example/", Options: true, Attachments: true, Content: true}
				prepared := services.RelocateRequest{OldURL: "http://old.example", NewURL: "https://new.example", Options: true, Attachments: true, Content: true}
				relSrv.EXPECT().Prepare(gomock.Any(), want).Return(prepared, nil)
				relSrv.EXPECT().Relocate(gomock.Any(), prepared).Return(services.Report{
					NewURL: "https://new.example", OptionsProcessed: 7, AttachmentsProcessed: 2, PostsProcessed: 11,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			contains: []string{
				"Success!",
				"<th>Options Processed</th><td>7</td>",
				"<th>Post Bodies Processed</th><td>11</td>",
				`href="https://new.example/wp-login.php"`,
			},
		},
		{
			name:         "Relocate selected groups",
			relocateMode: true,
			form: url.Values{
				"old_site":                {"http://old.example"},
				"new_site":                {"https://new.example"},
				"do_replace[content]":     {"1"},
				"do_replace[attachments]": {"1"},
				"dry_run":                 {"1"},
			},
			mockSetup: func(relSrv *srvmocks.MockRelocateService) {
				want := services.RelocateRequest{
					OldURL: "http://old.example", NewURL: "https://new.example",
					Attachments: true, Content: true, DryRun: true,
				}
				relSrv.EXPECT().Prepare(gomock.Any(), want).Return(want, nil)
				relSrv.EXPECT().Relocate(gomock.Any(), want).Return(services.Report{
					NewURL: "https://new.example", DryRun: true,
					Failures: []services.Failure{{Kind: "post", Key: "12", Error: "disk full"}},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			contains:       []string{"dry run", "post 12", "disk full"},
		},
		{
			name: "Relocate missing new URL",
			form: url.Values{"new_site": {""}},
			mockSetup: func(relSrv *srvmocks.MockRelocateService) {
				relSrv.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(
					services.RelocateRequest{OldURL: "http://old.example"}, services.ErrMissingNewURL)
			},
			expectedStatus: http.StatusBadRequest,
			contains:       []string{msgMissingNewURL, `value="http://old.example"`},
		},
		{
			name: "Relocate invalid new URL",
			form: url.Values{"new_site": {"new.example"}},
			mockSetup: func(relSrv *srvmocks.MockRelocateService) {
				relSrv.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(
					services.RelocateRequest{NewURL: "new.example"}, services.ErrInvalidNewSiteURL)
			},
			expectedStatus: http.StatusBadRequest,
			contains:       []string{msgInvalidNewSiteURL},
		},
		{
			name: "Relocate run error",
			form: url.Values{"new_site": {"https://new.example"}},
			mockSetup: func(relSrv *srvmocks.MockRelocateService) {
				relSrv.EXPECT().Prepare(gomock.Any(), gomock.Any()).Return(services.RelocateRequest{NewURL: "https://new.example"}, nil)
				relSrv.EXPECT().Relocate(gomock.Any(), gomock.Any()).Return(
					services.Report{NewURL: "https://new.example"}, errors.New("loading options: table missing"))
			},
			expectedStatus: http.StatusInternalServerError,
			contains:       []string{"table missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.NewConfig()
			conf.RelocateMode = tt.relocateMode
			relSrv, _, controller := prepare_(t, conf)
			tt.mockSetup(relSrv)

			w := httptest.NewRecorder()
			controller.Relocate().ServeHTTP(w, postForm("/relocate", tt.form))

			resp := w.Result()
			defer func() {
				if err := resp.Body.Close(); err != nil {
					controller.sugar.Errorf("resp.Body.Close() error")
				}
			}()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			for _, s := range tt.contains {
				assert.Contains(t, string(body), s)
			}
		})
	}
}

func TestAPIRelocate(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		mockSetup      func(relSrv *srvmocks.MockRelocateService)
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name: "APIRelocate ok",
			body: `{"old_url":"http://ignored.example","new_url":"https://new.example","attachments":false,"post_ids":[4,5]}`,
			mockSetup: func(relSrv *srvmocks.MockRelocateService) {
				want := services.RelocateRequest{NewURL: "https://new.example", Options: true, Content: true, PostIDs: []int64{4, 5}}
				relSrv.EXPECT().Relocate(gomock.Any(), want).Return(services.Report{
					RunID: "run-1", NewURL: "https://new.example", PostsProcessed: 2,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp models.RelocateResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "run-1", resp.RunID)
				assert.Equal(t, 2, resp.PostsProcessed)
				assert.Equal(t, "https://new.example/wp-login.php", resp.LoginURL)
				assert.Nil(t, resp.Options)
			},
		},
		{
			name: "APIRelocate option values",
			body: `{"new_url":"https://new.example","attachments":false,"content":false,"option_values":{"home":"http://old.example"}}`,
			mockSetup: func(relSrv *srvmocks.MockRelocateService) {
				relSrv.EXPECT().Relocate(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ any, r services.RelocateRequest) (services.Report, error) {
						assert.Equal(t, phpserial.String("http://old.example"), r.OptionValues["home"])
						assert.False(t, r.Attachments)
						return services.Report{
							NewURL:           "https://new.example",
							OptionsProcessed: 1,
							Summary: relocate.Summary{Options: &relocate.OptionsResult{
								Updated: map[string]phpserial.Value{"home": phpserial.String("https://new.example")},
							}},
						}, nil
					})
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp models.RelocateResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, map[string]any{"home": "https://new.example"}, resp.Options)
			},
		},
		{
			name:           "APIRelocate invalid JSON",
			body:           `{"new_url":`,
			mockSetup:      func(relSrv *srvmocks.MockRelocateService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "APIRelocate invalid old URL",
			body: `{"new_url":"https://new.example"}`,
			mockSetup: func(relSrv *srvmocks.MockRelocateService) {
				relSrv.EXPECT().Relocate(gomock.Any(), gomock.Any()).Return(services.Report{}, services.ErrInvalidOldSiteURL)
			},
			expectedStatus: http.StatusBadRequest,
			check: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"error":"`+msgInvalidOldSiteURL+`"}`, string(body))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relSrv, _, controller := prepare_(t, nil)
			tt.mockSetup(relSrv)

			req := httptest.NewRequest(http.MethodPost, "/api/relocate", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			controller.APIRelocate().ServeHTTP(w, req)

			resp := w.Result()
			defer func() {
				if err := resp.Body.Close(); err != nil {
					controller.sugar.Errorf("resp.Body.Close() error")
				}
			}()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			if tt.check != nil {
				body, _ := io.ReadAll(resp.Body)
				tt.check(t, body)
			}
		})
	}
}

func TestPingHandler(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "PingHandler ok", expectedStatus: http.StatusOK},
		{name: "PingHandler db down", err: errors.New("dial tcp: refused"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relSrv, _, controller := prepare_(t, nil)
			relSrv.EXPECT().Ping(gomock.Any()).Return(tt.err)

			w := httptest.NewRecorder()
			controller.PingHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if err := resp.Body.Close(); err != nil {
				controller.sugar.Errorf("resp.Body.Close() error")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		mockSetup      func(userSrv *mocks.MockUserService)
		expectedStatus int
	}{
		{
			name: "Login ok",
			mockSetup: func(userSrv *mocks.MockUserService) {
				s := user.Session{ID: "s1", User: "admin"}
				userSrv.EXPECT().Login("admin", "secret").Return(s, nil)
				userSrv.EXPECT().SetSessionCookie(gomock.Any(), s).Return(nil)
			},
			expectedStatus: http.StatusSeeOther,
		},
		{
			name: "Login bad credentials",
			mockSetup: func(userSrv *mocks.MockUserService) {
				userSrv.EXPECT().Login("admin", "secret").Return(user.Session{}, user.ErrBadCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Login cookie error",
			mockSetup: func(userSrv *mocks.MockUserService) {
				userSrv.EXPECT().Login("admin", "secret").Return(user.Session{}, nil)
				userSrv.EXPECT().SetSessionCookie(gomock.Any(), gomock.Any()).Return(errors.New("encode"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, userSrv, controller := prepare_(t, nil)
			tt.mockSetup(userSrv)

			w := httptest.NewRecorder()
			controller.Login().ServeHTTP(w, postForm("/login", url.Values{"log": {"admin"}, "pwd": {"secret"}}))

			resp := w.Result()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if err := resp.Body.Close(); err != nil {
				controller.sugar.Errorf("resp.Body.Close() error")
			}
		})
	}
}

func TestLogout(t *testing.T) {
	_, userSrv, controller := prepare_(t, nil)
	userSrv.EXPECT().Logout(gomock.Any(), gomock.Any())

	w := httptest.NewRecorder()
	controller.Logout().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name           string
		relocateMode   bool
		path           string
		mockSetup      func(userSrv *mocks.MockUserService)
		expectedStatus int
		contains       string
	}{
		{
			name:           "Authorize relocate mode",
			relocateMode:   true,
			path:           "/",
			mockSetup:      func(userSrv *mocks.MockUserService) {},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "Authorize administrator",
			path: "/",
			mockSetup: func(userSrv *mocks.MockUserService) {
				userSrv.EXPECT().GetSession(gomock.Any()).Return(
					user.Session{User: "admin", Capabilities: []string{user.CapManageOptions}}, nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "Authorize not logged in",
			path: "/",
			mockSetup: func(userSrv *mocks.MockUserService) {
				userSrv.EXPECT().GetSession(gomock.Any()).Return(user.Session{}, user.ErrNotLoggedIn)
			},
			expectedStatus: http.StatusUnauthorized,
			contains:       msgNotLoggedIn,
		},
		{
			name: "Authorize no permission",
			path: "/api/relocate",
			mockSetup: func(userSrv *mocks.MockUserService) {
				userSrv.EXPECT().GetSession(gomock.Any()).Return(user.Session{User: "editor"}, nil)
			},
			expectedStatus: http.StatusForbidden,
			contains:       `{"error":"` + msgNoPermission + `"}`,
		},
	}

	next := http.HandlerFunc(func(res http.ResponseWriter, _ *http.Request) {
		res.WriteHeader(http.StatusNoContent)
	})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.NewConfig()
			conf.RelocateMode = tt.relocateMode
			_, userSrv, controller := prepare_(t, conf)
			tt.mockSetup(userSrv)

			w := httptest.NewRecorder()
			controller.Authorize(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestGzipMiddleware(t *testing.T) {
	_, _, controller := prepare_(t, nil)
	echo := http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		_, _ = res.Write(body)
	})
	handler := controller.GzipDecodeMiddleware(controller.GzipEncodeMiddleware(echo))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"new_url":"https://new.example"}`))
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/relocate", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, `{"new_url":"https://new.example"}`, string(got))
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	_, _, controller := prepare_(t, nil)
	handler := controller.LoggingMiddleware(controller.PanicRecoveryMiddleware(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPHPFormValues(t *testing.T) {
	got := phpFormValues(url.Values{
		"new_site":            {"x"},
		"do_replace[options]": {"1"},
		"a[b][c]":             {"2"},
		"[broken":             {"3"},
	})
	assert.Equal(t, url.Values{
		"new_site":           {"x"},
		"do_replace.options": {"1"},
		"a.b.c":              {"2"},
		"[broken":            {"3"},
	}, got)
}
