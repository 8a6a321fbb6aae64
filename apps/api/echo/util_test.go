package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/examprep/apps/api/echo"
	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/exam"
	"github.com/trezcool/examprep/core/user"
	"github.com/trezcool/examprep/services/backend"
	emailsvc "github.com/trezcool/examprep/services/email"
)

const testPwd = "Xk9#mQ2!vLp7"

type testApp struct {
	srv *echoapi.Server
	clt *backend.Client
}

func setUp(t *testing.T, configure ...func(*core.Config)) testApp {
	t.Helper()
	conf, err := core.LoadConfig("test")
	require.NoError(t, err)
	conf.Debug = false
	conf.Server.LoginRateLimit = 100
	for _, fn := range configure {
		fn(conf)
	}

	emailsvc.ResetSentMessages()
	t.Cleanup(emailsvc.ResetSentMessages)

	mr := miniredis.RunT(t)
	clt, err := backend.NewInMemory(conf, core.NopLogger{}, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = clt.Close() })

	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         core.NopLogger{},
		Validate:       clt.Validate,
		Translator:     clt.Translator,
		UserSvc:        clt.UserSvc,
		OrderSvc:       clt.OrderSvc,
		Sessions:       clt.Sessions,
		Loader:         clt.Loader,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = srv.Close() })

	return testApp{srv: srv, clt: clt}
}

func (app testApp) createUser(t *testing.T, email string, role access.Role, pkg exam.Level) user.User {
	t.Helper()
	usr, err := app.clt.UserSvc.Create(context.Background(), user.NewUser{
		Name:            "Test User",
		Email:           email,
		Role:            role,
		Package:         string(pkg),
		Password:        testPwd,
		PasswordConfirm: testPwd,
	})
	require.NoError(t, err)
	return usr
}

func (app testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

// login logs usr in and returns the token & client id.
func (app testApp) login(t *testing.T, email string, clientID ...string) echoapi.LoginResponse {
	t.Helper()
	body := echoapi.LoginRequest{Email: email, Password: testPwd}
	if len(clientID) > 0 {
		body.ClientID = clientID[0]
	}
	rec := app.do(newRequest(http.MethodPost, "/v1/auth/login", marshalObj(t, body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res echoapi.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		require.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
