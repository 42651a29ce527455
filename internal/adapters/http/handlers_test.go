package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

func TestToHTTPError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{entities.ErrAuthenticationRequired, http.StatusUnauthorized, entities.ErrAuthenticationRequired.Error()},
		{fmt.Errorf("open board: %w", entities.ErrPermissionDenied), http.StatusForbidden, entities.ErrPermissionDenied.Error()},
		{fmt.Errorf("move task: %w", entities.ErrReadOnlyBoard), http.StatusForbidden, entities.ErrReadOnlyBoard.Error()},
		{fmt.Errorf("get board: %w", entities.ErrBoardNotFound), http.StatusNotFound, entities.ErrBoardNotFound.Error()},
		{entities.ErrRedundantShare, http.StatusConflict, entities.ErrRedundantShare.Error()},
		{ports.NewStoreError(http.StatusServiceUnavailable, ports.StoreErrorUnavailable, "down"), http.StatusServiceUnavailable, "document store unavailable"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)},
	}

	for _, tc := range cases {
		he := ToHTTPError(tc.err)
		if he.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, he.Code)
		}
		if he.Message != tc.message {
			t.Fatalf("%v: expected message %q, got %q", tc.err, tc.message, he.Message)
		}
		if he.Internal != tc.err {
			t.Fatalf("%v: expected the original error to be kept as internal", tc.err)
		}
	}
}

func TestToHTTPErrorKeepsEchoErrors(t *testing.T) {
	original := echo.NewHTTPError(http.StatusTeapot, "short and stout")
	if he := ToHTTPError(original); he != original {
		t.Fatalf("expected echo errors to pass through, got %v", he)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"", "", true},
		{"Bearer abc.def", "abc.def", true},
		{"Basic dXNlcg==", "", false},
		{"Bearer ", "", false},
	}

	e := echo.New()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set(echo.HeaderAuthorization, tc.header)
		}
		c := e.NewContext(req, httptest.NewRecorder())

		token, ok := BearerToken(c)
		if token != tc.token || ok != tc.ok {
			t.Fatalf("%q: expected (%q, %t), got (%q, %t)", tc.header, tc.token, tc.ok, token, ok)
		}
	}
}

func TestPrincipalRoundTrip(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if PrincipalFrom(c) != nil {
		t.Fatalf("expected an anonymous request to carry no principal")
	}

	principal := &entities.Principal{UserID: "u1", Email: "a@example.com"}
	SetPrincipal(c, principal, "token")
	if PrincipalFrom(c) != principal {
		t.Fatalf("expected the stored principal back")
	}
	if sessionFrom(c) != "token" {
		t.Fatalf("expected session token, got %q", sessionFrom(c))
	}
}

func TestRequestLoggerFallsBack(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	fallback := logger.NewNop()
	if got := RequestLogger(c, fallback); got != fallback {
		t.Fatalf("expected the fallback logger before one is set, got %p", got)
	}

	scoped := fallback.WithRequestID("req-1")
	SetRequestLogger(c, scoped)
	if got := RequestLogger(c, fallback); got != scoped {
		t.Fatalf("expected the request-scoped logger, got %p", got)
	}
}
