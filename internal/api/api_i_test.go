package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spacewars/internal/apperr"
	"spacewars/internal/pirate"
	"spacewars/internal/repair"
)

const secret = "test-secret"

type pirateMock struct {
	err       error
	player    int64
	encounter int64
}

func (m *pirateMock) Preview(ctx context.Context, playerID, encounterID int64) (pirate.PreviewResult, error) {
	m.player, m.encounter = playerID, encounterID
	return pirate.PreviewResult{Captain: "Redbeard", Tier: 2}, m.err
}

func (m *pirateMock) Escape(ctx context.Context, playerID, encounterID int64) (pirate.EscapeResult, error) {
	return pirate.EscapeResult{}, m.err
}

func (m *pirateMock) Fight(ctx context.Context, playerID, encounterID int64) (pirate.FightResult, error) {
	m.player, m.encounter = playerID, encounterID
	return pirate.FightResult{Victory: true, XPEarned: 125}, m.err
}

func (m *pirateMock) Surrender(ctx context.Context, playerID, encounterID int64) (pirate.SurrenderResult, error) {
	return pirate.SurrenderResult{}, m.err
}

type repairMock struct{ target string }

func (m *repairMock) Quote(ctx context.Context, playerID int64) (repair.Quote, error) {
	return repair.Quote{HullDamage: 5, HullCost: 50, Total: 50}, nil
}

func (m *repairMock) Repair(ctx context.Context, playerID int64, target string) (repair.Result, error) {
	m.target = target
	return repair.Result{Target: target}, nil
}

func newMux(t *testing.T, svc Services, limiter *RateLimiter) (*http.ServeMux, *Authenticator) {
	t.Helper()
	auth := NewAuthenticator(secret)
	mux := http.NewServeMux()
	NewHandlerI(svc, auth, limiter).Register(mux)
	return mux, auth
}

func token(t *testing.T, auth *Authenticator, playerID int64) string {
	t.Helper()
	tok, err := auth.Sign(playerID, time.Hour)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return tok
}

func do(mux *http.ServeMux, method, path, tok string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if method == http.MethodGet {
		req = httptest.NewRequest(method, path+"?"+form.Encode(), nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestHealthzNeedsNoToken(t *testing.T) {
	mux, _ := newMux(t, Services{}, nil)
	rec := do(mux, http.MethodGet, "/healthz", "", url.Values{})
	if rec.Code != http.StatusOK {
		t.Fatalf("got status=%d", rec.Code)
	}
}

func TestAuthentication(t *testing.T) {
	mux, auth := newMux(t, Services{Pirates: &pirateMock{}}, nil)
	form := url.Values{"encounter_id": {"3"}}

	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte(secret))
	notPlayer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))

	tests := []struct {
		name string
		tok  string
		want int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong secret", forged, http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"non numeric subject", notPlayer, http.StatusUnauthorized},
		{"valid", token(t, auth, 7), http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(mux, http.MethodPost, "/v1/pirates/preview", tc.tok, form)
			if rec.Code != tc.want {
				t.Fatalf("got status=%d body=%s", rec.Code, rec.Body.String())
			}
			if tc.want == http.StatusUnauthorized {
				if resp := decode(t, rec); resp.Kind != string(apperr.KindUnauthorized) {
					t.Fatalf("got kind=%q", resp.Kind)
				}
			}
		})
	}
}

func TestPirateFightPassesIdentity(t *testing.T) {
	pm := &pirateMock{}
	mux, auth := newMux(t, Services{Pirates: pm}, nil)

	rec := do(mux, http.MethodPost, "/v1/pirates/fight", token(t, auth, 42), url.Values{"encounter_id": {"9"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("got status=%d body=%s", rec.Code, rec.Body.String())
	}
	if pm.player != 42 || pm.encounter != 9 {
		t.Fatalf("service saw player=%d encounter=%d", pm.player, pm.encounter)
	}
	resp := decode(t, rec)
	data, _ := resp.Data.(map[string]any)
	if resp.Status != "ok" || data["victory"] != true {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	pm := &pirateMock{err: apperr.New(apperr.KindNotCoLocated, "there are no such pirates here")}
	mux, auth := newMux(t, Services{Pirates: pm}, nil)
	tok := token(t, auth, 1)

	rec := do(mux, http.MethodPost, "/v1/pirates/preview", tok, url.Values{"encounter_id": {"2"}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("got status=%d", rec.Code)
	}
	resp := decode(t, rec)
	if resp.Status != "error" || resp.Kind != "NotCoLocated" || resp.Message != "there are no such pirates here" {
		t.Fatalf("unexpected error body %+v", resp)
	}

	rec = do(mux, http.MethodPost, "/v1/pirates/preview", tok, url.Values{"encounter_id": {"abc"}})
	if rec.Code != http.StatusBadRequest || decode(t, rec).Kind != "InvalidRequest" {
		t.Fatalf("bad id should be InvalidRequest, got %d %s", rec.Code, rec.Body.String())
	}

	pm.err = context.DeadlineExceeded
	rec = do(mux, http.MethodPost, "/v1/pirates/preview", tok, url.Values{"encounter_id": {"2"}})
	if rec.Code != http.StatusInternalServerError || decode(t, rec).Message != "internal error" {
		t.Fatalf("plumbing errors must stay opaque, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux, auth := newMux(t, Services{Pirates: &pirateMock{}}, nil)
	rec := do(mux, http.MethodGet, "/v1/pirates/fight", token(t, auth, 1), url.Values{})
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got status=%d", rec.Code)
	}
}

func TestRepairRoutes(t *testing.T) {
	rm := &repairMock{}
	mux, auth := newMux(t, Services{Repairs: rm}, nil)
	tok := token(t, auth, 5)

	rec := do(mux, http.MethodGet, "/v1/ships/repair", tok, url.Values{})
	if rec.Code != http.StatusOK {
		t.Fatalf("quote status=%d", rec.Code)
	}
	rec = do(mux, http.MethodPost, "/v1/ships/repair", tok, url.Values{"target": {"hull"}})
	if rec.Code != http.StatusOK || rm.target != "hull" {
		t.Fatalf("repair status=%d target=%q", rec.Code, rm.target)
	}
}

func TestRateLimitPerPlayer(t *testing.T) {
	mux, auth := newMux(t, Services{Repairs: &repairMock{}}, NewRateLimiter(0.001, 1))
	alice, bob := token(t, auth, 1), token(t, auth, 2)

	if rec := do(mux, http.MethodGet, "/v1/ships/repair", alice, url.Values{}); rec.Code != http.StatusOK {
		t.Fatalf("first request status=%d", rec.Code)
	}
	rec := do(mux, http.MethodGet, "/v1/ships/repair", alice, url.Values{})
	if rec.Code != http.StatusTooManyRequests || decode(t, rec).Kind != "RateLimited" {
		t.Fatalf("second request should be limited, got %d", rec.Code)
	}
	if rec := do(mux, http.MethodGet, "/v1/ships/repair", bob, url.Values{}); rec.Code != http.StatusOK {
		t.Fatalf("other players keep their own bucket, got %d", rec.Code)
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		all      bool
		minerals int
		plans    int
		bad      bool
	}{
		{"empty selects all", url.Values{}, true, 0, 0, false},
		{"explicit all", url.Values{"all": {"true"}, "mineral": {"1:5"}}, true, 0, 0, false},
		{"minerals merge", url.Values{"mineral": {"1:5", "1:2", "3:1"}}, false, 2, 0, false},
		{"plans only", url.Values{"plan": {"4", "6"}}, false, 0, 2, false},
		{"malformed mineral", url.Values{"mineral": {"1-5"}}, false, 0, 0, true},
		{"zero quantity", url.Values{"mineral": {"1:0"}}, false, 0, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if err := req.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			sel, err := parseSelection(req)
			if tc.bad {
				if !apperr.IsKind(err, apperr.KindInvalidRequest) {
					t.Fatalf("expected InvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sel.All != tc.all || len(sel.Minerals) != tc.minerals || len(sel.Plans) != tc.plans {
				t.Fatalf("unexpected selection %+v", sel)
			}
		})
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("mineral=1:5&mineral=1:2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_ = req.ParseForm()
	if sel, _ := parseSelection(req); sel.Minerals[1] != 7 {
		t.Fatalf("repeated mineral quantities should add up, got %v", sel.Minerals)
	}
}
