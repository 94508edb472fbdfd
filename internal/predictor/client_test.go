package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status":"online","project":"M5-Forecasting"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "online" || h.Project != "M5-Forecasting" {
		t.Errorf("Health = %+v", h)
	}
}

func TestHealth_Down(t *testing.T) {
	// Point at a closed server to simulate connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL)
	if _, err := c.Health(context.Background()); err == nil {
		t.Error("Health() on a closed server returned no error")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://127.0.0.1:8000/")
	if c.BaseURL() != "http://127.0.0.1:8000" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}

func TestItemsAndStores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/items":
			w.Write([]byte(`["HOBBIES_1_001","HOBBIES_1_002","FOODS_3_090"]`))
		case "/stores":
			w.Write([]byte(`["CA_1","TX_2"]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)

	items, err := c.Items(context.Background())
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	wantItems := []string{"HOBBIES_1_001", "HOBBIES_1_002", "FOODS_3_090"}
	if len(items) != len(wantItems) {
		t.Fatalf("got %d items, want %d", len(items), len(wantItems))
	}
	for i, w := range wantItems {
		if items[i] != w {
			t.Errorf("items[%d] = %q, want %q", i, items[i], w)
		}
	}

	stores, err := c.Stores(context.Background())
	if err != nil {
		t.Fatalf("Stores: %v", err)
	}
	if len(stores) != 2 || stores[0] != "CA_1" || stores[1] != "TX_2" {
		t.Errorf("stores = %v", stores)
	}
}

func TestItems_NotAnArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":["x"]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Items(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestPredict_RequestBody(t *testing.T) {
	var (
		mu     sync.Mutex
		calls  int
		body   []byte
		ctype  string
		reqID  string
		method string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		calls++
		method = r.Method
		body, _ = io.ReadAll(r.Body)
		ctype = r.Header.Get("Content-Type")
		reqID = r.Header.Get(RequestIDHeader)
		mu.Unlock()
		w.Write([]byte(`{"item_id":"HOBBIES_1_001","date":"2024-01-01","prediction":0.4321,"status":"success"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Predict(context.Background(), Request{
		ItemID:  "HOBBIES_1_001",
		StoreID: "CA_1",
		Date:    "2024-01-01",
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if calls != 1 {
		t.Fatalf("server saw %d calls, want 1", calls)
	}
	if method != http.MethodPost {
		t.Errorf("method = %s, want POST", method)
	}
	want := `{"item_id":"HOBBIES_1_001","store_id":"CA_1","date":"2024-01-01"}`
	if string(body) != want {
		t.Errorf("body = %s, want %s", body, want)
	}
	if ctype != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ctype)
	}
	if reqID == "" {
		t.Error("missing request id header")
	}
	if resp.Prediction != 0.4321 {
		t.Errorf("Prediction = %v, want 0.4321", resp.Prediction)
	}
	if resp.Status != "success" || resp.ItemID != "HOBBIES_1_001" || resp.Date != "2024-01-01" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestPredict_ReusesContextRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
		w.Write([]byte(`{"prediction":0.5}`))
	}))
	defer srv.Close()

	ctx := WithRequestID(context.Background(), "req-42")
	if _, err := New(srv.URL).Predict(ctx, Request{ItemID: "a", StoreID: "b", Date: "2024-01-01"}); err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != "req-42" {
		t.Errorf("request id = %q, want req-42", got)
	}
}

func TestPredict_ZeroProbability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prediction":0}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Predict(context.Background(), Request{ItemID: "a", StoreID: "b", Date: "2024-01-01"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if resp.Prediction != 0 {
		t.Errorf("Prediction = %v, want 0", resp.Prediction)
	}
}

func TestPredict_MissingPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Predict(context.Background(), Request{})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestPredict_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Predict(context.Background(), Request{})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestPredict_APIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{
			name:       "fastapi detail string",
			status:     http.StatusNotFound,
			body:       `{"detail":"No hay datos históricos suficientes para generar features."}`,
			wantDetail: "No hay datos históricos suficientes para generar features.",
		},
		{
			name:       "fastapi validation list",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail":[{"loc":["body","date"],"msg":"field required"}]}`,
			wantDetail: `[{"loc":["body","date"],"msg":"field required"}]`,
		},
		{
			name:       "plain text",
			status:     http.StatusInternalServerError,
			body:       "Internal Server Error\n",
			wantDetail: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Predict(context.Background(), Request{ItemID: "a", StoreID: "b", Date: "2024-01-01"})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", apiErr.Detail, tt.wantDetail)
			}
		})
	}
}

func TestPredict_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL).Predict(context.Background(), Request{ItemID: "a", StoreID: "b", Date: "2024-01-01"})
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("connection failure reported as APIError: %v", err)
	}
}

func TestRequest_JSONKeys(t *testing.T) {
	b, err := json.Marshal(Request{ItemID: "i", StoreID: "s", Date: "d"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if len(m) != 3 {
		t.Errorf("request has %d keys, want 3: %s", len(m), b)
	}
	for _, k := range []string{"item_id", "store_id", "date"} {
		if _, ok := m[k]; !ok {
			t.Errorf("request missing key %q: %s", k, b)
		}
	}
}

func TestCheckReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"online","project":"M5-Forecasting"}`))
	}))
	defer srv.Close()

	var out strings.Builder
	if err := CheckReady(context.Background(), New(srv.URL), &out); err != nil {
		t.Fatalf("CheckReady: %v", err)
	}
	if !strings.Contains(out.String(), "online (M5-Forecasting)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestCheckReady_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	var out strings.Builder
	if err := CheckReady(context.Background(), New(srv.URL), &out); err == nil {
		t.Fatal("expected error for unreachable service")
	}
	if !strings.Contains(out.String(), "unreachable") {
		t.Errorf("output = %q", out.String())
	}
}

func TestCheckReady_NotOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"loading"}`))
	}))
	defer srv.Close()

	var out strings.Builder
	if err := CheckReady(context.Background(), New(srv.URL), &out); err == nil {
		t.Fatal("expected error for non-online status")
	}
}
