package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreate(t *testing.T) {
	var gotAuth string
	var gotBody createPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predictions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pred-1","status":"starting"}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	pred, err := client.Create(context.Background(), CreateRequest{
		Model:        "test/model",
		Prompt:       "a headshot",
		InputImages:  []string{"data:image/jpeg;base64,abc"},
		OutputFormat: "jpg",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pred.ID != "pred-1" || pred.Status != StatusStarting {
		t.Fatalf("prediction = %+v", pred)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotBody.Input.Prompt != "a headshot" || len(gotBody.Input.ImageInput) != 1 {
		t.Fatalf("payload = %+v", gotBody)
	}
}

func TestCreateValidation(t *testing.T) {
	client := NewClient(Options{BaseURL: "http://unused.test", Token: "tok"})
	if _, err := client.Create(context.Background(), CreateRequest{Model: "m"}); err == nil {
		t.Fatal("empty prompt accepted")
	}
	noToken := NewClient(Options{BaseURL: "http://unused.test"})
	if _, err := noToken.Create(context.Background(), CreateRequest{Model: "m", Prompt: "p"}); err == nil {
		t.Fatal("missing token accepted")
	}
}

func TestGetOutputShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"single url", `{"id":"p","status":"succeeded","output":"https://out/1.jpg"}`, []string{"https://out/1.jpg"}},
		{"url list", `{"id":"p","status":"succeeded","output":["https://out/1.jpg","https://out/2.jpg"]}`, []string{"https://out/1.jpg", "https://out/2.jpg"}},
		{"no output yet", `{"id":"p","status":"processing"}`, nil},
		{"null output", `{"id":"p","status":"processing","output":null}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasPrefix(r.URL.Path, "/predictions/") {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
			pred, err := client.Get(context.Background(), "p")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if len(pred.Output) != len(tt.want) {
				t.Fatalf("output = %v, want %v", pred.Output, tt.want)
			}
			for i := range tt.want {
				if pred.Output[i] != tt.want[i] {
					t.Fatalf("output[%d] = %q, want %q", i, pred.Output[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"invalid version"}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	_, err := client.Get(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "invalid version") {
		t.Fatalf("err = %v", err)
	}
}

func TestFailedPredictionCarriesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p","status":"failed","error":"NSFW content detected"}`))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	pred, err := client.Get(context.Background(), "p")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pred.Status != StatusFailed || pred.Error != "NSFW content detected" {
		t.Fatalf("prediction = %+v", pred)
	}
	if !pred.Status.Terminal() {
		t.Fatal("failed is not terminal")
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Token: "tok"})
	data, err := client.Download(context.Background(), server.URL+"/out.jpg")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("data = %q", data)
	}
	if _, err := client.Download(context.Background(), server.URL+"/missing"); err == nil {
		t.Fatal("404 download accepted")
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusSucceeded, StatusFailed, StatusCanceled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusStarting, StatusProcessing, Status("")} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
