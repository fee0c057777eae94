package fx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSourceFetch(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   float64
		ok     bool
	}{
		{"valid payload", http.StatusOK, `{"promedio": 36.47}`, 36.47, true},
		{"extra fields ignored", http.StatusOK, `{"fuente":"bcv","promedio":40.1,"fecha":"2024-03-01"}`, 40.1, true},
		{"missing field", http.StatusOK, `{"media": 36.47}`, 0, false},
		{"non numeric", http.StatusOK, `{"promedio": "36,47"}`, 0, false},
		{"zero rate", http.StatusOK, `{"promedio": 0}`, 0, false},
		{"negative rate", http.StatusOK, `{"promedio": -2}`, 0, false},
		{"not json", http.StatusOK, `<html>mantenimiento</html>`, 0, false},
		{"server error", http.StatusInternalServerError, `{"promedio": 36.47}`, 0, false},
		{"not found", http.StatusNotFound, ``, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			src := NewSource(srv.URL, 2*time.Second)
			got, err := src.Fetch(context.Background())
			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tc.want {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
				return
			}
			if !errors.Is(err, ErrFetchFailed) {
				t.Fatalf("got %v, want ErrFetchFailed", err)
			}
		})
	}
}

func TestSourceFetchUnreachable(t *testing.T) {
	src := NewSource("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := src.Fetch(context.Background()); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("got %v, want ErrFetchFailed", err)
	}
}
