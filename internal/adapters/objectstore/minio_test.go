package objectstore

import (
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"

	"onboardhub/internal/domain"
)

func TestMapErr(t *testing.T) {
	cases := []struct {
		in       error
		notFound bool
	}{
		{minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, true},
		{minio.ErrorResponse{Code: "NoSuchBucket"}, true},
		{minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, false},
		{errors.New("dial tcp: refused"), false},
	}
	for _, c := range cases {
		if got := errors.Is(mapErr(c.in), domain.ErrNotFound); got != c.notFound {
			t.Errorf("mapErr(%v) not-found = %v, want %v", c.in, got, c.notFound)
		}
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := New(Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}); err != nil {
		t.Fatal(err)
	}
}
