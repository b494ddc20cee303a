package service

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/technews/internal/adapter/memory"
	"github.com/Strob0t/technews/internal/fetchpool"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3}

func newImageServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestImageService_RelaysAndCaches(t *testing.T) {
	srv, hits := newImageServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != DefaultImageReferer {
			t.Errorf("unexpected referer %q", r.Header.Get("Referer"))
		}
		if !strings.Contains(r.Header.Get("User-Agent"), "Mozilla/5.0") {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		if !strings.HasPrefix(r.Header.Get("Accept"), "image/avif") {
			t.Errorf("unexpected accept %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})

	svc := NewImageService(memory.New(), fetchpool.New(2), ImageConfig{})
	ctx := context.Background()

	for i := range 2 {
		img := svc.Fetch(ctx, srv.URL+"/pic.png")
		if img.Placeholder {
			t.Fatalf("call %d: unexpected placeholder", i)
		}
		if img.ContentType != "image/png" || !bytes.Equal(img.Data, pngBytes) {
			t.Fatalf("call %d: unexpected image %q %v", i, img.ContentType, img.Data)
		}
		if img.CacheControl != "public, max-age=86400" {
			t.Errorf("call %d: unexpected cache control %q", i, img.CacheControl)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream fetch, got %d", hits.Load())
	}
}

func TestImageService_Placeholder(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"html instead of image", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		}},
		{"not found", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusNotFound)
		}},
		{"missing content type", func(w http.ResponseWriter, _ *http.Request) {
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte{})
		}},
		{"too large", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(make([]byte, 2048))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := newImageServer(t, tt.handler)
			svc := NewImageService(memory.New(), nil, ImageConfig{MaxBytes: 1024})

			img := svc.Fetch(context.Background(), srv.URL+"/x")
			assertPlaceholder(t, img)

			// Failures are not cached.
			svc.Fetch(context.Background(), srv.URL+"/x")
			if hits.Load() != 2 {
				t.Errorf("expected failed fetch to be retried, hits=%d", hits.Load())
			}
		})
	}
}

func TestImageService_InvalidURL(t *testing.T) {
	svc := NewImageService(memory.New(), nil, ImageConfig{})
	for _, raw := range []string{"", "not a url", "ftp://example.com/a.png", "/relative.png", "https://" + strings.Repeat("a", 2000)} {
		assertPlaceholder(t, svc.Fetch(context.Background(), raw))
	}
}

func TestImageService_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newImageServer(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	svc := NewImageService(memory.New(), nil, ImageConfig{Timeout: 50 * time.Millisecond})
	assertPlaceholder(t, svc.Fetch(context.Background(), srv.URL+"/slow.png"))
}

func TestImageCacheEncoding(t *testing.T) {
	img := Image{ContentType: "image/webp", Data: []byte("RIFFxxxxWEBP")}
	got, ok := decodeImage(encodeImage(img))
	if !ok || got.ContentType != img.ContentType || !bytes.Equal(got.Data, img.Data) {
		t.Fatalf("decode(encode) = %+v, %v", got, ok)
	}
	if _, ok := decodeImage([]byte{0, 9, 'x'}); ok {
		t.Error("truncated entry should not decode")
	}
}

func assertPlaceholder(t *testing.T, img Image) {
	t.Helper()
	if !img.Placeholder {
		t.Fatalf("expected placeholder, got %q", img.ContentType)
	}
	if img.ContentType != "image/gif" || img.CacheControl != "public, max-age=3600" {
		t.Errorf("unexpected placeholder headers %q %q", img.ContentType, img.CacheControl)
	}
	if !bytes.HasPrefix(img.Data, []byte("GIF89a")) {
		t.Errorf("placeholder is not a GIF: %v", img.Data[:6])
	}
}
