package storage

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bds-scraper/utils"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Soirée Électro !", "soiree-electro"},
		{"L'Œil du tigre", "l-il-du-tigre"},
		{"  Noël  à la Baie  ", "noel-a-la-baie"},
		{"***", "evenement"},
		{"", "evenement"},
	}

	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := strings.Repeat("abc ", 40)
	got := slugify(long)
	if len(got) > slugMaxLen {
		t.Errorf("len = %d, want <= %d", len(got), slugMaxLen)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("slug ends with hyphen: %q", got)
	}
}

func TestFilename(t *testing.T) {
	s := &ImageStore{now: func() time.Time { return time.UnixMilli(1700000000000) }}

	got := s.filename("https://venue.test/wp-content/uploads/affiche.png?w=300", "Concert d'été")
	if got != "concert-d-ete-1700000000000.png" {
		t.Errorf("filename = %q", got)
	}

	// No extension on the URL path defaults to .jpg.
	got = s.filename("https://venue.test/image", "Concert")
	if got != "concert-1700000000000.jpg" {
		t.Errorf("filename = %q", got)
	}
}

func TestDownloadStoresImage(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	s, err := NewImageStore(dir, time.Second, utils.NewLogger())
	if err != nil {
		t.Fatal(err)
	}

	rel := s.Download(srv.URL+"/affiche.jpg", "Mon Spectacle")
	if rel == "" {
		t.Fatal("Download returned empty path")
	}
	if !strings.HasPrefix(rel, publicImagePrefix+"/mon-spectacle-") {
		t.Errorf("relative path = %q", rel)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(rel)))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("stored bytes differ from served bytes")
	}
}

func TestDownloadFailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s, err := NewImageStore(t.TempDir(), time.Second, utils.NewLogger())
	if err != nil {
		t.Fatal(err)
	}

	if got := s.Download(srv.URL+"/absente.jpg", "Rien"); got != "" {
		t.Errorf("Download = %q, want empty on failure", got)
	}

	if got := s.Download("http://127.0.0.1:1/refused.jpg", "Rien"); got != "" {
		t.Errorf("Download = %q, want empty on connection failure", got)
	}
}
