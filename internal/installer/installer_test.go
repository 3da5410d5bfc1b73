package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/codyspate/tool-locker/internal/manifest"
)

func TestInstallDirectWritesExecutable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#!/bin/sh\necho hi\n"))
	}))
	defer server.Close()

	dir := t.TempDir()
	in := New(server.Client(), dir, nil)
	tool := manifest.Tool{Name: "mytool", Version: "1.0.0", Kind: manifest.Direct, Source: server.URL}

	if err := in.InstallTool(context.Background(), tool); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, "mytool"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0o111 == 0 {
		t.Error("expected executable bit set")
	}
}

func TestInstallDirectChecksumMismatchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	dir := t.TempDir()
	in := New(server.Client(), dir, nil)
	tool := manifest.Tool{Name: "mytool", Version: "1.0.0", Kind: manifest.Direct, Source: server.URL, SHA256: "deadbeef"}

	if err := in.InstallTool(context.Background(), tool); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

func TestInstallDirectNon2xxFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	in := New(server.Client(), dir, nil)
	tool := manifest.Tool{Name: "mytool", Version: "1.0.0", Kind: manifest.Direct, Source: server.URL}

	if err := in.InstallTool(context.Background(), tool); err == nil {
		t.Fatal("expected download-failed error")
	}
}

func buildTarGz(t *testing.T, entryName, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	if err := tw.WriteHeader(&tar.Header{Name: entryName, Mode: 0o755, Size: int64(len(content))}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	tw.Close()
	gw.Close()
	return buf.Bytes()
}

func TestInstallArchiveTarGzExtractsMatchingEntry(t *testing.T) {
	archive := buildTarGz(t, "linux-amd64/mytool", "binary-content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	dir := t.TempDir()
	in := New(server.Client(), dir, nil)
	tool := manifest.Tool{Name: "mytool", Version: "1.0.0", Kind: manifest.Archive, Source: server.URL + "/mytool.tar.gz"}

	if err := in.InstallTool(context.Background(), tool); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "mytool"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "binary-content" {
		t.Errorf("content = %q", data)
	}
}

func TestInstallArchiveNoMatchingEntryFails(t *testing.T) {
	archive := buildTarGz(t, "some/other/file", "x")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	dir := t.TempDir()
	in := New(server.Client(), dir, nil)
	tool := manifest.Tool{Name: "mytool", Version: "1.0.0", Kind: manifest.Archive, Source: server.URL + "/mytool.tar.gz"}

	if err := in.InstallTool(context.Background(), tool); err == nil {
		t.Fatal("expected missing-binary error")
	}
}

func buildZip(t *testing.T, entryName, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create(entryName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	return buf.Bytes()
}

func TestInstallArchiveZipExtractsMatchingEntry(t *testing.T) {
	archive := buildZip(t, "mytool.exe", "zip-content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	dir := t.TempDir()
	in := New(server.Client(), dir, nil)
	tool := manifest.Tool{Name: "mytool", Version: "1.0.0", Kind: manifest.Archive, Binary: "mytool.exe", Source: server.URL + "/mytool.zip"}

	if err := in.InstallTool(context.Background(), tool); err != nil {
		t.Fatal(err)
	}
}

func TestUnsupportedArchiveTypeFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("whatever"))
	}))
	defer server.Close()

	dir := t.TempDir()
	in := New(server.Client(), dir, nil)
	tool := manifest.Tool{Name: "mytool", Version: "1.0.0", Kind: manifest.Archive, Source: server.URL + "/mytool.rar"}

	if err := in.InstallTool(context.Background(), tool); err == nil {
		t.Fatal("expected unsupported-archive-type error")
	}
}

func TestSkipIfAlreadyInstalled(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "mytool")
	script := "#!/bin/sh\necho v1.2.3\n"
	if err := os.WriteFile(binPath, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	in := New(http.DefaultClient, dir, nil)
	tool := manifest.Tool{Name: "mytool", Version: "1.2.3", Kind: manifest.Direct, Source: "https://example.invalid/should-not-be-fetched"}

	if err := in.InstallTool(context.Background(), tool); err != nil {
		t.Fatal(err)
	}
}

func TestValidateSymlinkTargetRejectsAbsolute(t *testing.T) {
	if err := validateSymlinkTarget("/etc/passwd", "entry", "/tmp/install"); err == nil {
		t.Error("expected absolute symlink target to be rejected")
	}
}

func TestValidateSymlinkTargetRejectsEscape(t *testing.T) {
	if err := validateSymlinkTarget("../../etc/passwd", "subdir/entry", "/tmp/install"); err == nil {
		t.Error("expected escaping symlink target to be rejected")
	}
}

func TestIsPathWithinDirectory(t *testing.T) {
	if !isPathWithinDirectory("/tmp/install/bin/tool", "/tmp/install") {
		t.Error("expected nested path to be within base")
	}
	if isPathWithinDirectory("/tmp/other/tool", "/tmp/install") {
		t.Error("expected sibling path to be outside base")
	}
}
