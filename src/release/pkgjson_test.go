package release

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPackageVersion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{name: "version", content: `{"name":"snhy","version":"1.4.0"}`, want: "1.4.0"},
		{name: "missing version", content: `{"name":"snhy"}`, wantErr: ErrNoVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, PackageFile), []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			got, err := PackageVersion(dir)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PackageVersion() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("PackageVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPackageVersion_Errors(t *testing.T) {
	if _, err := PackageVersion(t.TempDir()); err == nil {
		t.Error("expected error for missing package.json")
	}

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, PackageFile), []byte("{"), 0o644)
	if _, err := PackageVersion(dir); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
