//go:build integration

package npm

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
)

func TestFetchManifests_Integration(t *testing.T) {
	client := NewClient(Config{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tests := []struct {
		name    string
		pkg     string
		wantErr bool
	}{
		{"express", "express", false},
		{"lodash", "lodash", false},
		{"nonexistent", "this-package-should-not-exist-12345", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reported, err := client.FetchReported(ctx, tt.pkg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FetchReported(%q) error = %v, wantErr %v", tt.pkg, err, tt.wantErr)
			}
			if tt.wantErr {
				if !apperrors.Is(err, apperrors.ErrCodePackageNotFound) {
					t.Errorf("error = %v, want PACKAGE_NOT_FOUND", err)
				}
				return
			}

			actual, err := client.FetchActual(ctx, tt.pkg, reported.Version)
			if err != nil {
				t.Fatalf("FetchActual(%q, %q) error: %v", tt.pkg, reported.Version, err)
			}
			if actual.Name != tt.pkg {
				t.Errorf("actual name = %q, want %q", actual.Name, tt.pkg)
			}
		})
	}
}
