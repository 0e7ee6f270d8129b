package domain

import (
	"errors"
	"testing"
)

func TestPackageByID(t *testing.T) {
	tests := []struct {
		id          string
		amountCents int64
		credits     int64
	}{
		{"entrepreneur", 200, 200},
		{"startup", 600, 800},
		{"networking", 1500, 1700},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			pkg, err := PackageByID(tt.id)
			if err != nil {
				t.Fatalf("PackageByID(%q): %v", tt.id, err)
			}
			if pkg.AmountCents != tt.amountCents || pkg.Credits != tt.credits {
				t.Fatalf("package = %+v", pkg)
			}
		})
	}
}

func TestPackageByIDClosedCatalog(t *testing.T) {
	for _, id := range []string{"", "free", "STARTUP", "startup "} {
		if _, err := PackageByID(id); !errors.Is(err, ErrInvalidPackage) {
			t.Fatalf("PackageByID(%q) err = %v, want ErrInvalidPackage", id, err)
		}
	}
}

func TestInsufficientCreditsErrorIs(t *testing.T) {
	err := &InsufficientCreditsError{Required: 30, Available: 5}
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatal("InsufficientCreditsError does not match the sentinel")
	}
}

func TestGalleryItemFrom(t *testing.T) {
	locked := Generation{ID: "a", OriginalImage: "orig", PreviewImage: "prev"}
	if item := GalleryItemFrom(locked); item.Image != "prev" || item.Unlocked {
		t.Fatalf("locked item = %+v", item)
	}
	open := Generation{ID: "b", OriginalImage: "orig", PreviewImage: "prev", Unlocked: true}
	if item := GalleryItemFrom(open); item.Image != "orig" || !item.Unlocked {
		t.Fatalf("unlocked item = %+v", item)
	}
}
