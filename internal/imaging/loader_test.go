package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createInMemoryImage returns an RGBA image filled with c.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writePNG encodes img into dir/name and returns the path.
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.images == nil {
		t.Fatal("NewImageCache did not initialize images map")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := writePNG(t, t.TempDir(), "red.png", createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255}))

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x100", bounds.Dx(), bounds.Dy())
	}

	// Second load should return cached image
	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache()
	_, err := cache.Load("/nonexistent/path/to/image.png")
	if err == nil {
		t.Error("Load should fail for non-existent file")
	}
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	cache := NewImageCache()
	path := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := cache.Load(path)
	if err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestImageCache_Clear(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", createInMemoryImage(10, 10, color.RGBA{0, 255, 0, 255}))
	b := writePNG(t, dir, "b.png", createInMemoryImage(10, 10, color.RGBA{0, 0, 255, 255}))

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	if cache.Len() != 2 {
		t.Errorf("got %d cached images, want 2", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := writePNG(t, t.TempDir(), "gray.png", createInMemoryImage(50, 50, color.RGBA{128, 128, 128, 255}))

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestListSources(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "b.png", createInMemoryImage(4, 4, color.Black))
	writePNG(t, dir, "a.PNG", createInMemoryImage(4, 4, color.Black))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	set, err := ListSources(dir, []string{".png"}, nil)
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}

	want := []string{"a.PNG", "b.png"}
	if set.Len() != len(want) {
		t.Fatalf("Len: got %d (%v), want %d", set.Len(), set.Names, len(want))
	}
	for i, name := range want {
		if set.Names[i] != name {
			t.Errorf("Names[%d]: got %s, want %s", i, set.Names[i], name)
		}
	}

	all, err := ListSources(dir, nil, nil)
	if err != nil {
		t.Fatalf("ListSources without filter failed: %v", err)
	}
	if all.Len() != 3 {
		t.Errorf("unfiltered Len: got %d, want 3", all.Len())
	}
}

func TestListSources_Empty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ListSources(dir, []string{".png"}, nil)
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("expected ErrEmptySource, got %v", err)
	}

	_, err = ListSources(filepath.Join(dir, "missing"), nil, nil)
	if err == nil {
		t.Error("ListSources should fail for a missing directory")
	}
}

func TestSourceSet_Load(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "obj.png", createInMemoryImage(8, 6, color.NRGBA{10, 20, 30, 128}))

	cache := NewImageCache()
	set, err := ListSources(dir, []string{".png"}, cache)
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}

	nrgba, err := set.LoadNRGBA(0)
	if err != nil {
		t.Fatalf("LoadNRGBA failed: %v", err)
	}
	if nrgba.Bounds() != image.Rect(0, 0, 8, 6) {
		t.Errorf("bounds: got %v, want 8x6 at origin", nrgba.Bounds())
	}
	if cache.Len() != 1 {
		t.Errorf("cache Len: got %d, want 1", cache.Len())
	}

	// Modifying the private copy must not leak into the cache.
	nrgba.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	again, err := set.LoadNRGBA(0)
	if err != nil {
		t.Fatalf("LoadNRGBA failed: %v", err)
	}
	if again.NRGBAAt(0, 0).R == 255 {
		t.Error("LoadNRGBA returned a shared image")
	}

	if _, err := set.Load(5); err == nil {
		t.Error("Load should fail for an out-of-range index")
	}
}
