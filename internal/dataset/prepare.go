package dataset

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTrainRatio is the share of images assigned to the train split.
const DefaultTrainRatio = 0.8

const (
	trainDataDir = "obj_train_data"
	classesFile  = "obj.names"
	dataFileName = "data.yaml"
	labelExt     = ".txt"
)

var (
	// ErrNoTrainData is returned when the archive has no obj_train_data directory.
	ErrNoTrainData = errors.New("obj_train_data directory not found in archive")

	// ErrNoClassNames is returned when the archive has no obj.names file.
	ErrNoClassNames = errors.New("obj.names not found in archive")
)

// imageExts are the image files picked up from an export.
var imageExts = []string{".jpg", ".jpeg", ".png"}

// PrepareOptions configures Prepare.
type PrepareOptions struct {
	// ZipPath is the CVAT YOLO 1.1 export.
	ZipPath string

	// OutputDir receives the split dataset and data.yaml.
	OutputDir string

	// TrainRatio is the train share in (0, 1]; zero means DefaultTrainRatio.
	TrainRatio float64

	// Seed drives the shuffle before splitting.
	Seed uint64
}

// PrepareResult reports what Prepare wrote.
type PrepareResult struct {
	Train    int
	Val      int
	Labels   int
	Classes  []string
	DataFile string
}

// Prepare reads a CVAT export without extracting it, shuffles its images,
// splits them into train and val, copies every image with its same-stem
// label (when one exists) and writes data.yaml.
func Prepare(ctx context.Context, opts PrepareOptions) (*PrepareResult, error) {
	ratio := opts.TrainRatio
	if ratio == 0 {
		ratio = DefaultTrainRatio
	}
	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("train ratio must be in (0, 1], got %g", ratio)
	}

	zr, err := zip.OpenReader(opts.ZipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	ex, err := scanExport(zr.File)
	if err != nil {
		return nil, err
	}

	classes, err := readClassNames(ex.names)
	if err != nil {
		return nil, err
	}

	for _, split := range []string{"train", "val"} {
		for _, sub := range []string{"images", "labels"} {
			if err := os.MkdirAll(filepath.Join(opts.OutputDir, split, sub), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create output directory: %w", err)
			}
		}
	}

	images := ex.images
	rng := rand.New(rand.NewPCG(opts.Seed, 0))
	rng.Shuffle(len(images), func(i, j int) { images[i], images[j] = images[j], images[i] })

	splitIdx := int(float64(len(images)) * ratio)
	result := &PrepareResult{Classes: classes}

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		split := "train"
		if i >= splitIdx {
			split = "val"
		}

		name := path.Base(img.Name)
		if err := extractFile(img, filepath.Join(opts.OutputDir, split, "images", name)); err != nil {
			return nil, err
		}

		stem := strings.TrimSuffix(name, path.Ext(name))
		if label, ok := ex.labels[stem]; ok {
			if err := extractFile(label, filepath.Join(opts.OutputDir, split, "labels", stem+labelExt)); err != nil {
				return nil, err
			}
			result.Labels++
		}

		if split == "train" {
			result.Train++
		} else {
			result.Val++
		}
	}

	root, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	result.DataFile = filepath.Join(opts.OutputDir, dataFileName)
	if err := WriteDataFile(result.DataFile, NewDataFile(root, classes)); err != nil {
		return nil, err
	}

	return result, nil
}

// export is the subset of a CVAT archive Prepare needs.
type export struct {
	images []*zip.File
	labels map[string]*zip.File // by stem
	names  *zip.File
}

// scanExport locates obj_train_data and obj.names. When several directories
// qualify, the lexically first one wins. Images are sorted by name so the
// seeded shuffle is reproducible.
func scanExport(files []*zip.File) (*export, error) {
	var trainDir string
	var names *zip.File

	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		dir := path.Dir(f.Name)
		if path.Base(dir) == trainDataDir && (trainDir == "" || dir < trainDir) {
			trainDir = dir
		}
		if path.Base(f.Name) == classesFile && (names == nil || f.Name < names.Name) {
			names = f
		}
	}

	if trainDir == "" {
		return nil, ErrNoTrainData
	}
	if names == nil {
		return nil, ErrNoClassNames
	}

	ex := &export{labels: make(map[string]*zip.File), names: names}
	for _, f := range files {
		if f.FileInfo().IsDir() || path.Dir(f.Name) != trainDir {
			continue
		}
		base := path.Base(f.Name)
		ext := strings.ToLower(path.Ext(base))
		switch {
		case ext == labelExt:
			ex.labels[strings.TrimSuffix(base, path.Ext(base))] = f
		case isImageExt(ext):
			ex.images = append(ex.images, f)
		}
	}

	sort.Slice(ex.images, func(i, j int) bool { return ex.images[i].Name < ex.images[j].Name })
	return ex, nil
}

func isImageExt(ext string) bool {
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// readClassNames returns the non-blank, trimmed lines of obj.names.
func readClassNames(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	var classes []string
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			classes = append(classes, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return classes, nil
}

func extractFile(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", f.Name, err)
	}
	return out.Close()
}

// WriteDataFile encodes d as YAML into file.
func WriteDataFile(file string, d *DataFile) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	return nil
}
