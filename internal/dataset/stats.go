package dataset

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// splitImageExts are the images counted when looking for unlabeled files.
var splitImageExts = []string{".jpg", ".jpeg", ".png", ".bmp"}

// ClassNames maps class ids to names. It decodes from either a YAML mapping
// ({0: a, 1: b}) or a sequence ([a, b]).
type ClassNames map[int]string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ClassNames) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		names := make(ClassNames, len(list))
		for i, n := range list {
			names[i] = n
		}
		*c = names
	case yaml.MappingNode:
		var m map[int]string
		if err := node.Decode(&m); err != nil {
			return err
		}
		*c = m
	default:
		return fmt.Errorf("names must be a list or a mapping, line %d", node.Line)
	}
	return nil
}

// Name returns the name of class id, or the id itself when it is unknown.
func (c ClassNames) Name(id int) string {
	if n, ok := c[id]; ok {
		return n
	}
	return strconv.Itoa(id)
}

// DataFile is the data.yaml descriptor of a dataset.
type DataFile struct {
	Path  string     `yaml:"path"`
	Train string     `yaml:"train"`
	Val   string     `yaml:"val"`
	Test  string     `yaml:"test,omitempty"`
	Names ClassNames `yaml:"names"`

	// dir is the directory the file was loaded from.
	dir string
}

// NewDataFile describes a prepared dataset rooted at root.
func NewDataFile(root string, classes []string) *DataFile {
	names := make(ClassNames, len(classes))
	for i, c := range classes {
		names[i] = c
	}
	return &DataFile{
		Path:  root,
		Train: "train/images",
		Val:   "val/images",
		Names: names,
	}
}

// LoadDataFile parses a data.yaml file.
func LoadDataFile(file string) (*DataFile, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var d DataFile
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse data file %s: %w", file, err)
	}
	d.dir = filepath.Dir(file)
	return &d, nil
}

// Root is the directory split paths are resolved against: the directory of
// the loaded data.yaml, so a moved dataset still resolves, or Path otherwise.
func (d *DataFile) Root() string {
	if d.dir != "" {
		return d.dir
	}
	return d.Path
}

// Stat summarizes a series of values.
type Stat struct {
	Mean float64
	Min  float64
	Max  float64

	n   int
	sum float64
}

func (s *Stat) add(v float64) {
	if s.n == 0 {
		s.Min, s.Max = v, v
	}
	s.Min = math.Min(s.Min, v)
	s.Max = math.Max(s.Max, v)
	s.n++
	s.sum += v
	s.Mean = s.sum / float64(s.n)
}

// ClassStats is the box geometry of one class in one split. Sizes are
// normalized to the image dimensions.
type ClassStats struct {
	ID     int
	Name   string
	Count  int
	Width  Stat
	Height Stat
	Area   Stat
}

// SplitStats summarizes one split.
type SplitStats struct {
	Name       string
	Images     int
	LabelFiles int
	Unlabeled  int // images with a missing or empty label file
	Malformed  int // label lines skipped
	Instances  int
	Classes    []ClassStats // ordered by class id
}

// Report is the result of Analyze.
type Report struct {
	Splits []SplitStats
}

// Instances returns the number of boxes across all splits.
func (r *Report) Instances() int {
	total := 0
	for _, s := range r.Splits {
		total += s.Instances
	}
	return total
}

// Analyze reads the label files of every split named in d. Labels live next
// to the images, in the directory obtained by replacing "images" with
// "labels" in the split path. A split whose directories are missing is
// reported empty.
func Analyze(ctx context.Context, d *DataFile) (*Report, error) {
	report := &Report{}

	splits := []struct{ name, dir string }{
		{"train", d.Train},
		{"val", d.Val},
		{"test", d.Test},
	}
	for _, sp := range splits {
		if sp.dir == "" {
			continue
		}
		stats, err := analyzeSplit(ctx, d, sp.name, sp.dir)
		if err != nil {
			return nil, err
		}
		report.Splits = append(report.Splits, *stats)
	}

	return report, nil
}

func analyzeSplit(ctx context.Context, d *DataFile, name, imagesRel string) (*SplitStats, error) {
	imagesDir := filepath.Join(d.Root(), imagesRel)
	labelsDir := filepath.Join(d.Root(), strings.ReplaceAll(imagesRel, "images", "labels"))

	stats := &SplitStats{Name: name}
	classes := map[int]*ClassStats{}
	boxes := map[string]int{} // lines per label stem

	labels, err := listFiles(labelsDir, []string{labelExt})
	if err != nil {
		return nil, err
	}
	stats.LabelFiles = len(labels)

	for _, file := range labels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := readLabelFile(filepath.Join(labelsDir, file), d.Names, classes, stats)
		if err != nil {
			return nil, err
		}
		boxes[strings.TrimSuffix(file, filepath.Ext(file))] = n
	}

	images, err := listFiles(imagesDir, splitImageExts)
	if err != nil {
		return nil, err
	}
	stats.Images = len(images)
	for _, img := range images {
		if boxes[strings.TrimSuffix(img, filepath.Ext(img))] == 0 {
			stats.Unlabeled++
		}
	}

	for _, cs := range classes {
		stats.Classes = append(stats.Classes, *cs)
	}
	sort.Slice(stats.Classes, func(i, j int) bool { return stats.Classes[i].ID < stats.Classes[j].ID })

	return stats, nil
}

// readLabelFile folds the boxes of one label file into classes and returns
// the number of non-blank lines.
func readLabelFile(file string, names ClassNames, classes map[int]*ClassStats, stats *SplitStats) (int, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines++

		id, w, h, ok := parseLabelLine(line)
		if !ok {
			stats.Malformed++
			continue
		}

		cs, found := classes[id]
		if !found {
			cs = &ClassStats{ID: id, Name: names.Name(id)}
			classes[id] = cs
		}
		cs.Count++
		cs.Width.add(w)
		cs.Height.add(h)
		cs.Area.add(w * h)
		stats.Instances++
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return lines, nil
}

// parseLabelLine parses "class cx cy w h". The class id may be written as an
// integral float.
func parseLabelLine(line string) (id int, w, h float64, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return 0, 0, 0, false
	}

	vals := make([]float64, 5)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) {
			return 0, 0, 0, false
		}
		vals[i] = v
	}

	if vals[0] < 0 || vals[0] != math.Trunc(vals[0]) {
		return 0, 0, 0, false
	}
	return int(vals[0]), vals[3], vals[4], true
}

// listFiles returns the sorted names of regular files in dir with one of
// exts. A missing directory yields no files.
func listFiles(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
