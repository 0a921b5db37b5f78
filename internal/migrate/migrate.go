// Package migrate upgrades legacy segmentation containers in bulk. Older
// annotation sessions wrote bare mask arrays or partial documents; this
// package rewrites them into the complete container shape, one file at a
// time, so a single bad file never aborts a directory sweep.
package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"cell-annotator/internal/container"
	"cell-annotator/internal/imaging"
	"cell-annotator/internal/mask"
)

// Status classifies the outcome of migrating one container file.
type Status int

const (
	// StatusConverted means the file was (or, under dry-run, would be)
	// rewritten in the complete shape.
	StatusConverted Status = iota
	// StatusAlreadyComplete means the file needed no work.
	StatusAlreadyComplete
	// StatusNoSourceImage means no sibling image exists to resolve the
	// filename key, so the file was left untouched.
	StatusNoSourceImage
	// StatusUnknownFormat means the file is not a recognizable container.
	StatusUnknownFormat
	// StatusError covers I/O and decode failures.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusAlreadyComplete:
		return "already complete"
	case StatusNoSourceImage:
		return "no source image"
	case StatusUnknownFormat:
		return "unknown format"
	default:
		return "error"
	}
}

// Result records the outcome for one container file.
type Result struct {
	Path      string
	Status    Status
	Instances int
	Message   string
}

// Options controls a migration run.
type Options struct {
	// DryRun reports what would change without writing anything.
	DryRun bool
	// Backup writes a .backup copy of the original before rewriting.
	Backup bool
}

// Report aggregates the results of a run.
type Report struct {
	Results         []Result
	Converted       int
	AlreadyComplete int
	NoSourceImage   int
	UnknownFormat   int
	Errors          int
}

func (rep *Report) add(res Result) {
	rep.Results = append(rep.Results, res)
	switch res.Status {
	case StatusConverted:
		rep.Converted++
	case StatusAlreadyComplete:
		rep.AlreadyComplete++
	case StatusNoSourceImage:
		rep.NoSourceImage++
	case StatusUnknownFormat:
		rep.UnknownFormat++
	case StatusError:
		rep.Errors++
	}
}

// Scan walks root recursively and returns all container paths, sorted.
// Unreadable subtrees are skipped rather than failing the scan.
func Scan(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && container.IsContainerPath(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("migrate: scan %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// MigrateOne classifies and, unless dry-run, upgrades a single container.
func MigrateOne(path string, opts Options) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Status: StatusError, Message: err.Error()}
	}

	// Undecodable data is an error; UnknownFormat is reserved for
	// well-formed files that just are not containers.
	shape, rows, err := container.DetectShape(data)
	if err != nil {
		return Result{Path: path, Status: StatusError, Message: err.Error()}
	}
	if shape == container.ShapeComplete {
		r, err := mask.RasterFromRows(rows)
		if err != nil {
			return Result{Path: path, Status: StatusError, Message: err.Error()}
		}
		return Result{Path: path, Status: StatusAlreadyComplete, Instances: r.InstanceCount()}
	}
	if shape == container.ShapeUnknown {
		return Result{Path: path, Status: StatusUnknownFormat, Message: "no masks key"}
	}

	r, err := mask.RasterFromRows(rows)
	if err != nil {
		return Result{Path: path, Status: StatusError, Message: err.Error()}
	}

	stem := container.ImageStem(path)
	imagePath := imaging.FindSiblingImage(filepath.Dir(path), stem)
	if imagePath == "" {
		return Result{Path: path, Status: StatusNoSourceImage, Instances: r.InstanceCount()}
	}

	if !opts.DryRun {
		if opts.Backup {
			if err := os.WriteFile(path+".backup", data, 0644); err != nil {
				return Result{Path: path, Status: StatusError, Message: fmt.Sprintf("backup: %v", err)}
			}
		}
		if err := container.Write(path, container.Build(r, imagePath)); err != nil {
			return Result{Path: path, Status: StatusError, Message: err.Error()}
		}
	}

	return Result{Path: path, Status: StatusConverted, Instances: r.InstanceCount()}
}

// Run scans root and migrates every container found, invoking progress
// (when non-nil) after each file. Per-file failures land in the report;
// only an unusable root returns an error.
func Run(root string, opts Options, progress func(index, total int, res Result)) (*Report, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	paths, err := Scan(root)
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	for i, path := range paths {
		res := MigrateOne(path, opts)
		rep.add(res)
		if progress != nil {
			progress(i, len(paths), res)
		}
	}
	return rep, nil
}
