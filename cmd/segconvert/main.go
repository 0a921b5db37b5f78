// Command segconvert upgrades legacy segmentation containers to the
// complete container shape, in bulk.
//
// Usage:
//
//	segconvert [-dry-run] [-backup] <directory>
//
// The directory is scanned recursively for container files; each one is
// classified and, unless -dry-run is given, rewritten in place. Per-file
// failures are reported and do not stop the run.
package main

import (
	"flag"
	"fmt"
	"os"

	"cell-annotator/internal/migrate"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	backup := flag.Bool("backup", false, "write a .backup copy before rewriting each file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: segconvert [-dry-run] [-backup] <directory>")
		os.Exit(1)
	}
	root := flag.Arg(0)

	if *dryRun {
		fmt.Println("Dry run: no files will be modified")
	}

	opts := migrate.Options{DryRun: *dryRun, Backup: *backup}
	rep, err := migrate.Run(root, opts, func(i, n int, res migrate.Result) {
		switch res.Status {
		case migrate.StatusConverted:
			fmt.Printf("[%d/%d] %s: converted (%d instances)\n",
				i+1, n, res.Path, res.Instances)
		case migrate.StatusAlreadyComplete:
			fmt.Printf("[%d/%d] %s: already complete\n", i+1, n, res.Path)
		case migrate.StatusNoSourceImage:
			fmt.Printf("[%d/%d] %s: skipped, no source image\n", i+1, n, res.Path)
		case migrate.StatusUnknownFormat:
			fmt.Printf("[%d/%d] %s: skipped, unknown format\n", i+1, n, res.Path)
		default:
			fmt.Printf("[%d/%d] %s: error: %s\n", i+1, n, res.Path, res.Message)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "segconvert: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Processed %d segmentation file(s) under %s\n", len(rep.Results), root)
	fmt.Println("Summary:")
	fmt.Printf("  Converted:        %d\n", rep.Converted)
	fmt.Printf("  Already complete: %d\n", rep.AlreadyComplete)
	fmt.Printf("  No source image:  %d\n", rep.NoSourceImage)
	fmt.Printf("  Unknown format:   %d\n", rep.UnknownFormat)
	fmt.Printf("  Errors:           %d\n", rep.Errors)
}
