// Cell Annotator is a microscopy annotation tool: draw cell outlines
// freehand over a source image and save instance masks in a segmentation
// container readable by downstream tooling.
package main

import (
	"log"
	"os"

	"cell-annotator/internal/app"
	"cell-annotator/internal/version"
	"cell-annotator/ui/mainwindow"
	"cell-annotator/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Cell Annotator %s", version.String())

	fyneApp := fyneapp.NewWithID("io.cellannotator.app")
	session := app.NewSession()
	preferences := prefs.Load()

	win := mainwindow.New(fyneApp, session, preferences)

	if len(os.Args) > 1 {
		win.OpenImage(os.Args[1])
	}

	win.ShowAndRun()
}
