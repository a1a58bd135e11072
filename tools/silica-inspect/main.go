// seehuhn.de/go/silica - a library for reading Procreate files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Silica-inspect shows the contents of Procreate files and exports their
// images to standard formats.
package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"seehuhn.de/go/silica"
	"seehuhn.de/go/silica/render"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var verbose bool

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})

	root := &cobra.Command{
		Use:          "silica-inspect",
		Short:        "Inspect Procreate files",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose logging")

	root.AddCommand(infoCmd(logger))
	root.AddCommand(layersCmd(logger))
	root.AddCommand(entriesCmd())
	root.AddCommand(exportCmd(logger))

	return root.ExecuteContext(context.Background())
}

func infoCmd(logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "info file.procreate",
		Short: "Show document metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := silica.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.ArchiveErr(); err != nil {
				logger.Warn("metadata degraded", "err", err)
			}

			doc := r.Document()
			fmt.Printf("file:       %s (%s)\n",
				filepath.Base(args[0]), fileSize(args[0]))
			fmt.Printf("canvas:     %d x %d px\n", doc.Width, doc.Height)
			fmt.Printf("resolution: %d dpi\n", doc.DPI)
			fmt.Printf("profile:    %s\n", doc.ColorProfile)
			fmt.Printf("timelapse:  %t\n", doc.Video)
			fmt.Printf("layers:     %d\n", len(doc.Layers))
			return nil
		},
	}
}

func layersCmd(logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "layers file.procreate",
		Short: "List the document's layers, back to front",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := silica.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.ArchiveErr(); err != nil {
				logger.Warn("metadata degraded", "err", err)
			}

			for i, layer := range r.Layers() {
				vis := "visible"
				if !layer.Visible {
					vis = "hidden"
				}
				fmt.Printf("%3d  %-24q %-8s opacity=%3.0f%%  blend=%s\n",
					i, layer.Name, vis, layer.Opacity*100,
					silica.BlendModeName(layer.BlendMode))
			}
			return nil
		},
	}
}

func entriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entries file.procreate",
		Short: "List the container's entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := silica.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			for _, name := range r.EntryNames() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func exportCmd(logger *log.Logger) *cobra.Command {
	var (
		layerIndex int
		useBest    bool
		maxSize    int
		quality    int
	)

	cmd := &cobra.Command{
		Use:   "export file.procreate out.png",
		Short: "Export the composite image, a single layer, or the embedded preview",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := silica.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.ArchiveErr(); err != nil {
				logger.Warn("metadata degraded", "err", err)
			}

			opt := &render.Options{
				Warn: func(entry string, err error) {
					logger.Debug("tile skipped", "entry", entry, "err", err)
				},
			}

			var img image.Image
			switch {
			case useBest:
				img = r.BestImage()
			case layerIndex >= 0:
				rendered, err := render.Layer(cmd.Context(), r, layerIndex, opt)
				if err != nil {
					return err
				}
				if rendered != nil {
					img = rendered
				}
			default:
				rendered, err := render.Composite(cmd.Context(), r, nil, opt)
				if err != nil {
					return err
				}
				if rendered != nil {
					img = rendered
				} else {
					logger.Info("no layer data, falling back to embedded preview")
					img = r.BestImage()
				}
			}
			if img == nil {
				return fmt.Errorf("%s: no image data available", args[0])
			}

			if maxSize > 0 {
				img = scaleDown(img, maxSize)
			}

			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer out.Close()

			switch strings.ToLower(filepath.Ext(args[1])) {
			case ".jpg", ".jpeg":
				err = r.ExportJPEG(out, img, quality)
			default:
				err = r.ExportPNG(out, img)
			}
			if err != nil {
				return err
			}
			return out.Close()
		},
	}
	cmd.Flags().IntVar(&layerIndex, "layer", -1,
		"export a single layer by index instead of the composite")
	cmd.Flags().BoolVar(&useBest, "preview", false,
		"export the embedded preview instead of compositing")
	cmd.Flags().IntVar(&maxSize, "max-size", 0,
		"scale the image down so that neither side exceeds this many pixels")
	cmd.Flags().IntVar(&quality, "quality", 95, "JPEG quality")
	return cmd
}

// scaleDown scales img so that neither side exceeds limit pixels.  Images
// already within the limit are returned unchanged.
func scaleDown(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}
	scale := float64(limit) / float64(max(w, h))
	dst := image.NewNRGBA(image.Rect(0, 0,
		max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))))
	draw.ApproxBiLinear.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}

func fileSize(name string) string {
	fi, err := os.Stat(name)
	if err != nil {
		return "unknown size"
	}
	size := float64(fi.Size())
	for _, unit := range []string{"B", "kB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}
