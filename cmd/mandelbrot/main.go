// Command mandelbrot renders a Mandelbrot set image using a worker pool
// coordinated through an objectspace.Space: the main goroutine partitions
// the image into tiles, writes one unfinished task per tile, workers take
// tasks by key and write one Pixel value per computed point, and the main
// goroutine joins on the finished tasks before collecting every Pixel with
// a single TakeAll. Grounded on the upstream crate's mandelbrot example;
// PNG encoding itself stays entirely in this command, never in the core
// library.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edirooss/objectspace/pkg/objectspace"
)

type task struct {
	Finished bool `json:"finished"`
	RowStart int  `json:"row_start"`
	RowEnd   int  `json:"row_end"`
	ColStart int  `json:"col_start"`
	ColEnd   int  `json:"col_end"`
}

type pixel struct {
	Col       int `json:"col"`
	Row       int `json:"row"`
	IterCount int `json:"iter_count"`
}

const chunkSize = 128

func main() {
	workers := flag.Int("workers", 4, "number of concurrent render workers")
	dim := flag.Int("dim", 512, "image dimension in pixels (square)")
	maxIter := flag.Int("max-iter", 1000, "maximum iterations per point")
	out := flag.String("out", "mandelbrot.png", "output PNG path")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	space := objectspace.NewSpace(objectspace.WithLogger(log))
	if err := run(context.Background(), space, log, *dim, *maxIter, *workers, *out); err != nil {
		log.Fatal("mandelbrot: run failed", zap.Error(err))
	}
}

func run(ctx context.Context, space *objectspace.Space, log *zap.Logger, dim, maxIter, workerCount int, outPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		g.Go(func() error {
			renderWorker(gctx, space, dim, maxIter, log)
			return nil
		})
	}

	markers := []int{0}
	for m := chunkSize; m < dim; m += chunkSize {
		markers = append(markers, m)
	}
	markers = append(markers, dim)

	taskCount := 0
	for i := 0; i < len(markers)-1; i++ {
		for j := 0; j < len(markers)-1; j++ {
			t := task{Finished: false, RowStart: markers[i], RowEnd: markers[i+1], ColStart: markers[j], ColEnd: markers[j+1]}
			if err := objectspace.Write(space, t); err != nil {
				return err
			}
			taskCount++
		}
	}

	for i := 0; i < taskCount; i++ {
		if _, err := objectspace.TakeKey[task](ctx, space, "finished", true); err != nil {
			return err
		}
	}

	cancel()
	_ = g.Wait()

	pixels, err := objectspace.TakeAll[pixel](space)
	if err != nil {
		return err
	}

	img := image.NewGray(image.Rect(0, 0, dim, dim))
	for _, p := range pixels {
		brightness := uint8(0)
		if p.IterCount < maxIter {
			brightness = 255
		}
		img.SetGray(p.Col, p.Row, color.Gray{Y: brightness})
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	log.Info("mandelbrot: wrote image", zap.String("path", outPath), zap.Int("pixels", len(pixels)))
	return nil
}

func renderWorker(ctx context.Context, space *objectspace.Space, dim, maxIter int, log *zap.Logger) {
	for {
		t, err := objectspace.TakeKey[task](ctx, space, "finished", false)
		if err != nil {
			return
		}

		for row := t.RowStart; row < t.RowEnd; row++ {
			for col := t.ColStart; col < t.ColEnd; col++ {
				cRe := (float64(col) - float64(dim)/2.0) * 4.0 / float64(dim)
				cIm := (float64(row) - float64(dim)/2.0) * 4.0 / float64(dim)
				x, y := 0.0, 0.0
				iterCount := 0
				for x*x+y*y < 4.0 && iterCount < maxIter {
					xNew := x*x - y*y + cRe
					y = 2.0*x*y + cIm
					x = xNew
					iterCount++
				}
				if err := objectspace.Write(space, pixel{Col: col, Row: row, IterCount: iterCount}); err != nil {
					log.Error("mandelbrot: worker write failed", zap.Error(err))
					return
				}
			}
		}

		t.Finished = true
		if err := objectspace.Write(space, t); err != nil {
			log.Error("mandelbrot: worker write-back failed", zap.Error(err))
			return
		}
	}
}
