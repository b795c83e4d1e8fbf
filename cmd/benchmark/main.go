package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/hue/reactive"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var cpuProfile = flag.String("cpuprofile", "", "write a CPU profile to this file")

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkPropagate(false)
	benchmarkPropagate(true)
}

var (
	ww    = []int{1, 10, 100, 1_000}
	hh    = []int{1, 10, 100, 1_000}
	iters = 100
)

func observe(v int) *reactive.Object {
	obj, _ := reactive.Observe(map[string]any{"v": v})
	return obj
}

// chain links h objects after src: each watcher reads "v" of the previous
// object and writes v+1 into the next one.
func chain(src *reactive.Object, h int) {
	prev := src
	for j := 0; j < h; j++ {
		next := observe(0)
		if _, err := reactive.NewWatcher(prev, "v", func(_ any, value, _ any) {
			next.Set("v", value.(int)+1)
		}); err != nil {
			log.Panic(err)
		}
		prev = next
	}

	if _, err := reactive.NewWatcher(prev, "v", nil); err != nil {
		log.Panic(err)
	}
}

func benchmarkPropagate(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("hue watchers")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			src := observe(1)
			for i := 0; i < w; i++ {
				chain(src, h)
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set("v", src.Peek("v").(int)+1)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
