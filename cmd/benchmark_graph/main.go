package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/hue/reactive"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

func main() {
	log.Print("Starting graph benchmark, please wait...")
	defer log.Print("Finished graph benchmark")

	// Every write cascades eagerly, so a node can run once per path from the
	// written source. Keep nSources^layers small.
	perfTestCfgs := []benchmarkTestConfig{
		{
			name:           "simple component",
			width:          10,
			totalLayers:    5,
			staticFraction: 1,
			nSources:       2,
			iterations:     10000,
		},
		{
			name:           "dynamic component",
			width:          10,
			totalLayers:    6,
			staticFraction: 0.75,
			nSources:       3,
			iterations:     2000,
		},
		{
			name:           "large web app",
			width:          1000,
			totalLayers:    4,
			staticFraction: 0.95,
			nSources:       4,
			iterations:     500,
		},
		{
			name:           "deep",
			width:          5,
			totalLayers:    50,
			staticFraction: 1,
			nSources:       1,
			iterations:     500,
		},
	}

	type results struct {
		sum      int
		count    int64
		duration time.Duration
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"framework", "size", "nSources", "static%",
		"nTimes", "test", "time", "runs", "updateRate", "sum", "title",
	})

	testRepeats := 5
	for _, cfg := range perfTestCfgs {
		log.Printf("Running '%s' config", cfg.name)

		best := &results{duration: time.Hour}
		for i := 0; i < testRepeats; i++ {
			counter := new(int64)
			graph := benchmarkMakeGraph(cfg, counter)

			start := time.Now()
			sum := benchmarkRunGraph(graph, cfg.iterations)
			duration := time.Since(start)

			if duration < best.duration {
				best.duration = duration
				best.sum = sum
				best.count = *counter
			}
		}

		makeTitle := func() string {
			sb := strings.Builder{}
			sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
			if cfg.staticFraction < 1 {
				sb.WriteString(" dynamic")
			}
			return sb.String()
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))

		table.Append([]string{
			"hue",
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(best.count),
			humanize.Comma(int64(updateRate)),
			humanize.Comma(int64(best.sum)),
			makeTitle(),
		})
	}
	table.Render()
}

type benchmarkTestConfig struct {
	name           string  // friendly name for the test, should be unique
	width          int     // width of dependency graph to construct
	totalLayers    int     // depth of dependency graph to construct
	staticFraction float64 // fraction of nodes that always read all their sources
	nSources       int     // number of sources each node reads
	iterations     int64   // number of source writes
}

type benchmarkGraph struct {
	sources []*reactive.Object
	leaves  []*reactive.Object
}

func node(v int) *reactive.Object {
	obj, _ := reactive.Observe(map[string]any{"v": v})
	return obj
}

func benchmarkMakeGraph(cfg benchmarkTestConfig, counter *int64) *benchmarkGraph {
	random := rand.New(rand.NewSource(0))

	sources := make([]*reactive.Object, cfg.width)
	for i := range sources {
		sources[i] = node(i)
	}

	prevRow := sources
	for l := 1; l < cfg.totalLayers; l++ {
		row := make([]*reactive.Object, len(prevRow))
		for myDex := range prevRow {
			mySources := make([]*reactive.Object, 0, cfg.nSources)
			for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
				mySources = append(mySources, prevRow[(myDex+sourceDex)%len(prevRow)])
			}
			row[myDex] = makeNode(mySources, random.Float64() < cfg.staticFraction, counter)
		}
		prevRow = row
	}

	return &benchmarkGraph{sources: sources, leaves: prevRow}
}

// makeNode creates an object whose "v" follows the sum of its sources. A
// dynamic node skips one source depending on the parity of the first.
func makeNode(sources []*reactive.Object, static bool, counter *int64) *reactive.Object {
	out := node(0)

	var getter reactive.Getter
	if static {
		getter = func(any) any {
			*counter++
			sum := 0
			for _, s := range sources {
				sum += s.Get("v").(int)
			}
			return sum
		}
	} else {
		first, tail := sources[0], sources[1:]
		getter = func(any) any {
			*counter++
			sum := first.Get("v").(int)
			if len(tail) == 0 {
				return sum
			}
			shouldDrop := sum&0x1 > 0
			dropDex := sum % len(tail)
			for i, s := range tail {
				if shouldDrop && i == dropDex {
					continue
				}
				sum += s.Get("v").(int)
			}
			return sum
		}
	}

	w, err := reactive.NewWatcher(out, getter, func(ctx any, value, _ any) {
		ctx.(*reactive.Object).Set("v", value)
	})
	if err != nil {
		log.Panic(err)
	}
	out.Set("v", w.Value())
	return out
}

// benchmarkRunGraph writes one source per iteration and returns the sum of the
// leaves afterwards.
func benchmarkRunGraph(graph *benchmarkGraph, iterations int64) int {
	for i := 0; i < int(iterations); i++ {
		sourceDex := i % len(graph.sources)
		graph.sources[sourceDex].Set("v", i+sourceDex)
	}

	sum := 0
	for _, leaf := range graph.leaves {
		sum += leaf.Peek("v").(int)
	}
	return sum
}
