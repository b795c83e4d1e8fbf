package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/delaneyj/hue/hue"
	"github.com/urfave/cli/v3"
)

const (
	dataKey     = "data"
	templateKey = "template"
	setKey      = "set"
	watchKey    = "watch"
	verboseKey  = "verbose"
)

func main() {
	cmd := &cli.Command{
		Name:  "hue",
		Usage: "Render a {{ }} template against a YAML or JSON data file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     dataKey,
				Usage:    "YAML or JSON file holding the data object",
				Required: true,
			},
			&cli.StringFlag{
				Name:     templateKey,
				Usage:    "HTML fragment with {{ path }} interpolations",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  setKey,
				Usage: "path=value writes applied in order, printing a frame after each change",
			},
			&cli.StringSliceFlag{
				Name:  watchKey,
				Usage: "paths to log whenever their value changes",
			},
			&cli.BoolFlag{
				Name:  verboseKey,
				Usage: "log reactive activity",
			},
		},
		Action: render,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func render(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	defer func() {
		log.Printf("rendered in %v", time.Since(start))
	}()

	data, err := loadData(cmd.String(dataKey))
	if err != nil {
		return err
	}
	tmpl, err := os.ReadFile(cmd.String(templateKey))
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cmd.Bool(verboseKey) {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	vm, err := hue.New(
		hue.WithData(data),
		hue.WithTemplate(string(tmpl)),
		hue.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer vm.Close()

	for _, path := range cmd.StringSlice(watchKey) {
		path := path
		if _, err := vm.Watch(path, func(_ any, value, oldValue any) {
			log.Printf("%s: %v -> %v", path, oldValue, value)
		}); err != nil {
			return err
		}
	}

	return run(vm, cmd.StringSlice(setKey), os.Stdout)
}

// run prints the initial frame, then applies each assignment and prints the
// frame again whenever the output changed.
func run(vm *hue.VM, assignments []string, w io.Writer) error {
	v := vm.View()
	if v == nil {
		return hue.ErrNoTemplate
	}
	out, _, err := v.Changed()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)

	for _, a := range assignments {
		path, value, err := parseAssignment(a)
		if err != nil {
			return err
		}
		if err := vm.SetPath(path, value); err != nil {
			return err
		}

		out, changed, err := v.Changed()
		if err != nil {
			return err
		}
		if changed {
			fmt.Fprintln(w, out)
		}
	}
	return nil
}
