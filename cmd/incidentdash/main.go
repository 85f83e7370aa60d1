package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"incidentdash/config"
	"incidentdash/core/appbootstrap"
	"incidentdash/core/preprocess"
	"incidentdash/core/utils"
)

const usage = `usage: incidentdash <command> [flags]

commands:
  serve        run the dashboard
  load         rebuild the incidents table from a CSV file
  preprocess   convert a raw incident export into the loader CSV format
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "load":
		err = runLoad(ctx, os.Args[2:])
	case "preprocess":
		err = runPreprocess(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		stop()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.AppConfig, *utils.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := utils.OpenLogger(cfg.Log.Level, cfg.Log.File, cfg.Log.Console)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("INCIDENTDASH_CONFIG"), "YAML config file (optional)")
	_ = fs.Parse(args)

	cfg, logger, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	defer logger.Close()
	return appbootstrap.Serve(ctx, cfg, logger)
}

func runLoad(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("INCIDENTDASH_CONFIG"), "YAML config file (optional)")
	csvPath := fs.String("csv", "", "CSV file to load (defaults to loader.csv_path)")
	_ = fs.Parse(args)

	cfg, logger, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	defer logger.Close()
	source := *csvPath
	if source == "" {
		source = cfg.Loader.CSVPath
	}
	sum, err := appbootstrap.LoadOnce(ctx, cfg, source, logger)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func runPreprocess(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("preprocess", flag.ExitOnError)
	in := fs.String("in", "", "raw incident export CSV")
	out := fs.String("out", "csv/incidents.csv", "cleaned CSV output path")
	_ = fs.Parse(args)
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	src, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer src.Close()
	if dir := filepath.Dir(*out); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	dst, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	stats, err := preprocess.Convert(ctx, src, dst)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	fmt.Printf("preprocessed read=%d written=%d bad_timestamps=%d output=%s\n", stats.Read, stats.Written, stats.BadTimestamps, *out)
	return nil
}
