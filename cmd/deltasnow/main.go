package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/joaschauer/deltasnow/internal/log"
	"github.com/joaschauer/deltasnow/internal/server"
	"github.com/joaschauer/deltasnow/internal/storage"
	"github.com/joaschauer/deltasnow/pkg/config"
	"github.com/joaschauer/deltasnow/pkg/deltasnow"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "", "Path to YAML configuration file (optional)")
	inputFile := flag.String("input", "", "Path to input CSV with date,hs columns")
	outputFile := flag.String("output", "", "Path to output CSV (default stdout)")
	dbFile := flag.String("db", "", "Path to SQLite run database (optional)")
	station := flag.String("station", "", "Station name recorded with stored runs")
	serve := flag.Bool("serve", false, "Run the REST server instead of a batch conversion")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("deltasnow %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgData, err := loadConfig(*cfgFile)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Command line flags override the configuration file.
	if *inputFile != "" {
		cfgData.Input.CSVPath = *inputFile
	}
	if *outputFile != "" {
		cfgData.Output.CSVPath = *outputFile
	}
	if *dbFile != "" {
		cfgData.Output.Database = *dbFile
	}
	if *station != "" {
		cfgData.Station = *station
	}

	opts, err := cfgData.Options()
	if err != nil {
		log.Errorf("Invalid model configuration: %v", err)
		os.Exit(1)
	}

	var store *storage.Client
	if cfgData.Output.Database != "" {
		store, err = storage.NewClient(cfgData.Output.Database, log.GetSugaredLogger())
		if err != nil {
			log.Errorf("Failed to open run database: %v", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	if *serve {
		if err := runServer(cfgData, opts, store); err != nil {
			log.Errorf("Server error: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := runBatch(cfgData, opts, store); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile string) (*config.ConfigData, error) {
	if cfgFile == "" {
		return &config.ConfigData{}, nil
	}

	filename, _ := filepath.Abs(cfgFile)
	provider := config.NewYAMLProvider(filename)
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Run with -h for help: %w", err)
	}
	return cfgData, nil
}

// runBatch converts one CSV snow depth series to SWE
func runBatch(cfg *config.ConfigData, opts deltasnow.Options, store *storage.Client) error {
	if cfg.Input.CSVPath == "" {
		return fmt.Errorf("no input file specified. Pass -input or set input.csv in the config")
	}

	readings, err := readDepthCSV(cfg.Input.CSVPath)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", cfg.Input.CSVPath, err)
	}
	log.Debugf("Read %d snow depth observations from %s", len(readings), cfg.Input.CSVPath)

	results, err := deltasnow.Compute(readings, opts)
	if err != nil {
		return fmt.Errorf("error computing SWE: %w", err)
	}

	if store != nil {
		id, err := store.SaveRun(context.Background(), cfg.Station,
			string(opts.HSInputUnit), string(opts.SWEOutputUnit), readings, results)
		if err != nil {
			return fmt.Errorf("error storing run: %w", err)
		}
		log.Infof("Stored run %s", id)
	}

	if err := writeSWECSV(cfg.Output.CSVPath, results); err != nil {
		return fmt.Errorf("error writing output: %w", err)
	}
	return nil
}

// runServer runs the REST server until interrupted
func runServer(cfg *config.ConfigData, opts deltasnow.Options, store *storage.Client) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenAddr := ""
	if cfg.HTTP != nil {
		listenAddr = cfg.HTTP.ListenAddr
	}

	wg := &sync.WaitGroup{}
	ctrl, err := server.NewController(ctx, wg, listenAddr, cfg.Station, opts, store, log.GetSugaredLogger())
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	log.Infof("Listening on %s", ctrl.Server.Addr)
	<-ctx.Done()
	wg.Wait()
	return nil
}
