// Command pyesg runs economic scenario generation and validation from the
// command line: "pyesg generate -config <sim.json>" projects a scenario to a
// .pyesg file, and "pyesg validate -config <sim.json> -validation
// <validation.json>" runs the requested analyses against that scenario and
// writes a JSON report.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"pyesg/internal/config"
	"pyesg/internal/engine"
	"pyesg/internal/logger"
	"pyesg/internal/registry"
	"pyesg/internal/validate"
)

var version = "dev"

func main() {
	logger.Banner(version)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("pyesg", err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pyesg generate -config <sim.json>")
	fmt.Fprintln(os.Stderr, "       pyesg validate -config <sim.json> -validation <validation.json>")
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the generation configuration")
	noRegistry := fs.Bool("no-registry", false, "skip recording this run in the local run history database")
	fs.Parse(args)

	if *configPath == "" {
		return fmt.Errorf("generate requires -config <path to generation configuration>")
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return err
	}

	var reg *registry.Registry
	var runID string
	if !*noRegistry {
		reg, err = registry.Open()
		if err != nil {
			logger.Warn("pyesg", fmt.Sprintf("run history unavailable: %v", err))
		} else {
			defer reg.Close()
			runID, err = reg.StartGenerationRun(*configPath, cfg.OutputPath(), cfg.RandomSeed, cfg.NumberOfSimulations, cfg.NumberOfProjectionSteps)
			if err != nil {
				logger.Warn("pyesg", fmt.Sprintf("could not record run start: %v", err))
			}
		}
	}

	logger.Section("Generating scenario")
	logger.Stats("simulations", humanize.Comma(int64(cfg.NumberOfSimulations)))
	logger.Stats("batches", cfg.NumberOfBatches)
	logger.Stats("projection steps", cfg.NumberOfProjectionSteps)
	logger.Stats("economies", len(cfg.Economies))
	logger.Stats("output", cfg.OutputPath())

	started := time.Now()
	genErr := engine.Generate(cfg, cfg.OutputPath())
	elapsed := time.Since(started)

	if reg != nil && runID != "" {
		if err := reg.FinishGenerationRun(runID, genErr); err != nil {
			logger.Warn("pyesg", fmt.Sprintf("could not record run completion: %v", err))
		}
	}
	if genErr != nil {
		return genErr
	}

	size := "unknown size"
	if info, err := os.Stat(cfg.OutputPath()); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	logger.Success("pyesg", fmt.Sprintf("wrote %s (%s) in %s", cfg.OutputPath(), size, humanize.RelTime(started, started.Add(elapsed), "", "")))
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the generation configuration that produced the scenario being validated")
	validationPath := fs.String("validation", "", "path to the validation configuration")
	noRegistry := fs.Bool("no-registry", false, "skip recording this run in the local run history database")
	fs.Parse(args)

	if *configPath == "" {
		return fmt.Errorf("validate requires -config <path to the generation configuration>")
	}
	if *validationPath == "" {
		return fmt.Errorf("validate requires -validation <path to the validation configuration>")
	}

	genCfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return err
	}
	validationCfg, err := config.LoadValidationConfigurationFromFile(*validationPath)
	if err != nil {
		return err
	}

	var reg *registry.Registry
	var runID string
	if !*noRegistry {
		reg, err = registry.Open()
		if err != nil {
			logger.Warn("pyesg", fmt.Sprintf("run history unavailable: %v", err))
		} else {
			defer reg.Close()
			runID, err = reg.StartValidationRun("", *validationPath, validationCfg.OutputPath())
			if err != nil {
				logger.Warn("pyesg", fmt.Sprintf("could not record run start: %v", err))
			}
		}
	}

	logger.Section("Running validation")
	logger.Stats("scenario", genCfg.OutputPath())
	logger.Stats("asset classes", len(validationCfg.AssetClasses))
	logger.Stats("report", validationCfg.OutputPath())

	report, runErr := validate.Run(genCfg, validationCfg, genCfg.OutputPath())

	if reg != nil && runID != "" {
		if err := reg.FinishValidationRun(runID, report, runErr); err != nil {
			logger.Warn("pyesg", fmt.Sprintf("could not record run completion: %v", err))
		}
	}
	if runErr != nil {
		return runErr
	}

	if err := validate.WriteReport(report, validationCfg.OutputPath()); err != nil {
		return err
	}

	for _, result := range report.Results {
		logger.Stats(fmt.Sprintf("%s / %s", result.AssetClassID, result.AnalysisID), result.ResultType)
	}
	logger.Success("pyesg", fmt.Sprintf("wrote %s (%d result sets)", validationCfg.OutputPath(), len(report.Results)))
	return nil
}
