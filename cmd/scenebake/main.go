// scenebake converts authored scene documents into runtime-ready meshes,
// skeletons and baked animation clips.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/scenebake/internal/config"
	"github.com/Faultbox/scenebake/internal/logger"
	"github.com/Faultbox/scenebake/internal/watch"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, rest := args[0], args[1:]
	switch command {
	case "convert", "c":
		err = cmdConvert(ctx, cfg, rest)
	case "inspect", "i":
		err = cmdInspect(ctx, cfg, rest)
	case "watch", "w":
		err = cmdWatch(ctx, cfg, rest)
	case "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(os.Stderr, "Usage: scenebake "+string(usage))
			os.Exit(1)
		}
		logger.Error(command+" failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenebake - scene to runtime asset converter

Usage:
  scenebake [flags] <command> [arguments]

Commands:
  convert <scene.yaml> <out.glb|out.gltf>  Convert and write the result
  inspect <scene.yaml>                     Convert and print a summary
  watch <scene.yaml> <out>                 Re-convert whenever the input changes

Flags:
  -config <path>   Config file (.yaml or .toml)
  -debug           Enable debug logging
  -fps <rate>      Bake sample rate (0 = mean channel rate)
  -no-prune        Keep constant animation channels
  -workers <n>     Parallel chunk builders (0 = GOMAXPROCS)
  -log <path>      Log file path
  -format <fmt>    Output format when the extension is ambiguous: glb or gltf

Examples:
  scenebake convert hero.yaml hero.glb
  scenebake -fps 30 -no-prune convert hero.yaml hero.gltf
  scenebake -config bake.toml watch hero.yaml hero.glb`)
}

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

func cmdConvert(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return usageError("convert <scene.yaml> <out.glb|out.gltf>")
	}
	_, err := convertFile(ctx, cfg, args[0], args[1], logger.Log)
	return err
}

func cmdInspect(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return usageError("inspect <scene.yaml>")
	}
	res, err := convertFile(ctx, cfg, args[0], "", logger.Log)
	if err != nil {
		return err
	}
	return printSummary(os.Stdout, res)
}

func cmdWatch(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return usageError("watch <scene.yaml> <out>")
	}
	w, err := watch.New(args[0], logger.Log)
	if err != nil {
		return err
	}
	out := args[1]
	logger.Info("watching for changes", zap.String("input", w.Path()), zap.String("output", out))

	err = w.Run(ctx, func(ctx context.Context, path string) error {
		_, err := convertFile(ctx, cfg, path, out, logger.Log)
		return err
	})
	if errors.Is(err, context.Canceled) {
		logger.Info("watch stopped", zap.Int("runs", w.Runs()))
		return nil
	}
	return err
}
