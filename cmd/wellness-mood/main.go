// Command wellness-mood analyzes free-text mood check-ins and serves the
// check-in API.
//
// Usage:
//
//	wellness-mood analyze [text...]   analyze text (stdin when no args)
//	wellness-mood serve               run the HTTP API
//	wellness-mood phases -user ID     print mood phases for a user
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/justestif/go-wellness-mood/internal/checkins"
	"github.com/justestif/go-wellness-mood/internal/clustering"
	"github.com/justestif/go-wellness-mood/internal/config"
	"github.com/justestif/go-wellness-mood/internal/pipeline"
	"github.com/justestif/go-wellness-mood/internal/web"
)

const configPath = "config.yaml"

// errReported means the failure was already written to stdout as JSON.
var errReported = errors.New("reported")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: wellness-mood analyze|serve|phases [flags]")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx := context.Background()

	a, err := newApp(ctx, cfg, logger)
	if errors.Is(err, errVertexInit) {
		writeJSON(os.Stdout, map[string]string{"error": "vertex_init_failed", "message": err.Error()})
		return errReported
	}
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "analyze":
		return runAnalyze(ctx, a, rest)
	case "serve":
		return runServe(a, cfg)
	case "phases":
		return runPhases(ctx, a, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runAnalyze(ctx context.Context, a *app, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	rec, err := a.pipeline.Analyze(ctx, strings.TrimSpace(text))
	if err != nil {
		writeJSON(os.Stdout, map[string]string{
			"error":   pipeline.ErrorKind(err),
			"message": err.Error(),
		})
		return errReported
	}

	writeJSON(os.Stdout, rec)
	return nil
}

func runServe(a *app, cfg *config.Config) error {
	handlers := web.NewHandlers(a.pipeline, a.checkins, a.logger)
	server := web.NewServer(web.ServerConfig{
		Addr:        cfg.Server.Addr(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      a.logger,
	}, handlers)

	return server.Run()
}

func runPhases(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("phases", flag.ContinueOnError)
	userID := fs.String("user", checkins.DemoUserID, "user id")
	clusters := fs.Int("clusters", clustering.DefaultConfig().NumClusters, "number of phases to look for")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := clustering.DefaultConfig()
	cfg.NumClusters = *clusters

	result, err := a.checkins.Phases(ctx, *userID, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("%d check-ins for %s\n\n", result.Total, *userID)
	fmt.Print(clustering.FormatPhaseSummary(result.Phases, result.Outliers))
	return nil
}

func writeJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
