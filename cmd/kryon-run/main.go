// cmd/kryon-run/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/kryonlabs/kryon-renderer/internal/app"
	"github.com/kryonlabs/kryon-renderer/internal/config"
	"github.com/kryonlabs/kryon-renderer/render"
	"github.com/kryonlabs/kryon-renderer/render/raylib"
	"github.com/kryonlabs/kryon-renderer/render/remote"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	krbFilePath := flag.String("file", "", "Path to the KRB file to render")
	configPath := flag.String("config", "", "Path to a TOML launch configuration")
	backend := flag.String("backend", "", "Backend override: native2d | remote")
	budget := flag.Int("script-budget-ms", -1, "Script activation budget in ms (0 = unlimited)")
	flag.Parse()

	if *krbFilePath == "" {
		execName := filepath.Base(os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s -file <krb_file_path>\n", execName)
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *budget >= 0 {
		cfg.ScriptBudgetMS = *budget
	}

	switch cfg.LogLevel {
	case "quiet":
		log.SetOutput(io.Discard)
	case "debug":
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	default:
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	log.Printf("Loading KRB file: %s", *krbFilePath)
	a, err := app.Load(*krbFilePath, cfg)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	var renderer render.Renderer
	switch cfg.Backend {
	case "remote":
		renderer = remote.NewRemoteRenderer(cfg.RemoteAddr)
	case "native2d", "gpu", "":
		rr := raylib.NewRaylibRenderer()
		rr.SetResources(a.Doc.Source, filepath.Dir(*krbFilePath))
		renderer = rr
	default:
		log.Fatalf("ERROR: unknown backend %q", cfg.Backend)
	}

	if err := app.Run(a, renderer); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
