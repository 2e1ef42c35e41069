package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/components/hostedform"
	"github.com/goliatone/go-formflow/internal/store"
	"github.com/goliatone/go-formflow/pkg/formdef"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve hosted forms over HTTP",
	Long:  `Serve runs the hosted form endpoints backed by a SQL store. Definitions load from --definitions at startup; submissions persist with filtered answers.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address")
	serveCmd.Flags().String("db-url", "", "database connection URL (sqlite://path or postgres://...)")
	serveCmd.Flags().String("base-path", "", "mount prefix for the form routes")
	serveCmd.Flags().String("renderer", "", "renderer for form pages (classic, canvas)")
	serveCmd.Flags().String("definitions", "", "definition file or directory to load into the store at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Serve.Addr, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("db-url") {
		cfg.Serve.DBURL, _ = cmd.Flags().GetString("db-url")
	}
	if cmd.Flags().Changed("base-path") {
		cfg.Serve.BasePath, _ = cmd.Flags().GetString("base-path")
	}
	if cmd.Flags().Changed("renderer") {
		cfg.Renderer, _ = cmd.Flags().GetString("renderer")
	}
	if cmd.Flags().Changed("definitions") {
		cfg.Serve.Definitions, _ = cmd.Flags().GetString("definitions")
	}

	ctx := context.Background()

	db, err := store.Open(cfg.Serve.DBURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	if err := store.Migrate(ctx, db); err != nil {
		return err
	}
	st, err := store.New(db)
	if err != nil {
		return err
	}

	if cfg.Serve.Definitions != "" {
		count, err := loadDefinitions(ctx, st, cfg.Serve.Definitions)
		if err != nil {
			return err
		}
		if cfg.logsAt("info") {
			log.Printf("Loaded %d definition(s) from %s", count, cfg.Serve.Definitions)
		}
	}

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "[formflow] ", log.LstdFlags)

	mux := http.NewServeMux()
	pattern, err := hostedform.RegisterRoutes(mux, cfg.Serve.BasePath,
		hostedform.WithStore(st),
		hostedform.WithRegistry(registry),
		hostedform.WithRenderer(cfg.Renderer),
		hostedform.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var handler http.Handler = mux
	if cfg.logsAt("debug") {
		handler = requestLog(logger, handler)
	}

	server := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.logsAt("info") {
		log.Printf("formflow v%s serving %s* on %s", version, pattern, cfg.Serve.Addr)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		if cfg.logsAt("info") {
			log.Println("Shutting down gracefully...")
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// loadDefinitions saves one definition file, or every definition in a
// directory tree, into the store. Directory loads run in sorted id order so
// reruns hit the upsert path deterministically.
func loadDefinitions(ctx context.Context, st *store.Store, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("definitions: %w", err)
	}

	if !info.IsDir() {
		def, err := formdef.Load(path)
		if err != nil {
			return 0, err
		}
		if err := st.SaveDefinition(ctx, def); err != nil {
			return 0, err
		}
		return 1, nil
	}

	defs, err := formdef.LoadFS(os.DirFS(path))
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := st.SaveDefinition(ctx, defs[id]); err != nil {
			return 0, err
		}
	}
	return len(defs), nil
}

func requestLog(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
	})
}
