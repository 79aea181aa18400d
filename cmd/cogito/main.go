package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ahoffer/cogito/pkg/config"
	"github.com/ahoffer/cogito/pkg/llm/factory"
	"github.com/ahoffer/cogito/pkg/mcpserve"
	"github.com/ahoffer/cogito/pkg/query"
	"github.com/ahoffer/cogito/pkg/thinkmodel"
	"github.com/ahoffer/cogito/pkg/web"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error

	switch os.Args[1] {
	case "query":
		err = queryCmd(os.Args[2:])
	case "models":
		err = modelsCmd(os.Args[2:])
	case "check":
		err = checkCmd(os.Args[2:])
	case "serve":
		err = serveCmd(os.Args[2:])
	case "mcp":
		err = mcpCmd(os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: cogito <command> [flags]

Commands:
  query   Solve a query using relevant thinking models
  models  List or inspect the thinking-model library
  check   Verify LLM connectivity and library health
  serve   Run the HTTP/WebSocket API server
  mcp     Serve the query tools over MCP on stdin/stdout

Run "cogito <command> -h" for command flags.
`)
}

// commonFlags registers the flags every subcommand shares.
func commonFlags(fs *flag.FlagSet) (configPath, envFile *string) {
	configPath = fs.String("config", "", "path to configuration file (default: cogito.yaml if present)")
	envFile = fs.String("env", ".env", "path to .env file (ignored if missing)")
	return configPath, envFile
}

// setup loads the environment and config, then builds the logger.
func setup(configPath, envFile string) (config.Config, *slog.Logger, error) {
	if err := loadDotEnv(envFile); err != nil {
		return config.Config{}, nil, err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(log)

	return cfg, log, nil
}

// newProcessor wires the library and LLM gateway into a processor. The
// returned close function releases provider resources.
func newProcessor(ctx context.Context, cfg config.Config, log *slog.Logger) (*query.Processor, func(), error) {
	lib := thinkmodel.NewLibrary(cfg.ModelsDir, log)
	if err := lib.Reload(); err != nil {
		return nil, nil, fmt.Errorf("load models from %s: %w", cfg.ModelsDir, err)
	}

	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, nil, err
	}

	gateway, closeFn, err := factory.New(ctx, clientCfg, log)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { _ = closeFn() }

	return query.NewProcessor(lib, gateway, log), cleanup, nil
}

func queryCmd(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cogito query [flags] <query text>\n\nSolve a query, selecting relevant thinking models first.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath, envFile := commonFlags(fs)
	batchFile := fs.String("batch", "", "file with one query per line; processed instead of the argument")
	concurrency := fs.Int("concurrency", 3, "parallel queries when using -batch")
	_ = fs.Parse(args)

	cfg, log, err := setup(*configPath, *envFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	proc, cleanup, err := newProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	initMarkdownRenderer(terminalWidth())

	if *batchFile != "" {
		return runBatch(ctx, proc, *batchFile, *concurrency)
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return errors.New("no query given (pass text as arguments or use -batch)")
	}

	printResult(proc.Process(ctx, text))

	return nil
}

func runBatch(ctx context.Context, proc *query.Processor, path string, concurrency int) error {
	queries, err := readQueries(path)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("no queries in %s", path)
	}

	results := proc.ProcessBatch(ctx, queries, concurrency)
	for i, res := range results {
		if i > 0 {
			fmt.Println(ruleStyle.Render(strings.Repeat("─", 60)))
		}
		printResult(res)
	}

	return nil
}

// readQueries reads one query per line, skipping blanks and # comments.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}

	return queries, scanner.Err()
}

func modelsCmd(args []string) error {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cogito models [flags] [id]\n\nList the library, or show one model in full when an id is given.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath, envFile := commonFlags(fs)
	summary := fs.Bool("summary", false, "print aggregate library statistics")
	_ = fs.Parse(args)

	cfg, log, err := setup(*configPath, *envFile)
	if err != nil {
		return err
	}

	lib := thinkmodel.NewLibrary(cfg.ModelsDir, log)
	if err := lib.Reload(); err != nil {
		return fmt.Errorf("load models from %s: %w", cfg.ModelsDir, err)
	}

	initMarkdownRenderer(terminalWidth())

	if *summary {
		printSummary(lib.Summary())
		return nil
	}

	if id := fs.Arg(0); id != "" {
		m, ok := lib.Get(id)
		if !ok {
			return fmt.Errorf("model not found: %s", id)
		}
		printModel(m)
		return nil
	}

	printModelList(lib.All())

	return nil
}

func checkCmd(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cogito check [flags]\n\nVerify LLM connectivity and report library health.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath, envFile := commonFlags(fs)
	_ = fs.Parse(args)

	cfg, log, err := setup(*configPath, *envFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	proc, cleanup, err := newProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	s := proc.Summary()
	fmt.Printf("Models loaded: %d (%s)\n", s.TotalModels, cfg.ModelsDir)

	if proc.CheckConnectivity(ctx) {
		fmt.Println(okStyle.Render("LLM connection: ok"))
		return nil
	}

	return fmt.Errorf("LLM connection failed (provider %s, model %s)", cfg.LLM.Provider, cfg.LLM.Model)
}

func serveCmd(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cogito serve [flags]\n\nRun the HTTP/WebSocket API server.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath, envFile := commonFlags(fs)
	addr := fs.String("addr", "", "listen address (overrides config)")
	_ = fs.Parse(args)

	cfg, log, err := setup(*configPath, *envFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	proc, cleanup, err := newProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	listen := cfg.Addr()
	if *addr != "" {
		listen = *addr
	}

	return web.New(proc, log).ListenAndServe(ctx, listen)
}

func mcpCmd(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cogito mcp [flags]\n\nServe the query tools over MCP on stdin/stdout.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	configPath, envFile := commonFlags(fs)
	_ = fs.Parse(args)

	cfg, log, err := setup(*configPath, *envFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	proc, cleanup, err := newProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Info("mcp server starting", "version", version)

	err = mcpserve.New(proc, version, log).Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// loadConfig resolves the config file. An explicit flag must exist; the
// default cogito.yaml may be absent, in which case defaults apply.
func loadConfig(explicit string) (config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}

	if _, err := os.Stat("cogito.yaml"); err == nil {
		return config.Load("cogito.yaml")
	}

	return config.Default(), nil
}
