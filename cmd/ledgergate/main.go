package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ledgergate/ledgergate/internal/config"
	"github.com/ledgergate/ledgergate/internal/epochs"
	"github.com/ledgergate/ledgergate/internal/eventbus"
	"github.com/ledgergate/ledgergate/internal/graph"
	"github.com/ledgergate/ledgergate/internal/ledgerrpc"
	"github.com/ledgergate/ledgergate/internal/otel"
	"github.com/ledgergate/ledgergate/internal/server"
)

const rootUsage = `ledgergate — GraphQL gateway for a ledger node

USAGE:
  ledgergate <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL gateway backed by a ledger node
  print-schema     Write the GraphQL SDL to stdout
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>                 YAML configuration file; flags override it
  -server.addr <addr>            HTTP listen address (default: :8080)
  -server.pretty                 Pretty-print JSON responses
  -server.timeout <duration>     Per-request timeout, e.g. 10s (default: 10s)
  -server.allow-origin <origin>  Allow CORS origin. Repeatable
  -server.graphiql <bool>        Serve the GraphiQL IDE on GET (default: true)
  -upstream.endpoint <url>       Ledger node JSON-RPC URL (required)
  -upstream.rpc-timeout <dur>    Upstream call timeout, e.g. 3s (default: 3s)
  -upstream.header <Name:Value>  Add header to upstream requests. Repeatable
  -otel.endpoint <addr>          OTLP collector endpoint
  -otel.service <name>           OpenTelemetry service name (default: ledgergate)
`

const printSchemaUsage = `print-schema FLAGS:
  (none)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("ledgergate", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "print-schema":
		return cmdPrintSchema(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "print-schema":
		fmt.Print(printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdServe(args []string) error {
	var (
		configPath   string
		addr         string
		pretty       bool
		timeout      time.Duration
		graphiql     bool
		endpoint     string
		rpcTimeout   time.Duration
		otelEndpoint string
		otelService  string
		origins      stringListFlag
		headers      stringListFlag
	)

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", "", "YAML configuration file")
	fs.StringVar(&addr, "server.addr", "", "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", false, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", 0, "Per-request timeout")
	fs.Var(&origins, "server.allow-origin", "Allow CORS origin")
	fs.BoolVar(&graphiql, "server.graphiql", true, "Serve the GraphiQL IDE on GET")
	fs.StringVar(&endpoint, "upstream.endpoint", "", "Ledger node JSON-RPC URL")
	fs.DurationVar(&rpcTimeout, "upstream.rpc-timeout", 0, "Upstream call timeout")
	fs.Var(&headers, "upstream.header", "Add header to upstream requests")
	fs.StringVar(&otelEndpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", "", "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Explicit flags win over the file.
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server.addr":
			cfg.Server.Addr = addr
		case "server.pretty":
			cfg.Server.Pretty = pretty
		case "server.timeout":
			cfg.Server.Timeout = config.Duration(timeout)
		case "server.allow-origin":
			cfg.Server.AllowedOrigins = origins
		case "server.graphiql":
			cfg.Server.GraphiQL = graphiql
		case "upstream.endpoint":
			cfg.Upstream.Endpoint = endpoint
		case "upstream.rpc-timeout":
			cfg.Upstream.RPCTimeout = config.Duration(rpcTimeout)
		case "upstream.header":
			for _, h := range headers {
				name, value, ok := strings.Cut(h, ":")
				if !ok {
					flagErr = fmt.Errorf("invalid header %q, want Name:Value", h)
					return
				}
				if cfg.Upstream.Headers == nil {
					cfg.Upstream.Headers = map[string]string{}
				}
				cfg.Upstream.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
			}
		case "otel.endpoint":
			cfg.Otel.Endpoint = otelEndpoint
		case "otel.service":
			cfg.Otel.Service = otelService
		}
	})
	if flagErr != nil {
		return flagErr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	copts := []ledgerrpc.Option{ledgerrpc.WithRPCTimeout(cfg.Upstream.RPCTimeout.Std())}
	for name, value := range cfg.Upstream.Headers {
		copts = append(copts, ledgerrpc.WithHeader(name, value))
	}
	client := ledgerrpc.New(cfg.Upstream.Endpoint, copts...)

	resolver := graph.NewResolver(client, epochs.NewIndex(client))
	exec, err := graph.NewExecutor(resolver)
	if err != nil {
		return fmt.Errorf("executor init: %w", err)
	}

	sopts := []server.Option{
		server.WithGraphiQL(cfg.Server.GraphiQL),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if cfg.Server.Timeout > 0 {
		sopts = append(sopts, server.WithTimeout(cfg.Server.Timeout.Std()))
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.AllowedOrigins...))
	}
	h := server.New(exec, sopts...)

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	log.Printf("GraphQL server listening on %s", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, mux)
}

func cmdPrintSchema(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("print-schema takes no arguments")
	}
	fmt.Print(graph.SDL())
	return nil
}
