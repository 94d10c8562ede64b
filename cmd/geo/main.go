package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geo-process/internal/logger"
	"github.com/joeblew999/geo-process/internal/server"
)

// Options defines all CLI flags and env vars for the geo server.
// Flags: --host, --port, --data-dir, --log-level, --log-console, --legacy-bearing
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_LOG_LEVEL, ...
type Options struct {
	Host          string `doc:"Host to bind to" default:"0.0.0.0"`
	Port          int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir       string `doc:"Directory for sources and the DuckDB database" default:".data"`
	LogLevel      string `doc:"Log level: debug, info, warn, error" default:"info"`
	LogConsole    bool   `doc:"Human-readable console logs instead of JSON" default:"false"`
	LegacyBearing bool   `doc:"Use the (270 + atan2) bearing remap instead of compass bearings" default:"false"`
	NoDB          bool   `doc:"Do not open DuckDB" default:"false"`
}

func newServer(opts *Options) *server.Server {
	log := logger.Build(logger.Config{
		Level:     opts.LogLevel,
		Console:   opts.LogConsole,
		Component: "geo",
	}, os.Stderr)
	return server.New(server.Config{
		Host:          opts.Host,
		Port:          fmt.Sprintf("%d", opts.Port),
		DataDir:       opts.DataDir,
		NoDB:          opts.NoDB,
		LegacyBearing: opts.LegacyBearing,
		Logger:        &log,
	})
}

// marshal renders v as indented JSON, or YAML when asYAML is set.
func marshal(v any, asYAML bool) ([]byte, error) {
	if asYAML {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server

		hooks.OnStart(func() {
			srv = newServer(opts)
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("geo-process API server starting...\n")
			fmt.Printf("  Server:    %s\n", baseURL)
			fmt.Printf("  Data:      %s\n", opts.DataDir)
			fmt.Println()
			fmt.Printf("  Processes: %s/api/v1/processes\n", baseURL)
			fmt.Printf("  Docs:      %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI:   %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics:   %s/metrics\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "geo"
	cli.Root().Short = "Geoprocessing server: distance and bearing over feature collections"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.NoDB = true
			srv := newServer(opts)
			useYAML, _ := cmd.Flags().GetBool("yaml")

			output, err := marshal(srv.OpenAPI(), useYAML)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// processes subcommand: print the registered process descriptors
	processesCmd := &cobra.Command{
		Use:   "processes",
		Short: "List registered processes and their inputs/outputs",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.NoDB = true
			srv := newServer(opts)
			useYAML, _ := cmd.Flags().GetBool("yaml")

			output, err := marshal(srv.Registry().List(), useYAML)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling processes: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	processesCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(processesCmd)

	cli.Root().AddCommand(newDistbearCmd())

	cli.Run()
}
