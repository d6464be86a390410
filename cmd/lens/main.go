package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lens",
		Short:         "Visualize political bias and clickbait analysis of news articles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with overrides")

	root.AddCommand(analyzeCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(tablesCmd())
	root.AddCommand(encodeCmd())
	root.AddCommand(feedCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(runCmd())

	return root
}

// outputFlags selects how a report is printed.
type outputFlags struct {
	html bool
	json bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.html, "html", false, "output a standalone HTML page")
	cmd.Flags().BoolVar(&o.json, "json", false, "output the report as JSON")
	cmd.MarkFlagsMutuallyExclusive("html", "json")
}

func analyzeCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Send an article URL to the analysis service and show the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), args[0], out)
		},
	}

	out.register(cmd)
	return cmd
}

func renderCmd() *cobra.Command {
	var (
		out    outputFlags
		clamp  bool
		unique bool
	)

	cmd := &cobra.Command{
		Use:   "render <file|->",
		Short: "Validate a saved analysis payload and render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], out, clamp, unique)
		},
	}

	out.register(cmd)
	cmd.Flags().BoolVar(&clamp, "clamp", false, "clamp out-of-range scores instead of rejecting them")
	cmd.Flags().BoolVar(&unique, "unique-entities", false, "reject duplicate entity names")
	return cmd
}

func tablesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tables [name]",
		Short: "Print the legend bucket tables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(args, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func encodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <kind> <score>",
		Short: "Print the gauge encoding for a score",
		Long:  "Print the gauge encoding for a score. kind is one of political_spectrum, clickbait, entity_alignment.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(args[0], args[1])
		},
	}
	return cmd
}

func feedCmd() *cobra.Command {
	var (
		limit    int
		analyze  bool
		noFilter bool
	)

	cmd := &cobra.Command{
		Use:   "feed <url>",
		Short: "List political entries from an RSS/Atom feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(cmd.Context(), args[0], limit, analyze, noFilter)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max entries to show")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "also analyze every listed entry")
	cmd.Flags().BoolVar(&noFilter, "no-filter", false, "list every entry, not only political ones")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func watchCmd() *cobra.Command {
	var (
		once  bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll configured feeds, analyze new entries and send alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(once, limit)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "poll a single time, print the summary and exit")
	cmd.Flags().IntVar(&limit, "limit", 0, "max new entries analyzed per feed and poll (0: no cap)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with feed watcher and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
