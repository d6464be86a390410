package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/elonfeng/lens/internal/config"
	"github.com/elonfeng/lens/internal/logger"
	"github.com/elonfeng/lens/internal/scheduler"
	"github.com/elonfeng/lens/pkg/alert"
	"github.com/elonfeng/lens/pkg/analysis"
	"github.com/elonfeng/lens/pkg/bucket"
	"github.com/elonfeng/lens/pkg/gauge"
	"github.com/elonfeng/lens/pkg/present"
	"github.com/elonfeng/lens/pkg/render"
	"github.com/elonfeng/lens/pkg/server"
	"github.com/elonfeng/lens/pkg/service"
	"github.com/elonfeng/lens/pkg/source"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path, envFile)
}

// setup loads the config and builds the logger every command shares. The
// caller closes the returned closer when done logging.
func setup() (*config.Config, *logrus.Logger, io.Closer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, closer, err := logger.New(cfg.Log.Level, cfg.Log.File, os.Stderr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, closer, nil
}

func buildClient(cfg *config.Config, log logrus.FieldLogger) *service.Client {
	return service.NewClient(
		cfg.Service.BaseURL,
		cfg.Service.ParseTimeout(),
		cfg.Service.RequestsPerMin,
		cfg.Service.AdaptOptions(),
		log,
	)
}

func buildFeeds(cfg *config.Config) []scheduler.Feed {
	var filter *source.Filter
	if cfg.Filter.Enabled {
		filter = source.NewFilter(cfg.Filter.ExtraKeywords, cfg.Filter.ExcludeKeywords)
	}

	feeds := make([]scheduler.Feed, 0, len(cfg.Watch.Feeds))
	for _, f := range cfg.Watch.Feeds {
		feeds = append(feeds, source.NewFeed(f.Name, f.URL, filter, cfg.Watch.ParseMaxAge()))
	}
	return feeds
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func runAnalyze(parent context.Context, articleURL string, out outputFlags) error {
	if err := service.ValidateURL(articleURL); err != nil {
		return err
	}

	cfg, log, logFile, err := setup()
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, cancel := signalContext(parent)
	defer cancel()

	fmt.Fprintf(os.Stderr, "analyzing %s (this can take a minute)...\n", articleURL)
	res, err := buildClient(cfg, log).Analyze(ctx, articleURL)
	if err != nil {
		return err
	}
	return writeReport(os.Stdout, present.Build(res), out)
}

func runRender(path string, out outputFlags, clamp, unique bool) error {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	res, err := analysis.Adapt(raw, analysis.Options{Clamp: clamp, UniqueEntities: unique})
	if err != nil {
		return err
	}
	return writeReport(os.Stdout, present.Build(res), out)
}

func writeReport(w io.Writer, rep *present.Report, out outputFlags) error {
	switch {
	case out.json:
		return writeJSON(w, rep)
	case out.html:
		return render.HTML(w, rep)
	default:
		return render.Text(w, rep)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runTables(args []string, jsonOutput bool) error {
	names := bucket.Names()
	if len(args) == 1 {
		names = args
	}

	tables := make([]*bucket.Table, 0, len(names))
	for _, name := range names {
		t, ok := bucket.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown table %q (have %v)", name, bucket.Names())
		}
		tables = append(tables, t)
	}

	if jsonOutput {
		out := make(map[string][]bucket.Bucket, len(tables))
		for _, t := range tables {
			out[t.Name()] = t.Buckets()
		}
		return writeJSON(os.Stdout, out)
	}

	for i, t := range tables {
		if i > 0 {
			fmt.Println()
		}
		if err := render.Legend(os.Stdout, t); err != nil {
			return err
		}
	}
	return nil
}

func runEncode(kind, raw string) error {
	s, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("score %q is not a number", raw)
	}
	enc, err := gauge.Encode(gauge.Kind(kind), s)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, enc)
}

func runFeed(parent context.Context, feedURL string, limit int, analyze, noFilter bool) error {
	cfg, log, logFile, err := setup()
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, cancel := signalContext(parent)
	defer cancel()

	var filter *source.Filter
	if !noFilter {
		filter = source.NewFilter(cfg.Filter.ExtraKeywords, cfg.Filter.ExcludeKeywords)
	}
	entries, err := source.NewFeed("", feedURL, filter, cfg.Watch.ParseMaxAge()).List(ctx)
	if err != nil {
		return err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if !analyze {
		if len(entries) == 0 {
			fmt.Println("no matching entries")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PUBLISHED\tTITLE\tURL")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.PublishedAt.Local().Format("01-02 15:04"), e.Title, e.URL)
		}
		return w.Flush()
	}

	client := buildClient(cfg, log)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPECTRUM\tLEANING\tCLICKBAIT\tTITLE")
	for _, e := range entries {
		res, err := client.Analyze(ctx, e.URL)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(w, "-\t%s\t-\t%s\n", err, e.Title)
			continue
		}
		rep := present.Build(res)
		if !rep.IsPolitical {
			fmt.Fprintf(w, "-\t非政治性內容\t-\t%s\n", e.Title)
			continue
		}
		leaning := rep.Spectrum.LeaningLabel
		if rep.Spectrum.Bucket != nil {
			leaning = rep.Spectrum.Bucket.Label
		}
		fmt.Fprintf(w, "%s\t%s\t%g\t%s\n", rep.Spectrum.ScoreText, leaning, rep.Clickbait.Score, e.Title)
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, log, logFile, err := setup()
	if err != nil {
		return err
	}
	defer logFile.Close()
	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	srv := server.New(buildClient(cfg, log), cfg.Service.AdaptOptions(), port, log)
	return srv.ListenAndServe(ctx)
}

func newWatcher(cfg *config.Config, log *logrus.Logger, limit int) (*scheduler.Watcher, error) {
	feeds := buildFeeds(cfg)
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured (watch.feeds)")
	}
	alerts := buildAlertManager(cfg)
	if !alerts.HasNotifiers() {
		log.Warn("no alert destinations configured; reports are logged only")
	}
	return scheduler.New(feeds, buildClient(cfg, log), alerts, cfg.Alerts.Thresholds,
		cfg.Watch.ParseInterval(), limit, log), nil
}

func runWatch(once bool, limit int) error {
	cfg, log, logFile, err := setup()
	if err != nil {
		return err
	}
	defer logFile.Close()
	w, err := newWatcher(cfg, log, limit)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	if once {
		return writeJSON(os.Stdout, w.Poll(ctx))
	}
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runDaemon(port int) error {
	cfg, log, logFile, err := setup()
	if err != nil {
		return err
	}
	defer logFile.Close()
	if port == 0 {
		port = cfg.Server.Port
	}
	w, err := newWatcher(cfg, log, 0)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("watcher")
		}
	}()

	srv := server.New(buildClient(cfg, log), cfg.Service.AdaptOptions(), port, log)
	err = srv.ListenAndServe(ctx)
	log.Info("shutting down")
	return err
}
