package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/byteowlz/tailr/internal/config"
	"github.com/byteowlz/tailr/internal/fetcher"
	"github.com/byteowlz/tailr/internal/logging"
	"github.com/byteowlz/tailr/pkg/jobdetect"
)

// Exit codes for granular error handling
const (
	ExitSuccess      = 0
	ExitNetworkError = 1
	ExitProcessError = 2
	ExitInvalidInput = 3
	ExitConfigError  = 4
	ExitFileIOError  = 5
	ExitPartialError = 6 // some URLs failed, some succeeded
	ExitNotFound     = 7 // pages loaded but none held a job posting
)

var (
	cfgFile      string
	outputFile   string
	outputFormat string
	lineWidth    int
	renderMode   string
	retries      int
	retryDelay   int
	concurrency  int
	delay        float64
	browserName  string
	noCookies    bool
	sourceURL    string
	timeout      int
	userAgent    string
	browserAgent string
	file         string
	verbose      bool
	quiet        bool
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "tailr [urls...]",
	Short: "Detect job postings and tailor your résumé to them",
	Long: `tailr finds the job posting on LinkedIn, Lever, Greenhouse, Workday and
company career pages, and sends it with your résumé to a tailoring service
that writes a matching résumé and cover letter.`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	RunE:          runDetect,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var detectCmd = &cobra.Command{
	Use:   "detect [urls...]",
	Short: "Detect the job posting on one or more pages",
	RunE:  runDetect,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if exitErr, ok := err.(*exitErr); ok {
			os.Exit(exitErr.code)
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(ExitInvalidInput)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/tailr/config.toml)")

	// Page loading flags
	pf.StringVar(&renderMode, "render", "", "JavaScript rendering (auto|always|never)")
	pf.StringVarP(&browserName, "browser", "b", "", "browser for cookie extraction (auto|chrome|firefox|safari|zen)")
	pf.BoolVar(&noCookies, "no-cookies", false, "do not send browser cookies")
	pf.IntVar(&timeout, "timeout", 0, "request timeout in seconds")
	pf.StringVar(&userAgent, "user-agent", "", "custom user agent string")
	pf.StringVar(&browserAgent, "browser-agent", "", "browser agent type (auto|chrome|firefox|safari|edge)")

	// Detection flags
	pf.IntVar(&retries, "retries", 0, "extra detection attempts while the posting renders")
	pf.IntVar(&retryDelay, "retry-delay", 0, "milliseconds between detection attempts")

	// System flags
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress all non-content output")

	for _, cmd := range []*cobra.Command{rootCmd, detectCmd} {
		f := cmd.Flags()
		f.StringVarP(&file, "file", "f", "", "read URLs from file (one per line)")
		f.StringVarP(&outputFile, "output", "o", "", "output to file or directory (default: stdout)")
		f.StringVar(&outputFormat, "format", "", "output format (text|markdown|json)")
		f.IntVar(&lineWidth, "width", 0, "wrap text output at this many columns (0 = no wrapping)")
		f.IntVarP(&concurrency, "concurrency", "c", 0, "max pages loaded at once")
		f.Float64Var(&delay, "delay", 0, "minimum seconds between requests to the same host")
		f.StringVar(&sourceURL, "source-url", "", "original address of a saved page given as file://")
	}

	rootCmd.AddCommand(detectCmd, badgeCmd, resumeCmd, tailorCmd, tokenCmd, serveCmd)
}

// initConfig creates the config file with commented defaults on first run.
func initConfig() {
	if cfgFile != "" {
		return
	}

	configDir, err := config.Dir()
	if err != nil {
		if !quiet {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		return
	}

	// Handle broken symlinks by removing them first
	if fi, lstatErr := os.Lstat(configDir); lstatErr == nil && fi.Mode()&os.ModeSymlink != 0 {
		if _, statErr := os.Stat(configDir); os.IsNotExist(statErr) {
			os.Remove(configDir)
		}
	}

	configPath := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if verbose && !quiet {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", configPath)
		}
		return
	}

	if err := config.Default().CreateExampleConfig(configPath); err != nil {
		if verbose && !quiet {
			fmt.Fprintf(os.Stderr, "Error creating config file: %v\n", err)
		}
		return
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "Created config file: %s\n", configPath)
	}
}

// loadConfig reads .env and the config file, then applies the flags the
// user actually set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("render") {
		cfg.Detection.Render = renderMode
	}
	if changed("retries") {
		cfg.Detection.RetryBudget = retries
	}
	if changed("retry-delay") {
		cfg.Detection.RetryDelayMS = retryDelay
	}
	if changed("browser") {
		cfg.Browser.Default = browserName
	}
	if changed("no-cookies") {
		cfg.Browser.Cookies = !noCookies
	}
	if changed("timeout") {
		cfg.Network.Timeout = timeout
	}
	if changed("user-agent") {
		cfg.Network.UserAgent = userAgent
	}
	if changed("browser-agent") {
		cfg.Network.BrowserAgent = browserAgent
	}
	if changed("verbose") {
		cfg.Logging.Verbose = verbose
	}
	if changed("quiet") {
		cfg.Logging.Quiet = quiet
	}

	if cmd.Flags().Lookup("concurrency") == nil {
		return
	}
	if changed("concurrency") {
		cfg.Parallel.MaxConcurrency = concurrency
	}
	if changed("delay") {
		cfg.Parallel.RequestsPerSec = 0
		if delay > 0 {
			cfg.Parallel.RequestsPerSec = 1 / delay
		}
	}
	if changed("format") {
		cfg.Output.DefaultFormat = outputFormat
	}
	if changed("width") {
		cfg.Output.LineWidth = lineWidth
	}
}

func newLogger(cfg *config.Config) *logging.Logger {
	if cfg.Logging.Quiet {
		return logging.Discard()
	}
	return logging.New(os.Stderr, cfg.Logging.Verbose)
}

func newDetector(cfg *config.Config, log *logging.Logger) (*jobdetect.Detector, error) {
	cookies, err := jobdetect.CookiesFromConfig(cfg)
	if err != nil {
		return nil, exitError(ExitConfigError, "%v", err)
	}
	det, err := jobdetect.FromConfig(cfg, cookies, log)
	if err != nil {
		return nil, exitError(ExitConfigError, "%v", err)
	}
	return det, nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return exitError(ExitConfigError, "failed to load config: %v", err)
	}
	quiet = cfg.Logging.Quiet
	if !jobdetect.ValidFormat(cfg.Output.DefaultFormat) {
		return exitError(ExitInvalidInput, "invalid format %q (want text, markdown or json)", cfg.Output.DefaultFormat)
	}

	urls, err := collectURLs(args)
	if err != nil {
		return exitError(ExitInvalidInput, "failed to collect URLs: %v", err)
	}
	if len(urls) == 0 {
		return exitError(ExitInvalidInput, "no URLs provided")
	}

	log := newLogger(cfg)
	det, err := newDetector(cfg, log)
	if err != nil {
		return err
	}
	log.Debugf("processing %d URLs", len(urls))

	reports, err := detectAll(cmd.Context(), det, urls)
	if err != nil {
		return err
	}

	formatter := jobdetect.NewFormatter(cfg.Output.DefaultFormat, cfg.Output.LineWidth)
	if err := writeReports(formatter, reports); err != nil {
		return err
	}
	return exitFor(reports)
}

// detectAll runs saved file:// pages in place and sends the rest through
// the batch detector, keeping the input order.
func detectAll(ctx context.Context, det *jobdetect.Detector, urls []string) ([]jobdetect.Report, error) {
	reports := make([]jobdetect.Report, len(urls))

	var remote []string
	var index []int
	for i, u := range urls {
		if !strings.HasPrefix(u, "file://") {
			remote = append(remote, u)
			index = append(index, i)
			continue
		}
		page, err := fetcher.OpenFile(strings.TrimPrefix(u, "file://"), sourceURL, os.Stdin)
		if err != nil {
			return nil, exitError(ExitFileIOError, "%v", err)
		}
		reports[i] = det.DetectPage(ctx, page)
	}

	for j, rep := range det.DetectAll(ctx, remote) {
		reports[index[j]] = rep
	}
	return reports, nil
}

func writeReports(formatter *jobdetect.Formatter, reports []jobdetect.Report) error {
	if outputFile == "" {
		out, err := formatter.RenderAll(reports)
		if err != nil {
			return exitError(ExitProcessError, "%v", err)
		}
		fmt.Fprintln(os.Stdout, out)
		return nil
	}

	// Directory mode: each URL gets its own file
	info, statErr := os.Stat(outputFile)
	if (statErr == nil && info.IsDir()) || strings.HasSuffix(outputFile, "/") {
		if err := os.MkdirAll(outputFile, 0o755); err != nil {
			return exitError(ExitFileIOError, "failed to create output directory: %v", err)
		}
		for _, rep := range reports {
			if !rep.Result.Found {
				continue
			}
			out, err := formatter.Render(rep)
			if err != nil {
				return exitError(ExitProcessError, "%v", err)
			}
			path := filepath.Join(outputFile, urlToFilename(rep.URL, formatter.Format))
			if err := os.WriteFile(path, []byte(out+"\n"), 0o644); err != nil {
				return exitError(ExitFileIOError, "failed to write %s: %v", path, err)
			}
			if verbose && !quiet {
				fmt.Fprintf(os.Stderr, "Saved: %s\n", path)
			}
		}
		return nil
	}

	out, err := formatter.RenderAll(reports)
	if err != nil {
		return exitError(ExitProcessError, "%v", err)
	}
	if err := os.WriteFile(outputFile, []byte(out+"\n"), 0o644); err != nil {
		return exitError(ExitFileIOError, "failed to create output file %s: %v", outputFile, err)
	}
	return nil
}

func exitFor(reports []jobdetect.Report) error {
	found, failed := 0, 0
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
		}
		if rep.Result.Found {
			found++
		}
	}

	switch {
	case failed > 0 && found > 0:
		return &exitErr{code: ExitPartialError}
	case failed > 0:
		return &exitErr{code: ExitNetworkError}
	case found == 0:
		return &exitErr{code: ExitNotFound}
	}
	return nil
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string {
	return e.msg
}

func exitError(code int, format string, args ...interface{}) *exitErr {
	msg := fmt.Sprintf(format, args...)
	if msg != "" && !quiet {
		fmt.Fprintf(os.Stderr, "%s\n", msg)
	}
	return &exitErr{code: code, msg: msg}
}
