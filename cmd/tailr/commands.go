package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/byteowlz/tailr/internal/config"
	"github.com/byteowlz/tailr/internal/detect"
	"github.com/byteowlz/tailr/internal/resume"
	"github.com/byteowlz/tailr/internal/secrets"
	"github.com/byteowlz/tailr/internal/server"
	"github.com/byteowlz/tailr/internal/tailor"
)

// exitNoBadge is the badge command's "not a job page" answer.
const exitNoBadge = 1

var (
	instructions string
	outDir       string
	serveAddr    string
)

var badgeCmd = &cobra.Command{
	Use:   "badge URL",
	Short: "Report whether a page address looks like a job page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !detect.IsJobPage(args[0]) {
			return &exitErr{code: exitNoBadge}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓")
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Manage the stored résumé",
}

var resumeSetCmd = &cobra.Command{
	Use:   "set FILE",
	Short: "Store a résumé (.pdf, .doc, .docx or .txt)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := resumeStore(cmd)
		if err != nil {
			return err
		}
		rec, err := resume.ReadFile(args[0])
		if err != nil {
			return exitError(ExitInvalidInput, "%v", err)
		}
		if err := store.Save(rec); err != nil {
			return exitError(ExitFileIOError, "%v", err)
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "Stored résumé: %s\n", rec.Describe())
		}
		return nil
	},
}

var resumeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored résumé",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := resumeStore(cmd)
		if err != nil {
			return err
		}
		rec, err := store.Load()
		if errors.Is(err, resume.ErrEmpty) {
			return exitError(ExitNotFound, "no résumé stored; run `tailr resume set FILE` first")
		}
		if err != nil {
			return exitError(ExitFileIOError, "%v", err)
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "%s", rec.Describe())
			if mod, err := store.ModTime(); err == nil {
				fmt.Fprintf(os.Stderr, ", stored %s", mod.Format(time.DateTime))
			}
			fmt.Fprintln(os.Stderr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), rec.Content)
		return nil
	},
}

var resumeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored résumé",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := resumeStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return exitError(ExitFileIOError, "%v", err)
		}
		return nil
	},
}

func resumeStore(cmd *cobra.Command) (*resume.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, exitError(ExitConfigError, "failed to load config: %v", err)
	}
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, exitError(ExitConfigError, "%v", err)
	}
	return resume.NewStore(dir), nil
}

var tailorCmd = &cobra.Command{
	Use:   "tailor URL",
	Short: "Write a résumé and cover letter for the job posting at URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runTailor,
}

func runTailor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return exitError(ExitConfigError, "failed to load config: %v", err)
	}
	quiet = cfg.Logging.Quiet
	log := newLogger(cfg)

	dir, err := cfg.DataDir()
	if err != nil {
		return exitError(ExitConfigError, "%v", err)
	}
	rec, err := resume.NewStore(dir).Load()
	if errors.Is(err, resume.ErrEmpty) {
		return exitError(ExitInvalidInput, "no résumé stored; run `tailr resume set FILE` first")
	}
	if err != nil {
		return exitError(ExitFileIOError, "%v", err)
	}

	det, err := newDetector(cfg, log)
	if err != nil {
		return err
	}
	rep := det.Detect(cmd.Context(), args[0])
	if rep.Err != nil {
		return exitError(ExitNetworkError, "failed to load %s: %v", args[0], rep.Err)
	}
	if !rep.Result.Found {
		return exitError(ExitNotFound, "no job posting found at %s", args[0])
	}

	session := tailor.NewSession()
	session.SetResume(rec.Content)
	session.SetJob(rep.Result.Job)
	session.SetInstructions(instructions)

	account := cfg.Tailor.KeyringAccount
	backend := tailor.NewHTTPBackend(cfg.Tailor.BaseURL, time.Duration(cfg.Tailor.Timeout)*time.Second, func() (string, error) {
		return secrets.ServiceToken(account)
	})

	if !quiet {
		fmt.Fprintf(os.Stderr, "Tailoring for %s at %s...\n", rep.Result.Job.Title, rep.Result.Job.Company)
	}
	if _, err := session.Tailor(cmd.Context(), backend); err != nil {
		var te *tailor.TransportError
		if errors.As(err, &te) {
			return exitError(ExitNetworkError, "%v", err)
		}
		return exitError(ExitProcessError, "%v", err)
	}

	out, err := session.Render()
	if err != nil {
		return exitError(ExitProcessError, "%v", err)
	}

	if outDir == "" {
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return exitError(ExitFileIOError, "failed to create output directory: %v", err)
	}
	path := filepath.Join(outDir, session.Filename())
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return exitError(ExitFileIOError, "failed to write %s: %v", path, err)
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "Saved: %s\n", path)
	}
	return nil
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the tailoring service token in the OS keychain",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Read a token from stdin and store it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return exitError(ExitConfigError, "failed to load config: %v", err)
		}
		if !quiet {
			fmt.Fprint(os.Stderr, "Token: ")
		}
		tok, err := readLine(cmd.InOrStdin())
		if err != nil {
			return exitError(ExitInvalidInput, "failed to read token: %v", err)
		}
		if err := secrets.SetServiceToken(cfg.Tailor.KeyringAccount, tok); err != nil {
			return exitError(ExitConfigError, "%v", err)
		}
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return exitError(ExitConfigError, "failed to load config: %v", err)
		}
		if err := secrets.DeleteServiceToken(cfg.Tailor.KeyringAccount); err != nil {
			return exitError(ExitConfigError, "%v", err)
		}
		return nil
	},
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer detection requests from the browser extension",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return exitError(ExitConfigError, "failed to load config: %v", err)
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}
		log := newLogger(cfg)

		det, err := newDetector(cfg, log)
		if err != nil {
			return err
		}
		if err := server.New(det, cfg.Server, version, log).Run(cmd.Context()); err != nil {
			return exitError(ExitNetworkError, "%v", err)
		}
		return nil
	},
}

func init() {
	tailorCmd.Flags().StringVar(&instructions, "instructions", "", "extra instructions for the tailoring service")
	tailorCmd.Flags().StringVar(&outDir, "out", "", "save the application to this directory instead of printing it")
	serveCmd.Flags().StringVar(&serveAddr, "addr", config.Default().Server.Addr, "listen address")

	resumeCmd.AddCommand(resumeSetCmd, resumeShowCmd, resumeClearCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd)
}
