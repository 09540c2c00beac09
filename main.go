// sheetxml converts a translation spreadsheet into Android strings.xml resources.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"google.golang.org/api/option"

	"github.com/minios-linux/sheetxml/android"
	"github.com/minios-linux/sheetxml/config"
	"github.com/minios-linux/sheetxml/googleauth"
	"github.com/minios-linux/sheetxml/i18n"
	"github.com/minios-linux/sheetxml/pipeline"
	"github.com/minios-linux/sheetxml/settings"
	"github.com/minios-linux/sheetxml/sheet"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+i18n.T(format)+"\n", args...)
}

// consoleLogger reports pipeline progress through the colored helpers.
type consoleLogger struct{}

func (consoleLogger) Infof(format string, args ...any)    { logInfo(format, args...) }
func (consoleLogger) Warnf(format string, args ...any)    { logWarning(format, args...) }
func (consoleLogger) Successf(format string, args ...any) { logSuccess(format, args...) }

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

// options holds every command-line override. Empty values leave the
// configuration file and environment in charge.
type options struct {
	configPath    string
	output        string
	project       string
	xlsx          string
	clientSecrets string
	token         string
	interactive   bool
}

func (o *options) overrides() config.Overrides {
	return config.Overrides{
		OutputDir:     o.output,
		ProjectDir:    o.project,
		ClientSecrets: o.clientSecrets,
		TokenFile:     o.token,
		XLSXFile:      o.xlsx,
	}
}

// loadConfig resolves defaults, the config file, the environment and flags,
// in that order.
func (o *options) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg = cfg.With(o.overrides())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *options) tokenStore() (*settings.Store, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return settings.NewStore(cfg.TokenFile)
}

// interruptContext is canceled on Ctrl+C.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sheetxml",
		Short: "Generate Android strings.xml files from a Google spreadsheet",
		Long: `sheetxml: generate Android strings.xml files from a Google spreadsheet.

Reads a translation sheet (first column: resource key, one column per
language, two header rows), writes one values-<lang>/strings.xml per
language and a values/strings.xml for the default language. Comments and
translatable="false" resources from the project's existing
values/strings.xml are carried into the default file.

Running sheetxml without a command is the same as 'sheetxml generate'.

Commands:
  generate    Fetch the sheet and write strings.xml files
  status      Show statistics of the generated files
  init        Write a starter .sheetxml.yaml
  auth        Manage the Google sign-in`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), opts, cmd.InOrStdin(), cmd.ErrOrStderr())
		},
	}

	// Global persistent flags, inherited by all subcommands
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.FileName, "Configuration file")
	pf.StringVar(&opts.clientSecrets, "client-secrets", "", "OAuth client secrets JSON (default from config)")
	pf.StringVar(&opts.token, "token", "", "Token cache file (default $XDG_DATA_HOME/sheetxml/token.json)")
	addGenerateFlags(root, opts)

	root.AddCommand(
		newGenerateCmd(opts),
		newStatusCmd(opts),
		newInitCmd(opts),
		newAuthCmd(opts),
		newVersionCmd(),
	)

	return root
}

func addGenerateFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Output directory (default from config)")
	f.StringVarP(&opts.project, "project", "p", "", "Android project directory to merge from")
	f.StringVar(&opts.xlsx, "xlsx", "", "Read the sheet from a local .xlsx workbook instead of Google Sheets")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "Ask for the default language and project directory")
}

func main() {
	i18n.Init("")

	ctx, cancel := interruptContext()
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logWarning("Interrupted")
			os.Exit(130)
		}
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sheetxml version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// generate
// ---------------------------------------------------------------------------

func newGenerateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetch the sheet and write strings.xml files",
		Long: `Fetch the translation sheet and write one strings.xml per language.

Signs in with Google on first use (a browser window opens) and caches the
token. Output layout:

  <output>/values-<lang>/strings.xml   every configured language
  <output>/values/strings.xml          default language + merged project lines

Examples:
  sheetxml generate
  sheetxml generate -o build/res -p ~/src/MyApp
  sheetxml generate --xlsx translations.xlsx
  sheetxml generate --interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), opts, cmd.InOrStdin(), cmd.ErrOrStderr())
		},
	}
	addGenerateFlags(cmd, opts)
	return cmd
}

func runGenerate(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.interactive {
		if cfg, err = config.Prompt(in, out, cfg); err != nil {
			return err
		}
	}

	src, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}

	_, err = pipeline.Run(ctx, cfg, src, consoleLogger{})
	return err
}

// newSource picks the local workbook when one is configured and the Sheets
// API otherwise, signing in first if needed.
func newSource(ctx context.Context, cfg config.Config) (sheet.Source, error) {
	if cfg.XLSXFile != "" {
		logInfo("Reading workbook %s", cfg.XLSXFile)
		return &sheet.XLSXSource{Path: cfg.XLSXFile, Range: cfg.Range}, nil
	}

	oauthCfg, err := googleauth.ConfigFromFile(cfg.ClientSecrets)
	if err != nil {
		return nil, err
	}
	store, err := settings.NewStore(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	logInfo("Getting credentials...")
	tok, err := googleauth.EnsureToken(ctx, oauthCfg, store, printAuthURL)
	if err != nil {
		return nil, err
	}
	logSuccess("Done")

	ts := googleauth.TokenSource(ctx, oauthCfg, store, tok)
	return &sheet.GoogleSource{
		SpreadsheetID: cfg.SpreadsheetID,
		Range:         cfg.Range,
		Options:       []option.ClientOption{option.WithTokenSource(ts)},
	}, nil
}

func printAuthURL(authURL string) {
	fmt.Fprintf(os.Stderr, "  %s\n\n", i18n.T("Opening browser for Google sign-in..."))
	fmt.Fprintf(os.Stderr, "  %s\n", i18n.T("If the browser doesn't open, visit:"))
	fmt.Fprintf(os.Stderr, "  %s%s%s\n\n", colorGreen, authURL, colorReset)
	fmt.Fprintf(os.Stderr, "  %s\n", i18n.T("Waiting for authorization..."))
}

// ---------------------------------------------------------------------------
// status (read-only: statistics of generated files)
// ---------------------------------------------------------------------------

func newStatusCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [output-dir]",
		Short: "Show statistics of the generated files",
		Long: `Show per-language statistics of a generated resource directory.

Counts string resources, comments and non-translatable entries and lists
keys of values/strings.xml that a language file lacks. Does not modify any
files. Without an argument the configured output directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			} else {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				dir = cfg.OutputDir
			}
			return runStatus(cmd.ErrOrStderr(), dir)
		},
	}
	return cmd
}

func runStatus(w io.Writer, dir string) error {
	rep, err := pipeline.Inspect(dir)
	if err != nil {
		return err
	}

	abs, _ := filepath.Abs(dir)
	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Output"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Directory:"), abs)

	if rep.Default == nil && len(rep.Languages) == 0 {
		fmt.Fprintln(w)
		logInfo("No strings.xml files found. Run 'sheetxml generate' first.")
		return nil
	}

	total := 0
	if rep.Default != nil {
		total = rep.Default.Strings - rep.Default.NonTranslatable
		fmt.Fprintf(w, "  %-12s %d (%d %s, %d %s)\n", i18n.T("Default:"),
			rep.Default.Strings, rep.Default.Comments, i18n.T("comments"),
			rep.Default.NonTranslatable, i18n.T("not translatable"))
	}
	fmt.Fprintln(w)

	width := langColumnWidth(rep.Languages)
	fmt.Fprintf(w, "%-*s %-8s %-8s %-8s %s\n", width, i18n.T("Lang"), i18n.T("Strings"), i18n.T("Empty"), i18n.T("Missing"), i18n.T("Progress"))
	fmt.Fprintln(w, strings.Repeat("─", width+48))
	for _, st := range rep.Languages {
		done := st.Strings - st.Empty
		percent := 100
		if total > 0 {
			percent = done * 100 / total
		}
		fmt.Fprintf(w, "%-*s %-8d %-8d %-8d %s  %s\n", width, st.Qualifier,
			st.Strings, st.Empty, len(st.Missing), progressBar(percent, 20), languageName(st.Qualifier))
	}
	fmt.Fprintln(w)

	for _, st := range rep.Languages {
		if len(st.Missing) > 0 {
			logWarning("%s: missing %s", st.Qualifier, strings.Join(st.Missing, ", "))
		}
	}
	return nil
}

func langColumnWidth(stats []pipeline.LanguageStats) int {
	width := len("Lang")
	for _, st := range stats {
		width = max(width, len(st.Qualifier))
	}
	return width
}

// progressBar renders a colored bar followed by the percentage.
func progressBar(percent, width int) string {
	percent = min(max(percent, 0), 100)
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}
	return fmt.Sprintf("%s%s%s%s %3d%%", color,
		strings.Repeat("█", filled), strings.Repeat("░", width-filled), colorReset, percent)
}

// languageName returns the English and native names of an Android locale
// qualifier, e.g. "zh-rCN" -> "Chinese (China) / 中文 (中国)".
func languageName(qualifier string) string {
	tag, err := language.Parse(android.ToStandard(qualifier))
	if err != nil {
		return ""
	}
	english := display.Tags(language.English).Name(tag)
	native := display.Self.Name(tag)
	if native == "" || native == english {
		return english
	}
	return english + " / " + native
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .sheetxml.yaml",
		Long: `Write a configuration file holding the built-in defaults.

Edit the spreadsheet ID, range and language table to match your sheet.
An existing file is left untouched unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if force {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return err
				}
			}
			if err := config.WriteFile(path, config.Default().With(opts.overrides())); err != nil {
				return err
			}
			logSuccess("Created %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	return cmd
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Google sign-in",
		Long: `Manage the cached Google OAuth token used to read the spreadsheet.

The client secrets file comes from the Google Cloud console
(OAuth client ID, type "Desktop app"). The token is cached in
$XDG_DATA_HOME/sheetxml/token.json unless --token says otherwise.

Examples:
  sheetxml auth login                       Sign in with the browser
  sheetxml auth status                      Show the cached token
  sheetxml auth logout                      Remove the cached token`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(opts),
		newAuthLogoutCmd(opts),
		newAuthStatusCmd(opts),
	)

	return cmd
}

func newAuthLoginCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			oauthCfg, err := googleauth.ConfigFromFile(cfg.ClientSecrets)
			if err != nil {
				return err
			}
			store, err := settings.NewStore(cfg.TokenFile)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Google Authentication"), colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			fmt.Fprintln(os.Stderr)

			tok, err := googleauth.LoginFlow(cmd.Context(), oauthCfg, printAuthURL)
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			if err := store.Save(settings.FromOAuth2(tok)); err != nil {
				return fmt.Errorf("token obtained but failed to save: %w", err)
			}
			logSuccess("Authentication successful! Token saved to %s", store.Path)
			return nil
		},
	}
}

func newAuthLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the cached token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.tokenStore()
			if err != nil {
				return err
			}
			if err := store.Remove(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			logSuccess("Stored token removed")
			return nil
		},
	}
}

func newAuthStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the cached token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.tokenStore()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "  %-8s %s\n", "Google", googleauth.Status(store))
			fmt.Fprintf(cmd.ErrOrStderr(), "  %-8s %s\n", "", store.Path)
			return nil
		},
	}
}
