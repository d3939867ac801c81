package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joseph-ayodele/lawmind/internal/common"
)

// GlobalFlags are read before the app is wired, since they shape the logger
// and the config everything else is built from.
type GlobalFlags struct {
	LogFormat string
	Verbose   bool
	APIURL    string
	CacheDSN  string
}

func (g *GlobalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.LogFormat, "log-format", "text", "log format: text or json")
	fs.BoolVarP(&g.Verbose, "verbose", "v", false, "log debug details to stderr")
	fs.StringVar(&g.APIURL, "api-url", "", "API base URL (overrides LAWMIND_API_URL)")
	fs.StringVar(&g.CacheDSN, "cache-dsn", "", "local cache DSN (overrides LAWMIND_CACHE_DSN)")
}

// ParseGlobalFlags extracts the global flags from args, ignoring everything else.
func ParseGlobalFlags(args []string) (GlobalFlags, error) {
	var g GlobalFlags
	fs := pflag.NewFlagSet("lawmind", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	g.register(fs)
	if err := fs.Parse(args); err != nil && err != pflag.ErrHelp {
		return g, err
	}
	return g, nil
}

// Apply lets flags override the environment.
func (g GlobalFlags) Apply(cfg *common.Config) {
	if g.APIURL != "" {
		cfg.API.BaseURL = g.APIURL
	}
	if g.CacheDSN != "" {
		cfg.Cache.DSN = g.CacheDSN
	}
}

// NewLogger builds the CLI logger on w. Text output drops time and level so
// warnings read like normal messages.
func (g GlobalFlags) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.Verbose {
		level = slog.LevelDebug
	}
	if g.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// declareGlobalFlags keeps cobra from rejecting flags main already consumed.
func declareGlobalFlags(root *cobra.Command) {
	var g GlobalFlags
	g.register(root.PersistentFlags())
}
