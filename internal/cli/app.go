package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/lawmind/internal/api"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/export"
	"github.com/joseph-ayodele/lawmind/internal/ingest"
	"github.com/joseph-ayodele/lawmind/internal/repository"
	"github.com/joseph-ayodele/lawmind/internal/session"
)

// App carries everything the commands need. main builds one per process.
type App struct {
	Config   *common.Config
	Client   *api.Client
	Session  *session.Store
	Uploader *ingest.Uploader
	Jobs     repository.ExtractionJobRepository // nil disables job history
	Drafts   repository.DraftRepository         // nil disables the offline cache
	Cache    *repository.DB
	Log      *slog.Logger

	In  io.Reader
	Out io.Writer
	Err io.Writer

	reader *bufio.Reader
}

func (a *App) logger() *slog.Logger {
	if a.Log == nil {
		return slog.Default()
	}
	return a.Log
}

func (a *App) stdout() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) stderr() io.Writer {
	if a.Err == nil {
		return os.Stderr
	}
	return a.Err
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout(), format, args...)
}

// prompt asks for one line of input, returning def when the answer is blank.
func (a *App) prompt(label, def string) (string, error) {
	if a.reader == nil {
		in := a.In
		if in == nil {
			in = os.Stdin
		}
		a.reader = bufio.NewReader(in)
	}
	if def != "" {
		fmt.Fprintf(a.stderr(), "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(a.stderr(), "%s: ", label)
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		if def == "" && err != nil {
			return "", common.NewAppError("INPUT_CLOSED", label+" is required", common.ErrInvalidInput)
		}
		return def, nil
	}
	return line, nil
}

// valueOrPrompt returns v, or asks for it when empty.
func (a *App) valueOrPrompt(v, label string) (string, error) {
	if strings.TrimSpace(v) != "" {
		return v, nil
	}
	return a.prompt(label, "")
}

func (a *App) requireAuth() error {
	return a.Session.RequireAuth()
}

func (a *App) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(a.stdout())
	tw.SetStyle(table.StyleLight)
	return tw
}

// NewRootCmd builds the command tree over app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "lawmind",
		Short:         "Draft, analyze and export legal documents from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := app.Session.Bootstrap(cmd.Context()); err != nil {
				fmt.Fprintf(app.stderr(), "warning: could not read saved session: %v\n", err)
			}
			return nil
		},
	}
	declareGlobalFlags(root)
	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newRegisterCmd(app),
		newWhoamiCmd(app),
		newStatusCmd(app),
		newDraftsCmd(app),
		newDocumentsCmd(app),
		newCitationsCmd(app),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, app *App, args []string) int {
	root := NewRootCmd(app)
	root.SetArgs(args)
	root.SetOut(app.stdout())
	root.SetErr(app.stderr())
	if err := root.ExecuteContext(ctx); err != nil {
		printError(app.stderr(), err)
		return 1
	}
	return 0
}

// ErrorMessage is the single line shown to the user for err.
func ErrorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return common.UserMessage(err)
}

func printError(w io.Writer, err error) {
	if _, werr := fmt.Fprintf(w, "Error: %s\n", ErrorMessage(err)); werr != nil {
		fmt.Printf("Error: %s\n", ErrorMessage(err))
	}
}

// exportService reads drafts from the API, or from the local cache when cached is set.
func (a *App) exportService(cached bool) (*export.Service, error) {
	if cached {
		if a.Drafts == nil {
			return nil, errNoCache
		}
		return export.NewService(a.Drafts, a.logger()), nil
	}
	return export.NewService(a.Client.Drafts, a.logger()), nil
}

var errNoCache = common.NewAppError("NO_CACHE", "the local cache is not configured", common.ErrInvalidInput)
