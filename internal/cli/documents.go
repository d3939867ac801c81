package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
	"github.com/joseph-ayodele/lawmind/internal/ingest"
)

func newDocumentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Upload documents for OCR extraction",
	}
	cmd.AddCommand(
		newDocumentsUploadCmd(app),
		newDocumentsStatusCmd(app),
		newDocumentsWatchCmd(app),
		newDocumentsDraftCmd(app),
		newDocumentsExportsCmd(app),
	)
	return cmd
}

// progress prints job updates from concurrent watches one line at a time.
type progress struct {
	app *App
	mu  sync.Mutex
}

func (p *progress) update(path string, job entity.ExtractionJob) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.app.stderr(), "%s [%s] %s\n", displayPath(path), job.ID, describeJob(job))
}

func displayPath(path string) string {
	if path == "" {
		return "-"
	}
	if wd, err := os.Getwd(); err == nil && strings.HasPrefix(path, wd+string(os.PathSeparator)) {
		return strings.TrimPrefix(path, wd+string(os.PathSeparator))
	}
	return path
}

// describeJob is the one-line human form of a job state.
func describeJob(job entity.ExtractionJob) string {
	switch job.Status {
	case constants.JobStatusCompleted:
		return "completed"
	case constants.JobStatusFailed:
		switch job.FailureKind {
		case constants.FailureTimeout:
			return fmt.Sprintf("timed out after %d checks", job.Attempts)
		case constants.FailureProbe:
			return "status check failed: " + job.Reason
		default:
			return "failed: " + job.Reason
		}
	default:
		if job.Attempts == 0 {
			return "processing"
		}
		return fmt.Sprintf("processing (check %d)", job.Attempts)
	}
}

func newDocumentsUploadCmd(app *App) *cobra.Command {
	var opts ingest.BatchOptions
	cmd := &cobra.Command{
		Use:   "upload <file|dir>...",
		Short: "Upload PDF, JPG or PNG files (directories are walked)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			if opts.Wait {
				p := &progress{app: app}
				opts.OnUpdate = p.update
			}
			opts.SkipHidden = true

			var (
				results []ingest.UploadResult
				total   ingest.DirStats
				files   []string
			)
			for _, arg := range args {
				info, err := os.Stat(arg)
				if err != nil || !info.IsDir() {
					files = append(files, arg)
					continue
				}
				res, stats, err := app.Uploader.UploadDirectory(cmd.Context(), arg, opts)
				results = append(results, res...)
				addStats(&total, stats)
				if err != nil {
					return err
				}
			}
			if len(files) > 0 {
				res, stats, err := app.Uploader.UploadFiles(cmd.Context(), files, opts)
				results = append(results, res...)
				addStats(&total, stats)
				if err != nil {
					return err
				}
			}

			renderUploads(app, results, opts.Wait)
			app.printf("%d uploaded, %d already uploaded, %d failed\n",
				total.Succeeded-total.Deduplicated, total.Deduplicated, total.Failed)
			if total.Failed > 0 {
				return common.NewAppError("UPLOAD_FAILED", fmt.Sprintf("%d file(s) failed", total.Failed), common.ErrInternal)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.Wait, "wait", "w", false, "wait for extraction to finish")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "upload even if the same file was uploaded before")
	return cmd
}

func addStats(dst *ingest.DirStats, s ingest.DirStats) {
	dst.Scanned += s.Scanned
	dst.Matched += s.Matched
	dst.Succeeded += s.Succeeded
	dst.Deduplicated += s.Deduplicated
	dst.Failed += s.Failed
}

func renderUploads(app *App, results []ingest.UploadResult, waited bool) {
	if len(results) == 0 {
		return
	}
	tw := app.newTable()
	tw.AppendHeader(table.Row{"File", "Document", "Status"})
	for _, r := range results {
		status := "uploaded"
		switch {
		case r.Err != "":
			status = "error: " + r.Err
		case r.Deduplicated:
			status = "already uploaded"
		case waited:
			status = describeJob(r.Job)
		}
		doc := r.DocumentID
		if doc == "" {
			doc = "-"
		}
		tw.AppendRow(table.Row{displayPath(r.SourcePath), doc, status})
	}
	tw.Render()
}

func newDocumentsStatusCmd(app *App) *cobra.Command {
	var (
		follow, resume bool
		limit          int
	)
	cmd := &cobra.Command{
		Use:   "status [document-id]",
		Short: "Show extraction status; without an id lists recent uploads",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch {
			case resume:
				if err := app.requireAuth(); err != nil {
					return err
				}
				p := &progress{app: app}
				jobs, err := app.Uploader.Resume(ctx, p.update)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					app.printf("No pending extractions.\n")
					return nil
				}
				renderJobs(app, jobs)
				return nil

			case len(args) == 1:
				if err := app.requireAuth(); err != nil {
					return err
				}
				id := strings.TrimSpace(args[0])
				if follow {
					job, err := app.Uploader.WaitFor(ctx, id, func(job entity.ExtractionJob) {
						fmt.Fprintf(app.stderr(), "[%s] %s\n", job.ID, describeJob(job))
					})
					renderJobs(app, []entity.ExtractionJob{job})
					return err
				}
				doc, err := app.Client.Documents.GetUploaded(ctx, id)
				if err != nil {
					return err
				}
				job := doc.ToJob(id)
				app.printf("Document %s (%s): %s\n", id, doc.Filename, describeJob(job))
				if job.Status == constants.JobStatusCompleted && len(doc.ExtractedData) > 0 {
					app.printf("%s\n", doc.ExtractedData)
				}
				return nil

			default:
				if app.Jobs == nil {
					return errNoCache
				}
				jobs, err := app.Jobs.List(ctx, limit)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					app.printf("No uploads recorded.\n")
					return nil
				}
				renderJobs(app, jobs)
				return nil
			}
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "poll until the extraction finishes")
	cmd.Flags().BoolVar(&resume, "resume", false, "re-watch every extraction left pending by an earlier run")
	cmd.Flags().IntVar(&limit, "limit", 20, "how many recent uploads to list")
	return cmd
}

func renderJobs(app *App, jobs []entity.ExtractionJob) {
	tw := app.newTable()
	tw.AppendHeader(table.Row{"Document", "File", "Status", "Updated"})
	for _, j := range jobs {
		updated := "-"
		if !j.UpdatedAt.IsZero() {
			updated = j.UpdatedAt.Local().Format(time.DateTime)
		}
		tw.AppendRow(table.Row{j.ID, displayPath(j.SourcePath), describeJob(j), updated})
	}
	tw.Render()
}

func newDocumentsWatchCmd(app *App) *cobra.Command {
	var (
		force    bool
		debounce time.Duration
		existing bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Upload files as they appear in a directory until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			p := &progress{app: app}
			app.printf("Watching %s (Ctrl-C to stop)\n", strings.Join(args, ", "))
			return app.Uploader.WatchDirectory(cmd.Context(), ingest.WatchConfig{
				Roots:       args,
				InitialScan: existing,
				Debounce:    debounce,
				SkipHidden:  true,
			}, force, p.update)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "upload even if the same file was uploaded before")
	cmd.Flags().BoolVar(&existing, "existing", false, "also upload files already in the directory")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "wait this long for writes to settle")
	return cmd
}

func newDocumentsDraftCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "draft <document-id>",
		Short: "Create a draft from an uploaded document's extracted data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			resp, err := app.Client.Documents.CreateDraftFromUpload(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			app.printf("Created draft %d\n", resp.DraftID)
			return nil
		},
	}
}

func newDocumentsExportsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exports",
		Short: "List exported files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			exports, err := app.Client.Documents.ListExports(cmd.Context())
			if err != nil {
				return err
			}
			if len(exports) == 0 {
				app.printf("No exports yet.\n")
				return nil
			}
			tw := app.newTable()
			tw.AppendHeader(table.Row{"Format", "Created", "URL"})
			for _, e := range exports {
				tw.AppendRow(table.Row{strings.ToUpper(e.Format), shortTime(e.CreatedAt), e.FileURL})
			}
			tw.Render()
			return nil
		},
	}
}
