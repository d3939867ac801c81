package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/drafting"
	"github.com/joseph-ayodele/lawmind/internal/entity"
	"github.com/joseph-ayodele/lawmind/internal/export"
)

func newDraftsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Generate, edit and export drafts",
	}
	cmd.AddCommand(
		newDraftsListCmd(app),
		newDraftsShowCmd(app),
		newDraftsNewCmd(app),
		newDraftsSaveCmd(app),
		newDraftsDeleteCmd(app),
		newDraftsEditCmd(app),
		newDraftsScoreCmd(app),
		newDraftsValidateCmd(app),
		newDraftsExportXLSXCmd(app),
		newDraftsExportCmd(app),
	)
	return cmd
}

func parseDraftID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewAppError("INVALID_INPUT", fmt.Sprintf("invalid draft id %q", arg), common.ErrInvalidInput)
	}
	return id, nil
}

func newDraftsListCmd(app *App) *cobra.Command {
	var cached bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your drafts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var (
				drafts []entity.Draft
				err    error
			)
			if cached {
				if app.Drafts == nil {
					return errNoCache
				}
				drafts, err = app.Drafts.List(ctx)
			} else {
				if err := app.requireAuth(); err != nil {
					return err
				}
				drafts, err = app.Client.Drafts.List(ctx)
				if err == nil && app.Drafts != nil {
					if cerr := app.Drafts.UpsertMany(ctx, drafts); cerr != nil {
						app.logger().Warn("drafts.cache_failed", "error", cerr)
					}
				}
			}
			if err != nil {
				return err
			}
			if len(drafts) == 0 {
				app.printf("No drafts yet. Create one with `lawmind drafts new`.\n")
				return nil
			}

			tw := app.newTable()
			tw.AppendHeader(table.Row{"ID", "Title", "Type", "Case", "Created"})
			for _, d := range drafts {
				tw.AppendRow(table.Row{d.ID, d.Title, d.DocumentType, d.CaseType, shortTime(d.CreatedAt)})
			}
			tw.AppendFooter(table.Row{"", fmt.Sprintf("%d draft(s)", len(drafts))})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "read from the local cache instead of the API")
	return cmd
}

func newDraftsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <draft-id>",
		Short: "Print a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			d, err := app.Client.Drafts.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			app.printf("# %s\n%s / %s, updated %s\n\n%s\n", d.Title, d.DocumentType, d.CaseType, shortTime(d.UpdatedAt), d.Content)
			if len(d.Citations) > 0 {
				app.printf("\nCitations:\n")
				for _, c := range d.Citations {
					app.printf("  - %s %s\n", c["title"], c["citation"])
				}
			}
			return nil
		},
	}
}

func newDraftsNewCmd(app *App) *cobra.Command {
	var (
		form    drafting.Form
		suggest bool
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a new draft",
		Long: "Generate a new draft. Required fields missing from the flags are prompted for.\n\n" +
			"Document types: " + strings.Join(constants.DocumentTypes(), ", ") + "\n" +
			"Case types: " + strings.Join(constants.CaseTypes(), ", ") + "\n" +
			"Courts: " + strings.Join(constants.CourtLevels(), ", ") + "\n" +
			"Tones: " + strings.Join(constants.Tones(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			required := []struct {
				dst   *string
				label string
			}{
				{&form.DocumentType, "Document type"},
				{&form.CaseType, "Case type"},
				{&form.Court, "Court"},
				{&form.Title, "Title"},
				{&form.Facts, "Facts"},
			}
			for _, f := range required {
				v, err := app.valueOrPrompt(*f.dst, f.label)
				if err != nil {
					return err
				}
				*f.dst = v
			}

			req, err := form.Build()
			if err != nil {
				return err
			}
			if suggest && len(req.Sections) == 0 {
				s, err := app.Client.Drafts.SuggestSections(cmd.Context(), req.DocumentType, req.CaseType, req.Facts)
				if err != nil {
					return err
				}
				req.Sections = s.Suggestions
				app.printf("Using suggested sections: %s\n", strings.Join(s.Suggestions, ", "))
			}

			start := time.Now()
			d, err := app.Client.Drafts.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			app.logger().Info("drafts.generated", "draft_id", d.ID, "elapsed_ms", time.Since(start).Milliseconds())
			app.printf("Created draft %d: %s\n", d.ID, d.Title)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.DocumentType, "type", "", "document type")
	f.StringVar(&form.CaseType, "case-type", "", "case type")
	f.StringVar(&form.Court, "court", "", "court level")
	f.StringVar(&form.Title, "title", "", "draft title")
	f.StringVar(&form.Facts, "facts", "", "facts of the case")
	f.StringVar(&form.Petitioner, "petitioner", "", "petitioner name")
	f.StringVar(&form.Respondent, "respondent", "", "respondent name")
	f.StringVar(&form.Sections, "sections", "", "comma separated statutory sections")
	f.StringVar(&form.ReliefSought, "relief", "", "relief sought")
	f.StringVar(&form.Tone, "tone", "", "tone (default formal)")
	f.StringVar(&form.AdditionalContext, "context", "", "additional context")
	f.BoolVar(&suggest, "suggest-sections", false, "ask the server for sections when none are given")
	return cmd
}

func newDraftsSaveCmd(app *App) *cobra.Command {
	var file, content string
	cmd := &cobra.Command{
		Use:   "save <draft-id>",
		Short: "Replace a draft's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			if (file == "") == (content == "") {
				return common.NewAppError("INVALID_INPUT", "pass exactly one of --file or --content", common.ErrInvalidInput)
			}
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				content = string(b)
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			d, err := app.Client.Drafts.Update(cmd.Context(), id, content)
			if err != nil {
				return err
			}
			app.printf("Saved draft %d\n", d.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read the new content from this file")
	cmd.Flags().StringVar(&content, "content", "", "the new content")
	return cmd
}

func newDraftsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <draft-id>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			if err := app.Client.Drafts.Delete(cmd.Context(), id); err != nil {
				return err
			}
			app.printf("Deleted draft %d\n", id)
			return nil
		},
	}
}

func newDraftsEditCmd(app *App) *cobra.Command {
	var action, selected, surrounding string
	cmd := &cobra.Command{
		Use:   "edit <draft-id>",
		Short: "Run an AI edit action on a draft (" + strings.Join(constants.EditActions(), ", ") + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			act, ok := constants.Canonicalize(action, constants.EditActions())
			if !ok {
				return common.NewAppError("INVALID_INPUT",
					"--action must be one of "+strings.Join(constants.EditActions(), ", "), common.ErrInvalidInput)
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			if surrounding == "" {
				d, err := app.Client.Drafts.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				surrounding = d.Content
			}
			resp, err := app.Client.Drafts.Edit(cmd.Context(), entity.EditRequest{
				DraftID:      id,
				Action:       act,
				SelectedText: selected,
				Context:      surrounding,
			})
			if err != nil {
				return err
			}
			app.printf("%s\n", resp.Text())
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", string(constants.EditExplain), "edit action")
	cmd.Flags().StringVar(&selected, "text", "", "the selected passage to act on")
	cmd.Flags().StringVar(&surrounding, "context", "", "surrounding text (defaults to the whole draft)")
	return cmd
}

func newDraftsScoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "score <draft-id>",
		Short: "Score a draft's quality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			q, err := app.Client.Drafts.QualityScore(cmd.Context(), id)
			if err != nil {
				return err
			}

			tw := app.newTable()
			tw.Style().Format.Footer = text.FormatDefault
			tw.AppendHeader(table.Row{"Aspect", "Score"})
			tw.AppendRows([]table.Row{
				{"Structure", q.StructureScore},
				{"Tone", q.ToneScore},
				{"Completeness", q.CompletenessScore},
				{"Legal references", q.LegalReferencesScore},
				{"Grammar", q.GrammarScore},
			})
			tw.AppendFooter(table.Row{"Overall", fmt.Sprintf("%.1f (%s)", q.OverallScore, q.Grade())})
			tw.Render()
			printList(app, "Strengths", q.Strengths)
			printList(app, "Suggestions", q.Suggestions)
			return nil
		},
	}
}

func printList(app *App, title string, items []string) {
	if len(items) == 0 {
		return
	}
	app.printf("\n%s:\n", title)
	for _, s := range items {
		app.printf("  - %s\n", s)
	}
}

func newDraftsValidateCmd(app *App) *cobra.Command {
	var (
		docType string
		data    map[string]string
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Ask which details a draft of the given type is still missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dt, ok := constants.Canonicalize(docType, constants.DocumentTypes())
			if !ok {
				return common.NewAppError("INVALID_INPUT",
					"--type must be one of "+strings.Join(constants.DocumentTypes(), ", "), common.ErrInvalidInput)
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			provided := make(map[string]any, len(data))
			for k, v := range data {
				provided[k] = v
			}
			res, err := app.Client.Drafts.Validate(cmd.Context(), dt, provided)
			if err != nil {
				return err
			}
			if res.Complete() {
				app.printf("All required details are present.\n")
				return nil
			}
			app.printf("Status: %s\n", res.ValidationStatus)
			if len(res.MissingFields) > 0 {
				tw := app.newTable()
				tw.AppendHeader(table.Row{"Field", "Priority", "Question"})
				for _, m := range res.MissingFields {
					tw.AppendRow(table.Row{m.Field, m.Priority, m.Question})
				}
				tw.Render()
			}
			printList(app, "Prompts", res.InteractivePrompts)
			return nil
		},
	}
	cmd.Flags().StringVar(&docType, "type", "", "document type")
	cmd.Flags().StringToStringVar(&data, "data", nil, "provided details as key=value pairs")
	return cmd
}

func newDraftsExportXLSXCmd(app *App) *cobra.Command {
	var (
		out, fromStr, toStr, docType string
		cached, withScores           bool
	)
	cmd := &cobra.Command{
		Use:   "export-xlsx",
		Short: "Export the drafts dashboard to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			filter := export.Filter{}
			var err error
			if filter.From, err = parseDateFlag("from", fromStr); err != nil {
				return err
			}
			if filter.To, err = parseDateFlag("to", toStr); err != nil {
				return err
			}
			if docType != "" {
				dt, ok := constants.Canonicalize(docType, constants.DocumentTypes())
				if !ok {
					return common.NewAppError("INVALID_INPUT",
						"--type must be one of "+strings.Join(constants.DocumentTypes(), ", "), common.ErrInvalidInput)
				}
				filter.DocumentType = dt
			}
			if !cached {
				if err := app.requireAuth(); err != nil {
					return err
				}
			}
			svc, err := app.exportService(cached)
			if err != nil {
				return err
			}

			var scores map[int64]entity.QualityScore
			if withScores {
				if scores, err = app.collectScores(cmd, cached); err != nil {
					return err
				}
			}
			b, err := svc.ExportDraftsXLSX(ctx, filter, scores)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			app.printf("Wrote %s\n", out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "drafts.xlsx", "output XLSX path")
	f.StringVar(&fromStr, "from", "", "only drafts created on or after YYYY-MM-DD")
	f.StringVar(&toStr, "to", "", "only drafts created on or before YYYY-MM-DD")
	f.StringVar(&docType, "type", "", "only drafts of this document type")
	f.BoolVar(&cached, "cached", false, "read drafts from the local cache")
	f.BoolVar(&withScores, "scores", false, "add a sheet with quality scores (one API call per draft)")
	return cmd
}

func (a *App) collectScores(cmd *cobra.Command, cached bool) (map[int64]entity.QualityScore, error) {
	if cached {
		return nil, common.NewAppError("INVALID_INPUT", "--scores needs the API, drop --cached", common.ErrInvalidInput)
	}
	drafts, err := a.Client.Drafts.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	scores := make(map[int64]entity.QualityScore, len(drafts))
	for _, d := range drafts {
		q, err := a.Client.Drafts.QualityScore(cmd.Context(), d.ID)
		if err != nil {
			a.logger().Warn("drafts.score_failed", "draft_id", d.ID, "error", err)
			continue
		}
		scores[d.ID] = *q
	}
	return scores, nil
}

func parseDateFlag(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, common.NewAppError("INVALID_INPUT",
			fmt.Sprintf("invalid --%s date, use YYYY-MM-DD", name), common.ErrInvalidInput)
	}
	return &t, nil
}

func newDraftsExportCmd(app *App) *cobra.Command {
	var (
		format    string
		watermark bool
	)
	cmd := &cobra.Command{
		Use:   "export <draft-id>",
		Short: "Export a draft as " + strings.Join(constants.ExportFormats, " or "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDraftID(args[0])
			if err != nil {
				return err
			}
			fmtName, ok := constants.Canonicalize(format, constants.ExportFormats)
			if !ok {
				return common.NewAppError("INVALID_INPUT",
					"--format must be one of "+strings.Join(constants.ExportFormats, ", "), common.ErrInvalidInput)
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			resp, err := app.Client.Documents.Export(cmd.Context(), entity.ExportRequest{
				DraftID:          id,
				Format:           fmtName,
				IncludeWatermark: watermark,
			})
			if err != nil {
				return err
			}
			app.printf("Exported %s: %s\n", strings.ToUpper(resp.Format), resp.FileURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pdf", "export format")
	cmd.Flags().BoolVar(&watermark, "watermark", false, "include a watermark")
	return cmd
}
