package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"resume-feedback/internal/bootstrap"
	"resume-feedback/internal/files"
	"resume-feedback/internal/kv"
	"resume-feedback/internal/resumes"
	"resume-feedback/internal/shared/config"
)

// buildApp is swapped in tests.
var buildApp = func() (*bootstrap.App, error) {
	return bootstrap.Build(config.Load())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "resumectl",
		Short:         "Upload a resume and request AI feedback",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newAnalyzeCmd(), newShowCmd(), newListCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	var company, title, description, path string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the upload and feedback workflow for a local file",
		RunE: func(cmd *cobra.Command, args []string) error {
			for name, v := range map[string]string{"company": company, "title": title, "description": description} {
				if strings.TrimSpace(v) == "" {
					return fmt.Errorf("--%s is required", name)
				}
			}
			app, err := buildApp()
			if err != nil {
				return err
			}

			in := resumes.Input{CompanyName: company, JobTitle: title, JobDescription: description}
			if path != "" {
				f, err := files.FromPath(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				in.File = &f
			}

			out := cmd.OutOrStdout()
			state := app.Workflow.Analyze(cmd.Context(), in, &printer{w: out})
			if state.Prompt != "" {
				return errors.New(state.Prompt)
			}
			if state.Status != resumes.StatusComplete {
				return errors.New(state.Status)
			}
			fmt.Fprintf(out, "record: %s\n", state.RecordID)
			return nil
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "company name")
	cmd.Flags().StringVar(&title, "title", "", "job title")
	cmd.Flags().StringVar(&description, "description", "", "job description")
	cmd.Flags().StringVarP(&path, "file", "f", "", "resume file (PDF)")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored resume record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			raw, err := app.KV.Get(cmd.Context(), resumes.Key(args[0]))
			if errors.Is(err, kv.ErrNotFound) {
				return fmt.Errorf("resume %s not found", args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored resume records",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp()
			if err != nil {
				return err
			}
			return listRecords(cmd.Context(), cmd.OutOrStdout(), app.KV)
		},
	}
}

func listRecords(ctx context.Context, w io.Writer, store kv.Store) error {
	entries, err := store.List(ctx, resumes.KeyPrefix)
	if err != nil {
		return err
	}
	for _, e := range entries {
		var rec resumes.Record
		if err := json.Unmarshal([]byte(e.Value), &rec); err != nil {
			continue
		}
		reviewed := "pending"
		if rec.Feedback != "" && rec.Feedback != nil {
			reviewed = "reviewed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.ID, rec.CompanyName, rec.JobTitle, reviewed)
	}
	return nil
}

func printJSON(w io.Writer, raw string) error {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printer writes workflow statuses as they happen.
type printer struct {
	w io.Writer
}

func (p *printer) SetProcessing(bool) {}

func (p *printer) SetStatus(status string) {
	c := color.New(color.FgCyan)
	switch {
	case strings.HasPrefix(status, "Error:"):
		c = color.New(color.FgRed)
	case status == resumes.StatusComplete:
		c = color.New(color.FgGreen)
	}
	c.Fprintln(p.w, status)
}

func (p *printer) Prompt(message string) {
	color.New(color.FgYellow).Fprintln(p.w, message)
}
