package main

import (
	"errors"

	"github.com/spf13/cobra"

	"onboardhub/internal/domain"
	"onboardhub/internal/services/documents"
	"onboardhub/internal/workers/docrunner"
)

func scoreCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "score [vendor-id]",
		Short: "Run a risk assessment for a vendor and print the score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			score, err := a.Scoring.Assess(cmd.Context(), args[0], actor)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), score)
		},
	}
	cmd.Flags().StringVar(&actor, "actor", domain.SystemActor, "actor recorded in the audit trail")
	return cmd
}

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [document-id]",
		Short: "Run OCR extraction for a document now",
		Long: `Process claims the queued job for the document, or queues a new one,
and runs it in the foreground. A failed OCR run is stored on the document
and reported as an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			id := args[0]
			err = docrunner.ProcessInline(cmd.Context(), a.Jobs, a.Documents, id)
			if errors.Is(err, domain.ErrNotFound) {
				if _, err = a.Documents.Reprocess(cmd.Context(), id); err == nil {
					err = docrunner.ProcessInline(cmd.Context(), a.Jobs, a.Documents, id)
				}
			}
			if err != nil && !errors.Is(err, documents.ErrOCRFailed) {
				return err
			}
			if err != nil {
				log.WithError(err).Warn("ocr failed")
			}
			doc, gerr := a.Documents.Get(cmd.Context(), id)
			if gerr != nil {
				return gerr
			}
			if perr := printJSON(cmd.OutOrStdout(), doc); perr != nil {
				return perr
			}
			return err
		},
	}
	return cmd
}

func approveCmd() *cobra.Command {
	var (
		reject   bool
		comments string
		actor    string
	)
	cmd := &cobra.Command{
		Use:   "approve [vendor-id]",
		Short: "Record the final approval decision for a vendor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			w, err := a.Vendors.Decide(cmd.Context(), args[0], domain.Decision{
				Approved: !reject,
				Comments: comments,
				Actor:    actor,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), w)
		},
	}
	cmd.Flags().BoolVar(&reject, "reject", false, "reject instead of approve")
	cmd.Flags().StringVarP(&comments, "comments", "m", "", "decision comments")
	cmd.Flags().StringVar(&actor, "actor", domain.SystemActor, "actor recorded in the audit trail")
	return cmd
}
