package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/loqalabs/podcaster/internal/language"
	"github.com/loqalabs/podcaster/internal/podcast"
	"github.com/loqalabs/podcaster/internal/runtime"
	"github.com/spf13/cobra"
)

var (
	genLanguage  string
	genText      string
	genFile      string
	genSummarize bool
	historyLimit int

	generateCmd = &cobra.Command{
		Use:   "generate [TEXT]",
		Short: "Generate audio from text, a file or stdin",
		Example: `  podcaster generate "Hello there"
  podcaster generate --file article.txt --summarize --language "French"
  cat notes.md | podcaster generate --file -`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerate,
	}

	languagesCmd = &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range language.Entries() {
				fmt.Fprintf(w, "%s\t%s\n", e.Code, e.Label)
			}
			_ = w.Flush()
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent generations",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
)

func init() {
	generateCmd.Flags().StringVarP(&genLanguage, "language", "l", language.Default(), "language label or code")
	generateCmd.Flags().StringVarP(&genText, "text", "t", "", "text to speak")
	generateCmd.Flags().StringVarP(&genFile, "file", "f", "", "read text from a file, - for stdin")
	generateCmd.Flags().BoolVarP(&genSummarize, "summarize", "s", false, "summarize the text before speaking")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pipeline, err := runtime.NewPipeline(ctx, cfg, newLogger())
	if err != nil {
		return err
	}
	defer pipeline.Close()

	res := pipeline.Service.Generate(ctx, podcast.Request{Language: genLanguage, Text: text, Summarize: genSummarize})
	fmt.Fprintln(cmd.OutOrStdout(), res.Status)
	if !res.OK() {
		if errors.Is(res.Err, podcast.ErrEmptyInput) {
			return nil
		}
		return fmt.Errorf("generation failed (%s)", podcast.Kind(res.Err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Path)
	return nil
}

func readText(stdin io.Reader, args []string) (string, error) {
	sources := 0
	for _, set := range []bool{len(args) > 0, genText != "", genFile != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return "", errors.New("pass text as an argument, --text or --file, not several")
	}

	switch {
	case len(args) > 0:
		return args[0], nil
	case genText != "":
		return genText, nil
	case genFile == "-":
		data, err := io.ReadAll(stdin)
		return string(data), err
	case genFile != "":
		data, err := os.ReadFile(genFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", genFile, err)
		}
		return string(data), nil
	default:
		return "", nil
	}
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.New("history is disabled in the configuration")
	}

	pipeline, err := runtime.NewPipeline(cmd.Context(), cfg, newLogger())
	if err != nil {
		return err
	}
	defer pipeline.Close()

	entries, err := pipeline.History.ListRecent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tLANG\tSUMMARY\tCHARS\tRESULT\tDURATION")
	for _, e := range entries {
		result := "ok"
		if !e.Succeeded {
			result = e.ErrorKind
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n",
			humanize.Time(e.CreatedAt),
			strings.TrimSpace(e.Code),
			e.Summarized,
			humanize.Comma(int64(e.TextChars)),
			result,
			e.Duration.Round(time.Millisecond))
	}
	return w.Flush()
}
