package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/tranquility"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

func newAnalyzeCmd(a *app) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "analyze <pattern>...",
		Short: "Analyze saved messages and voice notes",
		Long: `Analyzes every file matching the patterns. Audio files (.webm, .ogg,
.mp3, .wav, ...) go through tone analysis; anything else is read as a typed
message.

Example:
  tranquility analyze 'recordings/**/*.webm' journal/*.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPatterns(args)
			if err != nil {
				return err
			}
			analyzer, err := buildAnalyzer(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			reports, err := analyzeFiles(cmd.Context(), analyzer, paths, concurrency, os.ReadFile, a.logger)
			if err != nil {
				return err
			}
			writeReports(cmd.OutOrStdout(), reports)
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", defaultConcurrency, "Files analyzed at once")
	return cmd
}

// report is the outcome of analyzing one file.
type report struct {
	Path   string
	Result tranquility.AnalysisResult
	Err    error
}

// expandPatterns resolves doublestar patterns into a de-duplicated list of
// files in match order.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files match %s: %w", strings.Join(patterns, " "), tranquility.ErrValidation)
	}
	return paths, nil
}

// analyzeFiles analyzes paths with at most concurrency requests in flight.
// A failing file is recorded in its report and does not stop the others.
// Reports are returned in the order of paths.
func analyzeFiles(ctx context.Context, analyzer tranquility.Analyzer, paths []string, concurrency int, readFile func(string) ([]byte, error), logger *zap.Logger) ([]report, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	reports := make([]report, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			res, err := analyzeFile(ctx, analyzer, path, readFile)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("analysis failed", zap.String("path", path), zap.Error(err))
			}
			reports[i] = report{Path: path, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func analyzeFile(ctx context.Context, analyzer tranquility.Analyzer, path string, readFile func(string) ([]byte, error)) (tranquility.AnalysisResult, error) {
	data, err := readFile(path)
	if err != nil {
		return tranquility.AnalysisResult{}, fmt.Errorf("%w: %w", err, tranquility.ErrValidation)
	}
	if tranquility.IsAudioPath(path) {
		return analyzer.AnalyzeAudio(ctx, tranquility.Audio{
			MIMEType: tranquility.AudioMIMEType(path),
			Data:     data,
		})
	}
	return analyzer.Chat(ctx, strings.TrimSpace(string(data)))
}

func writeReports(w io.Writer, reports []report) {
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, r.Path)
		if r.Err != nil {
			fmt.Fprintf(w, "  error: %s\n", tranquility.PublicMessage(r.Err))
			continue
		}
		if badge := tranquility.MoodBadge(r.Result.MoodLabel, r.Result.Intensity); badge != "" {
			fmt.Fprintf(w, "  %s\n", badge)
		}
		for _, line := range strings.Split(strings.TrimSpace(r.Result.Text), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}
