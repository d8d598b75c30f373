package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/feed"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/relevance"
)

var (
	bold    = color.New(color.Bold)
	success = color.New(color.FgGreen)
	warning = color.New(color.FgYellow)
	info    = color.New(color.FgCyan)
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, format string, r *relevance.Result) error {
	if format == "json" {
		return printJSON(w, r)
	}

	status := success
	if r.Failed > 0 || r.Skipped > 0 {
		status = warning
	}
	status.Fprintf(w, "Recomputed %d of %d posts", r.Updated, r.Considered)
	fmt.Fprintf(w, " in %s\n", r.Duration.Round(1e6))
	if r.Failed > 0 {
		warning.Fprintf(w, "  %d failed\n", r.Failed)
	}
	if r.Skipped > 0 {
		warning.Fprintf(w, "  %d skipped\n", r.Skipped)
	}
	return nil
}

func printPage(w io.Writer, format string, page *feed.Page) error {
	if format == "json" {
		return printJSON(w, page)
	}

	if len(page.Items) == 0 {
		info.Fprintln(w, "No posts")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	bold.Fprintln(tw, "#\tSCORE\tPOST\tAUTHOR\tPET\tCREATED")
	for i, it := range page.Items {
		author, pet := "-", "-"
		if it.Author != nil {
			author = it.Author.Username
		}
		if it.Pet != nil {
			pet = it.Pet.Name
		}
		fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\t%s\t%s\n",
			i+1, it.Score, it.ID, author, pet, it.CreatedAt.Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d of %d candidates\n", len(page.Items), page.Total)
	if page.HasMore && page.NextCursor != nil {
		info.Fprintf(w, "next: --cursor %s\n", *page.NextCursor)
	}
	return nil
}

func printSignals(w io.Writer, format, postID string, s ranking.Signals) error {
	if format == "json" {
		return printJSON(w, struct {
			PostID string `json:"post_id"`
			ranking.Signals
		}{postID, s})
	}

	bold.Fprintf(w, "Post %s\n", postID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"age", fmt.Sprintf("%.1fh", s.AgeHours)},
		{"recency", formatFactor(s.Recency)},
		{"raw engagement", formatFactor(s.RawEngagement)},
		{"normalized engagement", formatFactor(s.NormalizedEngagement)},
		{"base", formatFactor(s.Base)},
		{"affinity", formatFactor(s.Multipliers.Affinity)},
		{"content type", formatFactor(s.Multipliers.ContentType)},
		{"topic", formatFactor(s.Multipliers.Topic)},
		{"proximity", formatFactor(s.Multipliers.Proximity)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", r[0], r[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	success.Fprintf(w, "  final %s\n", formatFactor(s.Final))
	return nil
}

func formatFactor(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
