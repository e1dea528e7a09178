package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hrygo/timexkit/internal/observability"
	"github.com/hrygo/timexkit/plugin/timex/value"
	"github.com/hrygo/timexkit/server/service/resolve"
	"github.com/hrygo/timexkit/store"
)

var (
	resolveReq resolve.Request

	resolveCmd = &cobra.Command{
		Use:   "resolve TIMEX...",
		Short: "Resolve expressions against a reference instant",
		Long: `Resolve one mention. Several arguments are alternative readings of the same
mention, e.g. "timexkit resolve XXXX-WXX-3 --policy future".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, rc, release, err := cliService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			req := resolveReq
			req.Timex = args
			resp, err := svc.Resolve(observability.WithRequestContext(cmd.Context(), rc), &req)
			if err != nil {
				return err
			}
			return printOutput(cmd, resp, func(w io.Writer) { writeRecords(w, resp.Records, resp.Errors) })
		},
	}

	batchFile string

	batchCmd = &cobra.Command{
		Use:   "batch",
		Short: "Resolve a YAML or JSON list of requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := readRequests(cmd, batchFile)
			if err != nil {
				return err
			}
			svc, rc, release, err := cliService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			items, err := svc.ResolveBatch(observability.WithRequestContext(cmd.Context(), rc), reqs)
			if err != nil {
				return err
			}
			return printOutput(cmd, items, func(w io.Writer) {
				for i, item := range items {
					fmt.Fprintf(w, "# %d\n", i)
					if item.Error != nil {
						fmt.Fprintf(w, "error\t%s\t%s\n", item.Error.Code, item.Error.Message)
						continue
					}
					writeRecords(w, item.Response.Records, item.Response.Errors)
				}
			})
		},
	}

	normalizeCmd = &cobra.Command{
		Use:   "normalize TIMEX...",
		Short: "Print the canonical form of each expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, rc, release, err := cliService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			out, err := svc.Normalize(observability.WithRequestContext(cmd.Context(), rc), args)
			if err != nil {
				return err
			}
			return printOutput(cmd, out, func(w io.Writer) {
				for _, s := range out {
					fmt.Fprintln(w, s)
				}
			})
		},
	}

	mergeA, mergeB []string

	mergeCmd = &cobra.Command{
		Use:       "merge union|intersect|combine",
		Short:     "Apply a set operation to two groups of alternatives",
		Example:   "  timexkit merge combine --a XXXX-06 --b 2021",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(resolve.SetOpUnion), string(resolve.SetOpIntersect), string(resolve.SetOpCombine)},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, rc, release, err := cliService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			out, err := svc.Merge(observability.WithRequestContext(cmd.Context(), rc), resolve.SetOp(args[0]), mergeA, mergeB)
			if err != nil {
				return err
			}
			return printOutput(cmd, out, func(w io.Writer) {
				for _, s := range out {
					fmt.Fprintln(w, s)
				}
			})
		},
	}

	grammarCmd = &cobra.Command{
		Use:   "grammar",
		Short: "Describe the supported grammar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, release, err := cliService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			g := svc.Grammar()
			return printOutput(cmd, g, func(w io.Writer) {
				fmt.Fprintf(w, "version:   %s\n", g.Version)
				fmt.Fprintf(w, "modifiers: %s\n", strings.Join(g.Modifiers, " "))
				fmt.Fprintf(w, "policies:  %s\n", strings.Join(g.Policies, " "))
				fmt.Fprintf(w, "types:     %s\n", strings.Join(g.Types, " "))
			})
		},
	}

	historyUID, historyTimex, historyCode string
	historyLimit, historyOffset           int
	historyPrune                          time.Duration

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List or prune stored resolutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, rc, release, err := cliService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			ctx := observability.WithRequestContext(cmd.Context(), rc)
			if historyPrune > 0 {
				st := svc.Store()
				if st == nil {
					return resolve.ErrHistoryDisabled
				}
				n, err := st.PruneHistory(ctx, historyPrune)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries\n", n)
				return nil
			}

			find := &store.FindHistory{Limit: historyLimit, Offset: historyOffset}
			if historyUID != "" {
				find.UID = &historyUID
			}
			if historyTimex != "" {
				find.Timex = &historyTimex
			}
			if historyCode != "" {
				find.ErrorCode = &historyCode
			}
			list, err := svc.History(ctx, find)
			if err != nil {
				return err
			}
			return printOutput(cmd, list, func(w io.Writer) {
				for _, h := range list {
					ref := time.Unix(h.ReferenceTs, 0).UTC().Format(time.RFC3339)
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", h.UID, ref, h.Policy, h.Timex, h.Candidates, h.ErrorCode)
				}
			})
		},
	}
)

func init() {
	f := resolveCmd.Flags()
	f.StringVar(&resolveReq.Reference, "reference", "", "reference instant, RFC 3339 or 2006-01-02[ 15:04[:05]] (default now)")
	f.StringVar(&resolveReq.RangeStart, "range-start", "", "start of the reference range")
	f.StringVar(&resolveReq.RangeEnd, "range-end", "", "end of the reference range")
	f.StringVar(&resolveReq.Filter, "filter", "", `CEL predicate over records, e.g. 'type == "date"'`)
	f.BoolVar(&resolveReq.Chronological, "chronological", false, "order records by start")

	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "-", `request list file, "-" for stdin`)

	mergeCmd.Flags().StringSliceVar(&mergeA, "a", nil, "left alternatives")
	mergeCmd.Flags().StringSliceVar(&mergeB, "b", nil, "right alternatives")
	_ = mergeCmd.MarkFlagRequired("a")
	_ = mergeCmd.MarkFlagRequired("b")

	hf := historyCmd.Flags()
	hf.StringVar(&historyUID, "uid", "", "entry uid")
	hf.StringVar(&historyTimex, "timex", "", "exact timex text")
	hf.StringVar(&historyCode, "error-code", "", "error code of a partial failure")
	hf.IntVar(&historyLimit, "limit", 20, "maximum entries")
	hf.IntVar(&historyOffset, "offset", 0, "entries to skip")
	hf.DurationVar(&historyPrune, "prune", 0, "delete entries older than this instead of listing")

	rootCmd.AddCommand(resolveCmd, batchCmd, normalizeCmd, mergeCmd, grammarCmd, historyCmd)
}

// readRequests decodes a request list. YAML is a superset of JSON, so both are accepted.
func readRequests(cmd *cobra.Command, path string) ([]*resolve.Request, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var reqs []*resolve.Request
	if err := yaml.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, errors.Wrap(err, "failed to decode requests")
	}
	return reqs, nil
}

func printOutput(cmd *cobra.Command, v any, text func(io.Writer)) error {
	format, _ := cmd.Flags().GetString("output")
	w := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		text(tw)
		return tw.Flush()
	}
	return errors.Errorf("unknown output format %q", format)
}

func writeRecords(w io.Writer, recs []value.Record, failed []resolve.ItemError) {
	for _, r := range recs {
		v := r.Value
		if v == "" {
			v = r.Start + " .. " + r.End
		}
		flags := r.Mod
		if r.Approximate {
			flags = strings.TrimSpace(flags + " approx")
		}
		if r.IsAmbiguous {
			flags = strings.TrimSpace(flags + " ambiguous")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Timex, r.Type, v, flags)
	}
	for _, e := range failed {
		fmt.Fprintf(w, "%s\terror\t%s\t%s\n", e.Timex, e.Code, e.Message)
	}
}
