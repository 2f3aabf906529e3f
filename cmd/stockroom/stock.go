package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/emberline/stockroom/internal/auth"
	"github.com/emberline/stockroom/internal/columns"
	"github.com/emberline/stockroom/internal/filtering"
	"github.com/emberline/stockroom/internal/inventory"
	"github.com/emberline/stockroom/internal/listing"
	"github.com/emberline/stockroom/internal/records"
	"github.com/spf13/cobra"
)

func newStockCommand() *cobra.Command {
	var (
		query           string
		categories      []int64
		classifications []int64
		showHidden      bool
	)
	stockCmd := &cobra.Command{
		Use:   "stock",
		Short: "List stock items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), true, func(a *app) error {
				ctx := cmd.Context()
				categoryLabels, err := a.store.Categories(ctx)
				if err != nil {
					return err
				}
				classificationLabels, err := a.store.Classifications(ctx)
				if err != nil {
					return err
				}
				schema, err := columns.StockSchema(categoryLabels, classificationLabels)
				if err != nil {
					return err
				}
				state := filtering.State{
					Query:           query,
					Categories:      filtering.FullIndexSet(len(categoryLabels)),
					Classifications: filtering.FullIndexSet(len(classificationLabels)),
					ShowHidden:      showHidden,
				}
				if cmd.Flags().Changed("category") {
					state.Categories = filtering.NewIndexSet(categories...)
				}
				if cmd.Flags().Changed("classification") {
					state.Classifications = filtering.NewIndexSet(classifications...)
				}
				items, err := a.store.AllItems(ctx)
				if err != nil {
					return err
				}
				return printListing(cmd.OutOrStdout(), listing.Config{
					Schema:              schema,
					Profile:             filtering.StockProfile,
					CategoryCount:       len(categoryLabels),
					ClassificationCount: len(classificationLabels),
				}, items, state)
			})
		},
	}
	stockCmd.Flags().StringVarP(&query, "query", "q", "", "Search pattern; replaces the facet filters when set")
	stockCmd.Flags().Int64SliceVar(&categories, "category", nil, "Category indexes to include")
	stockCmd.Flags().Int64SliceVar(&classifications, "classification", nil, "Classification indexes to include")
	stockCmd.Flags().BoolVar(&showHidden, "show-hidden", false, "Include hidden items")
	return stockCmd
}

func newShowsCommand() *cobra.Command {
	var (
		query      string
		showClosed bool
	)
	showsCmd := &cobra.Command{
		Use:   "shows",
		Short: "List shows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), true, func(a *app) error {
				schema, err := columns.ShowSchema()
				if err != nil {
					return err
				}
				shows, err := a.store.Shows(cmd.Context(), true)
				if err != nil {
					return err
				}
				return printListing(cmd.OutOrStdout(), listing.Config{
					Schema:  schema,
					Profile: filtering.ShowProfile,
				}, shows, filtering.State{Query: query, ShowHidden: showClosed})
			})
		},
	}
	showsCmd.Flags().StringVarP(&query, "query", "q", "", "Search pattern")
	showsCmd.Flags().BoolVar(&showClosed, "show-closed", false, "Include completed shows")
	return showsCmd
}

func newUpcomingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upcoming",
		Short: "Print the upcoming events listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), true, func(a *app) error {
				shows, err := a.store.Shows(cmd.Context(), false)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), inventory.UpcomingText(inventory.Upcoming(shows)))
				return err
			})
		},
	}
}

// newSessionCommand signs in and prints the presence label whenever it
// changes, until interrupted.
func newSessionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Sign in and report presence until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), true, func(a *app) error {
				ctx, stop := signalContext(cmd.Context())
				defer stop()
				auth.WatchPresence(ctx, a.gate, a.config.PresenceInterval, func(label string) {
					fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n", label)
				})
				return nil
			})
		},
	}
}

func printListing(out io.Writer, cfg listing.Config, source []*records.Record, state filtering.State) error {
	model, err := listing.New(cfg)
	if err != nil {
		return err
	}
	if err := model.Load(source); err != nil {
		return err
	}
	if err := model.RefreshFilter(state); err != nil {
		return err
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, strings.Join(cfg.Schema.Labels(), "\t"))
	for row := range model.VisibleRows() {
		fmt.Fprintln(writer, strings.Join(row.Cells, "\t"))
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d of %d shown\n", model.VisibleCount(), model.Len())
	return err
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
