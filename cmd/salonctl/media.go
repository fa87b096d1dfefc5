package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kylejryan/nail-studio-portal/internal/media"
	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/validate"
)

var (
	mediaSearch   string
	mediaCategory string
	watchEvery    time.Duration
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Browse the media library",
}

var mediaListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the merged media library",
	Long: `List catalog images and bucket objects as one deduplicated library, newest first.

Examples:
  salonctl media ls
  salonctl media ls --category nails
  salonctl media ls -q chrome`,
	RunE: runMediaList,
}

var mediaWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the library each time either source changes",
	RunE:  runMediaWatch,
}

func init() {
	for _, c := range []*cobra.Command{mediaListCmd, mediaWatchCmd} {
		c.Flags().StringVarP(&mediaSearch, "query", "q", "", "Filter by name or path")
		c.Flags().StringVar(&mediaCategory, "category", "", "Filter by category (all, general, hero, nails, designs)")
	}
	mediaWatchCmd.Flags().DurationVar(&watchEvery, "every", 5*time.Second, "Refresh interval")
	mediaCmd.AddCommand(mediaListCmd, mediaWatchCmd)
}

func mediaFilter() (media.Filter, error) {
	f := media.Filter{Search: mediaSearch, Category: models.Category(mediaCategory)}
	return f, validate.FilterCategory(f.Category)
}

func runMediaList(cmd *cobra.Command, _ []string) error {
	f, err := mediaFilter()
	if err != nil {
		fmt.Println(formatError(err.Error()))
		return err
	}
	v, err := studio.Library.Search(cmd.Context(), f)
	if err != nil {
		fmt.Println(formatError("Failed to load the media library"))
		return err
	}
	printView(v)
	return nil
}

func runMediaWatch(cmd *cobra.Command, _ []string) error {
	f, err := mediaFilter()
	if err != nil {
		return err
	}
	cancel := studio.Library.Index.Subscribe(func(v media.View) {
		v.Records = media.Apply(v.Records, f)
		fmt.Println(styleMuted.Render(fmt.Sprintf("version %d", v.Version)))
		printView(v)
	})
	defer cancel()

	studio.Live(cmd.Context(), watchEvery)
	<-cmd.Context().Done()
	return nil
}

func printView(v media.View) {
	if !v.CatalogLoaded || !v.BlobsLoaded {
		fmt.Println(formatWarning("Library is partial; a source has not loaded"))
	}
	if len(v.Records) == 0 {
		fmt.Println(formatWarning("No images found"))
		return
	}
	fmt.Println(formatTitle(fmt.Sprintf("Media (%d)", len(v.Records))))
	rows := make([][]string, 0, len(v.Records))
	for _, r := range v.Records {
		created := "-"
		if r.CreatedAt > 0 {
			created = time.UnixMilli(r.CreatedAt).Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{r.Name, string(r.Category), formatSize(r.Size), created, string(r.Origin), r.ID})
	}
	fmt.Print(renderTable([]column{
		{Header: "Name", Width: 32},
		{Header: "Category", Width: 9},
		{Header: "Size", Width: 9},
		{Header: "Created", Width: 16},
		{Header: "From", Width: 7},
		{Header: "ID"},
	}, rows))
}
