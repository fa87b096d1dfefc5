package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"

	"github.com/kylejryan/nail-studio-portal/internal/models"
	"github.com/kylejryan/nail-studio-portal/internal/s3io"
	"github.com/kylejryan/nail-studio-portal/internal/upload"
)

var uploadCategory string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Add an image to the gallery",
	Long: `Upload one image into the gallery, showing transfer progress.

Examples:
  salonctl upload ./chrome-french.jpg
  salonctl upload ./hero.png --category hero`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadCategory, "category", string(models.CategoryGeneral), "Gallery category (general, hero, nails, designs)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		fmt.Println(formatError("Cannot open " + args[0]))
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	name := filepath.Base(args[0])
	req := upload.Request{
		File: &upload.LocalFile{
			Name:        name,
			Size:        info.Size(),
			ContentType: s3io.ContentTypeFor(name),
			Body:        f,
		},
		Progress: func(pct int) {
			fmt.Printf("\r%s %3d%%", bar.ViewAs(float64(pct)/100), pct)
		},
	}

	rec, err := studio.Gallery.Add(cmd.Context(), models.Category(uploadCategory), req)
	fmt.Println()
	if err != nil {
		fmt.Println(formatError(err.Error()))
		return err
	}
	fmt.Println(formatSuccess(fmt.Sprintf("Uploaded %s (%s) as %s", rec.Name, formatSize(rec.Size), rec.ID)))
	fmt.Println(styleMuted.Render(rec.URL))
	return nil
}
