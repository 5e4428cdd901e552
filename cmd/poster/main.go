// cmd/poster/main.go
//
// Offline QR poster export.
//
//	genba-poster <site id or code> [-o qr-poster.pdf] [--base-url URL]
//
// Reads the same configuration as cmd/web, resolves the site exactly like
// the public page does, and writes the PDF the admin "QR poster" button
// would download.  Useful for printing a batch of posters from a shell.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reglanz/genba/internal/config"
	"github.com/reglanz/genba/internal/database"
	"github.com/reglanz/genba/internal/poster"
	"github.com/reglanz/genba/internal/site"
)

// Flag variables.
var (
	output  string
	baseURL string
	verbose bool
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var cmd = &cobra.Command{
	Use:   "genba-poster <site id or code>",
	Short: "Write the A4 QR poster PDF of one job site.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			l, _ := zap.NewDevelopment()
			zap.ReplaceGlobals(l)
		}
		return run(cmd.Context(), args[0])
	},
	SilenceUsage: true,
}

// init is the initialization function for Cobra which defines flags.
func init() {
	cmd.Flags().StringVarP(&output, "output", "o", "qr-poster.pdf",
		"Output file path.")
	cmd.Flags().StringVar(&baseURL, "base-url", "",
		"Public base URL encoded in the QR code. Defaults to public.base_url.")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Log configuration and database steps to stderr.")
}

func run(ctx context.Context, identifier string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loc, err := time.LoadLocation(cfg.Poster.Timezone)
	if err != nil {
		return fmt.Errorf("poster timezone: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database.ResolvedDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := site.NewResolver(site.NewRepository(db)).Resolve(ctx, identifier)
	if err != nil {
		return fmt.Errorf("%s: %w", identifier, err)
	}

	if baseURL == "" {
		baseURL = cfg.Public.BaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	font := cfg.Poster.FontPath
	if font != "" && !filepath.IsAbs(font) {
		font = filepath.Join(cfg.Paths.Root, font)
	}
	g, err := poster.New(poster.Options{
		BaseURL:     baseURL,
		FontPath:    font,
		Caption:     cfg.Poster.Caption,
		Attribution: cfg.Poster.Attribution,
		Location:    loc,
		CacheSize:   1,
	})
	if err != nil {
		return err
	}
	pdf, err := g.Generate(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, pdf, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes) → %s\n", output, len(pdf), poster.TargetURL(baseURL, s))
	return nil
}
