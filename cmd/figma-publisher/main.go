package main

import (
	"fmt"
	"os"

	figmapublisher "github.com/hellenic-development/figma-asset-publisher"
	"github.com/hellenic-development/figma-asset-publisher/pkg/config"
	"github.com/hellenic-development/figma-asset-publisher/pkg/figma"
	"github.com/hellenic-development/figma-asset-publisher/pkg/spaces"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = figma.Version

var (
	figmaURL   string
	token      string
	outputDir  string
	configFile string
	skipUpload bool
	useCDN     bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "figma-publisher",
		Short: "Extract Figma assets and publish them to DigitalOcean Spaces",
		Long:  "A tool that pulls vector icons and bitmap images out of a Figma file, uploads them to a Space, and rewrites the document to reference the published URLs",
		Run:   run,
	}

	rootCmd.Flags().StringVarP(&figmaURL, "url", "u", "", "Figma file URL (required)")
	rootCmd.Flags().StringVarP(&token, "token", "t", "", "Figma Personal Access Token (defaults to FIGMA_API_TOKEN)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "figma-output", "Output directory for downloaded assets and documents")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML config file overlaying environment variables")
	rootCmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "Extract and download only; do not touch Spaces")
	rootCmd.Flags().BoolVar(&useCDN, "use-cdn", false, "Rewrite references to CDN edge URLs instead of origin URLs")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.MarkFlagRequired("url")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("figma-publisher version %s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	cyan.Println("\n🎨 Figma Asset Publisher")
	cyan.Println("=========================")
	cyan.Println()

	cfg := config.Load()
	if configFile != "" {
		if err := cfg.ApplyFile(configFile); err != nil {
			red.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
	if token != "" {
		cfg.FigmaToken = token
	}
	if err := cfg.Validate(!skipUpload); err != nil {
		red.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel, verbose)

	opts := figmapublisher.Options{
		AccessToken: cfg.FigmaToken,
		FileURL:     figmaURL,
		OutputDir:   outputDir,
		SkipUpload:  skipUpload,
		UseCDN:      useCDN,
		Logger:      &logrusLogger{log},
	}
	if !skipUpload {
		opts.Spaces = &spaces.Config{
			AccessKey: cfg.DOAccessKey,
			SecretKey: cfg.DOSecretKey,
			Region:    cfg.DORegion,
			SpaceName: cfg.DOSpaceName,
		}
	}

	result, err := figmapublisher.Run(opts)
	if err != nil {
		red.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	stats := result.Stats
	cyan.Println("\n📊 Extraction Summary:")
	fmt.Printf("  • File: %s\n", result.FileName)
	fmt.Printf("  • Nodes scanned: %d\n", stats.NodesScanned)
	fmt.Printf("  • Groups analyzed: %d (%d empty)\n", stats.GroupsAnalyzed, stats.EmptyGroupsSkipped)
	fmt.Printf("  • Vector children from groups: %d\n", stats.VectorChildrenFound)
	fmt.Printf("  • Standalone vectors: %d\n", stats.StandaloneVectors)
	fmt.Printf("  • Excluded: %d TEXT, %d shape/mask\n", stats.TextNodesFiltered, stats.ImageShapesFiltered)
	fmt.Printf("  • SVGs downloaded: %d\n", result.SVGsDownloaded)
	fmt.Printf("  • Images downloaded: %d\n", result.ImagesDownloaded)
	if !skipUpload {
		fmt.Printf("  • Files uploaded: %d\n", result.FilesUploaded)
	}

	green.Printf("\n💾 Document: %s\n", result.DocumentPath)
	if result.RewrittenPath != "" {
		green.Printf("💾 Rewritten document: %s\n", result.RewrittenPath)
	}
	green.Printf("💾 Report: %s\n", result.ReportPath)
	green.Println("\n✨ Done")
}

// newLogger builds the logrus logger the pipeline reports through.
func newLogger(level string, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	if verbose {
		log.SetLevel(logrus.DebugLevel)
		return log
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// logrusLogger adapts logrus to figmapublisher.Logger.
type logrusLogger struct {
	log *logrus.Logger
}

func (l *logrusLogger) Infof(format string, args ...any)  { l.log.Infof(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...any)  { l.log.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...any) { l.log.Errorf(format, args...) }
