package main

import (
	"claimtriage/internal/agent"
	"claimtriage/internal/config"
	"claimtriage/internal/gateway"
	"claimtriage/internal/ingest"
	"claimtriage/internal/logging"
	"claimtriage/internal/tools"
	"claimtriage/internal/types"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const samplePDFName = "sample.pdf"

// demoDocument is the synthetic fallback used when no PDF is supplied or
// found next to the binary. It exists so the pipeline can be exercised
// without any real claim data.
const demoDocument = `MEDICAL REPORT (SYNTHETIC - for demonstration only)
Patient: Jane Doe
DOB: 1978-04-12
Report Date: 2024-11-02
Provider: Dr Amit Sharma, Cardiologist

History: Presented with chest pain and shortness of breath on 2024-10-29.
Assessment: Acute coronary syndrome ruled out. Diagnosis: Stable angina.
Investigations: ECG normal. Troponin negative.
Plan: Start Aspirin 100mg daily and Atorvastatin 40mg nightly. Follow-up in 2 weeks.
Procedure: Stress echocardiogram scheduled for 2024-11-10.`

var (
	// Global flags
	configPath string
	outputPath string
	modelName  string
	quiet      bool
	verbose    bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "triage [document]",
	Short: "claimtriage - autonomous life insurance claims triage",
	Long: `claimtriage runs an autonomous assessment over a life insurance claim
document.

A language model drives the run but never decides anything on its own:
extraction is structured, while completeness scoring and medical risk
assessment are deterministic rule passes over the extracted entities. The
full session trace is written as JSON for audit.

With no argument it falls back to sample.pdf beside the binary, then any
PDF in that folder, then a built-in synthetic demo document.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runTriage,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.DefaultConfig()
		fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: triage.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON path for the full session log")
	rootCmd.Flags().StringVar(&modelName, "model", "", "Override the configured model")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the assessment trace on stdout")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTriage(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if configPath == "" {
		configPath = "triage.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}
	if cfg.LLM.APIKey == "" {
		return errors.New("OPENAI_API_KEY not set; export it or add llm.api_key to the config file")
	}

	if err := logging.Configure(cfg.Logging.Directory, logging.Options{
		Enabled:    cfg.Logging.Enabled || verbose,
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.Format == "json",
	}); err != nil {
		logger.Warn("file logging disabled", zap.Error(err))
	}
	logging.Boot("starting %s %s model=%s", cfg.Name, cfg.Version, cfg.LLM.Model)

	converter := ingest.NewPDFConverter(cfg.Ingest.PDFBinary, cfg.IngestTimeout())

	client := gateway.NewClient(gateway.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLMTimeout(),
	}, converter)

	documentText, err := loadDocument(ctx, converter, args)
	if err != nil {
		return err
	}

	loop := agent.New(client, tools.NewCatalog(client))
	record, runErr := loop.Run(ctx, documentText)

	if !quiet {
		printTrace(record)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session log: %w", err)
	}
	if err := os.WriteFile(cfg.Output.Path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}
	fmt.Printf("\nFull session log saved to: %s\n", cfg.Output.Path)

	if runErr != nil {
		return fmt.Errorf("assessment did not complete: %w", runErr)
	}
	return nil
}

// loadDocument resolves the input document. An explicit path always wins;
// otherwise it looks for sample.pdf beside the binary, then the first PDF in
// that folder, and finally falls back to the built-in demo text.
func loadDocument(ctx context.Context, converter ingest.Converter, args []string) (string, error) {
	if len(args) == 1 {
		fmt.Printf("Loading document: %s\n", args[0])
		text, err := ingest.ReadDocument(ctx, converter, args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return text, nil
	}

	binDir := "."
	if exe, err := os.Executable(); err == nil {
		binDir = filepath.Dir(exe)
	}

	preferred := filepath.Join(binDir, samplePDFName)
	if _, err := os.Stat(preferred); err == nil {
		fmt.Printf("No document provided - loading sample PDF: %s\n\n", preferred)
		return ingest.ReadDocument(ctx, converter, preferred)
	}

	candidates, _ := filepath.Glob(filepath.Join(binDir, "*.pdf"))
	if len(candidates) > 0 {
		sort.Strings(candidates)
		fmt.Printf("No document provided - loading PDF: %s\n\n", candidates[0])
		return ingest.ReadDocument(ctx, converter, candidates[0])
	}

	fmt.Println("No document provided and no PDF found - using built-in demo document.")
	return demoDocument, nil
}

// printTrace renders the session record for a human reader.
func printTrace(record *types.SessionRecord) {
	fmt.Printf("\nSession %s\n", record.ID)
	for i, call := range record.ToolCalls {
		fmt.Printf("  [%d] %s\n", i+1, call.Tool)
	}
	if record.FinalDecision != nil {
		d := record.FinalDecision
		fmt.Printf("\nDecision:   %s\n", d.Decision)
		fmt.Printf("Confidence: %s\n", d.Confidence)
		fmt.Printf("Rationale:  %s\n", d.Rationale)
		for _, item := range d.ActionItems {
			fmt.Printf("  - %s\n", item)
		}
		if len(d.DocumentsRequested) > 0 {
			fmt.Println("Documents requested:")
			for _, doc := range d.DocumentsRequested {
				fmt.Printf("  - %s\n", doc)
			}
		}
	}
	if record.AgentSummary != nil {
		fmt.Printf("\nSummary:\n%s\n", *record.AgentSummary)
	}
}
