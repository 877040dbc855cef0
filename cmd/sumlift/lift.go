package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/sumlift/internal/audit"
	"github.com/inodb/sumlift/internal/encode"
	"github.com/inodb/sumlift/internal/engine"
	"github.com/inodb/sumlift/internal/reconcile"
	"github.com/inodb/sumlift/internal/sumstats"
)

// liftOptions carries every flag of the lift command.
type liftOptions struct {
	input     string
	output    string
	unmatched string

	chrCol     string
	posCol     string
	eaCol      string
	refCol     string
	rsidCol    string
	effectCols []string
	eafCols    []string

	sourceFasta string
	targetFasta string
	chainFile   string

	addChrPrefix bool
	bcftools     string
	tempDir      string
	keepTemp     bool
	auditDB      string
}

func newLiftCmd() *cobra.Command {
	var opts liftOptions

	cmd := &cobra.Command{
		Use:   "lift",
		Short: "Liftover a summary statistics file to another genome build",
		Example: `  sumlift lift \
    --input sumstats.txt.gz \
    --output sumstats.hg38.txt.gz \
    --unmatched sumstats.unmatched.txt.gz \
    --chr-col CHR --pos-col POS --ea-col A1 --ref-col A2 \
    --effect-col BETA --eaf-col EAF --rsid-col RSID \
    --source-fasta hg19.fa.gz --target-fasta hg38.fa.gz \
    --chain-file hg19ToHg38.over.chain.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLift(&opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.input, "input", "i", "", "Input summary statistics file (txt or txt.gz)")
	fs.StringVarP(&opts.output, "output", "o", "", "Output lifted summary statistics file")
	fs.StringVarP(&opts.unmatched, "unmatched", "u", "", "Output file for unmatched variants")

	fs.StringVar(&opts.chrCol, "chr-col", "", "Chromosome column name")
	fs.StringVar(&opts.posCol, "pos-col", "", "Position column name")
	fs.StringVar(&opts.eaCol, "ea-col", "", "Effect allele column name")
	fs.StringVar(&opts.refCol, "ref-col", "", "Reference allele column name")
	fs.StringVar(&opts.rsidCol, "rsid-col", "", "RSID column name (optional)")
	fs.StringArrayVar(&opts.effectCols, "effect-col", nil, "Effect column to flip (e.g. Z, BETA); repeatable")
	fs.StringArrayVar(&opts.eafCols, "eaf-col", nil, "Effect allele frequency column to flip (e.g. EAF); repeatable")

	fs.StringVar(&opts.sourceFasta, "source-fasta", "", "Source build reference fasta")
	fs.StringVar(&opts.targetFasta, "target-fasta", "", "Target build reference fasta")
	fs.StringVar(&opts.chainFile, "chain-file", "", "Chain file for liftover")

	fs.BoolVar(&opts.addChrPrefix, "add-chr-prefix", false, `Add "chr" prefix to chromosome names (use if the source fasta has chr1, chr2, ...)`)
	fs.StringVar(&opts.bcftools, "bcftools", "", "bcftools binary (default from config or PATH)")
	fs.StringVar(&opts.tempDir, "temp-dir", "", "Temporary directory for intermediate files")
	fs.BoolVar(&opts.keepTemp, "keep-temp", false, "Keep temporary files")
	fs.StringVar(&opts.auditDB, "audit-db", "", "Optional DuckDB file recording per-variant liftover provenance")

	for _, name := range []string{
		"input", "output", "unmatched",
		"chr-col", "pos-col", "ea-col", "ref-col",
		"source-fasta", "target-fasta", "chain-file",
	} {
		cmd.MarkFlagRequired(name)
	}

	viper.BindPFlag("engine.bcftools", fs.Lookup("bcftools"))
	viper.BindPFlag("engine.add_chr_prefix", fs.Lookup("add-chr-prefix"))

	return cmd
}

func runLift(opts *liftOptions) error {
	cols := sumstats.Columns{
		Chrom:        opts.chrCol,
		Pos:          opts.posCol,
		EffectAllele: opts.eaCol,
		OtherAllele:  opts.refCol,
		RSID:         opts.rsidCol,
		Effect:       opts.effectCols,
		Frequency:    opts.eafCols,
	}

	tempDir := opts.tempDir
	if tempDir != "" {
		if err := os.MkdirAll(tempDir, 0755); err != nil {
			return fmt.Errorf("create temp directory: %w", err)
		}
	} else {
		var err error
		tempDir, err = os.MkdirTemp("", "sumlift_")
		if err != nil {
			return fmt.Errorf("create temp directory: %w", err)
		}
		// A user-supplied temp dir is theirs to keep.
		if !opts.keepTemp {
			defer os.RemoveAll(tempDir)
		}
	}
	logger.Info("using temporary directory", zap.String("path", tempDir))

	// Pass 1: encode the input for the engine. A schema or identity
	// problem aborts here, before any engine call.
	if err := encodeInput(opts, cols, tempDir); err != nil {
		return err
	}

	// External engine: normalize, derive PRESWAP, lift over. Blocking;
	// the reconciler needs both output streams complete before it can
	// combine the swap flags.
	runner := engine.NewRunner(engine.Config{
		Bcftools:    bcftoolsBinary(opts),
		SourceFasta: opts.sourceFasta,
		TargetFasta: opts.targetFasta,
		ChainFile:   opts.chainFile,
	})
	runner.SetLogger(logger)

	result, err := runner.Run(filepath.Join(tempDir, "input.vcf"), tempDir)
	if err != nil {
		return err
	}

	// Pass 2: reconcile the original table against the engine result.
	summary, err := reconcileOutput(opts, cols, result)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nSummary:\n")
	fmt.Fprintf(os.Stderr, "  Total variants: %d\n", summary.Total)
	fmt.Fprintf(os.Stderr, "  Successfully lifted: %d\n", summary.Lifted)
	fmt.Fprintf(os.Stderr, "  Strand flipped: %d\n", summary.StrandFlipped)
	fmt.Fprintf(os.Stderr, "  Allele swapped: %d\n", summary.AlleleSwapped)
	fmt.Fprintf(os.Stderr, "  Failed to lift: %d\n", summary.Failed)
	if summary.Unknown > 0 {
		fmt.Fprintf(os.Stderr, "  Unknown status: %d\n", summary.Unknown)
	}

	return nil
}

// encodeInput runs the first pass over the input table, emitting the
// sorted engine input VCF into tempDir.
func encodeInput(opts *liftOptions, cols sumstats.Columns, tempDir string) error {
	parser, err := sumstats.NewParser(opts.input, cols)
	if err != nil {
		return err
	}
	defer parser.Close()

	vcfPath := filepath.Join(tempDir, "input.vcf")
	out, err := os.Create(vcfPath)
	if err != nil {
		return fmt.Errorf("create engine input vcf: %w", err)
	}

	enc := encode.New(addChrPrefix(opts), opts.sourceFasta)
	enc.SetLogger(logger)

	if _, err := enc.Encode(parser, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// reconcileOutput runs the second pass, streaming the input table into
// the lifted and unmatched outputs. Both outputs are written to temp
// paths and renamed into place only on full success.
func reconcileOutput(opts *liftOptions, cols sumstats.Columns, result *reconcile.EngineResult) (reconcile.Summary, error) {
	var summary reconcile.Summary

	parser, err := sumstats.NewParser(opts.input, cols)
	if err != nil {
		return summary, err
	}
	defer parser.Close()

	lifted, err := sumstats.NewWriter(opts.output)
	if err != nil {
		return summary, err
	}
	unmatched, err := sumstats.NewWriter(opts.unmatched)
	if err != nil {
		lifted.Abort()
		return summary, err
	}

	rc := reconcile.New(result)
	rc.SetLogger(logger)

	var store *audit.Store
	if opts.auditDB != "" {
		store, err = audit.Open(opts.auditDB)
		if err != nil {
			lifted.Abort()
			unmatched.Abort()
			return summary, err
		}
		rc.SetProvenance(store)
	}

	summary, err = rc.Run(parser, lifted, unmatched)
	if err != nil {
		lifted.Abort()
		unmatched.Abort()
		if store != nil {
			store.Close()
		}
		return summary, err
	}

	if store != nil {
		if err := store.Close(); err != nil {
			lifted.Abort()
			unmatched.Abort()
			return summary, fmt.Errorf("close audit store: %w", err)
		}
	}

	if err := lifted.Close(); err != nil {
		unmatched.Abort()
		return summary, err
	}
	return summary, unmatched.Close()
}

func bcftoolsBinary(opts *liftOptions) string {
	if opts.bcftools != "" {
		return opts.bcftools
	}
	if v := viper.GetString("engine.bcftools"); v != "" {
		return v
	}
	return "bcftools"
}

func addChrPrefix(opts *liftOptions) bool {
	return opts.addChrPrefix || viper.GetBool("engine.add_chr_prefix")
}
