package engine

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/sumlift/internal/reconcile"
	"github.com/inodb/sumlift/internal/vcf"
)

// Config locates the engine binary and its reference inputs.
type Config struct {
	Bcftools    string // binary name or path, default "bcftools"
	SourceFasta string // source-build reference, used by norm and +liftover
	TargetFasta string // target-build reference
	ChainFile   string // chain mapping from source to target build
}

// Runner invokes bcftools as blocking subprocesses. Each step is a full
// barrier: the next starts only after the previous completed, and any
// non-zero exit aborts the run with a *Failure. No timeouts, no retries.
type Runner struct {
	cfg    Config
	logger *zap.Logger
}

// NewRunner creates a runner for the given engine configuration.
func NewRunner(cfg Config) *Runner {
	if cfg.Bcftools == "" {
		cfg.Bcftools = "bcftools"
	}
	return &Runner{cfg: cfg, logger: zap.NewNop()}
}

// SetLogger sets the logger for engine command tracing.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run executes the full engine pipeline on a plain-text input VCF in
// tempDir and returns the parsed result: compress and index, normalize
// against the source reference, derive PRESWAP, lift over, sort, and
// parse both output streams.
func (r *Runner) Run(inputVCF, tempDir string) (*reconcile.EngineResult, error) {
	compressed := filepath.Join(tempDir, "input.vcf.gz")
	if err := r.compress(inputVCF, compressed); err != nil {
		return nil, err
	}
	if err := r.index(compressed); err != nil {
		return nil, err
	}

	if err := r.normalize(compressed, tempDir); err != nil {
		return nil, err
	}

	lifted := filepath.Join(tempDir, "lifted.vcf.gz")
	rejected, err := r.liftover(compressed, lifted)
	if err != nil {
		return nil, err
	}

	return r.parseResult(lifted, rejected)
}

// compress rewrites a VCF as BGZF via bcftools view.
func (r *Runner) compress(in, out string) error {
	return r.run("view", "-Oz", "-o", out, in)
}

// index creates a tabix index next to a BGZF VCF.
func (r *Runner) index(path string) error {
	return r.run("index", "-t", "-f", path)
}

// normalize runs bcftools norm with REF-mismatch swapping (-c s) against
// the source reference, then rewrites the input with PRESWAP derived per
// record: the normalizer swapped the alleles exactly when the original
// effect allele now sits in REF.
func (r *Runner) normalize(inputVCF, tempDir string) error {
	normalized := filepath.Join(tempDir, "normalized.vcf.gz")
	if err := r.run("norm", "-c", "s", "-f", r.cfg.SourceFasta, "-Oz", "-o", normalized, inputVCF); err != nil {
		return err
	}

	annotated := filepath.Join(tempDir, "with_preswap.vcf")
	if err := annotatePreSwap(normalized, annotated); err != nil {
		return err
	}

	// Replace the engine input with the annotated stream.
	if err := r.compress(annotated, inputVCF); err != nil {
		return err
	}
	os.Remove(annotated)
	os.Remove(normalized)
	return r.index(inputVCF)
}

// annotatePreSwap streams the normalized VCF and writes it back out with
// a PRESWAP tag on every record.
func annotatePreSwap(in, out string) error {
	parser, err := vcf.NewParser(in)
	if err != nil {
		return fmt.Errorf("parse normalized vcf: %w", err)
	}
	defer parser.Close()

	outFile, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create annotated vcf: %w", err)
	}
	defer outFile.Close()

	w := vcf.NewWriter(outFile)

	// Re-emit the original meta lines minus the fileformat line the
	// writer adds itself.
	var meta []string
	for _, line := range parser.Header() {
		if strings.HasPrefix(line, "##fileformat=") || strings.HasPrefix(line, "#CHROM") {
			continue
		}
		meta = append(meta, line)
	}
	if err := w.WriteHeader(meta); err != nil {
		return err
	}

	for {
		v, err := parser.Next()
		if err != nil {
			return err
		}
		if v == nil {
			break
		}

		preswap := "0"
		if orig := v.InfoString(vcf.InfoOrigA1); orig != "" && orig == v.Ref {
			preswap = "1"
		}
		v.Info[vcf.InfoPreSwap] = preswap

		if err := w.Write(v); err != nil {
			return err
		}
	}

	return w.Flush()
}

// liftover runs the bcftools +liftover plugin, then sorts and indexes
// the successful stream. Returns the reject stream path.
func (r *Runner) liftover(inputVCF, outputVCF string) (string, error) {
	rejected := strings.Replace(outputVCF, ".vcf", ".rejected.vcf", 1)

	err := r.run("+liftover", "--no-version", "-Oz", "-o", outputVCF, inputVCF, "--",
		"-s", r.cfg.SourceFasta,
		"-f", r.cfg.TargetFasta,
		"-c", r.cfg.ChainFile,
		"--reject", rejected,
		"-O", "z")
	if err != nil {
		return "", err
	}

	info, err := os.Stat(outputVCF)
	if err != nil {
		return "", &Failure{Step: "+liftover", Err: fmt.Errorf("no output produced: %w", err)}
	}
	if info.Size() == 0 {
		return "", &Failure{Step: "+liftover", Err: fmt.Errorf("output %s is empty", outputVCF)}
	}

	// +liftover can emit out-of-order records; sort to a temp path and
	// rename over the original only once sorting succeeded.
	sorted := outputVCF + ".sorting.tmp"
	if err := r.run("sort", "-Oz", "-o", sorted, outputVCF); err != nil {
		return "", err
	}
	if err := os.Rename(sorted, outputVCF); err != nil {
		return "", fmt.Errorf("rename sorted vcf: %w", err)
	}
	if err := r.index(outputVCF); err != nil {
		return "", err
	}

	return rejected, nil
}

// parseResult reads the success and reject streams into a typed result.
// Flags absent from a record's INFO are false.
func (r *Runner) parseResult(liftedVCF, rejectedVCF string) (*reconcile.EngineResult, error) {
	result := &reconcile.EngineResult{
		Lifted:   make(map[string]reconcile.LiftedVariant),
		Rejected: make(map[string]struct{}),
	}

	parser, err := vcf.NewParser(liftedVCF)
	if err != nil {
		return nil, fmt.Errorf("parse lifted vcf: %w", err)
	}
	defer parser.Close()

	for {
		v, err := parser.Next()
		if err != nil {
			return nil, err
		}
		if v == nil {
			break
		}
		result.Lifted[v.ID] = reconcile.LiftedVariant{
			Chrom: v.Chrom,
			Pos:   v.Pos,
			Ref:   v.Ref,
			Alt:   v.Alt,
			Swaps: reconcile.SwapState{
				PreSwap:    v.InfoFlag(vcf.InfoPreSwap),
				AlleleSwap: v.InfoFlag(vcf.InfoSwap),
				StrandFlip: v.InfoFlag(vcf.InfoFlip),
			},
		}
	}

	// The reject stream may be absent when nothing was rejected.
	if _, err := os.Stat(rejectedVCF); err == nil {
		rej, err := vcf.NewParser(rejectedVCF)
		if err != nil {
			return nil, fmt.Errorf("parse rejected vcf: %w", err)
		}
		defer rej.Close()

		for {
			v, err := rej.Next()
			if err != nil {
				return nil, err
			}
			if v == nil {
				break
			}
			result.Rejected[v.ID] = struct{}{}
		}
	}

	r.logger.Info("engine output parsed",
		zap.Int("lifted", len(result.Lifted)),
		zap.Int("rejected", len(result.Rejected)))

	return result, nil
}

// run executes one bcftools invocation, capturing stderr for diagnostics.
func (r *Runner) run(args ...string) error {
	cmd := exec.Command(r.cfg.Bcftools, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug("running engine command",
		zap.String("cmd", r.cfg.Bcftools+" "+strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		return &Failure{Step: args[0], Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}

	// bcftools norm reports its swap statistics on stderr; surface them.
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		r.logger.Info("engine output", zap.String("step", args[0]), zap.String("stderr", msg))
	}
	return nil
}
