package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"runtime"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driving"
	"github.com/custodia-labs/ccdarank/internal/logger"
)

// Ensure ReformatService implements the interface.
var _ driving.ReformatService = (*ReformatService)(nil)

// DefaultVerifySample is the number of documents compared by Verify.
const DefaultVerifySample = 20

// ReformatService pretty-prints top ranked documents and verifies that the
// rewrite kept their content.
type ReformatService struct {
	selector    *Selector
	corpus      driven.Corpus
	sink        driven.DocumentSink
	reformatter driven.Reformatter
	batchSize   int
	memoryLimit int
	memory      MemoryProbe
}

// NewReformatService creates a reformat service. Documents are processed
// batchSize at a time and the run stops before a batch once heap usage
// exceeds memoryLimitMB (0 disables the check).
func NewReformatService(
	index driven.IndexStore,
	corpus driven.Corpus,
	sink driven.DocumentSink,
	reformatter driven.Reformatter,
	batchSize, memoryLimitMB int,
) *ReformatService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ReformatService{
		selector:    NewSelector(index),
		corpus:      corpus,
		sink:        sink,
		reformatter: reformatter,
		batchSize:   batchSize,
		memoryLimit: memoryLimitMB,
		memory:      HeapInUseMB,
	}
}

// SetMemoryProbe replaces the heap usage probe.
func (s *ReformatService) SetMemoryProbe(probe MemoryProbe) {
	if probe != nil {
		s.memory = probe
	}
}

// Reformat writes the top n documents, indented, into outDir under their
// base names.
func (s *ReformatService) Reformat(ctx context.Context, n int, outDir string) (*domain.ReformatSummary, error) {
	if s.sink == nil || s.reformatter == nil {
		return nil, errors.New("reformatter not configured")
	}
	files, err := s.selector.TopFiles(ctx, n)
	if err != nil {
		return nil, err
	}
	logger.Info("Selected top %d files from analysis", len(files))

	summary := &domain.ReformatSummary{Selected: len(files), OutputDir: outDir}
	for start := 0; start < len(files); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			summary.Stopped = true
			return summary, err
		}
		if s.memoryLimit > 0 {
			if used := s.memory(); used > s.memoryLimit {
				logger.Warn("%v: %d MB in use, limit %d MB; stopping", domain.ErrMemoryLimit, used, s.memoryLimit)
				summary.Stopped = true
				break
			}
		}

		end := min(start+s.batchSize, len(files))
		logger.Debug("Reformatting batch %d (%d files)", start/s.batchSize+1, end-start)
		for _, file := range files[start:end] {
			written, err := s.reformatOne(ctx, file, outDir)
			if err != nil {
				logger.Error("Failed to process %s: %v", file, err)
				summary.Failed++
				continue
			}
			summary.Written++
			summary.Bytes += written
		}
		runtime.GC()
	}

	logger.Info("Reformatted %d files (%d failed, %d bytes) into %s",
		summary.Written, summary.Failed, summary.Bytes, outDir)
	return summary, nil
}

func (s *ReformatService) reformatOne(ctx context.Context, file, outDir string) (int64, error) {
	src, err := s.corpus.Open(ctx, file)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := s.sink.Create(ctx, outDir, filepath.Base(file))
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: dst}
	if err := s.reformatter.Reformat(src, cw); err != nil {
		_ = dst.Close()
		return 0, err
	}
	if err := dst.Close(); err != nil {
		return 0, err
	}
	return cw.n, nil
}

// Verify compares up to sample reformatted documents with the corpus
// originals of the same base name. The sample is a shuffle seeded with
// seed, so equal seeds pick equal files.
func (s *ReformatService) Verify(ctx context.Context, outDir string, sample int, seed int64) (*domain.VerifyReport, error) {
	if s.sink == nil || s.reformatter == nil {
		return nil, errors.New("reformatter not configured")
	}
	if sample <= 0 {
		sample = DefaultVerifySample
	}

	names, err := s.sink.List(ctx, outDir)
	if err != nil {
		return nil, fmt.Errorf("list reformatted documents: %w", err)
	}
	originals, err := s.originalsByName(ctx)
	if err != nil {
		return nil, err
	}

	picked := sampleStrings(names, sample, seed)
	report := &domain.VerifyReport{Sampled: len(picked)}
	logger.Info("Comparing %d randomly selected files...", len(picked))

	for _, name := range picked {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		cmp := s.compareOne(ctx, outDir, name, originals)
		switch {
		case cmp.Error != "":
			logger.Error("%s: %s", name, cmp.Error)
			report.Errors++
		case cmp.Match:
			logger.Debug("%s: files are identical", name)
			report.Matches++
		default:
			logger.Error("%s: files differ\n%s", name, cmp.Diff)
			report.Differences++
		}
		report.Results = append(report.Results, cmp)
	}

	logger.Info("Verification: %d checked, %d identical, %d different, %d errors",
		report.Sampled, report.Matches, report.Differences, report.Errors)
	return report, nil
}

func (s *ReformatService) compareOne(
	ctx context.Context,
	outDir, name string,
	originals map[string]string,
) domain.Comparison {
	original, ok := originals[name]
	if !ok {
		return domain.Comparison{File: name, Error: fmt.Sprintf("original file not found: %s", name)}
	}

	orig, err := s.corpus.Open(ctx, original)
	if err != nil {
		return domain.Comparison{File: name, Error: err.Error()}
	}
	defer orig.Close()

	refmt, err := s.sink.Open(ctx, outDir, name)
	if err != nil {
		return domain.Comparison{File: name, Error: err.Error()}
	}
	defer refmt.Close()

	cmp, err := s.reformatter.Compare(orig, refmt)
	if err != nil {
		return domain.Comparison{File: name, Error: err.Error()}
	}
	cmp.File = name
	return cmp
}

// originalsByName maps corpus base names to corpus paths. The first path
// listed wins for duplicate names.
func (s *ReformatService) originalsByName(ctx context.Context) (map[string]string, error) {
	files, err := s.corpus.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		name := filepath.Base(f.Path)
		if _, ok := out[name]; !ok {
			out[name] = f.Path
		}
	}
	return out, nil
}

// sampleStrings returns up to n items of in, picked by a seeded shuffle.
func sampleStrings(in []string, n int, seed int64) []string {
	out := append([]string(nil), in...)
	r := rand.New(rand.NewPCG(uint64(seed), 0)) //nolint:gosec // Sampling, not security.
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if n < len(out) {
		out = out[:n]
	}
	return out
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
