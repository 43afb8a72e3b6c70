// Command modsum-opt is the link-time driver: it reads the .modsum
// summaries emitted for each compilation unit, merges them into one
// index, runs whole-program liveness, and writes the annotated result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/modsum"
	"github.com/hupe1980/modsum/compress"
	"github.com/hupe1980/modsum/liveness"
	"github.com/hupe1980/modsum/merge"
	"github.com/hupe1980/modsum/serialize"
	"github.com/hupe1980/modsum/store"
	modminio "github.com/hupe1980/modsum/store/minio"
	mods3 "github.com/hupe1980/modsum/store/s3"
	"github.com/hupe1980/modsum/summary"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fset := flag.NewFlagSet("modsum-opt", flag.ContinueOnError)
	fset.SetOutput(stderr)

	output := fset.String("o", "", "output summary path (required)")
	traceTarget := fset.String("lto-print-live-trace", "", "print the liveness trace for this resolved symbol name")
	verbose := fset.Bool("v", false, "enable debug logging")

	compressName := fset.String("compress", "none", "outer compression codec for the inputs and output ("+joinNames(compress.Names())+")")
	storeKind := fset.String("store", "local", "blob store backend for inputs and output: local, s3, or minio")
	bucket := fset.String("bucket", "", "bucket name (s3/minio stores)")
	prefix := fset.String("prefix", "", "key prefix within the bucket (s3/minio stores)")
	minioEndpoint := fset.String("minio-endpoint", "", "MinIO/S3-compatible endpoint host:port (minio store)")
	minioAccessKey := fset.String("minio-access-key", "", "MinIO access key (minio store)")
	minioSecretKey := fset.String("minio-secret-key", "", "MinIO secret key (minio store)")
	minioSecure := fset.Bool("minio-secure", true, "use HTTPS against the MinIO endpoint (minio store)")
	maxConcurrency := fset.Int64("prefetch-concurrency", 0, "max concurrent input fetches, 0 for the store default")
	maxBytesPerSec := fset.Int64("prefetch-rate-limit", 0, "max aggregate input fetch bytes/sec, 0 for unlimited")

	if err := fset.Parse(args); err != nil {
		return 1
	}

	if *output == "" {
		fmt.Fprintln(stderr, "modsum-opt: -o <path> is required")
		return 1
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := modsum.NewTextLogger(logLevel).WithModule("modsum-opt")

	ctx := context.Background()

	inputs := fset.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(stderr, "modsum-opt:", modsum.ErrNoInputs)
		return 1
	}

	codec, err := compress.ByName(*compressName)
	if err != nil {
		fmt.Fprintln(stderr, "modsum-opt:", err)
		return 1
	}

	bs, err := openStore(ctx, storeConfig{
		kind:           *storeKind,
		bucket:         *bucket,
		prefix:         *prefix,
		minioEndpoint:  *minioEndpoint,
		minioAccessKey: *minioAccessKey,
		minioSecretKey: *minioSecretKey,
		minioSecure:    *minioSecure,
	})
	if err != nil {
		fmt.Fprintln(stderr, "modsum-opt:", err)
		return 1
	}

	indices, err := loadInputs(ctx, bs, codec, inputs, store.PrefetchConfig{
		MaxConcurrency: *maxConcurrency,
		MaxBytesPerSec: *maxBytesPerSec,
	})
	if err != nil {
		fmt.Fprintln(stderr, "modsum-opt:", err)
		if errors.Is(err, modsum.ErrInputMissing) || modsum.IsFormatError(err) {
			return 1
		}
		return 2
	}

	combined, err := merge.Merge(indices...)
	logger.LogMerge(ctx, len(indices), countFunctions(combined), err)
	if err != nil {
		fmt.Fprintln(stderr, "modsum-opt:", err)
		if modsum.IsMergeError(err) {
			return 1
		}
		return 2
	}

	result, err := liveness.Run(combined, liveness.Config{TraceTarget: *traceTarget})
	if err != nil {
		fmt.Fprintln(stderr, "modsum-opt:", err)
		return 2
	}
	logger.LogLiveness(ctx, len(liveness.Roots(combined)), result.LiveCount, len(combined.Functions))

	if *traceTarget != "" {
		logger.LogTrace(ctx, *traceTarget, result.Trace != nil)
		if result.Trace != nil {
			if err := result.Trace.DumpTo(stdout, liveness.ResolvedNames(combined)); err != nil {
				fmt.Fprintln(stderr, "modsum-opt:", err)
				return 2
			}
		}
	}

	if err := saveOutput(ctx, bs, codec, *output, combined); err != nil {
		logger.LogSerialize(ctx, *output, 0, err)
		fmt.Fprintln(stderr, "modsum-opt:", err)
		return 2
	}
	logger.LogSerialize(ctx, *output, 0, nil)

	return 0
}

// storeConfig gathers the flags needed to construct a store.BlobStore,
// kept separate from run's flat flag list so openStore stays testable on
// its own.
type storeConfig struct {
	kind           string
	bucket         string
	prefix         string
	minioEndpoint  string
	minioAccessKey string
	minioSecretKey string
	minioSecure    bool
}

// openStore resolves cfg into the backend a link step reads its inputs
// from and writes its output to. "local" (the default) treats paths as
// plain filesystem paths, exactly the prior behavior; "s3" and "minio"
// let a link step pull summaries uploaded by distributed build workers
// directly from object storage instead of staging them to disk first.
func openStore(ctx context.Context, cfg storeConfig) (store.BlobStore, error) {
	switch cfg.kind {
	case "", "local":
		return store.NewLocalStore(""), nil

	case "s3":
		if cfg.bucket == "" {
			return nil, fmt.Errorf("-bucket is required for -store=s3")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		return mods3.NewStore(client, cfg.bucket, cfg.prefix), nil

	case "minio":
		if cfg.bucket == "" {
			return nil, fmt.Errorf("-bucket is required for -store=minio")
		}
		if cfg.minioEndpoint == "" {
			return nil, fmt.Errorf("-minio-endpoint is required for -store=minio")
		}
		client, err := minio.New(cfg.minioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.minioAccessKey, cfg.minioSecretKey, ""),
			Secure: cfg.minioSecure,
		})
		if err != nil {
			return nil, fmt.Errorf("creating MinIO client: %w", err)
		}
		return modminio.NewStore(client, cfg.bucket, cfg.prefix), nil

	default:
		return nil, fmt.Errorf("unknown -store %q: want local, s3, or minio", cfg.kind)
	}
}

func loadInputs(ctx context.Context, bs store.BlobStore, codec compress.Codec, paths []string, cfg store.PrefetchConfig) ([]*summary.ModuleSummaryIndex, error) {
	blobs, err := store.Prefetch(ctx, bs, paths, cfg)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("one of %d inputs: %w", len(paths), modsum.ErrInputMissing)
		}
		return nil, err
	}

	indices := make([]*summary.ModuleSummaryIndex, 0, len(paths))
	for i, raw := range blobs {
		data, err := codec.Decompress(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
		idx, err := serialize.DecodeIndex(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paths[i], err)
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

func saveOutput(ctx context.Context, bs store.BlobStore, codec compress.Codec, name string, idx *summary.ModuleSummaryIndex) error {
	data, err := serialize.EncodeIndex(idx)
	if err != nil {
		return err
	}
	compressed, err := codec.Compress(data)
	if err != nil {
		return err
	}
	return bs.Put(ctx, name, compressed)
}

func countFunctions(idx *summary.ModuleSummaryIndex) int {
	if idx == nil {
		return 0
	}
	return len(idx.Functions)
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
