// Command modsum-index turns one compilation unit's producer output,
// read as JSON, into a single .modsum summary file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hupe1980/modsum"
	"github.com/hupe1980/modsum/compress"
	"github.com/hupe1980/modsum/indexer"
	"github.com/hupe1980/modsum/ir"
	"github.com/hupe1980/modsum/serialize"
	"github.com/hupe1980/modsum/summary"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr *os.File) int {
	fset := flag.NewFlagSet("modsum-index", flag.ContinueOnError)
	fset.SetOutput(stderr)

	output := fset.String("o", "", "output summary path (required)")
	verbose := fset.Bool("v", false, "enable debug logging")
	compressName := fset.String("compress", "none", "outer compression codec for the output ("+joinNames(compress.Names())+")")

	if err := fset.Parse(args); err != nil {
		return 1
	}

	if *output == "" {
		fmt.Fprintln(stderr, "modsum-index: -o <path> is required")
		return 1
	}
	if fset.NArg() != 1 {
		fmt.Fprintln(stderr, "modsum-index: exactly one input IR file is required")
		return 1
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := modsum.NewTextLogger(logLevel).WithModule("modsum-index")
	ctx := context.Background()

	input := fset.Arg(0)
	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintln(stderr, "modsum-index:", err)
		return 1
	}

	var mod ir.Module
	if err := json.Unmarshal(data, &mod); err != nil {
		fmt.Fprintln(stderr, "modsum-index:", err)
		return 1
	}

	idx, err := indexer.Index(mod)
	if err != nil {
		logger.LogIndex(ctx, mod.Name, 0, witnessEntryCount(mod), vtableEntryCount(mod), err)
		fmt.Fprintln(stderr, "modsum-index:", err)
		return 1
	}
	logger.LogIndex(ctx, mod.Name, len(idx.Functions), witnessEntryCount(mod), vtableEntryCount(mod), nil)

	codec, err := compress.ByName(*compressName)
	if err != nil {
		fmt.Fprintln(stderr, "modsum-index:", err)
		return 1
	}

	if err := saveCompressed(codec, *output, idx); err != nil {
		fmt.Fprintln(stderr, "modsum-index:", err)
		return 2
	}

	return 0
}

// saveCompressed writes idx to path through codec. For codec "none" this
// is byte-for-byte what serialize.SaveIndex produces; any other codec
// wraps the same framed bytes, so a consumer must know to decompress
// before calling serialize.DecodeIndex.
func saveCompressed(codec compress.Codec, path string, idx *summary.ModuleSummaryIndex) error {
	data, err := serialize.EncodeIndex(idx)
	if err != nil {
		return err
	}
	compressed, err := codec.Compress(data)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func witnessEntryCount(mod ir.Module) int {
	n := 0
	for _, wt := range mod.WitnessTables {
		n += len(wt.Entries)
	}
	return n
}

func vtableEntryCount(mod ir.Module) int {
	n := 0
	for _, vt := range mod.VTables {
		n += len(vt.Entries)
	}
	return n
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
