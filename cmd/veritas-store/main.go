// Command veritas-store inspects and queries a manifest store directly,
// without going through the sealer or verifier.
//
// Usage:
//
//	veritas-store [flags] <command> [args]
//
// Commands:
//
//	get <seal-id>                 look up a record by seal ID
//	find-similar <hex-phash>       find records within the similarity threshold
//	delete <seal-id>               remove a record
//	count                          report the total record count
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"veritas/internal/config"
	"veritas/internal/logging"
	"veritas/internal/manifeststore"
)

var (
	configPath = flag.String("config", "", "path to config file")
	driver     = flag.String("driver", "", "manifest store driver override: sqlite, postgres")
	dsn        = flag.String("dsn", "", "manifest store DSN override")
	threshold  = flag.Int("threshold", 10, "Hamming distance threshold for find-similar")
	limit      = flag.Int("limit", 20, "maximum find-similar results")
)

func main() {
	defer logging.RecoverPanic()

	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-store: load config: %v\n", err)
		os.Exit(1)
	}

	storeDriver := cfg.Store.Driver
	if *driver != "" {
		storeDriver = *driver
	}
	storeDSN := cfg.Store.DSN
	if *dsn != "" {
		storeDSN = *dsn
	}

	store, err := manifeststore.Open(storeDriver, storeDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-store: open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	cmd := flag.Arg(0)

	switch cmd {
	case "get":
		requireArgs(1, "get <seal-id>")
		cmdGet(ctx, store, flag.Arg(1))
	case "find-similar":
		requireArgs(1, "find-similar <hex-phash>")
		cmdFindSimilar(ctx, store, flag.Arg(1))
	case "delete":
		requireArgs(1, "delete <seal-id>")
		cmdDelete(ctx, store, flag.Arg(1))
	case "count":
		cmdCount(ctx, store)
	default:
		fmt.Fprintf(os.Stderr, "veritas-store: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
}

func requireArgs(n int, usageLine string) {
	if flag.NArg() < n+1 {
		fmt.Fprintf(os.Stderr, "veritas-store: usage: %s\n", usageLine)
		os.Exit(2)
	}
}

func cmdGet(ctx context.Context, store manifeststore.Store, sealID string) {
	rec, err := store.GetBySealID(ctx, sealID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-store: %v\n", err)
		os.Exit(1)
	}
	printRecord(rec)
}

func cmdFindSimilar(ctx context.Context, store manifeststore.Store, hexPhash string) {
	phash, err := hex.DecodeString(hexPhash)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-store: invalid hex perceptual hash: %v\n", err)
		os.Exit(2)
	}

	results, err := store.FindSimilar(ctx, phash, *threshold, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-store: %v\n", err)
		os.Exit(1)
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, r := range results {
		fmt.Printf("distance=%-3d ", r.Distance)
		printRecord(r.Record)
	}
}

func cmdDelete(ctx context.Context, store manifeststore.Store, sealID string) {
	if err := store.Delete(ctx, sealID); err != nil {
		fmt.Fprintf(os.Stderr, "veritas-store: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("deleted %s\n", sealID)
}

func cmdCount(ctx context.Context, store manifeststore.Store) {
	count, err := store.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "veritas-store: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(count)
}

func printRecord(rec manifeststore.Record) {
	fmt.Printf("seal_id=%s media_type=%s content_hash=%s created_at=%s\n",
		rec.SealID, rec.MediaType, rec.ContentHashHex, rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: veritas-store [flags] <get|find-similar|delete|count> [args]")
	flag.PrintDefaults()
}
