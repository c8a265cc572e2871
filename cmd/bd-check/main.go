// bd-check is a diagnostic tool for validating filter files. It loads
// the file the same way bd-server does, so a file that passes bd-check
// is a file the server will accept: magic, header checksum, geometry
// consistency and exact payload length are all verified.
//
// On success it prints a JSON description of the filter to stdout:
//
//	bd-check -f refs/bin_bloom.bf
//	{"path":"refs/bin_bloom.bf","layout":"ibf","bins":64,...}
//
// Exit codes:
//
//	0: the file is valid.
//	1: the file is corrupted, truncated or unreadable.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"bindir.lopezb.com/internal/binning/directory"
)

type report struct {
	Path         string `json:"path"`
	Layout       string `json:"layout"`
	Bins         uint32 `json:"bins"`
	HashFuncs    uint8  `json:"hash_functions"`
	KmerSize     uint8  `json:"kmer_size"`
	Bits         uint64 `json:"bits"`
	BlockBitSize uint64 `json:"block_bit_size"`
	Blocks       uint64 `json:"blocks"`
	FileBytes    int64  `json:"file_bytes"`
	Fingerprint  string `json:"fingerprint"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("bd-check", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	filePath := flags.StringP("file", "f", "bloom.bf", "Path to the filter file")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	d, err := directory.Load(*filePath, logger)
	if err != nil {
		fmt.Fprintf(stderr, "[err] %v\n", err)
		return 1
	}

	info, err := os.Stat(*filePath)
	if err != nil {
		fmt.Fprintf(stderr, "[err] %v\n", err)
		return 1
	}

	out := report{
		Path:         *filePath,
		Layout:       d.Kind().String(),
		Bins:         d.Bins(),
		HashFuncs:    d.HashFuncs(),
		KmerSize:     d.KmerSize(),
		Bits:         d.Bits(),
		BlockBitSize: d.BlockBitSize(),
		Blocks:       d.Blocks(),
		FileBytes:    info.Size(),
		Fingerprint:  strconv.FormatUint(d.Fingerprint(), 16),
	}

	payload, err := json.Marshal(out)
	if err != nil {
		fmt.Fprintf(stderr, "[err] %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%s\n", payload)
	return 0
}
