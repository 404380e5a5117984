// Command malloclab replays a trace of malloc/free/realloc operations
// against the allocation engine, checking every heap invariant after each
// one and reporting the first failure.
//
// Trace lines:
//
//	a <id> <size>   allocate <size> bytes, remembered under <id>
//	f <id>          free the allocation remembered under <id>
//	r <id> <size>   reallocate the allocation under <id> to <size> bytes
//
// Blank lines and lines starting with # are ignored.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mohammadshaheer4/malloclab/pkg/malloclab"
)

func main() {
	var (
		providerFlag = flag.String("provider", "slice", "region provider backend: slice or wasm")
		dump         = flag.Bool("dump", false, "dump the heap after every operation")
		debug        = flag.Bool("debug", false, "enable verbose engine/provider tracing")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: malloclab [-provider=slice|wasm] [-dump] [-debug] <trace-file>")
		os.Exit(2)
	}

	cfg := malloclab.DefaultConfig()
	cfg.Debug = *debug
	switch *providerFlag {
	case "wasm":
		cfg.Backend = malloclab.BackendWasm
	case "slice":
		cfg.Backend = malloclab.BackendSlice
	default:
		fmt.Fprintf(os.Stderr, "unknown provider %q\n", *providerFlag)
		os.Exit(2)
	}

	ctx := context.Background()
	alloc, err := malloclab.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "malloclab: %v\n", err)
		os.Exit(1)
	}
	defer alloc.Close()

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "malloclab: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if !replay(alloc, f, *dump) {
		os.Exit(1)
	}
}

func replay(alloc *malloclab.Allocator, f *os.File, dump bool) bool {
	ptrs := make(map[string]uint64)
	scanner := bufio.NewScanner(f)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		ok, err := apply(alloc, ptrs, fields)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %q: %v\n", lineNo, line, err)
			return false
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "line %d: %q: malformed trace line\n", lineNo, line)
			return false
		}

		if dump {
			alloc.DumpHeap(os.Stdout)
		}
		if !alloc.CheckHeap(lineNo) {
			fmt.Fprintf(os.Stderr, "line %d: %q: check_heap failed\n", lineNo, line)
			alloc.DumpHeap(os.Stderr)
			return false
		}
	}
	return scanner.Err() == nil
}

func apply(alloc *malloclab.Allocator, ptrs map[string]uint64, fields []string) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "a":
		if len(fields) != 3 {
			return false, nil
		}
		size, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return false, err
		}
		ptr, err := alloc.Malloc(size)
		if err != nil {
			return false, err
		}
		ptrs[fields[1]] = ptr
		return true, nil

	case "f":
		if len(fields) != 2 {
			return false, nil
		}
		ptr, known := ptrs[fields[1]]
		if !known {
			return false, fmt.Errorf("free of unknown id %q", fields[1])
		}
		alloc.Free(ptr)
		delete(ptrs, fields[1])
		return true, nil

	case "r":
		if len(fields) != 3 {
			return false, nil
		}
		ptr, known := ptrs[fields[1]]
		if !known {
			return false, fmt.Errorf("realloc of unknown id %q", fields[1])
		}
		size, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return false, err
		}
		newPtr, err := alloc.Realloc(ptr, size)
		if err != nil {
			return false, err
		}
		ptrs[fields[1]] = newPtr
		return true, nil

	default:
		return false, nil
	}
}
