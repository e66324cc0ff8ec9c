// Command tempo-bookgen builds an opening book database from a text
// file of opening lines.
//
// Each input line is a sequence of coordinate moves from the start
// position, optionally prefixed with an integer weight:
//
//	20 e2e4 e7e5 g1f3 b8c6
//	d2d4 d7d5 c2c4
//
// Lines starting with # are comments.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hailam/tempo/internal/book"
)

func main() {
	in := flag.String("in", "", "file of opening lines (default stdin)")
	out := flag.String("out", "", "book database directory (required)")
	defaultWeight := flag.Uint("weight", 1, "weight for lines without an explicit one")
	flag.Parse()

	if *out == "" {
		fmt.Fprintln(os.Stderr, "bookgen: -out is required")
		os.Exit(2)
	}

	input := os.Stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bookgen: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		input = f
	}

	b, err := book.Open(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookgen: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	lines, skipped := 0, 0
	scanner := bufio.NewScanner(input)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)

		weight := uint32(*defaultWeight)
		if w, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
			weight = uint32(w)
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}

		if err := b.AddLine(fields, weight); err != nil {
			fmt.Fprintf(os.Stderr, "bookgen: line %d: %v\n", lineNo, err)
			skipped++
			continue
		}
		lines++
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "bookgen: read: %v\n", err)
		os.Exit(1)
	}

	positions, err := b.Size()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookgen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d lines (%d skipped), book now holds %d positions\n", lines, skipped, positions)
}
