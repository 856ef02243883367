package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/alas-vra/internal/ast"
	"github.com/dshills/alas-vra/internal/codegen"
	"github.com/dshills/alas-vra/internal/validator"
	"github.com/dshills/alas-vra/internal/vra"
)

func main() {
	var input string
	var output string
	var format string
	var ranges bool
	flag.StringVar(&input, "file", "", "ALaS JSON file to compile (reads from stdin if not provided)")
	flag.StringVar(&output, "o", "", "Output file (default: input file with .ll extension)")
	flag.StringVar(&format, "format", "ll", "Output format: ll (LLVM IR text) or bc (LLVM bitcode)")
	flag.BoolVar(&ranges, "ranges", false, "Run value range analysis and write it beside the compiled module, with the output's extension replaced by .ranges.json")
	flag.Parse()

	var data []byte
	var err error

	if input == "" {
		// Read from stdin
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
			os.Exit(1)
		}
	} else {
		// Read from file
		data, err = os.ReadFile(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", input, err)
			os.Exit(1)
		}
	}

	// Validate the JSON first
	if err := validator.ValidateJSON(data); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed:\n%v\n", err)
		os.Exit(1)
	}

	// Parse the module
	var module ast.Module
	if err := json.Unmarshal(data, &module); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing JSON: %v\n", err)
		os.Exit(1)
	}

	// Generate LLVM IR
	gen := codegen.NewLLVMCodegen()
	llvmModule, err := gen.GenerateModule(&module)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Code generation failed: %v\n", err)
		os.Exit(1)
	}

	// Determine output filename
	if output == "" {
		if input == "" {
			output = "output." + format
		} else {
			base := strings.TrimSuffix(input, filepath.Ext(input))
			output = base + "." + format
		}
	}

	// Value range analysis, written alongside the compiled module.
	if ranges {
		opt := codegen.NewOptimizer(codegen.OptRangeAnalysis)
		if err := opt.OptimizeModule(llvmModule); err != nil {
			fmt.Fprintf(os.Stderr, "Range analysis failed: %v\n", err)
			os.Exit(1)
		}
		if err := writeRanges(opt.LastVRAResult(), rangesPath(output)); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing ranges: %v\n", err)
			os.Exit(1)
		}
	}

	// Write output
	switch format {
	case "ll":
		err = os.WriteFile(output, []byte(llvmModule.String()), 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing LLVM IR: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("LLVM IR written to %s\n", output)

	case "bc":
		// For bitcode, we would need to use LLVM tools
		// For now, just output the IR and suggest using llvm-as
		llFile := strings.TrimSuffix(output, ".bc") + ".ll"
		err = os.WriteFile(llFile, []byte(llvmModule.String()), 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing LLVM IR: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("LLVM IR written to %s\n", llFile)
		fmt.Printf("To generate bitcode, run: llvm-as %s -o %s\n", llFile, output)

	default:
		fmt.Fprintf(os.Stderr, "Unsupported format: %s\n", format)
		os.Exit(1)
	}
}

// rangesPath derives the sibling ranges file from the compiled output
// path: foo.ll -> foo.ranges.json.
func rangesPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".ranges.json"
}

// writeRanges serializes the analysis result (every function's scope
// plus the module's global scope) to path, per §6's wire format.
func writeRanges(result *vra.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	fmt.Printf("Value ranges written to %s\n", path)
	return nil
}
