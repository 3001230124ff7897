package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bpcprep/examportal-backend/internal/bank"
	"github.com/bpcprep/examportal-backend/internal/config"
)

// validate-bank checks a question bank CSV without starting the server:
// it prints every violation and warning found, plus pool coverage against
// the configured exam format. Exit code 1 on any error.
func main() {
	var path string
	flag.StringVar(&path, "csv", "", "Path to the question bank CSV (defaults to QUESTION_BANK_CSV)")
	flag.Parse()

	cfg := config.Load()
	if path == "" {
		path = cfg.QuestionBank
	}

	questions, err := bank.LoadCSV(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		os.Exit(1)
	}

	report := bank.Validate(questions)
	report.CheckCoverage(cfg.Exam.NumMCQ, cfg.Exam.NumPractical)

	fmt.Printf("%s: %d questions (%d mcq, %d practical)\n",
		path, len(questions), report.MCQCount, report.PracticalCount)

	for _, w := range report.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, e := range report.Errors {
		fmt.Printf("  error: %s\n", e)
	}

	if !report.Valid() {
		fmt.Fprintf(os.Stderr, "validation failed with %d errors\n", len(report.Errors))
		os.Exit(1)
	}

	fmt.Println("bank is valid")
}
