package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/limaJavier/satmodel/pkg/sat"
)

const (
	executablePath   = "../../bin/satmodel"
	datasetDirectory = "../../testdata/"
	MB               = 1024.0
)

type ResultType int

const (
	solved ResultType = iota
	unsatisfiable
	timeout
	unsupported
)

var (
	resultTypes = map[ResultType]string{
		solved:        "solved",
		unsatisfiable: "unsatisfiable",
		timeout:       "timeout",
		unsupported:   "unsupported",
	}
	// problems maps dataset files to the command solving them
	problems = map[string]string{
		"logic.yaml":       "logic",
		"sudoku.yaml":      "sudoku",
		"sudoku_open.yaml": "sudoku",
		"staffing.yaml":    "staffing",
		"supply.yaml":      "supply",
		"tour.yaml":        "tour",
		"airport.yaml":     "airport",
	}
)

type TestMetadata struct {
	Problem string
	File    string
}

type BenchmarkResult struct {
	Solver        string
	Test          TestMetadata
	Variables     int64
	Constraints   int64
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
}

func main() {
	timeLimit := flag.Duration("time-limit", 5*time.Minute, "budget handed to every run")
	out := flag.String("out", "benchmark_results.csv", "CSV file the results are written to")
	flag.Parse()
	defer log.Flush()

	tests := getTests()
	solvers := sat.Names()
	results := make([]BenchmarkResult, 0, len(tests)*len(solvers))

	for _, test := range tests {
		for _, solver := range solvers {
			fmt.Printf("Benchmarking \"%v\" on \"%v\" with solver \"%v\"\n", test.Problem, test.File, solver)
			results = append(results, measure(test, solver, *timeLimit))
		}
	}

	toCsv(*out, results)
}

func getTests() []TestMetadata {
	files, err := os.ReadDir(datasetDirectory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	tests := make([]TestMetadata, 0, len(files))
	for _, file := range files {
		problem, ok := problems[file.Name()]
		if !ok {
			log.V(1).Infof("skipping %v", file.Name())
			continue
		}
		tests = append(tests, TestMetadata{Problem: problem, File: filepath.Join(datasetDirectory, file.Name())})
	}
	return tests
}

func measure(test TestMetadata, solver string, timeLimit time.Duration) BenchmarkResult {
	cmd := exec.Command("/usr/bin/time", "-v", executablePath, test.Problem, "--solver", solver, "--file", test.File, "--time-limit", timeLimit.String())

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	result := BenchmarkResult{Solver: solver, Test: test}
	_ = cmd.Run()
	switch cmd.ProcessState.ExitCode() {
	case 10:
		result.Result = solved
	case 20:
		result.Result = unsatisfiable
	case 30:
		result.Result = timeout
	default:
		if !strings.Contains(stdErr.String(), sat.ErrUnsupported.Error()) && !strings.Contains(stdErr.String(), sat.ErrUnavailable.Error()) {
			log.Fatalf("an error occurred during the execution of \"satmodel\" at \"%v\" using solver \"%v\": %v\n", test.File, solver, stdErr.String())
		}
		result.Result = unsupported
		return result
	}

	outLines := strings.Split(stdOut.String(), "\n")
	errLines := strings.Split(stdErr.String(), "\n")
	getLine := func(lines []string, substr string) string {
		line, ok := lo.Find(lines, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	result.Variables = parseCountLine(getLine(outLines, "variables:"))
	result.Constraints = parseCountLine(getLine(outLines, "constraints:"))
	result.Duration = parseDurationLine(getLine(errLines, "wall clock"))
	result.Memory = parseMemoryLine(getLine(errLines, "maximum resident set size"))
	result.CpuPercentage = parseCpuPercentageLine(getLine(errLines, "percent of cpu"))
	return result
}

func toCsv(path string, results []BenchmarkResult) {
	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Solver", "Problem", "Test", "Variables", "Constraints", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result"}
	if err := writer.Write(header); err != nil {
		log.Fatalf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			result.Solver,
			result.Test.Problem,
			result.Test.File,
			fmt.Sprintf("%d", result.Variables),
			fmt.Sprintf("%d", result.Constraints),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			log.Fatalf("cannot write CSV record: %v", err)
		}
	}
}

func parseCountLine(line string) int64 {
	countStr := strings.TrimSpace(strings.Split(line, ":")[1])
	return int64(lo.Must(strconv.Atoi(countStr)))
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / MB
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
