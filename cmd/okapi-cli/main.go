package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/okapidata/okapi"
	"github.com/okapidata/okapi/internal/config"
	"github.com/okapidata/okapi/internal/version"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "Okapi Dataset Library CLI (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: okapi-cli [options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --demo\n\t\tRun basic demo\n")
	fmt.Fprintf(os.Stderr, "  --benchmark\n\t\tRun benchmark tests\n")
	fmt.Fprintf(os.Stderr, "  --rows N\n\t\tNumber of rows to use (default: 1000 for demo, 1000000 for benchmark)\n")
	fmt.Fprintf(os.Stderr, "  --config FILE\n\t\tLoad settings from a JSON or YAML file (default: OKAPI_* environment)\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
}

func main() {
	versionFlag := flag.Bool("v", false, "Print version and exit")
	flag.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	demoFlag := flag.Bool("demo", false, "Run basic demo")
	benchmarkFlag := flag.Bool("benchmark", false, "Run benchmark tests")
	rowsFlag := flag.Int("rows", 0, "Number of rows to use (default: 1000 for demo, 1000000 for benchmark)")
	configFlag := flag.String("config", "", "Load settings from a JSON or YAML file")

	flag.Usage = customUsage
	flag.Parse()

	if *versionFlag {
		fmt.Print(version.Info().String())
		return
	}

	if err := applyConfig(*configFlag); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	switch {
	case *demoFlag:
		runDemo(*rowsFlag)
	case *benchmarkFlag:
		runBenchmark(*rowsFlag)
	default:
		flag.Usage()
		os.Exit(1)
	}
}

// applyConfig installs the global settings for the run: from path
// when given, otherwise from the OKAPI_* environment. The validator
// fills in the worker pool size and reports tuning warnings.
func applyConfig(path string) error {
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return err
		}
	} else {
		cfg = config.LoadFromEnv()
	}

	validated, warnings, err := config.NewConfigValidator().Validate(cfg)
	if err != nil {
		return err
	}
	if cfg.VerboseLogging {
		for _, w := range warnings {
			log.Printf("config: %s", w)
		}
	}

	config.SetGlobalConfig(validated)
	return nil
}

const (
	baseAge            = 25
	ageRange           = 40
	baseSalary         = 40000
	salaryIncrement    = 1000
	salaryRange        = 60
	ageFilterThreshold = 35  // keep employees older than this age
	bonusPercentage    = 0.1 // bonus as 10% of salary
)

// buildEmployees creates an employee dataset with the given row count.
func buildEmployees(mem memory.Allocator, rows int) (*okapi.Dataset, error) {
	names := make([]string, rows)
	ages := make([]int64, rows)
	salaries := make([]float64, rows)
	departments := make([]string, rows)
	depts := []string{"Engineering", "Sales", "Marketing", "HR", "Finance"}

	for i := range rows {
		names[i] = fmt.Sprintf("Employee_%d", i+1)
		ages[i] = int64(baseAge + (i % ageRange))
		salaries[i] = float64(baseSalary + (i%salaryRange)*salaryIncrement)
		departments[i] = depts[i%len(depts)]
	}

	fr := okapi.NewFrame(
		okapi.NewSeries("name", names, mem),
		okapi.NewSeries("age", ages, mem),
		okapi.NewSeries("salary", salaries, mem),
		okapi.NewSeries("department", departments, mem),
	)
	defer fr.Release()

	return okapi.FromFrame(fr)
}

// addBonus is the demo's batched transform: bonus column appended as
// 10% of salary.
func addBonus(mem memory.Allocator) okapi.BatchFunc {
	return func(fr *okapi.Frame) (*okapi.Frame, error) {
		n := fr.Len()
		bonuses := make([]float64, n)
		for i := 0; i < n; i++ {
			salary, err := fr.ValueAt("salary", i)
			if err != nil {
				return nil, err
			}
			bonuses[i] = salary.(float64) * bonusPercentage
		}

		cols := make([]okapi.ISeries, 0, fr.Width()+1)
		for _, name := range fr.Columns() {
			col, _ := fr.Column(name)
			arr := col.Array()
			cols = append(cols, okapi.WrapSeries(name, arr))
			arr.Release()
		}
		cols = append(cols, okapi.NewSeries("bonus", bonuses, mem))
		return okapi.NewFrame(cols...), nil
	}
}

// keepSenior masks out rows at or below the age threshold.
func keepSenior(fr *okapi.Frame) ([]bool, error) {
	mask := make([]bool, fr.Len())
	for i := range mask {
		age, err := fr.ValueAt("age", i)
		if err != nil {
			return nil, err
		}
		mask[i] = age.(int64) > ageFilterThreshold
	}
	return mask, nil
}

func runDemo(rows int) {
	fmt.Println("Okapi Dataset Library Demo")
	fmt.Println("==========================")

	mem := memory.NewGoAllocator()

	if rows == 0 {
		rows = 1000
	}

	fmt.Println("Creating sample dataset...")
	ds, err := buildEmployees(mem, rows)
	if err != nil {
		log.Printf("Error creating dataset: %v", err)
		return
	}
	defer ds.Release()

	fmt.Printf("Created dataset with %d rows and %d columns\n", ds.Len(), len(ds.Columns()))
	fmt.Println("Columns:", ds.Columns())
	fmt.Println()

	fmt.Println("Applying dataset operations:")
	fmt.Println("1. Filter employees older than 35")
	fmt.Println("2. Add bonus column (10% of salary) with a batched map")
	fmt.Println("3. Iterate the result in fixed-size batches")

	filtered, err := ds.Filter(keepSenior, okapi.FilterOptions{})
	if err != nil {
		log.Printf("Error filtering dataset: %v", err)
		return
	}
	defer filtered.Release()

	withBonus, err := filtered.Map(addBonus(mem), okapi.MapOptions{})
	if err != nil {
		log.Printf("Error mapping dataset: %v", err)
		return
	}
	defer withBonus.Release()

	fmt.Printf("\nResult: %d rows, columns %v\n", withBonus.Len(), withBonus.Columns())

	it := withBonus.Iter(256)
	defer it.Close()

	batches := 0
	for it.Next() {
		batches++
	}
	if err := it.Err(); err != nil {
		log.Printf("Error iterating dataset: %v", err)
		return
	}
	fmt.Printf("Iterated result in %d batches of up to 256 rows\n", batches)
	fmt.Println("Demo completed successfully!")
}

func runBenchmark(rows int) {
	fmt.Println("Okapi Dataset Library Benchmark")
	fmt.Println("===============================")

	if rows == 0 {
		rows = 1_000_000
	}
	numRows := rows

	mem := memory.NewGoAllocator()

	// --- Benchmark: Dataset creation ---
	fmt.Printf("\nBenchmarking dataset creation for %d rows...\n", numRows)
	start := time.Now()
	ds, err := buildEmployees(mem, numRows)
	if err != nil {
		log.Printf("Error during dataset creation benchmark: %v", err)
		os.Exit(1)
	}
	defer ds.Release()
	fmt.Printf("Dataset Creation Time: %s\n", time.Since(start))

	// --- Benchmark: Batched filter + map ---
	fmt.Printf("\nBenchmarking batched filter + map for %d rows...\n", numRows)
	start = time.Now()

	filtered, err := ds.Filter(keepSenior, okapi.FilterOptions{Parallel: true})
	if err != nil {
		log.Printf("Error during filter benchmark: %v", err)
		os.Exit(1)
	}
	defer filtered.Release()

	withBonus, err := filtered.Map(addBonus(mem), okapi.MapOptions{Parallel: true})
	if err != nil {
		log.Printf("Error during map benchmark: %v", err)
		os.Exit(1)
	}
	defer withBonus.Release()
	fmt.Printf("Transform Time: %s (%d rows kept)\n", time.Since(start), withBonus.Len())

	// --- Benchmark: Chunked iteration ---
	fmt.Printf("\nBenchmarking chunked iteration for %d rows...\n", withBonus.Len())
	start = time.Now()

	it := withBonus.Iter(4096)
	defer it.Close()
	total := 0
	for it.Next() {
		total += int(it.Record().NumRows())
	}
	if err := it.Err(); err != nil {
		log.Printf("Error during iteration benchmark: %v", err)
		os.Exit(1)
	}
	fmt.Printf("Iteration Time: %s (%d rows)\n", time.Since(start), total)

	fmt.Println("\nBenchmark suite completed successfully!")
}
