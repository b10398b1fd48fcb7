package rules

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rothcast/rothcast/internal/domain"
)

//go:embed data/*.csv
var embeddedTables embed.FS

// DefaultYear is the tax year of the embedded tables.
const DefaultYear = 2025

// Default loads the embedded table set.
func Default() (*RuleSet, error) {
	sub, err := fs.Sub(embeddedTables, "data")
	if err != nil {
		return nil, fmt.Errorf("rules: embedded tables: %w", err)
	}
	return loadFS(sub, DefaultYear)
}

// Load reads a table set for the given year from a directory of CSV
// files laid out like the embedded defaults.
func Load(dir string, year int) (*RuleSet, error) {
	return loadFS(os.DirFS(dir), year)
}

func loadFS(fsys fs.FS, year int) (*RuleSet, error) {
	rs := &RuleSet{
		Year:        year,
		brackets:    make(map[domain.FilingStatus][]TaxBracket),
		deductions:  make(map[domain.FilingStatus]StandardDeduction),
		states:      make(map[string]StateTaxRule),
		rmdDivisors: make(map[int]decimal.Decimal),
		irmaa:       make(map[domain.FilingStatus][]IRMAABracket),
		ssThresh:    make(map[domain.FilingStatus]SSThresholds),
	}

	loaders := []struct {
		file string
		fn   func(*RuleSet, [][]string) error
	}{
		{fmt.Sprintf("federal_tax_brackets_%d.csv", year), loadBrackets},
		{fmt.Sprintf("standard_deductions_%d.csv", year), loadDeductions},
		{fmt.Sprintf("state_tax_rates_%d.csv", year), loadStates},
		{"rmd_divisors.csv", loadRMDDivisors},
		{fmt.Sprintf("irmaa_thresholds_%d.csv", year), loadIRMAA},
		{fmt.Sprintf("medicare_base_rates_%d.csv", year), loadMedicare},
		{fmt.Sprintf("social_security_thresholds_%d.csv", year), loadSSThresholds},
		{"inflation_config.csv", loadInflation},
	}
	for _, l := range loaders {
		rows, err := readCSV(fsys, l.file)
		if err != nil {
			return nil, err
		}
		if err := l.fn(rs, rows); err != nil {
			return nil, fmt.Errorf("rules: %s: %w", l.file, err)
		}
	}

	if err := rs.validateRMDTable(); err != nil {
		return nil, err
	}
	rs.sortTables()
	return rs, nil
}

// readCSV returns data rows with the header stripped.
func readCSV(fsys fs.FS, name string) ([][]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("rules: open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	var rows [][]string
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rules: parse %s: %w", name, err)
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("rules: %s has no data rows", name)
	}
	return rows, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func parseStatus(value string) (domain.FilingStatus, error) {
	status := domain.FilingStatus(strings.TrimSpace(value))
	if !status.Valid() {
		return "", fmt.Errorf("unknown filing status %q", value)
	}
	return status, nil
}

func loadBrackets(rs *RuleSet, rows [][]string) error {
	for i, row := range rows {
		if len(row) != 4 {
			return fmt.Errorf("row %d: expected 4 fields, got %d", i+1, len(row))
		}
		status, err := parseStatus(row[0])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		min, err := parseDecimal("min", row[1])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		var max *decimal.Decimal
		if strings.TrimSpace(row[2]) != "" {
			m, err := parseDecimal("max", row[2])
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			max = &m
		}
		rate, err := parseDecimal("rate", row[3])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		rs.brackets[status] = append(rs.brackets[status], TaxBracket{Min: min, Max: max, Rate: rate})
	}
	return nil
}

func loadDeductions(rs *RuleSet, rows [][]string) error {
	for i, row := range rows {
		if len(row) != 3 {
			return fmt.Errorf("row %d: expected 3 fields, got %d", i+1, len(row))
		}
		status, err := parseStatus(row[0])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		base, err := parseDecimal("deduction", row[1])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		senior, err := parseDecimal("senior_additional", row[2])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		rs.deductions[status] = StandardDeduction{Base: base, SeniorAdditional: senior}
	}
	return nil
}

func loadStates(rs *RuleSet, rows [][]string) error {
	for i, row := range rows {
		if len(row) != 4 {
			return fmt.Errorf("row %d: expected 4 fields, got %d", i+1, len(row))
		}
		rate, err := parseDecimal("rate", row[1])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		retirementExempt, err := strconv.ParseBool(strings.TrimSpace(row[2]))
		if err != nil {
			return fmt.Errorf("row %d: retirement_income_exempt: %w", i+1, err)
		}
		ssTaxed, err := strconv.ParseBool(strings.TrimSpace(row[3]))
		if err != nil {
			return fmt.Errorf("row %d: ss_taxed: %w", i+1, err)
		}
		rs.states[strings.ToUpper(strings.TrimSpace(row[0]))] = StateTaxRule{
			Rate:                   rate,
			RetirementIncomeExempt: retirementExempt,
			SSTaxed:                ssTaxed,
		}
	}
	return nil
}

func loadRMDDivisors(rs *RuleSet, rows [][]string) error {
	for i, row := range rows {
		if len(row) != 2 {
			return fmt.Errorf("row %d: expected 2 fields, got %d", i+1, len(row))
		}
		age, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return fmt.Errorf("row %d: age: %w", i+1, err)
		}
		divisor, err := parseDecimal("divisor", row[1])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		if !divisor.IsPositive() {
			return fmt.Errorf("row %d: divisor must be positive", i+1)
		}
		rs.rmdDivisors[age] = divisor
	}
	return nil
}

func loadIRMAA(rs *RuleSet, rows [][]string) error {
	for i, row := range rows {
		if len(row) != 4 {
			return fmt.Errorf("row %d: expected 4 fields, got %d", i+1, len(row))
		}
		status, err := parseStatus(row[0])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		threshold, err := parseDecimal("magi_threshold", row[1])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		partB, err := parseDecimal("part_b_surcharge", row[2])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		partD, err := parseDecimal("part_d_surcharge", row[3])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		rs.irmaa[status] = append(rs.irmaa[status], IRMAABracket{
			MAGIThreshold:  threshold,
			PartBSurcharge: partB,
			PartDSurcharge: partD,
		})
	}
	return nil
}

func loadMedicare(rs *RuleSet, rows [][]string) error {
	for i, row := range rows {
		if len(row) != 2 {
			return fmt.Errorf("row %d: expected 2 fields, got %d", i+1, len(row))
		}
		premium, err := parseDecimal("monthly_premium", row[1])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		switch part := strings.TrimSpace(row[0]); part {
		case "part_b":
			rs.medicare.PartBMonthly = premium
		case "part_d":
			rs.medicare.PartDMonthly = premium
		default:
			return fmt.Errorf("row %d: unknown part %q", i+1, part)
		}
	}
	return nil
}

func loadSSThresholds(rs *RuleSet, rows [][]string) error {
	for i, row := range rows {
		if len(row) != 3 {
			return fmt.Errorf("row %d: expected 3 fields, got %d", i+1, len(row))
		}
		status, err := parseStatus(row[0])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		lower, err := parseDecimal("lower", row[1])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		upper, err := parseDecimal("upper", row[2])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		rs.ssThresh[status] = SSThresholds{Lower: lower, Upper: upper}
	}
	return nil
}

func loadInflation(rs *RuleSet, rows [][]string) error {
	for i, row := range rows {
		if len(row) != 2 {
			return fmt.Errorf("row %d: expected 2 fields, got %d", i+1, len(row))
		}
		rate, err := parseDecimal("rate", row[1])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		switch key := strings.TrimSpace(row[0]); key {
		case "medical":
			rs.inflation.Medical = rate
		case "irmaa_thresholds":
			rs.inflation.IRMAAThreshold = rate
		default:
			return fmt.Errorf("row %d: unknown inflation key %q", i+1, key)
		}
	}
	return nil
}

// TableFiles lists the CSV file names a year's table directory must
// contain, used by the CLI's tables command.
func TableFiles(year int) []string {
	return []string{
		fmt.Sprintf("federal_tax_brackets_%d.csv", year),
		fmt.Sprintf("standard_deductions_%d.csv", year),
		fmt.Sprintf("state_tax_rates_%d.csv", year),
		"rmd_divisors.csv",
		fmt.Sprintf("irmaa_thresholds_%d.csv", year),
		fmt.Sprintf("medicare_base_rates_%d.csv", year),
		fmt.Sprintf("social_security_thresholds_%d.csv", year),
		"inflation_config.csv",
	}
}

// Export writes the embedded default tables into a directory so users
// can copy and edit them for a different tax year.
func Export(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("rules: create %s: %w", dir, err)
	}
	entries, err := embeddedTables.ReadDir("data")
	if err != nil {
		return fmt.Errorf("rules: embedded tables: %w", err)
	}
	for _, entry := range entries {
		data, err := embeddedTables.ReadFile("data/" + entry.Name())
		if err != nil {
			return fmt.Errorf("rules: read %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Name()), data, 0o644); err != nil {
			return fmt.Errorf("rules: write %s: %w", entry.Name(), err)
		}
	}
	return nil
}
