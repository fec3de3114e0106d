// Package seed loads the property-listing inventory from a CSV export
// into the projects table.
package seed

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/silverland/nova/internal/models"
)

// columnMapping maps CSV export headers to project fields.
var columnMapping = map[string]string{
	"Project name":                           "project_name",
	"No of bedrooms":                         "no_of_bedrooms",
	"Completion status (off plan/available)": "completion_status",
	"bathrooms":                              "bathrooms",
	"unit type":                              "unit_type",
	"developer name":                         "developer_name",
	"Price (USD)":                            "price_usd",
	"Area (sq mtrs)":                         "area_sq_mtrs",
	"Property type (apartment/villa)":        "property_type",
	"city":                                   "city",
	"country":                                "country",
	"completion_date":                        "completion_date",
	"features":                               "features",
	"facilities":                             "facilities",
	"Project description":                    "project_description",
}

// Result reports what a seeding run did.
type Result struct {
	Inserted int
	Skipped  int
}

// File seeds the projects table from the CSV file at path.
func File(db *gorm.DB, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()
	return Reader(db, f)
}

// Reader seeds the projects table from CSV data. Rows missing required
// fields, carrying an unknown completion status, or duplicating an
// existing project name in the same city are skipped, not fatal.
func Reader(db *gorm.DB, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("seed: reading header: %w", err)
	}
	fields := make([]string, len(header))
	for i, col := range header {
		fields[i] = columnMapping[strings.TrimSpace(col)]
	}

	res := &Result{}
	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("seed: reading row %d: %w", rowNum, err)
		}

		project, ok := buildProject(fields, record)
		if !ok {
			log.Printf("seed: skipping row %d: missing required fields or invalid completion status", rowNum)
			res.Skipped++
			continue
		}

		var count int64
		err = db.Model(&models.Project{}).
			Where("project_name = ? AND city = ?", project.ProjectName, project.City).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("seed: checking duplicates for row %d: %w", rowNum, err)
		}
		if count > 0 {
			res.Skipped++
			continue
		}

		if err := db.Create(project).Error; err != nil {
			return nil, fmt.Errorf("seed: inserting row %d: %w", rowNum, err)
		}
		res.Inserted++
	}
	return res, nil
}

// buildProject converts one CSV record into a Project, reporting false
// when the row is not usable.
func buildProject(fields, record []string) (*models.Project, bool) {
	p := &models.Project{}
	for i, field := range fields {
		if field == "" || i >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}
		switch field {
		case "project_name":
			p.ProjectName = value
		case "no_of_bedrooms":
			p.NoOfBedrooms = parseInt(value)
		case "completion_status":
			p.CompletionStatus = strings.TrimPrefix(value, "x_")
		case "bathrooms":
			p.Bathrooms = parseInt(value)
		case "unit_type":
			p.UnitType = value
		case "developer_name":
			p.DeveloperName = value
		case "price_usd":
			p.PriceUSD = parseFloat(value)
		case "area_sq_mtrs":
			p.AreaSqMtrs = parseFloat(value)
		case "property_type":
			p.PropertyType = value
		case "city":
			p.City = value
		case "country":
			p.Country = value
		case "completion_date":
			p.CompletionDate = value
		case "features":
			p.Features = listJSON(value)
		case "facilities":
			p.Facilities = listJSON(value)
		case "project_description":
			p.ProjectDescription = value
		}
	}

	if p.ProjectName == "" || p.NoOfBedrooms == 0 || p.PriceUSD == 0 || p.City == "" {
		return nil, false
	}
	switch strings.ToLower(p.CompletionStatus) {
	case "", "offplan", "available":
	default:
		return nil, false
	}
	return p, true
}

func parseInt(value string) int {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

// listJSON converts a comma-separated cell into a JSON string array.
func listJSON(value string) string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return ""
	}
	out, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(out)
}
