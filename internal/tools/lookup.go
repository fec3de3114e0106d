package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type lookupArgs struct {
	ProjectName string `json:"project_name"`
	Location    string `json:"location"`
	Query       string `json:"query"`
}

func newLookupTool(searcher Searcher) Tool {
	return Tool{
		Name:        "external_lookup",
		Description: "Search the web for additional information about a property project (nearby amenities, connectivity, reviews) that is not in the database.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"project_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the property project",
				},
				"location": map[string]interface{}{
					"type":        "string",
					"description": "City, country or area of the project",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to look for, e.g. 'nearest airport and schools'",
				},
			},
			"required": []string{"project_name", "location"},
		},
		SideEffect: SideEffectNone,
		run: func(ctx context.Context, args json.RawMessage) string {
			var a lookupArgs
			if err := decodeArgs(args, &a); err != nil {
				return "Error: " + err.Error()
			}
			if strings.TrimSpace(a.ProjectName) == "" || strings.TrimSpace(a.Location) == "" {
				return "Error: invalid arguments: project_name and location are required"
			}

			parts := []string{a.ProjectName, a.Location}
			if q := strings.TrimSpace(a.Query); q != "" {
				parts = append(parts, q)
			}

			result, err := searcher.Search(ctx, strings.Join(parts, " "))
			if err != nil {
				return "Error: search failed; try a different project name or location"
			}
			if result == "" {
				return fmt.Sprintf("Warning: no search results found for %q", a.ProjectName)
			}
			return fmt.Sprintf("Success: found information about %q\n%s", a.ProjectName, result)
		},
	}
}

func newClockTool() Tool {
	return Tool{
		Name:        "current_time",
		Description: "Get the current timestamp as 'YYYY-MM-DD HH:MM:SS' for use as a string literal in INSERT or UPDATE queries.",
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		SideEffect: SideEffectNone,
		run: func(ctx context.Context, args json.RawMessage) string {
			return time.Now().Format("2006-01-02 15:04:05")
		},
	}
}
