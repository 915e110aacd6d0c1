package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/ecocal/models"
	"github.com/use-agent/ecocal/sink"
)

func main() {
	apiURL := os.Getenv("ECOCAL_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("ECOCAL_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "ECOCAL_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"ecocal",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	gatherTool := mcp.NewTool("gather_economic_events",
		mcp.WithDescription("Gather economic calendar events (time, currency, importance, actual/forecast/previous values) for a date range. Drives a real browser, so a call takes a minute or more."),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("First day of the range, MM/DD/YYYY"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("Last day of the range, MM/DD/YYYY"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Reuse a cached result younger than this many milliseconds (default 0: always gather)"),
		),
	)

	s.AddTool(gatherTool, handleGather(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleGather(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 10 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start, err := request.RequireString("start_date")
		if err != nil {
			return mcp.NewToolResultError("start_date is required"), nil
		}
		end, err := request.RequireString("end_date")
		if err != nil {
			return mcp.NewToolResultError("end_date is required"), nil
		}

		body, err := json.Marshal(models.GatherRequest{
			StartDate: start,
			EndDate:   end,
			MaxAge:    int(request.GetFloat("max_age", 0)),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/calendar", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-API-Key", apiKey)

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var gathered models.GatherResponse
		if err := json.Unmarshal(respBody, &gathered); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !gathered.Success {
			errMsg := "gather failed"
			if gathered.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", gathered.Error.Code, gathered.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		md, err := sink.RenderMarkdown(gathered.Records, start, end)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render records: %v", err)), nil
		}
		return mcp.NewToolResultText(md + "\n\n---\n" + stepSummary(gathered.Steps)), nil
	}
}

// stepSummary is one line naming skipped navigation steps, so the caller
// can judge whether the table reflects the requested filters.
func stepSummary(steps []models.StepOutcome) string {
	var skipped []string
	for _, s := range steps {
		if !s.Succeeded() {
			skipped = append(skipped, s.Step)
		}
	}
	if len(skipped) == 0 {
		return fmt.Sprintf("All %d navigation steps succeeded.", len(steps))
	}
	return fmt.Sprintf("%d of %d navigation steps skipped: %s.", len(skipped), len(steps), strings.Join(skipped, ", "))
}
