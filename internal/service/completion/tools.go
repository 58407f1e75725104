package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	"github.com/cloudwego/eino-ext/components/tool/googlesearch"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"kaichat/internal/models"
	"kaichat/internal/service/calendar"
)

// InitToolsChain assembles the agent tool set: web search plus calendar
// access. cal may be nil when the relay runs without a store.
func InitToolsChain(cal *calendar.Service) []tool.BaseTool {
	var tools []tool.BaseTool

	if ws := initWebSearch(); ws != nil {
		tools = append(tools, ws)
	}
	if cal != nil {
		tools = append(tools, calendarTools(cal)...)
	}
	return tools
}

func initWebSearch() tool.InvokableTool {
	googleTool := initGoogleSearch()
	duckTool := initDDGSearch()
	if googleTool == nil && duckTool == nil {
		log.Printf("web search tool disabled: no search providers available")
		return nil
	}

	ws := &webSearchTool{
		google: googleTool,
		duck:   duckTool,
	}

	info := &schema.ToolInfo{
		Name: "web_search",
		Desc: "Search the web for information; automatically falls back to another provider if needed.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Desc:     "Natural language query to search",
				Type:     schema.String,
				Required: true,
			},
		}),
	}

	return utils.NewTool(info, ws.run)
}

type webSearchTool struct {
	google tool.InvokableTool
	duck   tool.InvokableTool
}

type webSearchParams struct {
	Query string `json:"query"`
}

func (w *webSearchTool) run(ctx context.Context, params *webSearchParams) (string, error) {
	if params == nil {
		return "", errors.New("missing search parameters")
	}
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return "", errors.New("query must not be empty")
	}

	payloadBytes, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return "", fmt.Errorf("marshal search params: %w", err)
	}
	payload := string(payloadBytes)

	if w.google != nil {
		if result, err := w.google.InvokableRun(ctx, payload); err == nil {
			return result, nil
		} else {
			log.Printf("google search failed: %v", err)
		}
	}

	if w.duck != nil {
		if result, err := w.duck.InvokableRun(ctx, payload); err == nil {
			return result, nil
		} else {
			log.Printf("duckduckgo search failed: %v", err)
		}
	}

	return "", errors.New("no search provider succeeded")
}

func initDDGSearch() tool.InvokableTool {
	duckConfig := &duckduckgo.Config{
		ToolName:   "web_search_ddg",
		ToolDesc:   "DuckDuckGo Search Tool (no token required)",
		MaxResults: 3,
		Region:     duckduckgo.RegionWT,
		Timeout:    10 * time.Second,
	}
	duckTool, err := duckduckgo.NewTextSearchTool(context.Background(), duckConfig)
	if err != nil {
		log.Printf("duckduckgo search tool disabled: %v", err)
		return nil
	}
	return duckTool
}

func initGoogleSearch() tool.InvokableTool {
	googleAPIKey := os.Getenv("GOOGLE_API_KEY")
	googleSearchEngineID := os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
	if googleAPIKey == "" || googleSearchEngineID == "" {
		log.Printf("google search tool disabled: missing GOOGLE_API_KEY or GOOGLE_SEARCH_ENGINE_ID")
		return nil
	}
	googleTool, err := googlesearch.NewTool(context.Background(), &googlesearch.Config{
		ToolName:       "web_search_google",
		ToolDesc:       "Google Search Tool",
		APIKey:         googleAPIKey,
		SearchEngineID: googleSearchEngineID,
		Lang:           "en",
		Num:            5,
	})
	if err != nil {
		log.Printf("google search tool disabled: %v", err)
		return nil
	}
	return googleTool
}

// calendar tools

type calendarAddParams struct {
	Summary     string `json:"summary"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
}

type calendarListParams struct {
	Month string `json:"month,omitempty"`
}

type calendarFindParams struct {
	Term string `json:"term"`
}

func calendarTools(cal *calendar.Service) []tool.BaseTool {
	addInfo := &schema.ToolInfo{
		Name: "calendar_add",
		Desc: "Add an event to the user's calendar.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"summary": {
				Desc:     "Event title",
				Type:     schema.String,
				Required: true,
			},
			"start": {
				Desc:     "Start time, RFC3339 (e.g. 2026-12-09T15:00:00Z)",
				Type:     schema.String,
				Required: true,
			},
			"end": {
				Desc: "End time, RFC3339; defaults to one hour after start",
				Type: schema.String,
			},
			"location": {
				Desc: "Event location",
				Type: schema.String,
			},
			"description": {
				Desc: "Agenda or notes",
				Type: schema.String,
			},
		}),
	}
	listInfo := &schema.ToolInfo{
		Name: "calendar_list",
		Desc: "List upcoming events for the next 30 days, or for one month.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"month": {
				Desc: "Optional month filter, like 'October' or '2025-12'",
				Type: schema.String,
			},
		}),
	}
	findInfo := &schema.ToolInfo{
		Name: "calendar_find",
		Desc: "Find one upcoming event by a term contained in its title.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"term": {
				Desc:     "Search term",
				Type:     schema.String,
				Required: true,
			},
		}),
	}

	addFn := func(ctx context.Context, params *calendarAddParams) (string, error) {
		if params == nil {
			return "", errors.New("missing event parameters")
		}
		start, err := time.Parse(time.RFC3339, params.Start)
		if err != nil {
			return "", fmt.Errorf("parse start time: %w", err)
		}
		var end time.Time
		if params.End != "" {
			end, err = time.Parse(time.RFC3339, params.End)
			if err != nil {
				return "", fmt.Errorf("parse end time: %w", err)
			}
		}
		ev, err := cal.AddEvent(ctx, models.CalendarEvent{
			Summary:     params.Summary,
			Location:    params.Location,
			Description: params.Description,
			StartsAt:    start,
			EndsAt:      end,
		})
		if err != nil {
			return "", err
		}
		return calendar.FormatEventSummary(ev, false), nil
	}

	listFn := func(ctx context.Context, params *calendarListParams) (string, error) {
		month := ""
		if params != nil {
			month = params.Month
		}
		events, err := cal.UpcomingEvents(ctx, month)
		if err != nil {
			return "", err
		}
		if len(events) == 0 {
			return "No upcoming events.", nil
		}
		var builder strings.Builder
		for i := range events {
			builder.WriteString(calendar.FormatEventSummary(&events[i], false))
			builder.WriteString("\n\n")
		}
		return strings.TrimSpace(builder.String()), nil
	}

	findFn := func(ctx context.Context, params *calendarFindParams) (string, error) {
		if params == nil {
			return "", errors.New("missing search parameters")
		}
		ev, err := cal.FindEvent(ctx, params.Term)
		if err != nil {
			if errors.Is(err, calendar.ErrEventNotFound) {
				return "No matching event found.", nil
			}
			return "", err
		}
		return calendar.FormatEventSummary(ev, true), nil
	}

	return []tool.BaseTool{
		utils.NewTool(addInfo, addFn),
		utils.NewTool(listInfo, listFn),
		utils.NewTool(findInfo, findFn),
	}
}
