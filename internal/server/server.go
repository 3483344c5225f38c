// Package server exposes the monitoring core over HTTP with an OpenAPI
// description and Swagger UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"chemecare/internal/app"
	"chemecare/internal/domain"
	"chemecare/internal/engine"
	"chemecare/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Session  *app.Session
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"event 42: not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Chem-E-Care API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Chem-E-Care API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	eng := cfg.Session.Engine
	registerDocs(router, basePath)
	registerHealth(group)
	registerStatus(group, cfg.Session)
	registerEvents(group, eng)
	registerOrchestrator(group, eng)
	registerAlerts(group, eng)
	registerTodos(group, eng)
	registerDashboard(group, eng)
	registerAnalysis(group, eng)
	registerDocumentation(group, cfg.Session)
	registerBenefits(group)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, engine.ErrInvalid):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	case errors.Is(err, engine.ErrAIDisabled):
		return newAPIError(http.StatusServiceUnavailable, "ai_disabled", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusServiceUnavailable:
		return "ai_disabled"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Chem-E-Care API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerStatus(api huma.API, s *app.Session) {
	huma.Register(api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Session status",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body StatusResponse `json:"body"`
	}, error) {
		return &struct {
			Body StatusResponse `json:"body"`
		}{Body: StatusResponse{
			Facility:     s.Config.Facility.Name,
			AIReady:      s.Engine.AIReady(),
			Events:       s.Engine.Events.Len(),
			Todos:        s.Engine.Todos.Count(),
			ActiveAlerts: len(s.Engine.ActiveAlerts()),
		}}, nil
	})
}

func registerEvents(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-event",
		Method:        http.MethodPost,
		Path:          "/events",
		Summary:       "Log a facility event",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateEventRequest `json:"body"`
	}) (*struct {
		Body EventResponse `json:"body"`
	}, error) {
		ev, err := e.AddEvent(input.Body.Type, input.Body.Details)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventResponse `json:"body"`
		}{Body: eventResponse(ev, time.Now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List events, most recent first",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" minimum:"0"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(e.Events.List(input.Limit), time.Now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-event",
		Method:      http.MethodGet,
		Path:        "/events/{id}",
		Summary:     "Get event",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body EventResponse `json:"body"`
	}, error) {
		ev, err := e.Events.Get(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventResponse `json:"body"`
		}{Body: eventResponse(ev, time.Now())}, nil
	})
}

func registerOrchestrator(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "triage-event",
		Method:        http.MethodPost,
		Path:          "/events/{id}/triage",
		Summary:       "Run the orchestrator on an event",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64         `path:"id"`
		Body TriageRequest `json:"body"`
	}) (*struct {
		Body DecisionResponse `json:"body"`
	}, error) {
		d, err := e.Orchestrate(input.ID, domainAnswers(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DecisionResponse `json:"body"`
		}{Body: decisionResponse(d, time.Now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-decisions",
		Method:      http.MethodGet,
		Path:        "/decisions",
		Summary:     "List orchestrator decisions, newest first",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []DecisionResponse `json:"body"`
	}, error) {
		return &struct {
			Body []DecisionResponse `json:"body"`
		}{Body: mapDecisions(e.Decisions(), time.Now())}, nil
	})
}

func registerAlerts(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-alerts",
		Method:      http.MethodGet,
		Path:        "/alerts",
		Summary:     "List active alerts, newest first",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []AlertResponse `json:"body"`
	}, error) {
		return &struct {
			Body []AlertResponse `json:"body"`
		}{Body: mapAlerts(e.ActiveAlerts(), time.Now())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "alert-catalog",
		Method:      http.MethodGet,
		Path:        "/alerts/catalog",
		Summary:     "Alert category catalog",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []AlertTypeResponse `json:"body"`
	}, error) {
		return &struct {
			Body []AlertTypeResponse `json:"body"`
		}{Body: mapAlertTypes(e.AlertCatalog())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dismiss-alert",
		Method:      http.MethodPost,
		Path:        "/alerts/{id}/dismiss",
		Summary:     "Dismiss an alert",
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		e.Dismiss(input.ID)
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "dismissed"}}, nil
	})
}

func registerTodos(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-todos",
		Method:      http.MethodGet,
		Path:        "/todos",
		Summary:     "List AI-generated todos",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []TodoResponse `json:"body"`
	}, error) {
		return &struct {
			Body []TodoResponse `json:"body"`
		}{Body: mapTodos(e.Todos.List())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-todos",
		Method:      http.MethodPost,
		Path:        "/todos/refresh",
		Summary:     "Regenerate the todo list from recent events",
		Errors:      []int{http.StatusServiceUnavailable},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []TodoResponse `json:"body"`
	}, error) {
		todos, err := e.RefreshTodos(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []TodoResponse `json:"body"`
		}{Body: mapTodos(todos)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-todo-done",
		Method:      http.MethodPut,
		Path:        "/todos/{index}/done",
		Summary:     "Set a todo's completion flag",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Index int                `path:"index"`
		Body  SetTodoDoneRequest `json:"body"`
	}) (*struct {
		Body TodoResponse `json:"body"`
	}, error) {
		t, err := e.SetTodoDone(input.Index, input.Body.Done)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TodoResponse `json:"body"`
		}{Body: TodoResponse{Index: input.Index, Event: t.Event, Risk: t.Risk, Action: t.Action, Done: t.Done}}, nil
	})
}

func registerDashboard(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Dashboard gauges, assets, training, and insights",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body DashboardResponse `json:"body"`
	}, error) {
		return &struct {
			Body DashboardResponse `json:"body"`
		}{Body: DashboardResponse{
			Gauges:   e.Gauges(),
			Assets:   engine.Assets(),
			Training: engine.Training(),
			Insights: engine.Insights(),
		}}, nil
	})
}

func registerAnalysis(api huma.API, e *engine.Engine) {
	analysisOp := func(id, p, summary string, run func(context.Context) (string, error)) {
		huma.Register(api, huma.Operation{
			OperationID: id,
			Method:      http.MethodPost,
			Path:        p,
			Summary:     summary,
			Errors:      []int{http.StatusServiceUnavailable},
		}, func(ctx context.Context, _ *struct{}) (*struct {
			Body AnalysisResponse `json:"body"`
		}, error) {
			result, err := run(ctx)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body AnalysisResponse `json:"body"`
			}{Body: AnalysisResponse{Result: result}}, nil
		})
	}

	analysisOp("analyze-events", "/analysis/insights", "AI insight summary over recent events", e.AnalyzeEvents)
	analysisOp("analyze-recent-events", "/analysis/events", "Deep analysis of the most recent events", e.AnalyzeRecentEvents)
	analysisOp("generate-report", "/analysis/report", "Generate the executive facility report", e.GenerateReport)
	analysisOp("predict-maintenance", "/analysis/maintenance", "Predict asset maintenance needs", e.PredictMaintenance)
}

func registerDocumentation(api huma.API, s *app.Session) {
	huma.Register(api, huma.Operation{
		OperationID:   "upload-photo",
		Method:        http.MethodPost,
		Path:          "/documentation/photos",
		Summary:       "Upload an inspection photo",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body UploadPhotoRequest `json:"body"`
	}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		name := filepath.Base(input.Body.Name)
		if !allowedPhotoName(name) {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "photo must be a .png, .jpg or .jpeg file", nil)
		}
		if len(input.Body.Content) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "photo content is empty", nil)
		}
		dir, err := s.UploadsDir()
		if err != nil {
			return nil, handleError(err)
		}
		dest := filepath.Join(dir, name)
		if err := os.WriteFile(dest, input.Body.Content, 0o644); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "uploaded", "path": dest}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "compliance-report",
		Method:      http.MethodPost,
		Path:        "/documentation/report",
		Summary:     "Generate a compliance report",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		// Stub until the reporting pipeline lands.
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "Report generated successfully!"}}, nil
	})
}

func registerBenefits(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "benefits",
		Method:      http.MethodGet,
		Path:        "/benefits",
		Summary:     "Legacy vs unified comparison",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Benefit `json:"body"`
	}, error) {
		return &struct {
			Body []domain.Benefit `json:"body"`
		}{Body: engine.Benefits()}, nil
	})
}

func allowedPhotoName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
