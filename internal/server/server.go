package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"homesolution/internal/domain"
	"homesolution/internal/engine"
	"homesolution/internal/repo"
)

// EventLog is the journal read side served by GET /events.
type EventLog interface {
	Recent(ctx context.Context, limit, projectNumber int) ([]domain.Event, error)
	Assignments(ctx context.Context, projectNumber int) ([]domain.Assignment, error)
}

// Config for the HTTP API handler.
type Config struct {
	Engine *engine.Engine
	// Events may be nil when the journal is disabled.
	Events   EventLog
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"worker_unavailable"`
	Message string         `json:"message" example:"no worker can take task \"Paint\""`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

var mutationErrors = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

// New returns an HTTP handler exposing the HomeSolution API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("server: engine is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Match on the escaped path so {title} arrives escaped exactly once.
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				rctx.RoutePath = r.URL.EscapedPath()
			}
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	hcfg := huma.DefaultConfig("HomeSolution API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerWorkers(group, cfg.Engine)
	registerProjects(group, cfg.Engine)
	registerTasks(group, cfg.Engine)
	registerCost(group, cfg.Engine)
	registerEvents(group, cfg.Events)
	registerAssignments(group, cfg.Events)
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
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", msg, nil)
	case errors.Is(err, domain.ErrInvalidArgument):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	case errors.Is(err, domain.ErrUnavailable):
		return newAPIError(http.StatusConflict, "worker_unavailable", msg, nil)
	case errors.Is(err, domain.ErrFinalized):
		return newAPIError(http.StatusConflict, "conflict", msg, map[string]any{"finalized": true})
	case errors.Is(err, domain.ErrConflict):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	case errors.Is(err, domain.ErrInvariant):
		return newAPIError(http.StatusUnprocessableEntity, "invariant_violation", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "invariant_violation"
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
	var (
		once sync.Once
		spec []byte
		err  error
	)
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, err = json.Marshal(oas)
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
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
    <title>HomeSolution API Docs</title>
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

func registerWorkers(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-worker",
		Method:        http.MethodPost,
		Path:          "/workers",
		Summary:       "Register worker",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateWorkerRequest `json:"body"`
	}) (*struct {
		Body domain.WorkerView `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		var (
			id  int
			err error
		)
		switch domain.WorkerKind(input.Body.Kind) {
		case domain.KindHourly:
			if input.Body.Category != "" {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "hourly workers have no category", nil)
			}
			id, err = e.RegisterHourly(ctx, input.Body.Name, input.Body.Rate)
		case domain.KindSalaried:
			id, err = e.RegisterSalaried(ctx, input.Body.Name, input.Body.Rate, input.Body.Category)
		default:
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "kind must be hourly or salaried", map[string]any{"kind": input.Body.Kind})
		}
		if err != nil {
			return nil, handleError(err)
		}
		w, err := e.Worker(id)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkerView `json:"body"`
		}{Body: w}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workers",
		Method:      http.MethodGet,
		Path:        "/workers",
		Summary:     "List workers in registration order",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.WorkerView `json:"body"`
	}, error) {
		return &struct {
			Body []domain.WorkerView `json:"body"`
		}{Body: e.WorkerViews()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-available-workers",
		Method:      http.MethodGet,
		Path:        "/workers/available",
		Summary:     "List ids of workers not assigned to any task",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []int `json:"body"`
	}, error) {
		return &struct {
			Body []int `json:"body"`
		}{Body: e.AvailableWorkers()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-worker",
		Method:      http.MethodGet,
		Path:        "/workers/{id}",
		Summary:     "Get worker",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int `path:"id"`
	}) (*struct {
		Body domain.WorkerView `json:"body"`
	}, error) {
		w, err := e.Worker(input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.WorkerView `json:"body"`
		}{Body: w}, nil
	})
}

type projectPath struct {
	Number int `path:"number"`
}

func registerProjects(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Register project with its initial tasks",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*struct {
		Body domain.ProjectView `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		n, err := e.RegisterProject(ctx, input.Body.spec())
		if err != nil {
			return nil, handleError(err)
		}
		v, err := e.Project(n)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectView `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" doc:"PENDING, ACTIVE or FINALIZED"`
	}) (*struct {
		Body []domain.ProjectView `json:"body"`
	}, error) {
		var status domain.Status
		if input.Status != "" {
			s, err := domain.ParseStatus(input.Status)
			if err != nil {
				return nil, handleError(err)
			}
			status = s
		}
		items, err := e.Projects()
		if err != nil {
			return nil, handleError(err)
		}
		res := []domain.ProjectView{}
		for _, p := range items {
			if status == "" || p.Status == status {
				res = append(res, p)
			}
		}
		return &struct {
			Body []domain.ProjectView `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{number}",
		Summary:     "Get project snapshot",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body domain.ProjectView `json:"body"`
	}, error) {
		v, err := e.Project(input.Number)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectView `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-project-workers",
		Method:      http.MethodGet,
		Path:        "/projects/{number}/workers",
		Summary:     "Workers referenced by the project's tasks",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body []domain.WorkerRef `json:"body"`
	}, error) {
		items, err := e.AssignedWorkers(input.Number)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.WorkerRef `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project-history",
		Method:      http.MethodGet,
		Path:        "/projects/{number}/history",
		Summary:     "Assignment history",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body []domain.HistoryEntry `json:"body"`
	}, error) {
		items, err := e.History(input.Number)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.HistoryEntry `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "finalize-project",
		Method:      http.MethodPost,
		Path:        "/projects/{number}/finalize",
		Summary:     "Finalize project",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		projectPath
		Body FinalizeRequest `json:"body"`
	}) (*struct {
		Body domain.ProjectView `json:"body"`
	}, error) {
		if err := e.FinalizeProject(ctx, input.Number, input.Body.EndDate); err != nil {
			return nil, handleError(err)
		}
		v, err := e.Project(input.Number)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectView `json:"body"`
		}{Body: v}, nil
	})
}

const (
	strategyFirst      = "first"
	strategyLeastDelay = "least-delay"
)

type taskPath struct {
	Number int    `path:"number"`
	Title  string `path:"title"`
}

// title decodes the escaped path segment the router hands over.
func (p taskPath) title() string {
	if t, err := url.PathUnescape(p.Title); err == nil {
		return t
	}
	return p.Title
}

func registerTasks(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/projects/{number}/tasks",
		Summary:     "List project tasks",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		projectPath
		Unassigned bool `query:"unassigned" doc:"Only tasks without a worker"`
	}) (*struct {
		Body []domain.TaskView `json:"body"`
	}, error) {
		v, err := e.Project(input.Number)
		if err != nil {
			return nil, handleError(err)
		}
		res := []domain.TaskView{}
		for _, t := range v.Tasks {
			if input.Unassigned && t.WorkerID != nil {
				continue
			}
			res = append(res, t)
		}
		return &struct {
			Body []domain.TaskView `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-task",
		Method:        http.MethodPost,
		Path:          "/projects/{number}/tasks",
		Summary:       "Add task to project",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		projectPath
		Body TaskRequest `json:"body"`
	}) (*struct {
		Body domain.ProjectView `json:"body"`
	}, error) {
		if err := e.AddTask(ctx, input.Number, input.Body.spec()); err != nil {
			return nil, handleError(err)
		}
		v, err := e.Project(input.Number)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectView `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-task",
		Method:      http.MethodPost,
		Path:        "/projects/{number}/tasks/{title}/assign",
		Summary:     "Assign a worker to a task",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		taskPath
		Body AssignRequest `json:"body" required:"false"`
	}) (*struct {
		Body AssignmentResponse `json:"body"`
	}, error) {
		var (
			id  int
			err error
		)
		switch input.Body.Strategy {
		case "", strategyFirst:
			id, err = e.AssignFirstAvailable(ctx, input.Number, input.title())
		case strategyLeastDelay:
			id, err = e.AssignLeastDelay(ctx, input.Number, input.title())
		default:
			return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown strategy %q", input.Body.Strategy), nil)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return assignmentResponse(e, input.Number, id)
	})

	huma.Register(api, huma.Operation{
		OperationID: "reassign-task",
		Method:      http.MethodPost,
		Path:        "/projects/{number}/tasks/{title}/reassign",
		Summary:     "Hand a task over to another worker",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		taskPath
		Body ReassignRequest `json:"body"`
	}) (*struct {
		Body AssignmentResponse `json:"body"`
	}, error) {
		var (
			id  int
			err error
		)
		switch {
		case input.Body.WorkerID != nil && input.Body.Strategy != "":
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "worker_id and strategy are exclusive", nil)
		case input.Body.WorkerID != nil:
			id = *input.Body.WorkerID
			err = e.Reassign(ctx, input.Number, id, input.title())
		case input.Body.Strategy == strategyLeastDelay:
			id, err = e.ReassignLeastDelay(ctx, input.Number, input.title())
		default:
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "worker_id or strategy is required", nil)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return assignmentResponse(e, input.Number, id)
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-delay",
		Method:      http.MethodPost,
		Path:        "/projects/{number}/tasks/{title}/delays",
		Summary:     "Record a delay on a task",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		taskPath
		Body DelayRequest `json:"body"`
	}) (*struct {
		Body domain.ProjectView `json:"body"`
	}, error) {
		if err := e.RecordDelay(ctx, input.Number, input.title(), input.Body.Days); err != nil {
			return nil, handleError(err)
		}
		v, err := e.Project(input.Number)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectView `json:"body"`
		}{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "finish-task",
		Method:      http.MethodPost,
		Path:        "/projects/{number}/tasks/{title}/finish",
		Summary:     "Mark a task done",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *taskPath) (*struct {
		Body domain.ProjectView `json:"body"`
	}, error) {
		if err := e.FinishTask(ctx, input.Number, input.title()); err != nil {
			return nil, handleError(err)
		}
		v, err := e.Project(input.Number)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ProjectView `json:"body"`
		}{Body: v}, nil
	})
}

func assignmentResponse(e *engine.Engine, number, workerID int) (*struct {
	Body AssignmentResponse `json:"body"`
}, error) {
	status, err := e.ProjectStatus(number)
	if err != nil {
		return nil, handleError(err)
	}
	return &struct {
		Body AssignmentResponse `json:"body"`
	}{Body: AssignmentResponse{WorkerID: workerID, Status: status}}, nil
}

func registerCost(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "total-cost",
		Method:      http.MethodGet,
		Path:        "/cost",
		Summary:     "Total cost across projects",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body CostResponse `json:"body"`
	}, error) {
		total, err := e.TotalCost()
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CostResponse `json:"body"`
		}{Body: CostResponse{Total: total}}, nil
	})
}

func registerEvents(api huma.API, log EventLog) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent journal entries",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Project int `query:"project" doc:"Project number; 0 lists all"`
		Limit   int `query:"limit" default:"50"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		resp := paginatedEvents{Items: []EventResponse{}}
		if log == nil {
			return &struct {
				Body paginatedEvents `json:"body"`
			}{Body: resp}, nil
		}
		items, err := log.Recent(ctx, normalizeLimit(input.Limit), input.Project)
		if err != nil {
			return nil, handleError(err)
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}

func registerAssignments(api huma.API, log EventLog) {
	huma.Register(api, huma.Operation{
		OperationID: "list-assignments",
		Method:      http.MethodGet,
		Path:        "/assignments",
		Summary:     "Journaled assignment history",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Project int `query:"project" doc:"Project number; 0 lists all"`
	}) (*struct {
		Body []domain.Assignment `json:"body"`
	}, error) {
		items := []domain.Assignment{}
		if log != nil {
			var err error
			if items, err = log.Assignments(ctx, input.Project); err != nil {
				return nil, handleError(err)
			}
		}
		return &struct {
			Body []domain.Assignment `json:"body"`
		}{Body: nonNilSlice(items)}, nil
	})
}

func bodyBytes(ctx context.Context) []byte {
	if v, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return v
	}
	return nil
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 500 {
		return 500
	}
	return in
}
