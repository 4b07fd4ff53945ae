package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/engine"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
	"github.com/Someesvaar/Freelance-Hub/internal/logger"
	"github.com/Someesvaar/Freelance-Hub/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_state"`
	Message string         `json:"message" example:"project p-1 is in_progress; bids are accepted only while open"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"status\":\"in_progress\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Freelance Hub API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
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
			// Schema/request validation errors are 400 invalid_input.
			return newAPIError(http.StatusBadRequest, string(apperrors.KindInvalidInput), msg, validationDetails(errs))
		}
		return newAPIError(status, "", msg, validationDetails(errs))
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(logger.RequestLogger)
	router.Use(logger.Recoverer)
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Freelance Hub API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerProjects(group, cfg.Engine)
	registerBids(group, cfg.Engine)
	registerEngagement(group, cfg.Engine)
	registerReviews(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerUsers(group, cfg.Engine)
	if cfg.Auth.DevLogin {
		registerDevAuth(group, cfg.Engine, cfg.Auth)
	}
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

func validationDetails(errs []error) map[string]any {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return map[string]any{"errors": msgs}
}

var statusByKind = map[apperrors.Kind]int{
	apperrors.KindNotFound:          http.StatusNotFound,
	apperrors.KindForbidden:         http.StatusForbidden,
	apperrors.KindInvalidState:      http.StatusConflict,
	apperrors.KindIllegalTransition: http.StatusConflict,
	apperrors.KindDuplicateBid:      http.StatusConflict,
	apperrors.KindInvalidAmount:     http.StatusBadRequest,
	apperrors.KindInvalidRating:     http.StatusBadRequest,
	apperrors.KindInvalidInput:      http.StatusBadRequest,
	apperrors.KindNotEligible:       http.StatusUnprocessableEntity,
	apperrors.KindUnavailable:       http.StatusServiceUnavailable,
}

// handleError maps an engine error onto the envelope by kind.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	kind := apperrors.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		logger.Error().Err(err).Msg("unhandled error")
		return newAPIError(http.StatusInternalServerError, string(apperrors.KindInternal), "internal error", nil)
	}
	if kind == apperrors.KindUnavailable {
		logger.Warn().Err(err).Msg("storage unavailable")
	}
	return newAPIError(status, string(kind), err.Error(), apperrors.DetailsOf(err))
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(apperrors.KindInvalidInput)
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return string(apperrors.KindNotFound)
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return string(apperrors.KindForbidden)
	case http.StatusServiceUnavailable:
		return string(apperrors.KindUnavailable)
	case http.StatusInternalServerError:
		return string(apperrors.KindInternal)
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
		spec []byte
		once sync.Once
	)
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		})
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

// publicOperations can be called without credentials.
var publicOperations = map[string]bool{
	"health":         true,
	"list-projects":  true,
	"get-project":    true,
	"list-bids":      true,
	"rank-bids":      true,
	"get-user":       true,
	"project-events": true,
	"dev-login":      true,
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if publicOperations[op.OperationID] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
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
    <title>Freelance Hub API Docs</title>
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
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
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

type projectPath struct {
	ProjectID string `path:"project_id"`
}

type projectViewOutput struct {
	Body ProjectViewResponse `json:"body"`
}

func registerProjects(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Post a project",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateProjectRequest `json:"body"`
	}) (*projectViewOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		v, err := e.CreateProject(ctx, actor, engine.ProjectCreateOptions{
			ID:             input.Body.ID,
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			Budget:         input.Body.Budget,
			RequiredSkills: input.Body.RequiredSkills,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &projectViewOutput{Body: projectViewResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status       string `query:"status" doc:"open, in_progress, pending_review, needs_revision or completed"`
		Skill        string `query:"skill"`
		ClientID     string `query:"client_id"`
		FreelancerID string `query:"freelancer_id"`
		Limit        int    `query:"limit" default:"50"`
	}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		items, err := e.ListProjects(ctx, repo.ProjectFilters{
			Status:       domain.Status(input.Status),
			Skill:        input.Skill,
			ClientID:     input.ClientID,
			FreelancerID: input.FreelancerID,
			Limit:        normalizeLimit(input.Limit),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: mapProjects(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/project/{project_id}",
		Summary:     "Get project with its bids, reviews and the caller's next actions",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*projectViewOutput, error) {
		v, err := e.GetProject(ctx, input.ProjectID, viewerFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &projectViewOutput{Body: projectViewResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPut,
		Path:        "/project/{project_id}",
		Summary:     "Edit an open project's details (owner)",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string               `path:"project_id"`
		Body      UpdateProjectRequest `json:"body"`
	}) (*projectViewOutput, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		v, err := e.UpdateProject(ctx, actor, input.ProjectID, engine.ProjectUpdateOptions{
			Title:          input.Body.Title,
			Description:    input.Body.Description,
			Budget:         input.Body.Budget,
			RequiredSkills: input.Body.RequiredSkills,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &projectViewOutput{Body: projectViewResponse(v)}, nil
	})
}

func registerBids(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-bid",
		Method:        http.MethodPost,
		Path:          "/project/{project_id}/bid",
		Summary:       "Submit a bid",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string           `path:"project_id"`
		Body      SubmitBidRequest `json:"body"`
	}) (*struct {
		Body domain.Bid `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		bid, err := e.SubmitBid(ctx, actor, input.ProjectID, engine.BidOptions{
			ID:           input.Body.ID,
			Amount:       input.Body.Amount,
			Proposal:     input.Body.Proposal,
			TimelineDays: input.Body.TimelineDays,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Bid `json:"body"`
		}{Body: bid}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-bids",
		Method:      http.MethodGet,
		Path:        "/project/{project_id}/bids",
		Summary:     "List bids in submission order",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *projectPath) (*struct {
		Body []domain.Bid `json:"body"`
	}, error) {
		bids, err := e.ListBids(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Bid `json:"body"`
		}{Body: nonNilSlice(bids)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rank-bids",
		Method:      http.MethodPost,
		Path:        "/rank_bids",
		Summary:     "Rank a project's bids under a priority",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		Body RankBidsRequest `json:"body"`
	}) (*struct {
		Body RankingResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "", "body required", nil)
		}
		res, err := e.RankBids(ctx, input.Body.ProjectID, domain.Priority(input.Body.Priority))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RankingResponse `json:"body"`
		}{Body: rankingResponse(res)}, nil
	})
}

func registerEngagement(api huma.API, e engine.Engine) {
	errs := []int{
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
		http.StatusConflict,
	}

	huma.Register(api, huma.Operation{
		OperationID: "accept-bid",
		Method:      http.MethodPost,
		Path:        "/project/{project_id}/accept_bid",
		Summary:     "Accept a bid and start the engagement",
		Errors:      append([]int{http.StatusBadRequest}, errs...),
	}, func(ctx context.Context, input *struct {
		ProjectID string           `path:"project_id"`
		Body      AcceptBidRequest `json:"body"`
	}) (*projectViewOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		v, err := e.AcceptBid(ctx, actor, input.ProjectID, input.Body.BidID)
		if err != nil {
			return nil, handleError(err)
		}
		return &projectViewOutput{Body: projectViewResponse(v)}, nil
	})

	transitions := []struct {
		id, path, summary string
		run               func(engine.Engine, context.Context, auth.Actor, string) (engine.ProjectView, error)
	}{
		{"complete-work", "/project/{project_id}/complete", "Submit work for review", engine.Engine.CompleteWork},
		{"request-revision", "/project/{project_id}/request_revision", "Send submitted work back for revision", engine.Engine.RequestRevision},
		{"accept-work", "/project/{project_id}/accept", "Accept submitted work and close the engagement", engine.Engine.AcceptCompletedWork},
	}
	for _, tr := range transitions {
		run := tr.run
		huma.Register(api, huma.Operation{
			OperationID: tr.id,
			Method:      http.MethodPost,
			Path:        tr.path,
			Summary:     tr.summary,
			Errors:      errs,
		}, func(ctx context.Context, input *projectPath) (*projectViewOutput, error) {
			actor, authErr := actorFromContext(ctx)
			if authErr != nil {
				return nil, authErr
			}
			v, err := run(e, ctx, actor, input.ProjectID)
			if err != nil {
				return nil, handleError(err)
			}
			return &projectViewOutput{Body: projectViewResponse(v)}, nil
		})
	}
}

func registerReviews(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "can-review",
		Method:      http.MethodGet,
		Path:        "/project/{project_id}/can_review",
		Summary:     "Whether a user may review the project counterpart",
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		UserID    string `query:"user_id"`
	}) (*struct {
		Body CanReviewResponse `json:"body"`
	}, error) {
		userID := strings.TrimSpace(input.UserID)
		if userID == "" {
			actor, authErr := actorFromContext(ctx)
			if authErr != nil {
				return nil, authErr
			}
			userID = actor.ID
		}
		ok, err := e.CanReview(ctx, input.ProjectID, userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CanReviewResponse `json:"body"`
		}{Body: CanReviewResponse{ProjectID: input.ProjectID, UserID: userID, CanReview: ok}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "post-review",
		Method:        http.MethodPost,
		Path:          "/project/{project_id}/review",
		Summary:       "Review the counterpart of a completed project",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string            `path:"project_id"`
		Body      PostReviewRequest `json:"body"`
	}) (*struct {
		Body domain.Review `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		rv, err := e.PostReview(ctx, actor, input.ProjectID, engine.ReviewOptions{
			Rating:  input.Body.Rating,
			Comment: input.Body.Comment,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Review `json:"body"`
		}{Body: rv}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "project-events",
		Method:      http.MethodGet,
		Path:        "/project/{project_id}/events",
		Summary:     "Audit log of a project, newest first",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Limit     int    `query:"limit" default:"50"`
		Cursor    string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit)
		var cursorID int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil || parsed <= 0 {
				return nil, newAPIError(http.StatusBadRequest, "", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			cursorID = parsed
		}
		items, err := e.ProjectEvents(ctx, input.ProjectID, limit+1, cursorID)
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			items = items[:limit]
			resp.NextCursor = strconv.FormatInt(items[limit-1].ID, 10)
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}

type profileOutput struct {
	Body UserProfileResponse `json:"body"`
}

func registerUsers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "my-profile",
		Method:      http.MethodGet,
		Path:        "/user/profile",
		Summary:     "Profile of the caller",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*profileOutput, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if _, err := e.EnsureUser(ctx, actor); err != nil {
			return nil, handleError(err)
		}
		prof, err := e.GetUser(ctx, actor.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &profileOutput{Body: userProfileResponse(prof)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPut,
		Path:        "/user/profile",
		Summary:     "Replace the caller's skills",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, input *struct {
		Body UpdateProfileRequest `json:"body"`
	}) (*profileOutput, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "", "body required", nil)
		}
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if _, err := e.SetSkills(ctx, actor, input.Body.Skills); err != nil {
			return nil, handleError(err)
		}
		prof, err := e.GetUser(ctx, actor.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &profileOutput{Body: userProfileResponse(prof)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/user/{user_id}",
		Summary:     "Public profile of a user",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		UserID string `path:"user_id"`
	}) (*profileOutput, error) {
		prof, err := e.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, handleError(err)
		}
		return &profileOutput{Body: userProfileResponse(prof)}, nil
	})
}

func registerDevAuth(api huma.API, e engine.Engine, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "", "body required", nil)
		}
		userID := strings.TrimSpace(input.Body.UserID)
		if userID == "" {
			return nil, newAPIError(http.StatusBadRequest, "", "user_id is required", nil)
		}
		actor := actorForLogin(userID, input.Body.Name, input.Body.IsFreelancer)
		if _, err := e.EnsureUser(ctx, actor); err != nil {
			return nil, handleError(err)
		}
		token, err := SignToken(authCfg, actor)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "", err.Error(), nil)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token}}, nil
	})
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 200 {
		return 200
	}
	return in
}
