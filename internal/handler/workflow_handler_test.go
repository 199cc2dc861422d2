package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/crms-go-api/internal/config"
	"github.com/noah-isme/crms-go-api/internal/dto"
	"github.com/noah-isme/crms-go-api/internal/handler"
	"github.com/noah-isme/crms-go-api/internal/models"
	"github.com/noah-isme/crms-go-api/internal/repository"
	"github.com/noah-isme/crms-go-api/internal/router"
	"github.com/noah-isme/crms-go-api/internal/service"
)

const (
	testAuthorID  = uint(10)
	testManagerID = uint(20)
)

func setupWorkflowApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Track{},
		&models.TrackAssignment{},
		&models.Submission{},
		&models.Review{},
		&models.StatusHistory{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	submissionRepo := repository.NewSubmissionRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	trackRepo := repository.NewTrackRepository(db)
	memberRepo := repository.NewTrackAssignmentRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	tx := repository.NewTransactor(db)

	guard := service.NewAuthzGuard(memberRepo, reviewRepo, logger)

	submissionService := service.NewSubmissionService(submissionRepo, trackRepo, historyRepo, tx, guard, nil, nil, validate, logger)
	assignmentService := service.NewAssignmentService(submissionRepo, reviewRepo, memberRepo, historyRepo, tx, guard, nil, validate, config.DefaultReviewDeadline, logger)
	reviewService := service.NewReviewService(submissionRepo, reviewRepo, historyRepo, tx, guard, nil, nil, validate, config.DefaultReviewThreshold, config.DefaultReviewDeadline, logger)
	statisticsService := service.NewStatisticsService(reviewRepo, nil, time.Minute, logger)
	trackService := service.NewTrackService(trackRepo, memberRepo, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, validate, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, validate, logger),
		ReviewHandler:     handler.NewReviewHandler(reviewService, validate, logger),
		StatisticsHandler: handler.NewStatisticsHandler(statisticsService, logger),
		TrackHandler:      handler.NewTrackHandler(trackService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			if v := c.Get("X-Test-User"); v != "" {
				id, err := strconv.ParseUint(v, 10, 64)
				if err != nil {
					return fiber.ErrBadRequest
				}
				c.Locals("user_id", uint(id))
			}
			if role := c.Get("X-Test-Role"); role != "" {
				c.Locals("user_role", role)
			}
			return c.Next()
		},
	})

	track := models.Track{Code: "SE", Name: "Software Engineering", Active: true}
	require.NoError(t, db.Create(&track).Error)
	require.NoError(t, db.Create(&models.TrackAssignment{
		UserID: testManagerID, TrackID: track.ID, Role: models.TrackRoleManager, Active: true,
	}).Error)
	for _, reviewerID := range []uint{100, 101, 102} {
		require.NoError(t, db.Create(&models.TrackAssignment{
			UserID: reviewerID, TrackID: track.ID, Role: models.TrackRoleReviewer, Active: true,
		}).Error)
	}

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}, userID uint, role string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
	req.Header.Set("X-Test-Role", role)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func createSubmission(t *testing.T, app *fiber.App) dto.SubmissionResponse {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/v1/submissions", map[string]interface{}{
		"title":    "Sharded Counters Revisited",
		"abstract": "A measurement study of contended counters in modern stores.",
		"track_id": 1,
	}, testAuthorID, service.RoleAuthor)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "submission created", body.Message)
	require.NotZero(t, body.Data.ID)
	return body.Data
}

func TestWorkflowHandlerFullLifecycle(t *testing.T) {
	app, _ := setupWorkflowApp(t)

	submission := createSubmission(t, app)
	base := "/api/v1/submissions/" + strconv.FormatUint(uint64(submission.ID), 10)

	// Manager assigns three reviewers in bulk.
	bulkResp := doJSON(t, app, "POST", base+"/reviewers/bulk", map[string]interface{}{
		"reviewer_ids": []uint{100, 101, 102},
	}, testManagerID, service.RoleTrackManager)
	require.Equal(t, fiber.StatusOK, bulkResp.StatusCode)

	var bulkBody struct {
		Success bool                       `json:"success"`
		Data    dto.BulkAssignmentResponse `json:"data"`
	}
	decodeResponse(t, bulkResp, &bulkBody)
	require.True(t, bulkBody.Success)
	require.Equal(t, 3, bulkBody.Data.AssignedCount)

	// Each reviewer files a completed review.
	for _, reviewerID := range []uint{100, 101, 102} {
		resp := doJSON(t, app, "POST", base+"/reviews", map[string]interface{}{
			"decision":           models.DecisionAcceptAsIs,
			"originality_score":  8,
			"methodology_score":  6,
			"clarity_score":      7,
			"significance_score": 9,
			"references_score":   5,
		}, reviewerID, service.RoleReviewer)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	// The third completed review forces evaluation.
	getResp := doJSON(t, app, "GET", base, nil, testManagerID, service.RoleTrackManager)
	require.Equal(t, fiber.StatusOK, getResp.StatusCode)

	var getBody struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, getResp, &getBody)
	require.Equal(t, models.StatusUnderEvaluation, getBody.Data.Status)

	scoreResp := doJSON(t, app, "GET", base+"/score", nil, testManagerID, service.RoleTrackManager)
	require.Equal(t, fiber.StatusOK, scoreResp.StatusCode)

	var scoreBody struct {
		Data dto.AggregateScoreResponse `json:"data"`
	}
	decodeResponse(t, scoreResp, &scoreBody)
	require.Equal(t, 3, scoreBody.Data.CompletedReviews)
	require.InDelta(t, 7.15, scoreBody.Data.AverageScore, 0.0001)

	// Manager records the decision.
	statusResp := doJSON(t, app, "PUT", base+"/status", map[string]interface{}{
		"status": models.StatusAccepted,
		"notes":  "unanimous accept",
	}, testManagerID, service.RoleTrackManager)
	require.Equal(t, fiber.StatusOK, statusResp.StatusCode)

	historyResp := doJSON(t, app, "GET", base+"/history", nil, testAuthorID, service.RoleAuthor)
	require.Equal(t, fiber.StatusOK, historyResp.StatusCode)

	var historyBody struct {
		Data []dto.StatusHistoryResponse `json:"data"`
	}
	decodeResponse(t, historyResp, &historyBody)
	require.Len(t, historyBody.Data, 5)
	require.Equal(t, models.StatusSubmitted, historyBody.Data[0].ToStatus)
	require.Equal(t, models.StatusAccepted, historyBody.Data[4].ToStatus)
}

func TestWorkflowHandlerDuplicateAssignmentConflict(t *testing.T) {
	app, _ := setupWorkflowApp(t)

	submission := createSubmission(t, app)
	path := "/api/v1/submissions/" + strconv.FormatUint(uint64(submission.ID), 10) + "/reviewers"

	first := doJSON(t, app, "POST", path, map[string]interface{}{"reviewer_id": 100}, testManagerID, service.RoleTrackManager)
	require.Equal(t, fiber.StatusCreated, first.StatusCode)

	second := doJSON(t, app, "POST", path, map[string]interface{}{"reviewer_id": 100}, testManagerID, service.RoleTrackManager)
	require.Equal(t, fiber.StatusConflict, second.StatusCode)
}

func TestWorkflowHandlerAssignmentRequiresManagerRole(t *testing.T) {
	app, _ := setupWorkflowApp(t)

	submission := createSubmission(t, app)
	path := "/api/v1/submissions/" + strconv.FormatUint(uint64(submission.ID), 10) + "/reviewers"

	resp := doJSON(t, app, "POST", path, map[string]interface{}{"reviewer_id": 100}, 100, service.RoleReviewer)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWorkflowHandlerEditByNonAuthorForbidden(t *testing.T) {
	app, _ := setupWorkflowApp(t)

	submission := createSubmission(t, app)
	path := "/api/v1/submissions/" + strconv.FormatUint(uint64(submission.ID), 10)

	resp := doJSON(t, app, "PATCH", path, map[string]interface{}{
		"title": "Hijacked Title",
	}, 999, service.RoleAuthor)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestWorkflowHandlerInvalidStatusRejected(t *testing.T) {
	app, _ := setupWorkflowApp(t)

	submission := createSubmission(t, app)
	path := "/api/v1/submissions/" + strconv.FormatUint(uint64(submission.ID), 10) + "/status"

	resp := doJSON(t, app, "PUT", path, map[string]interface{}{
		"status": "shipped",
	}, testManagerID, service.RoleTrackManager)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWorkflowHandlerMalformedListFilterRejected(t *testing.T) {
	app, _ := setupWorkflowApp(t)

	resp := doJSON(t, app, "GET", "/api/v1/submissions?track_id=abc", nil, testAuthorID, service.RoleAuthor)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, "GET", "/api/v1/submissions?author_id=-1", nil, testAuthorID, service.RoleAuthor)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWorkflowHandlerReviewerStatistics(t *testing.T) {
	app, _ := setupWorkflowApp(t)

	submission := createSubmission(t, app)
	base := "/api/v1/submissions/" + strconv.FormatUint(uint64(submission.ID), 10)

	resp := doJSON(t, app, "POST", base+"/reviews", map[string]interface{}{
		"decision":           models.DecisionAcceptAsIs,
		"originality_score":  8,
		"methodology_score":  6,
		"clarity_score":      7,
		"significance_score": 9,
		"references_score":   5,
	}, 100, service.RoleReviewer)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	statsResp := doJSON(t, app, "GET", "/api/v1/reviewers/100/statistics", nil, testManagerID, service.RoleTrackManager)
	require.Equal(t, fiber.StatusOK, statsResp.StatusCode)

	var statsBody struct {
		Data dto.ReviewerStatisticsResponse `json:"data"`
	}
	decodeResponse(t, statsResp, &statsBody)
	require.Equal(t, uint(100), statsBody.Data.ReviewerID)
	require.Equal(t, 1, statsBody.Data.CompletedReviews)
	require.InDelta(t, 7.15, statsBody.Data.AverageScore, 0.0001)
}

func TestWorkflowHandlerTrackCatalog(t *testing.T) {
	app, _ := setupWorkflowApp(t)

	resp := doJSON(t, app, "GET", "/api/v1/tracks", nil, testAuthorID, service.RoleAuthor)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.TrackResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Equal(t, "SE", body.Data[0].Code)
	require.Equal(t, 3, body.Data[0].ReviewerPoolSize)
}
