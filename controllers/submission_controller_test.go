package controllers

import (
	"context"
	"net/http"
	"testing"

	"diwan-api/middleware"
	"diwan-api/models"
	"diwan-api/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contributor = services.Actor{ID: 10, Role: models.RoleContributor, Active: true}

type fakeWorkflow struct {
	SubmissionWorkflow

	created services.DraftInput
	patch   services.DraftPatch
	query   services.PublishedQuery
	actor   services.Actor
	err     error
}

func (f *fakeWorkflow) CreateDraft(ctx context.Context, actor services.Actor, input services.DraftInput) (*models.Submission, error) {
	f.actor = actor
	f.created = input
	if f.err != nil {
		return nil, f.err
	}
	return &models.Submission{SubmissionID: 1, Title: input.Title, Status: models.StatusDraft}, nil
}

func (f *fakeWorkflow) UpdateDraft(ctx context.Context, actor services.Actor, id uint, patch services.DraftPatch) (*models.Submission, error) {
	f.patch = patch
	if f.err != nil {
		return nil, f.err
	}
	return &models.Submission{SubmissionID: id}, nil
}

func (f *fakeWorkflow) DeleteDraft(ctx context.Context, actor services.Actor, id uint) error {
	return f.err
}

func (f *fakeWorkflow) ListPublished(ctx context.Context, query services.PublishedQuery) ([]models.Submission, int64, error) {
	f.query = query
	return []models.Submission{}, 0, f.err
}

func (f *fakeWorkflow) GetPublishedBySlug(ctx context.Context, slug string) (*models.Submission, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Submission{Slug: slug, Status: models.StatusPublished}, nil
}

func submissionRouter(workflow *fakeWorkflow, actor *services.Actor) *gin.Engine {
	h := NewSubmissionController(workflow)
	router := gin.New()
	router.Use(middleware.RequestID(), withActor(actor))
	router.POST("/submissions", h.Create)
	router.PUT("/submissions/:id", h.Update)
	router.DELETE("/submissions/:id", h.Delete)
	router.GET("/content", h.ListPublished)
	router.GET("/content/:slug", h.GetBySlug)
	return router
}

func TestCreateSubmission(t *testing.T) {
	workflow := &fakeWorkflow{}
	rec := serve(submissionRouter(workflow, &contributor), http.MethodPost, "/submissions",
		`{"title":"الطاقة الشمسية","body":"نص","category_id":3,"content_type":"term","tags":["طاقة"],"submit":true}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, contributor, workflow.actor)
	assert.Equal(t, "الطاقة الشمسية", workflow.created.Title)
	assert.Equal(t, uint(3), workflow.created.CategoryID)
	assert.Equal(t, []string{"طاقة"}, workflow.created.Tags)
	assert.True(t, workflow.created.Submit)

	rec = serve(submissionRouter(workflow, &contributor), http.MethodPost, "/submissions", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSubmissionValidationFields(t *testing.T) {
	workflow := &fakeWorkflow{err: &services.Error{
		Kind:    services.ErrValidation,
		Message: "invalid input",
		Fields:  map[string]string{"title": "title must be between 5 and 200 characters"},
	}}
	rec := serve(submissionRouter(workflow, &contributor), http.MethodPost, "/submissions", `{"title":"x"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeBody(t, rec)["fields"].(map[string]interface{})
	assert.Contains(t, fields, "title")
}

func TestUpdateSubmissionPatchKeepsAbsentFields(t *testing.T) {
	workflow := &fakeWorkflow{}
	rec := serve(submissionRouter(workflow, &contributor), http.MethodPut, "/submissions/4", `{"body":"نص جديد"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, workflow.patch.Body)
	assert.Equal(t, "نص جديد", *workflow.patch.Body)
	assert.Nil(t, workflow.patch.Title)
	assert.Nil(t, workflow.patch.Tags)
}

func TestDeleteSubmissionConflict(t *testing.T) {
	workflow := &fakeWorkflow{err: &services.Error{Kind: services.ErrConflict, Message: "submission 4 is submitted and can no longer be edited"}}
	rec := serve(submissionRouter(workflow, &contributor), http.MethodDelete, "/submissions/4", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListPublishedQuery(t *testing.T) {
	workflow := &fakeWorkflow{}
	rec := serve(submissionRouter(workflow, nil), http.MethodGet, "/content?category_id=2&type=article&q=%D8%B4%D9%85%D8%B3&page=3", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, workflow.query.CategoryID)
	assert.Equal(t, uint(2), *workflow.query.CategoryID)
	assert.Equal(t, "article", workflow.query.ContentType)
	assert.Equal(t, "شمس", workflow.query.Search)
	assert.Equal(t, 3, workflow.query.Page)

	rec = serve(submissionRouter(workflow, nil), http.MethodGet, "/content?category_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPublishedBySlugIsPublic(t *testing.T) {
	rec := serve(submissionRouter(&fakeWorkflow{}, nil), http.MethodGet, "/content/solar-energy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "solar-energy", data["slug"])

	rec = serve(submissionRouter(&fakeWorkflow{err: &services.Error{Kind: services.ErrNotFound, Message: "content not found"}}, nil),
		http.MethodGet, "/content/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
