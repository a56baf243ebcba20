package correction_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yusuke-yano-01/Timelog/internal/correction"
	correctionerrors "github.com/yusuke-yano-01/Timelog/internal/correction/errors"
	"github.com/yusuke-yano-01/Timelog/internal/domain"
	"github.com/yusuke-yano-01/Timelog/internal/middleware"
	"github.com/yusuke-yano-01/Timelog/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	submitFn  func(ctx context.Context, actor domain.Actor, req correction.SubmitRequest) (correction.SubmitResponse, error)
	approveFn func(ctx context.Context, actor domain.Actor, id string) (correction.CorrectionResponse, error)
	listFn    func(ctx context.Context, actor domain.Actor, status string) ([]correction.CorrectionResponse, error)
	getFn     func(ctx context.Context, actor domain.Actor, id string) (correction.CorrectionResponse, error)
}

func (f *fakeService) Submit(ctx context.Context, actor domain.Actor, req correction.SubmitRequest) (correction.SubmitResponse, error) {
	return f.submitFn(ctx, actor, req)
}
func (f *fakeService) Approve(ctx context.Context, actor domain.Actor, id string) (correction.CorrectionResponse, error) {
	return f.approveFn(ctx, actor, id)
}
func (f *fakeService) List(ctx context.Context, actor domain.Actor, status string) ([]correction.CorrectionResponse, error) {
	return f.listFn(ctx, actor, status)
}
func (f *fakeService) GetByID(ctx context.Context, actor domain.Actor, id string) (correction.CorrectionResponse, error) {
	return f.getFn(ctx, actor, id)
}

func newContext(method, path, body, role string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserID, uuid.NewString())
	c.Set(middleware.ContextRole, role)
	c.Request = httptest.NewRequest(method, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func manyBreaks(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"start":"%02d:00","end":"%02d:10"}`, i%24, i%24)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestHandler_Submit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		body     string
		role     string
		result   string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "staff edit is accepted for approval",
			body:     `{"work_date":"2024-05-10","arrival":"09:30","note":"late bus"}`,
			role:     domain.RoleStaff,
			result:   correction.SubmitPending,
			wantCode: http.StatusAccepted,
			wantBody: `"result":"PENDING_APPROVAL"`,
		},
		{
			name:     "admin edit is applied",
			body:     `{"work_date":"2024-05-10","user_id":"` + uuid.NewString() + `","note":"fixed"}`,
			role:     domain.RoleAdmin,
			result:   correction.SubmitApplied,
			wantCode: http.StatusOK,
			wantBody: `"result":"APPLIED"`,
		},
		{
			name:     "break count is not capped at binding",
			body:     `{"work_date":"2024-05-10","note":"split shifts","breaks":` + manyBreaks(25) + `}`,
			role:     domain.RoleStaff,
			result:   correction.SubmitPending,
			wantCode: http.StatusAccepted,
			wantBody: `"result":"PENDING_APPROVAL"`,
		},
		{
			name:     "missing work_date fails binding",
			body:     `{"note":"x"}`,
			role:     domain.RoleStaff,
			wantCode: http.StatusBadRequest,
			wantBody: `"VALIDATION_ERROR"`,
		},
		{
			name: "field errors are returned per field",
			body: `{"work_date":"2024-05-10","arrival":"19:00","departure":"18:00","note":"x"}`,
			role: domain.RoleStaff,
			err: apperror.Validation(apperror.FieldErrors{
				"arrival": correction.MsgArrivalInvalidStaff,
			}),
			wantCode: http.StatusBadRequest,
			wantBody: `"arrival":"arrival invalid"`,
		},
		{
			name:     "foreign record is forbidden",
			body:     `{"work_date":"2024-05-10","time_record_id":"` + uuid.NewString() + `","note":"x"}`,
			role:     domain.RoleStaff,
			err:      correctionerrors.ErrForbidden,
			wantCode: http.StatusForbidden,
			wantBody: `"FORBIDDEN"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{
				submitFn: func(ctx context.Context, actor domain.Actor, req correction.SubmitRequest) (correction.SubmitResponse, error) {
					assert.Equal(t, tt.role, actor.Role)
					assert.Equal(t, "2024-05-10", req.WorkDate)
					if tt.err != nil {
						return correction.SubmitResponse{}, tt.err
					}
					return correction.SubmitResponse{Result: tt.result}, nil
				},
			}
			h := correction.NewHandler(svc, nil)

			c, w := newContext(http.MethodPut, "/timelogs", tt.body, tt.role)
			h.Submit(c)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestHandler_Approve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	id := uuid.NewString()

	svc := &fakeService{
		approveFn: func(ctx context.Context, actor domain.Actor, got string) (correction.CorrectionResponse, error) {
			assert.Equal(t, id, got)
			if actor.Role != domain.RoleAdmin {
				return correction.CorrectionResponse{}, correctionerrors.ErrApproveForbidden
			}
			return correction.CorrectionResponse{ID: got, Status: correction.StatusApproved}, nil
		},
	}
	h := correction.NewHandler(svc, nil)

	c, w := newContext(http.MethodPost, "/corrections/"+id+"/approve", "", domain.RoleAdmin)
	c.Params = gin.Params{{Key: "id", Value: id}}
	h.Approve(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"APPROVED"`)

	c, w = newContext(http.MethodPost, "/corrections/"+id+"/approve", "", domain.RoleStaff)
	c.Params = gin.Params{{Key: "id", Value: id}}
	h.Approve(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_List_PassesStatusFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &fakeService{
		listFn: func(ctx context.Context, actor domain.Actor, status string) ([]correction.CorrectionResponse, error) {
			if status == "bogus" {
				return nil, correctionerrors.ErrInvalidStatus
			}
			assert.Equal(t, "pending", status)
			return []correction.CorrectionResponse{{ID: "a", IsPending: true}, {ID: "b", IsPending: true}}, nil
		},
	}
	h := correction.NewHandler(svc, nil)

	c, w := newContext(http.MethodGet, "/corrections?status=pending", "", domain.RoleAdmin)
	h.List(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_pending":true`)

	c, w = newContext(http.MethodGet, "/corrections?status=bogus", "", domain.RoleAdmin)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
