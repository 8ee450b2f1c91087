package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Kerhoff/fastclub/internal/metrics"
	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/repository/memory"
	"github.com/Kerhoff/fastclub/internal/service"
)

var now = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	srv  *Server
	svc  *service.Service
	club *models.Club
}

func newFixture(t *testing.T, limiter *rate.Limiter) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	reg := prometheus.NewRegistry()
	st := memory.New()
	svc := service.New(nil, logger, metrics.NewWithRegistry(reg, reg),
		service.Options{Clock: func() time.Time { return now }},
		st.Clubs(), st.Members(), st.MeetingRules(), st.FeeTypes(), st.Fees(), st.Calendar())

	club, err := svc.CreateClub(context.Background(), &models.Club{Name: "Rotary Nord", AnnualFee: decimal.NewFromInt(120), Timezone: "UTC"})
	require.NoError(t, err)

	return &fixture{srv: NewServer(svc, logger, limiter), svc: svc, club: club}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestMembers_CreateValidatesAndLists(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/members", `{"club_id":1,"first_name":"","membership_start_date":"15.03.2020"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "required", fields["first_name"])
	assert.Equal(t, "datetime", fields["membership_start_date"])

	rec = f.do(t, http.MethodPost, "/api/members", `{"club_id":1,"first_name":"Alice","membership_start_date":"2020-03-15"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	member := decode[models.Member](t, rec)
	assert.Equal(t, models.MemberStatusActive, member.Status)

	rec = f.do(t, http.MethodGet, "/api/members?club_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Member](t, rec), 1)

	rec = f.do(t, http.MethodGet, "/api/members", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/members/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMembers_UpdateCannotMoveStartDate(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodPost, "/api/members", `{"club_id":1,"first_name":"Alice","membership_start_date":"2020-03-15"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	member := decode[models.Member](t, rec)

	rec = f.do(t, http.MethodPut, "/api/members/"+itoa(member.ID), `{"status":"emeritus","membership_start_date":"2024-01-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Member](t, rec)
	assert.Equal(t, models.MemberStatusEmeritus, updated.Status)
	assert.Equal(t, "2020-03-15", updated.MembershipStartDate.Format(dateLayout))
}

func TestMeetings_ReplaceAndProject(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPut, "/api/meetings/rules", `{"club_id":1,"rules":[{"meeting_type":"board_meeting","week_of_month":5,"day_of_week":2,"time_of_day":"19:00"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/meetings/rules", `{"club_id":1,"rules":[{"meeting_type":"board_meeting","week_of_month":2,"day_of_week":2,"time_of_day":"25:00"}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, "domain validation rejects bad clock")

	rec = f.do(t, http.MethodPut, "/api/meetings/rules", `{"club_id":1,"rules":[
		{"meeting_type":"board_meeting","week_of_month":2,"day_of_week":2,"time_of_day":"19:00","location":"Club house"},
		{"meeting_type":"fireside","week_of_month":-1,"day_of_week":4,"time_of_day":"20:00","active":false}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/meetings/upcoming?club_id=1&months=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	occ := decode[[]models.MeetingOccurrence](t, rec)
	require.Len(t, occ, 2)
	assert.Equal(t, "2025-06-10", occ[0].Date.Format(dateLayout))
	assert.Equal(t, "2025-07-08", occ[1].Date.Format(dateLayout))

	rec = f.do(t, http.MethodGet, "/api/meetings/upcoming?club_id=1&months=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/meetings/upcoming?club_id=1&months=3000000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/agenda?club_id=1&months=25", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/events", `{"club_id":1,"title":"Charity dinner","start_time":"2025-06-12T18:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/agenda?club_id=1&months=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]models.AgendaItem](t, rec)
	require.Len(t, items, 3)
	assert.Equal(t, "event", items[1].Kind)
}

func TestFees_Lifecycle(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodPost, "/api/members", `{"club_id":1,"first_name":"Bob","membership_start_date":"2019-09-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/fees/generate", `{"club_id":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	summary := decode[service.GenerationSummary](t, rec)
	require.Equal(t, 1, summary.Created)
	feeID := summary.Obligations[0].ID

	rec = f.do(t, http.MethodPost, "/api/fees/generate", `{"club_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[service.GenerationSummary](t, rec).Created)

	rec = f.do(t, http.MethodPut, "/api/fees/"+itoa(feeID)+"/paid", `{"paid_date":"2025-06-01","payment_method":"transfer"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode[service.FeeView](t, rec)
	assert.Equal(t, models.FeeStatusPaid, paid.DisplayStatus)
	assert.Equal(t, "2025-06-01", paid.PaidDate.Format(dateLayout))

	rec = f.do(t, http.MethodPut, "/api/fees/"+itoa(feeID)+"/waive", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/fees/999/paid", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/fees/summary?club_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"paid"`)
}

func TestFees_OverdueIsDerived(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodPost, "/api/members", `{"club_id":1,"first_name":"Bob","membership_start_date":"2019-09-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	member := decode[models.Member](t, rec)

	rec = f.do(t, http.MethodPost, "/api/fees", `{"club_id":1,"member_id":`+itoa(member.ID)+`,"fee_type":"dinner","amount":"35","due_date":"2025-05-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/fees?club_id=1&status=overdue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	views := decode[[]service.FeeView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, models.FeeStatusPending, views[0].Status)
	assert.Equal(t, models.FeeStatusOverdue, views[0].DisplayStatus)

	rec = f.do(t, http.MethodGet, "/api/fees?club_id=1&status=late", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFees_GenerateIsThrottled(t *testing.T) {
	f := newFixture(t, rate.NewLimiter(rate.Every(time.Hour), 1))

	rec := f.do(t, http.MethodPost, "/api/fees/generate", `{"club_id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/fees/generate", `{"club_id":1}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestClubs_CreateAndGet(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/clubs", `{"name":"Lions Süd","annual_fee":"80","timezone":"Mars/Base"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode[map[string]any](t, rec)["fields"].(map[string]any)
	assert.Equal(t, "timezone", fields["timezone"])

	rec = f.do(t, http.MethodPost, "/api/clubs", `{"name":"Lions Süd","annual_fee":"80","timezone":"Europe/Berlin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	club := decode[models.Club](t, rec)
	assert.True(t, decimal.NewFromInt(80).Equal(club.AnnualFee))

	rec = f.do(t, http.MethodGet, "/api/clubs/"+itoa(club.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lions Süd", decode[models.Club](t, rec).Name)

	rec = f.do(t, http.MethodGet, "/api/clubs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Club](t, rec), 2)

	rec = f.do(t, http.MethodGet, "/api/clubs/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
